// Package eventlog writes the interaction trace: one JSON line per viewer
// event, zstd-compressed, one file per UTC hour.
package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	tracePrefix = "trace"
	hourLayout  = "2006-01-02-15"
	fileSuffix  = ".jsonl.zst"
)

// Entry is one traced viewer interaction.
type Entry struct {
	Tick     uint64 `json:"tick"`
	Viewer   string `json:"viewer"`
	WindowID uint64 `json:"window_id,omitempty"`
	Event    string `json:"event"`
	Slot     *int   `json:"slot,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Error    string `json:"error,omitempty"`
}

// segment is the open file for one hour.
type segment struct {
	hour string
	file *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
	enc  *json.Encoder
}

func openSegment(path, hour string) (*segment, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	buf := bufio.NewWriterSize(zw, 64*1024)
	return &segment{hour: hour, file: f, zw: zw, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// close ends the zstd frame; a segment reopened later in the same hour
// appends a second frame, which readers decode transparently.
func (s *segment) close() error {
	ferr := s.buf.Flush()
	zerr := s.zw.Close()
	cerr := s.file.Close()
	for _, err := range []error{ferr, zerr, cerr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Trace writes Entries under <dir>/trace-<hour>.jsonl.zst. Safe for
// concurrent use.
type Trace struct {
	dir string
	now func() time.Time

	mu  sync.Mutex
	cur *segment
}

func NewTrace(dir string) *Trace {
	return &Trace{dir: dir, now: time.Now}
}

// Record appends e to the current hour's file and flushes it through the
// buffer so a crash loses at most the unfinished zstd block.
func (t *Trace) Record(e Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	hour := t.now().UTC().Format(hourLayout)
	if t.cur == nil || t.cur.hour != hour {
		if err := t.closeLocked(); err != nil {
			return err
		}
		seg, err := openSegment(filepath.Join(t.dir, segmentName(tracePrefix, hour)), hour)
		if err != nil {
			return err
		}
		t.cur = seg
	}
	if err := t.cur.enc.Encode(e); err != nil {
		return err
	}
	return t.cur.buf.Flush()
}

func (t *Trace) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeLocked()
}

func (t *Trace) closeLocked() error {
	if t.cur == nil {
		return nil
	}
	err := t.cur.close()
	t.cur = nil
	return err
}

func segmentName(prefix, hour string) string {
	return prefix + "-" + hour + fileSuffix
}
