package adapter

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"windowcraft.ai/internal/ui/item"
)

const (
	JSONName   = "json/v1"
	BinaryName = "binary/v2"
)

// jsonCodec is the readable format older hosts use.
type jsonCodec struct{}

func (jsonCodec) Name() string { return JSONName }

func (jsonCodec) Encode(s *item.Stack, compressed bool) ([]byte, error) {
	if s.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return compress(b, compressed), nil
}

func (jsonCodec) Decode(b []byte, compressed bool) (*item.Stack, error) {
	if len(b) == 0 {
		return nil, nil
	}
	raw, err := decompress(b, compressed)
	if err != nil {
		return nil, err
	}
	var s item.Stack
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("json/v1: %w", err)
	}
	if s.IsEmpty() {
		return nil, nil
	}
	return &s, nil
}

// binaryCodec writes uvarint-length-prefixed fields:
// type, amount, max, name, lore count + lines, meta count + sorted pairs.
type binaryCodec struct{}

func (binaryCodec) Name() string { return BinaryName }

func (binaryCodec) Encode(s *item.Stack, compressed bool) ([]byte, error) {
	if s.IsEmpty() {
		return nil, nil
	}
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	putUint := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		buf.Write(tmp[:n])
	}
	putString := func(v string) {
		putUint(uint64(len(v)))
		buf.WriteString(v)
	}

	putString(s.Type)
	putUint(uint64(s.Amount))
	putUint(uint64(max(s.MaxStack, 0)))
	putString(s.Name)
	putUint(uint64(len(s.Lore)))
	for _, l := range s.Lore {
		putString(l)
	}
	keys := make([]string, 0, len(s.Meta))
	for k := range s.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	putUint(uint64(len(keys)))
	for _, k := range keys {
		putString(k)
		putString(s.Meta[k])
	}
	return compress(buf.Bytes(), compressed), nil
}

func (binaryCodec) Decode(b []byte, compressed bool) (*item.Stack, error) {
	if len(b) == 0 {
		return nil, nil
	}
	raw, err := decompress(b, compressed)
	if err != nil {
		return nil, err
	}
	r := &reader{b: raw}
	s := &item.Stack{}
	s.Type = r.readString()
	s.Amount = int(r.readUint())
	s.MaxStack = int(r.readUint())
	s.Name = r.readString()
	if n := r.readUint(); n > 0 && r.err == nil {
		s.Lore = make([]string, 0, min(n, uint64(len(raw))))
		for i := uint64(0); i < n && r.err == nil; i++ {
			s.Lore = append(s.Lore, r.readString())
		}
	}
	if n := r.readUint(); n > 0 && r.err == nil {
		s.Meta = make(map[string]string)
		for i := uint64(0); i < n && r.err == nil; i++ {
			k := r.readString()
			s.Meta[k] = r.readString()
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("binary/v2: %w", r.err)
	}
	if s.IsEmpty() {
		return nil, nil
	}
	return s, nil
}

type reader struct {
	b   []byte
	i   int
	err error
}

func (r *reader) readUint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.b[r.i:])
	if n <= 0 {
		r.err = fmt.Errorf("bad varint at %d", r.i)
		return 0
	}
	r.i += n
	return v
}

func (r *reader) readString() string {
	n := r.readUint()
	if r.err != nil {
		return ""
	}
	if uint64(len(r.b)-r.i) < n {
		r.err = fmt.Errorf("short string at %d", r.i)
		return ""
	}
	s := string(r.b[r.i : r.i+int(n)])
	r.i += int(n)
	return s
}
