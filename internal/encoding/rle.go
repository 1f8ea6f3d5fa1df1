// Package encoding packs a full window into a frame: a palette of distinct
// slot payloads and a run-length encoding of palette indices.
package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRLE encodes palette indices as base64 of (index, run) uvarint pairs.
func EncodeRLE(ids []uint16) string {
	var raw []byte
	for start := 0; start < len(ids); {
		end := start + 1
		for end < len(ids) && ids[end] == ids[start] {
			end++
		}
		raw = binary.AppendUvarint(raw, uint64(ids[start]))
		raw = binary.AppendUvarint(raw, uint64(end-start))
		start = end
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeRLE expands an EncodeRLE string, refusing to grow past limit entries.
func DecodeRLE(b64 string, limit int) ([]uint16, error) {
	if limit < 0 {
		return nil, fmt.Errorf("negative cell limit %d", limit)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		b, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if b > 0xFFFF {
			return nil, fmt.Errorf("palette index too large: %d", b)
		}
		if run > uint64(limit-len(out)) {
			return nil, fmt.Errorf("run of %d overflows %d cells", run, limit)
		}
		for k := 0; k < int(run); k++ {
			out = append(out, uint16(b))
		}
	}
	return out, nil
}
