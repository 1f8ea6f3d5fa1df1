package encoding

import (
	"encoding/base64"
	"fmt"

	"windowcraft.ai/internal/adapter"
	"windowcraft.ai/internal/ui/item"
)

// Frame is every slot of a window at once. Palette[0] is always the empty
// slot; other entries are base64 codec payloads.
type Frame struct {
	Size    int      `json:"size"`
	Palette []string `json:"palette"`
	Cells   string   `json:"cells"`
}

// EncodeFrame builds a frame from rendered slots with codec c.
func EncodeFrame(slots []*item.Stack, c adapter.Codec, compressed bool) (Frame, error) {
	f := Frame{Size: len(slots), Palette: []string{""}}
	index := map[string]uint16{"": 0}
	ids := make([]uint16, len(slots))
	for i, s := range slots {
		payload, err := EncodeSlot(s, c, compressed)
		if err != nil {
			return Frame{}, fmt.Errorf("slot %d: %w", i, err)
		}
		id, ok := index[payload]
		if !ok {
			if len(f.Palette) > 0xFFFF {
				return Frame{}, fmt.Errorf("palette overflow at slot %d", i)
			}
			id = uint16(len(f.Palette))
			index[payload] = id
			f.Palette = append(f.Palette, payload)
		}
		ids[i] = id
	}
	f.Cells = EncodeRLE(ids)
	return f, nil
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(f Frame, c adapter.Codec, compressed bool) ([]*item.Stack, error) {
	ids, err := DecodeRLE(f.Cells, f.Size)
	if err != nil {
		return nil, err
	}
	if len(ids) != f.Size {
		return nil, fmt.Errorf("frame has %d cells, want %d", len(ids), f.Size)
	}
	palette := make([]*item.Stack, len(f.Palette))
	for i, p := range f.Palette {
		if palette[i], err = DecodeSlot(p, c, compressed); err != nil {
			return nil, fmt.Errorf("palette %d: %w", i, err)
		}
	}
	out := make([]*item.Stack, f.Size)
	for i, id := range ids {
		if int(id) >= len(palette) {
			return nil, fmt.Errorf("cell %d: palette index %d out of range", i, id)
		}
		out[i] = palette[id].Clone()
	}
	return out, nil
}

// EncodeSlot renders one stack as a base64 payload; empty stacks are "".
func EncodeSlot(s *item.Stack, c adapter.Codec, compressed bool) (string, error) {
	b, err := c.Encode(s, compressed)
	if err != nil || len(b) == 0 {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func DecodeSlot(payload string, c adapter.Codec, compressed bool) (*item.Stack, error) {
	if payload == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	return c.Decode(b, compressed)
}
