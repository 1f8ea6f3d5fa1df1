// Package adapter holds the per-host-version payload codecs. Exactly one is
// selected when the process starts; everything that serializes a stack for a
// viewer goes through Current.
package adapter

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"

	"windowcraft.ai/internal/ui/item"
)

var (
	ErrUnknownCodec    = errors.New("adapter: unknown codec")
	ErrAlreadySelected = errors.New("adapter: codec already selected")
)

// Codec turns a stack into the payload a host version understands.
type Codec interface {
	Name() string
	Encode(s *item.Stack, compressed bool) ([]byte, error)
	Decode(b []byte, compressed bool) (*item.Stack, error)
}

var (
	mu       sync.Mutex
	registry = map[string]Codec{}
	selected Codec
)

// Register adds c under its name, replacing any previous codec with that name.
func Register(c Codec) {
	mu.Lock()
	defer mu.Unlock()
	registry[c.Name()] = c
}

func Lookup(name string) (Codec, bool) {
	mu.Lock()
	defer mu.Unlock()
	c, ok := registry[name]
	return c, ok
}

func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Select fixes the process-wide codec. Selecting the same name again is a
// no-op; a different name fails.
func Select(name string) (Codec, error) {
	mu.Lock()
	defer mu.Unlock()
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	if selected != nil {
		if selected.Name() == name {
			return selected, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrAlreadySelected, selected.Name())
	}
	selected = c
	return c, nil
}

// Current returns the selected codec, or the JSON codec if none was selected.
func Current() Codec {
	mu.Lock()
	defer mu.Unlock()
	if selected == nil {
		return registry[JSONName]
	}
	return selected
}

func init() {
	Register(jsonCodec{})
	Register(binaryCodec{})
}

var zenc, zdec = newZstd()

func newZstd() (*zstd.Encoder, *zstd.Decoder) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(fmt.Sprintf("adapter: zstd encoder: %v", err))
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("adapter: zstd decoder: %v", err))
	}
	return enc, dec
}

func compress(b []byte, on bool) []byte {
	if !on {
		return b
	}
	return zenc.EncodeAll(b, nil)
}

func decompress(b []byte, on bool) ([]byte, error) {
	if !on {
		return b, nil
	}
	out, err := zdec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}
