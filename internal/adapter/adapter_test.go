package adapter

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"windowcraft.ai/internal/ui/item"
)

func sample() *item.Stack {
	return &item.Stack{
		Type:     "DIAMOND_SWORD",
		Amount:   1,
		Name:     "Edge",
		Lore:     []string{"sharp", "old"},
		Meta:     map[string]string{"slot": "4", "owner": "x"},
		MaxStack: 1,
	}
}

func TestCodecs_PreserveStack(t *testing.T) {
	for _, name := range Names() {
		c, _ := Lookup(name)
		for _, compressed := range []bool{false, true} {
			b, err := c.Encode(sample(), compressed)
			if err != nil {
				t.Fatalf("%s Encode: %v", name, err)
			}
			got, err := c.Decode(b, compressed)
			if err != nil {
				t.Fatalf("%s Decode: %v", name, err)
			}
			if diff := cmp.Diff(sample(), got); diff != "" {
				t.Fatalf("%s compressed=%v (-want +got):\n%s", name, compressed, diff)
			}
		}
	}
}

func TestCodecs_EmptyStackIsEmptyPayload(t *testing.T) {
	for _, name := range Names() {
		c, _ := Lookup(name)
		b, err := c.Encode(nil, true)
		if err != nil || len(b) != 0 {
			t.Fatalf("%s: payload=%v err=%v", name, b, err)
		}
		if s, err := c.Decode(nil, true); s != nil || err != nil {
			t.Fatalf("%s: decode empty = %v, %v", name, s, err)
		}
	}
}

func TestBinary_RejectsTruncated(t *testing.T) {
	c, _ := Lookup(BinaryName)
	b, _ := c.Encode(sample(), false)
	if _, err := c.Decode(b[:len(b)-3], false); err == nil {
		t.Fatalf("expected error for truncated payload")
	}
}

func TestSelect_Once(t *testing.T) {
	if _, err := Select("nope"); !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("expected ErrUnknownCodec, got %v", err)
	}
	if Current().Name() != JSONName {
		t.Fatalf("default codec = %s", Current().Name())
	}
	if _, err := Select(BinaryName); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := Select(BinaryName); err != nil {
		t.Fatalf("reselecting the same codec: %v", err)
	}
	if _, err := Select(JSONName); !errors.Is(err, ErrAlreadySelected) {
		t.Fatalf("expected ErrAlreadySelected, got %v", err)
	}
	if Current().Name() != BinaryName {
		t.Fatalf("current = %s", Current().Name())
	}
}
