package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"windowcraft.ai/internal/adapter"
	"windowcraft.ai/internal/encoding"
	"windowcraft.ai/internal/protocol"
	"windowcraft.ai/internal/ui/item"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// asJSON round-trips v through encoding/json so the schema sees what goes on the wire.
func asJSON(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemas_ValidateMessages(t *testing.T) {
	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(asJSON(t, v)); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	validate(compile(t, "hello.schema.json"), protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ViewerName:      "alice",
		Capabilities:    protocol.HelloCapabilities{Codecs: []string{adapter.JSONName}, MaxQueue: 64},
	})
	validate(compile(t, "welcome.schema.json"), protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ViewerID:        "6f1c1d62-7d0a-4a59-9d3b-1b1f4b2b7c11",
		Codec:           adapter.BinaryName,
		Compressed:      true,
		TickRateHz:      20,
	})

	frame, err := encoding.EncodeFrame([]*item.Stack{item.NewStack("PANE", 1), nil, nil}, adapter.Current(), false)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	validate(compile(t, "open_window.schema.json"), protocol.OpenWindowMsg{
		Type:            protocol.TypeOpenWindow,
		ProtocolVersion: protocol.Version,
		WindowID:        3,
		Title:           "Chest",
		Width:           3,
		Frame:           frame,
	})
	validate(compile(t, "click.schema.json"), protocol.ClickMsg{
		Type:     protocol.TypeClick,
		WindowID: 3,
		Slot:     4,
		Click:    item.ClickShiftLeft.String(),
	})
	validate(compile(t, "drag.schema.json"), protocol.DragMsg{
		Type:      protocol.TypeDrag,
		WindowID:  3,
		Slots:     []protocol.DragSlot{{Slot: 1, Item: "e30="}, {Slot: 2, Item: "e30="}},
		OldCursor: "e30=",
	})
}

func TestSchemas_RejectBadClick(t *testing.T) {
	s := compile(t, "click.schema.json")
	var v any
	_ = json.Unmarshal([]byte(`{"type":"CLICK","window_id":1,"slot":-1,"click":"KICK"}`), &v)
	if err := s.Validate(v); err == nil {
		t.Fatalf("expected validation error")
	}
}
