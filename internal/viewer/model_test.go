package viewer

import (
	"strconv"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"windowcraft.ai/internal/ui/item"
)

type fakeConn struct {
	events chan any
	calls  []string
}

func newFakeConn() *fakeConn { return &fakeConn{events: make(chan any, 8)} }

func (f *fakeConn) Events() <-chan any { return f.events }

func (f *fakeConn) Opened(window uint64) error {
	f.calls = append(f.calls, "OPENED "+itoa(window))
	return nil
}

func (f *fakeConn) Click(window uint64, slot int, kind item.ClickKind, cursor *item.Stack) error {
	f.calls = append(f.calls, "CLICK "+itoa(window)+" "+itoa(uint64(slot))+" "+kind.String()+" "+label(cursor))
	return nil
}

func (f *fakeConn) Dismiss(window uint64) error {
	f.calls = append(f.calls, "CLOSE "+itoa(window))
	return nil
}

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelClickFlow(t *testing.T) {
	conn := newFakeConn()
	m := NewModel(conn)

	m = update(t, m, windowOpenMsg{id: 7, title: "Chest", width: 3, slots: []*item.Stack{
		item.NewStack("DIAMOND", 2), nil, nil,
		nil, item.NewStack("EMERALD", 1), nil,
	}})
	m = update(t, m, key("right"))
	m = update(t, m, key("down"))
	m = update(t, m, key("enter"))
	m = update(t, m, cursorMsg{stack: item.NewStack("EMERALD", 1)})
	m = update(t, m, slotMsg{window: 7, slot: 4, stack: nil})
	m = update(t, m, key("r"))

	want := []string{
		"OPENED 7",
		"CLICK 7 4 LEFT -",
		"CLICK 7 4 RIGHT EMERALD x1",
	}
	if diff := cmp.Diff(want, conn.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
	if m.slots[4] != nil {
		t.Fatalf("slot 4 not cleared: %v", m.slots[4])
	}
	if !strings.Contains(m.View(), "Chest") {
		t.Fatalf("view lacks title:\n%s", m.View())
	}
}

func TestModelMovementStaysInGrid(t *testing.T) {
	m := NewModel(newFakeConn())
	m = update(t, m, windowOpenMsg{id: 1, width: 2, slots: make([]*item.Stack, 4)})
	for i := 0; i < 5; i++ {
		m = update(t, m, key("right"))
	}
	if m.selected != 1 {
		t.Fatalf("selected=%d want 1", m.selected)
	}
	for i := 0; i < 5; i++ {
		m = update(t, m, key("down"))
	}
	if m.selected != 3 {
		t.Fatalf("selected=%d want 3", m.selected)
	}
}

func TestModelCloseAndServerClose(t *testing.T) {
	conn := newFakeConn()
	m := NewModel(conn)
	m = update(t, m, windowOpenMsg{id: 3, width: 1, slots: make([]*item.Stack, 1)})
	m = update(t, m, key("q"))
	if m.windowID != 0 {
		t.Fatalf("window still open")
	}
	if got := conn.calls[len(conn.calls)-1]; got != "CLOSE 3" {
		t.Fatalf("last call %q", got)
	}

	// A modal window comes straight back.
	m = update(t, m, windowOpenMsg{id: 3, width: 1, slots: make([]*item.Stack, 1)})
	m = update(t, m, windowCloseMsg{id: 3})
	if m.windowID != 0 || m.slots != nil {
		t.Fatalf("server close not applied")
	}

	// Stale updates for a closed window are dropped.
	m = update(t, m, slotMsg{window: 3, slot: 0, stack: item.NewStack("STONE", 1)})
	if len(m.slots) != 0 {
		t.Fatalf("stale slot applied")
	}
}

func TestModelDisconnect(t *testing.T) {
	m := NewModel(newFakeConn())
	next, cmd := m.Update(disconnectedMsg{})
	if cmd != nil {
		t.Fatalf("expected no follow-up command")
	}
	m = next.(Model)
	if !m.gone {
		t.Fatalf("not marked gone")
	}
	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Fatalf("q after disconnect should quit")
	}
}
