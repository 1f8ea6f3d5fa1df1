package inventory

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"windowcraft.ai/internal/ui/item"
)

type recordingWindow struct {
	id      uint64
	reasons []UpdateReason
}

func (w *recordingWindow) ListenerID() uint64 { return w.id }
func (w *recordingWindow) HandleInventoryUpdate(_ *Inventory, r UpdateReason) {
	w.reasons = append(w.reasons, r)
}

func TestSetStack_NotifiesRegisteredWindowsOnly(t *testing.T) {
	inv := New(uuid.Nil, 3)
	a := &recordingWindow{id: 1}
	b := &recordingWindow{id: 2}
	c := &recordingWindow{id: 3}
	inv.AddWindow(a)
	inv.AddWindow(b)
	inv.AddWindow(b)

	reason := UpdateReason{Viewer: uuid.New(), Window: 2, Mirrored: true}
	ok, err := inv.SetStack(reason, 1, item.NewStack("STONE", 4))
	if err != nil || !ok {
		t.Fatalf("SetStack: ok=%v err=%v", ok, err)
	}
	if len(a.reasons) != 1 || len(b.reasons) != 1 || len(c.reasons) != 0 {
		t.Fatalf("notify counts a=%d b=%d c=%d", len(a.reasons), len(b.reasons), len(c.reasons))
	}
	if diff := cmp.Diff(reason, b.reasons[0]); diff != "" {
		t.Fatalf("reason (-want +got):\n%s", diff)
	}
	if !inv.Stack(1).Equal(item.NewStack("STONE", 4)) {
		t.Fatalf("slot 1: %v", inv.Stack(1))
	}
}

func TestSetStack_OutOfRange(t *testing.T) {
	inv := New(uuid.Nil, 2)
	if _, err := inv.SetStack(UpdateReason{}, 2, nil); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("expected ErrSlotOutOfRange, got %v", err)
	}
}

func TestSetStack_PreUpdateVeto(t *testing.T) {
	inv := New(uuid.Nil, 1)
	w := &recordingWindow{id: 1}
	inv.AddWindow(w)
	inv.SetPreUpdateHandler(func(ev *UpdateEvent) bool {
		return ev.New == nil || ev.New.Type != "TNT"
	})
	ok, err := inv.SetStack(UpdateReason{}, 0, item.NewStack("TNT", 1))
	if err != nil || ok {
		t.Fatalf("expected veto, ok=%v err=%v", ok, err)
	}
	if inv.Stack(0) != nil || len(w.reasons) != 0 {
		t.Fatalf("vetoed update leaked: %v, %d notifications", inv.Stack(0), len(w.reasons))
	}
}

func TestAddStack_MergesThenFills(t *testing.T) {
	inv := New(uuid.Nil, 3)
	_, _ = inv.SetStack(UpdateReason{}, 1, item.NewStack("STONE", 60))
	inv.SetMaxStack(2, 10)
	w := &recordingWindow{id: 1}
	inv.AddWindow(w)

	left := inv.AddStack(UpdateReason{}, item.NewStack("STONE", 80))
	want := []int{64, 64, 10}
	got := []int{item.AmountOf(inv.Stack(0)), item.AmountOf(inv.Stack(1)), item.AmountOf(inv.Stack(2))}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("amounts (-want +got):\n%s", diff)
	}
	if item.AmountOf(left) != 2 {
		t.Fatalf("leftover: %v", left)
	}
	if len(w.reasons) != 1 {
		t.Fatalf("AddStack should notify once, got %d", len(w.reasons))
	}
}

func TestApplyClick(t *testing.T) {
	stone := func(n int) *item.Stack { return item.NewStack("STONE", n) }
	dirt := func(n int) *item.Stack { return item.NewStack("DIRT", n) }
	cases := []struct {
		name               string
		kind               item.ClickKind
		slot, cursor       *item.Stack
		wantSlot, wantCurs *item.Stack
		changed            bool
	}{
		{"pickup", item.ClickLeft, stone(5), nil, nil, stone(5), true},
		{"place all", item.ClickLeft, nil, stone(5), stone(5), nil, true},
		{"merge capped", item.ClickLeft, stone(60), stone(10), stone(64), stone(6), true},
		{"swap", item.ClickLeft, stone(3), dirt(2), dirt(2), stone(3), true},
		{"right half", item.ClickRight, stone(5), nil, stone(2), stone(3), true},
		{"right one", item.ClickRight, stone(2), stone(4), stone(3), stone(3), true},
		{"drop one", item.ClickDrop, stone(2), nil, stone(1), nil, true},
		{"drop stack", item.ClickControlDrop, stone(2), nil, nil, nil, true},
		{"empty noop", item.ClickLeft, nil, nil, nil, nil, false},
		{"shift ignored", item.ClickShiftLeft, stone(1), nil, stone(1), nil, false},
	}
	for _, tc := range cases {
		gotSlot, gotCursor, changed := ApplyClick(tc.kind, tc.slot, tc.cursor, 64)
		if changed != tc.changed || !gotSlot.Equal(tc.wantSlot) || !gotCursor.Equal(tc.wantCurs) {
			t.Fatalf("%s: got slot=%v cursor=%v changed=%v", tc.name, gotSlot, gotCursor, changed)
		}
	}
}
