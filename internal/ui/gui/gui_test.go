package gui

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"windowcraft.ai/internal/ui/inventory"
	"windowcraft.ai/internal/ui/item"
)

type parentRecorder struct {
	calls []string
}

func (p *parentRecorder) HandleSlotElementUpdate(child *GUI, index int) {
	p.calls = append(p.calls, childName(child)+":"+string(rune('0'+index)))
}

var names = map[*GUI]string{}

func childName(g *GUI) string { return names[g] }

func staticItem(typ string) *item.Item { return item.New(item.Static(item.NewStack(typ, 1))) }

func TestSetSlotElement_LastWriteWins(t *testing.T) {
	g := New(3, 1)
	a, b := staticItem("A"), staticItem("B")
	writes := []struct {
		idx int
		e   SlotElement
	}{
		{0, ItemElement{Item: a}},
		{1, Marker{Name: "m"}},
		{0, ItemElement{Item: b}},
		{2, ItemElement{Item: a}},
		{2, nil},
	}
	for _, w := range writes {
		if err := g.SetSlotElement(w.idx, w.e); err != nil {
			t.Fatalf("SetSlotElement(%d): %v", w.idx, err)
		}
	}
	if got := g.SlotElement(0); got != (ItemElement{Item: b}) {
		t.Fatalf("slot 0: %#v", got)
	}
	if got := g.SlotElement(1); got != (Marker{Name: "m"}) {
		t.Fatalf("slot 1: %#v", got)
	}
	if got := g.SlotElement(2); got != nil {
		t.Fatalf("slot 2: %#v", got)
	}
}

func TestSetSlotElement_OutOfRange(t *testing.T) {
	g := New(2, 2)
	for _, idx := range []int{-1, 4} {
		if err := g.SetSlotElement(idx, nil); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("index %d: expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}
	if g.SlotElement(9) != nil {
		t.Fatalf("out of range read should be nil")
	}
}

func TestSetSlotElement_NotifiesEveryParent(t *testing.T) {
	g := New(2, 1)
	names[g] = "g"
	p1, p2 := &parentRecorder{}, &parentRecorder{}
	g.AddParent(p1)
	g.AddParent(p2)
	g.AddParent(p1)

	_ = g.SetItem(1, staticItem("A"))
	want := []string{"g:1"}
	if diff := cmp.Diff(want, p1.calls); diff != "" {
		t.Fatalf("p1 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, p2.calls); diff != "" {
		t.Fatalf("p2 (-want +got):\n%s", diff)
	}

	g.RemoveParent(p2)
	_ = g.Remove(1)
	if len(p1.calls) != 2 || len(p2.calls) != 1 {
		t.Fatalf("after RemoveParent: p1=%d p2=%d", len(p1.calls), len(p2.calls))
	}
}

func TestResolve_LinkedFallbackChain(t *testing.T) {
	inv := inventory.New(uuid.Nil, 1)
	primary := New(1, 1)
	fallback := New(1, 1)
	it := staticItem("F")
	_ = fallback.SetItem(0, it)

	e := LinkedElement{Links: []Link{{GUI: primary, Slot: 0}, {GUI: fallback, Slot: 0}}}
	if h := Resolve(e); h == nil || h.Leaf() != it {
		t.Fatalf("expected fallback item, got %#v", h)
	}

	_ = primary.SetInventorySlot(0, inv, 0, nil)
	h := Resolve(e)
	ie, ok := h.(InventoryElement)
	if !ok || ie.Inventory != inv {
		t.Fatalf("expected inventory element from primary, got %#v", h)
	}

	for _, e := range []SlotElement{nil, Empty{}, Marker{Name: "x"}, ItemElement{}, LinkTo(nil, 0)} {
		if h := Resolve(e); h != nil {
			t.Fatalf("Resolve(%#v) = %#v, want nil", e, h)
		}
	}
}

func TestSetSlotElement_RejectsCycles(t *testing.T) {
	outer := New(1, 1)
	inner := New(1, 1)
	if err := outer.SetSlotElement(0, LinkTo(inner, 0)); err != nil {
		t.Fatalf("link outer->inner: %v", err)
	}
	if err := inner.SetSlotElement(0, LinkTo(outer, 0)); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	if err := inner.SetSlotElement(0, LinkTo(inner, 0)); !errors.Is(err, ErrCycle) {
		t.Fatalf("self link: expected ErrCycle, got %v", err)
	}
	if Resolve(outer.SlotElement(0)) != nil {
		t.Fatalf("rejected link must leave inner empty")
	}
}

func TestResolve_SurvivesCycleBuiltPastGuard(t *testing.T) {
	viewer := uuid.New()
	outer := New(1, 1)
	inner := New(1, 1)
	if err := outer.SetSlotElement(0, LinkTo(inner, 0)); err != nil {
		t.Fatalf("link outer->inner: %v", err)
	}
	// Dropping the parent edge hides the loop from the ancestor check.
	inner.RemoveParent(outer)
	if err := inner.SetSlotElement(0, LinkTo(outer, 0)); err != nil {
		t.Fatalf("link inner->outer: %v", err)
	}

	if h := Resolve(outer.SlotElement(0)); h != nil {
		t.Fatalf("cycle resolved to %#v", h)
	}
	if got := outer.Representation(0, viewer); got != nil {
		t.Fatalf("cycle representation = %v", got)
	}

	it := staticItem("ESCAPE")
	exit := New(1, 1)
	_ = exit.SetItem(0, it)
	if err := inner.SetSlotElement(0, LinkedElement{Links: []Link{{GUI: outer, Slot: 0}, {GUI: exit, Slot: 0}}}); err != nil {
		t.Fatalf("SetSlotElement: %v", err)
	}
	if h := Resolve(outer.SlotElement(0)); h == nil || h.Leaf() != it {
		t.Fatalf("expected the link after the loop to win, got %#v", h)
	}
}

func TestResolve_DepthLimit(t *testing.T) {
	chain := make([]*GUI, maxDepth+2)
	for i := range chain {
		chain[i] = New(1, 1)
	}
	it := staticItem("DEEP")
	last := len(chain) - 1
	_ = chain[last].SetItem(0, it)
	for i := last - 1; i >= 0; i-- {
		if err := chain[i].SetSlotElement(0, LinkTo(chain[i+1], 0)); err != nil {
			t.Fatalf("link %d: %v", i, err)
		}
	}

	if h := Resolve(chain[1].SlotElement(0)); h == nil || h.Leaf() != it {
		t.Fatalf("%d links should resolve, got %#v", last-1, h)
	}
	if h := Resolve(chain[0].SlotElement(0)); h != nil {
		t.Fatalf("%d links should stop at the depth limit, got %#v", last, h)
	}
}

func TestChildChangePropagatesThroughLinkingGUI(t *testing.T) {
	outer := New(2, 1)
	inner := New(1, 1)
	names[outer] = "outer"
	rec := &parentRecorder{}
	outer.AddParent(rec)
	_ = outer.SetSlotElement(1, LinkTo(inner, 0))
	rec.calls = nil

	_ = inner.SetItem(0, staticItem("A"))
	if diff := cmp.Diff([]string{"outer:1"}, rec.calls); diff != "" {
		t.Fatalf("propagation (-want +got):\n%s", diff)
	}

	_ = outer.Remove(1)
	if len(inner.Parents()) != 0 {
		t.Fatalf("unlinked child still has parent")
	}
}

func TestRepresentation_BackgroundWalksAncestors(t *testing.T) {
	viewer := uuid.New()
	outer := New(2, 1)
	inner := New(1, 1)
	outer.SetBackground(item.Static(item.NewStack("PANE", 1)))
	_ = outer.SetSlotElement(0, LinkTo(inner, 0))

	if got := inner.Representation(0, viewer); got.Type != "PANE" {
		t.Fatalf("inner empty slot should use outer background, got %v", got)
	}
	if got := outer.Representation(1, viewer); got.Type != "PANE" {
		t.Fatalf("outer empty slot: %v", got)
	}

	inner.SetBackground(item.Static(item.NewStack("INNER", 1)))
	if got := inner.Representation(0, viewer); got.Type != "INNER" {
		t.Fatalf("nearest background should win, got %v", got)
	}

	inv := inventory.New(uuid.Nil, 1)
	_ = inner.SetInventorySlot(0, inv, 0, item.Static(item.NewStack("SLOT_BG", 1)))
	if got := inner.Representation(0, viewer); got.Type != "SLOT_BG" {
		t.Fatalf("empty inventory slot should use its own background, got %v", got)
	}
	_, _ = inv.SetStack(inventory.UpdateReason{}, 0, item.NewStack("STONE", 3))
	if got := inner.Representation(0, viewer); !got.Equal(item.NewStack("STONE", 3)) {
		t.Fatalf("filled inventory slot: %v", got)
	}

	lone := New(1, 1)
	if lone.Representation(0, viewer) != nil {
		t.Fatalf("no background anywhere should render nothing")
	}
}

func TestQueryPolicies(t *testing.T) {
	g := New(2, 1)
	if !g.QueryClick(inventory.UpdateReason{}, 0, item.Click{}) || !g.QueryDrag(inventory.UpdateReason{}, 0, nil, nil) {
		t.Fatalf("default policies should allow")
	}
	g.SetDragPolicy(func(_ inventory.UpdateReason, index int, _, _ *item.Stack) bool { return index != 1 })
	g.SetClickPolicy(func(_ inventory.UpdateReason, _ int, c item.Click) bool { return c.Kind == item.ClickLeft })
	if g.QueryDrag(inventory.UpdateReason{}, 1, nil, nil) || !g.QueryDrag(inventory.UpdateReason{}, 0, nil, nil) {
		t.Fatalf("drag policy not applied")
	}
	if g.QueryClick(inventory.UpdateReason{}, 0, item.Click{Kind: item.ClickRight}) {
		t.Fatalf("click policy not applied")
	}
}

func TestFillRect_NestsChild(t *testing.T) {
	outer := New(3, 3)
	child := New(2, 2)
	a := staticItem("A")
	_ = child.SetItem(child.IndexOf(1, 1), a)
	if err := outer.FillRect(2, 2, child); err != nil {
		t.Fatalf("FillRect: %v", err)
	}
	if h := Resolve(outer.SlotElement(outer.IndexOf(2, 2))); h != nil {
		t.Fatalf("child (0,0) is empty, got %#v", h)
	}
	if len(child.Parents()) != 1 {
		t.Fatalf("child parents: %d", len(child.Parents()))
	}
	if err := outer.FillRect(1, 1, child); err != nil {
		t.Fatalf("FillRect again: %v", err)
	}
	if h := Resolve(outer.SlotElement(outer.IndexOf(2, 2))); h == nil || h.Leaf() != a {
		t.Fatalf("expected child (1,1) at outer (2,2), got %#v", h)
	}
}
