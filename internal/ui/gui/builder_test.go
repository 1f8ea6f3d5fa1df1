package gui

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"windowcraft.ai/internal/ui/inventory"
	"windowcraft.ai/internal/ui/item"
)

func TestBuilder_NoStructure(t *testing.T) {
	if _, err := NewBuilder().Build(); !errors.Is(err, ErrNoStructure) {
		t.Fatalf("expected ErrNoStructure, got %v", err)
	}
	if _, err := NewBuilder().BuildPaged('.', false, nil); !errors.Is(err, ErrNoStructure) {
		t.Fatalf("paged: expected ErrNoStructure, got %v", err)
	}
}

func TestParseStructure_RaggedRows(t *testing.T) {
	if _, err := ParseStructure("# # #", "# #"); err == nil {
		t.Fatalf("expected width mismatch error")
	}
	if _, err := ParseStructure(); err == nil {
		t.Fatalf("expected error for no rows")
	}
}

func TestBuilder_InventoryConsumesSlotsInOrder(t *testing.T) {
	inv := inventory.New(uuid.Nil, 3)
	g, err := NewBuilder().
		Structure(
			"# x x",
			"x x #",
		).
		Item('#', item.NewStack("PANE", 1)).
		Inventory('x', inv, nil).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Width() != 3 || g.Height() != 2 {
		t.Fatalf("size %dx%d", g.Width(), g.Height())
	}
	var got []int
	for i := 0; i < g.Size(); i++ {
		if ie, ok := g.SlotElement(i).(InventoryElement); ok {
			got = append(got, ie.Slot)
		} else {
			got = append(got, -1)
		}
	}
	// Fourth 'x' cell has no inventory slot left.
	if diff := cmp.Diff([]int{-1, 0, 1, 2, -1, -1}, got); diff != "" {
		t.Fatalf("slot mapping (-want +got):\n%s", diff)
	}
}

func TestBuilder_Paged(t *testing.T) {
	p, err := NewBuilder().
		Structure(". . <").
		Background(item.Static(item.NewStack("BG", 1))).
		BuildPaged('.', false, ItemPages{Items: items(3)})
	if err != nil {
		t.Fatalf("BuildPaged: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1}, p.ContentSlots()); diff != "" {
		t.Fatalf("content slots (-want +got):\n%s", diff)
	}
	if p.PageCount() != 2 {
		t.Fatalf("page count: %d", p.PageCount())
	}
	if got := p.Representation(2, uuid.Nil); got.Type != "BG" {
		t.Fatalf("unfilled key should show background, got %v", got)
	}
}
