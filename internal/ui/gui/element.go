package gui

import (
	"github.com/google/uuid"

	"windowcraft.ai/internal/ui/inventory"
	"windowcraft.ai/internal/ui/item"
)

// SlotElement is the closed set of things a GUI cell can hold:
// ItemElement, InventoryElement, LinkedElement, Marker and Empty.
// A nil SlotElement is the same as Empty.
type SlotElement interface {
	slotElement()
}

// Holding is a terminal element: ItemElement or InventoryElement.
type Holding interface {
	SlotElement
	StackFor(viewer uuid.UUID) *item.Stack
	// Leaf is the *item.Item or *inventory.Inventory behind the element.
	Leaf() any
}

type ItemElement struct {
	Item *item.Item
}

// InventoryElement shows one slot of a virtual inventory. Background is
// shown while that slot is empty.
type InventoryElement struct {
	Inventory  *inventory.Inventory
	Slot       int
	Background item.Provider
}

// Link points at one cell of another GUI.
type Link struct {
	GUI  *GUI
	Slot int
}

// LinkedElement resolves to the first link whose target resolves.
type LinkedElement struct {
	Links []Link
}

// Marker is a layout-only cell that never renders.
type Marker struct {
	Name string
}

type Empty struct{}

func (ItemElement) slotElement()      {}
func (InventoryElement) slotElement() {}
func (LinkedElement) slotElement()    {}
func (Marker) slotElement()           {}
func (Empty) slotElement()            {}

func (e ItemElement) StackFor(viewer uuid.UUID) *item.Stack { return e.Item.StackFor(viewer) }
func (e ItemElement) Leaf() any                             { return e.Item }

func (e InventoryElement) StackFor(uuid.UUID) *item.Stack { return e.Inventory.Stack(e.Slot) }
func (e InventoryElement) Leaf() any                      { return e.Inventory }

// Link builds a single-target LinkedElement.
func LinkTo(g *GUI, slot int) LinkedElement {
	return LinkedElement{Links: []Link{{GUI: g, Slot: slot}}}
}

// maxDepth bounds link resolution independently of the visited set.
const maxDepth = 32

// Resolve walks links down to the holding element. It returns nil for
// markers, empty cells, dangling links and cycles. It has no side effects.
func Resolve(e SlotElement) Holding {
	return resolve(e, 0, nil)
}

func resolve(e SlotElement, depth int, seen map[Link]struct{}) Holding {
	switch e := e.(type) {
	case ItemElement:
		if e.Item == nil {
			return nil
		}
		return e
	case InventoryElement:
		if e.Inventory == nil {
			return nil
		}
		return e
	case LinkedElement:
		if depth >= maxDepth {
			return nil
		}
		for _, l := range e.Links {
			if l.GUI == nil {
				continue
			}
			if _, ok := seen[l]; ok {
				continue
			}
			if seen == nil {
				seen = map[Link]struct{}{}
			}
			seen[l] = struct{}{}
			if h := resolve(l.GUI.SlotElement(l.Slot), depth+1, seen); h != nil {
				return h
			}
		}
	}
	return nil
}

func (e LinkedElement) references(g *GUI, slot int) bool {
	for _, l := range e.Links {
		if l.GUI == g && l.Slot == slot {
			return true
		}
	}
	return false
}

func (e LinkedElement) referencesGUI(g *GUI) bool {
	for _, l := range e.Links {
		if l.GUI == g {
			return true
		}
	}
	return false
}
