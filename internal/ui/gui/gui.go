// Package gui is the slot composition graph: fixed-size grids of slot
// elements that can link into each other and notify their parents.
package gui

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"windowcraft.ai/internal/ui/inventory"
	"windowcraft.ai/internal/ui/item"
)

var (
	ErrIndexOutOfRange = errors.New("gui: slot index out of range")
	ErrCycle           = errors.New("gui: composition cycle")
)

// Parent is notified when a child's cell changes. Both GUIs and windows are parents.
type Parent interface {
	HandleSlotElementUpdate(child *GUI, index int)
}

// ClickPolicy decides whether a click on a local slot may proceed.
type ClickPolicy func(reason inventory.UpdateReason, index int, c item.Click) bool

// DragPolicy decides whether proposed may replace current at a local slot.
type DragPolicy func(reason inventory.UpdateReason, index int, current, proposed *item.Stack) bool

type GUI struct {
	width, height int
	slots         []SlotElement
	background    item.Provider
	parents       []Parent

	clickPolicy ClickPolicy
	dragPolicy  DragPolicy
}

// New panics on non-positive dimensions.
func New(width, height int) *GUI {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("gui: bad dimensions %dx%d", width, height))
	}
	return &GUI{
		width:  width,
		height: height,
		slots:  make([]SlotElement, width*height),
	}
}

func (g *GUI) Width() int  { return g.width }
func (g *GUI) Height() int { return g.height }
func (g *GUI) Size() int   { return len(g.slots) }

// IndexOf converts grid coordinates to a slot index, -1 when outside.
func (g *GUI) IndexOf(x, y int) int {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return -1
	}
	return y*g.width + x
}

// SlotElement returns the element at index, nil when empty or out of range.
func (g *GUI) SlotElement(index int) SlotElement {
	if index < 0 || index >= len(g.slots) {
		return nil
	}
	return g.slots[index]
}

// SetSlotElement replaces a cell and notifies every parent. Linked GUIs gain
// this GUI as a parent; a link that would make a GUI its own ancestor fails
// with ErrCycle and leaves the cell untouched.
func (g *GUI) SetSlotElement(index int, e SlotElement) error {
	if index < 0 || index >= len(g.slots) {
		return fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, index, len(g.slots))
	}
	if _, ok := e.(Empty); ok {
		e = nil
	}
	linked, _ := e.(LinkedElement)
	for _, l := range linked.Links {
		if l.GUI != nil && (l.GUI == g || l.GUI.isAncestorOf(g)) {
			return fmt.Errorf("%w: slot %d", ErrCycle, index)
		}
	}

	old, _ := g.slots[index].(LinkedElement)
	g.slots[index] = e
	for _, l := range old.Links {
		if l.GUI != nil && !g.links(l.GUI) {
			l.GUI.RemoveParent(g)
		}
	}
	for _, l := range linked.Links {
		if l.GUI != nil {
			l.GUI.AddParent(g)
		}
	}
	g.notifyParents(index)
	return nil
}

func (g *GUI) SetItem(index int, it *item.Item) error {
	if it == nil {
		return g.SetSlotElement(index, nil)
	}
	return g.SetSlotElement(index, ItemElement{Item: it})
}

func (g *GUI) SetInventorySlot(index int, inv *inventory.Inventory, slot int, background item.Provider) error {
	return g.SetSlotElement(index, InventoryElement{Inventory: inv, Slot: slot, Background: background})
}

func (g *GUI) Remove(index int) error { return g.SetSlotElement(index, nil) }

// FillRect nests child with its top-left corner at (x, y). Cells falling
// outside this GUI are skipped.
func (g *GUI) FillRect(x, y int, child *GUI) error {
	for cy := 0; cy < child.height; cy++ {
		for cx := 0; cx < child.width; cx++ {
			idx := g.IndexOf(x+cx, y+cy)
			if idx < 0 {
				continue
			}
			if err := g.SetSlotElement(idx, LinkTo(child, child.IndexOf(cx, cy))); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *GUI) Background() item.Provider { return g.background }

// SetBackground changes the fill for unresolved cells and redraws every cell.
func (g *GUI) SetBackground(p item.Provider) {
	g.background = p
	for i := range g.slots {
		g.notifyParents(i)
	}
}

func (g *GUI) Parents() []Parent {
	out := make([]Parent, len(g.parents))
	copy(out, g.parents)
	return out
}

func (g *GUI) AddParent(p Parent) {
	for _, cur := range g.parents {
		if cur == p {
			return
		}
	}
	g.parents = append(g.parents, p)
}

func (g *GUI) RemoveParent(p Parent) {
	for i, cur := range g.parents {
		if cur == p {
			g.parents = append(g.parents[:i], g.parents[i+1:]...)
			return
		}
	}
}

// HandleSlotElementUpdate re-fans a child change to this GUI's parents for
// every cell linking to it.
func (g *GUI) HandleSlotElementUpdate(child *GUI, index int) {
	for i, e := range g.slots {
		if l, ok := e.(LinkedElement); ok && l.references(child, index) {
			g.notifyParents(i)
		}
	}
}

func (g *GUI) notifyParents(index int) {
	for _, p := range g.Parents() {
		p.HandleSlotElementUpdate(g, index)
	}
}

func (g *GUI) links(child *GUI) bool {
	for _, e := range g.slots {
		if l, ok := e.(LinkedElement); ok && l.referencesGUI(child) {
			return true
		}
	}
	return false
}

// isAncestorOf reports whether g is reachable upward from other through GUI parents.
func (g *GUI) isAncestorOf(other *GUI) bool {
	seen := map[*GUI]bool{}
	queue := []*GUI{other}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range cur.parents {
			pg, ok := p.(*GUI)
			if !ok || seen[pg] {
				continue
			}
			if pg == g {
				return true
			}
			seen[pg] = true
			queue = append(queue, pg)
		}
	}
	return false
}

// Representation is what viewer should see at index: the holding element's
// stack, an inventory slot's own background, or the nearest GUI background.
// For a linked cell the search starts at the innermost linked GUI and walks
// outward, so a child's background wins over its parents'.
func (g *GUI) Representation(index int, viewer uuid.UUID) *item.Stack {
	if h := Resolve(g.SlotElement(index)); h != nil {
		if s := h.StackFor(viewer); !s.IsEmpty() {
			return s
		}
		if ie, ok := h.(InventoryElement); ok && ie.Background != nil {
			return ie.Background.For(viewer)
		}
	}
	chain := g.linkChain(index)
	for i := len(chain) - 1; i > 0; i-- {
		if bg := chain[i].background; bg != nil {
			return bg.For(viewer)
		}
	}
	if bg := g.nearestBackground(); bg != nil {
		return bg.For(viewer)
	}
	return nil
}

// linkChain follows the first usable link of each linked cell starting at
// index and returns the GUIs passed through, g first.
func (g *GUI) linkChain(index int) []*GUI {
	chain := []*GUI{g}
	seen := map[Link]bool{}
	e := g.SlotElement(index)
	for len(chain) <= maxDepth {
		le, ok := e.(LinkedElement)
		if !ok {
			break
		}
		i := slices.IndexFunc(le.Links, func(l Link) bool { return l.GUI != nil })
		if i < 0 || seen[le.Links[i]] {
			break
		}
		next := le.Links[i]
		seen[next] = true
		chain = append(chain, next.GUI)
		e = next.GUI.SlotElement(next.Slot)
	}
	return chain
}

func (g *GUI) nearestBackground() item.Provider {
	seen := map[*GUI]bool{g: true}
	queue := []*GUI{g}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.background != nil {
			return cur.background
		}
		for _, p := range cur.parents {
			if pg, ok := p.(*GUI); ok && !seen[pg] {
				seen[pg] = true
				queue = append(queue, pg)
			}
		}
	}
	return nil
}

func (g *GUI) SetClickPolicy(p ClickPolicy) { g.clickPolicy = p }
func (g *GUI) SetDragPolicy(p DragPolicy)   { g.dragPolicy = p }

// QueryClick defaults to true.
func (g *GUI) QueryClick(reason inventory.UpdateReason, index int, c item.Click) bool {
	if g.clickPolicy == nil {
		return true
	}
	return g.clickPolicy(reason, index, c)
}

// QueryDrag defaults to true.
func (g *GUI) QueryDrag(reason inventory.UpdateReason, index int, current, proposed *item.Stack) bool {
	if g.dragPolicy == nil {
		return true
	}
	return g.dragPolicy(reason, index, current, proposed)
}
