// Package inventory implements the virtual inventory data leaf: an ordered,
// mutable array of stacks that any number of windows may display at once.
package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"windowcraft.ai/internal/ui/fanout"
	"windowcraft.ai/internal/ui/item"
)

var ErrSlotOutOfRange = errors.New("inventory: slot out of range")

// UpdateReason names the actor behind a mutation. The zero value is a
// programmatic update.
type UpdateReason struct {
	Viewer uuid.UUID
	// Window is the id of the window the change came through, 0 if none.
	Window uint64
	// Mirrored is set when that window's surface already shows the new state.
	Mirrored bool
}

func (r UpdateReason) IsProgrammatic() bool { return r.Viewer == uuid.Nil && r.Window == 0 }

// Window is the part of a window an Inventory talks to.
type Window interface {
	fanout.Listener
	HandleInventoryUpdate(inv *Inventory, reason UpdateReason)
}

// UpdateEvent is passed to the pre-update handler. New may be replaced.
type UpdateEvent struct {
	Reason   UpdateReason
	Slot     int
	Previous *item.Stack
	New      *item.Stack
}

type Inventory struct {
	id        uuid.UUID
	slots     []*item.Stack
	maxStack  []int
	preUpdate func(ev *UpdateEvent) bool
	windows   fanout.Set[Window]
}

func New(id uuid.UUID, size int) *Inventory {
	if size < 0 {
		size = 0
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Inventory{
		id:       id,
		slots:    make([]*item.Stack, size),
		maxStack: make([]int, size),
	}
}

func (inv *Inventory) ID() uuid.UUID { return inv.id }
func (inv *Inventory) Size() int     { return len(inv.slots) }

// Stack returns a copy of the stack at slot, nil if empty or out of range.
func (inv *Inventory) Stack(slot int) *item.Stack {
	if slot < 0 || slot >= len(inv.slots) {
		return nil
	}
	return inv.slots[slot].Clone()
}

func (inv *Inventory) Stacks() []*item.Stack {
	out := make([]*item.Stack, len(inv.slots))
	for i, s := range inv.slots {
		out[i] = s.Clone()
	}
	return out
}

// SetMaxStack caps a slot below the stack's own limit; 0 removes the cap.
func (inv *Inventory) SetMaxStack(slot, n int) {
	if slot >= 0 && slot < len(inv.maxStack) {
		inv.maxStack[slot] = n
	}
}

// MaxStackAt is the effective limit for s placed in slot.
func (inv *Inventory) MaxStackAt(slot int, s *item.Stack) int {
	limit := s.Max()
	if slot >= 0 && slot < len(inv.maxStack) && inv.maxStack[slot] > 0 && inv.maxStack[slot] < limit {
		limit = inv.maxStack[slot]
	}
	return limit
}

// SetPreUpdateHandler installs a veto hook run before every mutation.
func (inv *Inventory) SetPreUpdateHandler(fn func(ev *UpdateEvent) bool) { inv.preUpdate = fn }

// SetStack is the single mutation entry point. It reports false when the
// pre-update handler vetoed the change; registered windows are notified
// otherwise.
func (inv *Inventory) SetStack(reason UpdateReason, slot int, s *item.Stack) (bool, error) {
	if slot < 0 || slot >= len(inv.slots) {
		return false, fmt.Errorf("%w: %d (size %d)", ErrSlotOutOfRange, slot, len(inv.slots))
	}
	if s.IsEmpty() {
		s = nil
	}
	if !inv.apply(reason, slot, s) {
		return false, nil
	}
	inv.notify(reason)
	return true, nil
}

func (inv *Inventory) apply(reason UpdateReason, slot int, s *item.Stack) bool {
	if inv.preUpdate != nil {
		ev := &UpdateEvent{Reason: reason, Slot: slot, Previous: inv.slots[slot].Clone(), New: s.Clone()}
		if !inv.preUpdate(ev) {
			return false
		}
		s = ev.New
		if s.IsEmpty() {
			s = nil
		}
	}
	inv.slots[slot] = s.Clone()
	return true
}

// AddStack merges s into similar stacks first, then into empty slots, and
// returns what did not fit. Windows are notified once.
func (inv *Inventory) AddStack(reason UpdateReason, s *item.Stack) *item.Stack {
	if s.IsEmpty() {
		return nil
	}
	left := s.Amount
	changed := false
	for pass := 0; pass < 2 && left > 0; pass++ {
		for i, cur := range inv.slots {
			if left == 0 {
				break
			}
			if pass == 0 && !cur.Similar(s) {
				continue
			}
			if pass == 1 && !cur.IsEmpty() {
				continue
			}
			have := item.AmountOf(cur)
			room := inv.MaxStackAt(i, s) - have
			if room <= 0 {
				continue
			}
			n := min(room, left)
			if inv.apply(reason, i, s.WithAmount(have+n)) {
				left -= n
				changed = true
			}
		}
	}
	if changed {
		inv.notify(reason)
	}
	return s.WithAmount(left)
}

// FirstSimilar returns the first slot holding a stack similar to s, or -1.
func (inv *Inventory) FirstSimilar(s *item.Stack) int {
	for i, cur := range inv.slots {
		if cur.Similar(s) {
			return i
		}
	}
	return -1
}

// AddWindow and RemoveWindow are called by the window redraw path only.
func (inv *Inventory) AddWindow(w Window)    { inv.windows.Add(w) }
func (inv *Inventory) RemoveWindow(w Window) { inv.windows.Remove(w) }

func (inv *Inventory) Windows() []Window { return inv.windows.Snapshot() }

func (inv *Inventory) DisplayedIn(windowID uint64) bool { return inv.windows.Contains(windowID) }

func (inv *Inventory) notify(reason UpdateReason) {
	for _, w := range inv.windows.Snapshot() {
		w.HandleInventoryUpdate(inv, reason)
	}
}
