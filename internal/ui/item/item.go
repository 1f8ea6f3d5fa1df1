// Package item holds the Stack representation and the Item data leaf.
package item

import (
	"github.com/google/uuid"

	"windowcraft.ai/internal/sched"
	"windowcraft.ai/internal/ui/fanout"
)

// Window is the part of a window an Item talks to.
type Window interface {
	fanout.Listener
	HandleItemUpdate(it *Item)
}

// Item is a clickable, per-viewer rendered data leaf. It remembers which
// windows display it so a change reaches exactly those windows.
type Item struct {
	provider Provider
	onClick  func(it *Item, c Click)
	windows  fanout.Set[Window]
}

type Option func(*Item)

// OnClick sets the click handler.
func OnClick(fn func(it *Item, c Click)) Option {
	return func(it *Item) { it.onClick = fn }
}

func New(p Provider, opts ...Option) *Item {
	it := &Item{provider: p}
	for _, o := range opts {
		o(it)
	}
	return it
}

// Supplied builds an Item whose provider is re-read from supplier on every render.
func Supplied(supplier func() Provider, opts ...Option) *Item {
	return New(ProviderFunc(func(viewer uuid.UUID) *Stack {
		p := supplier()
		if p == nil {
			return nil
		}
		return p.For(viewer)
	}), opts...)
}

func (it *Item) Provider() Provider { return it.provider }

// StackFor renders the item for viewer. A nil provider renders nothing.
func (it *Item) StackFor(viewer uuid.UUID) *Stack {
	if it.provider == nil {
		return nil
	}
	return it.provider.For(viewer)
}

// SetProvider swaps the provider and redraws every window showing the item.
func (it *Item) SetProvider(p Provider) {
	it.provider = p
	it.NotifyWindows()
}

func (it *Item) HandleClick(c Click) {
	if it.onClick != nil {
		it.onClick(it, c)
	}
}

// AddWindow and RemoveWindow are called by the window redraw path only.
func (it *Item) AddWindow(w Window)    { it.windows.Add(w) }
func (it *Item) RemoveWindow(w Window) { it.windows.Remove(w) }

func (it *Item) Windows() []Window { return it.windows.Snapshot() }

// DisplayedIn reports whether the window with the given id is registered.
func (it *Item) DisplayedIn(windowID uint64) bool { return it.windows.Contains(windowID) }

// NotifyWindows asks every registered window to redraw this item.
func (it *Item) NotifyWindows() {
	for _, w := range it.windows.Snapshot() {
		w.HandleItemUpdate(it)
	}
}

// Timers is the scheduler capability AutoUpdate needs.
type Timers interface {
	RunTimer(delay, period int, fn func()) *sched.Task
}

// AutoUpdate builds a supplied item that redraws itself every period ticks.
// The returned task is the cancel handle; closing a window does not cancel it.
func AutoUpdate(t Timers, period int, supplier func() Provider, opts ...Option) (*Item, *sched.Task) {
	it := Supplied(supplier, opts...)
	task := t.RunTimer(0, period, it.NotifyWindows)
	return it, task
}
