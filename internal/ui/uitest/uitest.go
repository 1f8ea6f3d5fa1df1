// Package uitest provides an in-memory surface, a player registry and a
// small harness for driving windows through their exported APIs.
package uitest

import (
	"slices"
	"testing"

	"github.com/google/uuid"

	"windowcraft.ai/internal/sched"
	"windowcraft.ai/internal/ui/gui"
	"windowcraft.ai/internal/ui/item"
	"windowcraft.ai/internal/ui/window"
)

// Surface records everything a window paints.
type Surface struct {
	Slots   []*item.Stack
	Writes  []int
	Cursors map[uuid.UUID]*item.Stack
	Title   string

	Opens, Closes int
	// OpenErr makes the next Open fail.
	OpenErr error
	// OnOpen runs after a successful Open, like a host firing its open event.
	OnOpen func(viewer uuid.UUID)

	viewers []uuid.UUID
}

func NewSurface() *Surface {
	return &Surface{Cursors: map[uuid.UUID]*item.Stack{}}
}

func (s *Surface) grow(index int) {
	for len(s.Slots) <= index {
		s.Slots = append(s.Slots, nil)
		s.Writes = append(s.Writes, 0)
	}
}

func (s *Surface) SetSlot(index int, st *item.Stack) {
	s.grow(index)
	s.Slots[index] = st.Clone()
	s.Writes[index]++
}

// Slot returns what is painted at index.
func (s *Surface) Slot(index int) *item.Stack {
	if index < 0 || index >= len(s.Slots) {
		return nil
	}
	return s.Slots[index]
}

// Paint overwrites a slot without counting it as a window write, the way a
// client paints a drag before the server hears about it.
func (s *Surface) Paint(index int, st *item.Stack) {
	s.grow(index)
	s.Slots[index] = st.Clone()
}

func (s *Surface) ResetWrites() {
	for i := range s.Writes {
		s.Writes[i] = 0
	}
}

func (s *Surface) SetCursor(viewer uuid.UUID, st *item.Stack) { s.Cursors[viewer] = st.Clone() }
func (s *Surface) SetTitle(title string)                       { s.Title = title }

func (s *Surface) Open(viewer uuid.UUID, title string) error {
	if err := s.OpenErr; err != nil {
		s.OpenErr = nil
		return err
	}
	s.Opens++
	s.Title = title
	if !slices.Contains(s.viewers, viewer) {
		s.viewers = append(s.viewers, viewer)
	}
	if s.OnOpen != nil {
		s.OnOpen(viewer)
	}
	return nil
}

func (s *Surface) Close(viewer uuid.UUID) {
	s.Closes++
	s.viewers = slices.DeleteFunc(s.viewers, func(v uuid.UUID) bool { return v == viewer })
}

// Dismiss is the viewer closing the surface on their side.
func (s *Surface) Dismiss(viewer uuid.UUID) { s.Close(viewer) }

func (s *Surface) Viewers() []uuid.UUID { return slices.Clone(s.viewers) }

// Players is an online set.
type Players map[uuid.UUID]bool

func (p Players) Online(viewer uuid.UUID) bool { return p[viewer] }

// Harness wires windows to a stepped scheduler and a manager.
type Harness struct {
	T       testing.TB
	Sched   *sched.Scheduler
	Manager *window.Manager
	Players Players
}

func NewHarness(t testing.TB) *Harness {
	t.Helper()
	return &Harness{
		T:       t,
		Sched:   sched.New(20, nil),
		Manager: window.NewManager(nil),
		Players: Players{},
	}
}

// Viewer returns a fresh online viewer.
func (h *Harness) Viewer() uuid.UUID {
	v := uuid.New()
	h.Players[v] = true
	return v
}

// NewWindow fills the wiring fields of cfg and builds the window on a new surface.
func (h *Harness) NewWindow(cfg window.Config) (*window.Window, *Surface) {
	h.T.Helper()
	surface := NewSurface()
	cfg.Surface = surface
	if cfg.Players == nil {
		cfg.Players = h.Players
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = h.Sched
	}
	if cfg.Manager == nil {
		cfg.Manager = h.Manager
	}
	w, err := window.New(cfg)
	if err != nil {
		h.T.Fatalf("window.New: %v", err)
	}
	return w, surface
}

// Open builds a window over guis for viewer and shows it.
func (h *Harness) Open(viewer uuid.UUID, guis ...*gui.GUI) (*window.Window, *Surface) {
	h.T.Helper()
	w, s := h.NewWindow(window.Config{Viewer: viewer, Title: "test", GUIs: guis})
	if err := w.Show(); err != nil {
		h.T.Fatalf("Show: %v", err)
	}
	return w, s
}

// Step advances the scheduler n ticks.
func (h *Harness) Step(n int) {
	for i := 0; i < n; i++ {
		h.Sched.Step()
	}
}
