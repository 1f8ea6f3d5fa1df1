package window

import (
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
)

// Manager tracks open windows and routes host events to them. It is used
// from the scheduler goroutine only.
type Manager struct {
	log     *log.Logger
	windows map[uint64]*Window
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{log: logger, windows: map[uint64]*Window{}}
}

func (m *Manager) Add(w *Window)    { m.windows[w.id] = w }
func (m *Manager) Remove(w *Window) { delete(m.windows, w.id) }
func (m *Manager) Len() int         { return len(m.windows) }

func (m *Manager) Get(id uint64) (*Window, bool) {
	w, ok := m.windows[id]
	return w, ok
}

// Windows returns every registered window ordered by id.
func (m *Manager) Windows() []*Window {
	out := make([]*Window, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// OpenFor returns the window whose surface viewer currently has open.
func (m *Manager) OpenFor(viewer uuid.UUID) (*Window, bool) {
	for _, w := range m.Windows() {
		if v, ok := w.CurrentViewer(); ok && v == viewer {
			return w, true
		}
	}
	return nil, false
}

// ForViewer returns every window designated to viewer.
func (m *Manager) ForViewer(viewer uuid.UUID) []*Window {
	var out []*Window
	for _, w := range m.Windows() {
		if w.viewer == viewer {
			out = append(out, w)
		}
	}
	return out
}

// Dispatch routes ev to the window with windowID, or to the window the
// event's viewer has open when windowID is 0.
func (m *Manager) Dispatch(windowID uint64, ev Event) (Result, error) {
	var (
		w  *Window
		ok bool
	)
	if windowID == 0 {
		w, ok = m.OpenFor(ev.ViewerID())
	} else {
		w, ok = m.Get(windowID)
	}
	if !ok {
		return Result{Cancelled: true}, fmt.Errorf("%w: %d", ErrUnknownWindow, windowID)
	}

	switch ev := ev.(type) {
	case ClickEvent:
		return w.HandleClick(ev), nil
	case DragEvent:
		return Result{Cursor: w.HandleDrag(ev)}, nil
	case ItemShiftEvent:
		return Result{Leftover: w.HandleItemShift(ev)}, nil
	case CursorCollectEvent:
		return w.HandleCursorCollect(ev), nil
	case OpenEvent:
		if !w.HandleOpen(ev.Viewer) {
			if m.log != nil {
				m.log.Printf("window %d: open by %s cancelled", w.id, ev.Viewer)
			}
			return Result{Cancelled: true}, nil
		}
		return Result{}, nil
	case CloseEvent:
		w.HandleClose(ev.Viewer)
		return Result{}, nil
	case ViewerTerminatedEvent:
		w.HandleViewerTerminated(ev.Viewer)
		return Result{}, nil
	}
	return Result{Cancelled: true}, fmt.Errorf("window: unsupported event %T", ev)
}

// Terminate delivers ViewerTerminatedEvent to every window designated to viewer.
func (m *Manager) Terminate(viewer uuid.UUID) {
	for _, w := range m.ForViewer(viewer) {
		w.HandleViewerTerminated(viewer)
	}
}
