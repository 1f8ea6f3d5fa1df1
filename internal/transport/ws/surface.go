package ws

import (
	"fmt"

	"github.com/google/uuid"

	"windowcraft.ai/internal/encoding"
	"windowcraft.ai/internal/protocol"
	"windowcraft.ai/internal/ui/item"
	"windowcraft.ai/internal/ui/window"
)

// Surface is a window's picture on one viewer's screen. It keeps the last
// painted slots so an OPEN_WINDOW can carry the full frame. Loop goroutine only.
type Surface struct {
	srv      *Server
	viewer   uuid.UUID
	windowID uint64
	width    int
	title    string
	slots    []*item.Stack
	open     bool
}

// OpenWindow builds a window for viewer on a new surface and shows it.
// Must run on the loop goroutine.
func (s *Server) OpenWindow(cfg window.Config) (*window.Window, error) {
	if len(cfg.GUIs) == 0 || cfg.GUIs[0] == nil {
		return nil, window.ErrNoGUI
	}
	for id := range s.surfaces {
		if _, ok := s.mgr.Get(id); !ok {
			delete(s.surfaces, id)
		}
	}
	surf := &Surface{srv: s, viewer: cfg.Viewer, width: cfg.GUIs[0].Width()}
	cfg.Surface = surf
	cfg.Players = s
	cfg.Manager = s.mgr
	if cfg.Logger == nil {
		cfg.Logger = s.log
	}
	w, err := window.New(cfg)
	if err != nil {
		return nil, err
	}
	surf.windowID = w.ID()
	s.surfaces[w.ID()] = surf

	// One screen at a time: anything else the viewer has open is hidden first.
	if prev, ok := s.mgr.OpenFor(cfg.Viewer); ok && prev != w {
		prev.CloseForViewer()
	}
	if err := w.Show(); err != nil {
		w.Close(false)
		delete(s.surfaces, w.ID())
		return nil, fmt.Errorf("show window %d: %w", w.ID(), err)
	}
	return w, nil
}

func (f *Surface) send(v any) {
	if sess := f.srv.session(f.viewer); sess != nil {
		sess.send(v)
	}
}

func (f *Surface) payload(s *item.Stack) string {
	p, err := encoding.EncodeSlot(s, f.srv.opts.Codec, f.srv.opts.Compressed)
	if err != nil {
		f.srv.logf("window %d: encode slot: %v", f.windowID, err)
	}
	return p
}

func (f *Surface) SetSlot(index int, s *item.Stack) {
	for len(f.slots) <= index {
		f.slots = append(f.slots, nil)
	}
	f.slots[index] = s.Clone()
	if !f.open {
		return
	}
	f.send(protocol.SetSlotMsg{Type: protocol.TypeSetSlot, WindowID: f.windowID, Slot: index, Item: f.payload(s)})
}

func (f *Surface) SetCursor(viewer uuid.UUID, s *item.Stack) {
	if viewer != f.viewer {
		return
	}
	f.srv.cursors[viewer] = s.Clone()
	f.send(protocol.SetCursorMsg{Type: protocol.TypeSetCursor, Item: f.payload(s)})
}

func (f *Surface) SetTitle(title string) {
	f.title = title
	if f.open {
		f.send(protocol.SetTitleMsg{Type: protocol.TypeSetTitle, WindowID: f.windowID, Title: title})
	}
}

func (f *Surface) Open(viewer uuid.UUID, title string) error {
	if viewer != f.viewer {
		return fmt.Errorf("surface belongs to %s", f.viewer)
	}
	if f.srv.session(viewer) == nil {
		return window.ErrViewerOffline
	}
	frame, err := encoding.EncodeFrame(f.slots, f.srv.opts.Codec, f.srv.opts.Compressed)
	if err != nil {
		return err
	}
	f.title = title
	f.open = true
	f.send(protocol.OpenWindowMsg{
		Type:            protocol.TypeOpenWindow,
		ProtocolVersion: protocol.Version,
		WindowID:        f.windowID,
		Title:           title,
		Width:           f.width,
		Frame:           frame,
	})
	return nil
}

func (f *Surface) Close(viewer uuid.UUID) {
	if viewer != f.viewer || !f.open {
		return
	}
	f.open = false
	f.send(protocol.CloseWindowMsg{Type: protocol.TypeCloseWindow, WindowID: f.windowID})
}

func (f *Surface) Viewers() []uuid.UUID {
	if !f.open {
		return nil
	}
	return []uuid.UUID{f.viewer}
}
