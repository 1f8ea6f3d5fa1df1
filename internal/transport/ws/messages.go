package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"windowcraft.ai/internal/encoding"
	"windowcraft.ai/internal/eventlog"
	"windowcraft.ai/internal/protocol"
	"windowcraft.ai/internal/ui/item"
	"windowcraft.ai/internal/ui/window"
)

// inbound is one decoded viewer event bound for the loop.
type inbound struct {
	typ      string
	windowID uint64
	ev       window.Event
	slot     *int
	detail   string
}

// handleMessage decodes one viewer message on the reader goroutine and hands
// the resulting event to the loop. Only a malformed envelope is returned as
// an error; a bad body is answered with E_BAD_REQUEST.
func (s *Server) handleMessage(sess *session, msg []byte) error {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return err
	}
	in, err := s.decodeEvent(sess, base.Type, msg)
	switch {
	case errors.Is(err, errUnsupported):
		sess.sendError(protocol.ErrUnsupportedMessage, base.Type)
		return nil
	case err != nil:
		sess.sendError(protocol.ErrBadRequest, err.Error())
		return nil
	}
	s.loop.Submit(func() { s.dispatch(sess, in) })
	return nil
}

var errUnsupported = errors.New("unsupported message")

func (s *Server) decodeEvent(sess *session, typ string, msg []byte) (inbound, error) {
	in := inbound{typ: typ}
	decode := func(v any) error {
		if err := json.Unmarshal(msg, v); err != nil {
			return fmt.Errorf("%s: %w", typ, err)
		}
		return nil
	}

	switch typ {
	case protocol.TypeOpened:
		var m protocol.OpenedMsg
		if err := decode(&m); err != nil {
			return in, err
		}
		in.windowID, in.ev = m.WindowID, window.OpenEvent{Viewer: sess.id}
	case protocol.TypeClose:
		var m protocol.CloseMsg
		if err := decode(&m); err != nil {
			return in, err
		}
		in.windowID, in.ev = m.WindowID, window.CloseEvent{Viewer: sess.id}
	case protocol.TypeClick:
		var m protocol.ClickMsg
		if err := decode(&m); err != nil {
			return in, err
		}
		kind, ok := item.ParseClickKind(m.Click)
		if !ok {
			return in, fmt.Errorf("unknown click %q", m.Click)
		}
		cursor, err := s.decodeSlot(m.Cursor)
		if err != nil {
			return in, err
		}
		in.windowID, in.slot, in.detail = m.WindowID, &m.Slot, m.Click
		in.ev = window.ClickEvent{Viewer: sess.id, Slot: m.Slot, Kind: kind, Hotbar: m.Hotbar, Cursor: cursor}
	case protocol.TypeDrag:
		var m protocol.DragMsg
		if err := decode(&m); err != nil {
			return in, err
		}
		de := window.DragEvent{Viewer: sess.id, NewStacks: make(map[int]*item.Stack, len(m.Slots))}
		var err error
		for _, ds := range m.Slots {
			if de.NewStacks[ds.Slot], err = s.decodeSlot(ds.Item); err != nil {
				return in, err
			}
		}
		if de.OldCursor, err = s.decodeSlot(m.OldCursor); err != nil {
			return in, err
		}
		if de.Cursor, err = s.decodeSlot(m.Cursor); err != nil {
			return in, err
		}
		in.windowID, in.ev, in.detail = m.WindowID, de, fmt.Sprintf("%d slots", len(m.Slots))
	case protocol.TypeItemShift:
		var m protocol.ItemShiftMsg
		if err := decode(&m); err != nil {
			return in, err
		}
		st, err := s.decodeSlot(m.Item)
		if err != nil {
			return in, err
		}
		in.windowID, in.ev = m.WindowID, window.ItemShiftEvent{Viewer: sess.id, Stack: st}
	case protocol.TypeCursorCollect:
		var m protocol.CursorCollectMsg
		if err := decode(&m); err != nil {
			return in, err
		}
		cursor, err := s.decodeSlot(m.Cursor)
		if err != nil {
			return in, err
		}
		in.windowID, in.ev = m.WindowID, window.CursorCollectEvent{Viewer: sess.id, Cursor: cursor}
	default:
		return in, errUnsupported
	}
	return in, nil
}

func (s *Server) decodeSlot(payload string) (*item.Stack, error) {
	st, err := encoding.DecodeSlot(payload, s.opts.Codec, s.opts.Compressed)
	if err != nil {
		return nil, fmt.Errorf("slot payload: %w", err)
	}
	return st, nil
}

// errorCode maps a window error to the code sent to the viewer.
func errorCode(err error) string {
	switch {
	case errors.Is(err, window.ErrUnknownWindow):
		return protocol.ErrUnknownWindow
	case errors.Is(err, window.ErrWindowClosed):
		return protocol.ErrWindowClosed
	case errors.Is(err, window.ErrViewerOffline):
		return protocol.ErrViewerOffline
	case errors.Is(err, errNotOwner):
		return protocol.ErrNoPermission
	default:
		return protocol.ErrInternal
	}
}

var errNotOwner = errors.New("window belongs to another viewer")

// dispatch runs on the loop goroutine.
func (s *Server) dispatch(sess *session, in inbound) {
	if w, ok := s.mgr.Get(in.windowID); ok && w.ViewerID() != sess.id {
		err := fmt.Errorf("%w: %d", errNotOwner, in.windowID)
		s.trace(sess, in, err)
		sess.sendError(errorCode(err), err.Error())
		return
	}
	if _, ok := in.ev.(window.CloseEvent); ok {
		// The viewer already took the screen down.
		if surf := s.surfaces[in.windowID]; surf != nil && surf.viewer == sess.id {
			surf.open = false
		}
	}

	res, err := s.mgr.Dispatch(in.windowID, s.withCursor(sess, in.ev))
	s.trace(sess, in, err)
	if err != nil {
		sess.sendError(errorCode(err), err.Error())
		return
	}

	switch in.ev.(type) {
	case window.OpenEvent:
		if res.Cancelled {
			sess.send(protocol.CloseWindowMsg{Type: protocol.TypeCloseWindow, WindowID: in.windowID})
		}
	case window.ItemShiftEvent:
		leftover, _ := encoding.EncodeSlot(res.Leftover, s.opts.Codec, s.opts.Compressed)
		sess.send(protocol.ShiftResultMsg{Type: protocol.TypeShiftResult, WindowID: in.windowID, Leftover: leftover})
	}
	if _, ok := s.mgr.Get(in.windowID); !ok {
		delete(s.surfaces, in.windowID)
	}
}

// withCursor replaces the cursor a viewer claims with the one it was last
// sent, so a client cannot conjure stacks into a window.
func (s *Server) withCursor(sess *session, ev window.Event) window.Event {
	cursor := s.cursors[sess.id]
	switch e := ev.(type) {
	case window.ClickEvent:
		e.Cursor = cursor
		return e
	case window.CursorCollectEvent:
		e.Cursor = cursor
		return e
	case window.DragEvent:
		e.OldCursor, e.Cursor = cursor, nil
		return e
	}
	return ev
}

func (s *Server) trace(sess *session, in inbound, err error) {
	if s.opts.Trace == nil {
		return
	}
	e := eventlog.Entry{
		Tick:     s.loop.CurrentTick(),
		Viewer:   sess.id.String(),
		WindowID: in.windowID,
		Event:    in.typ,
		Slot:     in.slot,
		Detail:   in.detail,
	}
	if err != nil {
		e.Error = err.Error()
	}
	if werr := s.opts.Trace.Record(e); werr != nil {
		s.logf("trace: %v", werr)
	}
}
