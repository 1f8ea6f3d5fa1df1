// Package viewer is the terminal viewer: a websocket client for the window
// protocol and a Bubble Tea model that draws the open window as a grid.
package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"windowcraft.ai/internal/adapter"
	"windowcraft.ai/internal/encoding"
	"windowcraft.ai/internal/protocol"
	"windowcraft.ai/internal/ui/item"
)

var ErrHandshake = errors.New("viewer: handshake failed")

// Client is one connection to a window server. Reads happen on a single
// goroutine that turns server messages into Bubble Tea messages.
type Client struct {
	conn       *websocket.Conn
	welcome    protocol.WelcomeMsg
	codec      adapter.Codec
	compressed bool

	wmu    sync.Mutex
	events chan any
}

// Dial connects to url, says HELLO and waits for WELCOME.
func Dial(ctx context.Context, url, name string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c, err := handshake(conn, name)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	go c.readLoop()
	return c, nil
}

func handshake(conn *websocket.Conn, name string) (*Client, error) {
	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ViewerName:      name,
		Capabilities:    protocol.HelloCapabilities{Codecs: adapter.Names()},
	}
	if err := conn.WriteJSON(hello); err != nil {
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Time{})
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return nil, err
	}
	switch base.Type {
	case protocol.TypeWelcome:
	case protocol.TypeError:
		var e protocol.ErrorMsg
		_ = json.Unmarshal(raw, &e)
		return nil, fmt.Errorf("%w: %s %s", ErrHandshake, e.Code, e.Message)
	default:
		return nil, fmt.Errorf("%w: got %s", ErrHandshake, base.Type)
	}
	var w protocol.WelcomeMsg
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	codec, ok := adapter.Lookup(w.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %s", adapter.ErrUnknownCodec, w.Codec)
	}
	return &Client{
		conn:       conn,
		welcome:    w,
		codec:      codec,
		compressed: w.Compressed,
		events:     make(chan any, 256),
	}, nil
}

func (c *Client) ViewerID() string { return c.welcome.ViewerID }
func (c *Client) Codec() string    { return c.codec.Name() }

// Events yields the decoded server messages. It is closed on disconnect.
func (c *Client) Events() <-chan any { return c.events }

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.events <- disconnectedMsg{err: err}
			return
		}
		ev, err := c.decode(raw)
		if err != nil {
			c.events <- statusMsg(err.Error())
			continue
		}
		if ev != nil {
			c.events <- ev
		}
	}
}

// decode maps one server message onto the model's message types.
func (c *Client) decode(raw []byte) (any, error) {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return nil, err
	}
	switch base.Type {
	case protocol.TypeOpenWindow:
		var m protocol.OpenWindowMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		slots, err := encoding.DecodeFrame(m.Frame, c.codec, c.compressed)
		if err != nil {
			return nil, fmt.Errorf("window %d frame: %w", m.WindowID, err)
		}
		return windowOpenMsg{id: m.WindowID, title: m.Title, width: m.Width, slots: slots}, nil
	case protocol.TypeSetSlot:
		var m protocol.SetSlotMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		s, err := c.stack(m.Item)
		if err != nil {
			return nil, err
		}
		return slotMsg{window: m.WindowID, slot: m.Slot, stack: s}, nil
	case protocol.TypeSetCursor:
		var m protocol.SetCursorMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		s, err := c.stack(m.Item)
		if err != nil {
			return nil, err
		}
		return cursorMsg{stack: s}, nil
	case protocol.TypeSetTitle:
		var m protocol.SetTitleMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return titleMsg{window: m.WindowID, title: m.Title}, nil
	case protocol.TypeCloseWindow:
		var m protocol.CloseWindowMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return windowCloseMsg{id: m.WindowID}, nil
	case protocol.TypeShiftResult:
		return nil, nil
	case protocol.TypeError:
		var m protocol.ErrorMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return statusMsg(m.Code + ": " + m.Message), nil
	default:
		return statusMsg("ignored " + base.Type), nil
	}
}

func (c *Client) stack(payload string) (*item.Stack, error) {
	return encoding.DecodeSlot(payload, c.codec, c.compressed)
}

func (c *Client) payload(s *item.Stack) (string, error) {
	return encoding.EncodeSlot(s, c.codec, c.compressed)
}

func (c *Client) send(v any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteJSON(v)
}

// Opened acknowledges that window is on screen.
func (c *Client) Opened(window uint64) error {
	return c.send(protocol.OpenedMsg{Type: protocol.TypeOpened, WindowID: window})
}

func (c *Client) Click(window uint64, slot int, kind item.ClickKind, cursor *item.Stack) error {
	p, err := c.payload(cursor)
	if err != nil {
		return err
	}
	return c.send(protocol.ClickMsg{Type: protocol.TypeClick, WindowID: window, Slot: slot, Click: kind.String(), Cursor: p})
}

// Dismiss tells the server the viewer closed window.
func (c *Client) Dismiss(window uint64) error {
	return c.send(protocol.CloseMsg{Type: protocol.TypeClose, WindowID: window})
}
