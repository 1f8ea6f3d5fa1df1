// Package protocol defines the JSON messages exchanged between the server
// and a viewer over the websocket transport.
package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello         = "HELLO"
	TypeWelcome       = "WELCOME"
	TypeOpenWindow    = "OPEN_WINDOW"
	TypeOpened        = "OPENED"
	TypeSetSlot       = "SET_SLOT"
	TypeSetCursor     = "SET_CURSOR"
	TypeSetTitle      = "SET_TITLE"
	TypeCloseWindow   = "CLOSE_WINDOW"
	TypeClick         = "CLICK"
	TypeDrag          = "DRAG"
	TypeItemShift     = "ITEM_SHIFT"
	TypeShiftResult   = "SHIFT_RESULT"
	TypeCursorCollect = "CURSOR_COLLECT"
	TypeClose         = "CLOSE"
	TypeError         = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
