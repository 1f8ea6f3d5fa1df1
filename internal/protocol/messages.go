package protocol

import "windowcraft.ai/internal/encoding"

// Slot payloads are base64 codec payloads as produced by encoding.EncodeSlot;
// "" is an empty slot.

// HELLO (viewer -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ViewerName      string            `json:"viewer_name"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	Codecs   []string `json:"codecs,omitempty"`
	MaxQueue int      `json:"max_queue,omitempty"`
}

// WELCOME (server -> viewer)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ViewerID        string `json:"viewer_id"`
	Codec           string `json:"codec"`
	Compressed      bool   `json:"compressed"`
	TickRateHz      int    `json:"tick_rate_hz"`
}

// OPEN_WINDOW (server -> viewer)
type OpenWindowMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	WindowID        uint64         `json:"window_id"`
	Title           string         `json:"title"`
	Width           int            `json:"width"`
	Frame           encoding.Frame `json:"frame"`
}

// OPENED (viewer -> server): the surface is on screen.
type OpenedMsg struct {
	Type     string `json:"type"`
	WindowID uint64 `json:"window_id"`
}

// SET_SLOT (server -> viewer)
type SetSlotMsg struct {
	Type     string `json:"type"`
	WindowID uint64 `json:"window_id"`
	Slot     int    `json:"slot"`
	Item     string `json:"item"`
}

// SET_CURSOR (server -> viewer)
type SetCursorMsg struct {
	Type string `json:"type"`
	Item string `json:"item"`
}

// SET_TITLE (server -> viewer)
type SetTitleMsg struct {
	Type     string `json:"type"`
	WindowID uint64 `json:"window_id"`
	Title    string `json:"title"`
}

// CLOSE_WINDOW (server -> viewer)
type CloseWindowMsg struct {
	Type     string `json:"type"`
	WindowID uint64 `json:"window_id"`
}

// CLICK (viewer -> server)
type ClickMsg struct {
	Type     string `json:"type"`
	WindowID uint64 `json:"window_id"`
	Slot     int    `json:"slot"`
	Click    string `json:"click"`
	Hotbar   int    `json:"hotbar,omitempty"`
	Cursor   string `json:"cursor,omitempty"`
}

// DRAG (viewer -> server). The viewer has already painted the new stacks.
type DragMsg struct {
	Type      string     `json:"type"`
	WindowID  uint64     `json:"window_id"`
	Slots     []DragSlot `json:"slots"`
	OldCursor string     `json:"old_cursor"`
	Cursor    string     `json:"cursor,omitempty"`
}

type DragSlot struct {
	Slot int    `json:"slot"`
	Item string `json:"item"`
}

// ITEM_SHIFT (viewer -> server)
type ItemShiftMsg struct {
	Type     string `json:"type"`
	WindowID uint64 `json:"window_id"`
	Item     string `json:"item"`
}

// SHIFT_RESULT (server -> viewer)
type ShiftResultMsg struct {
	Type     string `json:"type"`
	WindowID uint64 `json:"window_id"`
	Leftover string `json:"leftover"`
}

// CURSOR_COLLECT (viewer -> server)
type CursorCollectMsg struct {
	Type     string `json:"type"`
	WindowID uint64 `json:"window_id"`
	Cursor   string `json:"cursor"`
}

// CLOSE (viewer -> server): the viewer dismissed the surface.
type CloseMsg struct {
	Type     string `json:"type"`
	WindowID uint64 `json:"window_id"`
}

// ERROR (server -> viewer)
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
