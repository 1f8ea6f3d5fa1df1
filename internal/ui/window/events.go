package window

import (
	"github.com/google/uuid"

	"windowcraft.ai/internal/ui/item"
)

// Event is one of the boundary events a host delivers to a window.
type Event interface {
	ViewerID() uuid.UUID
	event()
}

// ClickEvent is a click on a raw slot. Cursor is what the viewer held before it.
type ClickEvent struct {
	Viewer uuid.UUID
	Slot   int
	Kind   item.ClickKind
	Hotbar int
	Cursor *item.Stack
}

// DragEvent is a drag the surface has already painted. NewStacks maps each
// raw slot to the stack the surface put there; Cursor is what is left on the
// cursor after the drag and OldCursor what was there before it.
type DragEvent struct {
	Viewer    uuid.UUID
	NewStacks map[int]*item.Stack
	OldCursor *item.Stack
	Cursor    *item.Stack
}

// ItemShiftEvent is a shift-click in the viewer's own inventory.
type ItemShiftEvent struct {
	Viewer uuid.UUID
	Stack  *item.Stack
}

// CursorCollectEvent is a double-click gathering similar stacks onto the cursor.
type CursorCollectEvent struct {
	Viewer uuid.UUID
	Cursor *item.Stack
}

type OpenEvent struct{ Viewer uuid.UUID }

type CloseEvent struct{ Viewer uuid.UUID }

// ViewerTerminatedEvent reports a viewer that went away with the surface open.
type ViewerTerminatedEvent struct{ Viewer uuid.UUID }

func (e ClickEvent) ViewerID() uuid.UUID            { return e.Viewer }
func (e DragEvent) ViewerID() uuid.UUID             { return e.Viewer }
func (e ItemShiftEvent) ViewerID() uuid.UUID        { return e.Viewer }
func (e CursorCollectEvent) ViewerID() uuid.UUID    { return e.Viewer }
func (e OpenEvent) ViewerID() uuid.UUID             { return e.Viewer }
func (e CloseEvent) ViewerID() uuid.UUID            { return e.Viewer }
func (e ViewerTerminatedEvent) ViewerID() uuid.UUID { return e.Viewer }

func (ClickEvent) event()            {}
func (DragEvent) event()             {}
func (ItemShiftEvent) event()        {}
func (CursorCollectEvent) event()    {}
func (OpenEvent) event()             {}
func (CloseEvent) event()            {}
func (ViewerTerminatedEvent) event() {}

// Result is what the host applies back to the viewer after an event.
type Result struct {
	// Cancelled tells the host to undo the native action.
	Cancelled bool
	Cursor    *item.Stack
	Leftover  *item.Stack
}
