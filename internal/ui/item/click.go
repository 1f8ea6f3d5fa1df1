package item

import "github.com/google/uuid"

type ClickKind int

const (
	ClickLeft ClickKind = iota + 1
	ClickRight
	ClickShiftLeft
	ClickShiftRight
	ClickMiddle
	ClickDrop
	ClickControlDrop
	ClickDouble
	ClickNumberKey
)

var clickNames = map[ClickKind]string{
	ClickLeft:        "LEFT",
	ClickRight:       "RIGHT",
	ClickShiftLeft:   "SHIFT_LEFT",
	ClickShiftRight:  "SHIFT_RIGHT",
	ClickMiddle:      "MIDDLE",
	ClickDrop:        "DROP",
	ClickControlDrop: "CONTROL_DROP",
	ClickDouble:      "DOUBLE",
	ClickNumberKey:   "NUMBER_KEY",
}

func (k ClickKind) String() string {
	if s, ok := clickNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

func ParseClickKind(s string) (ClickKind, bool) {
	for k, name := range clickNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

func (k ClickKind) IsShift() bool { return k == ClickShiftLeft || k == ClickShiftRight }

// Click is a click on an item, with Slot local to the owning GUI.
type Click struct {
	Kind   ClickKind
	Viewer uuid.UUID
	Slot   int
	Hotbar int
	Cursor *Stack
}
