package inventory

import "windowcraft.ai/internal/ui/item"

// ApplyClick computes the slot and cursor contents after a click on a slot
// limited to max items. changed is false when the click has no effect here.
func ApplyClick(kind item.ClickKind, slot, cursor *item.Stack, max int) (newSlot, newCursor *item.Stack, changed bool) {
	slot, cursor = normalize(slot), normalize(cursor)
	if max <= 0 {
		max = item.DefaultMaxStack
	}
	switch kind {
	case item.ClickLeft, item.ClickDouble:
		switch {
		case cursor == nil && slot == nil:
			return nil, nil, false
		case cursor == nil:
			return nil, slot.Clone(), true
		case slot == nil:
			n := min(cursor.Amount, max)
			return cursor.WithAmount(n), cursor.WithAmount(cursor.Amount - n), true
		case slot.Similar(cursor):
			n := min(cursor.Amount, max-slot.Amount)
			if n <= 0 {
				return slot, cursor, false
			}
			return slot.WithAmount(slot.Amount + n), cursor.WithAmount(cursor.Amount - n), true
		default:
			if cursor.Amount > max {
				return slot, cursor, false
			}
			return cursor.Clone(), slot.Clone(), true
		}
	case item.ClickRight:
		switch {
		case cursor == nil && slot == nil:
			return nil, nil, false
		case cursor == nil:
			half := (slot.Amount + 1) / 2
			return slot.WithAmount(slot.Amount - half), slot.WithAmount(half), true
		case slot == nil:
			return cursor.WithAmount(1), cursor.WithAmount(cursor.Amount - 1), true
		case slot.Similar(cursor):
			if slot.Amount >= max {
				return slot, cursor, false
			}
			return slot.WithAmount(slot.Amount + 1), cursor.WithAmount(cursor.Amount - 1), true
		default:
			if cursor.Amount > max {
				return slot, cursor, false
			}
			return cursor.Clone(), slot.Clone(), true
		}
	case item.ClickDrop:
		if slot == nil {
			return nil, cursor, false
		}
		return slot.WithAmount(slot.Amount - 1), cursor, true
	case item.ClickControlDrop:
		if slot == nil {
			return nil, cursor, false
		}
		return nil, cursor, true
	}
	return slot, cursor, false
}

func normalize(s *item.Stack) *item.Stack {
	if s.IsEmpty() {
		return nil
	}
	return s
}
