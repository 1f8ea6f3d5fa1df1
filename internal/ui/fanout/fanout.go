// Package fanout is the leaf side of the leaf -> window reverse index.
//
// Data leaves (items, virtual inventories) keep a Set of the windows that
// currently display them. Windows add and remove themselves from the redraw
// path; leaves only ever iterate the set to notify.
package fanout

import "sort"

// Listener is anything that can be registered against a data leaf.
type Listener interface {
	ListenerID() uint64
}

// Set is keyed by listener id. The zero value is ready to use.
type Set[L Listener] struct {
	byID map[uint64]L
}

// Add registers l. It reports whether l was newly added.
func (s *Set[L]) Add(l L) bool {
	id := l.ListenerID()
	if s.byID == nil {
		s.byID = map[uint64]L{}
	}
	if _, ok := s.byID[id]; ok {
		return false
	}
	s.byID[id] = l
	return true
}

// Remove unregisters l. It reports whether l was present.
func (s *Set[L]) Remove(l L) bool {
	id := l.ListenerID()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	return true
}

func (s *Set[L]) Contains(id uint64) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *Set[L]) Len() int { return len(s.byID) }

// IDs returns the registered ids in ascending order.
func (s *Set[L]) IDs() []uint64 {
	out := make([]uint64, 0, len(s.byID))
	for id := range s.byID {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns the listeners ordered by id. Callers may mutate the set
// while iterating the returned slice.
func (s *Set[L]) Snapshot() []L {
	ids := s.IDs()
	out := make([]L, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out
}
