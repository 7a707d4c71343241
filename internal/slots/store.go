// Package slots keeps per-record UI state keyed by the record's stable id.
package slots

import "sync"

type Key struct {
	Scope string
	ID    int
}

type Store[V any] struct {
	mu    sync.RWMutex
	slots map[Key]*V
}

func New[V any]() *Store[V] {
	return &Store[V]{slots: make(map[Key]*V)}
}

// Slot returns the slot for key, allocating a fresh one with init on first use.
func (s *Store[V]) Slot(key Key, init func() V) *V {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.slots[key]; ok {
		return v
	}
	var v V
	if init != nil {
		v = init()
	}
	s.slots[key] = &v
	return &v
}

func (s *Store[V]) Get(key Key) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.slots[key]
	if !ok {
		var zero V
		return zero, false
	}
	return *v, true
}

func (s *Store[V]) Put(key Key, v V) {
	s.mu.Lock()
	s.slots[key] = &v
	s.mu.Unlock()
}

func (s *Store[V]) Discard(key Key) {
	s.mu.Lock()
	delete(s.slots, key)
	s.mu.Unlock()
}

// DiscardScope drops every slot of scope and returns how many went away.
func (s *Store[V]) DiscardScope(scope string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k := range s.slots {
		if k.Scope == scope {
			delete(s.slots, k)
			removed++
		}
	}
	return removed
}

// Retain keeps only the slots of scope whose id is still shown.
func (s *Store[V]) Retain(scope string, ids []int) int {
	live := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		live[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k := range s.slots {
		if k.Scope != scope {
			continue
		}
		if _, ok := live[k.ID]; ok {
			continue
		}
		delete(s.slots, k)
		removed++
	}
	return removed
}

// Each visits the slots of scope; ordering is unspecified.
func (s *Store[V]) Each(scope string, fn func(id int, v V)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.slots {
		if k.Scope == scope {
			fn(k.ID, *v)
		}
	}
}

func (s *Store[V]) Size() int {
	s.mu.RLock()
	size := len(s.slots)
	s.mu.RUnlock()
	return size
}
