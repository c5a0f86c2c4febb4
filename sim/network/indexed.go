package network

import "github.com/flockwork-sim/flockwork-sim/sim"

// IndexedSet supports O(1) insert, delete and uniform random pick.
// Items live in a dense slice; removal swaps the last item into the hole, so the slice order
// depends only on the sequence of operations and stays reproducible.
type IndexedSet[T comparable] struct {
	items []T
	index map[T]int
}

// NewIndexedSet returns an empty set.
func NewIndexedSet[T comparable]() *IndexedSet[T] {
	return &IndexedSet[T]{index: make(map[T]int)}
}

// Add inserts v and reports whether it was new.
func (s *IndexedSet[T]) Add(v T) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = len(s.items)
	s.items = append(s.items, v)
	return true
}

// Remove deletes v and reports whether it was present.
func (s *IndexedSet[T]) Remove(v T) bool {
	pos, ok := s.index[v]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	moved := s.items[last]
	s.items[pos] = moved
	s.index[moved] = pos
	s.items = s.items[:last]
	delete(s.index, v)
	return true
}

// Has reports whether v is present.
func (s *IndexedSet[T]) Has(v T) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of items.
func (s *IndexedSet[T]) Len() int { return len(s.items) }

// Pick returns a uniformly chosen item using one draw from src. Panics on an empty set.
func (s *IndexedSet[T]) Pick(src sim.Source) T {
	return s.items[src.IntN(len(s.items))]
}

// Items returns the backing slice. Callers must not modify it.
func (s *IndexedSet[T]) Items() []T { return s.items }
