package util

import (
	"cmp"
	"slices"
	"sync"
)

// SyncSet is a set safe for concurrent use.
type SyncSet[T cmp.Ordered] struct {
	mu    sync.RWMutex
	items map[T]struct{}
}

func NewSyncSet[T cmp.Ordered]() *SyncSet[T] {
	return &SyncSet[T]{items: make(map[T]struct{})}
}

func (s *SyncSet[T]) Add(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item] = struct{}{}
}

func (s *SyncSet[T]) Has(item T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[item]
	return ok
}

// Sorted returns the members in ascending order.
func (s *SyncSet[T]) Sorted() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.items))
	for item := range s.items {
		out = append(out, item)
	}
	slices.Sort(out)
	return out
}
