package search

import (
	"slices"
	"sync"
)

// SyncList is an append-only list safe for one writer and many readers.
type SyncList[T any] struct {
	mu    sync.RWMutex
	items []T
}

func (l *SyncList[T]) Add(items ...T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, items...)
}

func (l *SyncList[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Snapshot returns a copy of the items added so far.
func (l *SyncList[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}
