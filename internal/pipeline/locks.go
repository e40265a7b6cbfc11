package pipeline

import "sync"

// sourceLocks serialises work on the same source across overlapping cycles.
type sourceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSourceLocks() *sourceLocks {
	return &sourceLocks{locks: make(map[string]*sync.Mutex)}
}

// lock blocks until sourceID is free and returns the matching unlock.
func (l *sourceLocks) lock(sourceID string) func() {
	l.mu.Lock()
	m, ok := l.locks[sourceID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sourceID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
