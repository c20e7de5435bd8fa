package latch

import "sync"

// Latch tracks in-flight operation keys.
type Latch struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// New creates an empty Latch.
func New() *Latch {
	return &Latch{held: make(map[string]struct{})}
}

// TryAcquire claims the key. It returns false when the key is already
// held, meaning the same operation is still in flight.
func (l *Latch) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, inFlight := l.held[key]; inFlight {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Release frees the key. Releasing an unheld key is a no-op.
func (l *Latch) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
