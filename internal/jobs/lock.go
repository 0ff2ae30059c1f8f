package jobs

import "sync"

// Locker grants exclusive execution per job key. TryLock never blocks; a
// caller that does not get the lock walks away.
type Locker interface {
	TryLock(key string) bool
	Unlock(key string)
}

// keyLocker is an in-process keyed try-lock. A single worker process runs at
// a time, so process-local exclusivity is enough to keep a slow run from
// overlapping its next scheduled trigger.
type keyLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocker creates an in-process locker.
func NewLocker() Locker {
	return &keyLocker{held: make(map[string]bool)}
}

func (l *keyLocker) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false
	}
	l.held[key] = true
	return true
}

func (l *keyLocker) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
