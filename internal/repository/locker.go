package repository

import "sync"

// DateLocker hands out one mutex per key so read-modify-write cycles on the
// same workout serialize while different dates run in parallel. Entries are
// dropped once nobody holds or waits for them.
type DateLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func NewDateLocker() *DateLocker {
	return &DateLocker{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free and returns the matching unlock function.
func (l *DateLocker) Lock(key string) (unlock func()) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &refLock{}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *DateLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
