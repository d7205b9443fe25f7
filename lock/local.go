package lock

import (
	"context"
	"fmt"
	"sync"
)

// keyEntry is a one-slot semaphore shared by everyone waiting on the same key.
type keyEntry struct {
	sem  chan struct{}
	refs int // holders plus waiters
}

// LocalLocker serializes keys within a single process.
type LocalLocker struct {
	mutex sync.Mutex
	keys  map[string]*keyEntry
}

// NewLocalLocker creates an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{keys: make(map[string]*keyEntry)}
}

// Lock implements Locker.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mutex.Lock()
	entry, ok := l.keys[key]
	if !ok {
		entry = &keyEntry{sem: make(chan struct{}, 1)}
		l.keys[key] = entry
	}
	entry.refs++
	l.mutex.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry, false)
		return nil, fmt.Errorf("%w %q: %v", ErrLockTimeout, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, entry, true) })
	}, nil
}

func (l *LocalLocker) release(key string, entry *keyEntry, held bool) {
	if held {
		<-entry.sem
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	entry.refs--
	// drop idle keys so the map does not grow with every month ever calculated
	if entry.refs == 0 {
		delete(l.keys, key)
	}
}

// size returns the number of tracked keys.
func (l *LocalLocker) size() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.keys)
}
