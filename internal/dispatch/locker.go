package dispatch

import (
	"context"
	"sync"
)

// Locker serializes dispatch per problem type. Acquire blocks until
// the critical section for the key is held and returns its release
// function.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// localLocker is an in-process keyed mutex. Sufficient for a single
// service instance; multi-instance deployments use the Redis locker.
type localLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalLocker creates an in-process Locker.
func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *localLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock, nil
}
