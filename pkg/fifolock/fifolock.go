// Package fifolock provides a mutual-exclusion lock that grants ownership in
// strict arrival order.
//
// Unlike sync.Mutex, a goroutine that releases a [Lock] and immediately
// relocks it queues behind every goroutine already waiting. On Unlock,
// ownership passes directly to the oldest waiter, so the lock is never
// observed free while someone is queued.
//
// The lock is not reentrant. A goroutine that calls Lock twice without an
// intervening Unlock deadlocks.
package fifolock

import (
	"sync"
	"time"

	"github.com/matzehuels/visiongraph/pkg/observability"
)

// Lock is a FIFO mutual-exclusion lock. The zero value is an unlocked lock.
// A Lock must not be copied after first use.
type Lock struct {
	mu       sync.Mutex
	held     bool
	acquired time.Time
	queue    []chan struct{}
}

// Lock blocks until the caller owns the lock. Callers are granted ownership
// in the order they called Lock.
func (l *Lock) Lock() {
	start := time.Now()

	l.mu.Lock()
	if !l.held && len(l.queue) == 0 {
		l.held = true
		l.acquired = time.Now()
		l.mu.Unlock()
		observability.Lock().OnAcquire(time.Since(start), false)
		return
	}
	ready := make(chan struct{})
	l.queue = append(l.queue, ready)
	l.mu.Unlock()

	<-ready
	observability.Lock().OnAcquire(time.Since(start), true)
}

// Unlock releases the lock, handing it to the oldest waiter if there is one.
// It panics if the lock is not held.
func (l *Lock) Unlock() {
	l.mu.Lock()
	if !l.held {
		l.mu.Unlock()
		panic("fifolock: unlock of unlocked lock")
	}
	held := time.Since(l.acquired)
	if len(l.queue) > 0 {
		next := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.acquired = time.Now()
		close(next)
	} else {
		l.held = false
	}
	l.mu.Unlock()
	observability.Lock().OnRelease(held)
}

// Waiting reports the number of goroutines blocked in Lock.
func (l *Lock) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Locked reports whether the lock is currently owned.
func (l *Lock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
