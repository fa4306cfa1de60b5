// Package xsync provides the thin typed lock wrappers the scheduler and
// I/O manager build on: a plain mutex, an RW-lock, a spinlock, and a no-op
// null mutex for single-goroutine builds/tests. Each exposes lock/unlock
// (or rdlock/wrlock/unlock) plus a scoped guard, mirroring the source's
// Mutex/RWMutex/SpinLock/NullMutex/ScopedLock family.
package xsync

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Locker is satisfied by Mutex, RWMutex (write side), SpinLock and
// NullMutex; Guard accepts any of them.
type Locker interface {
	Lock()
	Unlock()
}

// Mutex wraps sync.Mutex. The scheduler's ready queue is guarded by one of
// these.
type Mutex struct {
	mu sync.Mutex
}

func (m *Mutex) Lock()   { m.mu.Lock() }
func (m *Mutex) Unlock() { m.mu.Unlock() }

// RWMutex wraps sync.RWMutex. The I/O manager's fd-context array uses one:
// readers on the hot lookup path, writers only when the array is grown.
type RWMutex struct {
	mu sync.RWMutex
}

func (m *RWMutex) Lock()    { m.mu.Lock() }
func (m *RWMutex) Unlock()  { m.mu.Unlock() }
func (m *RWMutex) RLock()   { m.mu.RLock() }
func (m *RWMutex) RUnlock() { m.mu.RUnlock() }

// SpinLock is a CAS spinlock for very short critical sections that never
// block on a syscall -- unsuitable for anything that might, since a
// spinning waiter burns CPU for the duration.
type SpinLock struct {
	held atomic.Bool
}

func (s *SpinLock) Lock() {
	for !s.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (s *SpinLock) Unlock() {
	s.held.Store(false)
}

// NullMutex is a no-op Locker for single-threaded builds/tests where
// synchronization would only add overhead.
type NullMutex struct{}

func (NullMutex) Lock()   {}
func (NullMutex) Unlock() {}

// Guard is a scoped lock: Guard acquires, the returned func releases.
// Usage: defer xsync.Guard(&mu)()
func Guard(l Locker) func() {
	l.Lock()
	return l.Unlock
}

// RGuard is the RWMutex read-side scoped lock.
func RGuard(m *RWMutex) func() {
	m.RLock()
	return m.RUnlock
}

// Semaphore is a binary handshake semaphore: Wait blocks until another
// goroutine calls Notify. It has the shape of the source's
// pthread-semaphore-backed Thread constructor handshake; pkg/scheduler
// does not use it, and starting a Worker does not wait on any handshake.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore creates an unsignaled handshake semaphore.
func NewSemaphore() *Semaphore {
	return &Semaphore{ch: make(chan struct{}, 1)}
}

func (s *Semaphore) Wait()   { <-s.ch }
func (s *Semaphore) Notify() { s.ch <- struct{}{} }
