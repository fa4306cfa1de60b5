package xsync_test

import (
	"testing"
	"time"

	"github.com/kubev2v/corofiber/pkg/xsync"
)

func TestGuardReleases(t *testing.T) {
	var mu xsync.Mutex
	unlock := xsync.Guard(&mu)
	unlock()

	done := make(chan struct{})
	go func() {
		unlock2 := xsync.Guard(&mu)
		unlock2()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Guard did not release the mutex")
	}
}

func TestRWMutexReadersConcurrent(t *testing.T) {
	var mu xsync.RWMutex
	release1 := xsync.RGuard(&mu)
	release2 := xsync.RGuard(&mu)
	release1()
	release2()
}

func TestSpinLockMutualExclusion(t *testing.T) {
	var sl xsync.SpinLock
	var counter int
	const n = 200

	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			sl.Lock()
			counter++
			sl.Unlock()
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	if counter != n {
		t.Fatalf("counter = %d, want %d", counter, n)
	}
}

func TestNullMutexIsNoOp(t *testing.T) {
	var m xsync.NullMutex
	m.Lock()
	m.Lock()
	m.Unlock()
}

func TestSemaphoreHandshake(t *testing.T) {
	sem := xsync.NewSemaphore()
	signaled := make(chan struct{})
	go func() {
		sem.Notify()
	}()
	go func() {
		sem.Wait()
		close(signaled)
	}()
	select {
	case <-signaled:
	case <-time.After(time.Second):
		t.Fatal("semaphore handshake did not complete")
	}
}
