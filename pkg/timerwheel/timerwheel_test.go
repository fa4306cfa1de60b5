package timerwheel_test

import (
	"sync"
	"testing"
	"time"

	"github.com/kubev2v/corofiber/pkg/timerwheel"
)

// TestMonotonicity realizes property 6: timers ready via ListExpired come
// out with deadlines in non-decreasing order, earliest-inserted first on
// ties.
func TestMonotonicity(t *testing.T) {
	w := timerwheel.New(nil)
	var order []int

	w.AddTimer(30*time.Millisecond, func() { order = append(order, 3) }, false)
	w.AddTimer(10*time.Millisecond, func() { order = append(order, 1) }, false)
	w.AddTimer(20*time.Millisecond, func() { order = append(order, 2) }, false)

	deadline := time.Now().Add(200 * time.Millisecond)
	for len(order) < 3 && time.Now().Before(deadline) {
		for _, cb := range w.ListExpired() {
			cb()
		}
		time.Sleep(time.Millisecond)
	}

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

type fakeWitness struct {
	mu    sync.Mutex
	alive bool
}

func (w *fakeWitness) Upgrade() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alive
}

func (w *fakeWitness) kill() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alive = false
}

// TestConditionTimerDrop realizes property 7: a condition timer whose
// witness has died before fire time is silently dropped, never invoking
// its callback.
func TestConditionTimerDrop(t *testing.T) {
	w := timerwheel.New(nil)
	witness := &fakeWitness{alive: true}
	fired := false

	w.AddConditionTimer(10*time.Millisecond, func() { fired = true }, witness, false)
	witness.kill()

	deadline := time.Now().Add(200 * time.Millisecond)
	for w.Len() > 0 && time.Now().Before(deadline) {
		for _, cb := range w.ListExpired() {
			cb()
		}
		time.Sleep(time.Millisecond)
	}

	if fired {
		t.Fatalf("condition timer fired after its witness died")
	}
}

func TestCancelPreventsDelivery(t *testing.T) {
	w := timerwheel.New(nil)
	fired := false
	h := w.AddTimer(5*time.Millisecond, func() { fired = true }, false)
	w.Cancel(h)

	time.Sleep(20 * time.Millisecond)
	for _, cb := range w.ListExpired() {
		cb()
	}
	if fired {
		t.Fatalf("cancelled timer fired")
	}
	if h.Valid() {
		t.Fatalf("handle reports valid after cancel")
	}
}

func TestRecurringTimerReInserts(t *testing.T) {
	w := timerwheel.New(nil)
	count := 0
	w.AddTimer(5*time.Millisecond, func() { count++ }, true)

	deadline := time.Now().Add(100 * time.Millisecond)
	for count < 3 && time.Now().Before(deadline) {
		for _, cb := range w.ListExpired() {
			cb()
		}
		time.Sleep(time.Millisecond)
	}
	if count < 3 {
		t.Fatalf("recurring timer fired %d times, want at least 3", count)
	}
	if w.Len() != 1 {
		t.Fatalf("Len() = %d after recurring fires, want 1 (still armed)", w.Len())
	}
}

func TestGetNextTimerSentinelWhenEmpty(t *testing.T) {
	w := timerwheel.New(nil)
	if d := w.GetNextTimer(); d != timerwheel.Sentinel {
		t.Fatalf("GetNextTimer() on empty wheel = %v, want Sentinel", d)
	}
}

func TestInsertedAtFrontCallback(t *testing.T) {
	calls := 0
	w := timerwheel.New(func() { calls++ })

	w.AddTimer(50*time.Millisecond, func() {}, false)
	if calls != 1 {
		t.Fatalf("onFront calls = %d after first insert, want 1", calls)
	}

	w.AddTimer(100*time.Millisecond, func() {}, false)
	if calls != 1 {
		t.Fatalf("onFront calls = %d after later, non-earliest insert, want 1", calls)
	}

	w.AddTimer(10*time.Millisecond, func() {}, false)
	if calls != 2 {
		t.Fatalf("onFront calls = %d after new-earliest insert, want 2", calls)
	}
}

func TestResetReschedules(t *testing.T) {
	w := timerwheel.New(nil)
	fired := false
	h := w.AddTimer(100*time.Millisecond, func() { fired = true }, false)
	h = w.Reset(h, 5*time.Millisecond, true)

	deadline := time.Now().Add(100 * time.Millisecond)
	for !fired && time.Now().Before(deadline) {
		for _, cb := range w.ListExpired() {
			cb()
		}
		time.Sleep(time.Millisecond)
	}
	if !fired {
		t.Fatalf("timer did not fire after Reset to a shorter delay")
	}
	_ = h
}
