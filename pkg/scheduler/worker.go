package scheduler

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/kubev2v/corofiber/pkg/fiber"
)

// idleSafetyCap bounds how long the default idle fiber blocks between
// stopping-condition checks when nothing tickles it. The I/O manager's
// own idle fiber uses the timer wheel's next deadline instead; this cap
// only matters for a base (non-I/O) scheduler.
const idleSafetyCap = 3 * time.Second

// Worker is the per-thread structure Design Notes call for in place of
// the two TLS pointers t_fiber/t_scheduler_fiber: everything another
// package needs to know about "the fiber currently running on this OS
// thread" lives here, not in global state.
type Worker struct {
	id    int
	sched *Scheduler

	current atomic.Pointer[fiber.Fiber]
	tickle  chan struct{}

	cbFiber *fiber.Fiber // reusable wrapper fiber for plain closures
}

func newWorker(id int, s *Scheduler) *Worker {
	return &Worker{id: id, sched: s, tickle: make(chan struct{}, 1)}
}

// ID returns this worker's affinity id.
func (w *Worker) ID() int { return w.id }

// CurrentFiber is this worker's GetThis(): the fiber presently EXEC on
// this OS thread, or nil while the dispatch loop itself runs between
// fibers.
func (w *Worker) CurrentFiber() *fiber.Fiber { return w.current.Load() }

// Tickle wakes this worker's idle fiber. Buffered so a tickle issued
// while the worker has not yet reached idle is not lost.
func (w *Worker) Tickle() {
	select {
	case w.tickle <- struct{}{}:
	default:
	}
}

func (w *Worker) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer w.sched.wg.Done()

	idle := fiber.Create(w.sched.hooks.IdleProc(w), w.sched.stackSize, false)
	idle.SetExceptionHandler(w.sched.handleFiberPanic)

	for {
		it, ok := w.sched.dequeue(w.id)
		if !ok {
			if w.sched.hooks.Stopping() {
				return
			}
			w.sched.idle.Add(1)
			w.current.Store(idle)
			idle.SwapIn()
			w.current.Store(nil)
			w.sched.idle.Add(-1)
			if idle.State() == fiber.StateTerm || idle.State() == fiber.StateExcept {
				idle.Reset(w.sched.hooks.IdleProc(w))
			}
			continue
		}
		w.runItem(it)
	}
}

func (w *Worker) runItem(it item) {
	defer w.sched.active.Add(-1)

	if it.isFiber() {
		w.swapInto(it.f)
		return
	}
	cb := w.takeCBFiber()
	cb.Reset(func(*fiber.Fiber) { it.cb() })
	w.swapInto(cb)
}

func (w *Worker) takeCBFiber() *fiber.Fiber {
	if w.cbFiber == nil {
		w.cbFiber = fiber.Create(func(*fiber.Fiber) {}, w.sched.stackSize, false)
		w.cbFiber.SetExceptionHandler(w.sched.handleFiberPanic)
	}
	return w.cbFiber
}

func (w *Worker) swapInto(f *fiber.Fiber) {
	w.current.Store(f)
	f.SwapIn()
	w.current.Store(nil)

	switch f.State() {
	case fiber.StateReady:
		w.sched.enqueue(item{f: f, affinity: AnyAffinity})
	case fiber.StateTerm, fiber.StateExcept:
		// the reusable cb-fiber is kept alive across closures; anything
		// else submitted via ScheduleFiber is done and released here.
		if f != w.cbFiber {
			f.Release()
		}
	default:
		// HOLD: whoever promised to resume it owns that responsibility
	}
}
