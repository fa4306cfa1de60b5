package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kubev2v/corofiber/pkg/fiber"
	"github.com/kubev2v/corofiber/pkg/xsync"
)

// Hooks lets an embedding component (the I/O manager) override the three
// extension points the dispatch loop consults whenever the ready queue is
// empty: Tickle, Stopping and IdleProc. The base Scheduler satisfies
// Hooks itself; NewScheduler wires a scheduler to its own default hooks,
// and SetHooks lets a subtype install its own before Start is called.
type Hooks interface {
	Tickle(workerID int)
	Stopping() bool
	IdleProc(w *Worker) fiber.Proc
}

// Scheduler is the M:N cooperative dispatcher described in the package
// doc comment.
type Scheduler struct {
	name      string
	useCaller bool
	stackSize uint32

	mu    xsync.Mutex
	ready []item

	workers   []*Worker
	rootFiber *fiber.Fiber

	active atomic.Int32
	idle   atomic.Int32

	autoStop atomic.Bool
	stopped  atomic.Bool

	hooks    Hooks
	exLogger ExceptionLogger

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewScheduler builds a scheduler with threadCount workers (minimum 1).
// If useCaller, a thread-root fiber handle is allocated and returned by
// GetMainFiber; see the package doc comment.
func NewScheduler(threadCount int, name string, useCaller bool) *Scheduler {
	if threadCount < 1 {
		threadCount = 1
	}
	s := &Scheduler{name: name, useCaller: useCaller}
	s.hooks = s
	for i := 0; i < threadCount; i++ {
		s.workers = append(s.workers, newWorker(i, s))
	}
	if useCaller {
		s.rootFiber = fiber.NewRootFiber()
	}
	return s
}

// SetHooks installs a Hooks implementation other than the scheduler
// itself. Must be called before Start.
func (s *Scheduler) SetHooks(h Hooks) { s.hooks = h }

// SetStackSize configures the stack size every fiber.Create call the
// scheduler itself makes (the idle fiber, the per-worker cb-fiber) uses
// from then on; 0 keeps fiber.DefaultStackSize. Wired from
// config.Fiber.StackSize. Must be called before Start.
func (s *Scheduler) SetStackSize(size uint32) { s.stackSize = size }

// StackSize returns the configured fiber stack size (0 meaning
// fiber.DefaultStackSize), for callers that create their own fibers to
// run on this scheduler (e.g. pkg/tcpserver's accept/handler fibers).
func (s *Scheduler) StackSize() uint32 { return s.stackSize }

// SetExceptionLogger wires where fiber panics are reported.
func (s *Scheduler) SetExceptionLogger(l ExceptionLogger) { s.exLogger = l }

func (s *Scheduler) handleFiberPanic(f *fiber.Fiber, recovered any, stack []byte) {
	if s.exLogger != nil {
		s.exLogger.FiberPanic(f.ID(), recovered, stack)
	}
}

// Name returns the scheduler's configured name (used for worker thread
// naming in the C++ source; here it is purely descriptive/diagnostic).
func (s *Scheduler) Name() string { return s.name }

// WorkerCount returns the number of workers in the pool.
func (s *Scheduler) WorkerCount() int { return len(s.workers) }

// ActiveCount returns the number of workers currently running a fiber.
func (s *Scheduler) ActiveCount() int32 { return s.active.Load() }

// IdleCount returns the number of workers currently parked in their idle
// fiber.
func (s *Scheduler) IdleCount() int32 { return s.idle.Load() }

// Len returns the number of items currently in the ready queue.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ready)
}

// GetThis returns the fiber currently executing on the given worker, or
// nil if that worker's dispatch loop itself is running between fibers or
// workerID is out of range.
func (s *Scheduler) GetThis(workerID int) *fiber.Fiber {
	if workerID < 0 || workerID >= len(s.workers) {
		return nil
	}
	return s.workers[workerID].CurrentFiber()
}

// GetMainFiber returns the thread-root fiber in use-caller mode, or nil.
func (s *Scheduler) GetMainFiber() *fiber.Fiber { return s.rootFiber }

// ScheduleFiber enqueues an already-created fiber with the given
// affinity (AnyAffinity for none).
func (s *Scheduler) ScheduleFiber(f *fiber.Fiber, affinity int) {
	s.enqueue(item{f: f, affinity: affinity})
}

// ScheduleClosure enqueues a plain closure with the given affinity.
func (s *Scheduler) ScheduleClosure(cb Closure, affinity int) {
	s.enqueue(item{cb: cb, affinity: affinity})
}

// ScheduleBatch enqueues every item atomically with respect to other
// submissions — the bulk form of the source's schedule(iterator_range).
func (s *Scheduler) ScheduleBatch(works []Work) {
	if len(works) == 0 {
		return
	}
	s.mu.Lock()
	emptyBefore := len(s.ready) == 0
	for _, w := range works {
		s.ready = append(s.ready, item{f: w.Fiber, cb: w.Closure, affinity: w.Affinity})
	}
	s.mu.Unlock()
	if emptyBefore {
		s.hooks.Tickle(AnyAffinity)
	}
}

func (s *Scheduler) enqueue(it item) {
	s.mu.Lock()
	emptyBefore := len(s.ready) == 0
	s.ready = append(s.ready, it)
	s.mu.Unlock()
	if emptyBefore {
		s.hooks.Tickle(it.affinity)
	}
}

// dequeue scans the ready queue first-fit for workerID: skip items pinned
// to a different worker (remembering to tickle them once the lock is
// released) and fibers already EXEC elsewhere; take the first match.
func (s *Scheduler) dequeue(workerID int) (item, bool) {
	s.mu.Lock()
	var tickleOthers []int
	for i, it := range s.ready {
		if it.affinity != AnyAffinity && it.affinity != workerID {
			tickleOthers = append(tickleOthers, it.affinity)
			continue
		}
		if it.isFiber() && it.f.State() == fiber.StateExec {
			continue
		}
		s.ready = append(s.ready[:i:i], s.ready[i+1:]...)
		s.active.Add(1)
		s.mu.Unlock()
		for _, t := range tickleOthers {
			s.hooks.Tickle(t)
		}
		return it, true
	}
	s.mu.Unlock()
	for _, t := range tickleOthers {
		s.hooks.Tickle(t)
	}
	return item{}, false
}

// SwitchTo re-enqueues self with workerID affinity and yields to HOLD;
// after the next resume, self is running on the requested worker.
//
// Tickling here is coarse in the same sense the source documents for
// schedule(): the fiber is still formally EXEC for the instant between
// enqueue and Yield2Hold, so a racing dequeue on the target worker may
// skip it once and rely on that worker's own idle-loop tickle check
// rather than this call's tickle.
func (s *Scheduler) SwitchTo(self *fiber.Fiber, workerID int) {
	s.enqueue(item{f: self, affinity: workerID})
	fiber.Yield2Hold(self)
}

// Start launches every worker's dispatch loop as a goroutine. Idempotent.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(len(s.workers))
		for _, w := range s.workers {
			go w.loop()
		}
	})
}

// Stop requests auto-stop, tickles every worker through the installed
// Hooks, calls the root fiber only if it is in HOLD (a root fiber never
// leaves EXEC, so in practice it is not called), then joins all workers.
// Idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.autoStop.Store(true)
		for _, w := range s.workers {
			s.hooks.Tickle(w.id)
		}
		if s.useCaller && s.rootFiber != nil && s.rootFiber.State() == fiber.StateHold {
			s.rootFiber.Call()
		}
		s.wg.Wait()
		s.stopped.Store(true)
	})
}

// Close stops the scheduler (if not already stopped) and asserts the
// destructor invariant from the source: stopping() must hold once every
// worker has joined.
func (s *Scheduler) Close() {
	s.Stop()
	if !s.Stopping() {
		panic(fiber.ContractViolation{Op: "Scheduler.Close"})
	}
}

// Stopping is the base Hooks implementation: true once auto-stop has
// been requested, no ready items remain, and no worker is active.
func (s *Scheduler) Stopping() bool {
	s.mu.Lock()
	empty := len(s.ready) == 0
	s.mu.Unlock()
	return s.autoStop.Load() && empty && s.active.Load() == 0
}

// Tickle is the base Hooks implementation: wake the named worker, or
// every worker when workerID is AnyAffinity.
func (s *Scheduler) Tickle(workerID int) {
	if workerID == AnyAffinity {
		for _, w := range s.workers {
			w.Tickle()
		}
		return
	}
	if workerID >= 0 && workerID < len(s.workers) {
		s.workers[workerID].Tickle()
	}
}

// IdleProc is the base Hooks implementation: loop yielding to hold,
// blocking on this worker's tickle channel (or a safety-cap timeout)
// between checks of Stopping().
func (s *Scheduler) IdleProc(w *Worker) fiber.Proc {
	return func(self *fiber.Fiber) {
		for !s.hooks.Stopping() {
			select {
			case <-w.tickle:
			case <-time.After(idleSafetyCap):
			}
			fiber.Yield2Hold(self)
		}
	}
}
