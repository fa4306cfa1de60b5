package iomanager

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kubev2v/corofiber/pkg/fiber"
	"github.com/kubev2v/corofiber/pkg/scheduler"
	"github.com/kubev2v/corofiber/pkg/timerwheel"
	"github.com/kubev2v/corofiber/pkg/xsync"
)

const (
	maxEpollEvents = 256
	idleWaitCapMS  = 3000
	initialFdCap   = 64
)

// IOManager is a Scheduler extended with epoll-based readiness and a
// timer wheel. Construct with New; it installs itself as the embedded
// scheduler's Hooks.
type IOManager struct {
	*scheduler.Scheduler

	epfd             int
	tickleR, tickleW int

	pending atomic.Int64

	ctxMu xsync.RWMutex
	fdCtx []*fdContext

	timers *timerwheel.Wheel
}

// New creates an IOManager with threadCount workers, an epoll instance
// and a self-pipe tickle mechanism.
func New(threadCount int, name string, useCaller bool) (*IOManager, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("iomanager: epoll_create1: %w", err)
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("iomanager: pipe2: %w", err)
	}

	m := &IOManager{
		Scheduler: scheduler.NewScheduler(threadCount, name, useCaller),
		epfd:      epfd,
		tickleR:   fds[0],
		tickleW:   fds[1],
	}
	m.timers = timerwheel.New(func() { m.Tickle(scheduler.AnyAffinity) })
	m.Scheduler.SetHooks(m)

	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, m.tickleR, &unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLET,
		Fd:     int32(m.tickleR),
	}); err != nil {
		unix.Close(m.epfd)
		unix.Close(m.tickleR)
		unix.Close(m.tickleW)
		return nil, fmt.Errorf("iomanager: epoll_ctl(self-pipe): %w", err)
	}

	return m, nil
}

// Close stops the scheduler (joining every worker) and releases the
// epoll fd and self-pipe.
func (m *IOManager) Close() {
	m.Scheduler.Close()
	unix.Close(m.epfd)
	unix.Close(m.tickleR)
	unix.Close(m.tickleW)
}

// PendingEventCount returns the number of currently armed (fd, event)
// pairs — property 5's arm/disarm balance is observable through this.
func (m *IOManager) PendingEventCount() int64 { return m.pending.Load() }

// AddTimer schedules cb after delay on the owned timer wheel.
func (m *IOManager) AddTimer(delay time.Duration, cb scheduler.Closure, recurring bool) timerwheel.Handle {
	return m.timers.AddTimer(delay, timerwheel.Callback(cb), recurring)
}

// AddConditionTimer is AddTimer gated on witness (see Witness).
func (m *IOManager) AddConditionTimer(delay time.Duration, cb scheduler.Closure, witness timerwheel.Witness, recurring bool) timerwheel.Handle {
	return m.timers.AddConditionTimer(delay, timerwheel.Callback(cb), witness, recurring)
}

// CancelTimer cancels a handle returned by AddTimer/AddConditionTimer.
func (m *IOManager) CancelTimer(h timerwheel.Handle) { m.timers.Cancel(h) }

// NextTimerDeadline returns the delay until the next armed timer fires,
// or timerwheel.Sentinel if none are armed. Exposed for debugserver.
func (m *IOManager) NextTimerDeadline() time.Duration { return m.timers.GetNextTimer() }

// TimerCount returns the number of timers currently armed on the wheel.
func (m *IOManager) TimerCount() int { return m.timers.Len() }

// Witness returns fd's fd-context as a timerwheel.Witness, suitable for
// gating a hooked I/O timeout: it upgrades until CancelAll tears the fd
// context down.
func (m *IOManager) Witness(fd int) timerwheel.Witness {
	return m.ensureContext(fd)
}

// AddEvent arms event on fd. If cb is nil, self (which must be EXEC) is
// the waiter woken on fire; otherwise cb runs on its own cb-fiber.
// Returns an error if the event is already armed or epoll_ctl fails; on
// failure the fd context is left unchanged.
func (m *IOManager) AddEvent(fd int, event Event, cb scheduler.Closure, self *fiber.Fiber) error {
	if cb == nil && (self == nil || self.State() != fiber.StateExec) {
		return errors.New("iomanager: AddEvent requires an EXEC fiber when cb is nil")
	}

	ctx := m.ensureContext(fd)
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.events&event != 0 {
		return fmt.Errorf("iomanager: event %s already armed on fd %d", event, fd)
	}

	op := unix.EPOLL_CTL_ADD
	if ctx.events != EventNone {
		op = unix.EPOLL_CTL_MOD
	}
	newMask := ctx.events | event
	ev := unix.EpollEvent{Events: uint32(newMask) | unix.EPOLLET, Fd: int32(fd)}
	if err := unix.EpollCtl(m.epfd, op, fd, &ev); err != nil {
		return fmt.Errorf("iomanager: epoll_ctl: %w", err)
	}

	ctx.events = newMask
	ctx.closed = false
	ec := eventContext{sched: m.Scheduler, cb: cb}
	if cb == nil {
		ec.f = self
	}
	*ctx.slot(event) = ec
	m.pending.Add(1)
	return nil
}

// DelEvent disarms event on fd without firing its waiter. Reports
// whether it had been armed.
func (m *IOManager) DelEvent(fd int, event Event) bool {
	ctx := m.lookup(fd)
	if ctx == nil {
		return false
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.events&event == 0 {
		return false
	}

	residual := ctx.events &^ event
	if !m.rearm(fd, residual) {
		return false
	}
	ctx.events = residual
	*ctx.slot(event) = eventContext{}
	m.pending.Add(-1)
	return true
}

// CancelEvent is DelEvent that also fires the waiter (with no real
// readiness) before returning, re-enqueuing it on its original
// scheduler. Used to synthesize wakeups after external cancellation.
func (m *IOManager) CancelEvent(fd int, event Event) bool {
	ctx := m.lookup(fd)
	if ctx == nil {
		return false
	}
	ctx.mu.Lock()
	if ctx.events&event == 0 {
		ctx.mu.Unlock()
		return false
	}
	ec := *ctx.slot(event)
	residual := ctx.events &^ event
	m.rearm(fd, residual) // best-effort: the waiter still fires below
	ctx.events = residual
	*ctx.slot(event) = eventContext{}
	ctx.mu.Unlock()

	m.pending.Add(-1)
	m.fire(ec)
	return true
}

// CancelAll fires both armed events on fd (if present) and marks the fd
// context torn down, dropping any condition timer witnessing it.
func (m *IOManager) CancelAll(fd int) bool {
	ctx := m.lookup(fd)
	if ctx == nil {
		return false
	}
	firedRead := m.CancelEvent(fd, EventRead)
	firedWrite := m.CancelEvent(fd, EventWrite)

	ctx.mu.Lock()
	ctx.closed = true
	ctx.mu.Unlock()
	return firedRead || firedWrite
}

func (m *IOManager) rearm(fd int, residual Event) bool {
	op := unix.EPOLL_CTL_DEL
	var ev unix.EpollEvent
	if residual != EventNone {
		op = unix.EPOLL_CTL_MOD
		ev = unix.EpollEvent{Events: uint32(residual) | unix.EPOLLET, Fd: int32(fd)}
	}
	return unix.EpollCtl(m.epfd, op, fd, &ev) == nil
}

func (m *IOManager) fire(ec eventContext) {
	if ec.sched == nil || !ec.armed() {
		return
	}
	if ec.cb != nil {
		ec.sched.ScheduleClosure(ec.cb, scheduler.AnyAffinity)
		return
	}
	ec.sched.ScheduleFiber(ec.f, scheduler.AnyAffinity)
}

func (m *IOManager) lookup(fd int) *fdContext {
	m.ctxMu.RLock()
	defer m.ctxMu.RUnlock()
	if fd < 0 || fd >= len(m.fdCtx) {
		return nil
	}
	return m.fdCtx[fd]
}

// ensureContext grows the flat array (to 1.5x fd, at least initialFdCap,
// never shrinking) and allocates fd's context if needed.
func (m *IOManager) ensureContext(fd int) *fdContext {
	m.ctxMu.RLock()
	if fd < len(m.fdCtx) && m.fdCtx[fd] != nil {
		ctx := m.fdCtx[fd]
		m.ctxMu.RUnlock()
		return ctx
	}
	m.ctxMu.RUnlock()

	m.ctxMu.Lock()
	defer m.ctxMu.Unlock()
	if fd >= len(m.fdCtx) {
		size := fd + fd/2
		if size < initialFdCap {
			size = initialFdCap
		}
		grown := make([]*fdContext, size)
		copy(grown, m.fdCtx)
		m.fdCtx = grown
	}
	if m.fdCtx[fd] == nil {
		m.fdCtx[fd] = &fdContext{fd: fd}
	}
	return m.fdCtx[fd]
}

// Tickle implements scheduler.Hooks: write one byte to the self-pipe,
// forcing whichever worker is blocked in epoll_wait to return.
func (m *IOManager) Tickle(workerID int) {
	_ = workerID
	one := [1]byte{1}
	_, _ = unix.Write(m.tickleW, one[:])
}

// Stopping implements scheduler.Hooks: the base stopping condition plus
// no pending events and no armed timer.
func (m *IOManager) Stopping() bool {
	return m.pending.Load() == 0 && m.timers.Len() == 0 && m.Scheduler.Stopping()
}

// IdleProc implements scheduler.Hooks: the epoll_wait loop described in
// the package doc comment.
func (m *IOManager) IdleProc(w *scheduler.Worker) fiber.Proc {
	return func(self *fiber.Fiber) {
		events := make([]unix.EpollEvent, maxEpollEvents)
		for !m.Stopping() {
			timeoutMS := idleWaitCapMS
			if next := m.timers.GetNextTimer(); next != timerwheel.Sentinel {
				if ms := int(next / time.Millisecond); ms < timeoutMS {
					timeoutMS = ms
				}
			}

			n, err := unix.EpollWait(m.epfd, events, timeoutMS)
			if err != nil {
				if errors.Is(err, unix.EINTR) {
					continue
				}
				fiber.Yield2Hold(self)
				continue
			}

			for _, cb := range m.timers.ListExpired() {
				m.Scheduler.ScheduleClosure(scheduler.Closure(cb), scheduler.AnyAffinity)
			}

			for i := 0; i < n; i++ {
				fd := int(events[i].Fd)
				if fd == m.tickleR {
					m.drainTickle()
					continue
				}
				m.triggerReady(fd, events[i].Events)
			}

			fiber.Yield2Hold(self)
		}
	}
}

func (m *IOManager) drainTickle() {
	var buf [64]byte
	for {
		n, err := unix.Read(m.tickleR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (m *IOManager) triggerReady(fd int, real uint32) {
	ctx := m.lookup(fd)
	if ctx == nil {
		return
	}

	var ready Event
	if real&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		ready |= EventRead
	}
	if real&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		ready |= EventWrite
	}

	ctx.mu.Lock()
	fired := ready & ctx.events
	if fired == EventNone {
		ctx.mu.Unlock()
		return
	}
	residual := ctx.events &^ fired
	m.rearm(fd, residual)
	ctx.events = residual

	var toFire []eventContext
	if fired&EventRead != 0 {
		toFire = append(toFire, ctx.read)
		ctx.read = eventContext{}
	}
	if fired&EventWrite != 0 {
		toFire = append(toFire, ctx.write)
		ctx.write = eventContext{}
	}
	ctx.mu.Unlock()

	for _, ec := range toFire {
		m.pending.Add(-1)
		m.fire(ec)
	}
}
