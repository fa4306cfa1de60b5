package iomanager

import (
	"sync"

	"github.com/kubev2v/corofiber/pkg/fiber"
	"github.com/kubev2v/corofiber/pkg/scheduler"
)

// Event is a bit-flag direction on a file descriptor; NONE/READ/WRITE
// compose with bitwise-or exactly as the source's enum does.
type Event uint32

const (
	EventNone  Event = 0x0
	EventRead  Event = 0x1
	EventWrite Event = 0x4
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "NONE"
	case EventRead:
		return "READ"
	case EventWrite:
		return "WRITE"
	case EventRead | EventWrite:
		return "READ|WRITE"
	default:
		return "UNKNOWN"
	}
}

// eventContext is the waiter for one armed event: exactly one of
// fiber/cb is set, alongside the scheduler it should be re-enqueued on.
type eventContext struct {
	sched *scheduler.Scheduler
	f     *fiber.Fiber
	cb    scheduler.Closure
}

func (ec eventContext) armed() bool { return ec.f != nil || ec.cb != nil }

// fdContext is per-fd state: the currently armed mask and up to two
// waiters. It also satisfies timerwheel.Witness so a condition timer can
// be gated on "this fd context has not yet been torn down" — the Go
// analogue of a weak_ptr to the FdContext.
type fdContext struct {
	mu     sync.Mutex
	fd     int
	events Event
	read   eventContext
	write  eventContext
	closed bool
}

func (c *fdContext) slot(event Event) *eventContext {
	if event == EventRead {
		return &c.read
	}
	return &c.write
}

// Upgrade implements timerwheel.Witness: a condition timer gated on this
// fd context is dropped once the fd has been torn down by CancelAll.
func (c *fdContext) Upgrade() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}
