package scheduler

import (
	"context"
	"fmt"
)

// Work is a unit of work that produces a value or an error, the
// generalized form of the teacher's Work[T any] func(ctx) (T, error).
type Work[T any] func(ctx context.Context) (T, error)

// Result is what a Future ultimately delivers: exactly one of Data/Err
// is meaningful, mirroring the teacher's models.Result[T].
type Result[T any] struct {
	Data T
	Err  error
}

// Future is the teacher's internal/models.Future[T], carried over
// unchanged: a single-value channel plus the cancel func for the
// context the work observed.
type Future[T any] struct {
	c      chan T
	cancel context.CancelFunc
}

// NewFuture wraps an already-created result channel and cancel func.
func NewFuture[T any](c chan T, cancel context.CancelFunc) *Future[T] {
	return &Future[T]{c: c, cancel: cancel}
}

// C returns the channel the result (or a cancellation Result) arrives on.
func (f *Future[T]) C() chan T { return f.c }

// Stop cancels the context passed to the work function; it does not
// itself cause a result to be delivered, except where ScheduleWork's own
// work function observes it.
func (f *Future[T]) Stop() { f.cancel() }

// ScheduleWork is the teacher's Scheduler.AddWork, generalized from "run
// on a goroutine borrowed from a fixed worker pool" to "run as a plain
// closure on s's ready queue", so a work item now competes for a
// cb-fiber the same way any other ScheduleClosure caller does rather
// than owning a dedicated goroutine. A panic inside work is recovered
// and delivered as a Result.Err rather than reaching the cb-fiber's own
// exception handling, matching the teacher's worker.Work recover.
func ScheduleWork[T any](s *Scheduler, ctx context.Context, work Work[T], affinity int) *Future[Result[T]] {
	c := make(chan Result[T], 1)
	workCtx, cancel := context.WithCancel(ctx)

	s.ScheduleClosure(func() {
		defer func() {
			if rec := recover(); rec != nil {
				select {
				case c <- Result[T]{Err: fmt.Errorf("scheduler: work panicked: %v", rec)}:
				default:
				}
			}
		}()
		data, err := work(workCtx)
		select {
		case c <- Result[T]{Data: data, Err: err}:
		default:
		}
	}, affinity)

	return NewFuture(c, cancel)
}
