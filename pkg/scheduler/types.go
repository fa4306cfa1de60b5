package scheduler

import "github.com/kubev2v/corofiber/pkg/fiber"

// AnyAffinity is the affinity value meaning "no worker constraint" — the
// default for every submission unless the caller pins it.
const AnyAffinity = -1

// Closure is a plain unit of work with no fiber of its own; the dispatch
// loop wraps it in a reusable per-worker "cb-fiber" before swapping in.
type Closure func()

// Work is one ready-queue entry: exactly one of Fiber/Closure is set.
type Work struct {
	Fiber    *fiber.Fiber
	Closure  Closure
	Affinity int
}

type item struct {
	f        *fiber.Fiber
	cb       Closure
	affinity int
}

func (it item) isFiber() bool { return it.f != nil }

// ExceptionLogger receives a fiber's panic once the trampoline has
// already transitioned it to EXCEPT. internal/logging wires a zap-backed
// implementation; tests may leave it unset.
type ExceptionLogger interface {
	FiberPanic(fiberID uint64, recovered any, stack []byte)
}
