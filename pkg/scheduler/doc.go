// Package scheduler implements the M:N cooperative dispatcher: a fixed
// pool of workers (each an OS thread, via runtime.LockOSThread) pulling
// from one shared ready queue of fibers and closures, each optionally
// pinned to a worker by affinity.
//
// # Dispatch loop
//
// Each worker repeatedly:
//
//  1. Scans the ready queue first-fit, skipping items pinned to another
//     worker (tickling that worker once released) and fibers already
//     EXEC on some other worker.
//  2. If an item was found: swaps into its fiber (wrapping a closure in
//     a reusable per-worker "cb-fiber" first). READY re-enqueues with
//     any affinity; TERM/EXCEPT drops it; anything else (HOLD) is left
//     for whoever promised to resume it.
//  3. If nothing was found: swaps into the worker's idle fiber, which
//     blocks (select — the Go-native analogue of epoll_wait/condvar
//     wait) until tickled or a safety-cap timeout elapses, then yields
//     back and is resumed for as long as the stopping condition is false.
//
// # Extension points
//
// Hooks (Tickle, Stopping, IdleProc) are the seam the I/O manager uses to
// extend this scheduler with epoll-based readiness: it embeds a
// *Scheduler and installs its own Hooks via SetHooks before Start.
//
// # use_caller and the root fiber
//
// When constructed with useCaller=true, NewScheduler also allocates a
// thread-root fiber (fiber.NewRootFiber) as a bookkeeping handle, returned
// by GetMainFiber. A root fiber stays EXEC for its whole life (the fiber
// package refuses to swap it in or out), so Stop() never runs it: Stop()
// only calls the root fiber if it is in HOLD, which does not happen, and
// otherwise returns once every worker has joined. Unlike the C++ source,
// worker 0 is not literally run on the constructing goroutine, and
// Start() stays non-blocking for every worker.
package scheduler
