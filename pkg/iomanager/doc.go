// Package iomanager extends pkg/scheduler with an edge-triggered epoll
// readiness reactor and a timer wheel, following the C++ source's
// IOManager (which itself derives from Scheduler and TimerManager). In
// Go there is no multiple inheritance, so IOManager embeds
// *scheduler.Scheduler (promoting Schedule*/Start/Stop/GetThis/...) and
// installs itself as the scheduler's Hooks, overriding Tickle, Stopping
// and IdleProc.
//
// # Self-pipe tickle
//
// A non-blocking pipe's read end is registered with the epoll set
// (EPOLLIN|EPOLLET); Tickle writes one byte to the write end, forcing
// whichever worker goroutine is currently blocked in epoll_wait to
// return. After epoll_wait returns, the idle fiber first schedules the
// expired timers, then walks the event batch in order, draining the pipe
// when it reaches the pipe's event.
//
// # Fd contexts
//
// m_fdContexts from the source becomes a flat []*fdContext indexed by fd,
// grown (never shrunk) to 1.5x the fd, guarded by an xsync.RWMutex
// (a sync.RWMutex wrapper): reads on the hot lookup path, writes only when growing.
// Each fdContext carries its own mutex for the read/write EventContext
// pair, matching the source's per-fd locking granularity.
package iomanager
