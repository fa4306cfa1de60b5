// Package hook is the mechanical Go transformation of the source's libc
// interposition layer: in a language without dynamic symbol
// interposition, "hooking read/write/connect" becomes exposing
// non-blocking methods on a socket abstraction whose implementation
// parks the current fiber via the I/O manager (see SPEC_FULL's Design
// Notes). Callers use Socket's Connect/Accept/Read/Write/Close directly
// instead of the raw syscalls.
//
// Every method follows the same pattern: attempt the syscall; if it
// would block (EAGAIN/EWOULDBLOCK/EINPROGRESS), arm the matching
// READ/WRITE event on the caller's fiber, optionally start a condition
// timer witnessed by the fd's own context so a concurrent Close drops
// the pending timeout rather than firing it on a torn-down fd, yield to
// hold, then retry once woken. A timeout that wins the race against real
// readiness reports ETIMEDOUT; Close always cancels every armed event on
// the fd before the real close, so no waiter is ever stranded.
package hook
