// Package logging builds the process's zap logger as a *Logger that the
// caller passes explicitly instead of a package-level global. Fiber panics
// reach it through scheduler.ExceptionLogger (Scheduler.SetExceptionLogger)
// and the TCP server takes it in tcpserver.Listen; the I/O manager's
// reactor loop does not log. Nothing logs through zap.L()/zap.S().
package logging
