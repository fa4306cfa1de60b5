// Package debugserver exposes a small gin HTTP surface for introspecting
// a running Scheduler/IOManager pair: GET /debug/scheduler (ready-queue
// depth, active/idle worker counts, pending event count, next timer
// deadline) and GET /debug/fibers (live fiber count). It never touches
// request framing beyond this — the framework's only HTTP surface is
// diagnostic, not a protocol the scheduler core depends on.
//
// Middleware mirrors the teacher's internal/server stack: ginzap request
// logging plus ginzap.RecoveryWithZap so a handler panic is logged with
// its stack trace instead of crashing the process.
package debugserver
