// Package daemon is the Go realization of the source's start_daemon:
// daemon(3)-style double-forking has no Go equivalent (the runtime owns
// the process's threads), so StartDaemon instead re-execs os.Args[0] as
// a child process (sharing stdout/stderr, not detached) marked by an
// environment variable, waits for it, and
// respawns on non-zero exit with a constant backoff — the same
// restart-loop shape as daemon.cpp's real_daemon, built on
// github.com/cenkalti/backoff/v5 (the teacher's own dependency, there
// used for console reconnection backoff).
package daemon
