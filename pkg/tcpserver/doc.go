// Package tcpserver is a TCP acceptor fiber plus a per-connection echo
// handler fiber, built directly on pkg/iomanager and pkg/hook — the
// external collaborator spec.md's overview names as a consumer of the
// scheduler/I/O-manager core. Each accepted connection is tagged with a
// github.com/google/uuid for log correlation, the same id-per-connection
// pattern the teacher uses for agent/source ids.
package tcpserver
