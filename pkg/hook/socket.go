package hook

import (
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kubev2v/corofiber/pkg/fiber"
	"github.com/kubev2v/corofiber/pkg/iomanager"
	"github.com/kubev2v/corofiber/pkg/scheduler"
)

// Socket wraps a non-blocking file descriptor with fiber-parking
// Connect/Accept/Read/Write/Close methods, backed by an IOManager.
type Socket struct {
	fd int
	m  *iomanager.IOManager
}

// NewSocket wraps fd, marking it non-blocking if it is not already.
func NewSocket(fd int, m *iomanager.IOManager) *Socket {
	_ = unix.SetNonblock(fd, true)
	return &Socket{fd: fd, m: m}
}

// Fd returns the wrapped file descriptor.
func (s *Socket) Fd() int { return s.fd }

func wouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINPROGRESS)
}

// waitReady arms event on s.fd for self and parks it until the event
// fires or, if timeout > 0, the timeout elapses first. Returns
// unix.ETIMEDOUT if the timeout won the race.
func (s *Socket) waitReady(self *fiber.Fiber, event iomanager.Event, timeout time.Duration) error {
	if err := s.m.AddEvent(s.fd, event, nil, self); err != nil {
		return err
	}

	var timedOut atomic.Bool
	haveTimer := timeout > 0

	if haveTimer {
		th := s.m.AddConditionTimer(timeout, func() {
			if s.m.CancelEvent(s.fd, event) {
				timedOut.Store(true)
			}
		}, s.m.Witness(s.fd), false)
		fiber.Yield2Hold(self)
		s.m.CancelTimer(th)
	} else {
		fiber.Yield2Hold(self)
	}

	if timedOut.Load() {
		return unix.ETIMEDOUT
	}
	return nil
}

// Connect performs a non-blocking connect, parking the calling fiber
// until the connection completes, fails, or timeout elapses (timeout<=0
// means no timeout).
func (s *Socket) Connect(self *fiber.Fiber, sa unix.Sockaddr, timeout time.Duration) error {
	err := unix.Connect(s.fd, sa)
	if err == nil {
		return nil
	}
	if !wouldBlock(err) {
		return err
	}

	if werr := s.waitReady(self, iomanager.EventWrite, timeout); werr != nil {
		return werr
	}

	soErr, gErr := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if gErr != nil {
		return gErr
	}
	if soErr != 0 {
		return unix.Errno(soErr)
	}
	return nil
}

// Accept parks the calling fiber until a connection is ready, then
// returns the accepted fd (already non-blocking) and its peer address.
func (s *Socket) Accept(self *fiber.Fiber, timeout time.Duration) (int, unix.Sockaddr, error) {
	for {
		nfd, sa, err := unix.Accept(s.fd)
		if err == nil {
			_ = unix.SetNonblock(nfd, true)
			return nfd, sa, nil
		}
		if !wouldBlock(err) {
			return -1, nil, err
		}
		if werr := s.waitReady(self, iomanager.EventRead, timeout); werr != nil {
			return -1, nil, werr
		}
	}
}

// Read parks the calling fiber until data is available, reading into buf.
func (s *Socket) Read(self *fiber.Fiber, buf []byte, timeout time.Duration) (int, error) {
	for {
		n, err := unix.Read(s.fd, buf)
		if err == nil {
			return n, nil
		}
		if !wouldBlock(err) {
			return n, err
		}
		if werr := s.waitReady(self, iomanager.EventRead, timeout); werr != nil {
			return -1, werr
		}
	}
}

// Write parks the calling fiber until the fd is writable, writing buf.
func (s *Socket) Write(self *fiber.Fiber, buf []byte, timeout time.Duration) (int, error) {
	for {
		n, err := unix.Write(s.fd, buf)
		if err == nil {
			return n, nil
		}
		if !wouldBlock(err) {
			return n, err
		}
		if werr := s.waitReady(self, iomanager.EventWrite, timeout); werr != nil {
			return -1, werr
		}
	}
}

// Close cancels every armed event on the fd (waking any parked waiter
// with error semantics) before the real close, so nothing is stranded.
func (s *Socket) Close() error {
	s.m.CancelAll(s.fd)
	return unix.Close(s.fd)
}

// Sleep parks self for d without blocking the OS thread — the hook
// layer's analogue of sleep()/usleep().
func Sleep(m *iomanager.IOManager, self *fiber.Fiber, d time.Duration) {
	m.AddTimer(d, func() { m.ScheduleFiber(self, scheduler.AnyAffinity) }, false)
	fiber.Yield2Hold(self)
}
