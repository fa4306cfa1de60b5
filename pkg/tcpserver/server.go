package tcpserver

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/kubev2v/corofiber/internal/logging"
	"github.com/kubev2v/corofiber/pkg/fiber"
	"github.com/kubev2v/corofiber/pkg/hook"
	"github.com/kubev2v/corofiber/pkg/iomanager"
	"github.com/kubev2v/corofiber/pkg/scheduler"
)

const (
	readTimeout  = 30 * time.Second
	acceptBuffer = 4096
)

// Server is a TCP acceptor that hands each accepted connection to an
// echo handler fiber, both running on m's scheduler.
type Server struct {
	m      *iomanager.IOManager
	log    *logging.Logger
	listen *hook.Socket
}

// Listen opens a non-blocking TCP listener on addr and wraps it for use
// with m's scheduler.
func Listen(m *iomanager.IOManager, log *logging.Logger, addr string, port int) (*Server, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("tcpserver: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tcpserver: setsockopt: %w", err)
	}

	var ip [4]byte
	if err := parseIPv4(addr, &ip); err != nil {
		unix.Close(fd)
		return nil, err
	}
	sa := &unix.SockaddrInet4{Port: port, Addr: ip}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tcpserver: bind: %w", err)
	}
	if err := unix.Listen(fd, acceptBuffer); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tcpserver: listen: %w", err)
	}

	return &Server{
		m:      m,
		log:    log.Named("tcpserver"),
		listen: hook.NewSocket(fd, m),
	}, nil
}

// Start schedules the accept-loop fiber. Non-blocking: returns as soon as
// the fiber is enqueued.
func (s *Server) Start() {
	f := fiber.Create(s.acceptLoop, s.m.StackSize(), false)
	s.m.ScheduleFiber(f, scheduler.AnyAffinity)
}

// Close stops accepting and closes the listening socket.
func (s *Server) Close() error {
	return s.listen.Close()
}

func (s *Server) acceptLoop(self *fiber.Fiber) {
	for {
		fd, _, err := s.listen.Accept(self, 0)
		if err != nil {
			s.log.Errorw("accept failed, stopping accept loop", "error", err)
			return
		}

		connID := uuid.New()
		conn := hook.NewSocket(fd, s.m)
		log := s.log.Named(connID.String())

		handler := fiber.Create(func(hself *fiber.Fiber) {
			echo(hself, conn, log)
		}, s.m.StackSize(), false)
		s.m.ScheduleFiber(handler, scheduler.AnyAffinity)
	}
}

// echo realizes scenario S5: read, write the same bytes back, repeat
// until the peer closes or the connection idles past readTimeout.
func echo(self *fiber.Fiber, conn *hook.Socket, log *logging.Logger) {
	defer conn.Close()
	log.Infow("connection accepted", "fd", conn.Fd())

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(self, buf, readTimeout)
		if err != nil {
			log.Infow("connection closed", "fd", conn.Fd(), "error", err)
			return
		}
		if n == 0 {
			return
		}
		if _, err := conn.Write(self, buf[:n], readTimeout); err != nil {
			log.Infow("write failed, closing connection", "fd", conn.Fd(), "error", err)
			return
		}
	}
}

func parseIPv4(addr string, out *[4]byte) error {
	var a, b, c, d int
	n, err := fmt.Sscanf(addr, "%d.%d.%d.%d", &a, &b, &c, &d)
	if err != nil || n != 4 {
		return fmt.Errorf("tcpserver: invalid IPv4 address %q", addr)
	}
	out[0], out[1], out[2], out[3] = byte(a), byte(b), byte(c), byte(d)
	return nil
}
