package tcpserver_test

import (
	"net"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/corofiber/internal/config"
	"github.com/kubev2v/corofiber/internal/logging"
	"github.com/kubev2v/corofiber/pkg/iomanager"
	"github.com/kubev2v/corofiber/pkg/tcpserver"
)

func TestTCPServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "TCPServer Suite")
}

// Realizes scenario S5: echo server round-trip through a real TCP socket.
var _ = Describe("Server", func() {
	It("echoes back everything a client writes", func() {
		m, err := iomanager.New(2, "t", false)
		Expect(err).NotTo(HaveOccurred())
		defer m.Close()
		m.Start()

		log, err := logging.New(config.Log{Level: "error", Format: "json"})
		Expect(err).NotTo(HaveOccurred())

		srv, err := tcpserver.Listen(m, log, "127.0.0.1", 18765)
		Expect(err).NotTo(HaveOccurred())
		defer srv.Close()
		srv.Start()

		var conn net.Conn
		Eventually(func() error {
			var dialErr error
			conn, dialErr = net.DialTimeout("tcp", "127.0.0.1:18765", 200*time.Millisecond)
			return dialErr
		}, 2*time.Second, 50*time.Millisecond).Should(Succeed())
		defer conn.Close()

		conn.SetDeadline(time.Now().Add(2 * time.Second))
		_, err = conn.Write([]byte("ping"))
		Expect(err).NotTo(HaveOccurred())

		buf := make([]byte, 4)
		_, err = conn.Read(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf)).To(Equal("ping"))
	})
})
