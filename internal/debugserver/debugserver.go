package debugserver

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubev2v/corofiber/pkg/fiber"
	"github.com/kubev2v/corofiber/pkg/iomanager"
)

// Server is a gin HTTP server exposing scheduler/iomanager introspection.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
}

// New builds a Server bound to addr, backed by m for introspection and
// logger for request/recovery logging.
func New(addr string, m *iomanager.IOManager, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(logger, true))

	engine.GET("/debug/scheduler", func(c *gin.Context) {
		next := m.NextTimerDeadline()
		var nextMS int64 = -1
		if next != -1 {
			nextMS = next.Milliseconds()
		}
		c.JSON(http.StatusOK, gin.H{
			"name":                   m.Name(),
			"worker_count":           m.WorkerCount(),
			"active_count":           m.ActiveCount(),
			"idle_count":             m.IdleCount(),
			"ready_len":              m.Len(),
			"pending_event_count":    m.PendingEventCount(),
			"timer_count":            m.TimerCount(),
			"next_timer_deadline_ms": nextMS,
		})
	})

	engine.GET("/debug/fibers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"total_fibers": fiber.TotalFibers(),
		})
	})

	return &Server{
		engine:     engine,
		httpServer: &http.Server{Addr: addr, Handler: engine},
	}
}

// Start blocks serving HTTP until Stop is called or the listener errors.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop closes the server immediately (http.Server.Close): the listener
// and all open connections are closed without waiting for in-flight
// requests.
func (s *Server) Stop() error {
	return s.httpServer.Close()
}
