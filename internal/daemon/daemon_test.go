package daemon_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kubev2v/corofiber/internal/config"
	"github.com/kubev2v/corofiber/internal/daemon"
	"github.com/kubev2v/corofiber/internal/logging"
)

func TestStartDaemonRunsInlineWhenNotDaemonized(t *testing.T) {
	log, err := logging.New(config.Log{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	called := false
	boom := errors.New("boom")
	err = daemon.StartDaemon(context.Background(), config.Daemon{}, log, func(ctx context.Context) error {
		called = true
		return boom
	}, false)

	if !called {
		t.Fatal("mainFn was not invoked")
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
