package logging_test

import (
	"testing"

	"github.com/kubev2v/corofiber/internal/config"
	"github.com/kubev2v/corofiber/internal/logging"
)

func TestNewBuildsAndLogs(t *testing.T) {
	l, err := logging.New(config.Log{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Infow("hello", "k", "v")
	l.FiberPanic(7, "boom", []byte("stack trace"))
	_ = l.Sync()
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := logging.New(config.Log{Level: "not-a-level", Format: "json"}); err == nil {
		t.Fatal("expected an error for an invalid level")
	}
}
