package daemon

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/kubev2v/corofiber/internal/config"
	"github.com/kubev2v/corofiber/internal/logging"
)

// reexecEnvVar marks a process as the supervised child, so it runs mainFn
// directly instead of re-forking.
const reexecEnvVar = "COROFIBERD_REEXEC"

// MainFunc is the application entry point StartDaemon supervises.
type MainFunc func(ctx context.Context) error

// StartDaemon runs mainFn directly when isDaemon is false. When true, it
// re-execs os.Args[0] with reexecEnvVar set, waits for the child, and
// respawns it with a constant backoff (cfg.Daemon.RestartInterval) on
// every non-zero exit — the restart loop daemon.cpp's real_daemon
// describes, since Go has no daemon(3)/fork() double-fork primitive.
func StartDaemon(ctx context.Context, cfg config.Daemon, log *logging.Logger, mainFn MainFunc, isDaemon bool) error {
	if !isDaemon || os.Getenv(reexecEnvVar) == "1" {
		return mainFn(ctx)
	}

	b := backoff.NewConstantBackOff(cfg.RestartInterval)
	restarts := 0
	for {
		cmd := exec.CommandContext(ctx, os.Args[0], os.Args[1:]...)
		cmd.Env = append(os.Environ(), reexecEnvVar+"=1")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		log.Infow("starting supervised child", "restart_count", restarts)
		err := cmd.Run()
		if err == nil {
			log.Infow("child exited cleanly, stopping supervisor")
			return nil
		}
		log.Errorw("child exited, respawning", "error", err, "restart_count", restarts)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		restarts++
		select {
		case <-time.After(b.NextBackOff()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
