package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kubev2v/corofiber/internal/config"
	"github.com/kubev2v/corofiber/internal/daemon"
	"github.com/kubev2v/corofiber/internal/debugserver"
	"github.com/kubev2v/corofiber/internal/logging"
	"github.com/kubev2v/corofiber/pkg/iomanager"
	"github.com/kubev2v/corofiber/pkg/tcpserver"
)

func newRunCommand() *cobra.Command {
	var (
		configPath string
		listenAddr string
		listenPort int
		debugAddr  string
		isDaemon   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the scheduler, I/O manager, TCP echo server and debug surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return daemon.StartDaemon(ctx, cfg.Daemon, log, func(ctx context.Context) error {
				return runServer(ctx, cfg, log, listenAddr, listenPort, debugAddr)
			}, isDaemon)
		},
	}

	addRunFlags(cmd.Flags(), &configPath, &listenAddr, &listenPort, &debugAddr, &isDaemon)

	return cmd
}

// addRunFlags registers run's flags directly against the pflag.FlagSet
// cobra wraps, keeping flag definitions testable independent of the
// Command. Every flag here also becomes an env var override through the
// root command's cobrautil.SyncViperPreRunE.
func addRunFlags(fs *pflag.FlagSet, configPath, listenAddr *string, listenPort *int, debugAddr *string, isDaemon *bool) {
	fs.StringVar(configPath, "config", "", "path to a YAML configuration file")
	fs.StringVar(listenAddr, "listen-addr", "0.0.0.0", "TCP echo server bind address")
	fs.IntVar(listenPort, "listen-port", 7000, "TCP echo server bind port")
	fs.StringVar(debugAddr, "debug-addr", "127.0.0.1:7001", "debug HTTP server bind address")
	fs.BoolVar(isDaemon, "daemon", false, "run as a supervised, auto-respawning daemon")
}

func runServer(ctx context.Context, cfg *config.Configuration, log *logging.Logger, listenAddr string, listenPort int, debugAddr string) error {
	banner := color.New(color.FgCyan, color.Bold)
	banner.Printf("corofiberd %s starting: %d workers, echo on %s:%d, debug on %s\n",
		version, cfg.Fiber.Workers, listenAddr, listenPort, debugAddr)

	m, err := iomanager.New(cfg.Fiber.Workers, "corofiberd", cfg.Fiber.UseCaller)
	if err != nil {
		return fmt.Errorf("run: iomanager: %w", err)
	}
	m.SetExceptionLogger(log)
	m.SetStackSize(cfg.Fiber.StackSize)
	m.Start()
	defer m.Close()

	srv, err := tcpserver.Listen(m, log, listenAddr, listenPort)
	if err != nil {
		return fmt.Errorf("run: tcpserver: %w", err)
	}
	srv.Start()
	defer srv.Close()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("run: zap: %w", err)
	}
	defer zapLogger.Sync()
	dbg := debugserver.New(debugAddr, m, zapLogger)

	errCh := make(chan error, 1)
	go func() { errCh <- dbg.Start() }()

	select {
	case <-ctx.Done():
		log.Infow("shutdown signal received, stopping")
		return dbg.Stop()
	case err := <-errCh:
		return err
	}
}
