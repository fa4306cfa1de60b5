package main

import (
	"fmt"
	"os"

	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "dev"
)

// envPrefix is the prefix cobrautil derives env var names from for every
// flag on every command (e.g. --listen-addr becomes COROFIBERD_LISTEN_ADDR),
// independent of the YAML+AutomaticEnv binding internal/config does for
// Configuration itself.
const envPrefix = "corofiberd"

func main() {
	rootCmd := &cobra.Command{
		Use:               "corofiberd",
		Short:             "corofiberd - a coroutine-scheduled network server core",
		Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
		PersistentPreRunE: cobrautil.SyncViperPreRunE(envPrefix),
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
