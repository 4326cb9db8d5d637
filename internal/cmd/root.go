package cmd

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/distkit/distkit/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "distkit",
	Short: "Offline distribution package toolkit",
	Long: `distkit assembles self-contained, offline-installable application
packages and verifies them end to end.

A package carries its own language runtime, the installed application,
generated launchers, and an optional tier of prefetched components, so the
result runs on an air-gapped machine with no network access.`,

	SilenceUsage:  true,
	SilenceErrors: true,
}

var rootVerbose bool

// ExecuteContext runs the root command with the given context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v",
		envBool("DISTKIT_VERBOSE"), "enable debug logging")

	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		if rootVerbose {
			log.SetDefaultLogger(log.Development())
		}
	}
}

// envString returns an environment default for a flag.
func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// envBool treats any truthy value ("1", "true", "yes") as set.
func envBool(key string) bool {
	value := os.Getenv(key)
	if value == "" {
		return false
	}
	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed
	}
	return value == "yes"
}
