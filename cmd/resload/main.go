package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type globalFlags struct {
	logLevel string
	envFile  string
}

func main() {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:   "resload",
		Short: "Load and package game resources",
		Long: `resload drives the asynchronous resource loader from the command line.

  • fetch resources from a directory, kar archive, S3, MinIO or Redis
  • optionally through a content cache (ristretto, bigcache, redis)
  • pack directories into kar archives and inspect them`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file read before the environment")

	rootCmd.AddCommand(
		fetchCmd(&g),
		karCmd(&g),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// newLogger builds a console zap logger at level writing to stderr.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
