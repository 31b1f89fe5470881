package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vtr/internal/cli"
	"vtr/internal/cli/commands"
	"vtr/internal/config"
)

var version = "dev"

func main() {
	// Diagnostics stay quiet unless --verbose is given
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := newLogger(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create root command
	rootCmd := &cobra.Command{
		Use:           "vtr",
		Short:         "Vitest runner wrapper",
		Long:          `Run Vitest on a file, a single test, or the whole suite from the nearest package.json, rerun the last command, and browse the error locations it reported.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.Verbose {
				level.SetLevel(zapcore.DebugLevel)
			}
			return nil
		},
	}

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg, logger)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, rootCmd, logger, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs rootCmd and maps its outcome to a process exit code. The
// logger is flushed on every path since os.Exit skips deferred calls.
func execute(ctx context.Context, rootCmd *cobra.Command, logger *zap.Logger, stderr io.Writer) int {
	err := rootCmd.ExecuteContext(ctx)
	_ = logger.Sync()

	var exitErr *commands.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = level
	zcfg.DisableStacktrace = true
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}
