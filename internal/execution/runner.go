package execution

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"vtr/internal/config"
	"vtr/internal/domain"
)

// ErrEmptyCommand is returned when a command has no arguments to execute
var ErrEmptyCommand = errors.New("empty command")

const maxLineSize = 1024 * 1024

// Runner executes test runner commands as child processes
type Runner struct {
	config *config.Config
	logger *zap.Logger
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	return &Runner{config: cfg, logger: logger}
}

// Run starts cmd in its directory with the project environment and feeds
// every line of combined stdout/stderr to onLine. A non-zero exit is reported
// in the result, not as an error.
func (r *Runner) Run(ctx context.Context, command domain.Command, onLine func(line string)) (domain.RunResult, error) {
	result := domain.RunResult{Command: command}
	if command.Empty() {
		return result, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, command.Args[0], command.Args[1:]...)
	cmd.Dir = command.Dir
	cmd.Env = append(os.Environ(), r.config.EnvList()...)
	cmd.WaitDelay = 2 * time.Second

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	r.logger.Debug("starting runner",
		zap.String("dir", command.Dir),
		zap.Strings("args", command.Args))

	start := time.Now()
	if err := cmd.Start(); err != nil {
		pw.Close()
		return result, fmt.Errorf("start %s: %w", command.Args[0], err)
	}

	var output strings.Builder
	scanned := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := scanner.Text()
			output.WriteString(line)
			output.WriteByte('\n')
			if onLine != nil {
				onLine(line)
			}
		}
		err := scanner.Err()
		// Keep draining so the child never blocks on a full pipe
		_, _ = io.Copy(io.Discard, pr)
		scanned <- err
	}()

	waitErr := cmd.Wait()
	pw.Close()
	scanErr := <-scanned

	result.Output = output.String()
	result.Duration = time.Since(start)

	if scanErr != nil {
		r.logger.Warn("output truncated", zap.Error(scanErr))
	}

	if ctx.Err() != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("run interrupted: %w", ctx.Err())
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		result.ExitCode = 0
	case errors.As(waitErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return result, fmt.Errorf("wait for %s: %w", command.Args[0], waitErr)
	}

	r.logger.Debug("runner finished",
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration))

	return result, nil
}
