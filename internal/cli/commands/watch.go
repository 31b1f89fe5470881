package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vtr/internal/config"
	"vtr/internal/discovery"
	"vtr/internal/execution"
	"vtr/internal/ui"
)

// WatchCommand handles the watch command
type WatchCommand struct {
	config       *config.Config
	project      *project
	orchestrator *execution.Orchestrator
	formatter    *ui.Formatter
	logger       *zap.Logger
}

// NewWatchCommand creates a new WatchCommand
func NewWatchCommand(
	cfg *config.Config,
	proj *project,
	orchestrator *execution.Orchestrator,
	formatter *ui.Formatter,
	logger *zap.Logger,
) *WatchCommand {
	return &WatchCommand{
		config:       cfg,
		project:      proj,
		orchestrator: orchestrator,
		formatter:    formatter,
		logger:       logger,
	}
}

// Execute runs the command until interrupted
func (wc *WatchCommand) Execute(cmd *cobra.Command, args []string) error {
	root, err := wc.project.prepare("")
	if err != nil {
		return notFound(wc.formatter, err)
	}

	stream(wc.orchestrator, wc.formatter, cmd)
	scanner := discovery.NewScanner(wc.config.PathsToIgnore)
	watcher := execution.NewWatcher(root, scanner, wc.config.WatchDebounce, wc.logger)

	wc.formatter.Info("Watching %s, press Ctrl+C to stop", root)
	return watcher.Watch(cmd.Context(), func(ctx context.Context) {
		run, err := wc.orchestrator.Rerun(ctx)
		switch {
		case err == nil:
			wc.formatter.PrintRunSummary(run)
		case ctx.Err() != nil:
			// interrupted mid-run
		default:
			if err := notFound(wc.formatter, err); err != nil {
				wc.logger.Error("rerun failed", zap.Error(err))
			}
		}
	})
}
