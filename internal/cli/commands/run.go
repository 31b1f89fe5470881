package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vtr/internal/config"
	"vtr/internal/discovery"
	"vtr/internal/domain"
	"vtr/internal/execution"
	"vtr/internal/ui"
)

// RunCommand handles the file, all and unit commands
type RunCommand struct {
	config       *config.Config
	project      *project
	units        *discovery.Parser
	orchestrator *execution.Orchestrator
	formatter    *ui.Formatter
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	proj *project,
	units *discovery.Parser,
	orchestrator *execution.Orchestrator,
	formatter *ui.Formatter,
) *RunCommand {
	return &RunCommand{
		config:       cfg,
		project:      proj,
		units:        units,
		orchestrator: orchestrator,
		formatter:    formatter,
	}
}

// ExecuteFile runs the tests of the file given as the first argument
func (rc *RunCommand) ExecuteFile(cmd *cobra.Command, args []string) error {
	if _, err := rc.project.prepare(args[0]); err != nil {
		return notFound(rc.formatter, err)
	}

	stream(rc.orchestrator, rc.formatter, cmd)
	run, err := rc.orchestrator.RunFile(cmd.Context(), args[0], rc.config.Flags.Debug)
	return rc.report(run, err)
}

// ExecuteAll runs the whole suite of the project containing the working directory
func (rc *RunCommand) ExecuteAll(cmd *cobra.Command, args []string) error {
	if _, err := rc.project.prepare(""); err != nil {
		return notFound(rc.formatter, err)
	}

	stream(rc.orchestrator, rc.formatter, cmd)
	run, err := rc.orchestrator.RunAll(cmd.Context(), rc.config.Flags.Debug)
	return rc.report(run, err)
}

// ExecuteUnit runs the test declared nearest above --line or --offset
func (rc *RunCommand) ExecuteUnit(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("line") && rc.config.Flags.Line < 1 {
		return fmt.Errorf("invalid --line %d: lines start at 1", rc.config.Flags.Line)
	}

	file := args[0]
	if _, err := rc.project.prepare(file); err != nil {
		return notFound(rc.formatter, err)
	}

	offset := rc.config.Flags.Offset
	if rc.config.Flags.Line > 0 {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		offset = discovery.OffsetForLine(string(content), rc.config.Flags.Line)
	}

	stream(rc.orchestrator, rc.formatter, cmd)
	run, err := rc.orchestrator.RunUnit(cmd.Context(), file, offset, rc.config.Flags.Debug)
	return rc.report(run, err)
}

func (rc *RunCommand) report(run *domain.LastRun, err error) error {
	if err != nil {
		return notFound(rc.formatter, err)
	}
	return summarize(rc.formatter, run)
}

// stream echoes each command before it runs and forwards runner output to the command's stdout
func stream(orchestrator *execution.Orchestrator, formatter *ui.Formatter, cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	orchestrator.SetStarted(formatter.PrintCommand)
	orchestrator.SetOutput(func(line string) {
		fmt.Fprintln(out, line)
	})
}

// summarize prints the run summary and turns a failing runner exit into an ExitError
func summarize(formatter *ui.Formatter, run *domain.LastRun) error {
	formatter.PrintRunSummary(run)
	if run.ExitCode != 0 {
		return &ExitError{Code: run.ExitCode}
	}
	return nil
}
