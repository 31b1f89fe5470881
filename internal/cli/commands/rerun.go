package commands

import (
	"github.com/spf13/cobra"

	"vtr/internal/execution"
	"vtr/internal/ui"
)

// RerunCommand handles the rerun command
type RerunCommand struct {
	project      *project
	orchestrator *execution.Orchestrator
	formatter    *ui.Formatter
}

// NewRerunCommand creates a new RerunCommand
func NewRerunCommand(proj *project, orchestrator *execution.Orchestrator, formatter *ui.Formatter) *RerunCommand {
	return &RerunCommand{
		project:      proj,
		orchestrator: orchestrator,
		formatter:    formatter,
	}
}

// Execute runs the command
func (rc *RerunCommand) Execute(cmd *cobra.Command, args []string) error {
	if _, err := rc.project.prepare(""); err != nil {
		return notFound(rc.formatter, err)
	}

	stream(rc.orchestrator, rc.formatter, cmd)
	run, err := rc.orchestrator.Rerun(cmd.Context())
	if err != nil {
		return notFound(rc.formatter, err)
	}
	return summarize(rc.formatter, run)
}
