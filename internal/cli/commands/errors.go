package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"vtr/internal/config"
	"vtr/internal/storage"
	"vtr/internal/ui"
)

// ErrorsCommand handles the errors command
type ErrorsCommand struct {
	config    *config.Config
	project   *project
	storage   storage.Storage
	formatter *ui.Formatter
	viewer    ui.Viewer
}

// NewErrorsCommand creates a new ErrorsCommand
func NewErrorsCommand(cfg *config.Config, proj *project, st storage.Storage, formatter *ui.Formatter, viewer ui.Viewer) *ErrorsCommand {
	return &ErrorsCommand{
		config:    cfg,
		project:   proj,
		storage:   st,
		formatter: formatter,
		viewer:    viewer,
	}
}

// Execute runs the command
func (ec *ErrorsCommand) Execute(cmd *cobra.Command, args []string) error {
	if _, err := ec.project.prepare(""); err != nil {
		return notFound(ec.formatter, err)
	}

	run, err := ec.storage.Load()
	if errors.Is(err, os.ErrNotExist) {
		ec.formatter.Info("No recorded test run yet")
		return nil
	}
	if err != nil {
		return err
	}

	if ec.config.Flags.Plain {
		if len(run.Locations) == 0 {
			ec.formatter.Info("No error locations in the last run")
			return nil
		}
		ec.formatter.PrintLocations(run.Locations)
		return nil
	}
	return ec.viewer.View(run)
}
