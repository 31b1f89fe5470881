package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vtr/internal/cli"
	"vtr/internal/command"
	"vtr/internal/config"
	"vtr/internal/discovery"
	"vtr/internal/execution"
	"vtr/internal/parser"
	"vtr/internal/storage"
	"vtr/internal/ui"
)

// ExitError carries the test runner's exit status out of a command
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("test runner exited with code %d", e.Code)
}

// project locates the project root for a command and loads its configuration
type project struct {
	config  *config.Config
	locator *discovery.Locator
	logger  *zap.Logger
}

// prepare resolves the root from start (cwd when empty) and layers the
// project's config on top of the defaults
func (p *project) prepare(start string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		start = wd
	}

	root, err := p.locator.Locate(start)
	if err != nil {
		return "", err
	}
	if err := p.config.LoadProject(root); err != nil {
		return "", fmt.Errorf("load project config: %w", err)
	}

	p.logger.Debug("project located", zap.String("root", root), zap.String("from", start))
	return root, nil
}

// notFound reports the lookup failures that are not tool errors and swallows them
func notFound(formatter *ui.Formatter, err error) error {
	switch {
	case errors.Is(err, discovery.ErrRootNotFound):
		formatter.Info("No %s found above the current location", config.DefaultManifestFile)
	case errors.Is(err, discovery.ErrNoDeclaration):
		formatter.Info("No test declaration found above the given position")
	case errors.Is(err, execution.ErrNoLastCommand):
		formatter.Info("No previous test command to rerun")
	default:
		return err
	}
	return nil
}

// Commands holds all CLI commands
type Commands struct {
	Run    *RunCommand
	Rerun  *RerunCommand
	List   *ListCommand
	Errors *ErrorsCommand
	Watch  *WatchCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config, logger *zap.Logger) *Commands {
	// Initialize dependencies
	locator := discovery.NewLocator(cfg.ManifestFile)
	proj := &project{config: cfg, locator: locator, logger: logger}
	filter := discovery.NewFilter()
	units := discovery.NewParser()
	builder := command.NewBuilder(cfg, locator)
	vitestParser := parser.NewVitestParser()
	runner := execution.NewRunner(cfg, logger)
	jsonStorage := storage.NewJSONStorage(cfg)
	session := execution.NewSession(jsonStorage, logger)
	orchestrator := execution.NewOrchestrator(cfg, builder, units, vitestParser, runner, session, logger)
	formatter := ui.NewFormatter(cfg)
	errorViewer := ui.NewErrorViewer(cfg, jsonStorage, logger)

	return &Commands{
		Run:    NewRunCommand(cfg, proj, units, orchestrator, formatter),
		Rerun:  NewRerunCommand(proj, orchestrator, formatter),
		List:   NewListCommand(cfg, proj, filter, units, jsonStorage, formatter, logger),
		Errors: NewErrorsCommand(cfg, proj, jsonStorage, formatter, errorViewer),
		Watch:  NewWatchCommand(cfg, proj, orchestrator, formatter, logger),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	// Update config with flags after parsing
	syncFlags := func(cmd *cobra.Command, args []string) error {
		cfg.Flags = flags.ToConfigFlags()
		return nil
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.Debug, "debug", "d", false, "Run under the debugger (appends the debug runner options)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringArrayVar(&flags.NpxOptions, "npx-option", nil, "Option passed to npx (repeatable, replaces the configured list)")
	rootCmd.PersistentFlags().StringArrayVar(&flags.RunnerOptions, "runner-option", nil, "Option passed to the test runner (repeatable, replaces the configured list)")
	rootCmd.PersistentFlags().StringVar(&flags.Template, "template", "", "Command template with three %s placeholders: npx options, runner options, target")

	// File command
	fileCmd := &cobra.Command{
		Use:     "file <path>",
		Short:   "Run the tests in a file",
		Long:    "Run the test runner on a single file from its project root",
		Args:    cobra.ExactArgs(1),
		RunE:    c.Run.ExecuteFile,
		PreRunE: syncFlags,
	}
	rootCmd.AddCommand(fileCmd)

	// All command
	allCmd := &cobra.Command{
		Use:     "all",
		Short:   "Run the whole test suite",
		Long:    "Run the test runner without a target from the project root",
		Args:    cobra.NoArgs,
		RunE:    c.Run.ExecuteAll,
		PreRunE: syncFlags,
	}
	rootCmd.AddCommand(allCmd)

	// Unit command
	unitCmd := &cobra.Command{
		Use:     "unit <path>",
		Short:   "Run the test enclosing a position",
		Long:    "Find the nearest it/test/describe declaration above a line or offset and run only that test",
		Args:    cobra.ExactArgs(1),
		RunE:    c.Run.ExecuteUnit,
		PreRunE: syncFlags,
	}
	unitCmd.Flags().IntVarP(&flags.Line, "line", "l", 0, "1-based line of the cursor")
	unitCmd.Flags().IntVarP(&flags.Offset, "offset", "o", -1, "0-based byte offset of the cursor")
	unitCmd.MarkFlagsOneRequired("line", "offset")
	unitCmd.MarkFlagsMutuallyExclusive("line", "offset")
	rootCmd.AddCommand(unitCmd)

	// Rerun command
	rerunCmd := &cobra.Command{
		Use:     "rerun",
		Short:   "Run the last test command again",
		Long:    "Re-execute the last recorded command unchanged, in the directory it ran in",
		Args:    cobra.NoArgs,
		RunE:    c.Rerun.Execute,
		PreRunE: syncFlags,
	}
	rootCmd.AddCommand(rerunCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List discovered test files",
		Long:    "Scan the project for *.test.* and *.spec.* files without executing them",
		Args:    cobra.NoArgs,
		RunE:    c.List.Execute,
		PreRunE: syncFlags,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter test files by name pattern (supports wildcards, e.g. '*button*' or '*.spec.ts')")
	listCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where test discovery should start")
	listCmd.Flags().BoolVarP(&flags.Units, "units", "u", false, "Also list the it/test/describe declarations of each file")
	rootCmd.AddCommand(listCmd)

	// Errors command
	errorsCmd := &cobra.Command{
		Use:     "errors",
		Short:   "View error locations of the last run",
		Long:    "Browse the file:line:column locations reported by the last run and open them in $EDITOR",
		Args:    cobra.NoArgs,
		RunE:    c.Errors.Execute,
		PreRunE: syncFlags,
	}
	errorsCmd.Flags().BoolVar(&flags.Plain, "plain", false, "Print file:line:col lines instead of opening the viewer")
	rootCmd.AddCommand(errorsCmd)

	// Watch command
	watchCmd := &cobra.Command{
		Use:     "watch",
		Short:   "Rerun the last command on file changes",
		Long:    "Watch the project tree and rerun the last test command whenever files change",
		Args:    cobra.NoArgs,
		RunE:    c.Watch.Execute,
		PreRunE: syncFlags,
	}
	rootCmd.AddCommand(watchCmd)
}
