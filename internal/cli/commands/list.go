package commands

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vtr/internal/config"
	"vtr/internal/discovery"
	"vtr/internal/domain"
	"vtr/internal/storage"
	"vtr/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	project   *project
	filter    *discovery.Filter
	parser    *discovery.Parser
	storage   storage.Storage
	formatter *ui.Formatter
	logger    *zap.Logger
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	proj *project,
	filter *discovery.Filter,
	parser *discovery.Parser,
	st storage.Storage,
	formatter *ui.Formatter,
	logger *zap.Logger,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		project:   proj,
		filter:    filter,
		parser:    parser,
		storage:   st,
		formatter: formatter,
		logger:    logger,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	root, err := lc.project.prepare("")
	if err != nil {
		return notFound(lc.formatter, err)
	}

	// The skip list may come from the project config, so the scanner is built after loading it
	scanner := discovery.NewScanner(lc.config.PathsToIgnore)
	paths, err := scanner.Scan(lc.config.GetTestPath())
	if err != nil {
		return err
	}

	// Filter tests
	paths = lc.filter.FilterByName(paths, lc.config.Flags.NameFilter)

	if len(paths) == 0 {
		lc.formatter.Info("No tests found")
		return nil
	}

	files := make([]domain.TestFile, len(paths))
	for i, path := range paths {
		files[i] = domain.TestFile{Path: path, RelPath: relPath(root, path)}
	}

	if lc.config.Flags.Units {
		if err := lc.parseAll(files); err != nil {
			return err
		}
	}

	lc.formatter.PrintTestList(files, lc.config.Flags.Units, lc.failedFiles())
	return nil
}

// parseAll fills in the declarations of every file, a bounded number at a time
func (lc *ListCommand) parseAll(files []domain.TestFile) error {
	progressBar := ui.NewProgressBar(len(files))
	defer progressBar.Finish()

	var (
		mu           sync.Mutex
		parsed       int
		declarations int
	)

	var g errgroup.Group
	g.SetLimit(lc.config.ParseWorkers)
	for i := range files {
		i := i
		g.Go(func() error {
			decls, err := lc.parser.FindDeclarations(files[i].Path)
			if err != nil {
				return err
			}
			files[i].Declarations = decls

			mu.Lock()
			parsed++
			declarations += len(decls)
			progressBar.Update(parsed, declarations)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// failedFiles returns the files with error locations in the last run
func (lc *ListCommand) failedFiles() map[string]struct{} {
	failed := make(map[string]struct{})
	run, err := lc.storage.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			lc.logger.Warn("could not load last run", zap.Error(err))
		}
		return failed
	}
	for _, loc := range run.Locations {
		if !loc.Resolved {
			failed[loc.File] = struct{}{}
		}
	}
	return failed
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
