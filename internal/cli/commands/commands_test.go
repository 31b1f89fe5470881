package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vtr/internal/cli"
	"vtr/internal/config"
	"vtr/internal/discovery"
	"vtr/internal/domain"
	"vtr/internal/execution"
	"vtr/internal/ui"
)

func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	// macOS temp dirs sit behind a symlink
	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	return resolved
}

func newRoot(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{Use: "vtr", SilenceErrors: true, SilenceUsage: true}
	var flags cli.Flags
	NewCommands(cfg, zap.NewNop()).Register(rootCmd, &flags, cfg)
	return rootCmd
}

func TestNotFound(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name     string
		err      error
		wantErr  bool
		expected string
	}{
		{"root", discovery.ErrRootNotFound, false, "No package.json found above the current location\n"},
		{"declaration", fmt.Errorf("locate: %w", discovery.ErrNoDeclaration), false, "No test declaration found above the given position\n"},
		{"last command", execution.ErrNoLastCommand, false, "No previous test command to rerun\n"},
		{"other", errors.New("boom"), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter := ui.NewFormatter(config.New())
			formatter.SetOutput(&buf)

			err := notFound(formatter, tt.err)
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 3}
	wrapped := fmt.Errorf("run: %w", err)

	var exitErr *ExitError
	require.True(t, errors.As(wrapped, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "test runner exited with code 3", err.Error())
}

func TestProjectPrepare(t *testing.T) {
	root := newProject(t, map[string]string{
		"package.json":        "{}",
		".vtr.yaml":           "runner_options: [--reporter, dot]\n",
		"src/a/b.test.ts":     "it('x', () => {})\n",
		"packages/x/keep.txt": "",
	})

	cfg := config.New()
	proj := &project{config: cfg, locator: discovery.NewLocator(cfg.ManifestFile), logger: zap.NewNop()}

	got, err := proj.prepare(filepath.Join(root, "src", "a", "b.test.ts"))
	require.NoError(t, err)
	assert.Equal(t, root, got)
	assert.Equal(t, root, cfg.ProjectPath)
	assert.Equal(t, []string{"--reporter", "dot"}, cfg.RunnerOptions)

	t.Run("working directory", func(t *testing.T) {
		chdir(t, filepath.Join(root, "packages", "x"))
		got, err := proj.prepare("")
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("no manifest", func(t *testing.T) {
		_, err := proj.prepare(t.TempDir())
		assert.ErrorIs(t, err, discovery.ErrRootNotFound)
	})
}

func TestRegister(t *testing.T) {
	rootCmd := newRoot(config.New())

	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"file", "all", "unit", "rerun", "list", "errors", "watch"}, names)

	for _, flag := range []string{"debug", "verbose", "npx-option", "runner-option", "template"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestUnitRequiresPosition(t *testing.T) {
	rootCmd := newRoot(config.New())

	rootCmd.SetArgs([]string{"unit", "a.test.ts"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line")

	rootCmd = newRoot(config.New())
	rootCmd.SetArgs([]string{"unit", "a.test.ts", "--line", "2", "--offset", "10"})
	assert.Error(t, rootCmd.Execute())

	for _, line := range []string{"0", "-3"} {
		rootCmd = newRoot(config.New())
		rootCmd.SetArgs([]string{"unit", "a.test.ts", "--line", line})
		err := rootCmd.Execute()
		require.Error(t, err, "line %s", line)
		assert.Contains(t, err.Error(), "lines start at 1")
	}
}

func TestCommandsReportNotFound(t *testing.T) {
	color.NoColor = true

	t.Run("rerun without history", func(t *testing.T) {
		chdir(t, newProject(t, map[string]string{"package.json": "{}"}))
		rootCmd := newRoot(config.New())
		rootCmd.SetArgs([]string{"rerun"})
		assert.NoError(t, rootCmd.Execute())
	})

	t.Run("errors without history", func(t *testing.T) {
		chdir(t, newProject(t, map[string]string{"package.json": "{}"}))
		rootCmd := newRoot(config.New())
		rootCmd.SetArgs([]string{"errors", "--plain"})
		assert.NoError(t, rootCmd.Execute())
	})

	t.Run("outside a project", func(t *testing.T) {
		chdir(t, t.TempDir())
		rootCmd := newRoot(config.New())
		rootCmd.SetArgs([]string{"all"})
		assert.NoError(t, rootCmd.Execute())
	})
}

func TestListCommand(t *testing.T) {
	color.NoColor = true
	root := newProject(t, map[string]string{
		"package.json":                   "{}",
		"src/button.test.ts":             "describe('Button', () => {\n  it('renders', () => {})\n})\n",
		"src/util.spec.js":               "test('adds', () => {})\n",
		"node_modules/dep/index.test.js": "it('skipped', () => {})\n",
	})
	chdir(t, root)

	cfg := config.New()
	proj := &project{config: cfg, locator: discovery.NewLocator(cfg.ManifestFile), logger: zap.NewNop()}
	lc := NewListCommand(cfg, proj, discovery.NewFilter(), discovery.NewParser(), nil, ui.NewFormatter(cfg), zap.NewNop())

	var buf bytes.Buffer
	lc.formatter.SetOutput(&buf)
	lc.storage = emptyStorage{}
	cfg.Flags = config.Flags{Units: true, NameFilter: "*button*"}

	require.NoError(t, lc.Execute(&cobra.Command{}, nil))
	out := buf.String()
	assert.Contains(t, out, "Found 1 test file(s) with 2 declaration(s)")
	assert.Contains(t, out, filepath.Join("src", "button.test.ts"))
	assert.Contains(t, out, "renders")
	assert.NotContains(t, out, "util.spec.js")
	assert.NotContains(t, out, "skipped")
}

type emptyStorage struct{}

func (emptyStorage) Save(*domain.LastRun) error { return nil }

func (emptyStorage) Load() (*domain.LastRun, error) {
	return nil, fmt.Errorf("read last run: %w", os.ErrNotExist)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and PWD for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(oldwd, dir)
	}
	t.Setenv("PWD", dir)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			panic("testing: failed to restore working directory: " + err.Error())
		}
	})
}
