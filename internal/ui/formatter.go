package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"vtr/internal/config"
	"vtr/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to the colour-aware stdout
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{
		config: cfg,
		out:    color.Output,
	}
}

// SetOutput redirects the formatter's output
func (f *Formatter) SetOutput(out io.Writer) {
	f.out = out
}

// Info prints an informational message, used for "not found" outcomes
func (f *Formatter) Info(format string, args ...any) {
	fmt.Fprintln(f.out, color.YellowString(format, args...))
}

// PrintCommand echoes the command about to run
func (f *Formatter) PrintCommand(cmd domain.Command) {
	fmt.Fprintf(f.out, "%s %s\n", color.CyanString("›"), cmd.Line)
	fmt.Fprintf(f.out, "  %s %s\n\n", color.WhiteString("in"), cmd.Dir)
}

// PrintRunSummary prints the statistics of a finished run
func (f *Formatter) PrintRunSummary(run *domain.LastRun) {
	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, "┌─────────────────────┬─────────────────────────────────────────┐")
	f.row("Exit Code", fmt.Sprint(run.ExitCode), run.ExitCode == 0)
	f.row("Passed Tests", fmt.Sprint(run.PassedTests), true)
	f.row("Failed Tests", fmt.Sprint(run.FailedTests), run.FailedTests == 0)
	f.row("Error Locations", fmt.Sprint(len(run.Locations)), len(run.Locations) == 0)
	f.row("Duration", fmt.Sprintf("%.2fs", run.DurationSeconds), true)
	fmt.Fprintln(f.out, "└─────────────────────┴─────────────────────────────────────────┘")

	fmt.Fprintln(f.out)
	if run.ExitCode == 0 {
		fmt.Fprintln(f.out, color.GreenString("✓ All tests passed!"))
		return
	}

	fmt.Fprintln(f.out, color.RedString("✗ %d test(s) failed, exit code %d", run.FailedTests, run.ExitCode))
	if len(run.Locations) > 0 {
		fmt.Fprintln(f.out)
		f.printLocationTree(run.Locations, run.Command.Dir)
		fmt.Fprintln(f.out)
		fmt.Fprintln(f.out, color.WhiteString("Run `vtr errors` to browse them."))
	}
}

func (f *Formatter) row(label, value string, ok bool) {
	paint := color.RedString
	if ok {
		paint = color.WhiteString
	}
	fmt.Fprintf(f.out, "│ %-19s │ %s │\n", label, paint("%-39s", value))
}

// printLocationTree groups locations by file, relative to root
func (f *Formatter) printLocationTree(locations []domain.ErrorLocation, root string) {
	byFile := make(map[string][]domain.ErrorLocation)
	var files []string
	for _, loc := range locations {
		if _, ok := byFile[loc.File]; !ok {
			files = append(files, loc.File)
		}
		byFile[loc.File] = append(byFile[loc.File], loc)
	}
	sort.Strings(files)

	for i, file := range files {
		lastFile := i == len(files)-1
		branch, indent := "├── ", "│   "
		if lastFile {
			branch, indent = "└── ", "    "
		}
		fmt.Fprintln(f.out, color.YellowString("%s%s", branch, displayPath(root, file)))

		locs := byFile[file]
		for j, loc := range locs {
			leaf := "├── "
			if j == len(locs)-1 {
				leaf = "└── "
			}
			fmt.Fprintf(f.out, "%s%s%s\n", indent, leaf, color.RedString("%d:%d", loc.Line, loc.Column))
		}
	}
}

// PrintLocations prints one file:line:col per location, the format editors
// and compilation buffers recognise
func (f *Formatter) PrintLocations(locations []domain.ErrorLocation) {
	for _, loc := range locations {
		if loc.Text != "" {
			fmt.Fprintf(f.out, "%s: %s\n", loc.String(), loc.Text)
		} else {
			fmt.Fprintln(f.out, loc.String())
		}
	}
}

// PrintTestList prints the discovered test files, optionally with their
// declarations. Files in failed (absolute paths) are marked with [F].
func (f *Formatter) PrintTestList(files []domain.TestFile, showUnits bool, failed map[string]struct{}) {
	if showUnits {
		total := 0
		for _, file := range files {
			total += len(file.Declarations)
		}
		fmt.Fprintln(f.out, color.GreenString("Found %d test file(s) with %d declaration(s):\n", len(files), total))
	} else {
		fmt.Fprintln(f.out, color.GreenString("Found %d test file(s):\n", len(files)))
	}

	for i, file := range files {
		lastFile := i == len(files)-1

		failMarker := ""
		if _, ok := failed[file.Path]; ok {
			failMarker = " " + color.RedString("[F]")
		}

		if lastFile {
			fmt.Fprintln(f.out, color.CyanString("└── %s", file.RelPath)+failMarker)
		} else {
			fmt.Fprintln(f.out, color.CyanString("├── %s", file.RelPath)+failMarker)
		}

		if !showUnits {
			continue
		}

		prefix := "│   "
		if lastFile {
			prefix = "    "
		}
		if len(file.Declarations) == 0 {
			fmt.Fprintf(f.out, "%s└── %s\n", prefix, color.RedString("(no declarations found)"))
		}
		for j, decl := range file.Declarations {
			leaf := "├── "
			if j == len(file.Declarations)-1 {
				leaf = "└── "
			}
			kind := string(decl.Kind)
			if decl.Modifier != "" {
				kind += "." + decl.Modifier
			}
			fmt.Fprintf(f.out, "%s%s%s %s %s\n", prefix, leaf,
				color.WhiteString("%4d", decl.Line), color.MagentaString(kind), color.YellowString("%s", decl.Name))
		}

		if !lastFile {
			fmt.Fprintln(f.out, "│")
		}
	}
}

// displayPath shortens path to be relative to root when it lies below it
func displayPath(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
