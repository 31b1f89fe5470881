package ui

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/kballard/go-shellquote"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"vtr/internal/config"
	"vtr/internal/domain"
	"vtr/internal/storage"
)

const snippetContext = 3

// ErrorViewer displays the error locations of the last run in an interactive TUI
type ErrorViewer struct {
	config  *config.Config
	storage storage.Storage
	logger  *zap.Logger
}

// NewErrorViewer creates a new ErrorViewer
func NewErrorViewer(cfg *config.Config, st storage.Storage, logger *zap.Logger) *ErrorViewer {
	return &ErrorViewer{
		config:  cfg,
		storage: st,
		logger:  logger,
	}
}

// View displays the locations; o opens the selected one in $EDITOR
func (ev *ErrorViewer) View(run *domain.LastRun) error {
	if len(run.Locations) == 0 {
		color.Green("✓ No error locations in the last run!")
		return nil
	}

	root := run.Command.Dir
	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	getListItemText := func(index int) string {
		loc := run.Locations[index]
		label := tview.Escape(fmt.Sprintf("%s:%d:%d", displayPath(root, loc.File), loc.Line, loc.Column))
		if loc.Resolved {
			return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s[white]", index+1, label)
		}
		return fmt.Sprintf("[yellow]%d.[white] %s", index+1, label)
	}

	for i := range run.Locations {
		list.AddItem(getListItemText(i), "", 0, nil)
	}

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	var saveErr error
	updateHeader := func() {
		if saveErr != nil {
			headerView.SetText(fmt.Sprintf(" [red]%s[white] ", tview.Escape(saveErr.Error())))
			return
		}
		headerView.SetText(fmt.Sprintf(
			" %s (%d locations, %d unresolved) | ↑↓ navigate, [yellow]O[white] open in editor, [yellow]R[white] mark resolved, → details, ← back, Ctrl+C exit ",
			tview.Escape(run.Command.Line), len(run.Locations), run.Unresolved()))
	}
	updateHeader()

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(run.Locations) {
			return
		}
		loc := run.Locations[index]
		statsView.SetText(formatLocationStats(loc, root))
		detailsView.SetText(formatLocationDetails(loc)).ScrollToBeginning()
	}

	openSelected := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(run.Locations) {
			return
		}
		args := EditorCommand(os.Getenv("VISUAL"), os.Getenv("EDITOR"), run.Locations[index])
		app.Suspend(func() {
			cmd := exec.Command(args[0], args[1:]...)
			cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
			if err := cmd.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "editor failed: %v\n", err)
			}
		})
	}

	toggleResolved := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(run.Locations) {
			return
		}
		saveErr = ev.ToggleResolved(run, index)
		list.SetItemText(index, getListItemText(index), "")
		updateHeader()
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'r', 'R':
				toggleResolved()
				return nil
			case 'o', 'O':
				openSelected()
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'o' || event.Rune() == 'O' {
				openSelected()
				return nil
			}
		}
		return event
	})

	list.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		updateDetails()
	})
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// ToggleResolved flips the resolved mark of the location at index and saves run.
// The mark stays flipped in memory when saving fails.
func (ev *ErrorViewer) ToggleResolved(run *domain.LastRun, index int) error {
	if index < 0 || index >= len(run.Locations) {
		return nil
	}
	run.Locations[index].Resolved = !run.Locations[index].Resolved
	if err := ev.storage.Save(run); err != nil {
		ev.logger.Error("could not save resolved mark",
			zap.String("location", run.Locations[index].String()),
			zap.Error(err))
		return fmt.Errorf("save resolved mark: %w", err)
	}
	return nil
}

// EditorCommand builds the argv that opens loc in the user's editor.
// VISUAL wins over EDITOR; vi is the fallback.
func EditorCommand(visual, editor string, loc domain.ErrorLocation) []string {
	spec := visual
	if spec == "" {
		spec = editor
	}
	args, err := shellquote.Split(spec)
	if err != nil || len(args) == 0 {
		args = []string{"vi"}
	}

	switch filepath.Base(args[0]) {
	case "code", "code-insiders", "cursor", "codium":
		return append(args, "--goto", loc.String())
	case "subl", "zed":
		return append(args, loc.String())
	default:
		return append(args, fmt.Sprintf("+%d", loc.Line), loc.File)
	}
}

// formatLocationStats formats the header above the details pane
func formatLocationStats(loc domain.ErrorLocation, root string) string {
	return fmt.Sprintf("[cyan]path:[white] [yellow]%s[white]  [cyan]line:[white] %d  [cyan]column:[white] %d\n",
		tview.Escape(displayPath(root, loc.File)), loc.Line, loc.Column)
}

// formatLocationDetails formats the reported output line and the source around the location
func formatLocationDetails(loc domain.ErrorLocation) string {
	var builder strings.Builder

	if loc.Text != "" {
		fmt.Fprintf(&builder, "[yellow]Reported:[white]\n  %s\n\n", tview.Escape(loc.Text))
	}

	snippet, err := SourceSnippet(loc.File, loc.Line, loc.Column, snippetContext)
	if err != nil {
		fmt.Fprintf(&builder, "[red]%s[white]\n", tview.Escape(err.Error()))
		return builder.String()
	}
	fmt.Fprintf(&builder, "[yellow]Source:[white]\n%s", snippet)
	return builder.String()
}

// SourceSnippet renders the lines around line with a caret under column,
// using tview colour tags. Source text is escaped.
func SourceSnippet(path string, line, column, context int) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer file.Close()

	first, last := max(1, line-context), line+context
	width := len(fmt.Sprint(last))

	var builder strings.Builder
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for n := 1; scanner.Scan() && n <= last; n++ {
		if n < first {
			continue
		}
		text := strings.ReplaceAll(scanner.Text(), "\t", "    ")
		if n == line {
			fmt.Fprintf(&builder, "[red]> %*d |[white] %s\n", width, n, tview.Escape(text))
			if column > 0 {
				fmt.Fprintf(&builder, "  %s | [red]%s^[white]\n", strings.Repeat(" ", width), strings.Repeat(" ", caretOffset(scanner.Text(), column)))
			}
			continue
		}
		fmt.Fprintf(&builder, "[gray]  %*d |[white] %s\n", width, n, tview.Escape(text))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return builder.String(), nil
}

// caretOffset converts a 1-based column into the display offset of the
// tab-expanded line
func caretOffset(line string, column int) int {
	offset := 0
	for i, r := range line {
		if i >= column-1 {
			break
		}
		if r == '\t' {
			offset += 4
		} else {
			offset++
		}
	}
	return offset
}
