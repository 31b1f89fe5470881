package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"vtr/internal/domain"
)

// locationPattern matches the error lines the runner prints, such as
//
//	❯ src/sum.test.ts:12:7
//	at add (/repo/src/sum.ts:3:9)
//	at file:///repo/src/sum.ts:3:9
//
// Groups: 1 file, 2 line, 3 column.
var locationPattern = regexp.MustCompile(
	`^\s*(?:❯|›|>|at)\s+(?:[^()]*?\()?(?:file://)?((?:[A-Za-z]:)?[^\s():]+):(\d+):(\d+)\)?\s*$`,
)

var (
	summaryPattern = regexp.MustCompile(`(?m)^\s*Tests\s+(.*)$`)
	failedPattern  = regexp.MustCompile(`(\d+)\s+failed`)
	passedPattern  = regexp.MustCompile(`(\d+)\s+passed`)
)

// VitestParser parses vitest output
type VitestParser struct{}

// NewVitestParser creates a new VitestParser
func NewVitestParser() *VitestParser {
	return &VitestParser{}
}

// ParseLocations returns the error locations in output, in order of first
// appearance. Relative files are resolved against root. Frames from
// node_modules are skipped.
func (p *VitestParser) ParseLocations(output, root string) []domain.ErrorLocation {
	var locations []domain.ErrorLocation
	seen := make(map[string]bool)

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimRight(ansi.Strip(raw), "\r")
		loc, ok := p.ParseLine(line)
		if !ok {
			continue
		}
		if strings.Contains(filepath.ToSlash(loc.File), "/node_modules/") || strings.HasPrefix(loc.File, "node_modules/") {
			continue
		}
		if !filepath.IsAbs(loc.File) && root != "" {
			loc.File = filepath.Join(root, loc.File)
		}

		key := loc.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		locations = append(locations, loc)
	}

	return locations
}

// ParseLine matches a single, already uncoloured, output line
func (p *VitestParser) ParseLine(line string) (domain.ErrorLocation, bool) {
	m := locationPattern.FindStringSubmatch(line)
	if m == nil {
		return domain.ErrorLocation{}, false
	}
	lineNo, err := strconv.Atoi(m[2])
	if err != nil {
		return domain.ErrorLocation{}, false
	}
	col, err := strconv.Atoi(m[3])
	if err != nil {
		return domain.ErrorLocation{}, false
	}
	return domain.ErrorLocation{
		File:   m[1],
		Line:   lineNo,
		Column: col,
		Text:   strings.TrimSpace(line),
	}, true
}

// ParseCounts extracts passed and failed test counts from the run summary
// ("Tests  2 failed | 5 passed (7)"). Without a summary it falls back to one
// test, passed or failed by exit code.
func (p *VitestParser) ParseCounts(result domain.RunResult) (passed, failed int) {
	output := ansi.Strip(result.Output)

	matches := summaryPattern.FindAllStringSubmatch(output, -1)
	if len(matches) > 0 {
		// Watch-style output can repeat the summary; the last one is current
		summary := matches[len(matches)-1][1]
		if m := failedPattern.FindStringSubmatch(summary); m != nil {
			failed, _ = strconv.Atoi(m[1])
		}
		if m := passedPattern.FindStringSubmatch(summary); m != nil {
			passed, _ = strconv.Atoi(m[1])
		}
		if passed > 0 || failed > 0 {
			return passed, failed
		}
	}

	if result.Success() {
		return 1, 0
	}
	return 0, 1
}
