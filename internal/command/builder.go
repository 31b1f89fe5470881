// Package command turns option lists and a target into a test runner invocation.
package command

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	"vtr/internal/config"
	"vtr/internal/discovery"
	"vtr/internal/domain"
)

// Builder builds commands from the configured template
type Builder struct {
	config  *config.Config
	locator *discovery.Locator
}

// NewBuilder creates a new Builder
func NewBuilder(cfg *config.Config, locator *discovery.Locator) *Builder {
	return &Builder{
		config:  cfg,
		locator: locator,
	}
}

// Build renders spec with the configured template. The command runs in the
// target's project root, or in dir when there is no target or no root above it.
func (b *Builder) Build(spec domain.CommandSpec, dir string) domain.Command {
	root := dir
	if spec.Target != "" {
		if r, err := b.locator.Locate(spec.Target); err == nil {
			root = r
		}
	}
	return Render(b.config.CommandTemplate, root, spec)
}

// Render substitutes the shell-quoted npx options, runner options and target
// into the three placeholders of template. An empty target stays empty and
// means the whole suite; any other target is made relative to root first.
// Render never fails.
func Render(template, root string, spec domain.CommandSpec) domain.Command {
	target := ""
	if spec.Target != "" {
		target = shellquote.Join(relativeTo(root, spec.Target))
	}

	line := fmt.Sprintf(template,
		shellquote.Join(spec.NpxOptions...),
		shellquote.Join(spec.RunnerOptions...),
		target,
	)

	return domain.Command{
		Dir:  root,
		Line: line,
		Args: SplitLine(line),
	}
}

// SplitLine splits a rendered command line into its argument vector. A line
// with unbalanced quotes (possible with a user template) falls back to
// whitespace splitting.
func SplitLine(line string) []string {
	args, err := shellquote.Split(line)
	if err != nil {
		return strings.Fields(line)
	}
	return args
}

func relativeTo(root, target string) string {
	if root == "" {
		return target
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return target
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return target
	}
	return rel
}
