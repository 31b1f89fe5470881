package execution

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"vtr/internal/command"
	"vtr/internal/config"
	"vtr/internal/discovery"
	"vtr/internal/domain"
	"vtr/internal/parser"
)

// Orchestrator implements the run actions: file, all, unit at point and rerun
type Orchestrator struct {
	config  *config.Config
	builder *command.Builder
	units   *discovery.Parser
	parser  parser.Parser
	runner  ProcessRunner
	session *Session
	logger  *zap.Logger
	output  func(line string)
	started func(cmd domain.Command)
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	cfg *config.Config,
	builder *command.Builder,
	units *discovery.Parser,
	outputParser parser.Parser,
	runner ProcessRunner,
	session *Session,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:  cfg,
		builder: builder,
		units:   units,
		parser:  outputParser,
		runner:  runner,
		session: session,
		logger:  logger,
	}
}

// SetOutput sets where runner output lines are streamed
func (o *Orchestrator) SetOutput(output func(line string)) {
	o.output = output
}

// SetStarted sets a callback invoked with each command right before it runs
func (o *Orchestrator) SetStarted(started func(cmd domain.Command)) {
	o.started = started
}

// RunFile runs the tests in a single file
func (o *Orchestrator) RunFile(ctx context.Context, file string, debug bool) (*domain.LastRun, error) {
	target, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", file, err)
	}
	spec := domain.CommandSpec{
		NpxOptions:    o.config.NpxOptions,
		RunnerOptions: o.config.RunnerOptionsFor(debug),
		Target:        target,
	}
	return o.execute(ctx, spec, "", debug)
}

// RunAll runs the whole suite from the project root
func (o *Orchestrator) RunAll(ctx context.Context, debug bool) (*domain.LastRun, error) {
	spec := domain.CommandSpec{
		NpxOptions:    o.config.NpxOptions,
		RunnerOptions: o.config.RunnerOptionsFor(debug),
	}
	return o.execute(ctx, spec, "", debug)
}

// RunUnit runs the test declared nearest above offset in file, filtered by its name
func (o *Orchestrator) RunUnit(ctx context.Context, file string, offset int, debug bool) (*domain.LastRun, error) {
	target, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", file, err)
	}
	content, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	decl, err := o.units.LocateUnit(string(content), offset)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("located test unit",
		zap.String("kind", string(decl.Kind)),
		zap.String("name", decl.Name),
		zap.Int("line", decl.Line))

	opts := append(o.config.RunnerOptionsFor(debug), o.config.UnitFilterOption, decl.Name)
	spec := domain.CommandSpec{
		NpxOptions:    o.config.NpxOptions,
		RunnerOptions: opts,
		Target:        target,
	}
	return o.execute(ctx, spec, decl.Name, debug)
}

// Rerun runs the last recorded command again, unchanged
func (o *Orchestrator) Rerun(ctx context.Context) (*domain.LastRun, error) {
	last, err := o.session.Last()
	if err != nil {
		return nil, err
	}
	return o.run(ctx, &domain.LastRun{
		Command: last.Command,
		Target:  last.Target,
		Unit:    last.Unit,
		Debug:   last.Debug,
	})
}

func (o *Orchestrator) execute(ctx context.Context, spec domain.CommandSpec, unit string, debug bool) (*domain.LastRun, error) {
	cmd := o.builder.Build(spec, o.config.ProjectPath)
	return o.run(ctx, &domain.LastRun{
		Command: cmd,
		Target:  spec.Target,
		Unit:    unit,
		Debug:   debug,
	})
}

// run records the command before handing it to the runner, then records the outcome
func (o *Orchestrator) run(ctx context.Context, run *domain.LastRun) (*domain.LastRun, error) {
	run.Timestamp = time.Now().Format(time.RFC3339)
	if err := o.session.Record(run); err != nil {
		return nil, fmt.Errorf("record command: %w", err)
	}

	o.logger.Info("running tests", zap.String("command", run.Command.Line), zap.String("dir", run.Command.Dir))
	if o.started != nil {
		o.started(run.Command)
	}

	result, err := o.runner.Run(ctx, run.Command, o.output)
	if err != nil {
		return nil, err
	}

	finished := *run
	finished.Finished = true
	finished.ExitCode = result.ExitCode
	finished.Duration = result.Duration.Round(time.Millisecond).String()
	finished.DurationSeconds = result.Duration.Seconds()
	finished.PassedTests, finished.FailedTests = o.parser.ParseCounts(result)
	finished.Locations = o.parser.ParseLocations(result.Output, run.Command.Dir)

	if err := o.session.Record(&finished); err != nil {
		return nil, fmt.Errorf("record result: %w", err)
	}
	return &finished, nil
}
