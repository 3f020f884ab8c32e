package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/offlinify/internal/document"
	"github.com/nao1215/offlinify/internal/model"
	"github.com/nao1215/offlinify/internal/resource"
)

// Job carries one document through the steps. Nothing outside a Job is
// mutated by a step, so two jobs never interfere.
type Job struct {
	// Doc is rewritten in place.
	Doc *document.Document

	// Cache is fresh for every document.
	Cache *resource.Cache

	// Report receives the counters and the performed step names.
	Report *model.DocumentReport

	// Logger already carries the document path.
	Logger *slog.Logger
}

// Step is one pass over a document tree.
//
// Design decision: Steps are values with a Name rather than bare functions,
// because the report lists performed passes by name.
type Step interface {
	// Do rewrites job.Doc. An error aborts the document. Download failures
	// never surface here; the cache turns them into placeholders.
	Do(ctx context.Context, job *Job) error

	// Name identifies the step in logs and reports.
	Name() string
}

// Pipeline runs a fixed list of steps against a Job.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// keepGoing runs the remaining steps after a failure.
	keepGoing bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for step diagnostics. Default is slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError runs every step even after one fails.
// Execute still reports the first failure.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.keepGoing = continueOnError
	}
}

// New returns an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in the given order.
func (p *Pipeline) AddSteps(steps ...Step) {
	for _, s := range steps {
		p.AddStep(s)
	}
}

// Execute applies the steps to job in order and appends the name of every
// step that succeeded to job.Report.PerformedSteps.
//
// ctx is checked between steps only; a running step watches ctx itself.
// Step errors are wrapped with the step name.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	var first error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("document processing cancelled",
				"document", job.Report.Source,
				"before_step", step.Name(),
			)
			return err
		}

		err := p.runStep(ctx, step, job)
		if err == nil {
			job.Report.PerformedSteps = append(job.Report.PerformedSteps, step.Name())
			continue
		}
		if first == nil {
			first = err
		}
		if !p.keepGoing {
			break
		}
	}
	return first
}

// runStep executes one step and logs its outcome.
func (p *Pipeline) runStep(ctx context.Context, step Step, job *Job) error {
	start := time.Now()
	err := step.Do(ctx, job)
	elapsed := time.Since(start)

	if err != nil {
		p.logger.Error("step failed",
			"step", step.Name(),
			"document", job.Report.Source,
			"error", err,
		)
		return fmt.Errorf("%s: %w", step.Name(), err)
	}

	p.logger.Debug("step done",
		"step", step.Name(),
		"document", job.Report.Source,
		"elapsed", elapsed,
	)
	return nil
}

// StepCount returns how many steps are registered.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames lists the registered steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
