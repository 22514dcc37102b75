package deface

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Step is one stage of the per-image mask pipeline. Steps run strictly
// in sequence and communicate through the Job they share.
//
// Design decision: an interface rather than function values because
// steps carry configuration state (toolkit handle, template paths,
// tunables) and a Name for diagnostics.
type Step interface {
	// Do executes the step, reading and writing Job fields.
	// Any error is fatal to the whole job; partially defaced output is
	// worse than no output, so there is no degraded mode here.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes steps in order, failing fast on the first error.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-step progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates an empty pipeline.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddSteps appends steps; they execute in insertion order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step against job. Cancellation is checked between
// steps; a running toolkit invocation is bounded by its own context.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", ctx.Err())
			return ctx.Err()
		default:
		}

		start := time.Now()
		p.logger.Debug("running step", "step", step.Name(), "source", job.Source)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "source", job.Source, "error", err)
			return fmt.Errorf("step %s: %w", step.Name(), err)
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	}
	return nil
}
