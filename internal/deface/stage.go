package deface

import (
	"context"
	"errors"
	"log/slog"

	"github.com/reproneuro/deface/internal/data"
)

// Stage computes the obscuring mask for one image. It owns the fixed
// step sequence; callers own the Job and read its products afterwards.
type Stage struct {
	pipeline *Pipeline
}

// ErrNoSource is returned when a Job names no source image.
var ErrNoSource = errors.New("deface job has no source image")

// NewStage assembles the fixed pipeline over the given toolkit and
// template set.
func NewStage(tk Toolkit, templates data.Set, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	p := NewPipeline(WithLogger(logger))
	p.AddSteps(
		&reorientStep{tk: tk},
		&referenceStep{tk: tk},
		&extractStep{tk: tk},
		&subsampleStep{tk: tk},
		&registerStep{tk: tk, templates: templates},
		&projectStep{tk: tk, templates: templates},
		&nativeStep{tk: tk},
		&binarizeStep{tk: tk},
	)
	return &Stage{pipeline: p}
}

// Run executes the pipeline for job. On success job.Mask names the
// binary mask and job.Transform the template-to-image matrix.
func (s *Stage) Run(ctx context.Context, job *Job) error {
	if job.Source == "" {
		return ErrNoSource
	}
	return s.pipeline.Execute(ctx, job)
}
