package fsl

import (
	"context"
	"fmt"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/executor"
)

// Runner executes an external command and returns its stdout.
// It exists so that the toolkit and its callers can be tested without a
// toolkit installation; the production implementation is ExecRunner.
type Runner interface {
	// Run executes name with args in dir (empty dir means the current
	// directory) and returns trimmed stdout. A non-zero exit status is
	// an error carrying the command's stderr.
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands through the catalyst-forge executor with a
// fixed set of extra environment variables appended to the process
// environment.
type ExecRunner struct {
	// Env is appended to the inherited environment for every command.
	// The toolkit uses this to pin FSLDIR and FSLOUTPUTTYPE.
	Env map[string]string
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	opts := []executor.Option{
		executor.WithCapture(true, true, false),
	}
	if dir != "" {
		opts = append(opts, executor.WithWorkingDir(dir))
	}
	if len(r.Env) > 0 {
		opts = append(opts, executor.WithEnv(r.Env))
	}

	result, err := executor.New(name, args...).Execute(ctx, opts...)
	if err != nil {
		detail := ""
		if result != nil && strings.TrimSpace(result.Stderr) != "" {
			detail = ": " + strings.TrimSpace(result.Stderr)
		}
		return "", fmt.Errorf("%s failed%s: %w", name, detail, err)
	}
	return strings.TrimSpace(result.Stdout), nil
}
