package compiler

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/saiuns/create-autofe-app/internal/errors"
)

// Options configures the exec-backed bundler compiler.
type Options struct {
	// ProjectDir is the root directory of the project.
	ProjectDir string

	// Command is the bundler executable to run.
	Command string

	// Args are extra arguments passed to the bundler.
	Args []string

	// Sources are the directories tracked for rebuilds in watch mode.
	Sources []string

	// Ignore contains patterns excluded from the source watch.
	Ignore []string

	// Debounce is the delay before a rebuild after a source change.
	Debounce time.Duration

	// Env are additional environment variables for the bundler process.
	Env []string
}

// DefaultIgnore contains default patterns excluded from the source watch.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"*.tmp",
	"*.swp",
	"*~",
}

// ExecCompiler drives an external bundler command: one run-to-completion
// per Run call, or a continuous rebuild loop in Watch mode.
type ExecCompiler struct {
	opts Options
}

// NewExec creates an exec-backed compiler.
func NewExec(opts Options) *ExecCompiler {
	if opts.Debounce == 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	if len(opts.Ignore) == 0 {
		opts.Ignore = DefaultIgnore
	}
	return &ExecCompiler{opts: opts}
}

// Run performs exactly one compile to completion and returns its stats.
// A failed compile returns E400 carrying the bundler output.
func (c *ExecCompiler) Run(ctx context.Context) (Stats, error) {
	if _, err := exec.LookPath(c.opts.Command); err != nil {
		return nil, errors.New(errors.CodeBundlerNotFound).
			WithDetailf("%q is not installed or not in PATH", c.opts.Command).
			Wrap(err)
	}

	start := time.Now()

	cmd := exec.CommandContext(ctx, c.opts.Command, c.opts.Args...)
	cmd.Dir = c.opts.ProjectDir
	cmd.Env = append(os.Environ(), c.opts.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start)

	output := stderr.String()
	if output == "" {
		output = stdout.String()
	}

	if err != nil {
		return nil, errors.New(errors.CodeCompileFailed).
			WithDetail(output).
			Wrap(err)
	}

	return &buildStats{output: output, duration: duration}, nil
}
