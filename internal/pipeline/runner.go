// Package pipeline executes style pipelines: it loads and bounds the input,
// applies each step of a style in order and encodes the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/stylizer/internal/imageio"
	"github.com/MeKo-Tech/stylizer/internal/raster"
	"github.com/MeKo-Tech/stylizer/internal/style"
)

// ErrUnknownStyle is returned when a style name cannot be resolved.
var ErrUnknownStyle = errors.New("unknown style")

// StageError reports a failing step. Index is the zero-based step position.
type StageError struct {
	Style string
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("style %s: stage %d (%s) failed: %v", e.Style, e.Index, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options configures a Runner.
type Options struct {
	// MaxDimension bounds the longer side of the working image; 0 uses imageio.DefaultMaxDimension.
	MaxDimension int
	// StageDir, when set, receives a PNG of the working buffer after every step.
	StageDir string
	// Registry resolves style names; nil uses style.Default().
	Registry *style.Registry
	Logger   *slog.Logger
}

// Runner is the generic style executor. It holds no per-run state and is safe
// for concurrent use.
type Runner struct {
	maxDimension int
	stageDir     string
	registry     *style.Registry
	logger       *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	maxDim := opts.MaxDimension
	if maxDim <= 0 {
		maxDim = imageio.DefaultMaxDimension
	}
	reg := opts.Registry
	if reg == nil {
		reg = style.Default()
	}
	return &Runner{
		maxDimension: maxDim,
		stageDir:     opts.StageDir,
		registry:     reg,
		logger:       opts.Logger,
	}
}

// StageTiming records how long one step took.
type StageTiming struct {
	Op      string
	Elapsed time.Duration
}

// Result describes a completed transform.
type Result struct {
	Style   string
	Input   string
	Output  string
	Width   int
	Height  int
	Elapsed time.Duration
	Stages  []StageTiming
}

// Lookup resolves a style name or label in the runner's registry.
func (r *Runner) Lookup(name string) (style.Style, error) {
	s, ok := r.registry.Lookup(name)
	if !ok {
		return style.Style{}, fmt.Errorf("%w %q (valid: %v)", ErrUnknownStyle, name, r.registry.Names())
	}
	return s, nil
}

// Registry returns the registry the runner resolves names against.
func (r *Runner) Registry() *style.Registry { return r.registry }

// RunNamed resolves name and runs it.
func (r *Runner) RunNamed(ctx context.Context, name, in, out string) (Result, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return Result{}, err
	}
	return r.Run(ctx, s, in, out)
}

// Run loads in, applies s and writes the result to out. Nothing is written
// unless every step succeeds.
func (r *Runner) Run(ctx context.Context, s style.Style, in, out string) (Result, error) {
	start := time.Now()
	res := Result{Style: s.Name, Input: in, Output: out}

	r.log().Debug("Loading input", "style", s.Name, "input", in)
	img, err := imageio.Load(in)
	if err != nil {
		return res, err
	}

	work, stages, err := r.Apply(ctx, s, img)
	res.Stages = stages
	if err != nil {
		return res, err
	}

	if err := imageio.Save(work, out); err != nil {
		return res, err
	}

	res.Width, res.Height = work.Width, work.Height
	res.Elapsed = time.Since(start)
	r.log().Info("Transform complete",
		"style", s.Name,
		"input", in,
		"output", out,
		"size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}

// Apply bounds img and runs every step of s over it, returning the final RGB buffer.
// The context is checked between steps.
func (r *Runner) Apply(ctx context.Context, s style.Style, img *raster.Image) (*raster.Image, []StageTiming, error) {
	bounded := imageio.ResizeBounded(img, r.maxDimension)
	if bounded != img {
		r.log().Debug("Resized input", "style", s.Name,
			"from", fmt.Sprintf("%dx%d", img.Width, img.Height),
			"to", fmt.Sprintf("%dx%d", bounded.Width, bounded.Height))
	}

	canvas := style.NewCanvas(bounded)
	stages := make([]StageTiming, 0, len(s.Steps))
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return nil, stages, &StageError{Style: s.Name, Stage: step.Op(), Index: i, Err: err}
		}

		t0 := time.Now()
		if err := step.Apply(canvas); err != nil {
			return nil, stages, &StageError{Style: s.Name, Stage: step.Op(), Index: i, Err: err}
		}
		elapsed := time.Since(t0)
		stages = append(stages, StageTiming{Op: step.Op(), Elapsed: elapsed})
		r.log().Debug("Stage complete", "style", s.Name, "stage", step.Op(), "index", i, "elapsed", elapsed.Round(time.Microsecond))

		if r.stageDir != "" {
			if err := r.captureStage(s.Name, i, step.Op(), canvas.Work); err != nil {
				r.log().Warn("Failed to capture stage", "style", s.Name, "stage", step.Op(), "error", err)
			}
		}
	}

	if canvas.Work.Space != raster.RGB || canvas.Work.Channels != 3 {
		return nil, stages, &StageError{
			Style: s.Name,
			Stage: "finalize",
			Index: len(s.Steps),
			Err:   fmt.Errorf("final buffer is %s with %d channels, want rgb", canvas.Work.Space, canvas.Work.Channels),
		}
	}
	return canvas.Work, stages, nil
}

// Transform runs the named style and reports success. Every failure is
// logged with its cause and turned into false.
func (r *Runner) Transform(name, in, out string) bool {
	_, err := r.RunNamed(context.Background(), name, in, out)
	if err != nil {
		attrs := []any{"style", name, "input", in, "output", out, "error", err}
		var se *StageError
		if errors.As(err, &se) {
			attrs = append(attrs, "stage", se.Stage)
		}
		r.log().Error("Transform failed", attrs...)
		return false
	}
	return true
}

func (r *Runner) captureStage(styleName string, index int, op string, img *raster.Image) error {
	dir := filepath.Join(r.stageDir, styleName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create stage dir: %w", err)
	}
	return imageio.Save(img, filepath.Join(dir, fmt.Sprintf("%02d_%s.png", index, op)))
}

func (r *Runner) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
