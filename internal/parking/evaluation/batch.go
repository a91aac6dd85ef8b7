package evaluation

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/parking.report/internal/fsutil"
	"github.com/banshee-data/parking.report/internal/monitoring"
	"github.com/banshee-data/parking.report/internal/parking/annotation"
	"github.com/banshee-data/parking.report/internal/parking/rates"
	"github.com/banshee-data/parking.report/internal/parking/recording"
	"github.com/banshee-data/parking.report/internal/timeutil"
	"github.com/banshee-data/parking.report/internal/version"
	"github.com/google/uuid"
)

// Outcome is the per-recording entry of a batch. Exactly one of Result
// and Error is set.
type Outcome struct {
	Recording string  `json:"recording"`
	Path      string  `json:"path"`
	Result    *Result `json:"result,omitempty"`
	Error     string  `json:"error,omitempty"`

	err error
}

// Err returns the failure of this recording, if any.
func (o Outcome) Err() error {
	return o.err
}

// BatchResult aggregates a batch run.
type BatchResult struct {
	RunID       string        `json:"run_id"`
	Version     string        `json:"version"`
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration_ns"`
	Outcomes    []Outcome     `json:"recordings"`
	Failed      int           `json:"failed"`
	Counts      rates.Counts  `json:"counts"`
	Summary     rates.Summary `json:"summary"`
}

// Runner evaluates recordings from a filesystem.
type Runner struct {
	FS            fsutil.FileSystem
	Clock         timeutil.Clock
	Params        Params
	AnnotationDir string // searched after the recording's own directory
}

// NewRunner returns a Runner on the OS filesystem and wall clock.
func NewRunner(p Params, annotationDir string) *Runner {
	return &Runner{
		FS:            fsutil.OSFileSystem{},
		Clock:         timeutil.RealClock{},
		Params:        p,
		AnnotationDir: annotationDir,
	}
}

// Discover lists the *.csv recordings in dir.
func Discover(fsys fsutil.FileSystem, dir string) ([]string, error) {
	paths, err := fsys.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings in %s: %w", dir, err)
	}
	return paths, nil
}

// EvaluateFile loads one recording and its annotation and evaluates it.
func (r *Runner) EvaluateFile(path string) (*Result, error) {
	rec, err := recording.Load(r.FS, path)
	if err != nil {
		return nil, err
	}
	annPath, err := annotation.ResolvePath(r.FS, path, r.AnnotationDir)
	if err != nil {
		return nil, err
	}
	ann, err := annotation.Load(r.FS, annPath)
	if err != nil {
		return nil, err
	}
	phase, err := ann.Phase(r.Params.Phase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", annPath, err)
	}

	res, err := EvaluateRecording(rec, phase, r.Params)
	if err != nil {
		return nil, err
	}
	res.Annotation = annPath
	return res, nil
}

// Run evaluates every path in order. A failing recording is logged and
// recorded in its Outcome; the batch carries on with the next one. Run
// stops early only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, paths []string) *BatchResult {
	start := r.Clock.Now()
	b := &BatchResult{
		RunID:       uuid.NewString(),
		Version:     version.String(),
		GeneratedAt: start.UTC(),
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			monitoring.Logf("batch %s cancelled before %s: %v", b.RunID, path, err)
			break
		}

		o := Outcome{Recording: recording.Name(path), Path: path}
		res, err := r.evaluateIsolated(path)
		if err != nil {
			o.err = err
			o.Error = err.Error()
			b.Failed++
			opsf("%s failed: %v", path, err)
			monitoring.Logf("recording %s failed: %v", o.Recording, err)
		} else {
			o.Result = res
			b.Counts = b.Counts.Add(res.Counts)
		}
		b.Outcomes = append(b.Outcomes, o)
	}

	b.Summary = rates.Summarize(b.Counts, r.Params.Rates)
	b.Duration = r.Clock.Since(start)
	monitoring.Logf("batch %s: %d recordings, %d failed, %s", b.RunID, len(b.Outcomes), b.Failed, b.Summary)
	return b
}

// evaluateIsolated turns a panic inside one recording into an error.
func (r *Runner) evaluateIsolated(path string) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("panic evaluating %s: %v", path, p)
		}
	}()
	return r.EvaluateFile(path)
}
