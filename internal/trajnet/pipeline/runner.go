package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/trajnet/internal/config"
	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/monitoring"
	"github.com/banshee-data/trajnet/internal/timeutil"
	"github.com/banshee-data/trajnet/internal/trajnet/readers"
)

// Job is one dataset to read and convert.
type Job struct {
	Dataset
	Format string
	Input  string
}

// JobsFromManifest builds one job per manifest dataset, merging each
// dataset's overrides over the global options.
func JobsFromManifest(m *config.Manifest) []Job {
	jobs := make([]Job, 0, len(m.Datasets))
	for _, ds := range m.Datasets {
		jobs = append(jobs, Job{
			Dataset: Dataset{
				Name:   ds.Name,
				Output: ds.Output,
				Config: m.ConvertConfig.Merge(ds.Overrides),
			},
			Format: ds.Format,
			Input:  ds.Input,
		})
	}
	return jobs
}

// Result is the outcome of one job.
type Result struct {
	Job      Job
	Report   Report
	Rows     int
	Skipped  int
	Duration time.Duration
	Err      error
}

// Runner converts datasets in parallel. A failing dataset does not stop
// the others.
type Runner struct {
	fsys     fsutil.FileSystem
	registry *readers.Registry
	recorder Recorder
	parallel int
	clock    timeutil.Clock
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerClock sets the clock that times each job. It is also handed to
// every converter the runner creates.
func WithRunnerClock(clock timeutil.Clock) RunnerOption {
	return func(r *Runner) { r.clock = clock }
}

// NewRunner returns a runner reading formats from registry. parallel
// bounds the number of datasets converted at once; values below 1 mean 1.
func NewRunner(fsys fsutil.FileSystem, registry *readers.Registry, recorder Recorder, parallel int, opts ...RunnerOption) *Runner {
	if parallel < 1 {
		parallel = 1
	}
	r := &Runner{fsys: fsys, registry: registry, recorder: recorder, parallel: parallel, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run converts every job and returns one result per job, in job order.
// Errors are reported per result; Run itself only fails if ctx is done
// before all jobs start, in which case every job that never started
// carries that error.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	var (
		g        errgroup.Group
		startErr error
	)
	g.SetLimit(r.parallel)
	for i, job := range jobs {
		if startErr == nil {
			startErr = ctx.Err()
		}
		if startErr != nil {
			results[i] = Result{Job: job, Err: fmt.Errorf("dataset %s not started: %w", job.Name, startErr)}
			continue
		}
		g.Go(func() error {
			results[i] = r.runOne(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return results, startErr
}

func (r *Runner) runOne(ctx context.Context, job Job) Result {
	start := r.clock.Now()
	res := Result{Job: job}

	in, err := r.registry.Read(r.fsys, job.Format, job.Input)
	if err != nil {
		res.Duration = r.clock.Since(start)
		res.Err = fmt.Errorf("dataset %s: %w", job.Name, err)
		monitoring.Logf("[pipeline] dataset=%s failed: %v", job.Name, res.Err)
		return res
	}
	res.Rows = len(in.Rows)
	res.Skipped = in.Skipped

	opts := []Option{WithClock(r.clock)}
	if r.recorder != nil {
		opts = append(opts, WithRecorder(r.recorder))
	}
	report, err := NewConverter(r.fsys, opts...).Convert(ctx, job.Dataset, in.Rows)
	res.Duration = r.clock.Since(start)
	if err != nil {
		res.Err = err
		monitoring.Logf("[pipeline] dataset=%s failed: %v", job.Name, err)
		return res
	}
	res.Report = report
	monitoring.Logf("[pipeline] dataset=%s rows=%d scenes=%d tracks=%d in %s",
		job.Name, res.Rows, report.NextSceneID, report.NextTrackID, res.Duration.Round(time.Millisecond))
	return res
}
