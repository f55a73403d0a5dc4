package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/episim/internal/epi"
)

// Job is one independent run of a batch.
type Job struct {
	Name    string
	Params  epi.ParameterSet
	Request Request
}

// Outcome pairs a job with its result. Exactly one of Result and Err is set.
type Outcome struct {
	Job    Job
	Result *Result
	Err    error
}

// Batch runs jobs on at most parallel workers (0 means GOMAXPROCS). Runs share
// nothing, so a failed job does not stop the others; its error is kept in its
// Outcome. The returned error is only set when ctx ends before every job ran.
// Outcomes are in job order.
func (r *Runner) Batch(ctx context.Context, jobs []Job, parallel int) ([]Outcome, error) {
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}
	out := make([]Outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out[i].Job = job
			out[i].Result, out[i].Err = r.Run(gctx, job.Params.Clone(), job.Request)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	r.log.Debug("batch finished", slog.Int("jobs", len(jobs)), slog.Int("failed", failed))
	return out, nil
}

// Sweep runs base once per value of the named rate constant.
func (r *Runner) Sweep(ctx context.Context, base epi.ParameterSet, req Request, param string, values []float64, parallel int) ([]Outcome, error) {
	if len(values) == 0 {
		return nil, epi.Configf(base.Variant, "values", "sweep over %s needs at least one value", param)
	}
	if _, ok := base.Rates[param]; !ok {
		return nil, epi.Configf(base.Variant, param, "not a rate constant of this parameter set")
	}
	jobs := make([]Job, len(values))
	for i, v := range values {
		jobs[i] = Job{
			Name:    fmt.Sprintf("%s=%g", param, v),
			Params:  base.With(param, v),
			Request: req,
		}
	}
	return r.Batch(ctx, jobs, parallel)
}

// Best returns the index of the successful outcome with the lowest score, or
// -1 when none succeeded.
func Best(outcomes []Outcome, score func(*Result) float64) int {
	best, bestScore := -1, math.Inf(1)
	for i, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			continue
		}
		if s := score(o.Result); best < 0 || s < bestScore {
			best, bestScore = i, s
		}
	}
	return best
}
