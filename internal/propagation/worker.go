package propagation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/metrics"
)

// Request is one independent trajectory to propagate.
type Request struct {
	ID       string
	Initial  frames.State
	Duration time.Duration
	Interval time.Duration
	Config   Config
}

// Result is the outcome of a Request. On failure Samples holds whatever
// was produced before the error.
type Result struct {
	ID      string
	Samples []Sample
	Err     error
	Elapsed time.Duration
}

// propagateJob is a unit of work for the worker pool.
type propagateJob struct {
	index int
	req   Request
}

// WorkerPool runs independent propagation requests on a fixed number of
// goroutines.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int { return wp.workers }

// PropagateBatch propagates every request and returns one Result per
// request, in request order, plus the success and error counts. Requests
// never started because ctx ended carry ctx.Err().
func (wp *WorkerPool) PropagateBatch(ctx context.Context, reqs []Request) ([]Result, int, int) {
	if len(reqs) == 0 {
		return nil, 0, 0
	}

	results := make([]Result, len(reqs))
	started := make([]bool, len(reqs))
	jobs := make(chan propagateJob, wp.workers*2)

	var g errgroup.Group
	for i := 0; i < wp.workers; i++ {
		g.Go(func() error {
			for job := range jobs {
				results[job.index] = wp.RunOne(ctx, job.req)
			}
			return nil
		})
	}

	// Feed jobs until done or cancelled.
	for i, req := range reqs {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobs <- propagateJob{index: i, req: req}:
			started[i] = true
		case <-ctx.Done():
		}
	}
	close(jobs)
	_ = g.Wait()

	var successCount, errorCount int
	for i := range results {
		if !started[i] {
			results[i] = Result{ID: reqs[i].ID, Err: ctx.Err()}
		}
		if results[i].Err != nil {
			errorCount++
			continue
		}
		successCount++
	}
	return results, successCount, errorCount
}

// RunOne propagates a single request, recording metrics and logging
// failures.
func (wp *WorkerPool) RunOne(ctx context.Context, req Request) Result {
	start := time.Now()
	force := "twobody"
	if req.Config.Force != nil {
		force = req.Config.Force.String()
	}

	samples, err := Propagate(ctx, req.Initial, req.Duration, req.Interval, req.Config)
	elapsed := time.Since(start)

	outcome := Outcome(err)
	metrics.RecordPropagation(force, outcome, elapsed, len(samples))

	if err != nil {
		wp.logger.Warn("propagation failed",
			"run_id", req.ID,
			"force", force,
			"outcome", outcome,
			"samples", len(samples),
			"error", err,
		)
	} else {
		wp.logger.Debug("propagation complete",
			"run_id", req.ID,
			"force", force,
			"samples", len(samples),
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	return Result{ID: req.ID, Samples: samples, Err: err, Elapsed: elapsed}
}

// Outcome classifies a run error for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeComplete
	case errors.Is(err, ErrPropagation):
		return metrics.OutcomeDiverged
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCancelled
	}
	return metrics.OutcomeRejected
}
