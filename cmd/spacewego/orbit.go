package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dstuartbryant/spacewego/internal/propagation"
	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/trajectory"
)

type orbitOptions struct {
	jobs     []string
	output   string
	verify   bool
	printJob bool
}

func newOrbitCmd(a *app) *cobra.Command {
	var opts orbitOptions
	cmd := &cobra.Command{
		Use:   "orbit",
		Short: "Propagate one or more jobs and write trajectory logs",
		Long: `orbit propagates each --job manifest (TOML) and writes the trajectory
text log. Without --job it runs the built-in example: a 400 km LEO for
90 minutes at one minute spacing. Relative output paths are resolved
against output_dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.orbit(ctx, opts)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&opts.jobs, "job", nil, "TOML job manifest (repeatable)")
	f.StringVarP(&opts.output, "output", "o", "", "output path (single job only)")
	f.BoolVar(&opts.verify, "verify", false, "read each written log back and check it")
	f.BoolVar(&opts.printJob, "print-job", false, "print the resolved job manifests as TOML and exit")
	return cmd
}

type orbitRun struct {
	plan trajectory.Plan
	path string
}

func (a *app) orbit(ctx context.Context, opts orbitOptions) error {
	logger := a.logger(a.stderr)

	jobs := []trajectory.Job{trajectory.DefaultJob()}
	if len(opts.jobs) > 0 {
		jobs = jobs[:0]
		for _, p := range opts.jobs {
			j, err := trajectory.LoadJob(p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			jobs = append(jobs, j)
		}
	}
	if opts.output != "" && len(jobs) > 1 {
		return errors.New("--output needs exactly one job")
	}

	if opts.printJob {
		for i, j := range jobs {
			if i > 0 {
				fmt.Fprintln(a.stdout)
			}
			if err := trajectory.EncodeJob(a.stdout, j); err != nil {
				return err
			}
		}
		return nil
	}

	// The sample budget only applies to the service.
	limits := a.cfg.Limits()
	limits.MaxSamples = 0

	runs := make([]orbitRun, len(jobs))
	reqs := make([]propagation.Request, len(jobs))
	for i, j := range jobs {
		plan, err := j.Plan()
		if err != nil {
			return fmt.Errorf("job %d: %w", i+1, err)
		}
		if err := limits.Apply(&plan); err != nil {
			return fmt.Errorf("job %d: %w", i+1, err)
		}
		path := j.Output
		if opts.output != "" {
			path = opts.output
		}
		if path == "" {
			path = fmt.Sprintf("orbit_data_%d.txt", i+1)
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.cfg.OutputDir, path)
		}
		runs[i] = orbitRun{plan: plan, path: path}
		reqs[i] = plan.Request(uuid.NewString())
	}

	pool := propagation.NewWorkerPool(a.cfg.PropConfig().Workers, logger)
	results, ok, failed := pool.PropagateBatch(ctx, reqs)
	logger.Info("propagation finished", "jobs", len(jobs), "succeeded", ok, "failed", failed)

	var errs []error
	for i, res := range results {
		r := runs[i]
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("job %d (%s): %w", i+1, res.ID, res.Err))
			continue
		}
		h, err := trajectory.NewHeader(res.ID, r.plan.Model, r.plan.Epoch, r.plan.Initial.Frame, timescale.ZeroEOP)
		if err != nil {
			errs = append(errs, fmt.Errorf("job %d: %w", i+1, err))
			continue
		}
		if err := trajectory.Save(r.path, h, res.Samples); err != nil {
			errs = append(errs, fmt.Errorf("job %d: %w", i+1, err))
			continue
		}
		if opts.verify {
			if err := verifyLog(r.path, h, len(res.Samples)); err != nil {
				errs = append(errs, fmt.Errorf("job %d: %w", i+1, err))
				continue
			}
		}
		fmt.Fprintf(a.stdout, "%s\t%d samples\trun %s\n", r.path, len(res.Samples), res.ID)
	}
	return errors.Join(errs...)
}

// verifyLog reads a written log back and checks its header and row count.
func verifyLog(path string, want trajectory.Header, samples int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h, rows, err := trajectory.Read(f)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", path, err)
	}
	if h.RunID != want.RunID {
		return fmt.Errorf("verifying %s: run id %q, want %q", path, h.RunID, want.RunID)
	}
	if len(rows) != samples {
		return fmt.Errorf("verifying %s: %d rows, want %d", path, len(rows), samples)
	}
	return nil
}
