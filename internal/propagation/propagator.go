package propagation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/orient"
	"github.com/dstuartbryant/spacewego/internal/rotation"
)

// Run is a single trajectory propagation. It moves from Initialized to
// Running when Execute or Stream is called, and ends Complete or Failed.
// A Run is not reusable.
type Run struct {
	initial  frames.State
	duration time.Duration
	interval time.Duration
	substeps int
	minRad   float64
	force    ForceModel
	field    Field

	mu      sync.Mutex
	state   RunState
	samples []Sample
	err     error
}

// SampleCount returns floor(duration/interval) + 1.
func SampleCount(duration, interval time.Duration) int {
	if interval <= 0 || duration < 0 {
		return 0
	}
	return int(duration/interval) + 1
}

// NewRun validates the inputs and binds the force model. The initial state
// must carry an epoch and be in an inertial frame.
func NewRun(initial frames.State, duration, interval time.Duration, cfg Config) (*Run, error) {
	const op = "propagation.NewRun"
	if interval <= 0 {
		return nil, astroerr.Domain(op, "interval", interval, "output interval must be positive")
	}
	if duration < 0 {
		return nil, astroerr.Domain(op, "duration", duration, "duration must not be negative")
	}
	if !initial.Timed {
		return nil, astroerr.Domain(op, "epoch", nil, "initial state has no epoch")
	}
	if !initial.Frame.Inertial() {
		return nil, astroerr.Domain(op, "frame", initial.Frame, "initial state must be in an inertial frame (ECI, GCRF or EME2000)")
	}
	if !initial.Finite() {
		return nil, astroerr.Domain(op, "state", nil, "initial state has non-finite components")
	}
	if cfg.Model.Mu() <= 0 {
		return nil, astroerr.Domain(op, "model", cfg.Model.Name(), "earth model is required")
	}
	if cfg.MaxStep < 0 {
		return nil, astroerr.Domain(op, "max_step", cfg.MaxStep, "max step must not be negative")
	}
	if cfg.MinRadius < 0 {
		return nil, astroerr.Domain(op, "min_radius", cfg.MinRadius, "minimum radius must not be negative")
	}

	force := cfg.Force
	if force == nil {
		force = TwoBody{}
	}
	field, err := force.Field(cfg.Model, poleMatrix(initial))
	if err != nil {
		return nil, err
	}

	maxStep := cfg.MaxStep
	if maxStep == 0 {
		maxStep = DefaultMaxStep
	}
	minRad := cfg.MinRadius
	if minRad == 0 {
		minRad = cfg.Model.PolarRadius()
	}
	if r := initial.Radius(); r < minRad {
		return nil, astroerr.Domain(op, "position", r, fmt.Sprintf("initial radius is below the minimum radius %.3f km", minRad))
	}

	return &Run{
		initial:  initial,
		duration: duration,
		interval: interval,
		substeps: int(math.Ceil(interval.Seconds() / maxStep.Seconds())),
		minRad:   minRad,
		force:    force,
		field:    field,
		state:    Initialized,
	}, nil
}

// poleMatrix returns the matrix taking the integration frame onto the
// Earth's intermediate frame at the initial epoch. The pole is held fixed
// for the whole run.
func poleMatrix(s frames.State) *r3.Mat {
	switch s.Frame {
	case frames.GCRF:
		return orient.CelestialToIntermediate(orient.CIP(s.Epoch))
	case frames.EME2000:
		return rotation.Chain(orient.CelestialToIntermediate(orient.CIP(s.Epoch)), rotation.Transpose(orient.FrameBias()))
	}
	return nil
}

// State returns the current lifecycle state.
func (r *Run) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Samples returns the samples collected by Execute so far.
func (r *Run) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples
}

// Err returns the error that failed the run, if any.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Len returns the number of samples the run produces on success.
func (r *Run) Len() int { return SampleCount(r.duration, r.interval) }

// Force returns the bound force model.
func (r *Run) Force() ForceModel { return r.force }

func (r *Run) start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Initialized {
		return ErrRunStarted
	}
	r.state = Running
	return nil
}

func (r *Run) finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	if err != nil {
		r.state = Failed
		return
	}
	r.state = Complete
}

// Execute integrates the whole trajectory. On failure the samples produced
// so far are returned together with the error: a *PropagationError for
// divergence, or the wrapped context error on cancellation.
func (r *Run) Execute(ctx context.Context) ([]Sample, error) {
	if err := r.start(); err != nil {
		return nil, err
	}
	out := make([]Sample, 0, r.Len())
	err := r.integrate(ctx, func(s Sample) error {
		out = append(out, s)
		return nil
	})
	var perr *PropagationError
	if errors.As(err, &perr) {
		perr.Samples = out
	}
	r.mu.Lock()
	r.samples = out
	r.mu.Unlock()
	r.finish(err)
	return out, err
}

// Stream integrates the trajectory and hands each sample to emit as soon as
// it is produced. An error from emit stops the run and is returned wrapped.
func (r *Run) Stream(ctx context.Context, emit func(Sample) error) error {
	if err := r.start(); err != nil {
		return err
	}
	err := r.integrate(ctx, emit)
	r.finish(err)
	return err
}

// integrate runs fixed-step RK4 with r.substeps steps per output interval.
// Output epochs are computed from the sample index, so they land exactly on
// multiples of the interval.
func (r *Run) integrate(ctx context.Context, emit func(Sample) error) error {
	n := r.Len()
	h := r.interval.Seconds() / float64(r.substeps)
	pos, vel := r.initial.Position, r.initial.Velocity
	epoch := r.initial.Epoch
	frame := r.initial.Frame

	if err := emit(Sample{Epoch: epoch, Position: pos, Velocity: vel, Frame: frame}); err != nil {
		return fmt.Errorf("emit sample 0: %w", err)
	}

	step := 0
	for k := 1; k < n; k++ {
		for i := 0; i < r.substeps; i++ {
			select {
			case <-ctx.Done():
				return fmt.Errorf("propagation cancelled after %d of %d samples: %w", k, n, ctx.Err())
			default:
			}

			pos, vel = rk4(r.field, pos, vel, h)
			step++

			rad := r3.Norm(pos)
			if reason := r.diverged(pos, vel, rad); reason != "" {
				elapsed := (time.Duration(k-1) * r.interval).Seconds() + float64(i+1)*h
				return &PropagationError{
					Step:      step,
					Epoch:     epoch.Add(elapsed),
					Elapsed:   elapsed,
					Radius:    rad,
					Reason:    reason,
					Completed: k,
				}
			}
		}

		elapsed := (time.Duration(k) * r.interval).Seconds()
		s := Sample{Epoch: epoch.Add(elapsed), Elapsed: elapsed, Position: pos, Velocity: vel, Frame: frame}
		if err := emit(s); err != nil {
			return fmt.Errorf("emit sample %d: %w", k, err)
		}
	}
	return nil
}

func (r *Run) diverged(pos, vel r3.Vec, rad float64) string {
	for _, v := range [...]float64{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "non-finite state"
		}
	}
	if rad < r.minRad {
		return fmt.Sprintf("radius below minimum %.3f km", r.minRad)
	}
	return ""
}

// rk4 advances (r, v) by h seconds under the acceleration field f.
func rk4(f Field, r, v r3.Vec, h float64) (r3.Vec, r3.Vec) {
	k1r, k1v := v, f(r)

	k2r, k2v := r3.Add(v, r3.Scale(h/2, k1v)), f(r3.Add(r, r3.Scale(h/2, k1r)))
	k3r, k3v := r3.Add(v, r3.Scale(h/2, k2v)), f(r3.Add(r, r3.Scale(h/2, k2r)))
	k4r, k4v := r3.Add(v, r3.Scale(h, k3v)), f(r3.Add(r, r3.Scale(h, k3r)))

	sum := func(a, b, c, d r3.Vec) r3.Vec {
		return r3.Scale(h/6, r3.Add(r3.Add(a, r3.Scale(2, b)), r3.Add(r3.Scale(2, c), d)))
	}
	return r3.Add(r, sum(k1r, k2r, k3r, k4r)), r3.Add(v, sum(k1v, k2v, k3v, k4v))
}

// Propagate runs a trajectory from initial over duration, sampling every
// interval, and returns floor(duration/interval)+1 samples on success.
func Propagate(ctx context.Context, initial frames.State, duration, interval time.Duration, cfg Config) ([]Sample, error) {
	run, err := NewRun(initial, duration, interval, cfg)
	if err != nil {
		return nil, err
	}
	return run.Execute(ctx)
}
