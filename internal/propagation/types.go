package propagation

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/earthmodel"
	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/timescale"
)

// Sample is one row of a trajectory.
type Sample struct {
	Epoch    timescale.Epoch
	Elapsed  float64 // seconds since the initial epoch
	Position r3.Vec  // km
	Velocity r3.Vec  // km/s
	Frame    frames.ID
}

// State returns the sample as a timed Cartesian state.
func (s Sample) State() frames.State {
	return frames.State{
		Position: s.Position,
		Velocity: s.Velocity,
		Epoch:    s.Epoch,
		Timed:    true,
		Frame:    s.Frame,
	}
}

// Config holds the physical model and integrator settings for a run.
type Config struct {
	Model earthmodel.Model
	Force ForceModel // nil means TwoBody

	// MaxStep bounds the integration step. Each output interval is split into
	// ceil(interval/MaxStep) equal substeps. Zero means DefaultMaxStep.
	MaxStep time.Duration

	// MinRadius is the radius (km) below which the run is declared divergent.
	// Zero means the model's polar radius.
	MinRadius float64
}

// DefaultMaxStep is the integration step used when Config.MaxStep is zero.
const DefaultMaxStep = 10 * time.Second

// PropConfig holds the worker pool settings loaded from configuration.
type PropConfig struct {
	Workers int           // worker pool size (default: runtime.NumCPU())
	MaxStep time.Duration // integration step bound (default: 10s)
}

// RunState is the lifecycle state of a Run.
type RunState int

const (
	Initialized RunState = iota
	Running
	Complete
	Failed
)

func (s RunState) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	}
	return "unknown"
}
