package trajectory

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/earthmodel"
	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/kepler"
	"github.com/dstuartbryant/spacewego/internal/propagation"
	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/units"
)

// ElementSet holds classical elements in km and degrees.
type ElementSet struct {
	A    float64 `toml:"a" json:"a"`
	E    float64 `toml:"e" json:"e"`
	I    float64 `toml:"i" json:"i"`
	RAAN float64 `toml:"raan" json:"raan"`
	ArgP float64 `toml:"argp" json:"argp"`
	Nu   float64 `toml:"nu" json:"nu"`
}

// Job describes one trajectory run. Durations are in seconds. The same
// shape is accepted as a TOML manifest and as the JSON body of the
// trajectory endpoints.
type Job struct {
	Epoch      string     `toml:"epoch" json:"epoch"`
	EarthModel string     `toml:"earth_model" json:"earth_model"`
	Frame      string     `toml:"frame" json:"frame"`
	Force      string     `toml:"force" json:"force"`
	Degree     int        `toml:"degree" json:"degree"`
	Duration   float64    `toml:"duration" json:"duration"`
	Interval   float64    `toml:"interval" json:"interval"`
	MaxStep    float64    `toml:"max_step,omitempty" json:"max_step,omitempty"`
	Output     string     `toml:"output,omitempty" json:"-"`
	Elements   ElementSet `toml:"elements" json:"elements"`
}

// DefaultJob is a 400 km, 45° LEO propagated for 90 minutes at a one
// minute cadence under two-body gravity.
func DefaultJob() Job {
	const (
		altitude = 400.0
		ecc      = 0.0001
	)
	rp := earthmodel.EGM96.Radius() + altitude
	return Job{
		Epoch:      "2025-08-01T00:00:00.000Z",
		EarthModel: "EGM96",
		Frame:      "EME2000",
		Force:      "twobody",
		Duration:   90 * 60,
		Interval:   60,
		Output:     "orbit_data.txt",
		Elements: ElementSet{
			A:    rp / (1 - ecc),
			E:    ecc,
			I:    45,
			RAAN: 0.0001,
			ArgP: 0.001,
			Nu:   0.001,
		},
	}
}

// LoadJob reads a TOML manifest. Keys missing from the file keep their
// DefaultJob values.
func LoadJob(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("reading job file: %w", err)
	}
	job := DefaultJob()
	if err := toml.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("parsing job file: %w", err)
	}
	return job, nil
}

// EncodeJob writes job as TOML.
func EncodeJob(w io.Writer, job Job) error {
	return toml.NewEncoder(w).Encode(job)
}

// Plan is a Job resolved into typed values, ready to propagate.
type Plan struct {
	Epoch    timescale.Epoch
	Model    earthmodel.Model
	Elements kepler.Elements
	Initial  frames.State
	Duration time.Duration
	Interval time.Duration
	Config   propagation.Config
}

func seconds(op, field string, v float64) (time.Duration, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt64/float64(time.Second) {
		return 0, astroerr.Domain(op, field, v, "must be a finite number of seconds")
	}
	return time.Duration(v * float64(time.Second)), nil
}

// Plan validates the job and converts the elements into the initial state.
func (j Job) Plan() (Plan, error) {
	const op = "trajectory.Job"

	epoch, err := timescale.Parse(j.Epoch)
	if err != nil {
		return Plan{}, err
	}
	model, err := earthmodel.ByName(j.EarthModel)
	if err != nil {
		return Plan{}, err
	}
	frame := frames.GCRF
	if j.Frame != "" {
		if frame, err = frames.ParseID(j.Frame); err != nil {
			return Plan{}, err
		}
	}
	force, err := propagation.ParseForce(j.Force, j.Degree)
	if err != nil {
		return Plan{}, err
	}
	duration, err := seconds(op, "duration", j.Duration)
	if err != nil {
		return Plan{}, err
	}
	interval, err := seconds(op, "interval", j.Interval)
	if err != nil {
		return Plan{}, err
	}
	maxStep, err := seconds(op, "max_step", j.MaxStep)
	if err != nil {
		return Plan{}, err
	}
	if interval <= 0 {
		return Plan{}, astroerr.Domain(op, "interval", j.Interval, "output interval must be positive")
	}
	if duration < 0 {
		return Plan{}, astroerr.Domain(op, "duration", j.Duration, "duration must not be negative")
	}

	el := kepler.Elements{
		SemiMajorAxis: j.Elements.A,
		Eccentricity:  j.Elements.E,
		Inclination:   units.Deg(j.Elements.I),
		RAAN:          units.Deg(j.Elements.RAAN),
		ArgPeriapsis:  units.Deg(j.Elements.ArgP),
		TrueAnomaly:   units.Deg(j.Elements.Nu),
		Epoch:         epoch,
		Frame:         frame,
	}
	initial, err := kepler.ToCartesian(el, model.Mu())
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Epoch:    epoch,
		Model:    model,
		Elements: el,
		Initial:  initial,
		Duration: duration,
		Interval: interval,
		Config: propagation.Config{
			Model:   model,
			Force:   force,
			MaxStep: maxStep,
		},
	}, nil
}

// SampleCount returns the number of samples the plan produces.
func (p Plan) SampleCount() int { return propagation.SampleCount(p.Duration, p.Interval) }

// Request wraps the plan as a worker pool request.
func (p Plan) Request(id string) propagation.Request {
	return propagation.Request{
		ID:       id,
		Initial:  p.Initial,
		Duration: p.Duration,
		Interval: p.Interval,
		Config:   p.Config,
	}
}
