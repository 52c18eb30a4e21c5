package propagation

import (
	"errors"
	"fmt"

	"github.com/dstuartbryant/spacewego/internal/timescale"
)

// ErrPropagation marks a numerical failure during integration.
var ErrPropagation = errors.New("propagation error")

// ErrRunStarted is returned when Execute or Stream is called on a run that
// has already left the Initialized state.
var ErrRunStarted = errors.New("propagation: run already started")

// PropagationError reports a divergent or unphysical state. Samples holds
// every sample produced before the failure.
type PropagationError struct {
	Step    int // integration step at which the check failed
	Epoch   timescale.Epoch
	Elapsed float64 // seconds since the initial epoch
	Radius  float64 // km, may be NaN
	Reason  string

	Completed int // samples emitted before the failure
	Samples   []Sample
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagation failed at step %d (t=%.3fs, %s): %s (|r|=%.3f km, %d samples completed)",
		e.Step, e.Elapsed, e.Epoch, e.Reason, e.Radius, e.Completed)
}

func (e *PropagationError) Is(target error) bool { return target == ErrPropagation }
