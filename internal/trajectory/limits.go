package trajectory

import (
	"fmt"
	"time"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
)

// Limits are the server-side bounds applied to a Plan before it runs.
type Limits struct {
	MaxSamples int           // zero means unbounded
	MaxStep    time.Duration // used when the job leaves max_step unset
	MinRadius  float64       // km, zero keeps the model polar radius
}

// BudgetError reports a plan producing more samples than allowed. It
// matches astroerr.ErrDomain.
type BudgetError struct {
	Requested int
	Max       int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("request produces %d samples, exceeding the maximum of %d", e.Requested, e.Max)
}

func (e *BudgetError) Is(target error) bool { return target == astroerr.ErrDomain }

// Apply fills integrator defaults into p and enforces the sample budget.
func (l Limits) Apply(p *Plan) error {
	if n := p.SampleCount(); l.MaxSamples > 0 && n > l.MaxSamples {
		return &BudgetError{Requested: n, Max: l.MaxSamples}
	}
	if p.Config.MaxStep == 0 {
		p.Config.MaxStep = l.MaxStep
	}
	if p.Config.MinRadius == 0 {
		p.Config.MinRadius = l.MinRadius
	}
	return nil
}
