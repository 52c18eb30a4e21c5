package trajectory

import "github.com/dstuartbryant/spacewego/internal/propagation"

// Record is the JSON form of one trajectory sample.
type Record struct {
	Timestamp string     `json:"t"`
	Elapsed   float64    `json:"elapsed"`
	Position  [3]float64 `json:"position"`
	Velocity  [3]float64 `json:"velocity"`
}

// NewRecord converts a propagated sample.
func NewRecord(s propagation.Sample) Record {
	return Record{
		Timestamp: s.Epoch.String(),
		Elapsed:   s.Elapsed,
		Position:  [3]float64{s.Position.X, s.Position.Y, s.Position.Z},
		Velocity:  [3]float64{s.Velocity.X, s.Velocity.Y, s.Velocity.Z},
	}
}

// Records converts a slice of samples.
func Records(samples []propagation.Sample) []Record {
	out := make([]Record, len(samples))
	for i, s := range samples {
		out[i] = NewRecord(s)
	}
	return out
}
