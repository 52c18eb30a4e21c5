// Package timescale tags instants with the time scale they belong to and
// converts between UTC, TAI, TT and UT1.
package timescale

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
)

// Scale identifies a time scale.
type Scale int

const (
	UTC Scale = iota
	TAI
	TT
	UT1
)

func (s Scale) String() string {
	switch s {
	case UTC:
		return "UTC"
	case TAI:
		return "TAI"
	case TT:
		return "TT"
	case UT1:
		return "UT1"
	}
	return fmt.Sprintf("Scale(%d)", int(s))
}

const (
	// J2000 is the Julian date of 2000-01-01T12:00:00 TT.
	J2000 = 2451545.0

	// DaysPerCentury is the length of a Julian century.
	DaysPerCentury = 36525.0

	secondsPerDay = 86400

	// ttMinusTAI is the fixed TT-TAI offset in seconds.
	ttMinusTAI = 32.184

	// jdTAI2000 is the Julian date of 2000-01-01T00:00:00 TAI, the origin
	// of the Epoch counter.
	jdTAI2000 = 2451544.5
)

var unix2000 = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

// Epoch is an instant on the continuous TAI scale, counted from
// 2000-01-01T00:00:00 TAI, together with the scale it was created in.
// The zero value is that origin tagged as UTC.
type Epoch struct {
	sec   int64
	frac  float64 // [0, 1)
	scale Scale
}

func newEpoch(sec int64, frac float64, scale Scale) Epoch {
	whole := math.Floor(frac)
	return Epoch{sec: sec + int64(whole), frac: frac - whole, scale: scale}
}

// FromTime returns the Epoch for a UTC instant. Leap seconds are applied
// from the built-in table; instants before 1972 yield a ModelError.
func FromTime(t time.Time) (Epoch, error) {
	unix := t.Unix()
	dat, err := TAIMinusUTC(unix)
	if err != nil {
		return Epoch{}, err
	}
	return newEpoch(unix-unix2000+dat, float64(t.Nanosecond())/1e9, UTC), nil
}

// MustFromTime is FromTime for instants known to be covered by the
// leap-second table. It panics otherwise.
func MustFromTime(t time.Time) Epoch {
	e, err := FromTime(t)
	if err != nil {
		panic(err)
	}
	return e
}

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse reads an ISO-8601 UTC timestamp such as "2025-08-01T00:00:00.000Z".
// A missing zone designator means UTC.
func Parse(s string) (Epoch, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return FromTime(t.UTC())
		}
	}
	return Epoch{}, &astroerr.DomainError{
		Op:     "timescale.Parse",
		Reason: fmt.Sprintf("Invalid timestamp format: %q does not match ISO-8601 (e.g. 2025-08-01T00:00:00Z)", s),
	}
}

// FromJulianDate builds an Epoch from a Julian date in the TAI, TT or UTC
// scale. UT1 needs Earth orientation data and is rejected.
func FromJulianDate(scale Scale, jd float64) (Epoch, error) {
	days := jd - jdTAI2000
	whole := math.Floor(days)
	secs := (days - whole) * secondsPerDay
	base := int64(whole) * secondsPerDay

	switch scale {
	case TAI:
		return newEpoch(base, secs, TAI), nil
	case TT:
		return newEpoch(base, secs-ttMinusTAI, TT), nil
	case UTC:
		unix := base + unix2000 + int64(math.Floor(secs))
		dat, err := TAIMinusUTC(unix)
		if err != nil {
			return Epoch{}, err
		}
		return newEpoch(base+dat, secs, UTC), nil
	}
	return Epoch{}, astroerr.Domain("timescale.FromJulianDate", "scale", scale, "unsupported scale")
}

// Scale reports the scale the Epoch was created in.
func (e Epoch) Scale() Scale { return e.scale }

// In returns the same instant tagged with another scale.
func (e Epoch) In(s Scale) Epoch {
	e.scale = s
	return e
}

// Add returns e shifted by the given number of SI seconds.
func (e Epoch) Add(seconds float64) Epoch {
	whole := math.Floor(seconds)
	return newEpoch(e.sec+int64(whole), e.frac+(seconds-whole), e.scale)
}

// Sub returns e-o in SI seconds.
func (e Epoch) Sub(o Epoch) float64 {
	return float64(e.sec-o.sec) + (e.frac - o.frac)
}

func (e Epoch) Before(o Epoch) bool { return e.Sub(o) < 0 }
func (e Epoch) After(o Epoch) bool  { return e.Sub(o) > 0 }

// Equal reports whether e and o are the same instant, regardless of tag.
func (e Epoch) Equal(o Epoch) bool { return e.sec == o.sec && e.frac == o.frac }

// utcUnix returns the UTC unix seconds for e and the TAI-UTC offset used.
func (e Epoch) utcUnix() (int64, error) {
	guess := e.sec + unix2000 - leapTable[len(leapTable)-1].offset
	for i := 0; i < 2; i++ {
		dat, err := TAIMinusUTC(guess)
		if err != nil {
			return 0, err
		}
		next := e.sec + unix2000 - dat
		if next == guess {
			break
		}
		guess = next
	}
	return guess, nil
}

// Time returns e as a UTC time.Time.
func (e Epoch) Time() (time.Time, error) {
	unix, err := e.utcUnix()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, int64(math.Round(e.frac*1e9))).UTC(), nil
}

// JD is a two-part Julian date. Day carries the large part so Frac keeps
// sub-millisecond precision.
type JD struct {
	Day  float64
	Frac float64
}

// Float collapses the two parts.
func (j JD) Float() float64 { return j.Day + j.Frac }

// Centuries returns Julian centuries since J2000.
func (j JD) Centuries() float64 { return ((j.Day - J2000) + j.Frac) / DaysPerCentury }

// DaysSinceJ2000 returns days since J2000.
func (j JD) DaysSinceJ2000() float64 { return (j.Day - J2000) + j.Frac }

func (e Epoch) jdWithOffset(offset float64) JD {
	days := e.sec / secondsPerDay
	rem := e.sec % secondsPerDay
	if rem < 0 {
		rem += secondsPerDay
		days--
	}
	return JD{Day: jdTAI2000 + float64(days), Frac: (float64(rem) + e.frac + offset) / secondsPerDay}
}

// TT returns the Julian date in Terrestrial Time.
func (e Epoch) TT() JD { return e.jdWithOffset(ttMinusTAI) }

// J2000Centuries returns Julian centuries of TT since J2000.
func (e Epoch) J2000Centuries() float64 { return e.TT().Centuries() }

// JulianDate returns the Julian date of e in the requested scale. UT1 takes
// DUT1 from eop; a nil eop means DUT1 = 0.
func (e Epoch) JulianDate(s Scale, eop EOPSource) (JD, error) {
	switch s {
	case TAI:
		return e.jdWithOffset(0), nil
	case TT:
		return e.TT(), nil
	case UTC, UT1:
		unix, err := e.utcUnix()
		if err != nil {
			return JD{}, err
		}
		dat := float64(e.sec + unix2000 - unix)
		if s == UTC {
			return e.jdWithOffset(-dat), nil
		}
		var p EOP
		if eop != nil {
			p, err = eop.At(e)
			if err != nil {
				return JD{}, err
			}
		}
		return e.jdWithOffset(p.DUT1 - dat), nil
	}
	return JD{}, astroerr.Domain("timescale.JulianDate", "scale", s, "unsupported scale")
}

// String formats e as an ISO-8601 UTC timestamp with millisecond precision.
func (e Epoch) String() string {
	t, err := e.Time()
	if err != nil {
		return fmt.Sprintf("TAI%+d.%03ds", e.sec, int(e.frac*1000))
	}
	return t.Format(ISOLayout)
}

// ISOLayout is the timestamp layout used in trajectory output.
const ISOLayout = "2006-01-02T15:04:05.000Z"
