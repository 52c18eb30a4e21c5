package timescale

import (
	"sort"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
)

// EOP holds the Earth orientation parameters needed by the CIO chain.
type EOP struct {
	DUT1 float64 // UT1-UTC, seconds
	XP   float64 // polar motion x, arcseconds
	YP   float64 // polar motion y, arcseconds
}

// EOPSource supplies Earth orientation parameters for an epoch.
type EOPSource interface {
	At(e Epoch) (EOP, error)
}

// At returns p for every epoch, so a fixed EOP is its own source.
func (p EOP) At(Epoch) (EOP, error) { return p, nil }

// ZeroEOP treats UT1 as UTC and ignores polar motion.
var ZeroEOP EOPSource = EOP{}

// EOPRecord is one daily row of an EOP series.
type EOPRecord struct {
	MJD float64 // modified Julian date, UTC
	EOP
}

// EOPTable interpolates linearly between records sorted by MJD.
type EOPTable []EOPRecord

// NewEOPTable sorts records and returns them as a table.
func NewEOPTable(records []EOPRecord) EOPTable {
	t := make(EOPTable, len(records))
	copy(t, records)
	sort.Slice(t, func(i, j int) bool { return t[i].MJD < t[j].MJD })
	return t
}

// At interpolates the table at e. Epochs outside the table are a ModelError.
func (t EOPTable) At(e Epoch) (EOP, error) {
	if len(t) == 0 {
		return EOP{}, astroerr.Model("timescale.EOPTable.At", "eop", "table is empty")
	}
	jd, err := e.JulianDate(UTC, nil)
	if err != nil {
		return EOP{}, err
	}
	mjd := (jd.Day - 2400000.5) + jd.Frac
	if mjd < t[0].MJD || mjd > t[len(t)-1].MJD {
		return EOP{}, astroerr.Model("timescale.EOPTable.At", "eop",
			"MJD %.3f outside table range [%.1f, %.1f]", mjd, t[0].MJD, t[len(t)-1].MJD)
	}
	i := sort.Search(len(t), func(i int) bool { return t[i].MJD >= mjd })
	if t[i].MJD == mjd || i == 0 {
		return t[i].EOP, nil
	}
	a, b := t[i-1], t[i]
	f := (mjd - a.MJD) / (b.MJD - a.MJD)
	return EOP{
		DUT1: a.DUT1 + f*(b.DUT1-a.DUT1),
		XP:   a.XP + f*(b.XP-a.XP),
		YP:   a.YP + f*(b.YP-a.YP),
	}, nil
}
