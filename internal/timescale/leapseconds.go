package timescale

import (
	"sort"
	"time"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
)

// leapEntry is TAI-UTC in whole seconds effective from a UTC instant.
type leapEntry struct {
	from   int64 // unix seconds
	offset int64
}

func leapAt(y int, m time.Month, offset int64) leapEntry {
	return leapEntry{from: time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).Unix(), offset: offset}
}

// leapTable lists every TAI-UTC step since the 1972 introduction of integer
// leap seconds.
var leapTable = []leapEntry{
	leapAt(1972, time.January, 10),
	leapAt(1972, time.July, 11),
	leapAt(1973, time.January, 12),
	leapAt(1974, time.January, 13),
	leapAt(1975, time.January, 14),
	leapAt(1976, time.January, 15),
	leapAt(1977, time.January, 16),
	leapAt(1978, time.January, 17),
	leapAt(1979, time.January, 18),
	leapAt(1980, time.January, 19),
	leapAt(1981, time.July, 20),
	leapAt(1982, time.July, 21),
	leapAt(1983, time.July, 22),
	leapAt(1985, time.July, 23),
	leapAt(1988, time.January, 24),
	leapAt(1990, time.January, 25),
	leapAt(1991, time.January, 26),
	leapAt(1992, time.July, 27),
	leapAt(1993, time.July, 28),
	leapAt(1994, time.July, 29),
	leapAt(1996, time.January, 30),
	leapAt(1997, time.July, 31),
	leapAt(1999, time.January, 32),
	leapAt(2006, time.January, 33),
	leapAt(2009, time.January, 34),
	leapAt(2012, time.July, 35),
	leapAt(2015, time.July, 36),
	leapAt(2017, time.January, 37),
}

// TAIMinusUTC returns TAI-UTC in seconds at the given UTC unix time.
func TAIMinusUTC(unix int64) (int64, error) {
	i := sort.Search(len(leapTable), func(i int) bool { return leapTable[i].from > unix })
	if i == 0 {
		// The instant is valid; the table does not cover it, so this is a
		// missing-model-data failure rather than a domain error.
		return 0, astroerr.Model("timescale.TAIMinusUTC", "leap-seconds",
			"%s precedes the leap-second table (starts 1972-01-01)",
			time.Unix(unix, 0).UTC().Format(time.RFC3339))
	}
	return leapTable[i-1].offset, nil
}
