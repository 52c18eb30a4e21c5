package orient

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/rotation"
	"github.com/dstuartbryant/spacewego/internal/timescale"
)

const (
	arcsec   = math.Pi / (180 * 3600)
	turnAsec = 1296000.0 // arcseconds per revolution
)

// poly evaluates c[0] + c[1]t + c[2]t² + … by Horner's rule.
func poly(t float64, c ...float64) float64 {
	var v float64
	for i := len(c) - 1; i >= 0; i-- {
		v = v*t + c[i]
	}
	return v
}

// delaunay holds the five luni-solar fundamental arguments, radians.
type delaunay struct {
	l, lp, f, d, om float64
}

// fundamentalArgs evaluates the IERS 2003 Delaunay arguments at t Julian
// centuries of TT.
func fundamentalArgs(t float64) delaunay {
	wrap := func(asec float64) float64 { return math.Mod(asec, turnAsec) * arcsec }
	return delaunay{
		l:  wrap(poly(t, 485868.249036, 1717915923.2178, 31.8792, 0.051635, -0.00024470)),
		lp: wrap(poly(t, 1287104.79305, 129596581.0481, -0.5532, 0.000136, -0.00001149)),
		f:  wrap(poly(t, 335779.526232, 1739527262.8478, -12.7512, -0.001037, 0.00000417)),
		d:  wrap(poly(t, 1072260.70369, 1602961601.2090, -6.3706, 0.006593, -0.00003169)),
		om: wrap(poly(t, 450160.398036, -6962890.5431, 7.4722, 0.007702, -0.00005939)),
	}
}

func (a delaunay) combine(nl, nlp, nf, nd, nom int) float64 {
	return float64(nl)*a.l + float64(nlp)*a.lp + float64(nf)*a.f + float64(nd)*a.d + float64(nom)*a.om
}

// nutationTerm is one luni-solar row: argument multipliers and the
// longitude/obliquity amplitudes in units of 0.1 μas.
type nutationTerm struct {
	nl, nlp, nf, nd, nom int
	ps, pst, pc          float64
	ec, ect, es          float64
}

// nutationSeries is the leading part of the IAU 2000B luni-solar series,
// ordered by amplitude.
var nutationSeries = []nutationTerm{
	{0, 0, 0, 0, 1, -172064161, -174666, 33386, 92052331, 9086, 15377},
	{0, 0, 2, -2, 2, -13170906, -1675, -13696, 5730336, -3015, -4587},
	{0, 0, 2, 0, 2, -2276413, -234, 2796, 978459, -485, 1374},
	{0, 0, 0, 0, 2, 2074554, 207, -698, -897492, 470, -291},
	{0, 1, 0, 0, 0, 1475877, -3633, 11817, 73871, -184, -1924},
	{0, 1, 2, -2, 2, -516821, 1226, -524, 224386, -677, -174},
	{1, 0, 0, 0, 0, 711159, 73, -872, -6750, 0, 358},
	{0, 0, 2, 0, 1, -387298, -367, 380, 200728, 18, 318},
	{1, 0, 2, 0, 2, -301461, -36, 816, 129025, -63, 367},
	{0, -1, 2, -2, 2, 215829, -494, 111, -95929, 299, 132},
	{0, 0, 2, -2, 1, 128227, 137, 181, -68982, -9, 39},
	{-1, 0, 2, 0, 2, 123457, 11, 19, -53311, 32, -4},
	{-1, 0, 0, 2, 0, 156994, 10, -168, -1235, 0, 82},
	{1, 0, 0, 0, 1, 63110, 63, 27, -33228, 0, -9},
	{-1, 0, 0, 0, 1, -57976, -63, -189, 31429, 0, -75},
	{-1, 0, 2, 2, 2, -59641, -11, 149, 25543, -11, 66},
	{1, 0, 2, 0, 1, -51613, -42, 129, 26366, 0, 78},
	{-2, 0, 2, 0, 1, 45893, 50, 31, -24236, -10, 20},
	{0, 0, 0, 2, 0, 63384, 11, -150, -1220, 0, 29},
	{0, 0, 2, 2, 2, -38571, -1, 158, 16452, -11, 68},
	{0, -2, 2, -2, 2, 32481, 0, 0, -13870, 0, 0},
	{-2, 0, 0, 2, 0, -47722, 0, -18, 477, 0, -25},
	{2, 0, 2, 0, 2, -31046, -1, 131, 13238, -11, 59},
	{1, 0, 2, -2, 2, 28593, 0, -1, -12338, 10, -3},
	{-1, 0, 2, 0, 1, 20441, 21, 10, -10758, 0, -3},
	{2, 0, 0, 0, 0, 29243, 0, -74, -609, 0, 13},
	{0, 0, 2, 0, 0, 25887, 0, -66, -550, 0, 11},
	{0, 1, 0, 0, 1, -14053, -25, 79, 8551, -2, -45},
	{-1, 0, 0, 2, 1, 15164, 10, 11, -8001, 0, -1},
	{0, 2, 2, -2, 2, -15794, 72, -16, 6850, -42, -5},
}

const (
	// Fixed offsets standing in for the planetary nutation terms, arcsec.
	planetaryDpsi = -0.135e-3
	planetaryDeps = 0.388e-3

	tenthMicroasec = 1e-7 * arcsec
)

// Nutation returns the nutation in longitude and obliquity, radians, at t
// Julian centuries of TT, with the IAU 2006 adjustments applied.
func Nutation(t float64) (dpsi, deps float64) {
	args := fundamentalArgs(t)
	for i := len(nutationSeries) - 1; i >= 0; i-- {
		n := nutationSeries[i]
		s, c := math.Sincos(args.combine(n.nl, n.nlp, n.nf, n.nd, n.nom))
		dpsi += (n.ps+n.pst*t)*s + n.pc*c
		deps += (n.ec+n.ect*t)*c + n.es*s
	}
	dpsi = dpsi*tenthMicroasec + planetaryDpsi*arcsec
	deps = deps*tenthMicroasec + planetaryDeps*arcsec

	fj2 := -2.7774e-6 * t
	return dpsi * (1 + 0.4697e-6 + fj2), deps * (1 + fj2)
}

// MeanObliquity is the IAU 2006 obliquity of the ecliptic, radians.
func MeanObliquity(t float64) float64 {
	return poly(t, 84381.406, -46.836769, -0.0001831, 0.00200340, -0.000000576, -0.0000000434) * arcsec
}

// fwAngles are the IAU 2006 Fukushima-Williams bias-precession angles, radians.
type fwAngles struct {
	gamb, phib, psib, epsa float64
}

func fukushimaWilliams(t float64) fwAngles {
	return fwAngles{
		gamb: poly(t, -0.052928, 10.556378, 0.4932044, -0.00031238, -0.000002788, 0.0000000260) * arcsec,
		phib: poly(t, 84381.412819, -46.811016, 0.0511268, 0.00053289, -0.000000440, -0.0000000176) * arcsec,
		psib: poly(t, -0.041775, 5038.481484, 1.5584175, -0.00018522, -0.000026452, -0.0000000148) * arcsec,
		epsa: MeanObliquity(t),
	}
}

func (a fwAngles) matrix(dpsi, deps float64) *r3.Mat {
	return rotation.Chain(
		rotation.R1(-(a.epsa + deps)),
		rotation.R3(-(a.psib + dpsi)),
		rotation.R1(a.phib),
		rotation.R3(a.gamb),
	)
}

// BiasPrecessionNutation returns the GCRS to true-of-date matrix at e.
func BiasPrecessionNutation(e timescale.Epoch) *r3.Mat {
	t := e.J2000Centuries()
	dpsi, deps := Nutation(t)
	return fukushimaWilliams(t).matrix(dpsi, deps)
}

// sTerm is one periodic term of the s+XY/2 series, μas.
type sTerm struct {
	nl, nlp, nf, nd, nom int
	sin, cos             float64
}

var (
	sPoly = []float64{94.00, 3808.65, -122.68, -72574.11, 27.98, 15.62}

	sSeries0 = []sTerm{
		{0, 0, 0, 0, 1, -2640.73, 0.39},
		{0, 0, 0, 0, 2, -63.53, 0.02},
		{0, 0, 2, -2, 3, -11.75, -0.01},
		{0, 0, 2, -2, 1, -11.21, -0.01},
		{0, 0, 2, -2, 2, 4.57, 0},
		{0, 0, 2, 0, 3, -2.02, 0},
		{0, 0, 2, 0, 1, -1.98, 0},
		{0, 0, 0, 0, 3, 1.72, 0},
		{0, 1, 0, 0, 1, 1.41, 0.01},
		{0, 1, 0, 0, -1, 1.26, 0.01},
		{1, 0, 0, 0, -1, 0.63, 0},
		{1, 0, 0, 0, 1, 0.63, 0},
	}

	sSeries2 = []sTerm{
		{0, 0, 0, 0, 1, 743.52, -0.17},
		{0, 0, 2, -2, 2, 56.91, 0.06},
		{0, 0, 2, 0, 2, 9.84, -0.01},
		{0, 0, 0, 0, 2, -8.85, 0.01},
	}
)

func sumSeries(args delaunay, terms []sTerm) float64 {
	var w float64
	for i := len(terms) - 1; i >= 0; i-- {
		s, c := math.Sincos(args.combine(terms[i].nl, terms[i].nlp, terms[i].nf, terms[i].nd, terms[i].nom))
		w += terms[i].sin*s + terms[i].cos*c
	}
	return w
}

// CIOLocator returns s, radians, given the CIP coordinates at t Julian
// centuries of TT.
func CIOLocator(t, x, y float64) float64 {
	args := fundamentalArgs(t)
	w := poly(t, sPoly...) + sumSeries(args, sSeries0) + sumSeries(args, sSeries2)*t*t
	return w*1e-6*arcsec - x*y/2
}

// CIP returns the celestial intermediate pole coordinates X, Y and the CIO
// locator s at e, all in radians.
func CIP(e timescale.Epoch) (x, y, s float64) {
	t := e.J2000Centuries()
	npb := BiasPrecessionNutation(e)
	x, y = npb.At(2, 0), npb.At(2, 1)
	return x, y, CIOLocator(t, x, y)
}
