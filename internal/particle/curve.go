package particle

import (
	"math"
	"sort"
)

// Interpolation selects how a curve blends between two points.
type Interpolation string

const (
	InterpLinear Interpolation = "Linear"
	InterpSmooth Interpolation = "Smooth" // ease-in/ease-out, r*r*(3-2r)
)

// CurvePoint is one control point of a lifetime curve.
type CurvePoint struct {
	Time  float64 // lifetime fraction 0-1
	Value float64
}

// Curve is a scalar function of the lifetime fraction.
type Curve struct {
	Points []CurvePoint
	Interp Interpolation
}

// ConstantCurve returns a one-point curve that always evaluates to v.
func ConstantCurve(v float64) Curve {
	return Curve{Points: []CurvePoint{{Time: 0, Value: v}}}
}

// LinearCurve returns a two-point linear curve from a (t=0) to b (t=1).
func LinearCurve(a, b float64) Curve {
	return Curve{Points: []CurvePoint{{0, a}, {1, b}}, Interp: InterpLinear}
}

// IsZero reports whether the curve has no points.
func (c Curve) IsZero() bool {
	return len(c.Points) == 0
}

// Evaluate returns the curve value at lifetime fraction t.
//
// Points are sorted by time before lookup, so callers may build curves in any
// order. Zero points evaluate to 0, one point to its value, and t outside the
// covered span to the nearest end value.
func (c Curve) Evaluate(t float64) float64 {
	points := c.Points
	switch len(points) {
	case 0:
		return 0
	case 1:
		return points[0].Value
	}

	less := func(i, j int) bool { return points[i].Time < points[j].Time }
	if !sort.SliceIsSorted(points, less) {
		points = append([]CurvePoint(nil), points...)
		sort.SliceStable(points, func(i, j int) bool { return points[i].Time < points[j].Time })
	}

	lo, hi, ratio := bracket(len(points), func(i int) float64 { return points[i].Time }, t)
	ratio = blend(ratio, c.Interp)
	return points[lo].Value + ratio*(points[hi].Value-points[lo].Value)
}

// bracket finds the pair of keys around t (clamped to [0,1]) and the blend
// ratio between them. Keys must be sorted by time.
func bracket(n int, timeAt func(int) float64, t float64) (lo, hi int, ratio float64) {
	t = Clamp(t, 0, 1)
	if t <= timeAt(0) {
		return 0, 0, 0
	}
	for i := 0; i < n-1; i++ {
		t0, t1 := timeAt(i), timeAt(i+1)
		if t < t0 || t > t1 {
			continue
		}
		span := t1 - t0
		if span <= 0 {
			return i + 1, i + 1, 0
		}
		return i, i + 1, (t - t0) / span
	}
	return n - 1, n - 1, 0
}

func blend(ratio float64, interp Interpolation) float64 {
	if interp == InterpSmooth {
		return ratio * ratio * (3 - 2*ratio)
	}
	return ratio
}

// RGBA is an 8-bit colour.
type RGBA struct {
	R, G, B, A uint8
}

// White is the default particle colour.
var White = RGBA{255, 255, 255, 255}

// ColorStop is one gradient key.
type ColorStop struct {
	Time  float64
	Color RGBA
}

// ColorGradient maps the lifetime fraction to a colour, each channel
// interpolated independently.
type ColorGradient struct {
	Stops  []ColorStop
	Interp Interpolation
}

// IsZero reports whether the gradient has no stops.
func (g ColorGradient) IsZero() bool {
	return len(g.Stops) == 0
}

// Evaluate returns the gradient colour at t. An empty gradient is opaque white.
func (g ColorGradient) Evaluate(t float64) RGBA {
	stops := g.Stops
	switch len(stops) {
	case 0:
		return White
	case 1:
		return stops[0].Color
	}

	less := func(i, j int) bool { return stops[i].Time < stops[j].Time }
	if !sort.SliceIsSorted(stops, less) {
		stops = append([]ColorStop(nil), stops...)
		sort.SliceStable(stops, func(i, j int) bool { return stops[i].Time < stops[j].Time })
	}

	lo, hi, ratio := bracket(len(stops), func(i int) float64 { return stops[i].Time }, t)
	ratio = blend(ratio, g.Interp)
	a, b := stops[lo].Color, stops[hi].Color
	mix := func(x, y uint8) uint8 {
		v := float64(x) + ratio*(float64(y)-float64(x))
		return uint8(Clamp(math.Round(v), 0, 255))
	}
	return RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
