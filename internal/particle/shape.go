package particle

import "math"

// ShapeKind names a Shape variant.
type ShapeKind string

const (
	ShapePoint       ShapeKind = "point"
	ShapeLine        ShapeKind = "line"
	ShapeCircle      ShapeKind = "circle"
	ShapeRect        ShapeKind = "rectangle"
	ShapeRoundedRect ShapeKind = "rounded_rectangle"
)

// Shape is the emitter spawn geometry. Each variant carries its own parameters.
type Shape interface {
	Kind() ShapeKind
}

// PointShape spawns every particle at the anchor.
type PointShape struct{}

// LineShape spawns along a segment centred on the anchor.
type LineShape struct {
	Length float64
	Angle  float64 // degrees
}

// CircleShape spawns inside or on a circle around the anchor.
type CircleShape struct {
	Radius float64
}

// RectShape spawns inside or on an axis-aligned rectangle centred on the anchor.
type RectShape struct {
	Width  float64
	Height float64
}

// RoundedRectShape is a RectShape whose corners are quarter circles.
type RoundedRectShape struct {
	Width        float64
	Height       float64
	CornerRadius float64
}

func (PointShape) Kind() ShapeKind       { return ShapePoint }
func (LineShape) Kind() ShapeKind        { return ShapeLine }
func (CircleShape) Kind() ShapeKind      { return ShapeCircle }
func (RectShape) Kind() ShapeKind        { return ShapeRect }
func (RoundedRectShape) Kind() ShapeKind { return ShapeRoundedRect }

// EffectiveCornerRadius returns the corner radius clamped to half of each dimension.
func (s RoundedRectShape) EffectiveCornerRadius() float64 {
	r := s.CornerRadius
	r = math.Min(r, s.Width/2)
	r = math.Min(r, s.Height/2)
	return math.Max(r, 0)
}

// SampleShape returns a spawn offset from the emitter anchor.
//
// The circle area sample keeps the radius linearly uniform in [0, R], so
// density is higher near the centre. Exported effects depend on that look.
func SampleShape(shape Shape, mode EmissionMode, r Rand) (dx, dy float64) {
	switch s := shape.(type) {
	case nil, PointShape:
		return 0, 0

	case LineShape:
		offset := (r.Float64() - 0.5) * s.Length
		rad := s.Angle * math.Pi / 180
		return offset * math.Cos(rad), offset * math.Sin(rad)

	case CircleShape:
		angle := r.Float64() * 2 * math.Pi
		radius := s.Radius
		if mode != ModeEdge {
			radius = r.Float64() * s.Radius
		}
		return radius * math.Cos(angle), radius * math.Sin(angle)

	case RectShape:
		if mode == ModeEdge {
			return rectPerimeterPoint(s.Width, s.Height, r.Float64())
		}
		return (r.Float64() - 0.5) * s.Width, (r.Float64() - 0.5) * s.Height

	case RoundedRectShape:
		if mode == ModeEdge {
			return roundedRectPerimeterPoint(s.Width, s.Height, s.EffectiveCornerRadius(), r.Float64())
		}
		return (r.Float64() - 0.5) * s.Width, (r.Float64() - 0.5) * s.Height
	}
	return 0, 0
}

// rectPerimeterPoint maps u∈[0,1) onto the rectangle outline, walking
// top (left→right), right (top→bottom), bottom (right→left), left (bottom→top).
func rectPerimeterPoint(w, h, u float64) (float64, float64) {
	hw, hh := w/2, h/2
	t := u * 2 * (w + h)
	switch {
	case t < w:
		return -hw + t, -hh
	case t < w+h:
		return hw, -hh + (t - w)
	case t < 2*w+h:
		return hw - (t - w - h), hh
	default:
		return -hw, hh - (t - 2*w - h)
	}
}

// roundedRectPerimeterPoint walks the same order as rectPerimeterPoint with a
// quarter arc after each straight segment: top, top-right, right,
// bottom-right, bottom, bottom-left, left, top-left.
func roundedRectPerimeterPoint(w, h, cr, u float64) (float64, float64) {
	hw, hh := w/2, h/2
	sw := w - 2*cr
	sh := h - 2*cr
	arc := math.Pi * cr / 2
	t := u * (2*(sw+sh) + 4*arc)

	corner := func(cx, cy, start, t float64) (float64, float64) {
		a := start
		if arc > 0 {
			a += (t / arc) * (math.Pi / 2)
		}
		return cx + cr*math.Cos(a), cy + cr*math.Sin(a)
	}

	if t < sw {
		return -hw + cr + t, -hh
	}
	t -= sw
	if t < arc {
		return corner(hw-cr, -hh+cr, -math.Pi/2, t)
	}
	t -= arc
	if t < sh {
		return hw, -hh + cr + t
	}
	t -= sh
	if t < arc {
		return corner(hw-cr, hh-cr, 0, t)
	}
	t -= arc
	if t < sw {
		return hw - cr - t, hh
	}
	t -= sw
	if t < arc {
		return corner(-hw+cr, hh-cr, math.Pi/2, t)
	}
	t -= arc
	if t < sh {
		return -hw, hh - cr - t
	}
	t -= sh
	return corner(-hw+cr, -hh+cr, math.Pi, math.Min(t, arc))
}
