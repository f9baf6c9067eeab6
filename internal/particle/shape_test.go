package particle

import (
	"math"
	"testing"
)

// seqRand replays a fixed sequence of samples, wrapping around.
type seqRand struct {
	values []float64
	i      int
}

func (s *seqRand) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func TestSampleShape_Point(t *testing.T) {
	r := NewRand(1)
	for i := 0; i < 20; i++ {
		if dx, dy := SampleShape(PointShape{}, ModeArea, r); dx != 0 || dy != 0 {
			t.Fatalf("point shape sample = (%v, %v), want origin", dx, dy)
		}
	}
	if dx, dy := SampleShape(nil, ModeEdge, r); dx != 0 || dy != 0 {
		t.Errorf("nil shape should behave like a point")
	}
}

func TestSampleShape_LineCentred(t *testing.T) {
	line := LineShape{Length: 100, Angle: 90}
	dx, dy := SampleShape(line, ModeArea, &seqRand{values: []float64{0}})
	if math.Abs(dx) > 1e-9 || math.Abs(dy+50) > 1e-9 {
		t.Errorf("u=0 should map to one end (0,-50), got (%v, %v)", dx, dy)
	}
	dx, dy = SampleShape(line, ModeArea, &seqRand{values: []float64{0.5}})
	if math.Abs(dx) > 1e-9 || math.Abs(dy) > 1e-9 {
		t.Errorf("u=0.5 should map to the anchor, got (%v, %v)", dx, dy)
	}
}

func TestSampleShape_CircleEdgeOnRadius(t *testing.T) {
	r := NewRand(42)
	circle := CircleShape{Radius: 37.5}
	for i := 0; i < 1000; i++ {
		dx, dy := SampleShape(circle, ModeEdge, r)
		if d := math.Hypot(dx, dy); math.Abs(d-circle.Radius) > 1e-9 {
			t.Fatalf("edge sample %d at distance %v, want %v", i, d, circle.Radius)
		}
	}
}

func TestSampleShape_CircleAreaLinearRadius(t *testing.T) {
	// angle sample first, then radius sample
	dx, dy := SampleShape(CircleShape{Radius: 10}, ModeArea, &seqRand{values: []float64{0, 0.25}})
	if math.Abs(dx-2.5) > 1e-9 || math.Abs(dy) > 1e-9 {
		t.Errorf("radius should be u*R = 2.5 (no sqrt), got (%v, %v)", dx, dy)
	}

	r := NewRand(7)
	inner := 0
	const n = 20000
	for i := 0; i < n; i++ {
		dx, dy := SampleShape(CircleShape{Radius: 10}, ModeArea, r)
		if math.Hypot(dx, dy) < 5 {
			inner++
		}
	}
	// linear radius puts ~50% inside half the radius (area-uniform would be 25%)
	if frac := float64(inner) / n; frac < 0.45 || frac > 0.55 {
		t.Errorf("inner-half fraction = %v, want about 0.5", frac)
	}
}

func TestSampleShape_RectEdgeWalk(t *testing.T) {
	rect := RectShape{Width: 100, Height: 50}
	tests := []struct {
		u      float64
		wx, wy float64
	}{
		{0, -50, -25},         // top-left, start of top
		{50.0 / 300, 0, -25},  // middle of top
		{125.0 / 300, 50, 0},  // middle of right
		{200.0 / 300, 0, 25},  // middle of bottom
		{275.0 / 300, -50, 0}, // middle of left
	}
	for _, tt := range tests {
		dx, dy := SampleShape(rect, ModeEdge, &seqRand{values: []float64{tt.u}})
		if math.Abs(dx-tt.wx) > 1e-9 || math.Abs(dy-tt.wy) > 1e-9 {
			t.Errorf("u=%v -> (%v, %v), want (%v, %v)", tt.u, dx, dy, tt.wx, tt.wy)
		}
	}
}

func TestSampleShape_RectAreaInside(t *testing.T) {
	r := NewRand(3)
	for i := 0; i < 500; i++ {
		dx, dy := SampleShape(RectShape{Width: 80, Height: 20}, ModeArea, r)
		if math.Abs(dx) > 40 || math.Abs(dy) > 10 {
			t.Fatalf("area sample (%v, %v) outside rectangle", dx, dy)
		}
	}
}

func TestSampleShape_RoundedRectEdgeOnOutline(t *testing.T) {
	shape := RoundedRectShape{Width: 120, Height: 60, CornerRadius: 15}
	r := NewRand(99)
	hw, hh, cr := 60.0, 30.0, 15.0

	for i := 0; i < 2000; i++ {
		dx, dy := SampleShape(shape, ModeEdge, r)
		ax, ay := math.Abs(dx), math.Abs(dy)
		var dist float64
		if ax > hw-cr && ay > hh-cr {
			// corner arc: distance from the corner centre must equal cr
			dist = math.Abs(math.Hypot(ax-(hw-cr), ay-(hh-cr)) - cr)
		} else {
			dist = math.Min(math.Abs(ax-hw), math.Abs(ay-hh))
		}
		if dist > 1e-6 {
			t.Fatalf("sample (%v, %v) is %v off the outline", dx, dy, dist)
		}
	}
}

func TestRoundedRect_CornerRadiusClamped(t *testing.T) {
	s := RoundedRectShape{Width: 40, Height: 10, CornerRadius: 30}
	if got := s.EffectiveCornerRadius(); got != 5 {
		t.Errorf("EffectiveCornerRadius() = %v, want 5 (half the smaller side)", got)
	}
	// fully round ends: outline is a stadium, every sample still lands on it
	r := NewRand(5)
	for i := 0; i < 200; i++ {
		dx, dy := SampleShape(s, ModeEdge, r)
		if math.Abs(dx) > 20+1e-9 || math.Abs(dy) > 5+1e-9 {
			t.Fatalf("sample (%v, %v) outside bounds", dx, dy)
		}
	}
}
