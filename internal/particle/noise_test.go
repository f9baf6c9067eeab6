package particle

import (
	"math"
	"testing"
)

func TestHashNoise_Deterministic(t *testing.T) {
	var n HashNoise
	for _, p := range [][3]float64{{0, 0, 0}, {12.5, -3.25, 0.75}, {-100.1, 44.4, 9}} {
		ax, ay := n.Sample(p[0], p[1], p[2])
		bx, by := n.Sample(p[0], p[1], p[2])
		if ax != bx || ay != by {
			t.Errorf("Sample%v not deterministic: (%v,%v) vs (%v,%v)", p, ax, ay, bx, by)
		}
		if mag := math.Hypot(ax, ay); mag > 1+1e-9 {
			t.Errorf("Sample%v magnitude %v exceeds 1", p, mag)
		}
	}
}

func TestHashNoise_VariesWithInput(t *testing.T) {
	var n HashNoise
	x0, y0 := n.Sample(0.5, 0.5, 0)
	distinct := 0
	for i := 1; i <= 10; i++ {
		x, y := n.Sample(0.5+float64(i)*1.7, 0.5, 0)
		if x != x0 || y != y0 {
			distinct++
		}
	}
	if distinct == 0 {
		t.Error("noise should vary across lattice cells")
	}
}

func TestHashNoise_Continuous(t *testing.T) {
	var n HashNoise
	ax, ay := n.Sample(3.3, 7.1, 1.2)
	bx, by := n.Sample(3.3+1e-6, 7.1, 1.2)
	if math.Abs(ax-bx) > 1e-3 || math.Abs(ay-by) > 1e-3 {
		t.Errorf("noise should be continuous: (%v,%v) vs (%v,%v)", ax, ay, bx, by)
	}
}

func TestNewNoiseField(t *testing.T) {
	if _, ok := NewNoiseField(NoiseHash, 1).(HashNoise); !ok {
		t.Error("hash kind should return HashNoise")
	}
	if _, ok := NewNoiseField("", 1).(HashNoise); !ok {
		t.Error("empty kind should default to HashNoise")
	}
	p, ok := NewNoiseField(NoisePerlin, 1).(*PerlinNoise)
	if !ok {
		t.Fatal("perlin kind should return *PerlinNoise")
	}
	ax, ay := p.Sample(1.25, 2.5, 0.5)
	bx, by := NewPerlinNoise(1).Sample(1.25, 2.5, 0.5)
	if ax != bx || ay != by {
		t.Error("perlin fields with the same seed should agree")
	}
}

func TestTimeline_FrameCount(t *testing.T) {
	tests := []struct {
		tl   Timeline
		want int
	}{
		{Timeline{Duration: 2, FPS: 30}, 60},
		{Timeline{Duration: 1.01, FPS: 30}, 30},
		{Timeline{Duration: 0, FPS: 30}, 0},
		{Timeline{Duration: 1, FPS: 0}, 0},
	}
	for _, tt := range tests {
		if got := tt.tl.FrameCount(); got != tt.want {
			t.Errorf("%+v FrameCount() = %d, want %d", tt.tl, got, tt.want)
		}
	}
}
