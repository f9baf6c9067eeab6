package systems

import (
	"math"
	"testing"

	"github.com/decker502/particle-baker/internal/particle"
)

// spawnOnly returns a burst emitter whose particles stay where they spawn
// for the first step.
func spawnOnly(count int, shape particle.Shape, mode particle.EmissionMode) particle.EmitterConfig {
	cfg := burstEmitter(count)
	cfg.Shape = shape
	cfg.Mode = mode
	cfg.LaunchSpeed = particle.Fixed(0)
	cfg.Lifetime = particle.Fixed(10)
	cfg.X, cfg.Y = 200, 150
	return cfg
}

// TestSpawn_CircleEdgeOnRadius 验证边缘模式圆形发射点都在半径上
func TestSpawn_CircleEdgeOnRadius(t *testing.T) {
	const radius = 40.0
	cfg := spawnOnly(300, particle.CircleShape{Radius: radius}, particle.ModeEdge)
	ps := NewParticleSystem(testSettings(cfg), WithRand(particle.NewRand(11)))
	ps.Advance(1.0 / 30)

	if ps.ParticleCount() != 300 {
		t.Fatalf("count = %d, want 300", ps.ParticleCount())
	}
	for _, p := range ps.Particles() {
		if d := math.Hypot(p.X-cfg.X, p.Y-cfg.Y); math.Abs(d-radius) > 1e-9 {
			t.Fatalf("particle %d at distance %v, want %v", p.ID, d, radius)
		}
	}
}

// TestSpawn_ShapeBounds 验证各形状面积模式的发射点在范围内
func TestSpawn_ShapeBounds(t *testing.T) {
	tests := []struct {
		name   string
		shape  particle.Shape
		maxAbs [2]float64
	}{
		{"Point", particle.PointShape{}, [2]float64{0, 0}},
		{"Horizontal line", particle.LineShape{Length: 80}, [2]float64{40, 1e-9}},
		{"Circle", particle.CircleShape{Radius: 25}, [2]float64{25, 25}},
		{"Rect", particle.RectShape{Width: 60, Height: 20}, [2]float64{30, 10}},
		{"Rounded rect", particle.RoundedRectShape{Width: 60, Height: 20, CornerRadius: 5}, [2]float64{30, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := spawnOnly(200, tt.shape, particle.ModeArea)
			ps := NewParticleSystem(testSettings(cfg), WithRand(particle.NewRand(3)))
			ps.Advance(1.0 / 30)
			for _, p := range ps.Particles() {
				dx, dy := math.Abs(p.X-cfg.X), math.Abs(p.Y-cfg.Y)
				if dx > tt.maxAbs[0]+1e-9 || dy > tt.maxAbs[1]+1e-9 {
					t.Fatalf("particle %d offset (%v, %v) outside %v", p.ID, dx, dy, tt.maxAbs)
				}
			}
		})
	}
}

// TestSpawn_LaunchSpread 验证初速度方向落在 Angle ± Spread/2 内
func TestSpawn_LaunchSpread(t *testing.T) {
	cfg := burstEmitter(200)
	cfg.Angle = 45
	cfg.Spread = 20
	cfg.LaunchSpeed = particle.Range{Min: 50, Max: 150}
	ps := NewParticleSystem(testSettings(cfg), WithRand(particle.NewRand(5)))
	ps.Advance(1e-6)

	for _, p := range ps.Particles() {
		deg := math.Atan2(p.VelocityY, p.VelocityX) * 180 / math.Pi
		if deg < 35-1e-6 || deg > 55+1e-6 {
			t.Fatalf("particle %d launched at %v°, want within [35, 55]", p.ID, deg)
		}
		speed := math.Hypot(p.VelocityX, p.VelocityY)
		if speed < 50-1e-6 || speed > 150+1e-6 {
			t.Fatalf("particle %d speed %v outside [50, 150]", p.ID, speed)
		}
	}
}

// TestSpawn_BaseValuesSampledFromRanges 验证每个粒子的基础值取自配置区间
func TestSpawn_BaseValuesSampledFromRanges(t *testing.T) {
	cfg := burstEmitter(100)
	cfg.GravityBase = particle.Range{Min: 10, Max: 20}
	cfg.SpinBase = particle.Range{Min: -90, Max: 90}
	cfg.SizeXBase = particle.Range{Min: 0.5, Max: 1.5}
	ps := NewParticleSystem(testSettings(cfg))
	ps.Advance(1e-6)

	distinct := make(map[float64]bool)
	for _, p := range ps.Particles() {
		b := p.Base
		if b.Gravity < 10 || b.Gravity > 20 || b.Spin < -90 || b.Spin > 90 || b.SizeX < 0.5 || b.SizeX > 1.5 {
			t.Fatalf("particle %d base values out of range: %+v", p.ID, b)
		}
		distinct[b.Gravity] = true
	}
	if len(distinct) < 50 {
		t.Errorf("gravity base should vary per particle, %d distinct values", len(distinct))
	}
}
