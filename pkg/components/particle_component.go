package components

import "github.com/decker502/particle-baker/internal/particle"

// ParticleComponent represents a single live particle owned by the
// simulation engine. It stores all the runtime state for one particle:
// kinematics, lifetime, the base values sampled at spawn, and the
// appearance derived from the lifetime curves on the last step.
//
// Particles are created and removed by the engine only; readers get copies.
// This is a pure data component - it contains no behaviour.
type ParticleComponent struct {
	ID        int // unique between engine resets, strictly increasing
	EmitterID int // index of the owning emitter in Settings.Emitters

	// Position (世界坐标, 像素) and velocity (像素/秒)
	X, Y      float64
	VelocityX float64
	VelocityY float64

	// Lifecycle (生命周期, 秒)
	Life    float64 // remaining
	MaxLife float64

	// Rotation in radians; spin and angular velocity accumulate into it.
	Rotation float64

	// Born during a prewarm pass (used by the exporter to split sequences).
	Prewarmed bool

	Base BaseValues

	// Derived appearance (每步根据生命周期曲线更新)
	ScaleX float64
	ScaleY float64
	Color  particle.RGBA
	Alpha  float64 // 0-1, taken from the gradient alpha channel
}

// BaseValues are sampled once per particle from the emitter's ranges and
// multiply the matching lifetime curve, so identical curves still give
// varied particles.
type BaseValues struct {
	SizeX           float64
	SizeY           float64
	SpeedScale      float64
	Weight          float64
	Spin            float64 // degrees/second
	Gravity         float64
	Drag            float64
	NoiseStrength   float64
	NoiseFrequency  float64
	NoiseSpeed      float64
	Attraction      float64
	Vortex          float64
	AngularVelocity float64 // degrees/second
}

// LifeFraction returns the elapsed-life ratio t = 1 - life/maxLife in [0, 1].
func (p *ParticleComponent) LifeFraction() float64 {
	if p.MaxLife <= 0 {
		return 1
	}
	return particle.Clamp(1-p.Life/p.MaxLife, 0, 1)
}
