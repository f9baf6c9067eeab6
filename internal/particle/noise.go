package particle

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// NoiseField samples a 2D turbulence force at a position and time.
// Implementations are pure: the same (x, y, time) always gives the same force.
type NoiseField interface {
	Sample(x, y, time float64) (fx, fy float64)
}

// NewNoiseField returns the field selected by kind. Unknown kinds use HashNoise.
func NewNoiseField(kind NoiseKind, seed int64) NoiseField {
	if kind == NoisePerlin {
		return NewPerlinNoise(seed)
	}
	return HashNoise{}
}

// HashNoise is a lattice value noise driven by an integer hash. It needs no
// state, so one value is shared by every emitter.
type HashNoise struct{}

// Sample returns a force whose direction and magnitude come from two
// decorrelated noise lookups. Magnitude is in [0, 1].
func (HashNoise) Sample(x, y, time float64) (float64, float64) {
	angle := valueNoise3(x, y, time) * 2 * math.Pi
	magnitude := valueNoise3(x+31.416, y-47.853, time+12.5)
	return math.Cos(angle) * magnitude, math.Sin(angle) * magnitude
}

// valueNoise3 interpolates lattice hashes with a smoothstep fade. Result in [0, 1).
func valueNoise3(x, y, z float64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	fx, fy, fz := fade(x-x0), fade(y-y0), fade(z-z0)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)

	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }
	corner := func(dx, dy, dz int64) float64 { return hash3(ix+dx, iy+dy, iz+dz) }

	x00 := lerp(corner(0, 0, 0), corner(1, 0, 0), fx)
	x10 := lerp(corner(0, 1, 0), corner(1, 1, 0), fx)
	x01 := lerp(corner(0, 0, 1), corner(1, 0, 1), fx)
	x11 := lerp(corner(0, 1, 1), corner(1, 1, 1), fx)
	return lerp(lerp(x00, x10, fy), lerp(x01, x11, fy), fz)
}

func fade(t float64) float64 {
	return t * t * (3 - 2*t)
}

// hash3 mixes three lattice coordinates into [0, 1).
func hash3(x, y, z int64) float64 {
	h := uint64(x)*0x9E3779B97F4A7C15 ^ uint64(y)*0xC2B2AE3D27D4EB4F ^ uint64(z)*0x165667B19E3779F9
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	h *= 0xC4CEB9FE1A85EC53
	h ^= h >> 33
	return float64(h>>11) / float64(1<<53)
}

// PerlinNoise samples gradient noise from go-perlin. Output components lie
// roughly in [-1, 1].
type PerlinNoise struct {
	p *perlin.Perlin
}

// NewPerlinNoise builds a Perlin field for the given seed.
func NewPerlinNoise(seed int64) *PerlinNoise {
	return &PerlinNoise{p: perlin.NewPerlin(2, 2, 3, seed)}
}

// Sample returns the force at (x, y, time).
func (n *PerlinNoise) Sample(x, y, time float64) (float64, float64) {
	return n.p.Noise3D(x, y, time), n.p.Noise3D(x+101.7, y+57.3, time)
}
