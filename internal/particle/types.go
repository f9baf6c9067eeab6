// Package particle provides the data model, curve evaluation and noise
// sampling for particle effect presets.
//
// A preset (Settings) holds an ordered list of emitters plus the shared
// timeline and export thresholds. Settings are treated as read-only by the
// simulation engine and the export pipeline: a bake takes a snapshot and never
// writes back into it.
package particle

// MaxEmitters is the number of emitters a single preset may hold.
const MaxEmitters = 5

// Settings is the complete, immutable-per-bake effect description.
type Settings struct {
	Emitters []EmitterConfig
	Timeline Timeline
	Export   ExportSettings

	// Seed drives the engine's random source. Two bakes of the same settings
	// with the same seed produce identical frames.
	Seed int64

	// Noise selects the turbulence implementation.
	Noise NoiseKind
}

// Timeline is shared by every emitter of a preset.
type Timeline struct {
	Duration float64 // loop / effect duration in seconds
	FPS      int     // bake frame rate
	Width    int     // canvas width in pixels
	Height   int     // canvas height in pixels
}

// FrameCount returns the number of frames covering one duration.
func (tl Timeline) FrameCount() int {
	if tl.FPS <= 0 || tl.Duration <= 0 {
		return 0
	}
	return int(tl.Duration*float64(tl.FPS) + 0.5)
}

// FrameStep returns the simulation step of one baked frame.
func (tl Timeline) FrameStep() float64 {
	if tl.FPS <= 0 {
		return 0
	}
	return 1.0 / float64(tl.FPS)
}

// ExportSettings controls keyframe reduction and document naming.
type ExportSettings struct {
	PositionThreshold float64 // pixels
	RotationThreshold float64 // degrees
	ScaleThreshold    float64 // scale units
	ColorThreshold    float64 // 0-255 channel units

	SkeletonName     string
	RuntimeVersion   string
	LoopAnimation    string
	PrewarmAnimation string
}

// NoiseKind selects a NoiseField implementation.
type NoiseKind string

const (
	NoiseHash   NoiseKind = "hash"
	NoisePerlin NoiseKind = "perlin"
)

// EmissionMode selects whether shapes are filled or walked along their edge.
type EmissionMode string

const (
	ModeArea EmissionMode = "area"
	ModeEdge EmissionMode = "edge"
)

// EmissionPattern selects how an emitter spawns over time.
type EmissionPattern string

const (
	PatternContinuous EmissionPattern = "continuous"
	PatternBurst      EmissionPattern = "burst"
	PatternDuration   EmissionPattern = "duration"
)

// SpawnAngleMode selects the initial rotation of a particle.
type SpawnAngleMode string

const (
	SpawnAngleMotion SpawnAngleMode = "motion" // aligned to initial velocity
	SpawnAngleFixed  SpawnAngleMode = "fixed"
	SpawnAngleRandom SpawnAngleMode = "random"
	SpawnAngleRange  SpawnAngleMode = "range"
)

// SpriteKind selects the procedural sprite rasterized into the atlas.
type SpriteKind string

const (
	SpriteCircle   SpriteKind = "circle"
	SpriteGlow     SpriteKind = "glow"
	SpriteSquare   SpriteKind = "square"
	SpriteStar     SpriteKind = "star"
	SpriteTriangle SpriteKind = "triangle"
)

// BlendMode is copied onto the exported slots.
type BlendMode string

const (
	BlendNormal   BlendMode = "normal"
	BlendAdditive BlendMode = "additive"
)

// EmitterConfig describes one particle source.
type EmitterConfig struct {
	Name    string
	Enabled bool // included in export
	Visible bool // drawn in the live preview

	Shape Shape
	Mode  EmissionMode

	Pattern       EmissionPattern
	Rate          float64 // particles per second (continuous, duration)
	BurstCount    int
	BurstCycles   int     // ignored while looping
	BurstInterval float64 // seconds between bursts
	WindowStart   float64 // duration pattern window, seconds after start delay
	WindowEnd     float64
	MaxParticles  int // live cap, 0 = unlimited

	X, Y       float64 // anchor
	Angle      float64 // launch direction, degrees (0 = right, 90 = down)
	Spread     float64 // full spread, degrees
	StartDelay float64
	Looping    bool
	Prewarm    bool

	// Over-lifetime curves, evaluated at the lifetime fraction.
	SizeX           Curve
	SizeY           Curve
	Speed           Curve
	Weight          Curve
	Spin            Curve
	Gravity         Curve
	Drag            Curve
	Noise           Curve
	Attraction      Curve
	Vortex          Curve
	AngularVelocity Curve
	Color           ColorGradient

	// Per-particle base samples.
	Lifetime            Range
	LaunchSpeed         Range
	SizeXBase           Range
	SizeYBase           Range
	SpeedScale          Range
	WeightBase          Range
	SpinBase            Range // degrees per second
	GravityBase         Range // pixels per second squared
	DragBase            Range
	NoiseStrength       Range
	NoiseFrequency      Range
	NoiseSpeed          Range
	AttractionBase      Range
	VortexBase          Range
	AngularVelocityBase Range // degrees per second

	ScaleRatioX float64 // 0 means 1
	ScaleRatioY float64

	AttractionX, AttractionY float64
	VortexX, VortexY         float64

	Sprite          SpriteKind
	Blend           BlendMode
	SpawnAngle      SpawnAngleMode
	SpawnAngleValue float64 // degrees, fixed mode
	SpawnAngleMin   float64 // degrees, range mode
	SpawnAngleMax   float64
}

// Range is a [Min, Max] pair sampled uniformly once per particle.
type Range struct {
	Min float64
	Max float64
}

// Fixed returns a range that always samples v.
func Fixed(v float64) Range {
	return Range{Min: v, Max: v}
}

// Sample draws a value in [Min, Max] from r.
func (rg Range) Sample(r Rand) float64 {
	return RandomInRange(r, rg.Min, rg.Max)
}

// IsZero reports whether the range is the zero value.
func (rg Range) IsZero() bool {
	return rg.Min == 0 && rg.Max == 0
}

// AnyPrewarm reports whether any enabled emitter loops with prewarm on.
func (s *Settings) AnyPrewarm() bool {
	for i := range s.Emitters {
		e := &s.Emitters[i]
		if e.Enabled && e.Looping && e.Prewarm {
			return true
		}
	}
	return false
}

// AnyLooping reports whether any enabled emitter loops.
func (s *Settings) AnyLooping() bool {
	for i := range s.Emitters {
		if s.Emitters[i].Enabled && s.Emitters[i].Looping {
			return true
		}
	}
	return false
}

// MaxLoopingLifetime returns the largest configured lifetime among enabled
// looping emitters, the buffer needed to capture particles that wrap.
func (s *Settings) MaxLoopingLifetime() float64 {
	longest := 0.0
	for i := range s.Emitters {
		e := &s.Emitters[i]
		if e.Enabled && e.Looping && e.Lifetime.Max > longest {
			longest = e.Lifetime.Max
		}
	}
	return longest
}
