package systems

import (
	"math"

	"github.com/decker502/particle-baker/internal/logging"
	"github.com/decker502/particle-baker/internal/particle"
	"github.com/decker502/particle-baker/pkg/components"
)

// wrapEpsilon absorbs the float drift of summing 1/fps steps, so an emitter
// stepped exactly duration*fps times lands on the loop boundary instead of
// one ulp short of it.
const wrapEpsilon = 1e-9

// Stats is the payload of the engine's per-step notification.
type Stats struct {
	Time          float64 // simulation time after the step
	ParticleCount int
}

// ParticleSystem is the particle simulation engine. It owns one runtime state
// per emitter and a flat pool of live particles, and advances both per step.
//
// The settings snapshot passed to NewParticleSystem is never written to. All
// randomness comes from a single injected source, so two engines built from
// the same settings and seed produce identical particles.
//
// The engine is single-threaded: callers own it exclusively.
type ParticleSystem struct {
	settings particle.Settings
	included []bool // emitters taking part in the simulation

	emitters  []components.EmitterComponent
	particles []components.ParticleComponent
	live      []int // live particle count per emitter

	rng    particle.Rand
	seeded bool // rng derived from settings.Seed, re-seeded on Reset
	noise  particle.NoiseField

	nextID int
	time   float64

	subscribers map[int]func(Stats)
	nextSubID   int
}

// Option configures a ParticleSystem.
type Option func(*ParticleSystem)

// WithRand injects the random source used for every spawn-time sample.
func WithRand(r particle.Rand) Option {
	return func(ps *ParticleSystem) {
		ps.rng = r
		ps.seeded = false
	}
}

// WithNoise overrides the noise field selected by Settings.Noise.
func WithNoise(n particle.NoiseField) Option {
	return func(ps *ParticleSystem) { ps.noise = n }
}

// WithEmitterFilter restricts the simulation to emitters accepted by keep.
// Excluded emitters never spawn.
func WithEmitterFilter(keep func(index int, cfg *particle.EmitterConfig) bool) Option {
	return func(ps *ParticleSystem) {
		for i := range ps.settings.Emitters {
			ps.included[i] = keep(i, &ps.settings.Emitters[i])
		}
	}
}

// EnabledOnly keeps the emitters flagged for export.
func EnabledOnly(_ int, cfg *particle.EmitterConfig) bool { return cfg.Enabled }

// VisibleOnly keeps the emitters shown in the live preview.
func VisibleOnly(_ int, cfg *particle.EmitterConfig) bool { return cfg.Visible }

// NewParticleSystem creates an engine for a settings snapshot.
func NewParticleSystem(settings particle.Settings, opts ...Option) *ParticleSystem {
	n := len(settings.Emitters)
	ps := &ParticleSystem{
		settings:    settings,
		included:    make([]bool, n),
		emitters:    make([]components.EmitterComponent, n),
		live:        make([]int, n),
		rng:         particle.NewRand(settings.Seed),
		seeded:      true,
		noise:       particle.NewNoiseField(settings.Noise, settings.Seed),
		subscribers: make(map[int]func(Stats)),
	}
	for i := range ps.included {
		ps.included[i] = true
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// Settings returns the snapshot the engine simulates.
func (ps *ParticleSystem) Settings() *particle.Settings {
	return &ps.settings
}

// Included reports whether emitter i takes part in the simulation.
func (ps *ParticleSystem) Included(i int) bool {
	return i >= 0 && i < len(ps.included) && ps.included[i]
}

// Time returns the global simulation time.
func (ps *ParticleSystem) Time() float64 {
	return ps.time
}

// NextID returns the id the next spawned particle will get.
func (ps *ParticleSystem) NextID() int {
	return ps.nextID
}

// Particles returns a copy of the live particles, ordered by id.
func (ps *ParticleSystem) Particles() []components.ParticleComponent {
	out := make([]components.ParticleComponent, len(ps.particles))
	copy(out, ps.particles)
	return out
}

// ParticleCount returns the number of live particles.
func (ps *ParticleSystem) ParticleCount() int {
	return len(ps.particles)
}

// Emitter returns a copy of the runtime state of emitter i.
func (ps *ParticleSystem) Emitter(i int) components.EmitterComponent {
	return ps.emitters[i]
}

// Subscribe registers fn to be called after every step. The returned function
// removes the subscription.
func (ps *ParticleSystem) Subscribe(fn func(Stats)) (unsubscribe func()) {
	id := ps.nextSubID
	ps.nextSubID++
	ps.subscribers[id] = fn
	return func() { delete(ps.subscribers, id) }
}

// Advance runs one simulation step of dt seconds.
func (ps *ParticleSystem) Advance(dt float64) {
	ps.step(dt, false)
}

// AdvanceSkipReset runs one step without wrapping looping emitters back to
// their start. Used by prewarm passes.
func (ps *ParticleSystem) AdvanceSkipReset(dt float64) {
	ps.step(dt, true)
}

// Reset clears every particle and emitter state and restarts ids from zero.
func (ps *ParticleSystem) Reset() {
	ps.particles = ps.particles[:0]
	for i := range ps.emitters {
		ps.emitters[i].Reset()
		ps.live[i] = 0
	}
	ps.nextID = 0
	ps.time = 0
	if ps.seeded {
		ps.rng = particle.NewRand(ps.settings.Seed)
	}
	logging.For("ParticleSystem").Debug("engine reset", "emitters", len(ps.emitters))
}

// IsPrewarmEmitter reports whether emitter i takes part in prewarm passes.
func (ps *ParticleSystem) IsPrewarmEmitter(i int) bool {
	if !ps.Included(i) {
		return false
	}
	cfg := &ps.settings.Emitters[i]
	return cfg.Looping && cfg.Prewarm
}

// HasPrewarm reports whether any simulated emitter prewarms.
func (ps *ParticleSystem) HasPrewarm() bool {
	for i := range ps.emitters {
		if ps.IsPrewarmEmitter(i) {
			return true
		}
	}
	return false
}

// FinishPrewarm ends a prewarm pass: prewarm emitters restart at their start
// delay and keep their particles (marked Prewarmed), every other emitter is
// cleared. The id counter keeps running so later particles sort after the
// prewarmed ones.
func (ps *ParticleSystem) FinishPrewarm() {
	for i := range ps.emitters {
		prewarmed := ps.IsPrewarmEmitter(i)
		ps.emitters[i].Reset()
		ps.emitters[i].HasPrewarmed = prewarmed
		if prewarmed {
			// 预热后直接从延迟结束处继续发射，避免开头出现空档
			ps.emitters[i].Time = ps.settings.Emitters[i].StartDelay
			ps.emitters[i].Phase = components.EmitterEmitting
		}
	}

	kept := ps.particles[:0]
	for _, p := range ps.particles {
		if !ps.IsPrewarmEmitter(p.EmitterID) {
			ps.live[p.EmitterID]--
			continue
		}
		p.Prewarmed = true
		kept = append(kept, p)
	}
	ps.particles = kept
	ps.time = 0
}

// Prewarm runs one full duration in skip-reset mode at the given frame rate
// and then calls FinishPrewarm. It does nothing when no emitter prewarms.
func (ps *ParticleSystem) Prewarm(fps int) {
	if !ps.HasPrewarm() || fps <= 0 {
		return
	}
	tl := ps.settings.Timeline
	tl.FPS = fps
	n, dt := tl.FrameCount(), tl.FrameStep()
	for i := 0; i < n; i++ {
		ps.AdvanceSkipReset(dt)
	}
	ps.FinishPrewarm()
	logging.For("ParticleSystem").Debug("prewarm finished", "steps", n, "particles", len(ps.particles))
}

// step runs emission for every emitter, then integrates every live particle,
// including the ones spawned in this step.
func (ps *ParticleSystem) step(dt float64, skipReset bool) {
	if dt <= 0 {
		return
	}
	ps.time += dt

	for i := range ps.emitters {
		if ps.included[i] {
			ps.updateEmitter(i, dt, skipReset)
		}
	}

	alive := ps.particles[:0]
	for _, p := range ps.particles {
		if ps.integrate(&p, dt) {
			alive = append(alive, p)
		} else {
			ps.live[p.EmitterID]--
		}
	}
	ps.particles = alive

	ps.notify()
}

func (ps *ParticleSystem) notify() {
	if len(ps.subscribers) == 0 {
		return
	}
	stats := Stats{Time: ps.time, ParticleCount: len(ps.particles)}
	for _, fn := range ps.subscribers {
		fn(stats)
	}
}

// integrate applies one step of lifetime, forces and appearance to p.
// Returns false once the particle has expired.
func (ps *ParticleSystem) integrate(p *components.ParticleComponent, dt float64) bool {
	p.Life -= dt
	if p.Life <= 0 {
		return false
	}
	cfg := &ps.settings.Emitters[p.EmitterID]
	t := p.LifeFraction()

	applySize(p, cfg, t)

	speedMul := factor(cfg.Speed, t) * p.Base.SpeedScale
	weight := factor(cfg.Weight, t) * p.Base.Weight

	// 重力 (+Y 向下)
	p.VelocityY += p.Base.Gravity * factor(cfg.Gravity, t) * weight * dt

	// 噪声扰动
	if strength := p.Base.NoiseStrength * factor(cfg.Noise, t); strength != 0 {
		freq := p.Base.NoiseFrequency
		nx, ny := ps.noise.Sample(p.X*freq, p.Y*freq, ps.time*p.Base.NoiseSpeed)
		p.VelocityX += nx * strength * dt
		p.VelocityY += ny * strength * dt
	}

	// 吸引点
	if strength := p.Base.Attraction * factor(cfg.Attraction, t); strength != 0 {
		dx, dy := cfg.AttractionX-p.X, cfg.AttractionY-p.Y
		if dist := math.Hypot(dx, dy); dist > 1e-6 {
			p.VelocityX += dx / dist * strength * dt
			p.VelocityY += dy / dist * strength * dt
		}
	}

	// 漩涡: tangential plus a tenth inward, with 1/(1+d/100) falloff
	if strength := p.Base.Vortex * factor(cfg.Vortex, t); strength != 0 {
		dx, dy := p.X-cfg.VortexX, p.Y-cfg.VortexY
		if dist := math.Hypot(dx, dy); dist > 1e-6 {
			nx, ny := dx/dist, dy/dist
			falloff := 1 / (1 + dist*0.01)
			s := strength * falloff * dt
			p.VelocityX += (-ny - 0.1*nx) * s
			p.VelocityY += (nx - 0.1*ny) * s
		}
	}

	if drag := p.Base.Drag * factor(cfg.Drag, t); drag != 0 {
		k := math.Max(0, 1-drag*dt)
		p.VelocityX *= k
		p.VelocityY *= k
	}

	p.X += p.VelocityX * speedMul * dt
	p.Y += p.VelocityY * speedMul * dt

	spin := p.Base.Spin * factor(cfg.Spin, t)
	angular := p.Base.AngularVelocity * factor(cfg.AngularVelocity, t)
	p.Rotation += (spin + angular) * degToRad * dt

	applyColor(p, cfg, t)
	return true
}

// applySize sets the per-axis scale at lifetime fraction t.
func applySize(p *components.ParticleComponent, cfg *particle.EmitterConfig, t float64) {
	p.ScaleX = p.Base.SizeX * factor(cfg.SizeX, t) * ratio(cfg.ScaleRatioX)
	p.ScaleY = p.Base.SizeY * factor(cfg.SizeY, t) * ratio(cfg.ScaleRatioY)
}

func applyColor(p *components.ParticleComponent, cfg *particle.EmitterConfig, t float64) {
	c := cfg.Color.Evaluate(t)
	p.Color = c
	p.Alpha = float64(c.A) / 255
}

// factor evaluates a multiplier curve; a curve without points leaves the base
// value untouched.
func factor(c particle.Curve, t float64) float64 {
	if c.IsZero() {
		return 1
	}
	return c.Evaluate(t)
}

func ratio(r float64) float64 {
	if r == 0 {
		return 1
	}
	return r
}

const degToRad = math.Pi / 180
