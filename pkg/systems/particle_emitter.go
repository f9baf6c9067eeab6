package systems

import (
	"math"

	"github.com/decker502/particle-baker/internal/particle"
	"github.com/decker502/particle-baker/pkg/components"
)

// updateEmitter advances the time of emitter i and runs its emission pattern.
//
// Looping emitters wrap back to the start delay once elapsed time passes the
// timeline duration, carrying the overshoot so a cycle is exactly one duration
// long; burst counters restart with the cycle. Non-looping emitters clamp at
// the end of the duration and stop emitting.
func (ps *ParticleSystem) updateEmitter(i int, dt float64, skipReset bool) {
	cfg := &ps.settings.Emitters[i]
	st := &ps.emitters[i]
	duration := ps.settings.Timeline.Duration

	if st.Phase == components.EmitterCapped {
		return
	}

	before := st.Time - cfg.StartDelay
	st.Time += dt
	elapsed := st.Time - cfg.StartDelay
	if elapsed < 0 {
		st.Phase = components.EmitterIdle
		return
	}

	// portion of this step that lies after the start delay
	active := dt
	if before < 0 {
		active = elapsed
	}

	if duration > 0 && elapsed > duration+wrapEpsilon {
		switch {
		case !cfg.Looping:
			st.Time = cfg.StartDelay + duration
			st.Phase = components.EmitterCapped
			return
		case !skipReset:
			elapsed = math.Mod(elapsed-duration, duration)
			st.Time = cfg.StartDelay + elapsed
			st.BurstCycle = 0
			st.LastBurstTime = 0
			st.LoopCount++
		}
	}
	st.Phase = components.EmitterEmitting

	switch cfg.Pattern {
	case particle.PatternBurst:
		ps.emitBurst(i, cfg, st, elapsed)
	case particle.PatternDuration:
		if elapsed >= cfg.WindowStart && elapsed <= cfg.WindowEnd+wrapEpsilon {
			ps.emitContinuous(i, cfg, st, active)
		}
	default:
		ps.emitContinuous(i, cfg, st, active)
	}
}

// emitContinuous spawns one particle per whole interval held in the
// accumulator, so the spawn count follows elapsed time regardless of step size.
func (ps *ParticleSystem) emitContinuous(i int, cfg *particle.EmitterConfig, st *components.EmitterComponent, dt float64) {
	if cfg.Rate <= 0 {
		return
	}
	interval := 1 / cfg.Rate
	st.SpawnAccumulator += dt
	for st.SpawnAccumulator >= interval {
		if ps.atCap(i, cfg) {
			// 达到上限时不积压, 最多保留一个间隔
			st.SpawnAccumulator = interval
			return
		}
		ps.spawn(i, cfg)
		st.SpawnAccumulator -= interval
	}
}

// emitBurst fires BurstCount particles on the first cycle and then every
// BurstInterval seconds. Looping emitters burst indefinitely, others stop
// after BurstCycles.
func (ps *ParticleSystem) emitBurst(i int, cfg *particle.EmitterConfig, st *components.EmitterComponent, elapsed float64) {
	if !cfg.Looping {
		cycles := cfg.BurstCycles
		if cycles <= 0 {
			cycles = 1
		}
		if st.BurstCycle >= cycles {
			return
		}
	}
	due := st.BurstCycle == 0 ||
		(cfg.BurstInterval > 0 && elapsed-st.LastBurstTime >= cfg.BurstInterval-wrapEpsilon)
	if !due {
		return
	}
	for n := 0; n < cfg.BurstCount && !ps.atCap(i, cfg); n++ {
		ps.spawn(i, cfg)
	}
	st.BurstCycle++
	st.LastBurstTime = elapsed
}

func (ps *ParticleSystem) atCap(i int, cfg *particle.EmitterConfig) bool {
	return cfg.MaxParticles > 0 && ps.live[i] >= cfg.MaxParticles
}

// spawn creates one particle for emitter i. The order of random draws is
// fixed: shape offset, launch jitter, launch speed, initial rotation,
// lifetime, then the base samples in declaration order.
func (ps *ParticleSystem) spawn(i int, cfg *particle.EmitterConfig) {
	r := ps.rng

	dx, dy := particle.SampleShape(cfg.Shape, cfg.Mode, r)

	angle := (cfg.Angle + (r.Float64()-0.5)*cfg.Spread) * degToRad
	speed := cfg.LaunchSpeed.Sample(r)
	vx, vy := math.Cos(angle)*speed, math.Sin(angle)*speed

	var rotation float64
	switch cfg.SpawnAngle {
	case particle.SpawnAngleFixed:
		rotation = cfg.SpawnAngleValue * degToRad
	case particle.SpawnAngleRandom:
		rotation = r.Float64() * 2 * math.Pi
	case particle.SpawnAngleRange:
		rotation = particle.RandomInRange(r, cfg.SpawnAngleMin, cfg.SpawnAngleMax) * degToRad
	default:
		// 朝向初速度方向; 速度为零时沿发射角
		rotation = angle
		if speed != 0 {
			rotation = math.Atan2(vy, vx)
		}
	}

	life := cfg.Lifetime.Sample(r)

	p := components.ParticleComponent{
		ID:        ps.nextID,
		EmitterID: i,
		X:         cfg.X + dx,
		Y:         cfg.Y + dy,
		VelocityX: vx,
		VelocityY: vy,
		Life:      life,
		MaxLife:   life,
		Rotation:  rotation,
		Base: components.BaseValues{
			SizeX:           cfg.SizeXBase.Sample(r),
			SizeY:           cfg.SizeYBase.Sample(r),
			SpeedScale:      cfg.SpeedScale.Sample(r),
			Weight:          cfg.WeightBase.Sample(r),
			Spin:            cfg.SpinBase.Sample(r),
			Gravity:         cfg.GravityBase.Sample(r),
			Drag:            cfg.DragBase.Sample(r),
			NoiseStrength:   cfg.NoiseStrength.Sample(r),
			NoiseFrequency:  cfg.NoiseFrequency.Sample(r),
			NoiseSpeed:      cfg.NoiseSpeed.Sample(r),
			Attraction:      cfg.AttractionBase.Sample(r),
			Vortex:          cfg.VortexBase.Sample(r),
			AngularVelocity: cfg.AngularVelocityBase.Sample(r),
		},
	}
	ps.nextID++

	applySize(&p, cfg, 0)
	applyColor(&p, cfg, 0)

	ps.particles = append(ps.particles, p)
	ps.live[i]++
}
