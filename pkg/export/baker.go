package export

import (
	"errors"
	"math"

	"github.com/decker502/particle-baker/internal/logging"
	"github.com/decker502/particle-baker/internal/particle"
	"github.com/decker502/particle-baker/pkg/systems"
)

// ErrEmptyTimeline is returned when the timeline covers no frame.
var ErrEmptyTimeline = errors.New("timeline has no frames")

// BakeResult holds the captured sequences of one bake.
type BakeResult struct {
	// Prewarm is the warm-up pass, one frame per step of one duration.
	// Empty unless an enabled emitter loops with prewarm on.
	Prewarm []BakedFrame

	// Loop is the main loop: N frames whose last frame flows into the first.
	Loop []BakedFrame

	// Continuation holds, for frames [0, N) of the main run, the particles
	// born during prewarm. They finish their life here after the prewarm
	// sequence ends.
	Continuation []BakedFrame

	// PrewarmIDs are the particles carried from prewarm into the main run.
	PrewarmIDs map[int]bool

	// Emitters lists the baked (enabled) emitter indexes in order.
	Emitters []int

	Duration float64
	FPS      int
}

// HasPrewarm reports whether the bake produced a prewarm sequence.
func (r *BakeResult) HasPrewarm() bool {
	return len(r.Prewarm) > 0
}

// Bake runs the engine headlessly over the timeline and captures every frame.
// Only enabled emitters are simulated. Frame i is captured before the i-th
// step, so frame 0 is the state at time zero.
//
// The main run is extended past the duration by the longest lifetime of the
// looping emitters; particles still alive there are folded back onto the
// start of the loop as wrap particles.
func Bake(settings particle.Settings, opts ...systems.Option) (*BakeResult, error) {
	logger := logging.For("Baker")
	tl := settings.Timeline
	n := tl.FrameCount()
	if n == 0 {
		return nil, ErrEmptyTimeline
	}
	dt := tl.FrameStep()

	opts = append([]systems.Option{systems.WithEmitterFilter(systems.EnabledOnly)}, opts...)
	engine := systems.NewParticleSystem(settings, opts...)

	res := &BakeResult{
		PrewarmIDs: make(map[int]bool),
		Duration:   tl.Duration,
		FPS:        tl.FPS,
	}
	for i := range settings.Emitters {
		if engine.Included(i) {
			res.Emitters = append(res.Emitters, i)
		}
	}

	if engine.HasPrewarm() {
		res.Prewarm = make([]BakedFrame, 0, n)
		for i := 0; i < n; i++ {
			res.Prewarm = append(res.Prewarm, capture(engine, i, float64(i)*dt))
			engine.AdvanceSkipReset(dt)
		}
		engine.FinishPrewarm()
		for _, p := range engine.Particles() {
			res.PrewarmIDs[p.ID] = true
		}
		logger.Debug("prewarm captured", "frames", n, "carried", len(res.PrewarmIDs))
	}

	extra := 0
	if settings.AnyLooping() {
		extra = int(math.Ceil(settings.MaxLoopingLifetime()*float64(tl.FPS) - 1e-9))
	}

	mainStart := engine.NextID()
	boundary := -1
	raw := make([]BakedFrame, 0, n+extra)
	for i := 0; i < n+extra; i++ {
		if i == n {
			// 第 N 帧之前出生的粒子属于本轮循环
			boundary = engine.NextID()
		}
		raw = append(raw, capture(engine, i, float64(i)*dt))
		engine.Advance(dt)
	}

	res.Loop = make([]BakedFrame, n)
	if res.HasPrewarm() {
		res.Continuation = make([]BakedFrame, n)
	}
	wraps := 0
	for i := 0; i < n; i++ {
		loop := newFrame(i, raw[i].Time)
		var cont BakedFrame
		if res.HasPrewarm() {
			cont = newFrame(i, raw[i].Time)
		}
		for id, p := range raw[i].Particles {
			// 预热粒子只在首次播放中延续（拼接到预热动画），不进入每轮重复的循环
			if res.PrewarmIDs[id] {
				cont.Particles[id] = p
				continue
			}
			loop.Particles[id] = p
		}

		if j := n + i; j < len(raw) {
			for id, p := range raw[j].Particles {
				if id < mainStart || id >= boundary || !settings.Emitters[p.EmitterID].Looping {
					continue
				}
				if _, present := loop.Particles[id]; present {
					continue
				}
				loop.Particles[id] = p
				wraps++
			}
		}

		res.Loop[i] = loop
		if res.HasPrewarm() {
			res.Continuation[i] = cont
		}
	}

	logger.Info("bake complete", "frames", n, "extra", extra, "emitters", len(res.Emitters), "wrapKeys", wraps)
	return res, nil
}

// capture records the engine's live particles as one frame.
func capture(engine *systems.ParticleSystem, index int, t float64) BakedFrame {
	settings := engine.Settings()
	frame := newFrame(index, t)
	for _, p := range engine.Particles() {
		frame.Particles[p.ID] = bakeParticle(p, &settings.Emitters[p.EmitterID])
	}
	return frame
}
