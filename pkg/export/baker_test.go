package export

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/decker502/particle-baker/internal/particle"
)

// bakeSettings is a one second loop at 20 fps with short-lived particles, so
// no particle spans more than one duration.
func bakeSettings(emitters ...particle.EmitterConfig) particle.Settings {
	return particle.Settings{
		Emitters: emitters,
		Timeline: particle.Timeline{Duration: 1, FPS: 20, Width: 200, Height: 200},
		Export:   particle.DefaultExportSettings(),
		Seed:     7,
	}
}

func shortLived() particle.EmitterConfig {
	cfg := particle.DefaultEmitterConfig()
	cfg.Lifetime = particle.Fixed(0.5)
	cfg.MaxParticles = 0
	return cfg
}

func TestBake_EmptyTimeline(t *testing.T) {
	s := bakeSettings(shortLived())
	s.Timeline.FPS = 0
	if _, err := Bake(s); !errors.Is(err, ErrEmptyTimeline) {
		t.Errorf("err = %v, want ErrEmptyTimeline", err)
	}
}

func TestBake_FramesAndTimes(t *testing.T) {
	res, err := Bake(bakeSettings(shortLived()))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Loop) != 20 {
		t.Fatalf("loop frames = %d, want 20", len(res.Loop))
	}
	for i, f := range res.Loop {
		if f.Index != i || math.Abs(f.Time-float64(i)/20) > 1e-9 {
			t.Errorf("frame %d: index=%d time=%v", i, f.Index, f.Time)
		}
	}
	if res.HasPrewarm() || res.Continuation != nil || len(res.PrewarmIDs) != 0 {
		t.Error("bake without prewarm emitters should not produce prewarm data")
	}
	if res.Duration != 1 || res.FPS != 20 {
		t.Errorf("duration=%v fps=%d", res.Duration, res.FPS)
	}
}

func TestBake_ExcludesDisabledEmitters(t *testing.T) {
	off := shortLived()
	off.Enabled = false
	res, err := Bake(bakeSettings(off, shortLived()))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Emitters, []int{1}) {
		t.Errorf("emitters = %v, want [1]", res.Emitters)
	}
	for _, f := range res.Loop {
		for _, p := range f.Particles {
			if p.EmitterID != 1 {
				t.Fatalf("frame %d holds a particle of disabled emitter %d", f.Index, p.EmitterID)
			}
		}
	}
}

func TestBake_PositionsRelativeToEmitter(t *testing.T) {
	cfg := shortLived()
	cfg.X, cfg.Y = 120, 80
	cfg.LaunchSpeed = particle.Fixed(0)
	res, err := Bake(bakeSettings(cfg))
	if err != nil {
		t.Fatal(err)
	}
	seen := 0
	for _, f := range res.Loop {
		for _, p := range f.Particles {
			seen++
			if math.Abs(p.X) > 1e-9 || math.Abs(p.Y) > 1e-9 {
				t.Fatalf("particle %d at (%v, %v), want emitter origin", p.ID, p.X, p.Y)
			}
		}
	}
	if seen == 0 {
		t.Fatal("no particles baked")
	}
}

// TestBake_LoopIsSeamless checks that particles alive across the loop seam
// continue from the last frame into the first one step later.
func TestBake_LoopIsSeamless(t *testing.T) {
	res, err := Bake(bakeSettings(shortLived()))
	if err != nil {
		t.Fatal(err)
	}
	first, last := res.Loop[0], res.Loop[len(res.Loop)-1]
	if len(first.Particles) == 0 {
		t.Fatal("looping emitter should wrap particles onto frame 0")
	}

	shared := 0
	for id, p0 := range first.Particles {
		pn, ok := last.Particles[id]
		if !ok {
			continue
		}
		shared++
		if d := pn.Life - p0.Life; math.Abs(d-0.05) > 1e-9 {
			t.Errorf("particle %d: life %v -> %v across the seam, want one step", id, pn.Life, p0.Life)
		}
	}
	if shared == 0 {
		t.Error("no particle crosses the loop seam")
	}
}

// TestBake_PrewarmLoopIsSeamless checks the loop seam of a prewarmed emitter
// with a start delay: every particle alive across the seam continues one step
// later in frame 0, and the steady population has no gap after prewarm.
func TestBake_PrewarmLoopIsSeamless(t *testing.T) {
	cfg := shortLived()
	cfg.Prewarm = true
	cfg.StartDelay = 0.2
	res, err := Bake(bakeSettings(cfg))
	if err != nil {
		t.Fatal(err)
	}
	if !res.HasPrewarm() {
		t.Fatal("expected a prewarm sequence")
	}

	const step = 0.05
	first, last := res.Loop[0], res.Loop[len(res.Loop)-1]
	crossing := 0
	for id, pn := range last.Particles {
		if pn.Life <= step+1e-9 {
			continue
		}
		p0, ok := first.Particles[id]
		if !ok {
			t.Errorf("particle %d (life %v) missing from frame 0", id, pn.Life)
			continue
		}
		crossing++
		if math.Abs(pn.Life-p0.Life-step) > 1e-9 {
			t.Errorf("particle %d: life %v -> %v across the seam, want one step", id, pn.Life, p0.Life)
		}
	}
	if crossing == 0 {
		t.Fatal("no particle crosses the loop seam")
	}

	// 20/s 恒定发射 + 固定寿命：每帧粒子数应保持稳定
	want := len(last.Particles)
	for i, f := range res.Loop {
		if n := len(f.Particles); n < want-1 || n > want+1 {
			t.Errorf("loop frame %d holds %d particles, want about %d", i, n, want)
		}
	}
}

func TestBake_NonLoopingHasNoWrap(t *testing.T) {
	cfg := shortLived()
	cfg.Looping = false
	res, err := Bake(bakeSettings(cfg))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(res.Loop[0].Particles); n != 0 {
		t.Errorf("frame 0 holds %d particles, want none", n)
	}
}

func TestBake_Prewarm(t *testing.T) {
	cfg := shortLived()
	cfg.Prewarm = true
	res, err := Bake(bakeSettings(cfg))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Prewarm) != 20 || len(res.Continuation) != 20 {
		t.Fatalf("prewarm=%d continuation=%d, want 20 each", len(res.Prewarm), len(res.Continuation))
	}
	if len(res.PrewarmIDs) == 0 {
		t.Fatal("prewarm should carry particles into the main run")
	}

	for i := range res.Loop {
		for id := range res.Loop[i].Particles {
			if res.PrewarmIDs[id] {
				t.Fatalf("loop frame %d holds prewarm particle %d", i, id)
			}
		}
		for id := range res.Continuation[i].Particles {
			if !res.PrewarmIDs[id] {
				t.Fatalf("continuation frame %d holds main-run particle %d", i, id)
			}
		}
	}
	// 0.5s 寿命: 第 10 帧之后预热粒子全部消失
	for i := 10; i < 20; i++ {
		if n := len(res.Continuation[i].Particles); n != 0 {
			t.Errorf("continuation frame %d holds %d particles, want none", i, n)
		}
	}
	if len(res.Continuation[0].Particles) != len(res.PrewarmIDs) {
		t.Errorf("continuation frame 0 = %d particles, want all %d carried", len(res.Continuation[0].Particles), len(res.PrewarmIDs))
	}
}

func TestBake_Deterministic(t *testing.T) {
	s := bakeSettings(shortLived())
	a, err := Bake(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Bake(s)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Loop, b.Loop) {
		t.Error("two bakes of the same settings differ")
	}
}
