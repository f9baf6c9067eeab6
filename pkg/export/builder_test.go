package export

import (
	"math"
	"testing"

	"github.com/decker502/particle-baker/internal/particle"
)

func sampleTrack(id, emitter int, times ...float64) ParticleTrack {
	tr := ParticleTrack{ID: id, EmitterID: emitter}
	for i, t := range times {
		v := float64(i + 1)
		tr.Translate = append(tr.Translate, Vec2Key{Time: t, X: v, Y: v * 2})
		tr.Rotate = append(tr.Rotate, ScalarKey{Time: t, Value: v * 10})
		tr.Scale = append(tr.Scale, Vec2Key{Time: t, X: 1, Y: 1})
		tr.Color = append(tr.Color, ColorKey{Time: t, Color: particle.White})
	}
	tr.Visibility = []VisibilityKey{{Time: times[0], Visible: true}}
	return tr
}

func TestSpliceContinuation(t *testing.T) {
	prewarm := []ParticleTrack{sampleTrack(1, 0, 0, 0.5), sampleTrack(2, 0, 0, 0.25)}
	continuation := []ParticleTrack{sampleTrack(1, 0, 0, 0.3)}

	out, spliced := SpliceContinuation(prewarm, continuation, 2)

	if !spliced[1] || spliced[2] || len(spliced) != 1 {
		t.Fatalf("spliced = %v, want {1}", spliced)
	}
	got := vecTimes(out[0].Translate)
	want := []float64{0, 0.5, 2, 2.3}
	if len(got) != len(want) {
		t.Fatalf("translate times = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("translate times = %v, want %v", got, want)
			break
		}
	}
	if len(out[0].Visibility) != 2 || out[0].Visibility[1].Time != 2 {
		t.Errorf("visibility = %+v", out[0].Visibility)
	}
	if len(prewarm[0].Translate) != 2 {
		t.Error("SpliceContinuation must not modify its input")
	}

	trimmed := TrimPrewarm(out, spliced)
	if len(trimmed) != 1 || trimmed[0].ID != 1 {
		t.Errorf("trimmed = %+v, want only id 1", trimmed)
	}
}

func TestCloseLoop(t *testing.T) {
	looping := func(emitter int) bool { return emitter == 0 }
	tracks := []ParticleTrack{
		sampleTrack(1, 0, 0, 0.5),    // looping, starts at 0
		sampleTrack(2, 0, 0.25, 0.5), // looping, born later
		sampleTrack(3, 1, 0, 0.5),    // non-looping emitter
	}

	out := CloseLoop(tracks, 1, looping)

	first := out[0]
	last := first.Translate[len(first.Translate)-1]
	if last.Time != 1 || last.X != first.Translate[0].X || last.Y != first.Translate[0].Y {
		t.Errorf("closing translate = %+v, want copy of %+v at 1", last, first.Translate[0])
	}
	if r := first.Rotate[len(first.Rotate)-1]; r.Time != 1 || math.Mod(r.Value-first.Rotate[0].Value, 360) != 0 {
		t.Errorf("closing rotate = %+v, want equivalent of %+v", r, first.Rotate[0])
	}
	if v := first.Visibility[len(first.Visibility)-1]; v.Time != 1 || !v.Visible {
		t.Errorf("closing visibility = %+v", v)
	}

	if n := len(out[1].Translate); n != 2 {
		t.Errorf("track without a key at 0 gained keys: %d", n)
	}
	if n := len(out[2].Translate); n != 2 {
		t.Errorf("non-looping track gained keys: %d", n)
	}
	if len(tracks[0].Translate) != 2 {
		t.Error("CloseLoop must not modify its input")
	}
}

func TestBuildDocument(t *testing.T) {
	e0 := particle.DefaultEmitterConfig()
	e0.X, e0.Y = 100, 50
	e0.Blend = particle.BlendAdditive
	e1 := particle.DefaultEmitterConfig()
	e1.Enabled = false
	e2 := particle.DefaultEmitterConfig()
	e2.X, e2.Y = 20, 180

	settings := particle.Settings{
		Emitters: []particle.EmitterConfig{e0, e1, e2},
		Timeline: particle.Timeline{Duration: 1, FPS: 10, Width: 200, Height: 200},
		Export:   particle.DefaultExportSettings(),
	}

	loop := []ParticleTrack{sampleTrack(7, 2, 0, 0.5), sampleTrack(3, 0, 0, 0.5)}
	prewarm := []ParticleTrack{sampleTrack(1, 0, 0, 0.5)}

	doc, err := BuildDocument(DocumentInput{
		Settings:   &settings,
		Emitters:   []int{0, 2},
		Loop:       loop,
		Prewarm:    prewarm,
		SpriteSize: 64,
		Hash:       "h",
	})
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}

	wantBones := []struct {
		name, parent string
		x, y         float64
	}{
		{"root", "", 0, 0},
		{"emitter_0", "root", 0, 50},
		{"emitter_2", "root", -80, -80},
		{"e0_p1", "emitter_0", 0, 0},
		{"e0_p3", "emitter_0", 0, 0},
		{"e2_p7", "emitter_2", 0, 0},
	}
	if len(doc.Bones) != len(wantBones) {
		t.Fatalf("bones = %+v", doc.Bones)
	}
	for i, w := range wantBones {
		b := doc.Bones[i]
		if b.Name != w.name || b.Parent != w.parent || b.X != w.x || b.Y != w.y {
			t.Errorf("bone %d = %+v, want %+v", i, b, w)
		}
	}

	if len(doc.Slots) != 3 || doc.Slots[0].Blend != "additive" || doc.Slots[0].Attachment != "" {
		t.Errorf("slots = %+v", doc.Slots)
	}
	if _, ok := doc.Skins[0].Attachments["e2_p7"][RegionName]; !ok || doc.Skins[0].Name != "default" {
		t.Errorf("skin = %+v", doc.Skins[0])
	}

	loopAnim, ok := doc.Animations["loop"]
	if !ok {
		t.Fatal("loop animation missing")
	}
	if _, ok := doc.Animations["prewarm"]; !ok {
		t.Fatal("prewarm animation missing")
	}
	bone := loopAnim.Bones["e0_p3"]
	if k := bone.Translate[0]; k.X != 1 || k.Y != -2 {
		t.Errorf("translate key = %+v, want Y flipped (1, -2)", k)
	}
	if k := bone.Rotate[0]; k.Angle != -10 {
		t.Errorf("rotate key = %+v, want -10", k)
	}
	slot := loopAnim.Slots["e0_p3"]
	if slot.Attachment[0].Name != RegionName || slot.Color[0].Color != "ffffffff" {
		t.Errorf("slot timelines = %+v", slot)
	}
}

func TestBuildDocument_NoTracks(t *testing.T) {
	settings := particle.Settings{
		Emitters: []particle.EmitterConfig{particle.DefaultEmitterConfig()},
		Timeline: particle.DefaultTimeline(),
		Export:   particle.DefaultExportSettings(),
	}
	doc, err := BuildDocument(DocumentInput{Settings: &settings, Emitters: []int{0}, SpriteSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Animations) != 0 || len(doc.Slots) != 0 || len(doc.Bones) != 2 {
		t.Errorf("empty input should give root + emitter bones only: %+v", doc)
	}
}

func TestBuildDocument_BadVersion(t *testing.T) {
	settings := particle.Settings{Timeline: particle.DefaultTimeline()}
	settings.Export.RuntimeVersion = "four"
	if _, err := BuildDocument(DocumentInput{Settings: &settings}); err == nil {
		t.Error("expected version error")
	}
}
