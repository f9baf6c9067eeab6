package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/decker502/particle-baker/internal/particle"
	"github.com/decker502/particle-baker/pkg/embedded"
)

func TestLoadPreset_YAML(t *testing.T) {
	s, err := LoadPreset("testdata/presets/fountain.yaml")
	if err != nil {
		t.Fatalf("LoadPreset: %v", err)
	}

	if s.Seed != 42 || s.Noise != particle.NoisePerlin {
		t.Errorf("seed=%d noise=%q", s.Seed, s.Noise)
	}
	if s.Timeline != (particle.Timeline{Duration: 2, FPS: 24, Width: 256, Height: 256}) {
		t.Errorf("timeline = %+v", s.Timeline)
	}
	if s.Export.PositionThreshold != 0.75 || s.Export.RotationThreshold != 1 {
		t.Errorf("thresholds = %+v, want position overridden and rotation default", s.Export)
	}
	if s.Export.SkeletonName != "fountain" || s.Export.RuntimeVersion != "4.2.0" {
		t.Errorf("export = %+v", s.Export)
	}
	if len(s.Emitters) != 2 {
		t.Fatalf("emitters = %d, want 2", len(s.Emitters))
	}

	jet := s.Emitters[0]
	if jet.Shape != (particle.CircleShape{Radius: 12}) || jet.Mode != particle.ModeEdge {
		t.Errorf("jet shape=%+v mode=%q", jet.Shape, jet.Mode)
	}
	if !jet.Enabled || !jet.Looping || !jet.Prewarm {
		t.Errorf("jet flags enabled=%v looping=%v prewarm=%v", jet.Enabled, jet.Looping, jet.Prewarm)
	}
	if jet.Rate != 40 || jet.Spread != 20 || jet.X != 128 || jet.Y != 220 {
		t.Errorf("jet emission = rate %v spread %v at (%v, %v)", jet.Rate, jet.Spread, jet.X, jet.Y)
	}
	if len(jet.SizeX.Points) != 3 || jet.SizeX.Interp != particle.InterpSmooth {
		t.Errorf("size_x curve = %+v", jet.SizeX)
	}
	if jet.Lifetime != (particle.Range{Min: 1.0, Max: 1.4}) || jet.GravityBase != particle.Fixed(300) {
		t.Errorf("jet base lifetime=%+v gravity=%+v", jet.Lifetime, jet.GravityBase)
	}
	if len(jet.Color.Stops) != 2 || jet.Color.Stops[1].Color.A != 0 {
		t.Errorf("jet colour = %+v", jet.Color)
	}
	if jet.Sprite != particle.SpriteGlow || jet.Blend != particle.BlendAdditive {
		t.Errorf("jet sprite=%q blend=%q", jet.Sprite, jet.Blend)
	}
	// 未写出的曲线保持默认值
	if jet.Speed.Evaluate(0.5) != 1 {
		t.Errorf("speed curve should keep its default, got %+v", jet.Speed)
	}

	sparks := s.Emitters[1]
	if sparks.Enabled || sparks.Looping {
		t.Errorf("sparks enabled=%v looping=%v, want both false", sparks.Enabled, sparks.Looping)
	}
	rr, ok := sparks.Shape.(particle.RoundedRectShape)
	if !ok || rr.CornerRadius != 5 {
		t.Errorf("sparks shape = %+v, want corner radius clamped to 5", sparks.Shape)
	}
	if sparks.SpawnAngleMin != -90 || sparks.SpawnAngleMax != 90 {
		t.Errorf("spawn range = [%v %v], want swapped to [-90 90]", sparks.SpawnAngleMin, sparks.SpawnAngleMax)
	}
}

func TestLoadPreset_TOML(t *testing.T) {
	s, err := LoadPreset("testdata/presets/sparks.toml")
	if err != nil {
		t.Fatalf("LoadPreset: %v", err)
	}
	if s.Timeline.Duration != 1.5 || s.Timeline.FPS != 30 || s.Timeline.Width != 512 {
		t.Errorf("timeline = %+v", s.Timeline)
	}
	if s.Export.LoopAnimation != "main" || s.Export.PrewarmAnimation != "prewarm" || s.Export.RuntimeVersion != "3.8.99" {
		t.Errorf("export = %+v", s.Export)
	}
	if len(s.Emitters) != 1 {
		t.Fatalf("emitters = %d", len(s.Emitters))
	}
	e := s.Emitters[0]
	if e.Pattern != particle.PatternBurst || e.BurstCount != 50 || e.BurstCycles != 2 {
		t.Errorf("burst = %q %d x%d", e.Pattern, e.BurstCount, e.BurstCycles)
	}
	if e.Shape != (particle.LineShape{Length: 60, Angle: 45}) {
		t.Errorf("shape = %+v", e.Shape)
	}
	if e.Spread != 360 || e.Sprite != particle.SpriteStar {
		t.Errorf("spread=%v sprite=%q", e.Spread, e.Sprite)
	}
	if e.Lifetime != particle.Fixed(0.6) || e.SpinBase != (particle.Range{Min: -180, Max: 180}) {
		t.Errorf("base lifetime=%+v spin=%+v", e.Lifetime, e.SpinBase)
	}
}

func TestParsePreset_Clamping(t *testing.T) {
	data := `
timeline:
  duration: -1
  fps: 1000
  width: 2
export:
  color_threshold: -5
emitters:
  - rate: -3
    burst_cycles: 0
    burst_interval: 0
    spread: 720
    start_delay: -2
    window_start: 0.8
    window_end: 0.2
    base:
      lifetime: "0"
`
	s, err := ParsePreset([]byte(data), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	def := particle.DefaultTimeline()
	if s.Timeline.Duration != def.Duration || s.Timeline.FPS != 120 || s.Timeline.Width != 16 {
		t.Errorf("timeline = %+v", s.Timeline)
	}
	if s.Export.ColorThreshold != 0 {
		t.Errorf("color threshold = %v, want 0", s.Export.ColorThreshold)
	}

	e := s.Emitters[0]
	tests := []struct {
		name      string
		got, want float64
	}{
		{"rate", e.Rate, 0},
		{"burst_cycles", float64(e.BurstCycles), 1},
		{"burst_interval", e.BurstInterval, 0.01},
		{"spread", e.Spread, 360},
		{"start_delay", e.StartDelay, 0},
		{"window_end", e.WindowEnd, 0.8},
		{"lifetime", e.Lifetime.Min, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
	if e.Name != "emitter_0" {
		t.Errorf("name = %q, want generated emitter_0", e.Name)
	}
}

func TestParsePreset_TooManyEmitters(t *testing.T) {
	var b strings.Builder
	b.WriteString("emitters:\n")
	for i := 0; i < particle.MaxEmitters+2; i++ {
		b.WriteString("  - rate: 10\n")
	}
	s, err := ParsePreset([]byte(b.String()), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Emitters) != particle.MaxEmitters {
		t.Errorf("emitters = %d, want %d", len(s.Emitters), particle.MaxEmitters)
	}
}

func TestParsePreset_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"未知形状", "emitters:\n  - shape: {kind: hexagon}\n", ErrUnknownValue},
		{"未知发射方式", "emitters:\n  - pattern: sometimes\n", ErrUnknownValue},
		{"未知精灵", "emitters:\n  - sprite: cloud\n", ErrUnknownValue},
		{"未知噪声", "noise: simplex\n", ErrUnknownValue},
		{"错误曲线", "emitters:\n  - curves: {speed: \"0,a\"}\n", nil},
		{"错误范围", "emitters:\n  - base: {lifetime: \"[1 2\"}\n", nil},
		{"错误版本", "export: {runtime_version: latest}\n", nil},
		{"动画重名", "export: {loop_animation: a, prewarm_animation: a}\n", nil},
		{"YAML 语法", "emitters: [\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePreset([]byte(tt.data), FormatYAML)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"a.yaml", FormatYAML, true},
		{"dir/b.YML", FormatYAML, true},
		{"c.toml", FormatTOML, true},
		{"d.json", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("FormatFor(%q) = %q, %v", tt.path, got, err)
		}
		if !tt.ok && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("FormatFor(%q) err = %v, want ErrUnknownFormat", tt.path, err)
		}
	}
}

func TestLoadPreset_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := LoadPreset(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestLoadToolConfig(t *testing.T) {
	t.Setenv("PARTICLES_LOG_LEVEL", "debug")
	t.Setenv("PARTICLES_WATCH_DEBOUNCE", "1s")
	t.Setenv("PARTICLES_SEED", "9")

	cfg, err := LoadToolConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Debounce.Seconds() != 1 || cfg.Seed != 9 || cfg.OutDir != "." {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv("PARTICLES_SEED", "nine")
	if _, err := LoadToolConfig(); err == nil {
		t.Error("expected parse error for a non-numeric seed")
	}
}

func TestLoadPresetFS_BuiltIn(t *testing.T) {
	fsys := embedded.Presets()
	for _, name := range embedded.PresetNames() {
		t.Run(name, func(t *testing.T) {
			s, err := LoadPresetFS(fsys, name)
			if err != nil {
				t.Fatalf("LoadPresetFS: %v", err)
			}
			if len(s.Emitters) == 0 {
				t.Error("built-in preset has no emitters")
			}
			enabled := 0
			for _, e := range s.Emitters {
				if e.Enabled {
					enabled++
				}
			}
			if enabled == 0 {
				t.Error("built-in preset has nothing to export")
			}
		})
	}
}

func TestLoadPresetFS_Missing(t *testing.T) {
	if _, err := LoadPresetFS(os.DirFS(t.TempDir()), "nope.yaml"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
	if _, err := LoadPresetFS(embedded.Presets(), "notes.txt"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}
