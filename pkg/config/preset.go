package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/decker502/particle-baker/internal/logging"
	"github.com/decker502/particle-baker/internal/particle"
	"github.com/decker502/particle-baker/internal/skeleton"
)

// Format is a preset file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	// ErrUnknownFormat is returned for preset files that are neither YAML nor TOML.
	ErrUnknownFormat = errors.New("unknown preset format")
	// ErrUnknownValue is returned for an enum field holding an unknown name.
	ErrUnknownValue = errors.New("unknown value")
)

// Preset 粒子预设文件的顶层结构
// 缺省字段取 particle.DefaultEmitterConfig / DefaultTimeline / DefaultExportSettings 的值
type Preset struct {
	// Seed 随机种子，相同种子烘焙结果相同
	Seed int64 `yaml:"seed,omitempty" toml:"seed,omitempty"`

	// Noise 噪声实现（"hash" 或 "perlin"）
	Noise string `yaml:"noise,omitempty" toml:"noise,omitempty"`

	Timeline TimelineDef `yaml:"timeline" toml:"timeline"`
	Export   ExportDef   `yaml:"export" toml:"export"`

	// Emitters 发射器列表，最多 particle.MaxEmitters 个
	Emitters []EmitterDef `yaml:"emitters" toml:"emitters"`
}

// TimelineDef 时间轴配置，所有发射器共享
type TimelineDef struct {
	Duration *float64 `yaml:"duration,omitempty" toml:"duration,omitempty"` // 秒
	FPS      *int     `yaml:"fps,omitempty" toml:"fps,omitempty"`
	Width    *int     `yaml:"width,omitempty" toml:"width,omitempty"`
	Height   *int     `yaml:"height,omitempty" toml:"height,omitempty"`
}

// ExportDef 关键帧精简阈值与导出命名
type ExportDef struct {
	PositionThreshold *float64 `yaml:"position_threshold,omitempty" toml:"position_threshold,omitempty"`
	RotationThreshold *float64 `yaml:"rotation_threshold,omitempty" toml:"rotation_threshold,omitempty"`
	ScaleThreshold    *float64 `yaml:"scale_threshold,omitempty" toml:"scale_threshold,omitempty"`
	ColorThreshold    *float64 `yaml:"color_threshold,omitempty" toml:"color_threshold,omitempty"`

	SkeletonName     string `yaml:"skeleton_name,omitempty" toml:"skeleton_name,omitempty"`
	RuntimeVersion   string `yaml:"runtime_version,omitempty" toml:"runtime_version,omitempty"`
	LoopAnimation    string `yaml:"loop_animation,omitempty" toml:"loop_animation,omitempty"`
	PrewarmAnimation string `yaml:"prewarm_animation,omitempty" toml:"prewarm_animation,omitempty"`
}

// ShapeDef 发射形状
type ShapeDef struct {
	// Kind 形状类型：point / line / circle / rectangle / rounded_rectangle
	Kind         string  `yaml:"kind" toml:"kind"`
	Length       float64 `yaml:"length,omitempty" toml:"length,omitempty"`
	Angle        float64 `yaml:"angle,omitempty" toml:"angle,omitempty"`
	Radius       float64 `yaml:"radius,omitempty" toml:"radius,omitempty"`
	Width        float64 `yaml:"width,omitempty" toml:"width,omitempty"`
	Height       float64 `yaml:"height,omitempty" toml:"height,omitempty"`
	CornerRadius float64 `yaml:"corner_radius,omitempty" toml:"corner_radius,omitempty"`
}

// CurvesDef 生命周期曲线，格式见 particle.ParseCurve，例如 "0,1 0.5,2 1,0 Smooth"
type CurvesDef struct {
	SizeX           string `yaml:"size_x,omitempty" toml:"size_x,omitempty"`
	SizeY           string `yaml:"size_y,omitempty" toml:"size_y,omitempty"`
	Speed           string `yaml:"speed,omitempty" toml:"speed,omitempty"`
	Weight          string `yaml:"weight,omitempty" toml:"weight,omitempty"`
	Spin            string `yaml:"spin,omitempty" toml:"spin,omitempty"`
	Gravity         string `yaml:"gravity,omitempty" toml:"gravity,omitempty"`
	Drag            string `yaml:"drag,omitempty" toml:"drag,omitempty"`
	Noise           string `yaml:"noise,omitempty" toml:"noise,omitempty"`
	Attraction      string `yaml:"attraction,omitempty" toml:"attraction,omitempty"`
	Vortex          string `yaml:"vortex,omitempty" toml:"vortex,omitempty"`
	AngularVelocity string `yaml:"angular_velocity,omitempty" toml:"angular_velocity,omitempty"`

	// Color 颜色渐变，格式见 particle.ParseGradient
	Color string `yaml:"color,omitempty" toml:"color,omitempty"`
}

// BaseDef 粒子基础值范围，格式见 particle.ParseRange，例如 "[0.8 1.2]"
type BaseDef struct {
	Lifetime        string `yaml:"lifetime,omitempty" toml:"lifetime,omitempty"`
	LaunchSpeed     string `yaml:"launch_speed,omitempty" toml:"launch_speed,omitempty"`
	SizeX           string `yaml:"size_x,omitempty" toml:"size_x,omitempty"`
	SizeY           string `yaml:"size_y,omitempty" toml:"size_y,omitempty"`
	SpeedScale      string `yaml:"speed_scale,omitempty" toml:"speed_scale,omitempty"`
	Weight          string `yaml:"weight,omitempty" toml:"weight,omitempty"`
	Spin            string `yaml:"spin,omitempty" toml:"spin,omitempty"`
	Gravity         string `yaml:"gravity,omitempty" toml:"gravity,omitempty"`
	Drag            string `yaml:"drag,omitempty" toml:"drag,omitempty"`
	NoiseStrength   string `yaml:"noise_strength,omitempty" toml:"noise_strength,omitempty"`
	NoiseFrequency  string `yaml:"noise_frequency,omitempty" toml:"noise_frequency,omitempty"`
	NoiseSpeed      string `yaml:"noise_speed,omitempty" toml:"noise_speed,omitempty"`
	Attraction      string `yaml:"attraction,omitempty" toml:"attraction,omitempty"`
	Vortex          string `yaml:"vortex,omitempty" toml:"vortex,omitempty"`
	AngularVelocity string `yaml:"angular_velocity,omitempty" toml:"angular_velocity,omitempty"`
}

// EmitterDef 单个发射器配置
// 指针字段为 nil 时使用默认值，这样 0 / false 也能被显式写出
type EmitterDef struct {
	Name    string `yaml:"name,omitempty" toml:"name,omitempty"`
	Enabled *bool  `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Visible *bool  `yaml:"visible,omitempty" toml:"visible,omitempty"`

	Shape ShapeDef `yaml:"shape,omitempty" toml:"shape,omitempty"`
	// Mode 发射模式：area（填充）或 edge（沿边）
	Mode string `yaml:"mode,omitempty" toml:"mode,omitempty"`

	// Pattern 发射方式：continuous / burst / duration
	Pattern       string   `yaml:"pattern,omitempty" toml:"pattern,omitempty"`
	Rate          *float64 `yaml:"rate,omitempty" toml:"rate,omitempty"`
	BurstCount    *int     `yaml:"burst_count,omitempty" toml:"burst_count,omitempty"`
	BurstCycles   *int     `yaml:"burst_cycles,omitempty" toml:"burst_cycles,omitempty"`
	BurstInterval *float64 `yaml:"burst_interval,omitempty" toml:"burst_interval,omitempty"`
	WindowStart   *float64 `yaml:"window_start,omitempty" toml:"window_start,omitempty"`
	WindowEnd     *float64 `yaml:"window_end,omitempty" toml:"window_end,omitempty"`
	MaxParticles  *int     `yaml:"max_particles,omitempty" toml:"max_particles,omitempty"`

	X          float64  `yaml:"x,omitempty" toml:"x,omitempty"`
	Y          float64  `yaml:"y,omitempty" toml:"y,omitempty"`
	Angle      *float64 `yaml:"angle,omitempty" toml:"angle,omitempty"`
	Spread     *float64 `yaml:"spread,omitempty" toml:"spread,omitempty"`
	StartDelay float64  `yaml:"start_delay,omitempty" toml:"start_delay,omitempty"`
	Looping    *bool    `yaml:"looping,omitempty" toml:"looping,omitempty"`
	Prewarm    bool     `yaml:"prewarm,omitempty" toml:"prewarm,omitempty"`

	Curves CurvesDef `yaml:"curves,omitempty" toml:"curves,omitempty"`
	Base   BaseDef   `yaml:"base,omitempty" toml:"base,omitempty"`

	ScaleRatioX float64 `yaml:"scale_ratio_x,omitempty" toml:"scale_ratio_x,omitempty"`
	ScaleRatioY float64 `yaml:"scale_ratio_y,omitempty" toml:"scale_ratio_y,omitempty"`

	AttractionX float64 `yaml:"attraction_x,omitempty" toml:"attraction_x,omitempty"`
	AttractionY float64 `yaml:"attraction_y,omitempty" toml:"attraction_y,omitempty"`
	VortexX     float64 `yaml:"vortex_x,omitempty" toml:"vortex_x,omitempty"`
	VortexY     float64 `yaml:"vortex_y,omitempty" toml:"vortex_y,omitempty"`

	Sprite string `yaml:"sprite,omitempty" toml:"sprite,omitempty"`
	Blend  string `yaml:"blend,omitempty" toml:"blend,omitempty"`

	// SpawnAngle 初始旋转：motion / fixed / random / range（角度单位：度）
	SpawnAngle      string  `yaml:"spawn_angle,omitempty" toml:"spawn_angle,omitempty"`
	SpawnAngleValue float64 `yaml:"spawn_angle_value,omitempty" toml:"spawn_angle_value,omitempty"`
	SpawnAngleMin   float64 `yaml:"spawn_angle_min,omitempty" toml:"spawn_angle_min,omitempty"`
	SpawnAngleMax   float64 `yaml:"spawn_angle_max,omitempty" toml:"spawn_angle_max,omitempty"`
}

// FormatFor picks the preset format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// LoadPreset 从 YAML 或 TOML 文件加载预设并转换为 particle.Settings
//
// 参数：
//   - path: 预设文件路径，格式由扩展名决定
//
// 返回：
//   - particle.Settings: 填充默认值并钳制后的设置
//   - error: 读取、解析或校验错误
func LoadPreset(path string) (particle.Settings, error) {
	format, err := FormatFor(path)
	if err != nil {
		return particle.Settings{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return particle.Settings{}, fmt.Errorf("无法读取预设文件 %s: %w", path, err)
	}
	settings, err := ParsePreset(data, format)
	if err != nil {
		return particle.Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// LoadPresetFS loads a preset named name from fsys, for example the
// built-in presets of package embedded.
func LoadPresetFS(fsys fs.FS, name string) (particle.Settings, error) {
	format, err := FormatFor(name)
	if err != nil {
		return particle.Settings{}, err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return particle.Settings{}, fmt.Errorf("无法读取预设 %s: %w", name, err)
	}
	settings, err := ParsePreset(data, format)
	if err != nil {
		return particle.Settings{}, fmt.Errorf("%s: %w", name, err)
	}
	return settings, nil
}

// ParsePreset decodes preset data and converts it into settings.
func ParsePreset(data []byte, format Format) (particle.Settings, error) {
	var p Preset
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &p); err != nil {
			return particle.Settings{}, fmt.Errorf("解析 YAML 失败: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &p); err != nil {
			return particle.Settings{}, fmt.Errorf("解析 TOML 失败: %w", err)
		}
	default:
		return particle.Settings{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return p.Settings()
}

// Settings converts the preset into engine settings on top of the defaults.
// Out-of-range numbers are clamped; unknown names and malformed curve strings
// are errors. Emitters beyond particle.MaxEmitters are dropped with a warning.
func (p *Preset) Settings() (particle.Settings, error) {
	logger := logging.For("Config")

	s := particle.Settings{
		Timeline: particle.DefaultTimeline(),
		Export:   particle.DefaultExportSettings(),
		Seed:     p.Seed,
		Noise:    particle.NoiseHash,
	}

	switch particle.NoiseKind(p.Noise) {
	case "", particle.NoiseHash:
	case particle.NoisePerlin:
		s.Noise = particle.NoisePerlin
	default:
		return particle.Settings{}, fmt.Errorf("noise %q: %w", p.Noise, ErrUnknownValue)
	}

	p.Timeline.apply(&s.Timeline)
	if err := p.Export.apply(&s.Export); err != nil {
		return particle.Settings{}, err
	}

	defs := p.Emitters
	if len(defs) > particle.MaxEmitters {
		logger.Warn("too many emitters, extra ones dropped", "count", len(defs), "max", particle.MaxEmitters)
		defs = defs[:particle.MaxEmitters]
	}
	for i := range defs {
		cfg, err := defs[i].config()
		if err != nil {
			return particle.Settings{}, fmt.Errorf("emitter %d: %w", i, err)
		}
		if cfg.Name == "" {
			cfg.Name = fmt.Sprintf("emitter_%d", i)
		}
		s.Emitters = append(s.Emitters, cfg)
	}
	return s, nil
}

func (d TimelineDef) apply(tl *particle.Timeline) {
	if d.Duration != nil && *d.Duration > 0 {
		tl.Duration = math.Min(*d.Duration, 60)
	}
	if d.FPS != nil {
		tl.FPS = particle.Clamp(*d.FPS, 1, 120)
	}
	if d.Width != nil {
		tl.Width = particle.Clamp(*d.Width, 16, 4096)
	}
	if d.Height != nil {
		tl.Height = particle.Clamp(*d.Height, 16, 4096)
	}
}

func (d ExportDef) apply(ex *particle.ExportSettings) error {
	setNonNegative(&ex.PositionThreshold, d.PositionThreshold)
	setNonNegative(&ex.RotationThreshold, d.RotationThreshold)
	setNonNegative(&ex.ScaleThreshold, d.ScaleThreshold)
	setNonNegative(&ex.ColorThreshold, d.ColorThreshold)

	if d.SkeletonName != "" {
		ex.SkeletonName = d.SkeletonName
	}
	if d.RuntimeVersion != "" {
		dialect, err := skeleton.DialectFor(d.RuntimeVersion)
		if err != nil {
			return err
		}
		ex.RuntimeVersion = dialect.Version
	}
	if d.LoopAnimation != "" {
		ex.LoopAnimation = d.LoopAnimation
	}
	if d.PrewarmAnimation != "" {
		ex.PrewarmAnimation = d.PrewarmAnimation
	}
	if ex.LoopAnimation == ex.PrewarmAnimation {
		return fmt.Errorf("loop and prewarm animations share the name %q", ex.LoopAnimation)
	}
	return nil
}

func (d *EmitterDef) config() (particle.EmitterConfig, error) {
	cfg := particle.DefaultEmitterConfig()
	cfg.Name = d.Name
	setBool(&cfg.Enabled, d.Enabled)
	setBool(&cfg.Visible, d.Visible)

	shape, err := d.Shape.shape()
	if err != nil {
		return cfg, err
	}
	cfg.Shape = shape

	if err := setEnum(&cfg.Mode, d.Mode, "mode", particle.ModeArea, particle.ModeEdge); err != nil {
		return cfg, err
	}
	if err := setEnum(&cfg.Pattern, d.Pattern, "pattern",
		particle.PatternContinuous, particle.PatternBurst, particle.PatternDuration); err != nil {
		return cfg, err
	}
	if err := setEnum(&cfg.Sprite, d.Sprite, "sprite",
		particle.SpriteCircle, particle.SpriteGlow, particle.SpriteSquare, particle.SpriteStar, particle.SpriteTriangle); err != nil {
		return cfg, err
	}
	if err := setEnum(&cfg.Blend, d.Blend, "blend", particle.BlendNormal, particle.BlendAdditive); err != nil {
		return cfg, err
	}
	if err := setEnum(&cfg.SpawnAngle, d.SpawnAngle, "spawn_angle",
		particle.SpawnAngleMotion, particle.SpawnAngleFixed, particle.SpawnAngleRandom, particle.SpawnAngleRange); err != nil {
		return cfg, err
	}

	setNonNegative(&cfg.Rate, d.Rate)
	if d.BurstCount != nil {
		cfg.BurstCount = max(*d.BurstCount, 0)
	}
	if d.BurstCycles != nil {
		cfg.BurstCycles = max(*d.BurstCycles, 1)
	}
	if d.BurstInterval != nil {
		cfg.BurstInterval = math.Max(*d.BurstInterval, 0.01)
	}
	setNonNegative(&cfg.WindowStart, d.WindowStart)
	setNonNegative(&cfg.WindowEnd, d.WindowEnd)
	cfg.WindowEnd = math.Max(cfg.WindowEnd, cfg.WindowStart)
	if d.MaxParticles != nil {
		cfg.MaxParticles = max(*d.MaxParticles, 0)
	}

	cfg.X, cfg.Y = d.X, d.Y
	if d.Angle != nil {
		cfg.Angle = *d.Angle
	}
	if d.Spread != nil {
		cfg.Spread = particle.Clamp(*d.Spread, 0, 360)
	}
	cfg.StartDelay = math.Max(d.StartDelay, 0)
	setBool(&cfg.Looping, d.Looping)
	cfg.Prewarm = d.Prewarm

	if err := d.Curves.apply(&cfg); err != nil {
		return cfg, err
	}
	if err := d.Base.apply(&cfg); err != nil {
		return cfg, err
	}
	// 寿命至少一帧量级，避免粒子出生即消失
	cfg.Lifetime.Min = math.Max(cfg.Lifetime.Min, 0.01)
	cfg.Lifetime.Max = math.Max(cfg.Lifetime.Max, cfg.Lifetime.Min)

	cfg.ScaleRatioX = math.Max(d.ScaleRatioX, 0)
	cfg.ScaleRatioY = math.Max(d.ScaleRatioY, 0)
	cfg.AttractionX, cfg.AttractionY = d.AttractionX, d.AttractionY
	cfg.VortexX, cfg.VortexY = d.VortexX, d.VortexY

	cfg.SpawnAngleValue = d.SpawnAngleValue
	cfg.SpawnAngleMin, cfg.SpawnAngleMax = d.SpawnAngleMin, d.SpawnAngleMax
	if cfg.SpawnAngleMin > cfg.SpawnAngleMax {
		cfg.SpawnAngleMin, cfg.SpawnAngleMax = cfg.SpawnAngleMax, cfg.SpawnAngleMin
	}
	return cfg, nil
}

func (d ShapeDef) shape() (particle.Shape, error) {
	switch particle.ShapeKind(d.Kind) {
	case "", particle.ShapePoint:
		return particle.PointShape{}, nil
	case particle.ShapeLine:
		return particle.LineShape{Length: math.Max(d.Length, 0), Angle: d.Angle}, nil
	case particle.ShapeCircle:
		return particle.CircleShape{Radius: math.Max(d.Radius, 0)}, nil
	case particle.ShapeRect:
		return particle.RectShape{Width: math.Max(d.Width, 0), Height: math.Max(d.Height, 0)}, nil
	case particle.ShapeRoundedRect:
		s := particle.RoundedRectShape{Width: math.Max(d.Width, 0), Height: math.Max(d.Height, 0), CornerRadius: d.CornerRadius}
		s.CornerRadius = s.EffectiveCornerRadius()
		return s, nil
	}
	return nil, fmt.Errorf("shape %q: %w", d.Kind, ErrUnknownValue)
}

func (d CurvesDef) apply(cfg *particle.EmitterConfig) error {
	curves := []struct {
		name string
		src  string
		dst  *particle.Curve
	}{
		{"size_x", d.SizeX, &cfg.SizeX},
		{"size_y", d.SizeY, &cfg.SizeY},
		{"speed", d.Speed, &cfg.Speed},
		{"weight", d.Weight, &cfg.Weight},
		{"spin", d.Spin, &cfg.Spin},
		{"gravity", d.Gravity, &cfg.Gravity},
		{"drag", d.Drag, &cfg.Drag},
		{"noise", d.Noise, &cfg.Noise},
		{"attraction", d.Attraction, &cfg.Attraction},
		{"vortex", d.Vortex, &cfg.Vortex},
		{"angular_velocity", d.AngularVelocity, &cfg.AngularVelocity},
	}
	for _, c := range curves {
		if c.src == "" {
			continue
		}
		curve, err := particle.ParseCurve(c.src)
		if err != nil {
			return fmt.Errorf("curves.%s: %w", c.name, err)
		}
		*c.dst = curve
	}
	if d.Color != "" {
		g, err := particle.ParseGradient(d.Color)
		if err != nil {
			return fmt.Errorf("curves.color: %w", err)
		}
		cfg.Color = g
	}
	return nil
}

func (d BaseDef) apply(cfg *particle.EmitterConfig) error {
	ranges := []struct {
		name string
		src  string
		dst  *particle.Range
	}{
		{"lifetime", d.Lifetime, &cfg.Lifetime},
		{"launch_speed", d.LaunchSpeed, &cfg.LaunchSpeed},
		{"size_x", d.SizeX, &cfg.SizeXBase},
		{"size_y", d.SizeY, &cfg.SizeYBase},
		{"speed_scale", d.SpeedScale, &cfg.SpeedScale},
		{"weight", d.Weight, &cfg.WeightBase},
		{"spin", d.Spin, &cfg.SpinBase},
		{"gravity", d.Gravity, &cfg.GravityBase},
		{"drag", d.Drag, &cfg.DragBase},
		{"noise_strength", d.NoiseStrength, &cfg.NoiseStrength},
		{"noise_frequency", d.NoiseFrequency, &cfg.NoiseFrequency},
		{"noise_speed", d.NoiseSpeed, &cfg.NoiseSpeed},
		{"attraction", d.Attraction, &cfg.AttractionBase},
		{"vortex", d.Vortex, &cfg.VortexBase},
		{"angular_velocity", d.AngularVelocity, &cfg.AngularVelocityBase},
	}
	for _, r := range ranges {
		if r.src == "" {
			continue
		}
		rg, err := particle.ParseRange(r.src)
		if err != nil {
			return fmt.Errorf("base.%s: %w", r.name, err)
		}
		*r.dst = rg
	}
	return nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setNonNegative(dst *float64, v *float64) {
	if v != nil {
		*dst = math.Max(*v, 0)
	}
}

// setEnum stores name into dst if it is one of allowed; an empty name keeps dst.
func setEnum[T ~string](dst *T, name, field string, allowed ...T) error {
	if name == "" {
		return nil
	}
	for _, a := range allowed {
		if T(name) == a {
			*dst = a
			return nil
		}
	}
	return fmt.Errorf("%s %q: %w", field, name, ErrUnknownValue)
}
