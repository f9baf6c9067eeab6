// Package main provides a live preview window for particle presets.
//
// Usage:
//
//	go run ./cmd/particles [flags] [preset file or directory]
//
// Without an argument the built-in presets are shown.
//
// Flags:
//
//	--watch       Reload the preset when its file changes (ignored for built-in presets)
//	--out <dir>   Output directory for archives exported with E
//	--verbose     Enable debug logging
//
// Controls:
//
//	Left/Right Arrow  - Switch to previous/next preset in the directory
//	Space             - Restart the simulation (prewarm runs again)
//	P                 - Toggle pause
//	S                 - Single step while paused
//	R                 - Reload the preset from disk
//	E                 - Export the preset as a ZIP archive
//	Q/Escape          - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/particle-baker/internal/logging"
	"github.com/decker502/particle-baker/internal/particle"
	"github.com/decker502/particle-baker/pkg/config"
	"github.com/decker502/particle-baker/pkg/embedded"
	"github.com/decker502/particle-baker/pkg/export"
	"github.com/decker502/particle-baker/pkg/systems"
	"github.com/decker502/particle-baker/pkg/watch"
)

// tickRate is the fixed simulation rate of the preview.
const tickRate = 60

var (
	watchFlag   = flag.Bool("watch", false, "Reload the preset when its file changes")
	outFlag     = flag.String("out", "", "Output directory for exported archives (default PARTICLES_OUT_DIR)")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

var logger = logging.For("Preview")

// PreviewGame implements ebiten.Game for the preset preview.
type PreviewGame struct {
	presets fs.FS
	names   []string // preset file names in presets, sorted
	dir     string   // directory of presets on disk, empty for built-in presets
	current int

	settings particle.Settings
	engine   *systems.ParticleSystem
	exporter *export.Exporter
	sprites  map[particle.SpriteKind]*ebiten.Image

	outDir string
	reload chan int // 发生变化的预设下标
	paused bool
	step   bool
	peak   int

	statusMessage string
}

// NewPreviewGame loads the first of names from presets.
func NewPreviewGame(presets fs.FS, names []string, dir, outDir string) (*PreviewGame, error) {
	g := &PreviewGame{
		presets:  presets,
		names:    names,
		dir:      dir,
		exporter: export.NewExporter(),
		sprites:  make(map[particle.SpriteKind]*ebiten.Image),
		outDir:   outDir,
		reload:   make(chan int, 8),
	}
	if err := g.load(); err != nil {
		return nil, err
	}
	return g, nil
}

// listPresets resolves path into a preset directory and the preset file
// names in it. path may name a single preset file.
func listPresets(path string) (dir string, names []string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	if !info.IsDir() {
		return filepath.Dir(path), []string{filepath.Base(path)}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to scan preset directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := config.FormatFor(e.Name()); err == nil {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", nil, fmt.Errorf("no presets in %s", path)
	}
	sort.Strings(names)
	return path, names, nil
}

func (g *PreviewGame) presetName() string {
	return g.names[g.current]
}

// load reads the current preset and restarts the simulation. On error the
// previous preset keeps running.
func (g *PreviewGame) load() error {
	settings, err := config.LoadPresetFS(g.presets, g.presetName())
	if err != nil {
		return err
	}
	g.settings = settings
	g.restart()
	g.statusMessage = fmt.Sprintf("Loaded: %s", g.presetName())
	logger.Info("preset loaded", "preset", g.presetName(), "emitters", len(settings.Emitters))
	return nil
}

func (g *PreviewGame) restart() {
	g.engine = systems.NewParticleSystem(g.settings, systems.WithEmitterFilter(systems.VisibleOnly))
	g.peak = 0
	g.engine.Subscribe(func(s systems.Stats) { g.peak = max(g.peak, s.ParticleCount) })
	g.engine.Prewarm(g.settings.Timeline.FPS)
}

// Update advances the simulation by one tick.
func (g *PreviewGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	select {
	case i := <-g.reload:
		if i == g.current {
			g.reloadPreset()
		}
	default:
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		g.switchPreset(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		g.switchPreset(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.restart()
		g.statusMessage = "Restarted"
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.paused = !g.paused
		if g.paused {
			g.statusMessage = "PAUSED - P to resume, S to step"
		} else {
			g.statusMessage = "Resumed"
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.step = true
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.reloadPreset()
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		g.exportPreset()
	}

	if !g.paused || g.step {
		g.engine.Advance(1.0 / tickRate)
		g.step = false
	}
	return nil
}

func (g *PreviewGame) switchPreset(delta int) {
	if len(g.names) < 2 {
		return
	}
	prev := g.current
	g.current = (g.current + delta + len(g.names)) % len(g.names)
	if err := g.load(); err != nil {
		g.current = prev
		g.statusMessage = fmt.Sprintf("Error: %v", err)
		logger.Error("failed to load preset", "err", err)
	}
}

func (g *PreviewGame) reloadPreset() {
	if err := g.load(); err != nil {
		g.statusMessage = fmt.Sprintf("Error: %v", err)
		logger.Error("failed to reload preset", "err", err)
	}
}

func (g *PreviewGame) exportPreset() {
	res, err := g.exporter.Export(g.settings)
	if err != nil {
		g.statusMessage = err.Error()
		return
	}
	path := filepath.Join(g.outDir, res.Skeleton+".zip")
	if err := os.WriteFile(path, res.Archive, 0o644); err != nil {
		g.statusMessage = fmt.Sprintf("Error: %v", err)
		logger.Error("failed to write archive", "path", path, "err", err)
		return
	}
	g.statusMessage = fmt.Sprintf("Exported %s (%d keys)", path, res.Keys)
}

// sprite returns the ebiten image of a sprite kind, rasterized on first use.
func (g *PreviewGame) sprite(kind particle.SpriteKind) *ebiten.Image {
	if img, ok := g.sprites[kind]; ok {
		return img
	}
	img := ebiten.NewImageFromImage(export.RasterizeSprite(kind, export.SpriteSize))
	g.sprites[kind] = img
	return img
}

// Draw renders the particles and the overlay.
func (g *PreviewGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{24, 24, 32, 255})

	half := float64(export.SpriteSize) / 2
	for _, p := range g.engine.Particles() {
		cfg := &g.settings.Emitters[p.EmitterID]
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-half, -half)
		op.GeoM.Scale(p.ScaleX, p.ScaleY)
		op.GeoM.Rotate(p.Rotation)
		op.GeoM.Translate(p.X, p.Y)
		op.ColorScale.ScaleWithColor(color.NRGBA{R: p.Color.R, G: p.Color.G, B: p.Color.B, A: 255})
		op.ColorScale.ScaleAlpha(float32(p.Alpha))
		op.Filter = ebiten.FilterLinear
		if cfg.Blend == particle.BlendAdditive {
			op.Blend = ebiten.BlendLighter
		}
		screen.DrawImage(g.sprite(cfg.Sprite), op)
	}

	g.drawUI(screen)
}

func (g *PreviewGame) drawUI(screen *ebiten.Image) {
	title := fmt.Sprintf("Preset %d/%d: %s", g.current+1, len(g.names), g.presetName())
	ebitenutil.DebugPrintAt(screen, title, 10, 10)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Time: %.2fs  Particles: %d  Peak: %d",
		g.engine.Time(), g.engine.ParticleCount(), g.peak), 10, 30)

	var states []string
	for i := range g.settings.Emitters {
		if !g.engine.Included(i) {
			continue
		}
		st := g.engine.Emitter(i)
		states = append(states, fmt.Sprintf("%s:%s", g.settings.Emitters[i].Name, st.Phase))
	}
	ebitenutil.DebugPrintAt(screen, "Emitters: "+strings.Join(states, "  "), 10, 50)
	if g.statusMessage != "" {
		ebitenutil.DebugPrintAt(screen, g.statusMessage, 10, 70)
	}

	_, h := g.Layout(0, 0)
	ebitenutil.DebugPrintAt(screen, "<-/-> Preset  Space Restart  P Pause  S Step  R Reload  E Export  Q Quit", 10, h-20)
}

// Layout returns the timeline canvas size.
func (g *PreviewGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return max(g.settings.Timeline.Width, 320), max(g.settings.Timeline.Height, 240)
}

// watchPresets requests a reload whenever one of the preset files changes.
// Every preset gets its own watcher so switching presets needs no rewiring.
func (g *PreviewGame) watchPresets(ctx context.Context, cfg config.ToolConfig) {
	for i, name := range g.names {
		path := filepath.Join(g.dir, name)
		w, err := watch.New(path, cfg.Debounce)
		if err != nil {
			logger.Error("failed to watch preset", "path", path, "err", err)
			continue
		}
		go func() {
			defer w.Close()
			w.Run(ctx, func(string) { g.reload <- i })
		}()
	}
}

func main() {
	flag.Parse()

	cfg, err := config.LoadToolConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.SetLevel(cfg.LogLevel)
	if *verboseFlag {
		logging.SetLevel("debug")
	}
	if *outFlag != "" {
		cfg.OutDir = *outFlag
	}

	var (
		presets = embedded.Presets()
		names   = embedded.PresetNames()
		dir     string
	)
	switch flag.NArg() {
	case 0:
		logger.Info("no preset given, showing built-in presets", "count", len(names))
	case 1:
		if dir, names, err = listPresets(flag.Arg(0)); err != nil {
			logger.Fatal("failed to list presets", "err", err)
		}
		presets = os.DirFS(dir)
	default:
		fmt.Fprintln(os.Stderr, "usage: particles [flags] [preset file or directory]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	game, err := NewPreviewGame(presets, names, dir, cfg.OutDir)
	if err != nil {
		logger.Fatal("failed to initialize preview", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *watchFlag && dir != "" {
		go game.watchPresets(ctx, cfg)
	}

	w, h := game.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Particle Preset Preview")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(tickRate)

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal("preview stopped", "err", err)
	}
	logger.Info("preview closed")
}
