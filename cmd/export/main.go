// Package main bakes a particle preset into a skeletal animation archive.
//
// Usage:
//
//	go run ./cmd/export [flags] <preset.yaml|preset.toml>
//	go run ./cmd/export -builtin fountain.yaml
//	go run ./cmd/export -store particles -list
//
// Flags:
//
//	-o <dir>        Output directory (default PARTICLES_OUT_DIR or ".")
//	-watch          Rebake every time the preset file changes
//	-builtin        Treat the argument as the name of a built-in preset
//	-store <app>    Also keep each archive in the gdata library of <app>
//	-list           Print the stored exports of -store and exit
//	-seed <n>       Override the preset seed
//	-v              Debug logging
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/decker502/particle-baker/internal/logging"
	"github.com/decker502/particle-baker/internal/particle"
	"github.com/decker502/particle-baker/pkg/config"
	"github.com/decker502/particle-baker/pkg/embedded"
	"github.com/decker502/particle-baker/pkg/export"
	"github.com/decker502/particle-baker/pkg/store"
	"github.com/decker502/particle-baker/pkg/watch"
)

var (
	outFlag     = flag.String("o", "", "Output directory (default PARTICLES_OUT_DIR)")
	watchFlag   = flag.Bool("watch", false, "Rebake every time the preset file changes")
	builtinFlag = flag.Bool("builtin", false, "Treat the argument as the name of a built-in preset")
	storeFlag   = flag.String("store", "", "gdata app name of the export library (default PARTICLES_STORE)")
	listFlag    = flag.Bool("list", false, "List the stored exports and exit")
	seedFlag    = flag.Int64("seed", 0, "Override the preset seed (0 keeps it)")
	verboseFlag = flag.Bool("v", false, "Enable debug logging")
)

var logger = logging.For("Export")

// job is one configured export run.
type job struct {
	presets  fs.FS // built-in presets, nil when preset is a file path
	preset   string
	outDir   string
	seed     int64
	exporter *export.Exporter
	library  *store.Library
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		logger.Error("export failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadToolConfig()
	if err != nil {
		return err
	}
	logging.SetLevel(cfg.LogLevel)
	if *verboseFlag {
		logging.SetLevel("debug")
	}
	if *outFlag != "" {
		cfg.OutDir = *outFlag
	}
	if *storeFlag != "" {
		cfg.StoreName = *storeFlag
	}
	if *seedFlag != 0 {
		cfg.Seed = *seedFlag
	}

	var library *store.Library
	if cfg.StoreName != "" {
		if library, err = store.Open(cfg.StoreName); err != nil {
			return err
		}
	}
	if *listFlag {
		if library == nil {
			return errors.New("-list needs -store or PARTICLES_STORE")
		}
		return printLibrary(library)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: export [flags] <preset.yaml|preset.toml>")
		fmt.Fprintln(os.Stderr, "built-in presets:", embedded.PresetNames())
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *builtinFlag && *watchFlag {
		return errors.New("-watch cannot be combined with -builtin")
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	j := &job{
		preset:   flag.Arg(0),
		outDir:   cfg.OutDir,
		seed:     cfg.Seed,
		exporter: export.NewExporter(),
		library:  library,
	}
	if *builtinFlag {
		j.presets = embedded.Presets()
	}
	if !*watchFlag {
		return j.bake()
	}

	// 监听模式：首次烘焙失败不退出，等待文件修正后重试
	if err := j.bake(); err != nil {
		logger.Error("bake failed", "err", err)
	}
	w, err := watch.New(j.preset, cfg.Debounce)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("watching preset", "path", w.Path())
	err = w.Run(ctx, func(string) {
		if err := j.bake(); err != nil {
			// 失败时保留上一次成功的导出
			logger.Error("rebake failed", "err", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// bake loads the preset, exports it and writes the archive.
func (j *job) bake() error {
	var (
		settings particle.Settings
		err      error
	)
	if j.presets != nil {
		settings, err = config.LoadPresetFS(j.presets, j.preset)
	} else {
		settings, err = config.LoadPreset(j.preset)
	}
	if err != nil {
		return err
	}
	if j.seed != 0 {
		settings.Seed = j.seed
	}

	res, err := j.exporter.Export(settings)
	if err != nil {
		return err
	}

	path := filepath.Join(j.outDir, res.Skeleton+".zip")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, res.Archive, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write archive: %w", err)
	}
	logger.Info("archive written",
		"path", path,
		"loopTracks", res.LoopTracks,
		"prewarmTracks", res.PrewarmTracks,
		"peakParticles", peakParticles(res.Bake))

	if j.library != nil {
		if _, err := j.library.Save(res, j.preset); err != nil {
			return err
		}
	}
	return nil
}

// peakParticles returns the largest particle count of the baked loop.
func peakParticles(b *export.BakeResult) int {
	peak := 0
	for _, f := range b.Loop {
		peak = max(peak, len(f.Particles))
	}
	return peak
}

func printLibrary(lib *store.Library) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKELETON\tCREATED\tBYTES\tKEYS\tPRESET")
	for _, e := range lib.Entries() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			e.ID, e.Skeleton, e.CreatedAt.Local().Format(time.DateTime), e.Bytes, e.Keys, e.Preset)
	}
	return tw.Flush()
}
