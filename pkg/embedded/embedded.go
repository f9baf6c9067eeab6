// Package embedded ships the built-in particle presets inside the binary so
// the preview tool works without a preset directory on disk.
package embedded

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed presets
var presetFS embed.FS

// presetDir 是嵌入文件系统中预设所在的目录
const presetDir = "presets"

// Presets returns the built-in presets as a flat file system.
func Presets() fs.FS {
	sub, err := fs.Sub(presetFS, presetDir)
	if err != nil {
		// presetDir 由 go:embed 保证存在
		panic(err)
	}
	return sub
}

// PresetNames returns the file names of the built-in presets, sorted.
func PresetNames() []string {
	entries, err := fs.ReadDir(presetFS, presetDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(e.Name())) {
		case ".yaml", ".yml", ".toml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// ReadPreset returns the raw bytes of a built-in preset.
func ReadPreset(name string) ([]byte, error) {
	return fs.ReadFile(Presets(), name)
}
