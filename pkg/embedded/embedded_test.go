package embedded

import (
	"errors"
	"io/fs"
	"sort"
	"testing"
)

func TestPresetNames(t *testing.T) {
	names := PresetNames()
	if len(names) == 0 {
		t.Fatal("no built-in presets")
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	want := map[string]bool{"fountain.yaml": false, "sparks.toml": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, found := range want {
		if !found {
			t.Errorf("missing built-in preset %s", n)
		}
	}
}

func TestReadPreset(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			data, err := ReadPreset(name)
			if err != nil {
				t.Fatalf("ReadPreset: %v", err)
			}
			if len(data) == 0 {
				t.Error("empty preset")
			}
		})
	}

	if _, err := ReadPreset("missing.yaml"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing preset err = %v, want fs.ErrNotExist", err)
	}
}

func TestPresets_IsFlat(t *testing.T) {
	entries, err := fs.ReadDir(Presets(), ".")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(PresetNames()) {
		t.Errorf("Presets() has %d entries, PresetNames %d", len(entries), len(PresetNames()))
	}
}
