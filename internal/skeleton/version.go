package skeleton

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// DefaultVersion is written when no runtime version is configured.
const DefaultVersion = "4.1.0"

// rgbaTimelines matches runtimes that name slot colour timelines "rgba" and
// rotate values "value". Earlier runtimes use "color" and "angle".
var rgbaTimelines = mustConstraint(">= 4.0.0-0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Dialect selects version-dependent key names.
type Dialect struct {
	Version string
	RGBA    bool // "rgba" colour timelines and "value" rotate keys
}

// DialectFor parses a runtime version. An empty version means DefaultVersion.
func DialectFor(version string) (Dialect, error) {
	if version == "" {
		version = DefaultVersion
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return Dialect{}, fmt.Errorf("invalid runtime version %q: %w", version, err)
	}
	return Dialect{Version: v.String(), RGBA: rgbaTimelines.Check(v)}, nil
}
