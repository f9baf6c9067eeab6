// Package export turns a particle preset into a skeletal animation package.
//
// The pipeline runs as explicit stages with data passed forward only:
//
//	Bake → Reduce → SpliceContinuation → TrimPrewarm → CloseLoop → BuildDocument → archive
//
// Every stage is a plain function over values produced by the previous one,
// so each can be tested in isolation. Exporter wires them together.
package export

import (
	"math"
	"sort"

	"github.com/decker502/particle-baker/internal/particle"
	"github.com/decker502/particle-baker/pkg/components"
)

// minVisibleAlpha is the alpha below which a particle counts as invisible.
const minVisibleAlpha = 1.0 / 255

// BakedParticle is the recorded state of one particle in one frame.
// Position is relative to the owning emitter's anchor, in simulation space
// (Y down), and rotation is in degrees.
type BakedParticle struct {
	ID        int
	EmitterID int

	X, Y     float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
	Color    particle.RGBA // A mirrors Alpha
	Alpha    float64

	Life    float64
	MaxLife float64
}

// Visible reports whether the particle would draw anything.
func (p BakedParticle) Visible() bool {
	return p.Alpha >= minVisibleAlpha
}

// BakedFrame is one captured frame, particles keyed by id.
type BakedFrame struct {
	Index     int
	Time      float64
	Particles map[int]BakedParticle
}

func newFrame(index int, t float64) BakedFrame {
	return BakedFrame{Index: index, Time: t, Particles: make(map[int]BakedParticle)}
}

// IDs returns the particle ids of the frame in ascending order.
func (f BakedFrame) IDs() []int {
	ids := make([]int, 0, len(f.Particles))
	for id := range f.Particles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// bakeParticle converts a live particle into its recorded form.
func bakeParticle(p components.ParticleComponent, cfg *particle.EmitterConfig) BakedParticle {
	return BakedParticle{
		ID:        p.ID,
		EmitterID: p.EmitterID,
		X:         p.X - cfg.X,
		Y:         p.Y - cfg.Y,
		Rotation:  p.Rotation * 180 / math.Pi,
		ScaleX:    p.ScaleX,
		ScaleY:    p.ScaleY,
		Color:     p.Color,
		Alpha:     p.Alpha,
		Life:      p.Life,
		MaxLife:   p.MaxLife,
	}
}

// trackedIDs returns every id present in any of the frames, ascending.
func trackedIDs(frames []BakedFrame) []int {
	seen := make(map[int]bool)
	for _, f := range frames {
		for id := range f.Particles {
			seen[id] = true
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
