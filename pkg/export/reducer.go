package export

import (
	"math"
	"sort"

	"github.com/decker502/particle-baker/internal/particle"
)

// Thresholds are the per-channel change limits below which no key is written.
type Thresholds struct {
	Position float64 // pixels, euclidean distance
	Rotation float64 // degrees
	Scale    float64 // largest axis change
	Color    float64 // largest channel change, 0-255
}

// ThresholdsFrom reads the thresholds of the export settings.
func ThresholdsFrom(s particle.ExportSettings) Thresholds {
	return Thresholds{
		Position: s.PositionThreshold,
		Rotation: s.RotationThreshold,
		Scale:    s.ScaleThreshold,
		Color:    s.ColorThreshold,
	}
}

// Vec2Key is a two-component key (translate, scale).
type Vec2Key struct {
	Time float64
	X, Y float64
}

// ScalarKey is a one-component key (rotation in degrees).
type ScalarKey struct {
	Time  float64
	Value float64
}

// VisibilityKey shows or clears the particle's attachment.
type VisibilityKey struct {
	Time    float64
	Visible bool
}

// ColorKey tints the particle.
type ColorKey struct {
	Time  float64
	Color particle.RGBA
}

// ParticleTrack is the reduced keyframe data of one particle, in simulation
// space: translate is relative to the emitter anchor with Y down, rotation is
// clockwise degrees, unwrapped.
type ParticleTrack struct {
	ID        int
	EmitterID int

	Translate  []Vec2Key
	Rotate     []ScalarKey
	Scale      []Vec2Key
	Visibility []VisibilityKey
	Color      []ColorKey
}

// KeyCount returns the total number of keys of the track.
func (t *ParticleTrack) KeyCount() int {
	return len(t.Translate) + len(t.Rotate) + len(t.Scale) + len(t.Visibility) + len(t.Color)
}

// clone returns a deep copy, so later stages never alias earlier results.
func (t ParticleTrack) clone() ParticleTrack {
	t.Translate = append([]Vec2Key(nil), t.Translate...)
	t.Rotate = append([]ScalarKey(nil), t.Rotate...)
	t.Scale = append([]Vec2Key(nil), t.Scale...)
	t.Visibility = append([]VisibilityKey(nil), t.Visibility...)
	t.Color = append([]ColorKey(nil), t.Color...)
	return t
}

// Reduce builds one track per id from the frame sequence, keeping only the
// keys interpolation cannot reproduce within the thresholds. Ids that are
// never visible get no track. Tracks are returned in id order.
func Reduce(frames []BakedFrame, ids []int, th Thresholds) []ParticleTrack {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	tracks := make([]ParticleTrack, 0, len(sorted))
	for _, id := range sorted {
		if tr, ok := reduceParticle(frames, id, th); ok {
			tracks = append(tracks, tr)
		}
	}
	return tracks
}

// reduceParticle walks the frames once for one particle.
func reduceParticle(frames []BakedFrame, id int, th Thresholds) (ParticleTrack, bool) {
	rotation := smoothRotation(frames, id)

	tr := ParticleTrack{ID: id, EmitterID: -1}
	var (
		wasVisible bool
		everShown  bool

		lastPos, lastScale Vec2Key
		lastRot            float64
		lastColor          particle.RGBA
		havePos, haveRot   bool
		haveScale          bool
		haveColor          bool

		// state of the previous visible frame, for freezing on disappearance
		prevFrame BakedParticle
		prevRot   float64
		prevTime  float64
	)

	lastIndex := len(frames) - 1
	for i, f := range frames {
		p, ok := f.Particles[id]
		visible := ok && p.Visible()
		first, last := i == 0, i == lastIndex
		transition := i > 0 && visible != wasVisible

		if ok && tr.EmitterID < 0 {
			tr.EmitterID = p.EmitterID
		}

		switch {
		case visible:
			everShown = true
			if first || transition {
				tr.Visibility = append(tr.Visibility, VisibilityKey{Time: f.Time, Visible: true})
			}
			force := first || last || transition

			if force || !havePos || math.Hypot(p.X-lastPos.X, p.Y-lastPos.Y) > th.Position {
				lastPos = Vec2Key{Time: f.Time, X: p.X, Y: p.Y}
				tr.Translate = append(tr.Translate, lastPos)
				havePos = true
			}
			if rot := rotation[i]; force || !haveRot || math.Abs(rot-lastRot) > th.Rotation {
				lastRot = rot
				tr.Rotate = append(tr.Rotate, ScalarKey{Time: f.Time, Value: rot})
				haveRot = true
			}
			if force || !haveScale || math.Max(math.Abs(p.ScaleX-lastScale.X), math.Abs(p.ScaleY-lastScale.Y)) > th.Scale {
				lastScale = Vec2Key{Time: f.Time, X: p.ScaleX, Y: p.ScaleY}
				tr.Scale = append(tr.Scale, lastScale)
				haveScale = true
			}
			c := bakedColor(p)
			if force || !haveColor || colorDelta(c, lastColor) > th.Color {
				lastColor = c
				tr.Color = append(tr.Color, ColorKey{Time: f.Time, Color: c})
				haveColor = true
			}

			prevFrame, prevRot, prevTime = p, rotation[i], f.Time

		case first:
			tr.Visibility = append(tr.Visibility, VisibilityKey{Time: f.Time, Visible: false})

		case wasVisible:
			// 消失: 先补齐上一可见帧, 再清除附件并冻结变换
			tr.flushFrame(prevTime, prevFrame, prevRot)
			tr.Visibility = append(tr.Visibility, VisibilityKey{Time: f.Time, Visible: false})
			tr.Translate = append(tr.Translate, Vec2Key{Time: f.Time, X: prevFrame.X, Y: prevFrame.Y})
			tr.Rotate = append(tr.Rotate, ScalarKey{Time: f.Time, Value: prevRot})
			tr.Scale = append(tr.Scale, Vec2Key{Time: f.Time, X: prevFrame.ScaleX, Y: prevFrame.ScaleY})
			lastPos = Vec2Key{Time: f.Time, X: prevFrame.X, Y: prevFrame.Y}
			lastRot = prevRot
			lastScale = Vec2Key{Time: f.Time, X: prevFrame.ScaleX, Y: prevFrame.ScaleY}
		}
		wasVisible = visible
	}

	if !everShown {
		return ParticleTrack{}, false
	}
	return tr, true
}

// flushFrame writes the transform and colour of the last visible frame when
// reduction skipped them, so motion and fades run right up to the
// disappearance.
func (tr *ParticleTrack) flushFrame(t float64, p BakedParticle, rot float64) {
	if n := len(tr.Translate); n > 0 && tr.Translate[n-1].Time < t {
		tr.Translate = append(tr.Translate, Vec2Key{Time: t, X: p.X, Y: p.Y})
	}
	if n := len(tr.Rotate); n > 0 && tr.Rotate[n-1].Time < t {
		tr.Rotate = append(tr.Rotate, ScalarKey{Time: t, Value: rot})
	}
	if n := len(tr.Scale); n > 0 && tr.Scale[n-1].Time < t {
		tr.Scale = append(tr.Scale, Vec2Key{Time: t, X: p.ScaleX, Y: p.ScaleY})
	}
	if n := len(tr.Color); n > 0 && tr.Color[n-1].Time < t {
		tr.Color = append(tr.Color, ColorKey{Time: t, Color: bakedColor(p)})
	}
}

// smoothRotation returns the per-frame rotation of one particle, median
// filtered over a window of three present frames and then unwrapped against
// the previous unwrapped value, so consecutive values never differ by more
// than 180°.
func smoothRotation(frames []BakedFrame, id int) []float64 {
	raw := make([]float64, len(frames))
	present := make([]bool, len(frames))
	for i, f := range frames {
		if p, ok := f.Particles[id]; ok {
			raw[i], present[i] = p.Rotation, true
		}
	}

	out := make([]float64, len(frames))
	havePrev := false
	prev := 0.0
	for i := range frames {
		if !present[i] {
			continue
		}
		v := raw[i]
		if i > 0 && i < len(frames)-1 && present[i-1] && present[i+1] {
			// neighbours brought within half a turn of the centre first
			v = median3(unwrapAngle(v, raw[i-1]), v, unwrapAngle(v, raw[i+1]))
		}
		if havePrev {
			v = unwrapAngle(prev, v)
		}
		out[i], prev, havePrev = v, v, true
	}
	return out
}

func median3(a, b, c float64) float64 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	return math.Max(a, b)
}

// unwrapAngle shifts v by whole turns so it lies within 180° of prev.
func unwrapAngle(prev, v float64) float64 {
	for v-prev > 180 {
		v -= 360
	}
	for v-prev < -180 {
		v += 360
	}
	return v
}

func bakedColor(p BakedParticle) particle.RGBA {
	c := p.Color
	c.A = uint8(math.Round(particle.Clamp(p.Alpha, 0, 1) * 255))
	return c
}

func colorDelta(a, b particle.RGBA) float64 {
	d := func(x, y uint8) float64 { return math.Abs(float64(x) - float64(y)) }
	return math.Max(math.Max(d(a.R, b.R), d(a.G, b.G)), math.Max(d(a.B, b.B), d(a.A, b.A)))
}
