package export

import (
	"fmt"
	"sort"

	"github.com/decker502/particle-baker/internal/particle"
	"github.com/decker502/particle-baker/internal/skeleton"
)

// RegionName is the single atlas region every particle slot shows.
const RegionName = "particle"

// timeEpsilon treats two key times as equal.
const timeEpsilon = 1e-6

// EmitterBoneName returns the bone name of emitter i.
func EmitterBoneName(i int) string {
	return fmt.Sprintf("emitter_%d", i)
}

// ParticleBoneName returns the bone and slot name of one particle.
func ParticleBoneName(emitter, id int) string {
	return fmt.Sprintf("e%d_p%d", emitter, id)
}

// SpliceContinuation appends the continuation keys of every prewarm track
// that has one, shifted by offset (the prewarm duration), so a particle born
// during prewarm plays out its remaining life after the prewarm sequence.
// It returns new tracks and the set of spliced ids; the inputs are untouched.
func SpliceContinuation(prewarm, continuation []ParticleTrack, offset float64) ([]ParticleTrack, map[int]bool) {
	byID := make(map[int]*ParticleTrack, len(continuation))
	for i := range continuation {
		byID[continuation[i].ID] = &continuation[i]
	}

	spliced := make(map[int]bool)
	out := make([]ParticleTrack, 0, len(prewarm))
	for _, tr := range prewarm {
		tr = tr.clone()
		if c, ok := byID[tr.ID]; ok {
			for _, k := range c.Translate {
				k.Time += offset
				tr.Translate = append(tr.Translate, k)
			}
			for _, k := range c.Rotate {
				k.Time += offset
				tr.Rotate = append(tr.Rotate, k)
			}
			for _, k := range c.Scale {
				k.Time += offset
				tr.Scale = append(tr.Scale, k)
			}
			for _, k := range c.Visibility {
				k.Time += offset
				tr.Visibility = append(tr.Visibility, k)
			}
			for _, k := range c.Color {
				k.Time += offset
				tr.Color = append(tr.Color, k)
			}
			spliced[tr.ID] = true
		}
		out = append(out, tr)
	}
	return out, spliced
}

// TrimPrewarm keeps only the prewarm tracks that received continuation keys.
func TrimPrewarm(tracks []ParticleTrack, spliced map[int]bool) []ParticleTrack {
	out := make([]ParticleTrack, 0, len(spliced))
	for _, tr := range tracks {
		if spliced[tr.ID] {
			out = append(out, tr)
		}
	}
	return out
}

// CloseLoop copies the keys at time zero to the loop end of every track whose
// emitter loops, so the last frame interpolates into the first.
func CloseLoop(tracks []ParticleTrack, duration float64, looping func(emitter int) bool) []ParticleTrack {
	out := make([]ParticleTrack, 0, len(tracks))
	for _, tr := range tracks {
		tr = tr.clone()
		if looping(tr.EmitterID) {
			tr.Translate = closeVec2(tr.Translate, duration)
			tr.Scale = closeVec2(tr.Scale, duration)
			if n := len(tr.Rotate); n > 0 && tr.Rotate[0].Time < timeEpsilon && tr.Rotate[n-1].Time < duration-timeEpsilon {
				k := tr.Rotate[0]
				k.Time = duration
				// 保持展开后的角度连续, 回到与末帧相差半圈以内的等价角
				k.Value = unwrapAngle(tr.Rotate[n-1].Value, k.Value)
				tr.Rotate = append(tr.Rotate, k)
			}
			if n := len(tr.Visibility); n > 0 && tr.Visibility[0].Time < timeEpsilon && tr.Visibility[n-1].Time < duration-timeEpsilon {
				k := tr.Visibility[0]
				k.Time = duration
				tr.Visibility = append(tr.Visibility, k)
			}
			if n := len(tr.Color); n > 0 && tr.Color[0].Time < timeEpsilon && tr.Color[n-1].Time < duration-timeEpsilon {
				k := tr.Color[0]
				k.Time = duration
				tr.Color = append(tr.Color, k)
			}
		}
		out = append(out, tr)
	}
	return out
}

func closeVec2(keys []Vec2Key, duration float64) []Vec2Key {
	n := len(keys)
	if n == 0 || keys[0].Time >= timeEpsilon || keys[n-1].Time >= duration-timeEpsilon {
		return keys
	}
	k := keys[0]
	k.Time = duration
	return append(keys, k)
}

// DocumentInput is everything BuildDocument needs.
type DocumentInput struct {
	Settings   *particle.Settings
	Emitters   []int // baked emitter indexes
	Loop       []ParticleTrack
	Prewarm    []ParticleTrack
	SpriteSize int
	Hash       string
}

// BuildDocument assembles the bone hierarchy root → emitter → particle, one
// slot per particle bone bound to the shared region, and the loop and prewarm
// animations. Track data is converted to runtime space here: Y and rotation
// are negated.
func BuildDocument(in DocumentInput) (*skeleton.Document, error) {
	s := in.Settings
	dialect, err := skeleton.DialectFor(s.Export.RuntimeVersion)
	if err != nil {
		return nil, err
	}
	w, h := float64(s.Timeline.Width), float64(s.Timeline.Height)

	doc := &skeleton.Document{
		Skeleton: skeleton.Info{
			Hash:    in.Hash,
			Version: dialect.Version,
			X:       -w / 2,
			Y:       -h / 2,
			Width:   w,
			Height:  h,
			Images:  "./",
		},
		Bones: []skeleton.Bone{{Name: "root"}},
	}

	for _, i := range in.Emitters {
		cfg := &s.Emitters[i]
		doc.Bones = append(doc.Bones, skeleton.Bone{
			Name:   EmitterBoneName(i),
			Parent: "root",
			X:      cfg.X - w/2,
			Y:      -(cfg.Y - h/2),
		})
	}

	skin := skeleton.Skin{Name: "default", Attachments: make(map[string]map[string]skeleton.Region)}
	region := skeleton.Region{Width: float64(in.SpriteSize), Height: float64(in.SpriteSize)}
	for _, pb := range particleBones(in.Emitters, in.Loop, in.Prewarm) {
		name := ParticleBoneName(pb.emitter, pb.id)
		doc.Bones = append(doc.Bones, skeleton.Bone{Name: name, Parent: EmitterBoneName(pb.emitter)})
		doc.Slots = append(doc.Slots, skeleton.Slot{
			Name:  name,
			Bone:  name,
			Blend: string(s.Emitters[pb.emitter].Blend),
		})
		skin.Attachments[name] = map[string]skeleton.Region{RegionName: region}
	}
	doc.Skins = []skeleton.Skin{skin}

	if len(in.Loop) > 0 || len(in.Prewarm) > 0 {
		doc.Animations = map[string]*skeleton.Animation{
			animationName(s.Export.LoopAnimation, "loop"): animationFrom(in.Loop),
		}
		if len(in.Prewarm) > 0 {
			doc.Animations[animationName(s.Export.PrewarmAnimation, "prewarm")] = animationFrom(in.Prewarm)
		}
	}
	return doc, nil
}

type particleBone struct {
	emitter, id int
}

// particleBones lists every tracked particle once, grouped by emitter in
// emitter order, ids ascending within an emitter.
func particleBones(emitters []int, groups ...[]ParticleTrack) []particleBone {
	order := make(map[int]int, len(emitters))
	for pos, i := range emitters {
		order[i] = pos
	}
	seen := make(map[int]bool)
	var bones []particleBone
	for _, tracks := range groups {
		for _, tr := range tracks {
			if !seen[tr.ID] {
				seen[tr.ID] = true
				bones = append(bones, particleBone{emitter: tr.EmitterID, id: tr.ID})
			}
		}
	}
	sort.Slice(bones, func(a, b int) bool {
		if bones[a].emitter != bones[b].emitter {
			return order[bones[a].emitter] < order[bones[b].emitter]
		}
		return bones[a].id < bones[b].id
	})
	return bones
}

func animationName(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	return configured
}

// animationFrom converts tracks to document timelines.
func animationFrom(tracks []ParticleTrack) *skeleton.Animation {
	a := skeleton.NewAnimation()
	for _, tr := range tracks {
		name := ParticleBoneName(tr.EmitterID, tr.ID)

		bone := &skeleton.BoneTimelines{}
		for _, k := range tr.Translate {
			bone.Translate = append(bone.Translate, skeleton.TranslateKey{Time: k.Time, X: k.X, Y: -k.Y})
		}
		for _, k := range tr.Rotate {
			bone.Rotate = append(bone.Rotate, skeleton.RotateKey{Time: k.Time, Angle: -k.Value})
		}
		for _, k := range tr.Scale {
			bone.Scale = append(bone.Scale, skeleton.ScaleKey{Time: k.Time, X: k.X, Y: k.Y})
		}
		a.Bones[name] = bone

		slot := &skeleton.SlotTimelines{}
		for _, k := range tr.Visibility {
			key := skeleton.AttachmentKey{Time: k.Time}
			if k.Visible {
				key.Name = RegionName
			}
			slot.Attachment = append(slot.Attachment, key)
		}
		for _, k := range tr.Color {
			slot.Color = append(slot.Color, skeleton.ColorKey{Time: k.Time, Color: k.Color.Hex()})
		}
		a.Slots[name] = slot
	}
	return a
}
