// Package skeleton provides the data structures and encoder for skeletal
// animation documents, plus the text atlas that maps region names onto the
// sprite image.
//
// A document is a bone hierarchy with one slot per animated part, a single
// default skin binding every slot to a region attachment, and named
// animations holding per-bone and per-slot keyframe timelines. Values are in
// runtime space: Y grows upward and rotation is counter-clockwise.
package skeleton

// Document is the root structure of an animation document.
type Document struct {
	Skeleton   Info
	Bones      []Bone
	Slots      []Slot
	Skins      []Skin
	Animations map[string]*Animation
}

// Info is the skeleton metadata block.
type Info struct {
	// Hash identifies the export that produced the document.
	Hash string

	// Version is the runtime version the document targets, e.g. "4.1.0".
	Version string

	// Canvas bounds, centred on the root bone.
	X, Y          float64
	Width, Height float64

	// Images is the image folder relative to the document.
	Images string
}

// Bone is one node of the hierarchy. The first bone is the root and has no
// parent; every other bone's parent appears before it.
type Bone struct {
	Name   string
	Parent string
	X, Y   float64
}

// Slot binds a draw-order entry to a bone.
type Slot struct {
	Name string
	Bone string

	// Attachment is the setup-pose attachment; empty means none.
	Attachment string

	// Blend is "normal", "additive", "multiply" or "screen".
	Blend string
}

// Skin maps slot name → attachment name → region.
type Skin struct {
	Name        string
	Attachments map[string]map[string]Region
}

// Region is a rectangular image attachment.
type Region struct {
	X, Y          float64
	Width, Height float64
}

// Animation holds the timelines of one named animation.
type Animation struct {
	Bones map[string]*BoneTimelines
	Slots map[string]*SlotTimelines
}

// NewAnimation returns an animation with empty timeline maps.
func NewAnimation() *Animation {
	return &Animation{
		Bones: make(map[string]*BoneTimelines),
		Slots: make(map[string]*SlotTimelines),
	}
}

// Empty reports whether the animation has no timelines.
func (a *Animation) Empty() bool {
	return a == nil || (len(a.Bones) == 0 && len(a.Slots) == 0)
}

// Duration returns the time of the last key of any timeline.
func (a *Animation) Duration() float64 {
	if a == nil {
		return 0
	}
	end := 0.0
	for _, b := range a.Bones {
		end = max(end, b.lastTime())
	}
	for _, s := range a.Slots {
		end = max(end, s.lastTime())
	}
	return end
}

// BoneTimelines are the transform keys of one bone.
type BoneTimelines struct {
	Translate []TranslateKey
	Rotate    []RotateKey
	Scale     []ScaleKey
}

func (b *BoneTimelines) lastTime() float64 {
	end := 0.0
	if n := len(b.Translate); n > 0 {
		end = max(end, b.Translate[n-1].Time)
	}
	if n := len(b.Rotate); n > 0 {
		end = max(end, b.Rotate[n-1].Time)
	}
	if n := len(b.Scale); n > 0 {
		end = max(end, b.Scale[n-1].Time)
	}
	return end
}

// SlotTimelines are the attachment and colour keys of one slot.
type SlotTimelines struct {
	Attachment []AttachmentKey
	Color      []ColorKey
}

func (s *SlotTimelines) lastTime() float64 {
	end := 0.0
	if n := len(s.Attachment); n > 0 {
		end = max(end, s.Attachment[n-1].Time)
	}
	if n := len(s.Color); n > 0 {
		end = max(end, s.Color[n-1].Time)
	}
	return end
}

// TranslateKey is a bone offset from its setup position.
type TranslateKey struct {
	Time float64
	X, Y float64
}

// RotateKey is a bone rotation in degrees.
type RotateKey struct {
	Time  float64
	Angle float64
}

// ScaleKey is a bone scale.
type ScaleKey struct {
	Time float64
	X, Y float64
}

// AttachmentKey switches the visible attachment of a slot. An empty Name
// clears the slot.
type AttachmentKey struct {
	Time float64
	Name string
}

// ColorKey tints a slot; Color is RRGGBBAA hex.
type ColorKey struct {
	Time  float64
	Color string
}
