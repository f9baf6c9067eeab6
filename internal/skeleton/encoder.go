package skeleton

import (
	"encoding/json"
	"fmt"
	"math"
)

// Encode serializes doc as JSON in the dialect of doc.Skeleton.Version.
// Times are rounded to milliseconds and values to three decimals.
func Encode(doc *Document) ([]byte, error) {
	d, err := DialectFor(doc.Skeleton.Version)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(toWire(doc, d), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode skeleton: %w", err)
	}
	return data, nil
}

type wireDocument struct {
	Skeleton   wireInfo                  `json:"skeleton"`
	Bones      []wireBone                `json:"bones"`
	Slots      []wireSlot                `json:"slots"`
	Skins      []wireSkin                `json:"skins"`
	Animations map[string]*wireAnimation `json:"animations,omitempty"`
}

type wireInfo struct {
	Hash   string  `json:"hash,omitempty"`
	Spine  string  `json:"spine"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Images string  `json:"images"`
}

type wireBone struct {
	Name   string  `json:"name"`
	Parent string  `json:"parent,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
}

type wireSlot struct {
	Name       string `json:"name"`
	Bone       string `json:"bone"`
	Attachment string `json:"attachment,omitempty"`
	Blend      string `json:"blend,omitempty"`
}

type wireSkin struct {
	Name        string                           `json:"name"`
	Attachments map[string]map[string]wireRegion `json:"attachments"`
}

type wireRegion struct {
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type wireAnimation struct {
	Slots map[string]*wireSlotTimelines `json:"slots,omitempty"`
	Bones map[string]*wireBoneTimelines `json:"bones,omitempty"`
}

type wireBoneTimelines struct {
	Rotate    []any     `json:"rotate,omitempty"`
	Translate []wireVec `json:"translate,omitempty"`
	Scale     []wireVec `json:"scale,omitempty"`
}

type wireSlotTimelines struct {
	Attachment []wireAttachment `json:"attachment,omitempty"`
	RGBA       []wireColor      `json:"rgba,omitempty"`
	Color      []wireColor      `json:"color,omitempty"`
}

type wireVec struct {
	Time float64 `json:"time"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type wireRotateValue struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

type wireRotateAngle struct {
	Time  float64 `json:"time"`
	Angle float64 `json:"angle"`
}

type wireAttachment struct {
	Time float64 `json:"time"`
	Name *string `json:"name"` // null clears the slot
}

type wireColor struct {
	Time  float64 `json:"time"`
	Color string  `json:"color"`
}

func toWire(doc *Document, d Dialect) *wireDocument {
	w := &wireDocument{
		Skeleton: wireInfo{
			Hash:   doc.Skeleton.Hash,
			Spine:  d.Version,
			X:      round3(doc.Skeleton.X),
			Y:      round3(doc.Skeleton.Y),
			Width:  round3(doc.Skeleton.Width),
			Height: round3(doc.Skeleton.Height),
			Images: doc.Skeleton.Images,
		},
		Bones: make([]wireBone, 0, len(doc.Bones)),
		Slots: make([]wireSlot, 0, len(doc.Slots)),
		Skins: make([]wireSkin, 0, len(doc.Skins)),
	}

	for _, b := range doc.Bones {
		w.Bones = append(w.Bones, wireBone{Name: b.Name, Parent: b.Parent, X: round3(b.X), Y: round3(b.Y)})
	}
	for _, s := range doc.Slots {
		blend := s.Blend
		if blend == "normal" {
			blend = ""
		}
		w.Slots = append(w.Slots, wireSlot{Name: s.Name, Bone: s.Bone, Attachment: s.Attachment, Blend: blend})
	}
	for _, skin := range doc.Skins {
		ws := wireSkin{Name: skin.Name, Attachments: make(map[string]map[string]wireRegion, len(skin.Attachments))}
		for slot, regions := range skin.Attachments {
			m := make(map[string]wireRegion, len(regions))
			for name, r := range regions {
				m[name] = wireRegion{X: round3(r.X), Y: round3(r.Y), Width: round3(r.Width), Height: round3(r.Height)}
			}
			ws.Attachments[slot] = m
		}
		w.Skins = append(w.Skins, ws)
	}

	if len(doc.Animations) > 0 {
		w.Animations = make(map[string]*wireAnimation, len(doc.Animations))
		for name, a := range doc.Animations {
			w.Animations[name] = animationToWire(a, d)
		}
	}
	return w
}

func animationToWire(a *Animation, d Dialect) *wireAnimation {
	w := &wireAnimation{}
	if len(a.Bones) > 0 {
		w.Bones = make(map[string]*wireBoneTimelines, len(a.Bones))
	}
	for name, b := range a.Bones {
		wb := &wireBoneTimelines{}
		for _, k := range b.Rotate {
			if d.RGBA {
				wb.Rotate = append(wb.Rotate, wireRotateValue{Time: roundTime(k.Time), Value: round3(k.Angle)})
			} else {
				wb.Rotate = append(wb.Rotate, wireRotateAngle{Time: roundTime(k.Time), Angle: round3(k.Angle)})
			}
		}
		for _, k := range b.Translate {
			wb.Translate = append(wb.Translate, wireVec{Time: roundTime(k.Time), X: round3(k.X), Y: round3(k.Y)})
		}
		for _, k := range b.Scale {
			wb.Scale = append(wb.Scale, wireVec{Time: roundTime(k.Time), X: round3(k.X), Y: round3(k.Y)})
		}
		w.Bones[name] = wb
	}

	if len(a.Slots) > 0 {
		w.Slots = make(map[string]*wireSlotTimelines, len(a.Slots))
	}
	for name, s := range a.Slots {
		ws := &wireSlotTimelines{}
		for _, k := range s.Attachment {
			wa := wireAttachment{Time: roundTime(k.Time)}
			if k.Name != "" {
				n := k.Name
				wa.Name = &n
			}
			ws.Attachment = append(ws.Attachment, wa)
		}
		colors := make([]wireColor, 0, len(s.Color))
		for _, k := range s.Color {
			colors = append(colors, wireColor{Time: roundTime(k.Time), Color: k.Color})
		}
		if len(colors) > 0 {
			if d.RGBA {
				ws.RGBA = colors
			} else {
				ws.Color = colors
			}
		}
		w.Slots[name] = ws
	}
	return w
}

// roundTime rounds seconds to millisecond precision.
func roundTime(t float64) float64 {
	return roundTo(t, 1000)
}

func round3(v float64) float64 {
	return roundTo(v, 1000)
}

func roundTo(v, scale float64) float64 {
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0 // 避免输出 -0
	}
	return r
}
