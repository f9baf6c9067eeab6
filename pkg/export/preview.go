package export

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/decker502/particle-baker/internal/particle"
)

// previewBackground is the canvas colour behind the particles.
var previewBackground = color.NRGBA{R: 24, G: 24, B: 32, A: 255}

// RenderPreview draws one baked frame onto a canvas of the timeline size.
// Particles are drawn in id order with their scale, rotation, tint and alpha;
// additive emitters are approximated with source-over.
func RenderPreview(settings *particle.Settings, frame BakedFrame, sprite image.Image) *image.RGBA {
	w, h := settings.Timeline.Width, settings.Timeline.Height
	canvas := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(previewBackground), image.Point{}, draw.Src)

	sb := sprite.Bounds()
	tinted := image.NewNRGBA(sb)
	hw, hh := float64(sb.Dx())/2, float64(sb.Dy())/2

	for _, id := range frame.IDs() {
		p := frame.Particles[id]
		if !p.Visible() || p.EmitterID >= len(settings.Emitters) {
			continue
		}
		cfg := &settings.Emitters[p.EmitterID]

		tint := color.NRGBA{R: p.Color.R, G: p.Color.G, B: p.Color.B, A: bakedColor(p).A}
		draw.DrawMask(tinted, sb, image.NewUniform(tint), image.Point{}, sprite, sb.Min, draw.Src)

		cx, cy := cfg.X+p.X, cfg.Y+p.Y
		sin, cos := math.Sincos(p.Rotation * math.Pi / 180)
		a, b := p.ScaleX*cos, -p.ScaleY*sin
		c, d := p.ScaleX*sin, p.ScaleY*cos
		m := f64.Aff3{
			a, b, cx - a*hw - b*hh,
			c, d, cy - c*hw - d*hh,
		}
		draw.BiLinear.Transform(canvas, m, tinted, sb, draw.Over, nil)
	}
	return canvas
}
