package export

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/decker502/particle-baker/internal/particle"
)

// SpriteSize is the edge length of the rasterized particle sprite in pixels.
const SpriteSize = 64

// supersample is the oversampling factor used to antialias sprite edges.
const supersample = 4

// RasterizeSprite draws the procedural sprite of kind as white with alpha
// coverage; slots tint it. Shapes are drawn oversampled and scaled down.
func RasterizeSprite(kind particle.SpriteKind, size int) *image.NRGBA {
	big := size * supersample
	hi := image.NewNRGBA(image.Rect(0, 0, big, big))

	cover := coverageFunc(kind)
	c := float64(big) / 2
	for y := 0; y < big; y++ {
		for x := 0; x < big; x++ {
			// 归一化到 [-1, 1], 像素中心采样
			u := (float64(x) + 0.5 - c) / c
			v := (float64(y) + 0.5 - c) / c
			a := cover(u, v)
			if a <= 0 {
				continue
			}
			hi.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: uint8(math.Round(particle.Clamp(a, 0, 1) * 255))})
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(out, out.Bounds(), hi, hi.Bounds(), draw.Src, nil)
	return out
}

// coverageFunc returns the alpha of a sprite at normalized coordinates
// (u, v) in [-1, 1], v pointing down.
func coverageFunc(kind particle.SpriteKind) func(u, v float64) float64 {
	switch kind {
	case particle.SpriteGlow:
		return func(u, v float64) float64 {
			r := math.Hypot(u, v)
			if r >= 1 {
				return 0
			}
			f := 1 - r
			return f * f
		}
	case particle.SpriteSquare:
		return func(u, v float64) float64 {
			if math.Abs(u) <= 0.9 && math.Abs(v) <= 0.9 {
				return 1
			}
			return 0
		}
	case particle.SpriteStar:
		star := starPolygon(5, 0.95, 0.4)
		return func(u, v float64) float64 { return insidePolygon(star, u, v) }
	case particle.SpriteTriangle:
		tri := [][2]float64{{0, -0.9}, {0.9, 0.75}, {-0.9, 0.75}}
		return func(u, v float64) float64 { return insidePolygon(tri, u, v) }
	default:
		return func(u, v float64) float64 {
			if math.Hypot(u, v) <= 0.95 {
				return 1
			}
			return 0
		}
	}
}

// starPolygon returns the vertices of a star with the given number of
// points, alternating outer and inner radius, first point straight up.
func starPolygon(points int, outer, inner float64) [][2]float64 {
	verts := make([][2]float64, 0, points*2)
	for i := 0; i < points*2; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := -math.Pi/2 + float64(i)*math.Pi/float64(points)
		verts = append(verts, [2]float64{r * math.Cos(a), r * math.Sin(a)})
	}
	return verts
}

// insidePolygon is an even-odd point-in-polygon test returning 1 or 0.
func insidePolygon(poly [][2]float64, x, y float64) float64 {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		xi, yi := poly[i][0], poly[i][1]
		xj, yj := poly[j][0], poly[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	if inside {
		return 1
	}
	return 0
}
