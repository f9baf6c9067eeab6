package particle

import (
	"fmt"
	"strconv"
	"strings"
)

// interpolationKeywords maps the keywords accepted in curve strings to an
// Interpolation. FastInOutWeak is kept as an alias of Smooth for presets
// written against older tooling.
var interpolationKeywords = map[string]Interpolation{
	"Linear":        InterpLinear,
	"Smooth":        InterpSmooth,
	"EaseInOut":     InterpSmooth,
	"FastInOutWeak": InterpSmooth,
}

// ParseRange parses a base-value range.
// Supports:
//   - Fixed value: "1.5" → [1.5 1.5]
//   - Range: "[0.7 0.9]" → [0.7 0.9]
//   - Single bracketed value: "[2]" → [2 2]
//
// A reversed range is swapped so Min ≤ Max.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, nil
	}

	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return Range{}, fmt.Errorf("range %q: missing closing bracket", s)
		}
		parts := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
		switch len(parts) {
		case 1:
			v, err := strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return Range{}, fmt.Errorf("range %q: %w", s, err)
			}
			return Fixed(v), nil
		case 2:
			lo, err1 := strconv.ParseFloat(parts[0], 64)
			hi, err2 := strconv.ParseFloat(parts[1], 64)
			if err1 != nil || err2 != nil {
				return Range{}, fmt.Errorf("range %q: expected two numbers", s)
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			return Range{Min: lo, Max: hi}, nil
		default:
			return Range{}, fmt.Errorf("range %q: expected one or two numbers", s)
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	return Fixed(v), nil
}

// ParseCurve parses a lifetime curve.
// Supports:
//   - Constant: "2" → one point
//   - Keyframes: "0,1 0.5,2 1,0" (time,value pairs, time is a lifetime fraction)
//   - Interpolation: "0,1 1,0 Smooth" (keyword anywhere in the string)
//
// Points are kept in the written order; Evaluate sorts them by time.
func ParseCurve(s string) (Curve, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Curve{}, nil
	}

	var curve Curve
	for _, part := range strings.Fields(s) {
		if interp, ok := interpolationKeywords[part]; ok {
			curve.Interp = interp
			continue
		}

		if !strings.Contains(part, ",") {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return Curve{}, fmt.Errorf("curve %q: bad value %q", s, part)
			}
			if len(curve.Points) > 0 {
				return Curve{}, fmt.Errorf("curve %q: bare value %q after keyframes", s, part)
			}
			curve.Points = append(curve.Points, CurvePoint{Time: 0, Value: v})
			continue
		}

		pair := strings.SplitN(part, ",", 2)
		t, err1 := strconv.ParseFloat(pair[0], 64)
		v, err2 := strconv.ParseFloat(pair[1], 64)
		if err1 != nil || err2 != nil {
			return Curve{}, fmt.Errorf("curve %q: bad keyframe %q", s, part)
		}
		curve.Points = append(curve.Points, CurvePoint{Time: Clamp(t, 0, 1), Value: v})
	}

	if len(curve.Points) == 0 {
		return Curve{}, fmt.Errorf("curve %q: no keyframes", s)
	}
	return curve, nil
}

// FormatCurve renders a curve back into the string form ParseCurve reads.
func FormatCurve(c Curve) string {
	if len(c.Points) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.Points)+1)
	for _, p := range c.Points {
		parts = append(parts, strconv.FormatFloat(p.Time, 'g', -1, 64)+","+strconv.FormatFloat(p.Value, 'g', -1, 64))
	}
	if c.Interp != "" {
		parts = append(parts, string(c.Interp))
	}
	return strings.Join(parts, " ")
}

// ParseGradient parses a colour gradient.
// Supports:
//   - Constant: "#ff8800" or "#ff8800cc"
//   - Stops: "0,#ffffffff 0.7,#ff8800ff 1,#ff000000 Smooth"
func ParseGradient(s string) (ColorGradient, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ColorGradient{}, nil
	}

	var g ColorGradient
	for _, part := range strings.Fields(s) {
		if interp, ok := interpolationKeywords[part]; ok {
			g.Interp = interp
			continue
		}

		t := 0.0
		colorStr := part
		if strings.Contains(part, ",") {
			pair := strings.SplitN(part, ",", 2)
			v, err := strconv.ParseFloat(pair[0], 64)
			if err != nil {
				return ColorGradient{}, fmt.Errorf("gradient %q: bad stop %q", s, part)
			}
			t = Clamp(v, 0, 1)
			colorStr = pair[1]
		} else if len(g.Stops) > 0 {
			return ColorGradient{}, fmt.Errorf("gradient %q: bare colour %q after stops", s, part)
		}

		c, err := ParseColor(colorStr)
		if err != nil {
			return ColorGradient{}, fmt.Errorf("gradient %q: %w", s, err)
		}
		g.Stops = append(g.Stops, ColorStop{Time: t, Color: c})
	}

	if len(g.Stops) == 0 {
		return ColorGradient{}, fmt.Errorf("gradient %q: no stops", s)
	}
	return g, nil
}

// ParseColor parses "#rrggbb" or "#rrggbbaa" (the '#' is optional).
func ParseColor(s string) (RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return RGBA{}, fmt.Errorf("colour %q: want 6 or 8 hex digits", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGBA{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Hex returns the colour as 8 lowercase hex digits, RRGGBBAA.
func (c RGBA) Hex() string {
	return fmt.Sprintf("%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
