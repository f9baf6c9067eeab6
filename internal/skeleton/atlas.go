package skeleton

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Atlas is a texture atlas descriptor: one page image and its named regions.
type Atlas struct {
	Image   string
	Width   int
	Height  int
	Regions []AtlasRegion
}

// AtlasRegion is a rectangle of the page image.
type AtlasRegion struct {
	Name          string
	X, Y          int
	Width, Height int
}

// Region returns the region with the given name.
func (a *Atlas) Region(name string) (AtlasRegion, bool) {
	for _, r := range a.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return AtlasRegion{}, false
}

// Encode writes the atlas text. Runtimes from 4.0 read the compact "bounds"
// form, earlier ones the xy/size/orig form.
func (a *Atlas) Encode(d Dialect) []byte {
	var b bytes.Buffer
	if !d.RGBA {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s\n", a.Image)
	fmt.Fprintf(&b, "size: %d,%d\n", a.Width, a.Height)
	b.WriteString("format: RGBA8888\n")
	b.WriteString("filter: Linear,Linear\n")
	b.WriteString("repeat: none\n")
	for _, r := range a.Regions {
		b.WriteString(r.Name + "\n")
		if d.RGBA {
			fmt.Fprintf(&b, "  bounds: %d,%d,%d,%d\n", r.X, r.Y, r.Width, r.Height)
			continue
		}
		b.WriteString("  rotate: false\n")
		fmt.Fprintf(&b, "  xy: %d, %d\n", r.X, r.Y)
		fmt.Fprintf(&b, "  size: %d, %d\n", r.Width, r.Height)
		fmt.Fprintf(&b, "  orig: %d, %d\n", r.Width, r.Height)
		b.WriteString("  offset: 0, 0\n")
		b.WriteString("  index: -1\n")
	}
	return b.Bytes()
}

// ParseAtlas reads a single-page atlas in either form written by Encode.
func ParseAtlas(data []byte) (*Atlas, error) {
	a := &Atlas{}
	var current *AtlasRegion
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		key, value, isField := strings.Cut(trimmed, ":")
		indented := strings.HasPrefix(text, " ") || strings.HasPrefix(text, "\t")

		switch {
		case a.Image == "":
			a.Image = trimmed
		case !isField:
			a.Regions = append(a.Regions, AtlasRegion{Name: trimmed})
			current = &a.Regions[len(a.Regions)-1]
		case current == nil && !indented:
			if key == "size" {
				nums, err := parseInts(value, 2)
				if err != nil {
					return nil, fmt.Errorf("atlas line %d: %w", line, err)
				}
				a.Width, a.Height = nums[0], nums[1]
			}
		case current != nil:
			if err := parseRegionField(current, strings.TrimSpace(key), value); err != nil {
				return nil, fmt.Errorf("atlas line %d: %w", line, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read atlas: %w", err)
	}
	if a.Image == "" {
		return nil, fmt.Errorf("atlas has no page")
	}
	return a, nil
}

func parseRegionField(r *AtlasRegion, key, value string) error {
	switch key {
	case "bounds":
		nums, err := parseInts(value, 4)
		if err != nil {
			return err
		}
		r.X, r.Y, r.Width, r.Height = nums[0], nums[1], nums[2], nums[3]
	case "xy":
		nums, err := parseInts(value, 2)
		if err != nil {
			return err
		}
		r.X, r.Y = nums[0], nums[1]
	case "size":
		nums, err := parseInts(value, 2)
		if err != nil {
			return err
		}
		r.Width, r.Height = nums[0], nums[1]
	}
	return nil
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d values, got %q", n, s)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
