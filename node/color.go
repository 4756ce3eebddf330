package node

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color is a straight-alpha color with components in [0, 1].
// The zero value is fully transparent.
type Color struct {
	R, G, B, A float64
}

// Common colors.
var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Transparent = Color{}
)

// RGB returns an opaque color.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// IsZero reports whether the color is fully transparent.
func (c Color) IsZero() bool { return c.A <= 0 }

// NRGBA converts c to an 8-bit non-premultiplied color.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

func clamp255(x float64) float64 {
	return math.Round(math.Max(0, math.Min(255, x)))
}

// ParseColor parses a CSS color: #rgb, #rgba, #rrggbb, #rrggbbaa,
// rgb(), rgba(), a named color, or "transparent".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "":
		return Color{}, fmt.Errorf("empty color")
	case s[0] == '#':
		return parseHexColor(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return parseFuncColor(s)
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	return Color{}, fmt.Errorf("unknown color %q", s)
}

func parseHexColor(hex string) (Color, error) {
	var v [4]uint64
	v[3] = 255

	switch len(hex) {
	case 3, 4:
		for i := range len(hex) {
			n, err := strconv.ParseUint(hex[i:i+1], 16, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid hex color #%s", hex)
			}
			v[i] = n * 17
		}
	case 6, 8:
		for i := 0; i < len(hex); i += 2 {
			n, err := strconv.ParseUint(hex[i:i+2], 16, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid hex color #%s", hex)
			}
			v[i/2] = n
		}
	default:
		return Color{}, fmt.Errorf("invalid hex color #%s", hex)
	}

	return Color{
		R: float64(v[0]) / 255,
		G: float64(v[1]) / 255,
		B: float64(v[2]) / 255,
		A: float64(v[3]) / 255,
	}, nil
}

// parseFuncColor handles rgb(r, g, b) and rgba(r, g, b, a), with either
// comma or space separators and an optional "/ a" alpha.
func parseFuncColor(s string) (Color, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	body := strings.NewReplacer(",", " ", "/", " ").Replace(s[open+1 : len(s)-1])
	parts := strings.Fields(body)
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}

	var ch [4]float64
	ch[3] = 1
	for i, p := range parts {
		pct := strings.HasSuffix(p, "%")
		f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		switch {
		case pct:
			f /= 100
		case i < 3:
			f /= 255
		}
		ch[i] = math.Max(0, math.Min(1, f))
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

var namedColors = map[string]Color{
	"transparent": Transparent,
	"black":       Black,
	"white":       White,
	"red":         RGB(1, 0, 0),
	"green":       RGB(0, 128.0/255, 0),
	"lime":        RGB(0, 1, 0),
	"blue":        RGB(0, 0, 1),
	"yellow":      RGB(1, 1, 0),
	"cyan":        RGB(0, 1, 1),
	"aqua":        RGB(0, 1, 1),
	"magenta":     RGB(1, 0, 1),
	"fuchsia":     RGB(1, 0, 1),
	"gray":        RGB(128.0/255, 128.0/255, 128.0/255),
	"grey":        RGB(128.0/255, 128.0/255, 128.0/255),
	"silver":      RGB(192.0/255, 192.0/255, 192.0/255),
	"maroon":      RGB(128.0/255, 0, 0),
	"olive":       RGB(128.0/255, 128.0/255, 0),
	"navy":        RGB(0, 0, 128.0/255),
	"purple":      RGB(128.0/255, 0, 128.0/255),
	"teal":        RGB(0, 128.0/255, 128.0/255),
	"orange":      RGB(1, 165.0/255, 0),
	"pink":        RGB(1, 192.0/255, 203.0/255),
	"brown":       RGB(165.0/255, 42.0/255, 42.0/255),
	"gold":        RGB(1, 215.0/255, 0),
	"indigo":      RGB(75.0/255, 0, 130.0/255),
	"violet":      RGB(238.0/255, 130.0/255, 238.0/255),
	"coral":       RGB(1, 127.0/255, 80.0/255),
	"salmon":      RGB(250.0/255, 128.0/255, 114.0/255),
	"crimson":     RGB(220.0/255, 20.0/255, 60.0/255),
	"tomato":      RGB(1, 99.0/255, 71.0/255),
	"skyblue":     RGB(135.0/255, 206.0/255, 235.0/255),
	"slategray":   RGB(112.0/255, 128.0/255, 144.0/255),
	"darkgray":    RGB(169.0/255, 169.0/255, 169.0/255),
	"lightgray":   RGB(211.0/255, 211.0/255, 211.0/255),
	"whitesmoke":  RGB(245.0/255, 245.0/255, 245.0/255),
}
