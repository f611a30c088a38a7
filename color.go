package ggbatch

import "github.com/chewxy/math32"

// RGBA represents a tint color with red, green, blue, and alpha components.
// Each component is in the range [0, 1] and is not premultiplied.
type RGBA struct {
	R, G, B, A float32
}

// White is the neutral tint.
var White = RGBA{R: 1, G: 1, B: 1, A: 1}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float32) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// Hex creates a color from a hex string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA" with optional '#'.
// Malformed input yields opaque black.
func Hex(hex string) RGBA {
	if hex != "" && hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b uint32
	a := uint32(255)

	var ok bool
	switch len(hex) {
	case 3, 4:
		digits := [4]uint32{0, 0, 0, 15}
		for i := 0; i < len(hex); i++ {
			if digits[i], ok = hexDigit(hex[i]); !ok {
				return RGBA{A: 1}
			}
		}
		r, g, b, a = digits[0]*17, digits[1]*17, digits[2]*17, digits[3]*17
	case 6, 8:
		bytes := [4]uint32{0, 0, 0, 255}
		for i := 0; i < len(hex)/2; i++ {
			hi, ok1 := hexDigit(hex[2*i])
			lo, ok2 := hexDigit(hex[2*i+1])
			if !ok1 || !ok2 {
				return RGBA{A: 1}
			}
			bytes[i] = hi<<4 | lo
		}
		r, g, b, a = bytes[0], bytes[1], bytes[2], bytes[3]
	default:
		return RGBA{A: 1}
	}

	return RGBA{
		R: float32(r) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
		A: float32(a) / 255,
	}
}

func hexDigit(c byte) (uint32, bool) {
	switch {
	case '0' <= c && c <= '9':
		return uint32(c - '0'), true
	case 'a' <= c && c <= 'f':
		return uint32(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return uint32(c-'A') + 10, true
	}
	return 0, false
}

// Premultiply returns the color with RGB scaled by alpha.
func (c RGBA) Premultiply() RGBA {
	return RGBA{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// Mul returns the component-wise product of two colors, used to combine a
// drawable's tint with its inherited alpha.
func (c RGBA) Mul(o RGBA) RGBA {
	return RGBA{R: c.R * o.R, G: c.G * o.G, B: c.B * o.B, A: c.A * o.A}
}

// Pack returns the premultiplied color as one 32-bit vertex word with red
// in the lowest byte, matching an unorm8x4 vertex attribute on a
// little-endian host.
func (c RGBA) Pack() uint32 {
	p := c.Premultiply()
	return unorm8(p.R) | unorm8(p.G)<<8 | unorm8(p.B)<<16 | unorm8(p.A)<<24
}

func unorm8(v float32) uint32 {
	v = math32.Max(0, math32.Min(1, v))
	return uint32(math32.Round(v * 255))
}

// UnpackColor reverses Pack. The result is still premultiplied.
func UnpackColor(w uint32) RGBA {
	return RGBA{
		R: float32(w&0xFF) / 255,
		G: float32(w>>8&0xFF) / 255,
		B: float32(w>>16&0xFF) / 255,
		A: float32(w>>24) / 255,
	}
}
