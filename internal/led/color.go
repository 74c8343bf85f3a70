package led

import "image/color"

// Color is one LED in wire order: green, red, blue.
type Color struct {
	G, R, B uint8
}

// Off is the all-zero color.
var Off = Color{}

// RGB builds a Color from conventional red/green/blue intensities,
// saturating each channel into [0,255].
func RGB(r, g, b int) Color {
	return Color{G: clamp255(g), R: clamp255(r), B: clamp255(b)}
}

// NRGBA returns the opaque image/color form of c.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Scale multiplies every channel by f in [0,1], truncating toward zero.
func (c Color) Scale(f float64) Color {
	if f <= 0 {
		return Off
	}
	if f >= 1 {
		return c
	}
	return Color{
		G: uint8(float64(c.G) * f),
		R: uint8(float64(c.R) * f),
		B: uint8(float64(c.B) * f),
	}
}

func clamp255(v int) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
