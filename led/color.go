package led

import (
	"fmt"
	"math"
)

// Color is an 8-bit-per-channel RGB triple.
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
	Red   = Color{R: 255}
	Green = Color{G: 255}
	Blue  = Color{B: 255}
)

// Lerp returns the color t of the way from c to the given one, with t
// clamped to [0, 1].
func (c Color) Lerp(to Color, t float64) Color {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return Color{R: mix(c.R, to.R), G: mix(c.G, to.G), B: mix(c.B, to.B)}
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
