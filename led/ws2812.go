package led

import (
	"context"
	"errors"
	"time"
)

// WS2812 single-wire timings. Each bit is one high period followed by
// one low period; the chip latches a frame after a longer idle low.
const (
	t0High = 350 * time.Nanosecond
	t0Low  = 800 * time.Nanosecond
	t1High = 700 * time.Nanosecond
	t1Low  = 600 * time.Nanosecond

	bitsPerLED = 24
)

// A Pulse is one high/low period pair on the data line.
type Pulse struct {
	High time.Duration
	Low  time.Duration
}

// A Transmitter pushes an encoded pulse train out on the wire.
type Transmitter interface {
	Transmit(ctx context.Context, pulses []Pulse) error
}

// ErrNoTransmitter is returned by OpenTransmitter on platforms without
// LED hardware support.
var ErrNoTransmitter = errors.New("no LED transmitter support on this platform")

// OpenTransmitter opens the platform transmitter for an LED chain
// wired to the given device path.
func OpenTransmitter(path string) (Transmitter, error) {
	return openTransmitter(path)
}

// Strip drives a chain of WS2812 LEDs through a Transmitter.
type Strip struct {
	tx Transmitter
	n  int
}

// NewStrip returns a Strip of n LEDs driven through tx.
func NewStrip(tx Transmitter, n int) *Strip {
	if n < 1 {
		n = 1
	}
	return &Strip{tx: tx, n: n}
}

// Len returns the number of LEDs on the strip.
func (s *Strip) Len() int {
	return s.n
}

// SetColor paints every LED of the strip in one color.
func (s *Strip) SetColor(ctx context.Context, c Color) error {
	colors := make([]Color, s.n)
	for i := range colors {
		colors[i] = c
	}
	return s.SetColors(ctx, colors)
}

// SetColors paints the LEDs individually, first entry first on the
// chain. Missing entries stay black, extra entries are dropped.
func (s *Strip) SetColors(ctx context.Context, colors []Color) error {
	pulses := make([]Pulse, 0, s.n*bitsPerLED)
	for i := 0; i < s.n; i++ {
		var c Color
		if i < len(colors) {
			c = colors[i]
		}
		pulses = appendColor(pulses, c)
	}
	return s.tx.Transmit(ctx, pulses)
}

// appendColor appends the 24 pulse pairs of one LED frame: green byte
// first, then red, then blue, each most significant bit first.
func appendColor(pulses []Pulse, c Color) []Pulse {
	for _, b := range [3]uint8{c.G, c.R, c.B} {
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<uint(bit)) != 0 {
				pulses = append(pulses, Pulse{High: t1High, Low: t1Low})
			} else {
				pulses = append(pulses, Pulse{High: t0High, Low: t0Low})
			}
		}
	}
	return pulses
}
