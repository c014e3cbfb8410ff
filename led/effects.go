package led

import (
	"context"
	"math"
	"time"
)

// Fade moves the strip from one color to the other over d in the given
// number of steps.
func Fade(ctx context.Context, s *Strip, from, to Color, d time.Duration, steps int) error {
	if steps < 1 {
		steps = 1
	}
	tick := time.NewTicker(d / time.Duration(steps))
	defer tick.Stop()
	for i := 1; i <= steps; i++ {
		if err := s.SetColor(ctx, from.Lerp(to, float64(i)/float64(steps))); err != nil {
			return err
		}
		if i == steps {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}

// Wheel maps a position on the color wheel to a color, red over green
// to blue and back.
func Wheel(pos uint8) Color {
	switch {
	case pos < 85:
		return Color{R: 255 - pos*3, G: pos * 3}
	case pos < 170:
		pos -= 85
		return Color{G: 255 - pos*3, B: pos * 3}
	default:
		pos -= 170
		return Color{B: 255 - pos*3, R: pos * 3}
	}
}

// Rainbow cycles the strip around the color wheel, one revolution per
// period, until ctx is canceled.
func Rainbow(ctx context.Context, s *Strip, period time.Duration) error {
	tick := time.NewTicker(period / 256)
	defer tick.Stop()
	for pos := 0; ; pos++ {
		if err := s.SetColor(ctx, Wheel(uint8(pos))); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// Breathe swells the color from black and back along a cosine curve,
// one breath per period, until ctx is canceled.
func Breathe(ctx context.Context, s *Strip, c Color, period time.Duration) error {
	const steps = 100
	tick := time.NewTicker(period / steps)
	defer tick.Stop()
	for i := 0; ; i++ {
		phase := float64(i%steps) / steps
		level := (1 - math.Cos(2*math.Pi*phase)) / 2
		if err := s.SetColor(ctx, Black.Lerp(c, level)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// Blink toggles the strip between the color and black, switching every
// interval, for the given number of on/off cycles. A non-positive
// count blinks until ctx is canceled.
func Blink(ctx context.Context, s *Strip, c Color, interval time.Duration, times int) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for i := 0; times <= 0 || i < 2*times; i++ {
		next := Black
		if i%2 == 0 {
			next = c
		}
		if err := s.SetColor(ctx, next); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}
