package led

import (
	"context"
	"sync"
)

// recordingCap bounds how many frames a RecordingTransmitter retains;
// older frames are discarded first.
const recordingCap = 64

// RecordingTransmitter retains the most recently transmitted pulse
// trains instead of driving hardware. It backs the tests and
// hardware-less runs.
type RecordingTransmitter struct {
	mu     sync.Mutex
	frames [][]Pulse
}

var _ Transmitter = (*RecordingTransmitter)(nil)

func (t *RecordingTransmitter) Transmit(ctx context.Context, pulses []Pulse) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = append(t.frames, append([]Pulse(nil), pulses...))
	if len(t.frames) > recordingCap {
		t.frames = t.frames[len(t.frames)-recordingCap:]
	}
	return nil
}

// Frames returns the retained pulse trains, oldest first.
func (t *RecordingTransmitter) Frames() [][]Pulse {
	t.mu.Lock()
	defer t.mu.Unlock()
	frames := make([][]Pulse, len(t.frames))
	copy(frames, t.frames)
	return frames
}

// LastFrame returns the most recent pulse train, or nil.
func (t *RecordingTransmitter) LastFrame() []Pulse {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1]
}
