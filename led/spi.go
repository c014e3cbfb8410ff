package led

import "time"

// SPI bitstream approximation of the single-wire protocol: at a
// 2.4 MHz clock one SPI bit lasts ~417 ns, so three SPI bits cover one
// protocol bit with every phase inside the chip's tolerance. A long
// high period becomes 1-1-0, a short one 1-0-0.
const (
	spiClockHz     = 2400000
	spiLongHighMin = 500 * time.Nanosecond

	// Idle bytes appended after a frame so the chain latches it.
	spiLatchBytes = 16
)

// spiEncode packs a pulse train into the SPI bitstream, most
// significant bit first, with the latch tail appended.
func spiEncode(pulses []Pulse) []byte {
	buf := make([]byte, 0, (len(pulses)*3+7)/8+spiLatchBytes)
	var (
		cur  byte
		nbit int
	)
	appendBit := func(b byte) {
		cur = cur<<1 | b
		nbit++
		if nbit == 8 {
			buf = append(buf, cur)
			cur, nbit = 0, 0
		}
	}
	for _, p := range pulses {
		appendBit(1)
		if p.High > spiLongHighMin {
			appendBit(1)
		} else {
			appendBit(0)
		}
		appendBit(0)
	}
	if nbit != 0 {
		buf = append(buf, cur<<(8-nbit))
	}
	return append(buf, make([]byte, spiLatchBytes)...)
}
