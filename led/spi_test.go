package led

import (
	"bytes"
	"testing"
)

func TestSpiEncode(t *testing.T) {
	// One pure-red LED: 8 zero bits (green), 8 one bits (red), 8 zero
	// bits (blue). A zero becomes 100, a one 110.
	buf := spiEncode(appendColor(nil, Red))
	want := []byte{
		0x92, 0x49, 0x24,
		0xdb, 0x6d, 0xb6,
		0x92, 0x49, 0x24,
	}
	if len(buf) != len(want)+spiLatchBytes {
		t.Fatalf("bitstream of %d bytes, want %d", len(buf), len(want)+spiLatchBytes)
	}
	if !bytes.Equal(buf[:len(want)], want) {
		t.Errorf("bitstream = % x, want % x", buf[:len(want)], want)
	}
	for i, b := range buf[len(want):] {
		if b != 0 {
			t.Fatalf("latch byte %d carries data: %02x", i, b)
		}
	}
}

func TestSpiEncodePadsPartialBytes(t *testing.T) {
	buf := spiEncode([]Pulse{{High: t1High, Low: t1Low}})
	if len(buf) != 1+spiLatchBytes {
		t.Fatalf("bitstream of %d bytes, want %d", len(buf), 1+spiLatchBytes)
	}
	// 110 left-aligned in its byte.
	if buf[0] != 0xc0 {
		t.Errorf("bitstream starts with %02x, want c0", buf[0])
	}
}
