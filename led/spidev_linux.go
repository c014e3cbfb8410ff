package led

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Request numbers of the spidev ioctl interface.
const spiIoctlMagic = 'k'

var (
	spiWrMode        = ioW(spiIoctlMagic, 1, 1)
	spiWrBitsPerWord = ioW(spiIoctlMagic, 3, 1)
	spiWrMaxSpeedHz  = ioW(spiIoctlMagic, 4, 4)
)

// ioW builds a write-direction ioctl request number.
func ioW(typ, nr, size uintptr) uintptr {
	return 1<<30 | size<<16 | typ<<8 | nr
}

// SpidevTransmitter clocks the WS2812 bitstream out of a Linux SPI
// device. MOSI is the data line; clock and chip select stay unwired.
type SpidevTransmitter struct {
	fd int
}

var _ Transmitter = (*SpidevTransmitter)(nil)

// OpenSpidev opens the SPI device at path and configures it for the
// bitstream.
func OpenSpidev(path string) (*SpidevTransmitter, error) {
	fd, err := unix.Open(path, unix.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("unable to open %q: %w", path, err)
	}
	t := &SpidevTransmitter{fd: fd}
	if err := t.setup(); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("unable to configure %q: %w", path, err)
	}
	return t, nil
}

func (t *SpidevTransmitter) setup() error {
	mode := uint8(0)
	if err := t.ioctl(spiWrMode, unsafe.Pointer(&mode)); err != nil {
		return fmt.Errorf("setting the SPI mode: %w", err)
	}
	bits := uint8(8)
	if err := t.ioctl(spiWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		return fmt.Errorf("setting the word size: %w", err)
	}
	speed := uint32(spiClockHz)
	if err := t.ioctl(spiWrMaxSpeedHz, unsafe.Pointer(&speed)); err != nil {
		return fmt.Errorf("setting the clock: %w", err)
	}
	return nil
}

func (t *SpidevTransmitter) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(t.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// Transmit writes one encoded frame. The kernel clocks the whole
// buffer out back to back, so no pacing is needed here.
func (t *SpidevTransmitter) Transmit(ctx context.Context, pulses []Pulse) error {
	if _, err := unix.Write(t.fd, spiEncode(pulses)); err != nil {
		return fmt.Errorf("unable to write the bitstream: %w", err)
	}
	return nil
}

// Close releases the SPI device.
func (t *SpidevTransmitter) Close() error {
	return unix.Close(t.fd)
}

func openTransmitter(path string) (Transmitter, error) {
	return OpenSpidev(path)
}
