//go:build !linux

package led

func openTransmitter(path string) (Transmitter, error) {
	return nil, ErrNoTransmitter
}
