package gatts

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// A UUID is a BLE universally unique identifier, either 16 bits for
// Bluetooth SIG assigned numbers or 128 bits for custom ones. It is
// stored in little-endian order, as it appears on the wire.
type UUID struct {
	b []byte
}

// UUID16 converts a Bluetooth SIG assigned number to a UUID.
func UUID16(i uint16) UUID {
	return UUID{b: []byte{byte(i), byte(i >> 8)}}
}

// ParseUUID parses a standard-format UUID string, e.g.
// "ad91b201-7347-4047-9e17-3bed82d75f9d" or "2902".
func ParseUUID(s string) (UUID, error) {
	b, err := hex.DecodeString(strings.ReplaceAll(s, "-", ""))
	if err != nil {
		return UUID{}, err
	}
	if len(b) != 2 && len(b) != 16 {
		return UUID{}, fmt.Errorf("invalid UUID length %d", len(b))
	}
	return UUID{b: reverse(b)}, nil
}

// MustParseUUID parses a standard-format UUID string or panics.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(fmt.Errorf("parsing UUID %q: %w", s, err))
	}
	return u
}

// Len returns the length of the UUID in bytes: 2, 16, or 0 for the
// zero value.
func (u UUID) Len() int {
	return len(u.b)
}

// Bytes returns the little-endian wire form of the UUID.
func (u UUID) Bytes() []byte {
	return append([]byte(nil), u.b...)
}

// Equal reports whether two UUIDs are equal.
func (u UUID) Equal(v UUID) bool {
	return bytes.Equal(u.b, v.b)
}

func (u UUID) String() string {
	return hex.EncodeToString(reverse(u.b))
}

// reverse returns a reversed copy of b.
func reverse(b []byte) []byte {
	r := make([]byte, len(b))
	for i := range b {
		r[i] = b[len(b)-1-i]
	}
	return r
}
