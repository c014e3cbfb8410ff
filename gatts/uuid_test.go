package gatts

import (
	"bytes"
	"testing"
)

func TestParseUUID(t *testing.T) {
	for _, tc := range []struct {
		in      string
		wantLen int
		wantStr string
	}{
		{"2902", 2, "2902"},
		{"ad91b201-7347-4047-9e17-3bed82d75f9d", 16, "ad91b201734740479e173bed82d75f9d"},
		{"ad91b201734740479e173bed82d75f9d", 16, "ad91b201734740479e173bed82d75f9d"},
	} {
		u, err := ParseUUID(tc.in)
		if err != nil {
			t.Errorf("ParseUUID(%q): %v", tc.in, err)
			continue
		}
		if u.Len() != tc.wantLen {
			t.Errorf("ParseUUID(%q).Len() = %d, want %d", tc.in, u.Len(), tc.wantLen)
		}
		if u.String() != tc.wantStr {
			t.Errorf("ParseUUID(%q).String() = %q, want %q", tc.in, u.String(), tc.wantStr)
		}
	}
}

func TestParseUUIDErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"29",
		"xyzw",
		"0011223344556677",
		"ad91b201-7347-4047-9e17-3bed82d75f9d00",
	} {
		if _, err := ParseUUID(in); err == nil {
			t.Errorf("ParseUUID(%q) succeeded, want an error", in)
		}
	}
}

func TestMustParseUUIDPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("MustParseUUID did not panic on a malformed input")
		}
	}()
	MustParseUUID("not-a-uuid")
}

func TestUUID16WireOrder(t *testing.T) {
	u := UUID16(0x2902)
	if got, want := u.Bytes(), []byte{0x02, 0x29}; !bytes.Equal(got, want) {
		t.Errorf("UUID16(0x2902).Bytes() = %x, want %x", got, want)
	}
	if got := u.String(); got != "2902" {
		t.Errorf("UUID16(0x2902).String() = %q, want %q", got, "2902")
	}
	parsed, err := ParseUUID("2902")
	if err != nil {
		t.Fatalf("ParseUUID: %v", err)
	}
	if !u.Equal(parsed) {
		t.Errorf("UUID16(0x2902) != ParseUUID(%q)", "2902")
	}
}

func TestUUIDWireOrderIsReversed(t *testing.T) {
	u := MustParseUUID("ad91b201-7347-4047-9e17-3bed82d75f9d")
	b := u.Bytes()
	if b[0] != 0x9d || b[15] != 0xad {
		t.Errorf("Bytes() is not little-endian: % x", b)
	}
}

func TestUUIDEqual(t *testing.T) {
	a := MustParseUUID("ad91b201-7347-4047-9e17-3bed82d75f9d")
	b := MustParseUUID("b6fccb50-87be-44f3-ae22-f85485ea42c4")
	if a.Equal(b) {
		t.Errorf("distinct UUIDs compare equal")
	}
	if !a.Equal(MustParseUUID("ad91b201734740479e173bed82d75f9d")) {
		t.Errorf("the same UUID with and without dashes compare unequal")
	}
	if a.Equal(UUID16(0xad91)) {
		t.Errorf("a 128-bit UUID compares equal to a 16-bit one")
	}
}

func TestUUIDBytesIsACopy(t *testing.T) {
	u := UUID16(0x2902)
	b := u.Bytes()
	b[0] = 0xff
	if got, want := u.Bytes(), []byte{0x02, 0x29}; !bytes.Equal(got, want) {
		t.Errorf("mutating Bytes() output changed the UUID: %x", got)
	}
}
