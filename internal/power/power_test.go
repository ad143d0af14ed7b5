package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMAC(t *testing.T) {
	want := []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}

	for _, in := range []string{
		"AA:BB:CC:DD:EE:FF",
		"aa-bb-cc-dd-ee-ff",
		"aabbccddeeff",
		"  AA:BB:CC:DD:EE:FF  ",
	} {
		got, err := ParseMAC(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestParseMACRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "AA:BB:CC", "zz:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF:00"} {
		_, err := ParseMAC(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestPayloadEncoding(t *testing.T) {
	on, err := Payload("AA:BB:CC:DD:EE:FF", true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 1}, on)

	off, err := Payload("AA:BB:CC:DD:EE:FF", false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 2}, off)
}

func TestConnectAndWriteErrorsUnwrap(t *testing.T) {
	inner := assert.AnError
	connErr := &ConnectError{ID: "AAA", Err: inner}
	assert.ErrorIs(t, connErr, inner)
	assert.Contains(t, connErr.Error(), "AAA")

	writeErr := &WriteError{ID: "AAA", Err: inner}
	assert.ErrorIs(t, writeErr, inner)
	assert.Contains(t, writeErr.Error(), "AAA")
}
