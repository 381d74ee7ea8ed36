package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wireReference() []byte {
	b := []byte{0x00, 0x00, 0x00, 0x7B}
	for i := 0; i < 16; i++ {
		b = append(b, byte(i))
	}
	return b
}

func TestTypeCodeLiteral(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "0x00000000"},
		{123, "0x0000007B"},
		{255, "0x000000FF"},
		{70000, "0x00011170"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TypeCodeLiteral(tc.code))
	}
}

func TestDecodeReference(t *testing.T) {
	ref, err := DecodeReference(wireReference())
	require.NoError(t, err)

	assert.Equal(t, uint32(123), ref.TypeCode)
	assert.Equal(t, "{123:03020100-0504-0706-0809-0a0b0c0d0e0f}", ref.String())
	assert.Equal(t, wireReference(), ref.Bytes(), "encoding restores the wire layout")
	assert.False(t, ref.IsEmpty())
}

func TestDecodeReference_WrongLength(t *testing.T) {
	_, err := DecodeReference([]byte{1, 2, 3})
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReference_LiteralAndHex(t *testing.T) {
	ref, err := DecodeReference(wireReference())
	require.NoError(t, err)

	lit := ref.Literal()
	assert.Equal(t, "0x0000007B000102030405060708090A0B0C0D0E0F", lit)

	again, err := DecodeReferenceHex(lit)
	require.NoError(t, err)
	assert.Equal(t, ref, again)

	_, err = DecodeReferenceHex("0xZZ")
	assert.Error(t, err)
}

func TestParseReference(t *testing.T) {
	ref, err := ParseReference("{123:03020100-0504-0706-0809-0a0b0c0d0e0f}")
	require.NoError(t, err)
	assert.Equal(t, uint32(123), ref.TypeCode)
	assert.Equal(t, wireReference(), ref.Bytes())

	for _, bad := range []string{
		"123:03020100-0504-0706-0809-0a0b0c0d0e0f",
		"{123}",
		"{x:03020100-0504-0706-0809-0a0b0c0d0e0f}",
		"{123:not-a-uuid}",
	} {
		_, err := ParseReference(bad)
		assert.Error(t, err, bad)
	}
}
