package fileid

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeString_RoundTrip(t *testing.T) {
	ids := []Identifier{
		NewChatPhoto(2, 9876543210, 17, 1001, -1001, 3, true),
		NewPhoto(4, 5432109876, -8, 0, 'x', 0),
		mustDocument(t, TypeVideoNote, 2, 0, 0),
		mustDocument(t, TypeDocument, 1, 123456789012345, -987654321),
	}

	for _, id := range ids {
		s, err := EncodeString(id)
		require.NoError(t, err)
		assert.NotContains(t, s, "=")
		assert.NotContains(t, s, "+")
		assert.NotContains(t, s, "/")

		decoded, err := DecodeString(s)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)

		// Padded input decodes to the same value.
		padded := s
		for len(padded)%4 != 0 {
			padded += "="
		}
		decoded, err = DecodeString(padded)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestRLE(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		out  []byte
	}{
		{"empty", []byte{}, []byte{}},
		{"no zeros", []byte{1, 2, 3}, []byte{1, 2, 3}},
		{"single zero", []byte{1, 0, 2}, []byte{1, 0, 1, 2}},
		{"trailing run", []byte{5, 0, 0, 0}, []byte{5, 0, 3}},
		{"leading run", []byte{0, 0, 9}, []byte{0, 2, 9}},
		{"long run is split", make([]byte, 300), []byte{0, 255, 0, 45}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := rleEncode(tt.in)
			assert.Equal(t, tt.out, encoded)

			decoded, err := rleDecode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.in, decoded)
		})
	}
}

func TestDecodeString_Errors(t *testing.T) {
	blob, err := Encode(mustDocument(t, TypeSticker, 1, 2, 3))
	require.NoError(t, err)
	framed := rleEncode(blob)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"missing trailer", base64.RawURLEncoding.EncodeToString(framed)},
		{"wrong trailer", base64.RawURLEncoding.EncodeToString(append(append([]byte{}, framed...), 0x03))},
		{"dangling zero", base64.RawURLEncoding.EncodeToString([]byte{8, 0, 0, 0, 0x02})},
		{"truncated body", base64.RawURLEncoding.EncodeToString(append(framed[:6:6], 0x02))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeString(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
		})
	}
}

func TestDecodeString_UnknownTag(t *testing.T) {
	framed := append(rleEncode([]byte{7, 0, 0, 0, 1, 0, 0, 0}), 0x02)

	_, err := DecodeString(base64.RawURLEncoding.EncodeToString(framed))
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
}
