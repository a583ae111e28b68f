package fileid

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustDocument builds a DocumentPlain, failing the test on an invalid kind.
func mustDocument(tb testing.TB, kind MediaType, dcID int32, id, hash int64) DocumentPlain {
	tb.Helper()

	doc, err := NewDocument(kind, dcID, id, hash)
	require.NoError(tb, err)
	return doc
}

func mustThumbnail(tb testing.TB, kind MediaType, thumb rune) DocumentWithThumb {
	tb.Helper()

	th, err := NewThumbnail(kind, 4, 5555555555, -77, 123456789, thumb, 42)
	require.NoError(tb, err)
	return th
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   Identifier
	}{
		{"chat photo small", NewChatPhoto(2, 9876543210, 17, 1001, -1001, 0x7fffffffffffffff, false)},
		{"chat photo big", NewChatPhoto(5, 1, 2, 3, 4, -5, true)},
		{"chat photo raw fields", PhotoLike{DCID: 1, PhotoID: -9, Secret: 8, VolumeID: 7, SizeType: 99, OwnerID: -1, OwnerKind: 6, OwnerAccessHash: 5, LocalID: 4}},
		{"photo", NewPhoto(1, 42, -42, 314159, 'x', 271)},
		{"photo thumbnail", mustThumbnail(t, TypePhotoThumbnail, 's')},
		{"document thumbnail", mustThumbnail(t, TypeDocumentThumbnail, 'm')},
		{"voice", mustDocument(t, TypeVoice, 2, 11, 12)},
		{"video", mustDocument(t, TypeVideo, 3, -11, -12)},
		{"document", mustDocument(t, TypeDocument, 4, 0, 0)},
		{"sticker", mustDocument(t, TypeSticker, 5, 1<<62, -(1 << 62))},
		{"audio", mustDocument(t, TypeAudio, 1, 7, 8)},
		{"animation", mustDocument(t, TypeAnimation, 1, 9, 10)},
		{"video note", mustDocument(t, TypeVideoNote, 1, 13, 14)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := Encode(tt.id)
			require.NoError(t, err)

			decoded, err := Decode(blob)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)

			again, err := Encode(decoded)
			require.NoError(t, err)
			assert.Equal(t, blob, again, "re-encoding must be byte-identical")
		})
	}
}

func TestEncode_Layouts(t *testing.T) {
	blob, err := Encode(NewChatPhoto(2, 3, 4, 5, 6, 7, true))
	require.NoError(t, err)
	require.Len(t, blob, 56)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(blob[0:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(blob[4:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(blob[32:]), "size type")
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(blob[52:]), "local id")

	blob, err = Encode(NewPhoto(1, 10, 20, 30, 'y', 40))
	require.NoError(t, err)
	require.Len(t, blob, 48)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(blob[0:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(blob[32:]), "source")
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(blob[36:]), "source kind")
	assert.Equal(t, uint32('y'), binary.LittleEndian.Uint32(blob[40:]), "thumb size")

	blob, err = Encode(mustDocument(t, TypeSticker, 1, 2, 3))
	require.NoError(t, err)
	require.Len(t, blob, 24)
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(blob[0:]))
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(blob[16:]))
}

func TestDecode_ShortBlob(t *testing.T) {
	ids := []Identifier{
		NewChatPhoto(1, 2, 3, 4, 5, 6, false),
		NewPhoto(1, 2, 3, 4, 'm', 5),
		mustDocument(t, TypeVideo, 1, 2, 3),
	}

	for _, id := range ids {
		blob, err := Encode(id)
		require.NoError(t, err)

		for n := 0; n < len(blob); n++ {
			_, err := Decode(blob[:n])
			require.Error(t, err, "%s truncated to %d bytes", id.Type(), n)
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
			assert.NotErrorIs(t, err, ErrUnsupportedMediaType)
		}
	}
}

func TestDecode_TrailingBytes(t *testing.T) {
	blob, err := Encode(mustDocument(t, TypeAudio, 1, 2, 3))
	require.NoError(t, err)

	_, err = Decode(append(blob, 0, 0, 0, 0))
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestDecode_UnknownTag(t *testing.T) {
	for _, tag := range []int32{6, 7, 11, 12, 15, -1, 1 << 20} {
		// A short body must still report the tag, not a length problem.
		for _, size := range []int{4, 24, 48, 56} {
			blob := make([]byte, size)
			binary.LittleEndian.PutUint32(blob, uint32(tag))

			_, err := Decode(blob)
			require.Error(t, err)

			var unsupported *UnsupportedMediaTypeError
			require.True(t, errors.As(err, &unsupported), "tag %d size %d: %v", tag, size, err)
			assert.Equal(t, tag, unsupported.Tag)
			assert.ErrorIs(t, err, ErrUnsupportedMediaType)
			assert.NotErrorIs(t, err, ErrInvalidIdentifier)
		}
	}
}

func TestPhotoLike_IsBig(t *testing.T) {
	for sizeType := int32(-1); sizeType <= 5; sizeType++ {
		blob, err := Encode(PhotoLike{DCID: 1, SizeType: sizeType})
		require.NoError(t, err)

		id, err := Decode(blob)
		require.NoError(t, err)

		photo, ok := id.(PhotoLike)
		require.True(t, ok)
		assert.Equal(t, sizeType == 3, photo.IsBig(), "size type %d", sizeType)
	}
}

func TestDocumentWithThumb_ThumbSizePreserved(t *testing.T) {
	// Codes outside the printable range are carried through untouched.
	for _, code := range []rune{'s', 'm', 'x', 'y', 'w', 0, 0x7f, 0x10ffff, -3} {
		id := NewPhoto(1, 2, 3, 4, code, 5)

		blob, err := Encode(id)
		require.NoError(t, err)

		decoded, err := Decode(blob)
		require.NoError(t, err)
		assert.Equal(t, code, decoded.(DocumentWithThumb).ThumbSize)
	}
}

func TestEncode_RejectsMismatchedKind(t *testing.T) {
	_, err := Encode(DocumentPlain{Kind: TypePhoto})
	assert.Error(t, err)

	_, err = Encode(DocumentWithThumb{Kind: TypeVideo})
	assert.Error(t, err)

	_, err = Encode(nil)
	assert.Error(t, err)
}

func TestConstructors_RejectWrongKind(t *testing.T) {
	_, err := NewDocument(TypePhoto, 1, 2, 3)
	assert.Error(t, err)

	_, err = NewThumbnail(TypeVideo, 1, 2, 3, 4, 's', 5)
	assert.Error(t, err)
}

func TestMediaType_Labels(t *testing.T) {
	tests := []struct {
		kind    MediaType
		label   string
		ext     string
		isPhoto bool
	}{
		{TypePhotoThumbnail, "photo_thumbnail", ".jpg", true},
		{TypeChatPhoto, "chat_photo", ".jpg", true},
		{TypePhoto, "photo", ".jpg", true},
		{TypeVoice, "voice", ".ogg", false},
		{TypeVideo, "video", ".mp4", false},
		{TypeDocument, "document", ".zip", false},
		{TypeSticker, "sticker", ".webp", false},
		{TypeAudio, "audio", ".mp3", false},
		{TypeAnimation, "animation", ".mp4", false},
		{TypeVideoNote, "video_note", ".mp4", false},
		{TypeDocumentThumbnail, "document_thumbnail", ".jpg", true},
		{MediaType(7), "media_type_7", ".unknown", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.label, tt.kind.String())
		assert.Equal(t, tt.ext, tt.kind.DefaultExtension(), tt.label)
		assert.Equal(t, tt.isPhoto, tt.kind.IsPhoto(), tt.label)
	}
}
