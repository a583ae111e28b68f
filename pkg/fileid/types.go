package fileid

import (
	"fmt"

	"github.com/samber/lo"
)

// MediaType is the leading tag of an encoded file id.
type MediaType int32

const (
	TypePhotoThumbnail    MediaType = 0
	TypeChatPhoto         MediaType = 1
	TypePhoto             MediaType = 2
	TypeVoice             MediaType = 3
	TypeVideo             MediaType = 4
	TypeDocument          MediaType = 5
	TypeSticker           MediaType = 8
	TypeAudio             MediaType = 9
	TypeAnimation         MediaType = 10
	TypeVideoNote         MediaType = 13
	TypeDocumentThumbnail MediaType = 14
)

var (
	photoLikeTags         = []MediaType{TypeChatPhoto}
	documentWithThumbTags = []MediaType{TypePhotoThumbnail, TypePhoto, TypeDocumentThumbnail}
	documentPlainTags     = []MediaType{
		TypeVoice, TypeVideo, TypeDocument, TypeSticker,
		TypeAudio, TypeAnimation, TypeVideoNote,
	}
)

var mediaTypeLabels = map[MediaType]string{
	TypePhotoThumbnail:    "photo_thumbnail",
	TypeChatPhoto:         "chat_photo",
	TypePhoto:             "photo",
	TypeVoice:             "voice",
	TypeVideo:             "video",
	TypeDocument:          "document",
	TypeSticker:           "sticker",
	TypeAudio:             "audio",
	TypeAnimation:         "animation",
	TypeVideoNote:         "video_note",
	TypeDocumentThumbnail: "document_thumbnail",
}

// String returns the label used when naming downloaded files.
func (t MediaType) String() string {
	if label, ok := mediaTypeLabels[t]; ok {
		return label
	}
	return fmt.Sprintf("media_type_%d", int32(t))
}

// IsPhoto reports whether files of this type are always stored as JPEG
// images, regardless of any MIME type attached to the object.
func (t MediaType) IsPhoto() bool {
	switch t {
	case TypePhotoThumbnail, TypeChatPhoto, TypePhoto, TypeDocumentThumbnail:
		return true
	}
	return false
}

// DefaultExtension is the extension used when no better guess is available.
func (t MediaType) DefaultExtension() string {
	switch t {
	case TypePhotoThumbnail, TypeChatPhoto, TypePhoto, TypeDocumentThumbnail:
		return ".jpg"
	case TypeVoice:
		return ".ogg"
	case TypeVideo, TypeAnimation, TypeVideoNote:
		return ".mp4"
	case TypeDocument:
		return ".zip"
	case TypeSticker:
		return ".webp"
	case TypeAudio:
		return ".mp3"
	default:
		return ".unknown"
	}
}

// ParseMediaType returns the type whose label is s.
func ParseMediaType(s string) (MediaType, error) {
	if t, ok := lo.FindKey(mediaTypeLabels, s); ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, s)
}
