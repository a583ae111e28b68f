// Package fileid encodes and decodes the compact binary identifiers the
// messaging service hands out for remote media objects.
//
// A file id is a little-endian record whose leading int32 tag selects one of
// three fixed layouts. None of the layouts is self-delimiting, so the tag is
// always read first. On the wire the record is zero-run-length encoded,
// terminated by an integrity byte and wrapped in URL-safe base64.
package fileid

import (
	"fmt"

	"github.com/samber/lo"
)

// Identifier is one decoded file id. The set of implementations is closed:
// PhotoLike, DocumentWithThumb and DocumentPlain.
type Identifier interface {
	// Type is the tag the identifier is encoded with.
	Type() MediaType
	// DC is the data center holding the object.
	DC() int32

	isIdentifier()
}

// bigSizeType marks the large variant of a peer photo.
const bigSizeType = 3

// PhotoLike addresses a profile or chat photo owned by a peer. Tag 1.
type PhotoLike struct {
	DCID            int32
	PhotoID         int64
	Secret          int64
	VolumeID        int64
	SizeType        int32
	OwnerID         int32
	OwnerKind       int32
	OwnerAccessHash int64
	LocalID         int32
}

func (PhotoLike) Type() MediaType { return TypeChatPhoto }
func (p PhotoLike) DC() int32     { return p.DCID }
func (PhotoLike) isIdentifier()   {}

// IsBig reports whether the id refers to the large size of the photo.
func (p PhotoLike) IsBig() bool {
	return p.SizeType == bigSizeType
}

// DocumentWithThumb addresses a photo or a thumbnail size of a document.
// Tags 0, 2 and 14.
type DocumentWithThumb struct {
	Kind       MediaType
	DCID       int32
	DocumentID int64
	AccessHash int64
	VolumeID   int64
	Source     int32
	SourceKind int32
	// ThumbSize is the one-character size code ('s', 'm', 'x', ...). It is
	// kept as the raw code point so that it round-trips unchanged.
	ThumbSize rune
	LocalID   int32
}

func (d DocumentWithThumb) Type() MediaType { return d.Kind }
func (d DocumentWithThumb) DC() int32       { return d.DCID }
func (DocumentWithThumb) isIdentifier()     {}

// ThumbSizeCode returns the size code as a one-character string.
func (d DocumentWithThumb) ThumbSizeCode() string {
	return string(d.ThumbSize)
}

// DocumentPlain addresses a whole document: voice, video, document, sticker,
// audio, animation or video note. Tags 3, 4, 5, 8, 9, 10 and 13.
type DocumentPlain struct {
	Kind       MediaType
	DCID       int32
	DocumentID int64
	AccessHash int64
}

func (d DocumentPlain) Type() MediaType { return d.Kind }
func (d DocumentPlain) DC() int32       { return d.DCID }
func (DocumentPlain) isIdentifier()     {}

// NewChatPhoto builds the id of a peer photo. big selects the large size.
func NewChatPhoto(dcID int32, volumeID int64, localID int32, ownerID int32, ownerKind int32, ownerAccessHash int64, big bool) PhotoLike {
	sizeType := int32(2)
	if big {
		sizeType = bigSizeType
	}
	return PhotoLike{
		DCID:            dcID,
		VolumeID:        volumeID,
		SizeType:        sizeType,
		OwnerID:         ownerID,
		OwnerKind:       ownerKind,
		OwnerAccessHash: ownerAccessHash,
		LocalID:         localID,
	}
}

// NewPhoto builds the id of one size of a photo.
func NewPhoto(dcID int32, photoID, accessHash, volumeID int64, thumbSize rune, localID int32) DocumentWithThumb {
	return newThumbLayout(TypePhoto, dcID, photoID, accessHash, volumeID, thumbSize, localID)
}

// NewThumbnail builds the id of a thumbnail. kind is TypePhotoThumbnail for
// photo thumbnails and TypeDocumentThumbnail for document thumbnails.
func NewThumbnail(kind MediaType, dcID int32, ownerID, accessHash, volumeID int64, thumbSize rune, localID int32) (DocumentWithThumb, error) {
	if kind != TypePhotoThumbnail && kind != TypeDocumentThumbnail {
		return DocumentWithThumb{}, fmt.Errorf("%s is not a thumbnail type", kind)
	}
	return newThumbLayout(kind, dcID, ownerID, accessHash, volumeID, thumbSize, localID), nil
}

func newThumbLayout(kind MediaType, dcID int32, id, accessHash, volumeID int64, thumbSize rune, localID int32) DocumentWithThumb {
	return DocumentWithThumb{
		Kind:       kind,
		DCID:       dcID,
		DocumentID: id,
		AccessHash: accessHash,
		VolumeID:   volumeID,
		Source:     1,
		SourceKind: 2,
		ThumbSize:  thumbSize,
		LocalID:    localID,
	}
}

// NewDocument builds the id of a whole document of the given kind.
func NewDocument(kind MediaType, dcID int32, documentID, accessHash int64) (DocumentPlain, error) {
	if !lo.Contains(documentPlainTags, kind) {
		return DocumentPlain{}, fmt.Errorf("%s is not a document type", kind)
	}
	return DocumentPlain{
		Kind:       kind,
		DCID:       dcID,
		DocumentID: documentID,
		AccessHash: accessHash,
	}, nil
}
