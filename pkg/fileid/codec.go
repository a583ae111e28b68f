package fileid

import (
	"encoding/binary"
	"fmt"

	"github.com/samber/lo"
)

// Fixed layout sizes, tag included.
const (
	tagSize               = 4
	photoLikeSize         = 56 // <iiqqqiiiqi
	documentWithThumbSize = 48 // <iiqqqiiii
	documentPlainSize     = 24 // <iiqq
)

// Encode serializes id into its binary layout.
func Encode(id Identifier) ([]byte, error) {
	switch v := id.(type) {
	case PhotoLike:
		w := newLayoutWriter(photoLikeSize)
		w.i32(int32(TypeChatPhoto))
		w.i32(v.DCID)
		w.i64(v.PhotoID)
		w.i64(v.Secret)
		w.i64(v.VolumeID)
		w.i32(v.SizeType)
		w.i32(v.OwnerID)
		w.i32(v.OwnerKind)
		w.i64(v.OwnerAccessHash)
		w.i32(v.LocalID)
		return w.buf, nil

	case DocumentWithThumb:
		if !lo.Contains(documentWithThumbTags, v.Kind) {
			return nil, fmt.Errorf("cannot encode %s with a thumbnail layout", v.Kind)
		}
		w := newLayoutWriter(documentWithThumbSize)
		w.i32(int32(v.Kind))
		w.i32(v.DCID)
		w.i64(v.DocumentID)
		w.i64(v.AccessHash)
		w.i64(v.VolumeID)
		w.i32(v.Source)
		w.i32(v.SourceKind)
		w.i32(v.ThumbSize)
		w.i32(v.LocalID)
		return w.buf, nil

	case DocumentPlain:
		if !lo.Contains(documentPlainTags, v.Kind) {
			return nil, fmt.Errorf("cannot encode %s with a document layout", v.Kind)
		}
		w := newLayoutWriter(documentPlainSize)
		w.i32(int32(v.Kind))
		w.i32(v.DCID)
		w.i64(v.DocumentID)
		w.i64(v.AccessHash)
		return w.buf, nil

	case nil:
		return nil, fmt.Errorf("cannot encode a nil identifier")

	default:
		return nil, fmt.Errorf("unknown identifier type %T", id)
	}
}

// Decode parses a binary layout. The tag is read first; an unknown tag
// yields *UnsupportedMediaTypeError, while a truncated or oversized blob
// yields ErrInvalidIdentifier.
func Decode(blob []byte) (Identifier, error) {
	if len(blob) < tagSize {
		return nil, invalidf("blob is %d bytes, too short for a tag", len(blob))
	}

	tag := MediaType(int32(binary.LittleEndian.Uint32(blob)))

	switch {
	case lo.Contains(photoLikeTags, tag):
		r, err := newLayoutReader(blob, photoLikeSize, tag)
		if err != nil {
			return nil, err
		}
		return PhotoLike{
			DCID:            r.i32(),
			PhotoID:         r.i64(),
			Secret:          r.i64(),
			VolumeID:        r.i64(),
			SizeType:        r.i32(),
			OwnerID:         r.i32(),
			OwnerKind:       r.i32(),
			OwnerAccessHash: r.i64(),
			LocalID:         r.i32(),
		}, nil

	case lo.Contains(documentWithThumbTags, tag):
		r, err := newLayoutReader(blob, documentWithThumbSize, tag)
		if err != nil {
			return nil, err
		}
		return DocumentWithThumb{
			Kind:       tag,
			DCID:       r.i32(),
			DocumentID: r.i64(),
			AccessHash: r.i64(),
			VolumeID:   r.i64(),
			Source:     r.i32(),
			SourceKind: r.i32(),
			ThumbSize:  r.i32(),
			LocalID:    r.i32(),
		}, nil

	case lo.Contains(documentPlainTags, tag):
		r, err := newLayoutReader(blob, documentPlainSize, tag)
		if err != nil {
			return nil, err
		}
		return DocumentPlain{
			Kind:       tag,
			DCID:       r.i32(),
			DocumentID: r.i64(),
			AccessHash: r.i64(),
		}, nil

	default:
		return nil, &UnsupportedMediaTypeError{Tag: int32(tag)}
	}
}

type layoutWriter struct {
	buf []byte
}

func newLayoutWriter(size int) *layoutWriter {
	return &layoutWriter{buf: make([]byte, 0, size)}
}

func (w *layoutWriter) i32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

func (w *layoutWriter) i64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

// layoutReader walks a blob whose length has already been checked against
// the layout, starting right after the tag.
type layoutReader struct {
	buf []byte
	off int
}

func newLayoutReader(blob []byte, size int, tag MediaType) (*layoutReader, error) {
	if len(blob) != size {
		return nil, invalidf("%s layout needs %d bytes, got %d", tag, size, len(blob))
	}
	return &layoutReader{buf: blob, off: tagSize}, nil
}

func (r *layoutReader) i32() int32 {
	v := int32(binary.LittleEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	return v
}

func (r *layoutReader) i64() int64 {
	v := int64(binary.LittleEndian.Uint64(r.buf[r.off:]))
	r.off += 8
	return v
}
