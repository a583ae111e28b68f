package transfer

import (
	"fmt"
	"time"

	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
	"github.com/samber/lo"
)

// Media is a remote object as it appears in a received message. Its
// attributes seed the download job: declared size and date, MIME type and
// the suggested file name.
type Media struct {
	FileID        string
	FileName      string
	FileSize      int64
	MimeType      string
	Date          time.Time
	FileReference []byte
}

// ProgressFunc receives the bytes transferred so far and the total. total
// is zero when the size is not known in advance.
type ProgressFunc func(current, total int64)

// DownloadRequest describes one download. Exactly one of FileID and Media
// is set.
type DownloadRequest struct {
	FileID string
	Media  *Media

	// FileName is the destination path. A trailing separator names a
	// directory only; an empty value downloads into the download root under
	// a generated or suggested name.
	FileName string

	Progress ProgressFunc
}

// LocationFor builds the GetFile location addressing id.
func LocationFor(id fileid.Identifier, fileReference []byte) (rpc.FileLocation, error) {
	switch v := id.(type) {
	case fileid.PhotoLike:
		return rpc.PeerPhotoLocation{
			Peer: rpc.InputPeer{
				ID:         v.OwnerID,
				Kind:       v.OwnerKind,
				AccessHash: v.OwnerAccessHash,
			},
			VolumeID: v.VolumeID,
			LocalID:  v.LocalID,
			Big:      v.IsBig(),
		}, nil

	case fileid.DocumentWithThumb:
		if v.Kind == fileid.TypeDocumentThumbnail {
			return rpc.DocumentLocation{
				ID:            v.DocumentID,
				AccessHash:    v.AccessHash,
				FileReference: fileReference,
				ThumbSize:     v.ThumbSizeCode(),
			}, nil
		}
		return rpc.PhotoLocation{
			ID:            v.DocumentID,
			AccessHash:    v.AccessHash,
			FileReference: fileReference,
			ThumbSize:     v.ThumbSizeCode(),
		}, nil

	case fileid.DocumentPlain:
		return rpc.DocumentLocation{
			ID:            v.DocumentID,
			AccessHash:    v.AccessHash,
			FileReference: fileReference,
		}, nil

	default:
		return nil, fmt.Errorf("no file location for %T", id)
	}
}

// InputMediaFromFileID turns a file id into media that can be sent again
// without uploading it. When expected is not empty the id must be of one of
// those kinds.
func InputMediaFromFileID(fileID string, fileReference []byte, expected ...fileid.MediaType) (rpc.InputMedia, error) {
	id, err := fileid.DecodeString(fileID)
	if err != nil {
		return nil, err
	}

	if len(expected) > 0 && !lo.Contains(expected, id.Type()) {
		return nil, fmt.Errorf("%w: expected %s, got %s",
			ErrMediaTypeMismatch, lo.Map(expected, func(t fileid.MediaType, _ int) string { return t.String() }), id.Type())
	}

	switch v := id.(type) {
	case fileid.DocumentWithThumb:
		if v.Kind != fileid.TypePhoto {
			return nil, fmt.Errorf("%w: %s cannot be sent as media", ErrMediaTypeMismatch, v.Kind)
		}
		return rpc.InputMediaPhoto{
			ID:            v.DocumentID,
			AccessHash:    v.AccessHash,
			FileReference: fileReference,
		}, nil
	case fileid.DocumentPlain:
		return rpc.InputMediaDocument{
			ID:            v.DocumentID,
			AccessHash:    v.AccessHash,
			FileReference: fileReference,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s cannot be sent as media", ErrMediaTypeMismatch, id.Type())
	}
}
