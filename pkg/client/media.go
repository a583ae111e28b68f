package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
	"github.com/rescp17/mediaTransfer/pkg/transfer"
)

const (
	animatedStickerMimeType = "application/x-tgsticker"
	defaultStickerSide      = 512
)

var ErrNoPhotoSizes = errors.New("photo has no sizes")

// Thumbnail is one reduced size of a photo or document.
type Thumbnail struct {
	FileID   string
	Width    int32
	Height   int32
	FileSize int64
}

// Photo is the largest size of a stored photo.
type Photo struct {
	FileID        string
	Width         int32
	Height        int32
	FileSize      int64
	Date          time.Time
	FileReference []byte
	Thumbs        []Thumbnail
}

func (p *Photo) Media() transfer.Media {
	return transfer.Media{
		FileID:        p.FileID,
		FileSize:      p.FileSize,
		MimeType:      "image/jpeg",
		Date:          p.Date,
		FileReference: p.FileReference,
	}
}

type Sticker struct {
	FileID        string
	Width         int32
	Height        int32
	IsAnimated    bool
	FileName      string
	MimeType      string
	FileSize      int64
	Date          time.Time
	Emoji         string
	SetName       string
	FileReference []byte
	Thumbs        []Thumbnail
}

func (s *Sticker) Media() transfer.Media {
	return transfer.Media{
		FileID:        s.FileID,
		FileName:      s.FileName,
		FileSize:      s.FileSize,
		MimeType:      s.MimeType,
		Date:          s.Date,
		FileReference: s.FileReference,
	}
}

type Audio struct {
	FileID        string
	Duration      int32
	Performer     string
	Title         string
	FileName      string
	MimeType      string
	FileSize      int64
	Date          time.Time
	FileReference []byte
	Thumbs        []Thumbnail
}

func (a *Audio) Media() transfer.Media {
	return transfer.Media{
		FileID:        a.FileID,
		FileName:      a.FileName,
		FileSize:      a.FileSize,
		MimeType:      a.MimeType,
		Date:          a.Date,
		FileReference: a.FileReference,
	}
}

// Document is any other stored file: a general document, video, video
// note, voice note or animation. Kind tells which.
type Document struct {
	FileID        string
	Kind          fileid.MediaType
	FileName      string
	MimeType      string
	FileSize      int64
	Date          time.Time
	Duration      int32
	Width         int32
	Height        int32
	FileReference []byte
	Thumbs        []Thumbnail
}

func (d *Document) Media() transfer.Media {
	return transfer.Media{
		FileID:        d.FileID,
		FileName:      d.FileName,
		FileSize:      d.FileSize,
		MimeType:      d.MimeType,
		Date:          d.Date,
		FileReference: d.FileReference,
	}
}

// Message is a sent message with its media parsed. At most one of the
// media fields is set.
type Message struct {
	ID      int64
	Peer    string
	Date    time.Time
	Caption string

	Photo    *Photo
	Sticker  *Sticker
	Audio    *Audio
	Document *Document
}

// Media returns the downloadable media of m, if any.
func (m *Message) Media() (transfer.Media, bool) {
	switch {
	case m.Photo != nil:
		return m.Photo.Media(), true
	case m.Sticker != nil:
		return m.Sticker.Media(), true
	case m.Audio != nil:
		return m.Audio.Media(), true
	case m.Document != nil:
		return m.Document.Media(), true
	default:
		return transfer.Media{}, false
	}
}

// ParseMessage converts a service message, giving every media object its
// file id.
func ParseMessage(m *rpc.Message) (*Message, error) {
	msg := &Message{
		ID:      m.ID,
		Peer:    m.Peer,
		Date:    time.Unix(m.Date, 0),
		Caption: m.Caption,
	}

	switch {
	case m.Photo != nil:
		photo, err := ParsePhoto(m.Photo)
		if err != nil {
			return nil, err
		}
		msg.Photo = photo

	case m.Document != nil:
		d := m.Document
		var err error
		switch documentKind(d.Attributes) {
		case fileid.TypeSticker:
			msg.Sticker, err = ParseSticker(d)
		case fileid.TypeAudio:
			msg.Audio, err = ParseAudio(d)
		default:
			msg.Document, err = ParseDocument(d)
		}
		if err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// ParsePhoto describes p by its largest size. The other sizes become
// thumbnails.
func ParsePhoto(p *rpc.Photo) (*Photo, error) {
	if len(p.Sizes) == 0 {
		return nil, fmt.Errorf("photo %d: %w", p.ID, ErrNoPhotoSizes)
	}
	big := p.Sizes[len(p.Sizes)-1]
	code, err := sizeCode(big.Type)
	if err != nil {
		return nil, fmt.Errorf("photo %d: %w", p.ID, err)
	}

	fileID, err := fileid.EncodeString(fileid.NewPhoto(p.DCID, p.ID, p.AccessHash, 0, code, 0))
	if err != nil {
		return nil, err
	}
	thumbs, err := parseThumbs(fileid.TypePhotoThumbnail, p.DCID, p.ID, p.AccessHash, p.Sizes[:len(p.Sizes)-1])
	if err != nil {
		return nil, err
	}

	return &Photo{
		FileID:        fileID,
		Width:         big.Width,
		Height:        big.Height,
		FileSize:      big.Size,
		Date:          time.Unix(p.Date, 0),
		FileReference: p.FileReference,
		Thumbs:        thumbs,
	}, nil
}

func ParseSticker(d *rpc.Document) (*Sticker, error) {
	fileID, thumbs, err := documentIDs(fileid.TypeSticker, d)
	if err != nil {
		return nil, err
	}

	s := &Sticker{
		FileID:        fileID,
		Width:         d.Attributes.Width,
		Height:        d.Attributes.Height,
		IsAnimated:    d.MimeType == animatedStickerMimeType,
		FileName:      d.Attributes.FileName,
		MimeType:      d.MimeType,
		FileSize:      d.Size,
		Date:          time.Unix(d.Date, 0),
		Emoji:         d.Attributes.Emoji,
		SetName:       d.Attributes.SetName,
		FileReference: d.FileReference,
		Thumbs:        thumbs,
	}
	if s.Width == 0 || s.Height == 0 {
		s.Width, s.Height = defaultStickerSide, defaultStickerSide
	}
	return s, nil
}

func ParseAudio(d *rpc.Document) (*Audio, error) {
	fileID, thumbs, err := documentIDs(fileid.TypeAudio, d)
	if err != nil {
		return nil, err
	}
	return &Audio{
		FileID:        fileID,
		Duration:      d.Attributes.Duration,
		Performer:     d.Attributes.Performer,
		Title:         d.Attributes.Title,
		FileName:      d.Attributes.FileName,
		MimeType:      d.MimeType,
		FileSize:      d.Size,
		Date:          time.Unix(d.Date, 0),
		FileReference: d.FileReference,
		Thumbs:        thumbs,
	}, nil
}

// ParseDocument describes d with the kind its attributes imply.
func ParseDocument(d *rpc.Document) (*Document, error) {
	kind := documentKind(d.Attributes)
	fileID, thumbs, err := documentIDs(kind, d)
	if err != nil {
		return nil, err
	}
	return &Document{
		FileID:        fileID,
		Kind:          kind,
		FileName:      d.Attributes.FileName,
		MimeType:      d.MimeType,
		FileSize:      d.Size,
		Date:          time.Unix(d.Date, 0),
		Duration:      d.Attributes.Duration,
		Width:         d.Attributes.Width,
		Height:        d.Attributes.Height,
		FileReference: d.FileReference,
		Thumbs:        thumbs,
	}, nil
}

func documentKind(a rpc.Attributes) fileid.MediaType {
	switch {
	case a.Sticker:
		return fileid.TypeSticker
	case a.Round:
		return fileid.TypeVideoNote
	case a.Voice:
		return fileid.TypeVoice
	case a.Audio:
		return fileid.TypeAudio
	case a.Video:
		return fileid.TypeVideo
	default:
		return fileid.TypeDocument
	}
}

func documentIDs(kind fileid.MediaType, d *rpc.Document) (string, []Thumbnail, error) {
	id, err := fileid.NewDocument(kind, d.DCID, d.ID, d.AccessHash)
	if err != nil {
		return "", nil, err
	}
	fileID, err := fileid.EncodeString(id)
	if err != nil {
		return "", nil, err
	}
	thumbs, err := parseThumbs(fileid.TypeDocumentThumbnail, d.DCID, d.ID, d.AccessHash, d.Thumbs)
	if err != nil {
		return "", nil, err
	}
	return fileID, thumbs, nil
}

func parseThumbs(kind fileid.MediaType, dcID int32, id, accessHash int64, sizes []rpc.PhotoSize) ([]Thumbnail, error) {
	var thumbs []Thumbnail
	for _, size := range sizes {
		code, err := sizeCode(size.Type)
		if err != nil {
			continue
		}
		thumb, err := fileid.NewThumbnail(kind, dcID, id, accessHash, 0, code, 0)
		if err != nil {
			return nil, err
		}
		fileID, err := fileid.EncodeString(thumb)
		if err != nil {
			return nil, err
		}
		thumbs = append(thumbs, Thumbnail{
			FileID:   fileID,
			Width:    size.Width,
			Height:   size.Height,
			FileSize: size.Size,
		})
	}
	return thumbs, nil
}

func sizeCode(t string) (rune, error) {
	r := []rune(t)
	if len(r) != 1 {
		return 0, fmt.Errorf("size type %q is not a single character", t)
	}
	return r[0], nil
}
