// Package remote is a self-contained media service speaking the calls in
// package rpc. Uploaded parts, stored objects and their bytes live in
// BadgerDB.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
)

const (
	// MaxLimit is the most bytes a single GetFile call returns.
	MaxLimit = 1024 * 1024
	// MaxPartSize is the largest part SaveFilePart accepts.
	MaxPartSize = 512 * 1024

	photoSizeCode = "x"
	thumbSizeCode = "m"
)

var (
	ErrChecksumInvalid = &rpc.ServiceError{Code: rpc.CodeBadRequest, Message: "MD5_CHECKSUM_INVALID"}
	ErrLimitInvalid    = &rpc.ServiceError{Code: rpc.CodeBadRequest, Message: "LIMIT_INVALID"}
)

// Service implements rpc.Sender against its own storage.
type Service struct {
	db   *badger.DB
	seq  *badger.Sequence
	log  *slog.Logger
	dcID int32
	now  func() time.Time

	dropPart func(fileID int64, part int32) bool
}

type Option func(*Service)

// WithDCID sets the data center id put into stored objects.
func WithDCID(dc int32) Option {
	return func(s *Service) { s.dcID = dc }
}

// WithPartLoss acknowledges parts for which drop returns true without
// storing them, so that the commit reports them missing.
func WithPartLoss(drop func(fileID int64, part int32) bool) Option {
	return func(s *Service) { s.dropPart = drop }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *badger.DB, log *slog.Logger, opts ...Option) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	seq, err := db.GetSequence([]byte(messageSeq), 64)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	s := &Service{
		db:   db,
		seq:  seq,
		log:  log.With("component", "media-service"),
		dcID: 2,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the message id sequence. The database stays open.
func (s *Service) Close() error {
	return s.seq.Release()
}

func (s *Service) Send(ctx context.Context, req rpc.Request) (rpc.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch r := req.(type) {
	case *rpc.GetFile:
		return s.getFile(r)
	case *rpc.SaveFilePart:
		return s.savePart(r.FileID, r.FilePart, -1, r.Bytes)
	case *rpc.SaveBigFilePart:
		return s.savePart(r.FileID, r.FilePart, r.FileTotalParts, r.Bytes)
	case *rpc.SendMedia:
		return s.sendMedia(r)
	default:
		return nil, &rpc.ServiceError{Code: rpc.CodeBadRequest, Message: fmt.Sprintf("METHOD_INVALID: %T", req)}
	}
}

// PutPeerPhoto stores the bytes of a peer photo size.
func (s *Service) PutPeerPhoto(volumeID int64, localID int32, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(peerKey(volumeID, localID), data)
	})
}

func (s *Service) savePart(fileID int64, part, total int32, data []byte) (rpc.Response, error) {
	switch {
	case part < 0, len(data) == 0, len(data) > MaxPartSize:
		return nil, rpc.ErrFilePartInvalid
	case total >= 0 && part >= total:
		return nil, rpc.ErrFilePartInvalid
	}

	if s.dropPart != nil && s.dropPart(fileID, part) {
		s.log.Debug("Dropping part", "file_id", fileID, "part", part)
		return true, nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(partKey(fileID, part), data)
	})
	if err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Service) getFile(r *rpc.GetFile) (rpc.Response, error) {
	if r.Limit <= 0 || r.Limit > MaxLimit || r.Offset < 0 {
		return nil, ErrLimitInvalid
	}

	var chunk []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if l, ok := r.Location.(rpc.PeerPhotoLocation); ok {
			chunk, err = readPeerPhoto(txn, l, r.Offset, r.Limit)
			return err
		}

		obj, code, err := s.locate(txn, r.Location)
		if err != nil {
			return err
		}
		size, ok := obj.sizeOf(code)
		if !ok {
			return rpc.ErrFileIDInvalid
		}
		chunk, err = readRange(txn, obj.ID, code, obj.Chunks[code], size, r.Offset, r.Limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rpc.File{Bytes: chunk}, nil
}

// locate resolves a location to a stored object and size code, checking
// the access hash on the way.
func (s *Service) locate(txn *badger.Txn, loc rpc.FileLocation) (*object, string, error) {
	var (
		id, accessHash int64
		code           string
		photo          bool
	)
	switch l := loc.(type) {
	case rpc.PhotoLocation:
		id, accessHash, code, photo = l.ID, l.AccessHash, l.ThumbSize, true
	case rpc.DocumentLocation:
		id, accessHash, code = l.ID, l.AccessHash, l.ThumbSize
	default:
		return nil, "", rpc.ErrFileIDInvalid
	}

	obj, err := getObject(txn, id)
	if err != nil {
		return nil, "", err
	}
	if obj.Photo != photo || obj.AccessHash != accessHash {
		return nil, "", rpc.ErrFileIDInvalid
	}
	return obj, code, nil
}

func readPeerPhoto(txn *badger.Txn, l rpc.PeerPhotoLocation, offset int64, limit int32) ([]byte, error) {
	item, err := txn.Get(peerKey(l.VolumeID, l.LocalID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, rpc.ErrFileIDInvalid
	}
	if err != nil {
		return nil, err
	}

	var chunk []byte
	err = item.Value(func(v []byte) error {
		if offset < int64(len(v)) {
			end := min(offset+int64(limit), int64(len(v)))
			chunk = append([]byte(nil), v[offset:end]...)
		}
		return nil
	})
	return chunk, err
}

func (s *Service) sendMedia(r *rpc.SendMedia) (rpc.Response, error) {
	var (
		obj *object
		err error
	)
	switch m := r.Media.(type) {
	case nil:
		return nil, rpc.ErrMediaEmpty
	case rpc.InputMediaUploadedDocument:
		obj, err = s.storeUpload(m.File, m.Thumb, false, m.MimeType, m.Attributes)
	case rpc.InputMediaUploadedPhoto:
		obj, err = s.storeUpload(m.File, nil, true, "image/jpeg", rpc.Attributes{})
	case rpc.InputMediaDocument:
		obj, err = s.existing(m.ID, m.AccessHash, false)
	case rpc.InputMediaPhoto:
		obj, err = s.existing(m.ID, m.AccessHash, true)
	default:
		return nil, rpc.ErrMediaEmpty
	}
	if err != nil {
		return nil, err
	}

	id, err := s.seq.Next()
	if err != nil {
		return nil, err
	}
	msg := &rpc.Message{
		ID:      int64(id) + 1,
		Peer:    r.Peer,
		Date:    s.now().Unix(),
		Caption: r.Message,
	}
	if obj.Photo {
		msg.Photo = s.toPhoto(obj)
	} else {
		msg.Document = s.toDocument(obj)
	}
	return msg, nil
}

func (s *Service) existing(id, accessHash int64, photo bool) (*object, error) {
	var obj *object
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		obj, err = getObject(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if obj.Photo != photo || obj.AccessHash != accessHash {
		return nil, rpc.ErrFileIDInvalid
	}
	return obj, nil
}

// storeUpload turns uploaded parts into a stored object.
func (s *Service) storeUpload(file rpc.InputFile, thumb *rpc.InputFile, photo bool, mimeType string, attrs rpc.Attributes) (*object, error) {
	obj := &object{
		ID:         rand.Int64(),
		AccessHash: rand.Int64(),
		Photo:      photo,
		MimeType:   mimeType,
		Date:       s.now().Unix(),
		Attributes: attrs,
		Chunks:     make(map[string]int64),
	}
	if obj.Attributes.FileName == "" && !photo {
		obj.Attributes.FileName = file.Name
	}

	body := ""
	if photo {
		body = photoSizeCode
	}
	files := []pendingFile{{file: file, code: body}}
	if thumb != nil {
		files = append(files, pendingFile{file: *thumb, code: thumbSizeCode})
	}

	err := s.check(files)
	if err == nil {
		err = s.commit(obj, files)
	}
	if err != nil {
		var missing *rpc.MissingPartError
		if !errors.As(err, &missing) {
			s.log.Warn("Upload rejected", "file_id", file.ID, "error", err)
		}
		return nil, err
	}

	s.log.Info("Stored upload", "object", obj.ID, "size", obj.Size, "file_id", s.mintFileID(obj))
	return obj, nil
}

// pendingFile is an uploaded file referenced by SendMedia, stored under
// code once accepted.
type pendingFile struct {
	file rpc.InputFile
	code string
	u    upload
}

// check inspects every file before anything is moved. A rejected call
// leaves all received parts in place.
func (s *Service) check(files []pendingFile) error {
	return s.db.View(func(txn *badger.Txn) error {
		for i := range files {
			f := files[i].file
			u, err := inspect(txn, f)
			if err != nil {
				return err
			}
			if !f.Big && f.MD5Checksum != "" && f.MD5Checksum != u.md5 {
				return ErrChecksumInvalid
			}
			files[i].u = u
		}
		return nil
	})
}

// commit moves the parts of checked files under obj's size codes and
// stores obj in the same write batch.
func (s *Service) commit(obj *object, files []pendingFile) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, p := range files {
		for i := range p.file.Parts {
			var data []byte
			err := s.db.View(func(txn *badger.Txn) error {
				item, err := txn.Get(partKey(p.file.ID, i))
				if err != nil {
					return err
				}
				data, err = item.ValueCopy(nil)
				return err
			})
			if errors.Is(err, badger.ErrKeyNotFound) {
				return &rpc.MissingPartError{Part: i}
			}
			if err != nil {
				return err
			}
			if err := wb.Set(dataKey(obj.ID, p.code, int64(i)), data); err != nil {
				return err
			}
			if err := wb.Delete(partKey(p.file.ID, i)); err != nil {
				return err
			}
		}

		obj.Chunks[p.code] = p.u.partSize
		if p.code == "" {
			obj.Size = p.u.size
			continue
		}
		obj.Sizes = append(obj.Sizes, rpc.PhotoSize{Type: p.code, Size: p.u.size})
		if p.code == photoSizeCode {
			obj.Size = p.u.size
		}
	}

	if err := putObject(wb, obj); err != nil {
		return err
	}
	return wb.Flush()
}

// mintFileID encodes the id a client would use to fetch obj again. It only
// feeds the log; clients derive their own ids from the returned message.
func (s *Service) mintFileID(obj *object) string {
	var id fileid.Identifier
	if obj.Photo {
		id = fileid.NewPhoto(s.dcID, obj.ID, obj.AccessHash, 0, rune(photoSizeCode[0]), 0)
	} else {
		doc, err := fileid.NewDocument(fileid.TypeDocument, s.dcID, obj.ID, obj.AccessHash)
		if err != nil {
			return ""
		}
		id = doc
	}
	encoded, err := fileid.EncodeString(id)
	if err != nil {
		return ""
	}
	return encoded
}

func (s *Service) toDocument(obj *object) *rpc.Document {
	doc := &rpc.Document{
		ID:         obj.ID,
		AccessHash: obj.AccessHash,
		DCID:       s.dcID,
		Date:       obj.Date,
		MimeType:   obj.MimeType,
		Size:       obj.Size,
		Attributes: obj.Attributes,
	}
	doc.Thumbs = append(doc.Thumbs, obj.Sizes...)
	return doc
}

func (s *Service) toPhoto(obj *object) *rpc.Photo {
	return &rpc.Photo{
		ID:         obj.ID,
		AccessHash: obj.AccessHash,
		DCID:       s.dcID,
		Date:       obj.Date,
		Sizes:      append([]rpc.PhotoSize(nil), obj.Sizes...),
	}
}
