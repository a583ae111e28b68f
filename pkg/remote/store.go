package remote

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
)

// Key layout:
//
//	part:<file id>:<part>              uploaded part, moved on commit
//	obj:<object id>                    object metadata
//	data:<object id>:<size>:<chunk>    object bytes; size is empty for a document body
//	peer:<volume>:<local id>           peer photo bytes
//
// Stored bytes keep the chunking of the upload so that no transaction has
// to hold a whole file.
const (
	partPrefix   = "part:"
	objectPrefix = "obj:"
	dataPrefix   = "data:"
	peerPrefix   = "peer:"
	messageSeq   = "seq:message"
)

// object is what the service remembers about a stored document or photo.
type object struct {
	ID         int64           `json:"id"`
	AccessHash int64           `json:"access_hash"`
	Photo      bool            `json:"photo"`
	MimeType   string          `json:"mime_type"`
	Size       int64           `json:"size"`
	Date       int64           `json:"date"`
	Sizes      []rpc.PhotoSize `json:"sizes,omitempty"`
	Attributes rpc.Attributes  `json:"attributes"`
	// Chunks maps a size code to the chunk size its bytes are stored in.
	Chunks map[string]int64 `json:"chunks"`
}

// sizeOf returns the byte length stored under a size code.
func (o *object) sizeOf(code string) (int64, bool) {
	if code == "" && !o.Photo {
		return o.Size, true
	}
	for _, s := range o.Sizes {
		if s.Type == code {
			return s.Size, true
		}
	}
	return 0, false
}

// upload summarises the parts of an InputFile after they were checked.
type upload struct {
	size     int64
	partSize int64
	md5      string
}

func partKey(fileID int64, part int32) []byte {
	return fmt.Appendf(nil, "%s%016x:%08d", partPrefix, uint64(fileID), part)
}

func objectKey(id int64) []byte {
	return fmt.Appendf(nil, "%s%016x", objectPrefix, uint64(id))
}

func dataKey(id int64, size string, chunk int64) []byte {
	return fmt.Appendf(nil, "%s%016x:%s:%08d", dataPrefix, uint64(id), size, chunk)
}

func peerKey(volumeID int64, localID int32) []byte {
	return fmt.Appendf(nil, "%s%016x:%d", peerPrefix, uint64(volumeID), localID)
}

func getObject(txn *badger.Txn, id int64) (*object, error) {
	item, err := txn.Get(objectKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, rpc.ErrFileIDInvalid
	}
	if err != nil {
		return nil, err
	}

	var obj object
	err = item.Value(func(v []byte) error {
		return json.Unmarshal(v, &obj)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal object: %w", err)
	}
	return &obj, nil
}

// putObject queues obj's metadata on wb.
func putObject(wb *badger.WriteBatch, obj *object) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return wb.Set(objectKey(obj.ID), data)
}

// inspect checks that every part of file is present and that all parts
// but the last have the same size. The first absent part is reported as
// missing.
func inspect(txn *badger.Txn, file rpc.InputFile) (upload, error) {
	if file.Parts <= 0 {
		return upload{}, rpc.ErrFilePartInvalid
	}

	var (
		u      upload
		hasher = md5.New()
	)
	for i := range file.Parts {
		item, err := txn.Get(partKey(file.ID, i))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return upload{}, &rpc.MissingPartError{Part: i}
		}
		if err != nil {
			return upload{}, err
		}

		n := item.ValueSize()
		switch {
		case i == 0:
			u.partSize = n
		case n > u.partSize, i < file.Parts-1 && n != u.partSize:
			return upload{}, rpc.ErrFilePartInvalid
		}
		u.size += n

		if !file.Big {
			if err := item.Value(func(v []byte) error {
				_, err := hasher.Write(v)
				return err
			}); err != nil {
				return upload{}, err
			}
		}
	}
	if !file.Big {
		u.md5 = hex.EncodeToString(hasher.Sum(nil))
	}
	return u, nil
}

// readRange returns up to limit bytes from offset of a value stored in
// chunks of chunkSize bytes.
func readRange(txn *badger.Txn, id int64, code string, chunkSize, size, offset int64, limit int32) ([]byte, error) {
	if offset >= size {
		return nil, nil
	}
	end := min(offset+int64(limit), size)
	out := make([]byte, 0, end-offset)

	for pos := offset; pos < end; {
		chunk := pos / chunkSize
		item, err := txn.Get(dataKey(id, code, chunk))
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk, err)
		}
		start := pos - chunk*chunkSize
		stop := min(end-chunk*chunkSize, chunkSize)
		if err := item.Value(func(v []byte) error {
			if stop > int64(len(v)) {
				return fmt.Errorf("chunk %d is short", chunk)
			}
			out = append(out, v[start:stop]...)
			return nil
		}); err != nil {
			return nil, err
		}
		pos = chunk*chunkSize + stop
	}
	return out, nil
}
