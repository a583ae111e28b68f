package transfer

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"
)

// Part is one fixed-size slice of an uploaded file.
type Part struct {
	Index  int32
	Offset int64
	Data   []byte
	IsLast bool
}

// PartReader reads a file part by part. Parts can be read in any order,
// which is what resending a missing part needs.
type PartReader struct {
	file       billy.File
	partSize   int32
	size       int64
	totalParts int32
	next       int32
}

var ErrIsDir = errors.New("cannot upload a directory")

func NewPartReader(fs billy.Filesystem, path string, partSize int32) (*PartReader, error) {
	if partSize <= 0 {
		return nil, fmt.Errorf("part size must be positive, got %d", partSize)
	}
	info, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrIsDir
	}
	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}

	size := info.Size()
	return &PartReader{
		file:       file,
		partSize:   partSize,
		size:       size,
		totalParts: int32((size + int64(partSize) - 1) / int64(partSize)),
	}, nil
}

func (r *PartReader) Size() int64 {
	return r.size
}

func (r *PartReader) TotalParts() int32 {
	return r.totalParts
}

// Part reads the part with the given index.
func (r *PartReader) Part(index int32) (*Part, error) {
	if index < 0 || index >= r.totalParts {
		return nil, fmt.Errorf("part %d out of range [0, %d)", index, r.totalParts)
	}

	offset := int64(index) * int64(r.partSize)
	length := min(int64(r.partSize), r.size-offset)
	data := make([]byte, length)

	n, err := r.file.ReadAt(data, offset)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == length) {
		return nil, err
	}

	return &Part{
		Index:  index,
		Offset: offset,
		Data:   data,
		IsLast: index == r.totalParts-1,
	}, nil
}

// Next returns the parts in order, then io.EOF.
func (r *PartReader) Next() (*Part, error) {
	if r.next >= r.totalParts {
		return nil, io.EOF
	}
	part, err := r.Part(r.next)
	if err != nil {
		return nil, err
	}
	r.next++
	return part, nil
}

func (r *PartReader) Close() error {
	return r.file.Close()
}
