package transfer

import (
	"math/rand/v2"
	"slices"

	"github.com/rescp17/mediaTransfer/pkg/rpc"
	"github.com/samber/lo"
)

// UploadSession tracks one upload from its first part until the request
// referencing it succeeds or fails. It belongs to a single caller.
type UploadSession struct {
	// FileID is the random id all parts are uploaded under.
	FileID     int64
	Path       string
	Name       string
	Size       int64
	PartSize   int32
	TotalParts int32
	Big        bool
	// MD5 is the hex checksum of a small file, empty for big files.
	MD5 string
	// Resent counts parts sent again after the service reported them
	// missing.
	Resent int

	acked map[int32]struct{}
	sends map[int32]int
}

func newUploadSession(path, name string, size int64, config *TransferConfig) *UploadSession {
	return &UploadSession{
		FileID:     rand.Int64(),
		Path:       path,
		Name:       name,
		Size:       size,
		PartSize:   config.UploadPartSize,
		TotalParts: config.PartsFor(size),
		Big:        config.IsBigFile(size),
		acked:      make(map[int32]struct{}),
		sends:      make(map[int32]int),
	}
}

// InputFile references the uploaded parts in a SendMedia call.
func (s *UploadSession) InputFile() rpc.InputFile {
	return rpc.InputFile{
		ID:          s.FileID,
		Parts:       s.TotalParts,
		Name:        s.Name,
		MD5Checksum: s.MD5,
		Big:         s.Big,
	}
}

func (s *UploadSession) recordSend(part int32) {
	s.sends[part]++
}

func (s *UploadSession) markAcked(part int32) {
	s.acked[part] = struct{}{}
}

// Acked reports whether the service acknowledged the part.
func (s *UploadSession) Acked(part int32) bool {
	_, ok := s.acked[part]
	return ok
}

// AckedParts returns the acknowledged part indices in ascending order.
func (s *UploadSession) AckedParts() []int32 {
	parts := lo.Keys(s.acked)
	slices.Sort(parts)
	return parts
}

// Complete reports whether every part has been acknowledged.
func (s *UploadSession) Complete() bool {
	return int32(len(s.acked)) == s.TotalParts
}

// Sends returns how many times the part was sent, resends included.
func (s *UploadSession) Sends(part int32) int {
	return s.sends[part]
}
