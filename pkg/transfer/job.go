package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rescp17/mediaTransfer/pkg/fileid"
)

// Job is one download unit. It is created once per request, owned by the
// queue until dequeued and by the worker afterwards.
type Job struct {
	ID         string
	FileID     string
	Identifier fileid.Identifier

	// Attributes declared by the media object, zero when unknown.
	FileName      string
	MimeType      string
	DeclaredSize  int64
	DeclaredDate  time.Time
	FileReference []byte

	// Destination as requested by the caller, before resolution.
	Directory string
	Name      string

	Progress ProgressFunc

	ctx    context.Context
	cancel context.CancelCauseFunc
	epoch  uint64
	handle *Handle
}

func newJob(ctx context.Context, req DownloadRequest) (*Job, error) {
	fileID := req.FileID
	var media Media
	switch {
	case req.Media != nil && fileID != "":
		return nil, errors.New("download request has both a file id and a media object")
	case req.Media != nil:
		media = *req.Media
		fileID = media.FileID
	case fileID == "":
		return nil, errors.New("download request has neither a file id nor a media object")
	}

	id, err := fileid.DecodeString(fileID)
	if err != nil {
		return nil, fmt.Errorf("decode file id: %w", err)
	}

	dir, name := splitRequestPath(req.FileName)

	jobCtx, cancel := context.WithCancelCause(ctx)
	job := &Job{
		ID:            uuid.NewString(),
		FileID:        fileID,
		Identifier:    id,
		FileName:      media.FileName,
		MimeType:      media.MimeType,
		DeclaredSize:  media.FileSize,
		DeclaredDate:  media.Date,
		FileReference: media.FileReference,
		Directory:     dir,
		Name:          name,
		Progress:      req.Progress,
		ctx:           jobCtx,
		cancel:        cancel,
	}
	job.handle = newHandle(job.ID, cancel)
	return job, nil
}

// Kind is the media type encoded in the job's file id.
func (j *Job) Kind() fileid.MediaType {
	return j.Identifier.Type()
}

func (j *Job) status() JobStatus {
	return JobStatus{
		ID:         j.ID,
		FileID:     j.FileID,
		Kind:       j.Kind(),
		TotalBytes: j.DeclaredSize,
	}
}

func (j *Job) reportProgress(offset int64) {
	if j.Progress == nil {
		return
	}
	current := offset
	if j.DeclaredSize > 0 {
		current = min(offset, j.DeclaredSize)
	}
	j.Progress(current, j.DeclaredSize)
}
