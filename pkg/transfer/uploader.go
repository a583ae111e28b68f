package transfer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/rescp17/mediaTransfer/internal/util"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
)

// Uploader sends local files to the service in fixed-size parts. It holds
// no per-upload state and may be used by concurrent callers.
type Uploader struct {
	sender     rpc.Sender
	fs         billy.Filesystem
	config     *TransferConfig
	errHandler ErrorHandler
	log        *slog.Logger
}

type UploaderOption func(*Uploader)

func WithUploadLogger(log *slog.Logger) UploaderOption {
	return func(u *Uploader) { u.log = log }
}

func WithUploadErrorHandler(h ErrorHandler) UploaderOption {
	return func(u *Uploader) { u.errHandler = h }
}

// NewUploader creates an uploader reading from fs. A nil config uses
// DefaultTransferConfig.
func NewUploader(sender rpc.Sender, fs billy.Filesystem, config *TransferConfig, opts ...UploaderOption) *Uploader {
	if config == nil {
		config = DefaultTransferConfig()
	}
	u := &Uploader{
		sender: sender,
		fs:     fs,
		config: config,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.log = u.log.With("component", "uploader")
	if u.errHandler == nil {
		u.errHandler = NewDefaultErrorHandler(config.RetryPolicy, u.log)
	}
	return u
}

// SaveFile uploads every part of the file at path and returns the session
// together with the InputFile referencing it.
func (u *Uploader) SaveFile(ctx context.Context, path string, progress ProgressFunc) (*UploadSession, rpc.InputFile, error) {
	reader, err := NewPartReader(u.fs, path, u.config.UploadPartSize)
	if err != nil {
		return nil, rpc.InputFile{}, localIO("open", path, err)
	}
	defer reader.Close()

	size := reader.Size()
	switch {
	case size == 0:
		return nil, rpc.InputFile{}, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	case size > u.config.MaxUploadSize:
		return nil, rpc.InputFile{}, fmt.Errorf("%s is %s, limit is %s: %w",
			path, util.FormatSize(size), util.FormatSize(u.config.MaxUploadSize), ErrFileTooLarge)
	}

	session := newUploadSession(path, filepath.Base(path), size, u.config)

	var sum hash.Hash
	if !session.Big {
		sum = md5.New()
	}

	log := u.log.With("file_id", session.FileID, "path", path)
	log.Debug("Upload started", "size", size, "parts", session.TotalParts, "big", session.Big)

	var sent int64
	for {
		if ctx.Err() != nil {
			return nil, rpc.InputFile{}, ErrTransmissionCancelled
		}

		part, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, rpc.InputFile{}, localIO("read", path, err)
		}

		if err := u.sendPart(ctx, session, part); err != nil {
			if ctx.Err() != nil {
				return nil, rpc.InputFile{}, ErrTransmissionCancelled
			}
			return nil, rpc.InputFile{}, err
		}
		if sum != nil {
			sum.Write(part.Data)
		}

		sent += int64(len(part.Data))
		if progress != nil {
			progress(sent, size)
		}
	}

	if sum != nil {
		session.MD5 = hex.EncodeToString(sum.Sum(nil))
	}
	log.Debug("Upload finished")
	return session, session.InputFile(), nil
}

// ResendPart reads and sends exactly one part of an existing session.
func (u *Uploader) ResendPart(ctx context.Context, session *UploadSession, index int32) error {
	if index < 0 || index >= session.TotalParts {
		return fmt.Errorf("%w: part %d of %d", rpc.ErrFilePartInvalid, index, session.TotalParts)
	}

	reader, err := NewPartReader(u.fs, session.Path, session.PartSize)
	if err != nil {
		return localIO("open", session.Path, err)
	}
	defer reader.Close()

	if reader.Size() != session.Size {
		return localIO("read", session.Path, fmt.Errorf("file changed size from %d to %d during upload",
			session.Size, reader.Size()))
	}

	part, err := reader.Part(index)
	if err != nil {
		return localIO("read", session.Path, err)
	}
	return u.sendPart(ctx, session, part)
}

// Send uploads the file at path and sends the request built around it. A
// missing part reported by the service is resent on its own before the
// request is retried. Send returns a nil response and nil error when ctx is
// cancelled.
func (u *Uploader) Send(ctx context.Context, path string, build func(rpc.InputFile) rpc.Request, progress ProgressFunc) (rpc.Response, error) {
	session, file, err := u.SaveFile(ctx, path, progress)
	if err != nil {
		if errors.Is(err, ErrTransmissionCancelled) {
			return nil, nil
		}
		return nil, err
	}
	return u.Commit(ctx, session, build(file))
}

// Commit sends req, which references the parts of session, and keeps
// resending missing parts until the service accepts it or the retry policy
// gives up.
func (u *Uploader) Commit(ctx context.Context, session *UploadSession, req rpc.Request) (rpc.Response, error) {
	target := fmt.Sprintf("%s(%d)", req.Method(), session.FileID)

	for retries := 0; ; retries++ {
		if ctx.Err() != nil {
			return nil, nil
		}

		resp, err := u.sender.Send(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, nil
		}

		var missing *rpc.MissingPartError
		if !errors.As(err, &missing) {
			return nil, translateServiceError(err)
		}

		action := u.errHandler.HandleError(target, err, retries)
		u.errHandler.LogError(target, err, action, retries)
		switch action {
		case ErrorActionRetry:
		case ErrorActionCancel:
			return nil, nil
		default:
			return nil, fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
		}

		if err := u.wait(ctx, u.errHandler.GetRetryDelay(retries)); err != nil {
			return nil, nil
		}
		if err := u.ResendPart(ctx, session, missing.Part); err != nil {
			if ctx.Err() != nil {
				return nil, nil
			}
			return nil, err
		}
		session.Resent++
	}
}

func (u *Uploader) sendPart(ctx context.Context, session *UploadSession, part *Part) error {
	var req rpc.Request
	if session.Big {
		req = &rpc.SaveBigFilePart{
			FileID:         session.FileID,
			FilePart:       part.Index,
			FileTotalParts: session.TotalParts,
			Bytes:          part.Data,
		}
	} else {
		req = &rpc.SaveFilePart{
			FileID:   session.FileID,
			FilePart: part.Index,
			Bytes:    part.Data,
		}
	}

	session.recordSend(part.Index)
	resp, err := u.sender.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("part %d: %w", part.Index, err)
	}
	if ok, _ := resp.(bool); !ok {
		return fmt.Errorf("part %d: %w", part.Index, ErrPartRejected)
	}
	session.markAcked(part.Index)
	return nil
}

func (u *Uploader) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
