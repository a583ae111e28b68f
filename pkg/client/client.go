// Package client sends media messages. Local files are uploaded first;
// anything else is taken as the file id of an object the service already
// stores.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/rescp17/mediaTransfer/pkg/fileInfo"
	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
	"github.com/rescp17/mediaTransfer/pkg/transfer"
)

// Client sends media to peers through sender. It is safe for concurrent
// use.
type Client struct {
	sender   rpc.Sender
	fs       billy.Filesystem
	uploader *transfer.Uploader
	log      *slog.Logger
}

type Option func(*Client)

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client reading local files from fs. A nil config uses
// transfer.DefaultTransferConfig.
func New(sender rpc.Sender, fs billy.Filesystem, config *transfer.TransferConfig, opts ...Option) *Client {
	c := &Client{
		sender: sender,
		fs:     fs,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.uploader = transfer.NewUploader(sender, fs, config, transfer.WithUploadLogger(c.log))
	c.log = c.log.With("component", "client")
	return c
}

// MediaInput is one piece of media to send.
type MediaInput struct {
	Kind fileid.MediaType
	// Media is a local path or a file id.
	Media string
	// Thumb is a local path. Thumbnails are always uploaded anew.
	Thumb string
	// MimeType overrides the type detected from the file's content.
	MimeType   string
	Caption    string
	Attributes rpc.Attributes
	Progress   transfer.ProgressFunc
}

// SendMedia sends in to peer and returns the message the service created.
// It returns nil and no error when ctx is cancelled during the upload.
func (c *Client) SendMedia(ctx context.Context, peer string, in MediaInput) (*Message, error) {
	local, err := c.isLocal(in.Media)
	if err != nil {
		return nil, err
	}

	var resp rpc.Response
	if local {
		resp, err = c.sendUpload(ctx, peer, in)
	} else {
		resp, err = c.sendExisting(ctx, peer, in)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		c.log.Info("Send cancelled", "peer", peer, "media", in.Media)
		return nil, nil
	}

	msg, ok := resp.(*rpc.Message)
	if !ok {
		return nil, fmt.Errorf("unexpected SendMedia response %T", resp)
	}
	return ParseMessage(msg)
}

func (c *Client) sendUpload(ctx context.Context, peer string, in MediaInput) (rpc.Response, error) {
	var thumb *rpc.InputFile
	if in.Thumb != "" {
		_, file, err := c.uploader.SaveFile(ctx, in.Thumb, nil)
		if err != nil {
			if errors.Is(err, transfer.ErrTransmissionCancelled) {
				return nil, nil
			}
			return nil, fmt.Errorf("upload thumbnail: %w", err)
		}
		thumb = &file
	}

	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = c.guessMimeType(in.Media, in.Kind)
	}

	build := func(file rpc.InputFile) rpc.Request {
		var media rpc.InputMedia
		if in.Kind == fileid.TypePhoto {
			media = rpc.InputMediaUploadedPhoto{File: file}
		} else {
			media = rpc.InputMediaUploadedDocument{
				File:       file,
				Thumb:      thumb,
				MimeType:   mimeType,
				Attributes: in.Attributes,
			}
		}
		return &rpc.SendMedia{
			Peer:     peer,
			Media:    media,
			Message:  in.Caption,
			RandomID: rand.Int64(),
		}
	}
	return c.uploader.Send(ctx, in.Media, build, in.Progress)
}

func (c *Client) sendExisting(ctx context.Context, peer string, in MediaInput) (rpc.Response, error) {
	media, err := transfer.InputMediaFromFileID(in.Media, nil, in.Kind)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a local file nor a usable file id: %w", in.Media, err)
	}

	resp, err := c.sender.Send(ctx, &rpc.SendMedia{
		Peer:     peer,
		Media:    media,
		Message:  in.Caption,
		RandomID: rand.Int64(),
	})
	if err != nil {
		if errors.Is(err, rpc.ErrFileIDInvalid) {
			return nil, fmt.Errorf("%w: %w", fileid.ErrInvalidIdentifier, err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) isLocal(p string) (bool, error) {
	if p == "" {
		return false, errors.New("no media given")
	}
	if _, err := c.fs.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &transfer.LocalIOError{Op: "stat", Path: p, Err: err}
	}
	return true, nil
}

// guessMimeType sniffs the file's content and falls back to the usual
// type for kind.
func (c *Client) guessMimeType(p string, kind fileid.MediaType) string {
	node, err := fileInfo.CreateNode(c.fs, p)
	if err == nil && node.MimeType != "" && node.MimeType != fallbackMimeType {
		return node.MimeType
	}
	if m, ok := defaultMimeTypes[kind]; ok {
		return m
	}
	return fallbackMimeType
}

const fallbackMimeType = "application/octet-stream"

var defaultMimeTypes = map[fileid.MediaType]string{
	fileid.TypeVideoNote: "video/mp4",
	fileid.TypeVideo:     "video/mp4",
	fileid.TypeAnimation: "video/mp4",
	fileid.TypeAudio:     "audio/mpeg",
	fileid.TypeVoice:     "audio/ogg",
	fileid.TypeSticker:   "image/webp",
	fileid.TypePhoto:     "image/jpeg",
}
