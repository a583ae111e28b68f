package client

import (
	"context"
	"path"

	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
	"github.com/rescp17/mediaTransfer/pkg/transfer"
)

type VideoNoteOptions struct {
	// Duration in seconds.
	Duration int32
	// Length is the width and height of the round video. Zero means 1.
	Length   int32
	Thumb    string
	Progress transfer.ProgressFunc
}

// SendVideoNote sends a round video message.
func (c *Client) SendVideoNote(ctx context.Context, peer, videoNote string, opts VideoNoteOptions) (*Message, error) {
	length := opts.Length
	if length == 0 {
		length = 1
	}
	return c.SendMedia(ctx, peer, MediaInput{
		Kind:  fileid.TypeVideoNote,
		Media: videoNote,
		Thumb: opts.Thumb,
		Attributes: rpc.Attributes{
			Video:    true,
			Round:    true,
			Duration: opts.Duration,
			Width:    length,
			Height:   length,
		},
		Progress: opts.Progress,
	})
}

type AudioOptions struct {
	Caption   string
	Duration  int32
	Performer string
	Title     string
	Thumb     string
	Progress  transfer.ProgressFunc
}

// SendAudio sends a music file.
func (c *Client) SendAudio(ctx context.Context, peer, audio string, opts AudioOptions) (*Message, error) {
	return c.SendMedia(ctx, peer, MediaInput{
		Kind:    fileid.TypeAudio,
		Media:   audio,
		Thumb:   opts.Thumb,
		Caption: opts.Caption,
		Attributes: rpc.Attributes{
			Audio:     true,
			Duration:  opts.Duration,
			Performer: opts.Performer,
			Title:     opts.Title,
			FileName:  path.Base(audio),
		},
		Progress: opts.Progress,
	})
}

type DocumentOptions struct {
	Caption string
	// FileName replaces the name of the uploaded file.
	FileName string
	Thumb    string
	Progress transfer.ProgressFunc
}

// SendDocument sends a general file.
func (c *Client) SendDocument(ctx context.Context, peer, document string, opts DocumentOptions) (*Message, error) {
	name := opts.FileName
	if name == "" {
		name = path.Base(document)
	}
	return c.SendMedia(ctx, peer, MediaInput{
		Kind:       fileid.TypeDocument,
		Media:      document,
		Thumb:      opts.Thumb,
		Caption:    opts.Caption,
		Attributes: rpc.Attributes{FileName: name},
		Progress:   opts.Progress,
	})
}

type StickerOptions struct {
	Emoji    string
	Progress transfer.ProgressFunc
}

// SendSticker sends a .webp sticker.
func (c *Client) SendSticker(ctx context.Context, peer, sticker string, opts StickerOptions) (*Message, error) {
	return c.SendMedia(ctx, peer, MediaInput{
		Kind:  fileid.TypeSticker,
		Media: sticker,
		Attributes: rpc.Attributes{
			Sticker:  true,
			Emoji:    opts.Emoji,
			FileName: path.Base(sticker),
		},
		Progress: opts.Progress,
	})
}

// SendPhoto sends an image as a photo.
func (c *Client) SendPhoto(ctx context.Context, peer, photo, caption string, progress transfer.ProgressFunc) (*Message, error) {
	return c.SendMedia(ctx, peer, MediaInput{
		Kind:     fileid.TypePhoto,
		Media:    photo,
		Caption:  caption,
		Progress: progress,
	})
}
