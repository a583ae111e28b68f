package client

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/rescp17/mediaTransfer/pkg/remote"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
	"github.com/rescp17/mediaTransfer/pkg/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newService(t *testing.T, opts ...remote.Option) *remote.Service {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc, err := remote.NewService(db, discard, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func testConfig() *transfer.TransferConfig {
	config := transfer.DefaultTransferConfig()
	config.DownloadChunkSize = 4096
	config.UploadPartSize = 1024
	config.BigFileThreshold = 4096
	return config
}

func content(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31) ^ seed
	}
	return b
}

type fixture struct {
	svc    *remote.Service
	fs     billy.Filesystem
	client *Client
}

func newFixture(t *testing.T, opts ...remote.Option) *fixture {
	t.Helper()

	svc := newService(t, opts...)
	fs := memfs.New()
	return &fixture{
		svc:    svc,
		fs:     fs,
		client: New(svc, fs, testConfig(), WithLogger(discard)),
	}
}

func (f *fixture) write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, util.WriteFile(f.fs, path, data, 0o644))
}

// download fetches media back into the fixture's filesystem and returns
// its bytes.
func (f *fixture) download(t *testing.T, media transfer.Media) []byte {
	t.Helper()

	d := transfer.NewDownloader(f.svc, f.fs, testConfig(),
		transfer.WithFreeSpace(nil), transfer.WithDownloadLogger(discard))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)
	defer d.Close()

	path, err := d.Download(context.Background(), transfer.DownloadRequest{Media: &media, FileName: "back/"})
	require.NoError(t, err)
	data, err := util.ReadFile(f.fs, path)
	require.NoError(t, err)
	return data
}

func TestClient_SendVideoNote(t *testing.T) {
	f := newFixture(t)
	data := content(5000, 1)
	f.write(t, "note.mp4", data)

	var last atomic.Int64
	msg, err := f.client.SendVideoNote(context.Background(), "me", "note.mp4", VideoNoteOptions{
		Duration: 12,
		Length:   240,
		Progress: func(current, total int64) { last.Store(current) },
	})
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.NotNil(t, msg.Document)

	doc := msg.Document
	assert.Equal(t, fileid.TypeVideoNote, doc.Kind)
	assert.Equal(t, int32(12), doc.Duration)
	assert.Equal(t, int32(240), doc.Width)
	assert.Equal(t, int32(240), doc.Height)
	assert.Equal(t, "video/mp4", doc.MimeType)
	assert.Equal(t, int64(len(data)), doc.FileSize)
	assert.Equal(t, int64(len(data)), last.Load())

	id, err := fileid.DecodeString(doc.FileID)
	require.NoError(t, err)
	assert.Equal(t, fileid.TypeVideoNote, id.Type())

	assert.Equal(t, data, f.download(t, doc.Media()))
}

func TestClient_SendAudioWithThumb(t *testing.T) {
	f := newFixture(t)
	audio := content(3000, 2)
	thumb := content(200, 3)
	f.write(t, "music/song.mp3", audio)
	f.write(t, "music/cover.jpg", thumb)

	msg, err := f.client.SendAudio(context.Background(), "me", "music/song.mp3", AudioOptions{
		Caption:   "listen",
		Duration:  180,
		Performer: "Band",
		Title:     "Song",
		Thumb:     "music/cover.jpg",
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Audio)
	assert.Equal(t, "listen", msg.Caption)

	a := msg.Audio
	assert.Equal(t, "song.mp3", a.FileName)
	assert.Equal(t, "Band", a.Performer)
	assert.Equal(t, "Song", a.Title)
	assert.Equal(t, int32(180), a.Duration)
	assert.Equal(t, "audio/mpeg", a.MimeType)
	assert.Equal(t, audio, f.download(t, a.Media()))

	require.Len(t, a.Thumbs, 1)
	id, err := fileid.DecodeString(a.Thumbs[0].FileID)
	require.NoError(t, err)
	assert.Equal(t, fileid.TypeDocumentThumbnail, id.Type())
	assert.Equal(t, thumb, f.download(t, transfer.Media{FileID: a.Thumbs[0].FileID, FileSize: a.Thumbs[0].FileSize}))
}

func TestClient_SendDocumentDetectsMimeType(t *testing.T) {
	f := newFixture(t)
	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, content(100, 4)...)
	f.write(t, "image.bin", png)

	msg, err := f.client.SendDocument(context.Background(), "me", "image.bin", DocumentOptions{FileName: "picture.png"})
	require.NoError(t, err)
	require.NotNil(t, msg.Document)
	assert.Equal(t, fileid.TypeDocument, msg.Document.Kind)
	assert.Equal(t, "image/png", msg.Document.MimeType)
	assert.Equal(t, "picture.png", msg.Document.FileName)
}

func TestClient_SendPhoto(t *testing.T) {
	f := newFixture(t)
	data := content(6000, 5)
	f.write(t, "shot.jpg", data)

	msg, err := f.client.SendPhoto(context.Background(), "me", "shot.jpg", "", nil)
	require.NoError(t, err)
	require.NotNil(t, msg.Photo)
	assert.Nil(t, msg.Document)

	id, err := fileid.DecodeString(msg.Photo.FileID)
	require.NoError(t, err)
	assert.Equal(t, fileid.TypePhoto, id.Type())
	assert.Equal(t, int64(len(data)), msg.Photo.FileSize)

	media, ok := msg.Media()
	require.True(t, ok)
	assert.Equal(t, data, f.download(t, media))
}

func TestClient_ResendByFileID(t *testing.T) {
	f := newFixture(t)
	f.write(t, "cat.webp", content(700, 6))

	first, err := f.client.SendSticker(context.Background(), "me", "cat.webp", StickerOptions{Emoji: "🐱"})
	require.NoError(t, err)
	require.NotNil(t, first.Sticker)
	assert.Equal(t, "🐱", first.Sticker.Emoji)
	assert.Equal(t, int32(defaultStickerSide), first.Sticker.Width)

	again, err := f.client.SendSticker(context.Background(), "chat", first.Sticker.FileID, StickerOptions{})
	require.NoError(t, err)
	require.NotNil(t, again.Sticker)
	assert.Equal(t, first.Sticker.FileID, again.Sticker.FileID)
	assert.Equal(t, "chat", again.Peer)
	assert.Greater(t, again.ID, first.ID)

	t.Run("wrong kind", func(t *testing.T) {
		_, err := f.client.SendAudio(context.Background(), "me", first.Sticker.FileID, AudioOptions{})
		assert.ErrorIs(t, err, transfer.ErrMediaTypeMismatch)
	})

	t.Run("unknown object", func(t *testing.T) {
		id, err := fileid.NewDocument(fileid.TypeSticker, 2, 12345, 678)
		require.NoError(t, err)
		encoded, err := fileid.EncodeString(id)
		require.NoError(t, err)

		_, err = f.client.SendSticker(context.Background(), "me", encoded, StickerOptions{})
		assert.ErrorIs(t, err, fileid.ErrInvalidIdentifier)
	})
}

func TestClient_SendMediaErrors(t *testing.T) {
	f := newFixture(t)
	f.write(t, "empty.mp4", nil)

	tests := []struct {
		name    string
		media   string
		wantErr error
	}{
		{"neither path nor file id", "missing.mp4", fileid.ErrInvalidIdentifier},
		{"empty file", "empty.mp4", transfer.ErrEmptyFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := f.client.SendVideoNote(context.Background(), "me", tt.media, VideoNoteOptions{})
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("no media", func(t *testing.T) {
		_, err := f.client.SendDocument(context.Background(), "me", "", DocumentOptions{})
		assert.Error(t, err)
	})
}

func TestClient_SendCancelled(t *testing.T) {
	f := newFixture(t)
	f.write(t, "doc.bin", content(3000, 7))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg, err := f.client.SendDocument(ctx, "me", "doc.bin", DocumentOptions{})
	assert.NoError(t, err)
	assert.Nil(t, msg)
}

func TestClient_SendResendsLostPart(t *testing.T) {
	var lost atomic.Bool
	f := newFixture(t, remote.WithPartLoss(func(_ int64, part int32) bool {
		return part == 1 && lost.CompareAndSwap(false, true)
	}))
	data := content(3500, 8)
	f.write(t, "doc.bin", data)

	msg, err := f.client.SendDocument(context.Background(), "me", "doc.bin", DocumentOptions{})
	require.NoError(t, err)
	require.NotNil(t, msg.Document)
	assert.True(t, lost.Load())
	assert.Equal(t, data, f.download(t, msg.Document.Media()))
}

func TestParseMessage(t *testing.T) {
	doc := func(attrs rpc.Attributes) *rpc.Message {
		return &rpc.Message{ID: 1, Document: &rpc.Document{ID: 10, AccessHash: 20, DCID: 2, Attributes: attrs}}
	}

	tests := []struct {
		name  string
		msg   *rpc.Message
		check func(t *testing.T, m *Message)
	}{
		{
			name: "sticker",
			msg:  doc(rpc.Attributes{Sticker: true, Width: 100, Height: 90}),
			check: func(t *testing.T, m *Message) {
				require.NotNil(t, m.Sticker)
				assert.Equal(t, int32(100), m.Sticker.Width)
				assert.False(t, m.Sticker.IsAnimated)
			},
		},
		{
			name: "animated sticker",
			msg: &rpc.Message{Document: &rpc.Document{
				ID: 1, MimeType: animatedStickerMimeType, Attributes: rpc.Attributes{Sticker: true},
			}},
			check: func(t *testing.T, m *Message) {
				require.NotNil(t, m.Sticker)
				assert.True(t, m.Sticker.IsAnimated)
				assert.Equal(t, int32(defaultStickerSide), m.Sticker.Height)
			},
		},
		{
			name: "audio",
			msg:  doc(rpc.Attributes{Audio: true, Title: "t"}),
			check: func(t *testing.T, m *Message) {
				require.NotNil(t, m.Audio)
				assert.Equal(t, "t", m.Audio.Title)
			},
		},
		{
			name: "voice",
			msg:  doc(rpc.Attributes{Audio: true, Voice: true}),
			check: func(t *testing.T, m *Message) {
				require.NotNil(t, m.Document)
				assert.Equal(t, fileid.TypeVoice, m.Document.Kind)
			},
		},
		{
			name: "video",
			msg:  doc(rpc.Attributes{Video: true}),
			check: func(t *testing.T, m *Message) {
				require.NotNil(t, m.Document)
				assert.Equal(t, fileid.TypeVideo, m.Document.Kind)
			},
		},
		{
			name: "no media",
			msg:  &rpc.Message{ID: 3, Caption: "hi"},
			check: func(t *testing.T, m *Message) {
				_, ok := m.Media()
				assert.False(t, ok)
				assert.Equal(t, "hi", m.Caption)
			},
		},
		{
			name: "photo thumbnails",
			msg: &rpc.Message{Photo: &rpc.Photo{ID: 5, AccessHash: 6, DCID: 4, Sizes: []rpc.PhotoSize{
				{Type: "s", Width: 90, Height: 90, Size: 10},
				{Type: "y", Width: 1280, Height: 960, Size: 1000},
			}}},
			check: func(t *testing.T, m *Message) {
				require.NotNil(t, m.Photo)
				assert.Equal(t, int32(1280), m.Photo.Width)
				assert.Equal(t, int64(1000), m.Photo.FileSize)

				id, err := fileid.DecodeString(m.Photo.FileID)
				require.NoError(t, err)
				photo, ok := id.(fileid.DocumentWithThumb)
				require.True(t, ok)
				assert.Equal(t, "y", photo.ThumbSizeCode())
				assert.Equal(t, int32(4), photo.DC())

				require.Len(t, m.Photo.Thumbs, 1)
				thumb, err := fileid.DecodeString(m.Photo.Thumbs[0].FileID)
				require.NoError(t, err)
				assert.Equal(t, fileid.TypePhotoThumbnail, thumb.Type())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMessage(tt.msg)
			require.NoError(t, err)
			tt.check(t, m)
		})
	}

	t.Run("photo without sizes", func(t *testing.T) {
		_, err := ParseMessage(&rpc.Message{Photo: &rpc.Photo{ID: 1}})
		assert.ErrorIs(t, err, ErrNoPhotoSizes)
	})
}
