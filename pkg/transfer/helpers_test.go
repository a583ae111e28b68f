package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	billyutil "github.com/go-git/go-billy/v5/util"
	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
	"github.com/stretchr/testify/require"
)

// fakeService is an in-memory stand-in for the remote media service.
type fakeService struct {
	mu sync.Mutex

	objects map[int64][]byte
	// fetched records the object id of every first-chunk request in order.
	fetched []int64
	getErr  map[int64]error
	// gate, when set, makes each GetFile wait for a value or ctx.
	gate    chan struct{}
	started chan int64

	parts     map[int64]map[int32][]byte
	partSends map[int32]int
	rejectAll bool
	// missing parts are reported by SendMedia one at a time, once each.
	missing      []int32
	alwaysMiss   *int32
	sendMediaErr error
	sendMedia    int
	beforeCommit func()
}

func newFakeService() *fakeService {
	return &fakeService{
		objects:   make(map[int64][]byte),
		getErr:    make(map[int64]error),
		parts:     make(map[int64]map[int32][]byte),
		partSends: make(map[int32]int),
	}
}

func (f *fakeService) Send(ctx context.Context, req rpc.Request) (rpc.Response, error) {
	switch r := req.(type) {
	case *rpc.GetFile:
		return f.getFile(ctx, r)
	case *rpc.SaveFilePart:
		return f.savePart(r.FileID, r.FilePart, r.Bytes)
	case *rpc.SaveBigFilePart:
		return f.savePart(r.FileID, r.FilePart, r.Bytes)
	case *rpc.SendMedia:
		return f.sendMediaCall(r)
	default:
		return nil, fmt.Errorf("unexpected request %T", req)
	}
}

func (f *fakeService) getFile(ctx context.Context, r *rpc.GetFile) (rpc.Response, error) {
	id := locationID(r.Location)
	if r.Offset == 0 {
		f.mu.Lock()
		f.fetched = append(f.fetched, id)
		f.mu.Unlock()
		if f.started != nil {
			f.started <- id
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// With data present the error hits after the first chunk.
	if err := f.getErr[id]; err != nil && (r.Offset > 0 || len(f.objects[id]) == 0) {
		return nil, err
	}
	data, ok := f.objects[id]
	if !ok {
		return nil, rpc.ErrFileIDInvalid
	}
	if r.Offset >= int64(len(data)) {
		return &rpc.File{}, nil
	}
	end := min(r.Offset+int64(r.Limit), int64(len(data)))
	return &rpc.File{Bytes: append([]byte(nil), data[r.Offset:end]...)}, nil
}

func (f *fakeService) savePart(fileID int64, part int32, data []byte) (rpc.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.partSends[part]++
	if f.rejectAll {
		return false, nil
	}
	if f.parts[fileID] == nil {
		f.parts[fileID] = make(map[int32][]byte)
	}
	f.parts[fileID][part] = append([]byte(nil), data...)
	return true, nil
}

func (f *fakeService) sendMediaCall(r *rpc.SendMedia) (rpc.Response, error) {
	if f.beforeCommit != nil {
		f.beforeCommit()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.sendMedia++
	if f.sendMediaErr != nil {
		return nil, f.sendMediaErr
	}
	if f.alwaysMiss != nil {
		return nil, &rpc.MissingPartError{Part: *f.alwaysMiss}
	}
	if len(f.missing) > 0 {
		part := f.missing[0]
		f.missing = f.missing[1:]
		return nil, &rpc.MissingPartError{Part: part}
	}
	return &rpc.Message{ID: int64(f.sendMedia), Caption: r.Message}, nil
}

func (f *fakeService) fetchedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.fetched...)
}

func (f *fakeService) sendsOf(part int32) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.partSends[part]
}

func locationID(loc rpc.FileLocation) int64 {
	switch l := loc.(type) {
	case rpc.DocumentLocation:
		return l.ID
	case rpc.PhotoLocation:
		return l.ID
	case rpc.PeerPhotoLocation:
		return l.VolumeID
	default:
		return -1
	}
}

func documentFileID(t testing.TB, kind fileid.MediaType, id int64) string {
	t.Helper()

	doc, err := fileid.NewDocument(kind, 2, id, id*7)
	require.NoError(t, err)
	s, err := fileid.EncodeString(doc)
	require.NoError(t, err)
	return s
}

func photoFileID(t testing.TB, id int64) string {
	t.Helper()

	s, err := fileid.EncodeString(fileid.NewPhoto(2, id, id*7, 99, 'x', 5))
	require.NoError(t, err)
	return s
}

func testConfig() *TransferConfig {
	config := DefaultTransferConfig()
	config.DownloadChunkSize = 4096
	config.UploadPartSize = 1024
	config.BigFileThreshold = 4096
	config.MaxUploadSize = 64 * 1024
	return config
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t testing.TB, fs billy.Filesystem, path string, data []byte) {
	t.Helper()
	require.NoError(t, billyutil.WriteFile(fs, path, data, 0o644))
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

// startDownloader runs a downloader over an in-memory filesystem until the
// test ends.
func startDownloader(t *testing.T, svc rpc.Sender, opts ...DownloaderOption) (*Downloader, billy.Filesystem) {
	t.Helper()

	fs := memfs.New()
	opts = append([]DownloaderOption{WithDownloadLogger(discardLogger()), WithFreeSpace(nil)}, opts...)
	d := NewDownloader(svc, fs, testConfig(), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		_ = d.Close()
		err := <-done
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	})
	return d, fs
}
