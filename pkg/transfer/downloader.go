package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/rescp17/mediaTransfer/internal/util"
	"github.com/rescp17/mediaTransfer/pkg/concurrency"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
)

// Downloader fetches remote objects into the local filesystem. Requests
// are queued in FIFO order and served by a single worker started with Run.
type Downloader struct {
	sender     rpc.Sender
	fs         billy.Filesystem
	config     *TransferConfig
	registry   *JobRegistry
	errHandler ErrorHandler
	log        *slog.Logger
	freeSpace  FreeSpaceFunc
	now        func() time.Time
	prune      bool

	guard *concurrency.Guard
	queue *jobQueue

	// mu guards stopEpoch and current. Jobs carry the epoch they were
	// queued in; a job older than stopEpoch is not started.
	mu        sync.Mutex
	stopEpoch uint64
	current   *Job
}

type DownloaderOption func(*Downloader)

func WithDownloadLogger(log *slog.Logger) DownloaderOption {
	return func(d *Downloader) { d.log = log }
}

func WithRegistry(r *JobRegistry) DownloaderOption {
	return func(d *Downloader) { d.registry = r }
}

func WithDownloadErrorHandler(h ErrorHandler) DownloaderOption {
	return func(d *Downloader) { d.errHandler = h }
}

// WithFreeSpace replaces the free space check. nil disables it.
func WithFreeSpace(fn FreeSpaceFunc) DownloaderOption {
	return func(d *Downloader) { d.freeSpace = fn }
}

func WithClock(now func() time.Time) DownloaderOption {
	return func(d *Downloader) { d.now = now }
}

// WithPruneFinished removes jobs from the registry once they reach a
// terminal state. Subscribers still receive the final status; Get and List
// no longer return it. Without it, finished jobs stay until Registry().Remove.
func WithPruneFinished() DownloaderOption {
	return func(d *Downloader) { d.prune = true }
}

// NewDownloader creates a downloader writing into fs. A nil config uses
// DefaultTransferConfig.
func NewDownloader(sender rpc.Sender, fs billy.Filesystem, config *TransferConfig, opts ...DownloaderOption) *Downloader {
	if config == nil {
		config = DefaultTransferConfig()
	}
	d := &Downloader{
		sender:    sender,
		fs:        fs,
		config:    config,
		log:       slog.Default(),
		freeSpace: DiskFreeSpace,
		now:       time.Now,
		guard:     concurrency.NewGuard(),
		queue:     newJobQueue(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("component", "downloader")
	if d.registry == nil {
		d.registry = NewJobRegistry(config.EventBufferSize, d.log)
	}
	if d.errHandler == nil {
		d.errHandler = NewDefaultErrorHandler(config.RetryPolicy, d.log)
	}
	return d
}

// Registry returns the registry tracking this downloader's jobs. Finished
// jobs are kept unless WithPruneFinished is set.
func (d *Downloader) Registry() *JobRegistry {
	return d.registry
}

// Pending returns the number of jobs waiting in the queue.
func (d *Downloader) Pending() int {
	return d.queue.size()
}

// Enqueue queues a download and returns without waiting for it. Invalid
// file ids are reported here. Cancelling ctx cancels the job.
func (d *Downloader) Enqueue(ctx context.Context, req DownloadRequest) (*Handle, error) {
	job, err := newJob(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := d.registry.Register(job.status()); err != nil {
		job.cancel(nil)
		return nil, err
	}

	d.mu.Lock()
	job.epoch = d.stopEpoch
	err = d.queue.push(job)
	d.mu.Unlock()
	if err != nil {
		d.finish(job, JobStateQueued, Result{State: JobStateCancelled})
		return nil, ErrDownloaderClosed
	}

	context.AfterFunc(job.ctx, func() { d.cancelQueued(job) })

	d.log.Debug("Job queued", "job", job.ID, "kind", job.Kind().String())
	return job.handle, nil
}

// Download queues a download and blocks until it finishes. It returns the
// destination path, or an empty path and nil error when the job was
// cancelled.
func (d *Downloader) Download(ctx context.Context, req DownloadRequest) (string, error) {
	h, err := d.Enqueue(ctx, req)
	if err != nil {
		return "", err
	}
	<-h.Done()
	return h.outcome()
}

// Run serves the queue until ctx is done or Close is called. Only one Run
// may be active; a second one fails with concurrency.ErrBusy.
//
// When ctx is done the running job and every queued one are resolved as
// cancelled. Jobs enqueued after Run returns wait for the next Run or for
// Close.
func (d *Downloader) Run(ctx context.Context) error {
	return d.guard.Execute(func() error {
		d.log.Info("Download worker started")
		defer d.log.Info("Download worker stopped")

		for {
			job, err := d.queue.pop(ctx)
			if err != nil {
				if errors.Is(err, errQueueClosed) {
					return nil
				}
				d.cancelPending()
				return err
			}
			if ctx.Err() != nil {
				d.finish(job, JobStateQueued, Result{State: JobStateCancelled})
				continue
			}
			d.process(ctx, job)
		}
	})
}

// StopTransmission cancels the running job and every job queued before
// the call. Jobs queued afterwards are served normally.
func (d *Downloader) StopTransmission() {
	d.mu.Lock()
	d.stopEpoch++
	current := d.current
	queued := d.queue.snapshot()
	d.mu.Unlock()

	if current != nil {
		current.cancel(ErrTransmissionCancelled)
	}
	for _, job := range queued {
		job.cancel(ErrTransmissionCancelled)
	}
	d.log.Info("Transmission stopped", "queued", len(queued), "running", current != nil)
}

// Close cancels all queued and running jobs and makes Run return.
func (d *Downloader) Close() error {
	rest := d.queue.close()
	for _, job := range rest {
		d.finish(job, JobStateQueued, Result{State: JobStateCancelled})
	}

	d.mu.Lock()
	current := d.current
	d.mu.Unlock()
	if current != nil {
		current.cancel(ErrTransmissionCancelled)
	}
	return nil
}

func (d *Downloader) cancelPending() {
	for _, job := range d.queue.take() {
		d.finish(job, JobStateQueued, Result{State: JobStateCancelled})
	}
}

func (d *Downloader) cancelQueued(job *Job) {
	if d.finish(job, JobStateQueued, Result{State: JobStateCancelled}) {
		d.log.Debug("Queued job cancelled", "job", job.ID)
	}
}

// finish moves job from state from to the result's terminal state and
// resolves its handle. It reports false when another path got there first.
func (d *Downloader) finish(job *Job, from JobState, result Result) bool {
	err := d.registry.Transition(job.ID, from, result.State, func(s *JobStatus) {
		s.Path = result.Path
		s.Err = result.Err
	})
	if err != nil {
		return false
	}
	if d.prune {
		_ = d.registry.Remove(job.ID)
	}
	job.handle.resolve(result)
	job.cancel(nil)
	return true
}

func (d *Downloader) process(ctx context.Context, job *Job) {
	d.mu.Lock()
	stopped := job.epoch < d.stopEpoch
	if !stopped {
		d.current = job
	}
	d.mu.Unlock()

	if stopped {
		d.finish(job, JobStateQueued, Result{State: JobStateCancelled})
		return
	}
	defer func() {
		d.mu.Lock()
		d.current = nil
		d.mu.Unlock()
	}()

	if err := d.registry.Transition(job.ID, JobStateQueued, JobStateInProgress, nil); err != nil {
		// Cancelled while it was queued.
		return
	}

	runCtx, stop := context.WithCancelCause(job.ctx)
	defer stop(nil)
	unlink := context.AfterFunc(ctx, func() { stop(ErrTransmissionCancelled) })
	defer unlink()

	start := time.Now()
	path, err := d.fetch(runCtx, job)
	switch {
	case err == nil:
		d.finish(job, JobStateInProgress, Result{State: JobStateCompleted, Path: path})
		d.log.Info("Download completed", "job", job.ID, "path", path, "elapsed", time.Since(start))
	case errors.Is(err, ErrTransmissionCancelled):
		d.errHandler.LogError(job.ID, err, ErrorActionCancel, 0)
		d.finish(job, JobStateInProgress, Result{State: JobStateCancelled})
	default:
		d.errHandler.LogError(job.ID, err, ErrorActionFail, 0)
		d.finish(job, JobStateInProgress, Result{State: JobStateFailed, Err: err})
	}
}

// fetch streams the object into a temporary file next to its destination
// and renames it into place once every chunk has been written.
func (d *Downloader) fetch(ctx context.Context, job *Job) (string, error) {
	dir := resolveDirectory(d.config.DownloadRoot, job.Directory)
	name := destinationName(job, d.now())

	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return "", localIO("mkdir", dir, err)
	}
	if err := d.checkFreeSpace(dir, job.DeclaredSize); err != nil {
		return "", err
	}

	location, err := LocationFor(job.Identifier, job.FileReference)
	if err != nil {
		return "", err
	}

	tmp, err := d.fs.TempFile(dir, "."+name+".part")
	if err != nil {
		return "", localIO("create", dir, err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		if err := d.fs.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			d.log.Warn("Failed to remove partial download", "path", tmp.Name(), "error", err)
		}
	}()

	var offset int64
	for {
		if ctx.Err() != nil {
			return "", ErrTransmissionCancelled
		}

		resp, err := d.sender.Send(ctx, &rpc.GetFile{
			Location: location,
			Offset:   offset,
			Limit:    d.config.DownloadChunkSize,
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", ErrTransmissionCancelled
			}
			return "", translateServiceError(err)
		}
		chunk, ok := resp.(*rpc.File)
		if !ok {
			return "", fmt.Errorf("unexpected GetFile response %T", resp)
		}
		if len(chunk.Bytes) == 0 {
			break
		}

		if _, err := tmp.Write(chunk.Bytes); err != nil {
			return "", localIO("write", tmp.Name(), err)
		}
		offset += int64(len(chunk.Bytes))

		job.reportProgress(offset)
		_ = d.registry.UpdateProgress(job.ID, offset, job.DeclaredSize)

		if job.DeclaredSize > 0 && offset >= job.DeclaredSize {
			break
		}
	}

	if s, ok := tmp.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return "", localIO("sync", tmp.Name(), err)
		}
	}
	if err := tmp.Close(); err != nil {
		return "", localIO("close", tmp.Name(), err)
	}

	final := d.fs.Join(dir, name)
	if err := d.fs.Rename(tmp.Name(), final); err != nil {
		return "", localIO("rename", final, err)
	}
	committed = true
	return final, nil
}

func (d *Downloader) checkFreeSpace(dir string, size int64) error {
	if size <= 0 || d.freeSpace == nil {
		return nil
	}
	free, err := d.freeSpace(dir)
	if err != nil {
		d.log.Debug("Free space unavailable", "dir", dir, "error", err)
		return nil
	}
	if uint64(size) > free {
		return localIO("reserve", dir, fmt.Errorf("%w: need %s, have %s",
			ErrInsufficientSpace, util.FormatSize(size), util.FormatSize(int64(free))))
	}
	return nil
}
