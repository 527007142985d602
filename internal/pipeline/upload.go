package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"yt2mediacms/internal/model"
)

// Uploader is the slice of the MediaCMS client the upload pool needs.
type Uploader interface {
	Whoami(ctx context.Context) (string, error)
	Upload(ctx context.Context, artifactPath, thumbnailPath, title, description string, tags []string, publicationDate string) (string, error)
	EncodingStatus(ctx context.Context, friendlyToken string) model.EncodingStatus
}

// UploadPool drains downloaded artifacts through M upload workers. With
// the encoding gate enabled, each worker holds off dequeuing its next
// artifact until its own previous upload reaches a terminal encoding
// status (success or fail; unknown never releases the gate).
type UploadPool struct {
	uploader        Uploader
	workers         int
	waitForEncoding bool
	keepFiles       bool
	delay           time.Duration
	obs             Observer
	logger          *slog.Logger

	queue    *Queue[model.DownloadedArtifact]
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	username string

	// lastUploads tracks each worker's most recent friendly token so the
	// background monitor can republish encoding progress.
	mu          sync.Mutex
	lastUploads map[int]string

	uploaded atomic.Int64
	failed   atomic.Int64

	pollTimeout time.Duration
}

type UploadPoolOptions struct {
	Workers         int
	WaitForEncoding bool
	KeepFiles       bool
	// Delay is the encoding poll interval.
	Delay    time.Duration
	Observer Observer
	Logger   *slog.Logger
}

func NewUploadPool(uploader Uploader, opts UploadPoolOptions) *UploadPool {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Delay <= 0 {
		opts.Delay = 5 * time.Second
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &UploadPool{
		uploader:        uploader,
		workers:         opts.Workers,
		waitForEncoding: opts.WaitForEncoding,
		keepFiles:       opts.KeepFiles,
		delay:           opts.Delay,
		obs:             opts.Observer,
		logger:          opts.Logger,
		queue:           NewQueue[model.DownloadedArtifact](),
		stop:            make(chan struct{}),
		lastUploads:     make(map[int]string),
		pollTimeout:     queuePollTimeout,
	}
}

// Start resolves the token's username and launches the workers. A
// whoami failure aborts the pool before anything is uploaded.
func (p *UploadPool) Start(ctx context.Context) error {
	username, err := p.uploader.Whoami(ctx)
	if err != nil {
		return fmt.Errorf("resolve upload target user: %w", err)
	}
	p.username = username
	p.logger.Info("starting upload workers", "workers", p.workers, "username", username)

	for i := 1; i <= p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	return nil
}

func (p *UploadPool) Username() string { return p.username }

func (p *UploadPool) Add(artifact model.DownloadedArtifact) {
	p.queue.Put(artifact)
}

// Wait blocks until every queued artifact has been processed. It does
// not wait for the final encodings to finish; the gate only orders
// consecutive uploads within a worker.
func (p *UploadPool) Wait() {
	p.queue.Join()
	p.logger.Info("all uploads processed", "uploaded", p.uploaded.Load(), "failed", p.failed.Load())
}

// Stop tells the workers to exit. Call after Wait.
func (p *UploadPool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.queue.Close()
	p.wg.Wait()
}

// Abort drops the queued backlog and stops the workers without
// draining it, unblocking any Wait stuck on artifacts nobody will
// process. For cancellation.
func (p *UploadPool) Abort() {
	p.queue.Abandon()
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func (p *UploadPool) Uploaded() int64 { return p.uploaded.Load() }
func (p *UploadPool) Failed() int64   { return p.failed.Load() }

func (p *UploadPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	var lastToken string

	for {
		if p.waitForEncoding && lastToken != "" {
			if !p.awaitEncoding(ctx, id, &lastToken) {
				return
			}
		}

		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		artifact, ok := p.queue.Get(p.pollTimeout)
		if !ok {
			continue
		}

		token, err := p.upload(ctx, id, artifact)
		if err == nil && token != "" {
			lastToken = token
			p.mu.Lock()
			p.lastUploads[id] = token
			p.mu.Unlock()
		}
		p.queue.TaskDone()
	}
}

// awaitEncoding polls until the worker's previous upload settles.
// Returns false when the pool is stopping.
func (p *UploadPool) awaitEncoding(ctx context.Context, id int, lastToken *string) bool {
	for {
		status := p.uploader.EncodingStatus(ctx, *lastToken)
		p.obs.EncodingUpdate(id, *lastToken, status)

		if status.IsTerminal() {
			p.logger.Info("previous upload settled",
				"worker", id, "friendly_token", *lastToken, "status", status)
			*lastToken = ""
			return true
		}

		p.logger.Debug("waiting for encoding",
			"worker", id, "friendly_token", *lastToken, "status", status)
		select {
		case <-p.stop:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(p.delay):
		}
	}
}

func (p *UploadPool) upload(ctx context.Context, id int, artifact model.DownloadedArtifact) (string, error) {
	p.obs.UploadStarted(id, artifact.VideoID)

	thumbnail := ""
	if _, err := os.Stat(artifact.ThumbnailPath()); err == nil {
		thumbnail = artifact.ThumbnailPath()
	}

	token, err := p.uploader.Upload(ctx,
		artifact.Path, thumbnail,
		artifact.Meta.Title, artifact.Meta.Description,
		artifact.Meta.Tags, artifact.Meta.PublicationDate)
	if err != nil {
		p.failed.Add(1)
		p.obs.UploadFailed(id, artifact.VideoID, err)
		p.logger.Error("upload failed", "worker", id, "video_id", artifact.VideoID, "error", err)
		return "", err
	}

	p.uploaded.Add(1)
	p.obs.UploadCompleted(id, artifact.VideoID, token)

	if !p.keepFiles {
		p.cleanup(artifact)
	}
	return token, nil
}

// cleanup removes the per-video download directory once its upload
// succeeded.
func (p *UploadPool) cleanup(artifact model.DownloadedArtifact) {
	dir := filepath.Dir(artifact.Path)
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Warn("cleanup failed", "dir", dir, "error", err)
	}
}

// Monitor republishes encoding progress for each worker's most recent
// upload on a fixed interval, independent of the gate polling. Feeds
// the live dashboard; runs until the context ends or Stop is called.
func (p *UploadPool) Monitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			case <-ticker.C:
			}

			p.mu.Lock()
			tracked := make(map[int]string, len(p.lastUploads))
			for worker, token := range p.lastUploads {
				tracked[worker] = token
			}
			p.mu.Unlock()

			for worker, token := range tracked {
				status := p.uploader.EncodingStatus(ctx, token)
				p.obs.EncodingUpdate(worker, token, status)
				if status.IsTerminal() && !p.waitForEncoding {
					p.mu.Lock()
					if p.lastUploads[worker] == token {
						delete(p.lastUploads, worker)
					}
					p.mu.Unlock()
				}
			}
		}
	}()
}
