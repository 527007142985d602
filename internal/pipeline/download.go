package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"yt2mediacms/internal/model"
	"yt2mediacms/internal/youtube"
	"yt2mediacms/internal/ytdlp"
)

const (
	queuePollTimeout   = 5 * time.Second
	sidecarMaxAttempts = 5
	sidecarRetryBase   = 2 * time.Second
)

// DownloadPool drains a queue of video tasks through N yt-dlp workers.
// Each finished artifact is handed to the callback; a failed task is
// logged, counted, and never reaches the callback.
type DownloadPool struct {
	outputDir string
	workers   int
	callback  func(model.DownloadedArtifact)
	obs       Observer
	logger    *slog.Logger

	queue      *Queue[model.VideoTask]
	noMoreWork atomic.Bool
	wg         sync.WaitGroup

	downloaded atomic.Int64
	failed     atomic.Int64

	// Test seams. Both default to the real implementations.
	download     func(context.Context, ytdlp.DownloadOptions) (ytdlp.DownloadResult, error)
	pollTimeout  time.Duration
	sidecarDelay time.Duration
}

func NewDownloadPool(outputDir string, workers int, callback func(model.DownloadedArtifact), obs Observer, logger *slog.Logger) *DownloadPool {
	if workers < 1 {
		workers = 1
	}
	if obs == nil {
		obs = NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadPool{
		outputDir:    outputDir,
		workers:      workers,
		callback:     callback,
		obs:          obs,
		logger:       logger,
		queue:        NewQueue[model.VideoTask](),
		download:     ytdlp.DownloadVideo,
		pollTimeout:  queuePollTimeout,
		sidecarDelay: sidecarRetryBase,
	}
}

// Start launches the workers. They stop taking new tasks once ctx ends;
// an in-flight yt-dlp process is killed through the context.
func (p *DownloadPool) Start(ctx context.Context) {
	for i := 1; i <= p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *DownloadPool) Add(task model.VideoTask) {
	p.queue.Put(task)
}

func (p *DownloadPool) AddAll(tasks []model.VideoTask) {
	for _, t := range tasks {
		p.Add(t)
	}
}

// MarkNoMoreWork latches the one-way "nothing else is coming" signal.
// Workers exit once the signal is set and the queue is empty.
func (p *DownloadPool) MarkNoMoreWork() {
	p.noMoreWork.Store(true)
	p.queue.Close()
}

// Abort drops the queued backlog so workers exit after their in-flight
// task instead of working through it. For cancellation.
func (p *DownloadPool) Abort() {
	p.noMoreWork.Store(true)
	p.queue.Abandon()
}

// Wait blocks until all workers have exited.
func (p *DownloadPool) Wait() {
	p.wg.Wait()
}

func (p *DownloadPool) Downloaded() int64 { return p.downloaded.Load() }
func (p *DownloadPool) Failed() int64     { return p.failed.Load() }

func (p *DownloadPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, ok := p.queue.Get(p.pollTimeout)
		if !ok {
			if p.noMoreWork.Load() && p.queue.Len() == 0 {
				return
			}
			continue
		}
		p.process(ctx, id, task)
		p.queue.TaskDone()
	}
}

func (p *DownloadPool) process(ctx context.Context, id int, task model.VideoTask) {
	p.obs.DownloadStarted(id, task.ID)

	videoDir := filepath.Join(p.outputDir, task.ID)
	_, err := p.download(ctx, ytdlp.DownloadOptions{VideoID: task.ID, OutputDir: videoDir})
	if err != nil {
		p.failed.Add(1)
		p.obs.DownloadFailed(id, task.ID, err)
		p.logger.Error("download failed", "worker", id, "video_id", task.ID, "error", err)
		return
	}

	mediaPath, err := ytdlp.FindMergedFile(videoDir)
	if err != nil {
		p.failed.Add(1)
		p.obs.DownloadFailed(id, task.ID, err)
		p.logger.Error("no merged file after download", "worker", id, "video_id", task.ID, "error", err)
		return
	}

	artifact := model.DownloadedArtifact{
		VideoID: task.ID,
		Path:    mediaPath,
		Meta:    p.waitForSidecar(id, model.DownloadedArtifact{VideoID: task.ID, Path: mediaPath}),
	}

	p.downloaded.Add(1)
	p.obs.DownloadCompleted(id, task.ID)
	if p.callback != nil {
		p.callback(artifact)
	}
}

// waitForSidecar reads the info JSON next to the media file, retrying
// with an increasing delay while yt-dlp may still be flushing it. After
// the last attempt it degrades to empty metadata instead of failing the
// artifact.
func (p *DownloadPool) waitForSidecar(id int, artifact model.DownloadedArtifact) model.VideoMetadata {
	sidecar := artifact.SidecarPath()
	for attempt := 1; attempt <= sidecarMaxAttempts; attempt++ {
		if _, err := os.Stat(sidecar); err == nil {
			meta, err := youtube.ReadSidecar(sidecar)
			if err == nil && meta.Title != "" {
				return meta
			}
		}
		if attempt < sidecarMaxAttempts {
			time.Sleep(time.Duration(attempt) * p.sidecarDelay)
		}
	}
	p.logger.Warn("sidecar metadata unavailable, uploading with empty metadata",
		"worker", id, "video_id", artifact.VideoID, "sidecar", sidecar)
	return model.VideoMetadata{}
}
