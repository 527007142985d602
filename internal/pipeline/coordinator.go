package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"yt2mediacms/internal/fsutil"
	"yt2mediacms/internal/mediacms"
	"yt2mediacms/internal/model"
	"yt2mediacms/internal/youtube"
)

// defaultWatermark bounds an incremental sync when the MediaCMS account
// is empty, so a fresh account does not pull the entire channel history
// through the incremental path.
const defaultWatermark = "2020-01-01T00:00:00Z"

// MediaServer is the MediaCMS surface the coordinator needs: uploads
// plus the watermark query for incremental sync.
type MediaServer interface {
	Uploader
	LatestMedia(ctx context.Context, username string) (mediacms.MediaSummary, bool, error)
}

// SyncOptions carries the resolved runtime settings of one sync run.
type SyncOptions struct {
	OutputDir       string
	DownloadWorkers int
	UploadWorkers   int
	Delay           time.Duration
	WaitForEncoding bool
	KeepFiles       bool
	// MonitorInterval > 0 starts the background encoding republisher.
	MonitorInterval time.Duration
	Observer        Observer
	Logger          *slog.Logger
}

// Stats summarizes one completed sync run.
type Stats struct {
	RunID          string
	Enumerated     int
	Downloaded     int64
	DownloadFailed int64
	Uploaded       int64
	UploadFailed   int64
}

// Coordinator wires enumeration, the download pool, and the upload pool
// into one run. One coordinator serves one channel (one token).
type Coordinator struct {
	lister youtube.Lister
	server MediaServer
	opts   SyncOptions
}

func NewCoordinator(lister youtube.Lister, server MediaServer, opts SyncOptions) *Coordinator {
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator{lister: lister, server: server, opts: opts}
}

// SyncFull enumerates the entire channel and processes every video,
// oldest first.
func (c *Coordinator) SyncFull(ctx context.Context, channelURL string) (Stats, error) {
	channelID := youtube.ExtractChannelID(channelURL)
	if channelID == "" {
		return Stats{}, fmt.Errorf("cannot determine channel ID from %q (use a youtube.com/channel/<id> URL or a raw channel ID)", channelURL)
	}

	videos, err := c.lister.ListVideos(ctx, channelID, time.Time{})
	if err != nil {
		return Stats{}, fmt.Errorf("enumerate channel %s: %w", channelID, err)
	}
	if len(videos) == 0 {
		c.opts.Logger.Info("channel has no videos", "channel_id", channelID)
		return Stats{}, nil
	}
	return c.run(ctx, videosToTasks(videos))
}

// SyncNew processes only videos published strictly after the add date
// of the newest MediaCMS media owned by the channel's account.
func (c *Coordinator) SyncNew(ctx context.Context, channelURL string) (Stats, error) {
	channelID := youtube.ExtractChannelID(channelURL)
	if channelID == "" {
		return Stats{}, fmt.Errorf("cannot determine channel ID from %q (use a youtube.com/channel/<id> URL or a raw channel ID)", channelURL)
	}

	watermark, err := c.watermark(ctx)
	if err != nil {
		return Stats{}, err
	}
	c.opts.Logger.Info("incremental sync watermark", "channel_id", channelID, "watermark", watermark.Format(time.RFC3339))

	videos, err := c.lister.ListVideos(ctx, channelID, watermark)
	if err != nil {
		return Stats{}, fmt.Errorf("enumerate channel %s: %w", channelID, err)
	}

	// publishedAfter is inclusive on the API side; the watermark video
	// itself must not be re-synced.
	fresh := videos[:0]
	for _, v := range videos {
		if v.Published.After(watermark) {
			fresh = append(fresh, v)
		}
	}
	if len(fresh) == 0 {
		c.opts.Logger.Info("no new videos since watermark", "channel_id", channelID)
		return Stats{}, nil
	}
	return c.run(ctx, videosToTasks(fresh))
}

// SyncVideoIDs processes an explicit list of video IDs in the given
// order.
func (c *Coordinator) SyncVideoIDs(ctx context.Context, videoIDs []string) (Stats, error) {
	if len(videoIDs) == 0 {
		return Stats{}, fmt.Errorf("no video IDs given")
	}
	tasks := make([]model.VideoTask, 0, len(videoIDs))
	for _, id := range videoIDs {
		tasks = append(tasks, model.VideoTask{ID: id})
	}
	return c.run(ctx, tasks)
}

func (c *Coordinator) watermark(ctx context.Context) (time.Time, error) {
	fallback, _ := time.Parse(time.RFC3339, defaultWatermark)

	username, err := c.server.Whoami(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve account for watermark: %w", err)
	}

	latest, found, err := c.server.LatestMedia(ctx, username)
	if err != nil {
		return time.Time{}, fmt.Errorf("query latest media: %w", err)
	}
	if !found {
		c.opts.Logger.Info("no previous media found, using default watermark", "username", username)
		return fallback, nil
	}

	watermark, err := mediacms.ParseAddDate(latest.AddDate)
	if err != nil {
		c.opts.Logger.Warn("unparseable add_date on latest media, using default watermark",
			"username", username, "add_date", latest.AddDate)
		return fallback, nil
	}
	c.opts.Logger.Info("latest MediaCMS media", "username", username, "title", latest.Title, "add_date", latest.AddDate)
	return watermark, nil
}

// run drives one pipeline execution to completion: start uploads, start
// downloads, enqueue everything, latch no-more-work, then drain both
// stages in order.
func (c *Coordinator) run(ctx context.Context, tasks []model.VideoTask) (Stats, error) {
	runID := uuid.NewString()
	logger := c.opts.Logger.With("run_id", runID)
	logger.Info("sync run starting", "videos", len(tasks),
		"download_workers", c.opts.DownloadWorkers, "upload_workers", c.opts.UploadWorkers,
		"wait_for_encoding", c.opts.WaitForEncoding)

	if err := os.MkdirAll(c.opts.OutputDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create output directory %s: %w", c.opts.OutputDir, err)
	}
	lock, err := fsutil.AcquireSyncLock(c.opts.OutputDir)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("sync lock release failed", "error", err)
		}
	}()

	uploadPool := NewUploadPool(c.server, UploadPoolOptions{
		Workers:         c.opts.UploadWorkers,
		WaitForEncoding: c.opts.WaitForEncoding,
		KeepFiles:       c.opts.KeepFiles,
		Delay:           c.opts.Delay,
		Observer:        c.opts.Observer,
		Logger:          logger,
	})
	if err := uploadPool.Start(ctx); err != nil {
		return Stats{}, err
	}
	if c.opts.MonitorInterval > 0 {
		uploadPool.Monitor(ctx, c.opts.MonitorInterval)
	}

	downloadPool := NewDownloadPool(c.opts.OutputDir, c.opts.DownloadWorkers, uploadPool.Add, c.opts.Observer, logger)
	downloadPool.Start(ctx)

	downloadPool.AddAll(tasks)
	downloadPool.MarkNoMoreWork()

	drained := make(chan struct{})
	go func() {
		downloadPool.Wait()
		logger.Info("download stage done", "downloaded", downloadPool.Downloaded(), "failed", downloadPool.Failed())
		uploadPool.Wait()
		close(drained)
	}()

	var runErr error
	select {
	case <-drained:
		uploadPool.Stop()
	case <-ctx.Done():
		// Workers exit after their in-flight task; the queued backlog
		// is dropped so the drain above unblocks instead of waiting on
		// items nobody will process.
		runErr = ctx.Err()
		logger.Warn("sync interrupted, dropping queued work", "reason", runErr)
		downloadPool.Abort()
		uploadPool.Abort()
		<-drained
	}

	stats := Stats{
		RunID:          runID,
		Enumerated:     len(tasks),
		Downloaded:     downloadPool.Downloaded(),
		DownloadFailed: downloadPool.Failed(),
		Uploaded:       uploadPool.Uploaded(),
		UploadFailed:   uploadPool.Failed(),
	}
	if runErr != nil {
		logger.Warn("sync run aborted",
			"enumerated", stats.Enumerated,
			"downloaded", stats.Downloaded, "download_failed", stats.DownloadFailed,
			"uploaded", stats.Uploaded, "upload_failed", stats.UploadFailed,
			"error", runErr)
		return stats, runErr
	}
	logger.Info("sync run finished",
		"enumerated", stats.Enumerated,
		"downloaded", stats.Downloaded, "download_failed", stats.DownloadFailed,
		"uploaded", stats.Uploaded, "upload_failed", stats.UploadFailed)
	return stats, nil
}

func videosToTasks(videos []youtube.Video) []model.VideoTask {
	tasks := make([]model.VideoTask, 0, len(videos))
	for _, v := range videos {
		tasks = append(tasks, model.VideoTask{ID: v.ID, Title: v.Title, Published: v.Published})
	}
	return tasks
}
