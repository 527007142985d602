// Package watch runs scheduled incremental syncs. A cron schedule
// drives cheap RSS feed checks; only channels whose feed shows a new
// upload get a full incremental sync run.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"yt2mediacms/internal/youtube"
)

// maxConcurrentChecks bounds parallel feed fetches per tick.
const maxConcurrentChecks = 4

// FeedSource abstracts the RSS feed lookup.
type FeedSource interface {
	LatestEntry(ctx context.Context, channelID string) (youtube.FeedEntry, error)
}

// Channel is one watched channel and the sync to run when its feed
// changes.
type Channel struct {
	Name string
	URL  string
	// Sync runs the incremental sync for this channel.
	Sync func(ctx context.Context) error
}

// Watcher re-checks channel feeds on a cron schedule and triggers
// incremental syncs when new uploads appear.
type Watcher struct {
	feed     FeedSource
	channels []Channel
	schedule string
	logger   *slog.Logger

	mu       sync.Mutex
	lastSeen map[string]string
}

func New(feed FeedSource, channels []Channel, schedule string, logger *slog.Logger) (*Watcher, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels to watch")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}
	if feed == nil {
		feed = youtube.NewFeedWatcher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		feed:     feed,
		channels: channels,
		schedule: schedule,
		logger:   logger,
		lastSeen: make(map[string]string),
	}, nil
}

// Run blocks until the context ends. The first check happens
// immediately; later checks follow the cron schedule.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watch mode starting", "channels", len(w.channels), "schedule", w.schedule)
	w.CheckAll(ctx)

	c := cron.New()
	if _, err := c.AddFunc(w.schedule, func() { w.CheckAll(ctx) }); err != nil {
		return fmt.Errorf("schedule watch job: %w", err)
	}
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	w.logger.Info("watch mode stopped")
	return ctx.Err()
}

// CheckAll fetches every channel's feed concurrently and syncs the ones
// with new uploads. One channel's failure never blocks the others.
func (w *Watcher) CheckAll(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for _, ch := range w.channels {
		ch := ch
		g.Go(func() error {
			w.checkChannel(ctx, ch)
			return nil
		})
	}
	_ = g.Wait()
}

func (w *Watcher) checkChannel(ctx context.Context, ch Channel) {
	channelID := youtube.ExtractChannelID(ch.URL)
	if channelID == "" {
		w.logger.Error("cannot determine channel ID", "channel", ch.Name, "url", ch.URL)
		return
	}

	entry, err := w.feed.LatestEntry(ctx, channelID)
	if err != nil {
		w.logger.Warn("feed check failed", "channel", ch.Name, "error", err)
		return
	}

	w.mu.Lock()
	seen := w.lastSeen[channelID]
	w.mu.Unlock()

	if seen == entry.VideoID {
		w.logger.Debug("no new uploads", "channel", ch.Name, "latest", entry.VideoID)
		return
	}

	w.logger.Info("new upload detected", "channel", ch.Name, "video_id", entry.VideoID, "title", entry.Title)
	if err := ch.Sync(ctx); err != nil {
		w.logger.Error("scheduled sync failed", "channel", ch.Name, "error", err)
		return
	}

	w.mu.Lock()
	w.lastSeen[channelID] = entry.VideoID
	w.mu.Unlock()
}
