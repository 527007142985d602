package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const rssFeedURLTemplate = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// FeedWatcher polls a channel's Atom feed. The feed carries only the 15
// most recent uploads, which is enough to notice that something new
// landed; the actual enumeration still goes through the Data API.
type FeedWatcher struct {
	client *http.Client
	// BaseURL overrides the feed host in tests.
	BaseURL string
}

func NewFeedWatcher() *FeedWatcher {
	return &FeedWatcher{client: &http.Client{Timeout: 30 * time.Second}}
}

// FeedEntry is the newest upload visible in the channel feed.
type FeedEntry struct {
	VideoID   string
	Title     string
	Published time.Time
}

// LatestEntry returns the most recently published entry of the channel
// feed, or an error when the feed is empty.
func (w *FeedWatcher) LatestEntry(ctx context.Context, channelID string) (FeedEntry, error) {
	feedURL := fmt.Sprintf(rssFeedURLTemplate, channelID)
	if w.BaseURL != "" {
		feedURL = fmt.Sprintf("%s/feeds/videos.xml?channel_id=%s", w.BaseURL, channelID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return FeedEntry{}, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return FeedEntry{}, fmt.Errorf("fetch feed for %s: %w", channelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FeedEntry{}, fmt.Errorf("fetch feed for %s: HTTP %d", channelID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FeedEntry{}, fmt.Errorf("read feed for %s: %w", channelID, err)
	}
	return latestFeedEntry(body)
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID   string    `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	Title     string    `xml:"title"`
	Published time.Time `xml:"published"`
}

func latestFeedEntry(data []byte) (FeedEntry, error) {
	var feed atomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return FeedEntry{}, fmt.Errorf("parse atom feed: %w", err)
	}
	if len(feed.Entries) == 0 {
		return FeedEntry{}, fmt.Errorf("channel feed has no entries")
	}

	latest := feed.Entries[0]
	for _, e := range feed.Entries[1:] {
		if e.Published.After(latest.Published) {
			latest = e
		}
	}
	return FeedEntry{VideoID: latest.VideoID, Title: latest.Title, Published: latest.Published}, nil
}
