// Package youtube enumerates channel videos through the YouTube Data API
// and parses yt-dlp sidecar metadata.
package youtube

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"yt2mediacms/internal/model"
)

// Video is one enumerated channel entry.
type Video struct {
	ID        string
	Title     string
	Published time.Time
}

// Lister enumerates a channel's videos. The coordinator depends on this
// interface, never on the concrete API client.
type Lister interface {
	ChannelInfo(ctx context.Context, channelID string) (model.ChannelInfo, error)
	// ListVideos returns the channel's videos published after the given
	// bound (all videos when the bound is the zero time), oldest first.
	ListVideos(ctx context.Context, channelID string, publishedAfter time.Time) ([]Video, error)
}

// APILister implements Lister on the YouTube Data API v3.
type APILister struct {
	service *youtube.Service
	// pageDelay spaces paginated search requests to stay clear of
	// per-second quota limits.
	pageDelay  time.Duration
	maxResults int64
}

func NewAPILister(ctx context.Context, apiKey string) (*APILister, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("youtube api key is required")
	}
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &APILister{
		service:    service,
		pageDelay:  time.Second,
		maxResults: 50,
	}, nil
}

func (a *APILister) ChannelInfo(ctx context.Context, channelID string) (model.ChannelInfo, error) {
	if strings.TrimSpace(channelID) == "" {
		return model.ChannelInfo{}, fmt.Errorf("channel ID is required")
	}

	resp, err := a.service.Channels.List([]string{"snippet"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return model.ChannelInfo{}, fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return model.ChannelInfo{}, fmt.Errorf("channel %s not found", channelID)
	}

	item := resp.Items[0]
	info := model.ChannelInfo{
		ID:          item.Id,
		Name:        item.Snippet.Title,
		Description: item.Snippet.Description,
	}
	if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
		info.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
	}
	return info, nil
}

func (a *APILister) ListVideos(ctx context.Context, channelID string, publishedAfter time.Time) ([]Video, error) {
	if strings.TrimSpace(channelID) == "" {
		return nil, fmt.Errorf("channel ID is required")
	}

	var videos []Video
	pageToken := ""
	for {
		call := a.service.Search.List([]string{"snippet"}).
			ChannelId(channelID).
			Type("video").
			Order("date").
			MaxResults(a.maxResults).
			Context(ctx)
		if !publishedAfter.IsZero() {
			call = call.PublishedAfter(publishedAfter.UTC().Format(time.RFC3339))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("search channel %s videos: %w", channelID, err)
		}

		for _, item := range resp.Items {
			if item.Id == nil || item.Id.VideoId == "" {
				continue
			}
			published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
			videos = append(videos, Video{
				ID:        item.Id.VideoId,
				Title:     item.Snippet.Title,
				Published: published,
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.pageDelay):
		}
	}

	SortOldestFirst(videos)
	return videos, nil
}

// SortOldestFirst orders videos by publish time ascending, the order in
// which they are enqueued for download.
func SortOldestFirst(videos []Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].Published.Before(videos[j].Published)
	})
}

// ExtractChannelID accepts a raw channel ID or a /channel/<id> URL and
// returns the ID, or "" when neither matches. Handle and vanity URLs
// (@handle, /c/, /user/) are rejected: the Data API looks channels up
// by ID and cannot resolve those forms.
func ExtractChannelID(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.Index(trimmed, "youtube.com/channel/"); idx >= 0 {
		rest := trimmed[idx+len("youtube.com/channel/"):]
		if cut := strings.IndexByte(rest, '/'); cut >= 0 {
			rest = rest[:cut]
		}
		return rest
	}
	if strings.ContainsAny(trimmed, "/@.") {
		return ""
	}
	return trimmed
}
