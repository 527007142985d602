package model

import "time"

// VideoTask is one video identifier queued for download. Created by the
// coordinator when enumerating a sync target and consumed exactly once by
// a download worker.
type VideoTask struct {
	ID        string    `json:"video_id"`
	Title     string    `json:"title,omitempty"`
	Published time.Time `json:"published,omitempty"`
}

// VideoMetadata is the fixed-shape record extracted from the yt-dlp
// sidecar JSON. The zero value is the explicit "empty metadata" fallback
// used when the sidecar never becomes readable.
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	// UploadDate is the compact form (YYYYMMDD) as yt-dlp writes it.
	UploadDate string `json:"upload_date,omitempty"`
	// PublicationDate is the hyphenated form (YYYY-MM-DD) sent to MediaCMS.
	PublicationDate string `json:"publication_date,omitempty"`
	DurationSec     int64  `json:"duration,omitempty"`
	ViewCount       int64  `json:"view_count,omitempty"`
}

// DownloadedArtifact is a merged media file on local disk together with
// its sidecar metadata. Produced by a download worker, owned by the upload
// queue until an upload worker claims it.
type DownloadedArtifact struct {
	VideoID string
	Path    string
	Meta    VideoMetadata
}

// SidecarPath returns the .info.json path next to the media file.
func (a DownloadedArtifact) SidecarPath() string {
	return trimExt(a.Path) + ".info.json"
}

// ThumbnailPath returns the .jpg thumbnail path next to the media file.
func (a DownloadedArtifact) ThumbnailPath() string {
	return trimExt(a.Path) + ".jpg"
}

func trimExt(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case '.':
			return path[:i]
		case '/', '\\':
			return path
		}
	}
	return path
}

// ChannelInfo is the public snippet of a YouTube channel, used to update
// the MediaCMS channel profile.
type ChannelInfo struct {
	ID           string `json:"channel_id"`
	Name         string `json:"channel_name"`
	Description  string `json:"channel_description"`
	ThumbnailURL string `json:"channel_image_url"`
}
