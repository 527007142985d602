package youtube

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"yt2mediacms/internal/model"
)

// sidecarInfo mirrors the subset of yt-dlp's .info.json we carry over
// to MediaCMS.
type sidecarInfo struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	UploadDate  string   `json:"upload_date"`
	Duration    float64  `json:"duration"`
	ViewCount   int64    `json:"view_count"`
}

// ReadSidecar parses the yt-dlp info JSON written next to a downloaded
// video. The upload date arrives compact (YYYYMMDD) and is also kept in
// hyphenated form for the MediaCMS publication date field.
func ReadSidecar(path string) (model.VideoMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.VideoMetadata{}, fmt.Errorf("read sidecar %s: %w", path, err)
	}

	var info sidecarInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return model.VideoMetadata{}, fmt.Errorf("parse sidecar %s: %w", path, err)
	}

	return model.VideoMetadata{
		Title:           info.Title,
		Description:     info.Description,
		Tags:            info.Tags,
		UploadDate:      info.UploadDate,
		PublicationDate: hyphenateCompactDate(info.UploadDate),
		DurationSec:     int64(info.Duration),
		ViewCount:       info.ViewCount,
	}, nil
}

// hyphenateCompactDate turns 20240131 into 2024-01-31. Anything that is
// not an eight-digit date passes through unchanged.
func hyphenateCompactDate(compact string) string {
	compact = strings.TrimSpace(compact)
	if len(compact) != 8 {
		return compact
	}
	for _, r := range compact {
		if r < '0' || r > '9' {
			return compact
		}
	}
	return compact[:4] + "-" + compact[4:6] + "-" + compact[6:]
}
