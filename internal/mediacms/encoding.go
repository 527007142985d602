package mediacms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"yt2mediacms/internal/model"
)

// resolutionLadder lists the encoding rungs MediaCMS produces, highest
// first. Status resolution walks this order.
var resolutionLadder = []int{2160, 1440, 1080, 720, 480, 360, 240}

// MediaDetail is the per-media payload used for encoding tracking.
type MediaDetail struct {
	FriendlyToken  string                       `json:"friendly_token"`
	Title          string                       `json:"title"`
	EncodingStatus string                       `json:"encoding_status"`
	VideoHeight    int                          `json:"video_height"`
	EncodingsInfo  map[string]map[string]Encode `json:"encodings_info"`
}

// Encode is one codec's encoding state at a given resolution.
type Encode struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// MediaDetail fetches one media record by friendly token.
func (c *Client) MediaDetail(ctx context.Context, friendlyToken string) (MediaDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/media/"+url.PathEscape(friendlyToken), nil)
	if err != nil {
		return MediaDetail{}, fmt.Errorf("build media detail request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return MediaDetail{}, fmt.Errorf("fetch media %s: %w", friendlyToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return MediaDetail{}, fmt.Errorf("fetch media %s: HTTP %d: %s", friendlyToken, resp.StatusCode, readErrorBody(resp.Body))
	}

	var detail MediaDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return MediaDetail{}, fmt.Errorf("fetch media %s: decode response: %w", friendlyToken, err)
	}
	return detail, nil
}

// EncodingStatus polls the media record and resolves its effective
// encoding status. Transport or decode errors report as unknown, which
// callers treat as "keep polling".
func (c *Client) EncodingStatus(ctx context.Context, friendlyToken string) model.EncodingStatus {
	detail, err := c.MediaDetail(ctx, friendlyToken)
	if err != nil {
		c.logger.Warn("encoding status check failed", "friendly_token", friendlyToken, "error", err)
		return model.EncodingUnknown
	}
	return ResolveEncodingStatus(detail)
}

// ResolveEncodingStatus derives an effective status from a media
// record. The top-level encoding_status flips to success as soon as any
// rung finishes, so success is only trusted after inspecting the rung
// that matches the original video height.
//
// The target rung is the highest one not exceeding the original height
// (the lowest rung when the video is smaller than all of them). When
// the server skipped the target rung, the walk falls back to whatever
// rungs exist, highest first, and the first non-success status wins.
func ResolveEncodingStatus(detail MediaDetail) model.EncodingStatus {
	overall := model.ParseEncodingStatus(detail.EncodingStatus)
	if overall == model.EncodingPending || overall == model.EncodingRunning {
		return overall
	}

	target := resolutionLadder[len(resolutionLadder)-1]
	for _, rung := range resolutionLadder[:len(resolutionLadder)-1] {
		if detail.VideoHeight >= rung {
			target = rung
			break
		}
	}

	rungStatus := func(rung int) (model.EncodingStatus, bool) {
		codecs, ok := detail.EncodingsInfo[fmt.Sprintf("%d", rung)]
		if !ok || len(codecs) == 0 {
			return model.EncodingUnknown, false
		}
		h264, ok := codecs["h264"]
		if !ok || h264.Status == "" {
			return model.EncodingUnknown, false
		}
		return model.ParseEncodingStatus(h264.Status), true
	}

	if status, ok := rungStatus(target); ok {
		return status
	}

	// Target rung absent: walk the rungs that do exist, highest first.
	var available []int
	for _, rung := range resolutionLadder {
		if codecs, ok := detail.EncodingsInfo[fmt.Sprintf("%d", rung)]; ok && len(codecs) > 0 {
			available = append(available, rung)
		}
	}
	if len(available) == 0 {
		return overall
	}
	for _, rung := range available {
		if status, ok := rungStatus(rung); ok && status != model.EncodingSuccess {
			return status
		}
	}
	return model.EncodingSuccess
}
