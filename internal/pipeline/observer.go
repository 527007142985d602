package pipeline

import (
	"log/slog"

	"yt2mediacms/internal/model"
)

// Observer receives pipeline progress events. The live dashboard and
// the plain log renderer both implement it; worker IDs are 1-based.
type Observer interface {
	DownloadStarted(worker int, videoID string)
	DownloadCompleted(worker int, videoID string)
	DownloadFailed(worker int, videoID string, err error)
	UploadStarted(worker int, videoID string)
	UploadCompleted(worker int, videoID, friendlyToken string)
	UploadFailed(worker int, videoID string, err error)
	EncodingUpdate(worker int, friendlyToken string, status model.EncodingStatus)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) DownloadStarted(int, string)                       {}
func (NopObserver) DownloadCompleted(int, string)                     {}
func (NopObserver) DownloadFailed(int, string, error)                 {}
func (NopObserver) UploadStarted(int, string)                         {}
func (NopObserver) UploadCompleted(int, string, string)               {}
func (NopObserver) UploadFailed(int, string, error)                   {}
func (NopObserver) EncodingUpdate(int, string, model.EncodingStatus)  {}

// LogObserver renders events as structured log lines.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o LogObserver) DownloadStarted(worker int, videoID string) {
	o.logger().Info("downloading", "worker", worker, "video_id", videoID)
}

func (o LogObserver) DownloadCompleted(worker int, videoID string) {
	o.logger().Info("download complete", "worker", worker, "video_id", videoID)
}

func (o LogObserver) DownloadFailed(worker int, videoID string, err error) {
	o.logger().Error("download failed", "worker", worker, "video_id", videoID, "error", err)
}

func (o LogObserver) UploadStarted(worker int, videoID string) {
	o.logger().Info("uploading", "worker", worker, "video_id", videoID)
}

func (o LogObserver) UploadCompleted(worker int, videoID, friendlyToken string) {
	o.logger().Info("upload complete", "worker", worker, "video_id", videoID, "friendly_token", friendlyToken)
}

func (o LogObserver) UploadFailed(worker int, videoID string, err error) {
	o.logger().Error("upload failed", "worker", worker, "video_id", videoID, "error", err)
}

func (o LogObserver) EncodingUpdate(worker int, friendlyToken string, status model.EncodingStatus) {
	o.logger().Info("encoding status", "worker", worker, "friendly_token", friendlyToken, "status", status)
}
