// Package tui renders live progress for sync runs.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"yt2mediacms/internal/model"
)

const maxEvents = 8

type workerState struct {
	activity string
	videoID  string
	status   model.EncodingStatus
}

// Dashboard is a full-screen live view of one sync run. It implements
// the pipeline observer; a ticker repaints the terminal until Stop.
type Dashboard struct {
	mu sync.Mutex

	downloads map[int]workerState
	uploads   map[int]workerState
	events    []string

	downloaded     int
	downloadFailed int
	uploaded       int
	uploadFailed   int
	total          int

	stop     chan struct{}
	stopOnce sync.Once
}

func NewDashboard(totalVideos int) *Dashboard {
	return &Dashboard{
		downloads: make(map[int]workerState),
		uploads:   make(map[int]workerState),
		events:    make([]string, 0, maxEvents),
		total:     totalVideos,
		stop:      make(chan struct{}),
	}
}

func (d *Dashboard) Start() {
	go func() {
		t := time.NewTicker(700 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-d.stop:
				return
			case <-t.C:
				d.render()
			}
		}
	}()
}

func (d *Dashboard) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
		d.render()
	})
}

func (d *Dashboard) DownloadStarted(worker int, videoID string) {
	d.mu.Lock()
	d.downloads[worker] = workerState{activity: "downloading", videoID: videoID}
	d.mu.Unlock()
}

func (d *Dashboard) DownloadCompleted(worker int, videoID string) {
	d.mu.Lock()
	d.downloads[worker] = workerState{activity: "idle"}
	d.downloaded++
	d.pushEvent(fmt.Sprintf("downloaded %s", videoID))
	d.mu.Unlock()
}

func (d *Dashboard) DownloadFailed(worker int, videoID string, err error) {
	d.mu.Lock()
	d.downloads[worker] = workerState{activity: "idle"}
	d.downloadFailed++
	d.pushEvent(fmt.Sprintf("download failed %s: %v", videoID, err))
	d.mu.Unlock()
}

func (d *Dashboard) UploadStarted(worker int, videoID string) {
	d.mu.Lock()
	d.uploads[worker] = workerState{activity: "uploading", videoID: videoID}
	d.mu.Unlock()
}

func (d *Dashboard) UploadCompleted(worker int, videoID, friendlyToken string) {
	d.mu.Lock()
	d.uploads[worker] = workerState{activity: "idle"}
	d.uploaded++
	d.pushEvent(fmt.Sprintf("uploaded %s as %s", videoID, friendlyToken))
	d.mu.Unlock()
}

func (d *Dashboard) UploadFailed(worker int, videoID string, err error) {
	d.mu.Lock()
	d.uploads[worker] = workerState{activity: "idle"}
	d.uploadFailed++
	d.pushEvent(fmt.Sprintf("upload failed %s: %v", videoID, err))
	d.mu.Unlock()
}

func (d *Dashboard) EncodingUpdate(worker int, friendlyToken string, status model.EncodingStatus) {
	d.mu.Lock()
	d.uploads[worker] = workerState{activity: "encoding wait", videoID: "MC:" + friendlyToken, status: status}
	d.mu.Unlock()
}

// pushEvent prepends, newest first. Caller holds the lock.
func (d *Dashboard) pushEvent(event string) {
	d.events = append([]string{event}, d.events...)
	if len(d.events) > maxEvents {
		d.events = d.events[:maxEvents]
	}
}

func (d *Dashboard) render() {
	fmt.Print(d.view())
}

func (d *Dashboard) view() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	b.WriteString("\033[H\033[2J")
	total := ""
	if d.total > 0 {
		total = fmt.Sprintf("videos %d | ", d.total)
	}
	b.WriteString(fmt.Sprintf("yt2mediacms live | %sdownloaded %d (fail %d) | uploaded %d (fail %d)\n",
		total, d.downloaded, d.downloadFailed, d.uploaded, d.uploadFailed))
	b.WriteString(strings.Repeat("-", 100) + "\n")

	writeWorkers := func(label string, workers map[int]workerState) {
		ids := make([]int, 0, len(workers))
		for id := range workers {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		if len(ids) == 0 {
			b.WriteString(fmt.Sprintf("%s: (not started)\n", label))
			return
		}
		for _, id := range ids {
			w := workers[id]
			line := fmt.Sprintf("%s-%d %s", label, id, w.activity)
			if w.videoID != "" {
				line += " " + w.videoID
			}
			if w.status != "" {
				line += fmt.Sprintf(" [%s]", w.status)
			}
			b.WriteString(line + "\n")
		}
	}
	writeWorkers("download", d.downloads)
	writeWorkers("upload", d.uploads)

	if len(d.events) > 0 {
		b.WriteString(strings.Repeat("-", 100) + "\n")
		for _, e := range d.events {
			b.WriteString(e + "\n")
		}
	}
	return b.String()
}
