package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"yt2mediacms/internal/model"
	"yt2mediacms/internal/ytdlp"
)

// fakeDownload writes a merged mp4 plus sidecar into the per-video dir,
// standing in for yt-dlp.
func fakeDownload(t *testing.T, failIDs map[string]bool, skipSidecar bool) func(context.Context, ytdlp.DownloadOptions) (ytdlp.DownloadResult, error) {
	t.Helper()
	return func(_ context.Context, opts ytdlp.DownloadOptions) (ytdlp.DownloadResult, error) {
		if failIDs[opts.VideoID] {
			return ytdlp.DownloadResult{}, fmt.Errorf("simulated download failure for %s", opts.VideoID)
		}
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return ytdlp.DownloadResult{}, err
		}
		base := filepath.Join(opts.OutputDir, "20240101-video-"+opts.VideoID)
		if err := os.WriteFile(base+".mp4", []byte("video"), 0o644); err != nil {
			return ytdlp.DownloadResult{}, err
		}
		if !skipSidecar {
			sidecar := fmt.Sprintf(`{"title":"Video %s","upload_date":"20240101"}`, opts.VideoID)
			if err := os.WriteFile(base+".info.json", []byte(sidecar), 0o644); err != nil {
				return ytdlp.DownloadResult{}, err
			}
		}
		return ytdlp.DownloadResult{}, nil
	}
}

func collectArtifacts() (func(model.DownloadedArtifact), func() []model.DownloadedArtifact) {
	var mu sync.Mutex
	var got []model.DownloadedArtifact
	add := func(a model.DownloadedArtifact) {
		mu.Lock()
		got = append(got, a)
		mu.Unlock()
	}
	snapshot := func() []model.DownloadedArtifact {
		mu.Lock()
		defer mu.Unlock()
		return append([]model.DownloadedArtifact(nil), got...)
	}
	return add, snapshot
}

func TestDownloadPoolProcessesAllTasks(t *testing.T) {
	add, snapshot := collectArtifacts()
	pool := NewDownloadPool(t.TempDir(), 2, add, nil, nil)
	pool.download = fakeDownload(t, nil, false)
	pool.pollTimeout = 10 * time.Millisecond

	pool.Start(context.Background())
	pool.AddAll([]model.VideoTask{{ID: "v1"}, {ID: "v2"}, {ID: "v3"}})
	pool.MarkNoMoreWork()
	pool.Wait()

	artifacts := snapshot()
	if len(artifacts) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(artifacts))
	}
	if pool.Downloaded() != 3 || pool.Failed() != 0 {
		t.Fatalf("counters = (%d, %d)", pool.Downloaded(), pool.Failed())
	}
	for _, a := range artifacts {
		if a.Meta.Title == "" {
			t.Errorf("artifact %s has empty metadata title", a.VideoID)
		}
	}
}

func TestDownloadPoolFailureStillDrains(t *testing.T) {
	add, snapshot := collectArtifacts()
	pool := NewDownloadPool(t.TempDir(), 1, add, nil, nil)
	pool.download = fakeDownload(t, map[string]bool{"bad": true}, false)
	pool.pollTimeout = 10 * time.Millisecond

	pool.Start(context.Background())
	pool.AddAll([]model.VideoTask{{ID: "v1"}, {ID: "bad"}, {ID: "v2"}})
	pool.MarkNoMoreWork()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not drain past a failed task")
	}

	if pool.Downloaded() != 2 || pool.Failed() != 1 {
		t.Fatalf("counters = (%d, %d), want (2, 1)", pool.Downloaded(), pool.Failed())
	}
	if got := len(snapshot()); got != 2 {
		t.Fatalf("callback ran %d times, want 2 (failed task must not reach callback)", got)
	}
}

func TestDownloadPoolAbortDropsBacklog(t *testing.T) {
	add, snapshot := collectArtifacts()
	pool := NewDownloadPool(t.TempDir(), 1, add, nil, nil)
	pool.pollTimeout = 10 * time.Millisecond

	started := make(chan string, 1)
	release := make(chan struct{})
	real := fakeDownload(t, nil, false)
	pool.download = func(ctx context.Context, opts ytdlp.DownloadOptions) (ytdlp.DownloadResult, error) {
		started <- opts.VideoID
		<-release
		return real(ctx, opts)
	}

	pool.Start(context.Background())
	pool.AddAll([]model.VideoTask{{ID: "v1"}, {ID: "v2"}, {ID: "v3"}})
	pool.MarkNoMoreWork()

	<-started
	pool.Abort()
	close(release)

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not exit after Abort")
	}

	// Only the in-flight task completes; the backlog is dropped.
	if got := len(snapshot()); got != 1 {
		t.Fatalf("callback ran %d times, want 1", got)
	}
}

func TestDownloadPoolMissingSidecarDegradesToEmptyMetadata(t *testing.T) {
	add, snapshot := collectArtifacts()
	pool := NewDownloadPool(t.TempDir(), 1, add, nil, nil)
	pool.download = fakeDownload(t, nil, true)
	pool.pollTimeout = 10 * time.Millisecond
	pool.sidecarDelay = time.Millisecond

	pool.Start(context.Background())
	pool.Add(model.VideoTask{ID: "v1"})
	pool.MarkNoMoreWork()
	pool.Wait()

	artifacts := snapshot()
	if len(artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(artifacts))
	}
	meta := artifacts[0].Meta
	if meta.Title != "" || meta.UploadDate != "" || len(meta.Tags) != 0 {
		t.Fatalf("expected zero-value metadata, got %+v", meta)
	}
}
