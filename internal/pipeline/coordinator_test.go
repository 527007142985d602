package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yt2mediacms/internal/mediacms"
	"yt2mediacms/internal/model"
	"yt2mediacms/internal/youtube"
)

// fakeLister serves a canned video list.
type fakeLister struct {
	videos    []youtube.Video
	lastAfter time.Time
}

func (f *fakeLister) ChannelInfo(context.Context, string) (model.ChannelInfo, error) {
	return model.ChannelInfo{}, nil
}

func (f *fakeLister) ListVideos(_ context.Context, _ string, publishedAfter time.Time) ([]youtube.Video, error) {
	f.lastAfter = publishedAfter
	var out []youtube.Video
	for _, v := range f.videos {
		// The real API treats publishedAfter as inclusive.
		if publishedAfter.IsZero() || !v.Published.Before(publishedAfter) {
			out = append(out, v)
		}
	}
	youtube.SortOldestFirst(out)
	return out, nil
}

// installFakeYTDLP puts a yt-dlp stand-in on PATH that writes the
// merged file, sidecar, and thumbnail into the -o target directory.
func installFakeYTDLP(t *testing.T, failIDs ...string) {
	t.Helper()
	fakeBin := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(fakeBin, 0o755); err != nil {
		t.Fatal(err)
	}

	failCase := ""
	for _, id := range failIDs {
		failCase += fmt.Sprintf("if [ \"$id\" = %q ]; then exit 1; fi\n", id)
	}

	script := `#!/usr/bin/env bash
set -euo pipefail
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
url="$prev"
id="${url##*v=}"
` + failCase + `
dir="$(dirname "$out")"
mkdir -p "$dir"
base="$dir/20240101-video-$id"
echo "video" > "$base.mp4"
printf '{"title":"Video %s","upload_date":"20240101","duration":10,"view_count":5}' "$id" > "$base.info.json"
echo "jpg" > "$base.jpg"
`
	if err := os.WriteFile(filepath.Join(fakeBin, "yt-dlp"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", fakeBin+":"+os.Getenv("PATH"))
}

func testSyncOptions(t *testing.T) SyncOptions {
	return SyncOptions{
		OutputDir:       filepath.Join(t.TempDir(), "downloads"),
		DownloadWorkers: 2,
		UploadWorkers:   1,
		Delay:           time.Millisecond,
		WaitForEncoding: false,
	}
}

func TestCoordinatorSyncFull(t *testing.T) {
	installFakeYTDLP(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lister := &fakeLister{videos: []youtube.Video{
		{ID: "v1", Published: base},
		{ID: "v2", Published: base.Add(time.Hour)},
		{ID: "v3", Published: base.Add(2 * time.Hour)},
	}}
	server := newFakeServer()

	coord := NewCoordinator(lister, server, testSyncOptions(t))
	stats, err := coord.SyncFull(context.Background(), "https://www.youtube.com/channel/UCabc")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if stats.Enumerated != 3 || stats.Downloaded != 3 || stats.Uploaded != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.DownloadFailed != 0 || stats.UploadFailed != 0 {
		t.Fatalf("unexpected failures: %+v", stats)
	}
}

func TestCoordinatorConservationUnderDownloadFailure(t *testing.T) {
	installFakeYTDLP(t, "bad")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lister := &fakeLister{videos: []youtube.Video{
		{ID: "v1", Published: base},
		{ID: "bad", Published: base.Add(time.Hour)},
		{ID: "v2", Published: base.Add(2 * time.Hour)},
	}}
	server := newFakeServer()

	coord := NewCoordinator(lister, server, testSyncOptions(t))
	stats, err := coord.SyncFull(context.Background(), "UCabc")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	// Every enumerated video is accounted for exactly once.
	if stats.Downloaded+stats.DownloadFailed != int64(stats.Enumerated) {
		t.Fatalf("download conservation violated: %+v", stats)
	}
	if stats.Uploaded+stats.UploadFailed != stats.Downloaded {
		t.Fatalf("upload conservation violated: %+v", stats)
	}
	if stats.DownloadFailed != 1 || stats.Uploaded != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestCoordinatorSyncNewFiltersStrictlyAfterWatermark(t *testing.T) {
	installFakeYTDLP(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lister := &fakeLister{videos: []youtube.Video{
		{ID: "old", Published: base.Add(-time.Hour)},
		{ID: "atmark", Published: base},
		{ID: "new1", Published: base.Add(time.Hour)},
		{ID: "new2", Published: base.Add(2 * time.Hour)},
	}}
	server := newFakeServer()
	server.hasLatest = true
	server.latest = mediacms.MediaSummary{Title: "atmark", AddDate: base.Format(time.RFC3339)}

	coord := NewCoordinator(lister, server, testSyncOptions(t))
	stats, err := coord.SyncNew(context.Background(), "UCabc")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if stats.Enumerated != 2 {
		t.Fatalf("enumerated = %d, want 2 (strictly after watermark)", stats.Enumerated)
	}
	for _, e := range server.eventLog() {
		if e == "upload:atmark" || e == "upload:old" {
			t.Fatalf("watermark video re-synced: %v", server.eventLog())
		}
	}
}

func TestCoordinatorSyncNewIsIdempotent(t *testing.T) {
	installFakeYTDLP(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lister := &fakeLister{videos: []youtube.Video{
		{ID: "v1", Published: base},
	}}
	server := newFakeServer()
	server.hasLatest = true
	server.latest = mediacms.MediaSummary{Title: "v1", AddDate: base.Format(time.RFC3339)}

	coord := NewCoordinator(lister, server, testSyncOptions(t))
	stats, err := coord.SyncNew(context.Background(), "UCabc")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if stats.Enumerated != 0 {
		t.Fatalf("second incremental run enumerated %d videos, want 0", stats.Enumerated)
	}
}

func TestCoordinatorSyncVideoIDs(t *testing.T) {
	installFakeYTDLP(t)
	server := newFakeServer()

	coord := NewCoordinator(&fakeLister{}, server, testSyncOptions(t))
	stats, err := coord.SyncVideoIDs(context.Background(), []string{"a1", "b2"})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if stats.Uploaded != 2 {
		t.Fatalf("uploaded = %d, want 2", stats.Uploaded)
	}

	if _, err := coord.SyncVideoIDs(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty video ID list")
	}
}

// installStallingYTDLP puts a yt-dlp stand-in on PATH that blocks until
// killed. exec replaces the shell so the context kill reaches it.
func installStallingYTDLP(t *testing.T) {
	t.Helper()
	fakeBin := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(fakeBin, 0o755); err != nil {
		t.Fatal(err)
	}
	script := "#!/usr/bin/env bash\nexec sleep 30\n"
	if err := os.WriteFile(filepath.Join(fakeBin, "yt-dlp"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", fakeBin+":"+os.Getenv("PATH"))
}

func TestCoordinatorCancelMidRunReturns(t *testing.T) {
	installStallingYTDLP(t)
	server := newFakeServer()

	coord := NewCoordinator(&fakeLister{}, server, testSyncOptions(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		_, err := coord.SyncVideoIDs(ctx, []string{"a", "b", "c", "d"})
		errCh <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("sync did not return after cancellation")
	}
}

func TestCoordinatorRejectsConcurrentRunsOnSameOutputDir(t *testing.T) {
	installFakeYTDLP(t)
	opts := testSyncOptions(t)
	server := newFakeServer()

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Simulate another process holding the sync lock.
	if err := os.MkdirAll(filepath.Join(opts.OutputDir, ".sync.lock"), 0o755); err != nil {
		t.Fatal(err)
	}

	coord := NewCoordinator(&fakeLister{}, server, opts)
	if _, err := coord.SyncVideoIDs(context.Background(), []string{"v1"}); err == nil {
		t.Fatal("expected lock contention error")
	}
}
