package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDownloadArgsShape(t *testing.T) {
	args := DownloadArgs(DownloadOptions{VideoID: "abc123", OutputDir: "/tmp/abc123"})
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--merge-output-format mp4",
		"--write-info-json",
		"--write-thumbnail",
		"--restrict-filenames",
		"%(upload_date)s-%(title)s-%(id)s.%(ext)s",
		"https://www.youtube.com/watch?v=abc123",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestDownloadVideoRequiresIDAndDir(t *testing.T) {
	ctx := context.Background()
	if _, err := DownloadVideo(ctx, DownloadOptions{OutputDir: "x"}); err == nil {
		t.Fatal("expected error for missing video ID")
	}
	if _, err := DownloadVideo(ctx, DownloadOptions{VideoID: "abc"}); err == nil {
		t.Fatal("expected error for missing output directory")
	}
}

func TestFindMergedFilePrefersLexicalFirst(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"20210601-b-vid2.mp4", "20210101-a-vid1.mp4", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := FindMergedFile(dir)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if filepath.Base(got) != "20210101-a-vid1.mp4" {
		t.Fatalf("got %q", got)
	}
}

func TestFindMergedFileEmpty(t *testing.T) {
	if _, err := FindMergedFile(t.TempDir()); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
