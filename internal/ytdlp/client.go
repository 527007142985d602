package ytdlp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const watchURLTemplate = "https://www.youtube.com/watch?v=%s"

// DownloadOptions configures a single-video yt-dlp invocation. Every
// video downloads into its own directory so concurrent workers never
// collide on output filenames.
type DownloadOptions struct {
	VideoID   string
	OutputDir string
	// Progress receives each output line as it is produced (optional).
	Progress func(line string)
	// LogWriter receives every output line verbatim (optional).
	LogWriter io.Writer
}

type DownloadResult struct {
	Command []string
}

type DependencyReport struct {
	YTDLPFound  bool   `json:"yt_dlp_found"`
	YTDLPPath   string `json:"yt_dlp_path,omitempty"`
	FFmpegFound bool   `json:"ffmpeg_found"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
}

func DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath("yt-dlp"); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	return report
}

func CheckDependencies() error {
	report := DependencyStatus()
	if !report.YTDLPFound {
		return fmt.Errorf("missing dependency: yt-dlp is not installed or not on PATH")
	}
	if !report.FFmpegFound {
		return fmt.Errorf("missing dependency: ffmpeg is required to merge video and audio streams and was not found on PATH")
	}
	return nil
}

// WatchURL converts a bare video ID into a full watch URL, which also
// resolves Shorts.
func WatchURL(videoID string) string {
	return fmt.Sprintf(watchURLTemplate, strings.TrimSpace(videoID))
}

// DownloadArgs returns the fixed argument set: best mp4 video+audio
// merged into one container, sidecar info JSON, thumbnail, restricted
// filenames, and a date-prefixed output template so lexical sort of the
// produced files is chronological.
func DownloadArgs(opts DownloadOptions) []string {
	return []string{
		"--ignore-errors",
		"--format", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"--merge-output-format", "mp4",
		"--postprocessor-args", "-c copy",
		"--write-info-json",
		"--write-thumbnail",
		"--restrict-filenames",
		"--no-colors",
		"-o", filepath.Join(opts.OutputDir, "%(upload_date)s-%(title)s-%(id)s.%(ext)s"),
		WatchURL(opts.VideoID),
	}
}

// DownloadVideo runs yt-dlp for one video. A non-zero exit is returned
// as an error and the video counts as failed; whatever partial files
// yt-dlp left behind stay in the directory for a later run to redo.
// Cancelling the context kills the yt-dlp process.
func DownloadVideo(ctx context.Context, opts DownloadOptions) (DownloadResult, error) {
	if strings.TrimSpace(opts.VideoID) == "" {
		return DownloadResult{}, fmt.Errorf("video ID is required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return DownloadResult{}, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return DownloadResult{}, fmt.Errorf("create output directory %s: %w", opts.OutputDir, err)
	}

	args := DownloadArgs(opts)
	if err := runCommand(ctx, args, opts); err != nil {
		return DownloadResult{Command: append([]string{"yt-dlp"}, args...)}, err
	}
	return DownloadResult{Command: append([]string{"yt-dlp"}, args...)}, nil
}

// FindMergedFile locates the merged .mp4 produced in dir. With multiple
// candidates the lexically first wins (date-prefixed names sort
// chronologically).
func FindMergedFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read download directory %s: %w", dir, err)
	}
	candidates := make([]string, 0, 1)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".mp4") {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no merged mp4 found in %s", dir)
	}
	sort.Strings(candidates)
	return filepath.Join(dir, candidates[0]), nil
}

func runCommand(ctx context.Context, args []string, opts DownloadOptions) error {
	cmd := exec.CommandContext(ctx, "yt-dlp", args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start yt-dlp: %w", err)
	}

	var errBuf strings.Builder
	var mu sync.Mutex
	var wg sync.WaitGroup

	read := func(r io.Reader, isStderr bool) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)
		scanner.Split(splitByNewlineOrCR)
		for scanner.Scan() {
			line := scanner.Text()
			mu.Lock()
			if isStderr {
				appendLimited(&errBuf, line)
			}
			if opts.LogWriter != nil {
				_, _ = io.WriteString(opts.LogWriter, line+"\n")
			}
			mu.Unlock()

			if opts.Progress != nil {
				opts.Progress(line)
			}
		}
	}

	wg.Add(2)
	go read(stdoutPipe, false)
	go read(stderrPipe, true)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		mu.Lock()
		defer mu.Unlock()
		return fmt.Errorf("yt-dlp failed: %w\n%s", err, strings.TrimSpace(errBuf.String()))
	}
	return nil
}

// yt-dlp rewrites progress lines with bare carriage returns.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func appendLimited(b *strings.Builder, line string) {
	const maxKeep = 8192
	if b.Len() >= maxKeep {
		return
	}
	toWrite := line + "\n"
	remain := maxKeep - b.Len()
	if len(toWrite) > remain {
		toWrite = toWrite[:remain]
	}
	b.WriteString(toWrite)
}
