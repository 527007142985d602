package cli

import (
	"os"
	"path/filepath"
	"testing"

	"yt2mediacms/internal/config"
)

func installFakeTools(t *testing.T) {
	t.Helper()
	fakeBin := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(fakeBin, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, tool := range []string{"yt-dlp", "ffmpeg"} {
		script := "#!/usr/bin/env bash\nexit 0\n"
		if err := os.WriteFile(filepath.Join(fakeBin, tool), []byte(script), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", fakeBin+":"+os.Getenv("PATH"))
}

func TestChannelLifecycle(t *testing.T) {
	installFakeTools(t)
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config", "config.json")
	outputDir := filepath.Join(tmp, "downloads")

	if err := Run([]string{
		"init",
		"--config", configPath,
		"--output-dir", outputDir,
	}); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if err := Run([]string{
		"add",
		"--name", "demo",
		"--url", "https://www.youtube.com/channel/UCdemo",
		"--token", "tok-demo",
		"--config", configPath,
	}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	res, err := config.ListChannels(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(res.Channels))
	}
	if res.Channels[0].Name != "demo" || res.Channels[0].MediaCMSToken != "tok-demo" {
		t.Fatalf("unexpected channel: %+v", res.Channels[0])
	}

	if err := Run([]string{"list", "--config", configPath}); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if err := Run([]string{
		"remove",
		"--name", "demo",
		"--config", configPath,
		"--yes",
	}); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	res, err = config.ListChannels(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Channels) != 0 {
		t.Fatalf("expected no channels after remove, got %d", len(res.Channels))
	}
}

func TestAddRejectsDuplicateWithoutReplace(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	args := []string{
		"add",
		"--name", "demo",
		"--url", "https://www.youtube.com/channel/UCdemo",
		"--token", "tok-demo",
		"--config", configPath,
	}
	if err := Run(args); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := Run(args); err == nil {
		t.Fatal("expected duplicate add to fail without --replace")
	}
	if err := Run(append(args, "--replace")); err != nil {
		t.Fatalf("replace add failed: %v", err)
	}
}

func TestSettingsSetUpdatesGlobalDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	if err := Run([]string{
		"settings", "set",
		"--config", configPath,
		"--download-workers", "3",
		"--upload-workers", "2",
		"--delay", "10",
		"--wait-for-encoding", "false",
		"--keep-files", "true",
	}); err != nil {
		t.Fatalf("settings set failed: %v", err)
	}

	global, err := config.GetGlobalSettings(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if global.DownloadWorkers != 3 || global.UploadWorkers != 2 {
		t.Fatalf("worker counts = %d/%d", global.DownloadWorkers, global.UploadWorkers)
	}
	if global.DelaySeconds != 10 {
		t.Fatalf("delay = %d", global.DelaySeconds)
	}
	if global.WaitForEncoding == nil || *global.WaitForEncoding {
		t.Fatal("wait_for_encoding should be false")
	}
	if !global.KeepFiles {
		t.Fatal("keep_files should be true")
	}
}

func TestSettingsSetRejectsBadValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	if err := Run([]string{"settings", "set", "--config", configPath, "--download-workers", "0"}); err == nil {
		t.Fatal("expected error for --download-workers 0")
	}
	if err := Run([]string{"settings", "set", "--config", configPath, "--wait-for-encoding", "maybe"}); err == nil {
		t.Fatal("expected error for invalid --wait-for-encoding")
	}
}

func TestSyncRequiresTarget(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("Y2M_MEDIACMS_URL", "https://media.example.com")

	err := Run([]string{"sync", "--config", configPath})
	if err == nil {
		t.Fatal("expected sync without --channel/--all to fail")
	}
}

func TestVideosRequiresIDs(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("Y2M_MEDIACMS_URL", "https://media.example.com")

	if err := Run([]string{"videos", "--config", configPath, "--channel", "demo"}); err == nil {
		t.Fatal("expected videos without --ids to fail")
	}
}

func TestUnknownCommand(t *testing.T) {
	if err := Run([]string{"frobnicate"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
