package config

import (
	"os"
	"path/filepath"
	"strings"

	"yt2mediacms/internal/fsutil"
	"yt2mediacms/internal/ytdlp"
)

type DoctorOptions struct {
	ConfigPath string
	OutputDir  string
}

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type InitWorkspaceOptions struct {
	ConfigPath string
	OutputDir  string
}

type InitWorkspaceResult struct {
	ConfigPath       string       `json:"config_path"`
	OutputDir        string       `json:"output_dir"`
	CreatedConfig    bool         `json:"created_config"`
	CreatedOutputDir bool         `json:"created_output_dir"`
	DoctorResult     DoctorResult `json:"doctor"`
}

func Doctor(opts DoctorOptions) (DoctorResult, error) {
	configPath := normalizeConfigPath(opts.ConfigPath)
	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	checks := make([]DoctorCheck, 0, 4)
	dep := ytdlp.DependencyStatus()
	checks = append(checks, DoctorCheck{
		Name:    "dependency:yt-dlp",
		OK:      dep.YTDLPFound,
		Message: dependencyMessage(dep.YTDLPFound, dep.YTDLPPath, "yt-dlp"),
	})
	checks = append(checks, DoctorCheck{
		Name:    "dependency:ffmpeg",
		OK:      dep.FFmpegFound,
		Message: dependencyMessage(dep.FFmpegFound, dep.FFmpegPath, "ffmpeg"),
	})

	outOK, outMessage := ensureWritableDir(outputDir)
	checks = append(checks, DoctorCheck{
		Name:    "directory:output",
		OK:      outOK,
		Message: outMessage,
	})

	cfgOK, cfgMessage := ensureWritableDir(filepath.Dir(configPath))
	checks = append(checks, DoctorCheck{
		Name:    "directory:config",
		OK:      cfgOK,
		Message: cfgMessage,
	})

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}, nil
}

func InitWorkspace(opts InitWorkspaceOptions) (InitWorkspaceResult, error) {
	configPath := normalizeConfigPath(opts.ConfigPath)
	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	createdOutputDir := false
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		createdOutputDir = true
	}
	if err := fsutil.Mkdir(outputDir); err != nil {
		return InitWorkspaceResult{}, err
	}

	_, createdConfig, err := EnsureRegistry(configPath)
	if err != nil {
		return InitWorkspaceResult{}, err
	}

	doc, err := Doctor(DoctorOptions{ConfigPath: configPath, OutputDir: outputDir})
	if err != nil {
		return InitWorkspaceResult{}, err
	}

	return InitWorkspaceResult{
		ConfigPath:       configPath,
		OutputDir:        outputDir,
		CreatedConfig:    createdConfig,
		CreatedOutputDir: createdOutputDir,
		DoctorResult:     doc,
	}, nil
}

func dependencyMessage(ok bool, path, name string) string {
	if ok {
		return name + " found at " + path
	}
	return name + " not found on PATH"
}

func ensureWritableDir(path string) (bool, string) {
	if strings.TrimSpace(path) == "" {
		return false, "empty path"
	}
	if err := fsutil.Mkdir(path); err != nil {
		return false, err.Error()
	}
	f, err := os.CreateTemp(path, "yt2mediacms-check-*.tmp")
	if err != nil {
		return false, err.Error()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true, "writable"
}
