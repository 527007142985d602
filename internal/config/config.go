package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"yt2mediacms/internal/fsutil"
)

const configSchemaVersion = 1

var ErrNoChannelsConfigured = errors.New("no channels configured")

// Channel binds one YouTube channel to a MediaCMS account token. The
// token decides which MediaCMS user receives the channel's videos.
type Channel struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	MediaCMSToken   string `json:"mediacms_token"`
	Active          *bool  `json:"active,omitempty"`
	OutputDir       string `json:"output_dir,omitempty"`
	DownloadWorkers int    `json:"download_workers,omitempty"`
	UploadWorkers   int    `json:"upload_workers,omitempty"`
}

// GlobalSettings are runtime defaults applied when neither the channel
// entry nor a CLI flag overrides them.
type GlobalSettings struct {
	OutputDir       string `json:"output_dir,omitempty"`
	DownloadWorkers int    `json:"download_workers,omitempty"`
	UploadWorkers   int    `json:"upload_workers,omitempty"`
	DelaySeconds    int    `json:"delay_seconds,omitempty"`
	WaitForEncoding *bool  `json:"wait_for_encoding,omitempty"`
	KeepFiles       bool   `json:"keep_files,omitempty"`
	LogLevel        string `json:"log_level,omitempty"`
	LogFormat       string `json:"log_format,omitempty"`
}

// Registry is the canonical on-disk config file.
type Registry struct {
	SchemaVersion int            `json:"schema_version"`
	UpdatedAt     string         `json:"updated_at"`
	MediaCMSURL   string         `json:"mediacms_url"`
	YouTubeAPIKey string         `json:"youtube_api_key,omitempty"`
	Global        GlobalSettings `json:"global,omitempty"`
	Channels      []Channel      `json:"channels"`
}

// RuntimeSettings is the fully resolved per-sync configuration after
// layering CLI overrides over channel entry over global settings.
type RuntimeSettings struct {
	OutputDir       string
	DownloadWorkers int
	UploadWorkers   int
	Delay           time.Duration
	WaitForEncoding bool
	KeepFiles       bool
}

func normalizeConfigPath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return DefaultConfigPath
	}
	return p
}

func defaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		OutputDir:       DefaultOutputDir,
		DownloadWorkers: DefaultDownloadWorkers,
		UploadWorkers:   DefaultUploadWorkers,
		DelaySeconds:    DefaultDelaySeconds,
		WaitForEncoding: boolPtr(true),
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
	}
}

func normalizeGlobalSettings(raw GlobalSettings) GlobalSettings {
	norm := raw
	norm.OutputDir = strings.TrimSpace(norm.OutputDir)
	if norm.OutputDir == "" {
		norm.OutputDir = DefaultOutputDir
	}
	if norm.DownloadWorkers <= 0 {
		norm.DownloadWorkers = DefaultDownloadWorkers
	}
	if norm.UploadWorkers <= 0 {
		norm.UploadWorkers = DefaultUploadWorkers
	}
	if norm.DelaySeconds < 0 {
		norm.DelaySeconds = DefaultDelaySeconds
	}
	if norm.WaitForEncoding == nil {
		norm.WaitForEncoding = boolPtr(true)
	}
	norm.LogLevel = normalizeLogLevel(norm.LogLevel)
	norm.LogFormat = normalizeLogFormat(norm.LogFormat)
	return norm
}

func normalizeLogLevel(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return "debug"
	case "", "info":
		return "info"
	case "warn", "warning":
		return "warn"
	case "error":
		return "error"
	default:
		return DefaultLogLevel
	}
}

func normalizeLogFormat(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return "json"
	default:
		return DefaultLogFormat
	}
}

// EnsureRegistry loads the config file, creating a skeleton one on first
// use so that init/add flows work against a missing file.
func EnsureRegistry(configPath string) (Registry, bool, error) {
	path := normalizeConfigPath(configPath)
	reg, err := loadRegistry(path)
	if err == nil {
		return reg, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Registry{}, false, err
	}

	reg = Registry{
		SchemaVersion: configSchemaVersion,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339),
		Global:        defaultGlobalSettings(),
		Channels:      []Channel{},
	}
	if err := saveRegistry(path, reg); err != nil {
		return Registry{}, false, err
	}
	applyEnvOverrides(&reg)
	return reg, true, nil
}

func loadRegistry(path string) (Registry, error) {
	var reg Registry
	if err := fsutil.ReadJSON(path, &reg); err != nil {
		return Registry{}, err
	}
	reg.Global = normalizeGlobalSettings(reg.Global)
	applyEnvOverrides(&reg)
	return reg, nil
}

func saveRegistry(path string, reg Registry) error {
	if reg.SchemaVersion == 0 {
		reg.SchemaVersion = configSchemaVersion
	}
	return fsutil.WriteJSON(path, reg)
}

// applyEnvOverrides lets credentials live outside the config file
// (.env loading happens in main before the registry is read).
func applyEnvOverrides(reg *Registry) {
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "MEDIACMS_URL")); v != "" {
		reg.MediaCMSURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "YT_API_KEY")); v != "" {
		reg.YouTubeAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "MEDIACMS_TOKEN")); v != "" {
		for i := range reg.Channels {
			if strings.TrimSpace(reg.Channels[i].MediaCMSToken) == "" {
				reg.Channels[i].MediaCMSToken = v
			}
		}
	}
}

// Validate checks the parts every network-touching command requires.
func (r Registry) Validate() error {
	if strings.TrimSpace(r.MediaCMSURL) == "" {
		return fmt.Errorf("mediacms_url is required (config or %sMEDIACMS_URL)", EnvPrefix)
	}
	return nil
}

// ResolveRuntimeSettings layers CLI overrides over the channel entry over
// global settings. A nil override means "not set on the command line".
type RuntimeOverrides struct {
	OutputDir       string
	DownloadWorkers int
	UploadWorkers   int
	DelaySeconds    int
	WaitForEncoding *bool
	KeepFiles       *bool
}

func ResolveRuntimeSettings(ch Channel, global GlobalSettings, over RuntimeOverrides) RuntimeSettings {
	norm := normalizeGlobalSettings(global)

	out := RuntimeSettings{
		OutputDir:       firstNonEmpty(over.OutputDir, ch.OutputDir, norm.OutputDir),
		DownloadWorkers: firstPositive(over.DownloadWorkers, ch.DownloadWorkers, norm.DownloadWorkers),
		UploadWorkers:   firstPositive(over.UploadWorkers, ch.UploadWorkers, norm.UploadWorkers),
		WaitForEncoding: *norm.WaitForEncoding,
		KeepFiles:       norm.KeepFiles,
	}

	delay := norm.DelaySeconds
	if over.DelaySeconds > 0 {
		delay = over.DelaySeconds
	}
	out.Delay = time.Duration(delay) * time.Second

	if over.WaitForEncoding != nil {
		out.WaitForEncoding = *over.WaitForEncoding
	}
	if over.KeepFiles != nil {
		out.KeepFiles = *over.KeepFiles
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func boolPtr(v bool) *bool {
	return &v
}
