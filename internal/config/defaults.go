package config

const (
	DefaultConfigPath = "config/config.json"

	DefaultOutputDir       = "youtube_downloads"
	DefaultDownloadWorkers = 1
	DefaultUploadWorkers   = 1
	DefaultDelaySeconds    = 5
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"

	// EnvPrefix is shared by all environment overrides (Y2M_MEDIACMS_URL,
	// Y2M_MEDIACMS_TOKEN, Y2M_YT_API_KEY).
	EnvPrefix = "Y2M_"
)
