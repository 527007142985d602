package config

import (
	"io"
	"log/slog"
	"os"
)

// SetupLogger configures the process-wide slog logger from global
// settings. When logFile is non-empty, log lines go to both stderr and
// the file (the console may be taken over by the live dashboard).
func SetupLogger(global GlobalSettings, logFile string) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	switch normalizeLogLevel(global.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = func() { _ = f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if normalizeLogFormat(global.LogFormat) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
