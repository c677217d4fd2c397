package logger

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New constructs a JSON slog logger. LOG_FILE additionally mirrors records
// into a size rotated file.
func New() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	handler := slog.NewJSONHandler(output(os.Getenv("LOG_FILE")), &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "aqi-advisor")
}

func output(path string) io.Writer {
	path = strings.TrimSpace(path)
	if path == "" {
		return os.Stdout
	}
	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    envInt("LOG_FILE_MAX_MB", 50),
		MaxBackups: envInt("LOG_FILE_MAX_BACKUPS", 5),
		MaxAge:     envInt("LOG_FILE_MAX_AGE_DAYS", 14),
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, rotating)
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewConsole builds a text logger for command line tools. level falls back to
// LOG_LEVEL when empty.
func NewConsole(w io.Writer, level string) *slog.Logger {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}
