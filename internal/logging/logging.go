// Package logging wires log/slog and the std log package to one writer.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how logs are written.
type Options struct {
	Level  string // debug|info|warn|error
	Format string // console|json
	File   string // rotating file; stderr when empty

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the default slog logger and bridges std log to the same
// writer. It returns the writer so other loggers (gin, gorm) can share it.
func Setup(opts Options) io.Writer {
	var w io.Writer = os.Stderr
	if strings.TrimSpace(opts.File) != "" {
		w = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    defaultInt(opts.MaxSizeMB, 50),
			MaxBackups: defaultInt(opts.MaxBackups, 5),
			MaxAge:     defaultInt(opts.MaxAgeDays, 14),
			Compress:   true,
		}
	}

	slog.SetDefault(slog.New(NewHandler(w, opts.Level, opts.Format)))

	if strings.EqualFold(opts.Format, "json") {
		log.SetFlags(0)
	} else {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}
	log.SetOutput(w)
	return w
}

// NewHandler builds a text or JSON slog handler at the given level.
func NewHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func defaultInt(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
