// Package sysutil holds process bootstrap helpers: log level parsing and the
// root zerolog logger with optional file rotation.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
// Unknown values fall back to info. The applied level is returned.
func SetLogLevel(lvl string) zerolog.Level {
	var l zerolog.Level
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		l = zerolog.DebugLevel
	case "warn", "warning":
		l = zerolog.WarnLevel
	case "error":
		l = zerolog.ErrorLevel
	case "fatal":
		l = zerolog.FatalLevel
	case "panic":
		l = zerolog.PanicLevel
	default:
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
	return l
}

// LogOptions configures NewLogger.
type LogOptions struct {
	Level  string
	Pretty bool // console writer on stdout instead of JSON

	// File, when set, receives JSON logs in addition to stdout and is
	// rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// NewLogger builds the process logger and sets the global level. The
// returned closer flushes the rotating file, if any.
func NewLogger(opts LogOptions) (zerolog.Logger, io.Closer) {
	SetLogLevel(opts.Level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var stdout io.Writer = os.Stdout
	if opts.Pretty {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	w := stdout
	if strings.TrimSpace(opts.File) != "" {
		rot := RotatingFile(opts.File, opts.MaxSizeMB, opts.MaxBackups)
		w = zerolog.MultiLevelWriter(stdout, rot)
		closer = rot
	}
	return zerolog.New(w).With().Timestamp().Logger(), closer
}

// RotatingFile returns a size-rotated, gzip-compressed log file writer.
func RotatingFile(path string, maxSizeMB, maxBackups int) *lumberjack.Logger {
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
