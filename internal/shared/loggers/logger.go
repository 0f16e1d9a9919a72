package loggers

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a wrapper around zerolog.Logger for convenience.
type Logger = zerolog.Logger

// Options controls where and how verbosely the process logs.
type Options struct {
	Level string
	// File enables a rotating file sink next to stdout when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New creates a zerolog logger writing JSON to stdout and, when configured,
// to a rotating log file. The returned closer releases the file sink.
// Returns an error if the log level string cannot be parsed.
func New(opts Options) (Logger, io.Closer, error) {
	zerologLevel, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		out = zerolog.MultiLevelWriter(os.Stdout, rotating)
		closer = rotating
	}

	logger := zerolog.New(out).
		Level(zerologLevel).
		With().
		Timestamp().
		Caller().
		Logger()

	return logger, closer, nil
}

// Ctx extracts a logger from the context.
// Returns a no-op logger if no logger is found in context.
var Ctx = func(ctx context.Context) *Logger {
	return zerolog.Ctx(ctx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
