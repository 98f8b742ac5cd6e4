// Package log provides the prefixed, coloured component loggers used across the server.
package log

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
)

const colorReset = "\033[0m"

// Logger writes human-readable lines tagged with a component prefix.
// Implements i.Logger.
type Logger struct {
	z zerolog.Logger
}

// New creates a logger that tags every line with prefix, drawn in color.
func New(prefix, color string, w io.Writer) (*Logger, error) {
	if prefix == "" {
		return nil, errors.New("logger prefix is required")
	}
	if w == nil {
		return nil, errors.New("logger output is required")
	}

	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    color == "",
		FormatMessage: func(i interface{}) string {
			msg, _ := i.(string)
			return color + "[" + prefix + "]" + colorReset + " " + msg
		},
	}
	if color == "" {
		console.FormatMessage = func(i interface{}) string {
			msg, _ := i.(string)
			return "[" + prefix + "] " + msg
		}
	}

	return &Logger{z: zerolog.New(console).With().Timestamp().Logger()}, nil
}

func (l *Logger) Info(msg string) {
	l.z.Info().Msg(msg)
}

func (l *Logger) Warning(msg string) {
	l.z.Warn().Msg(msg)
}

func (l *Logger) Error(msg string) {
	l.z.Error().Msg(msg)
}
