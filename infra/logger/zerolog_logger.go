package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// Setup applies cfg process wide: the global level and the output format
// used by loggers created afterwards.
func Setup(cfg Config) error {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return fmt.Errorf("logging level: %w", err)
		}
		level = l
	}
	zerolog.SetGlobalLevel(level)
	switch strings.ToLower(cfg.Format) {
	case "":
	case "json", "console":
		outputFormat = strings.ToLower(cfg.Format)
	default:
		return fmt.Errorf("unknown logging format %q", cfg.Format)
	}
	return nil
}

var (
	outputFormat string
	output       io.Writer = os.Stderr
)

// NewZerologLogger creates a ZerologLogger tagged with the component field.
// The console writer is used when APP_ENV=dev or the console format is set.
func NewZerologLogger(component string) Logger {
	return &ZerologLogger{log: newZerolog(output, component)}
}

// NewWithWriter creates a logger writing JSON lines to w.
func NewWithWriter(w io.Writer, component string) Logger {
	return &ZerologLogger{log: zerolog.New(w).With().Timestamp().Str("component", component).Logger()}
}

func newZerolog(w io.Writer, component string) zerolog.Logger {
	console := outputFormat == "console" || (outputFormat == "" && strings.ToLower(os.Getenv("APP_ENV")) == "dev")
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Str("component", component).Logger()
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
