package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements the core logger interface using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger for the given component. The
// APP_ENV environment variable selects the output format (dev gets a
// console writer, anything else structured JSON) and LOG_LEVEL overrides
// the default info level.
func NewZerologLogger(component string) Logger {
	env := strings.ToLower(os.Getenv("APP_ENV"))
	var z zerolog.Logger
	if env == "dev" {
		writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		z = zerolog.New(writer).With().Timestamp().Str("component", component).Logger()
	} else {
		z = zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil && lvl != zerolog.NoLevel {
		z = z.Level(lvl)
	} else {
		z = z.Level(zerolog.InfoLevel)
	}
	return &ZerologLogger{log: z}
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
