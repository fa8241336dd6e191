/*
Package logx provides a structured logging wrapper based on zerolog.

It initializes the global logger, picks console or JSON output by environment,
and offers the level helpers (Debug, Info, Warn, Error, Fatal) plus
per-component and per-request child loggers.
*/
package logx

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger configures the global logger.
// Development: Debug level, colored ConsoleWriter on stderr.
// Production: Info level, JSON on stdout.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if isDevelopment {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetOutput redirects the global logger, keeping its level. Tests use it with io.Discard.
func SetOutput(w io.Writer) {
	log.Logger = log.Logger.Output(w)
}

// Logger returns the global logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// FromContext returns the logger stored in ctx by RequestLogger, or the global
// logger when the context carries none.
func FromContext(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return Logger()
}

// checkFields drops a field list with an odd length, since zerolog would
// misalign its keys and values.
func checkFields(level string, fields []any) []any {
	if len(fields)%2 == 0 {
		return fields
	}
	Logger().Warn().
		Int("fields_count", len(fields)).
		Str("log_level", level).
		Msg("Odd number of log fields, fields ignored")
	return nil
}

func emit(ev *zerolog.Event, level string, err error, msg string, fields []any) {
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Fields(checkFields(level, fields)).
		CallerSkipFrame(2).
		Msg(msg)
}

func Debug(msg string, fields ...any) {
	emit(Logger().Debug(), "Debug", nil, msg, fields)
}

// Info records msg at Info level with optional key-value fields.
func Info(msg string, fields ...any) {
	emit(Logger().Info(), "Info", nil, msg, fields)
}

func Warn(msg string, fields ...any) {
	emit(Logger().Warn(), "Warn", nil, msg, fields)
}

// Error records msg and err at Error level with optional key-value fields.
func Error(err error, msg string, fields ...any) {
	emit(Logger().Error(), "Error", err, msg, fields)
}

// Fatal logs like Error and then exits the process with status 1.
func Fatal(err error, msg string, fields ...any) {
	emit(Logger().Fatal(), "Fatal", err, msg, fields)
}
