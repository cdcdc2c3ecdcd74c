package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// LevelEnvVar selects the log level when --verbose is not given.
	LevelEnvVar = "NIXSCAN_LOG_LEVEL"

	defaultLevel = zerolog.InfoLevel
)

var logger = newLogger(os.Stderr, defaultLevel)

func init() {
	// Errors created with stack capture enabled render their frames under
	// the "stack" field when logged with Stack().
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(cw).With().Timestamp().Logger().Level(level)
}

// Configure sets the log level. verbose forces debug logging; otherwise the
// level is read from $NIXSCAN_LOG_LEVEL, falling back to info for unset or
// unparseable values.
func Configure(verbose bool) {
	logger = logger.Level(levelFor(verbose, os.Getenv(LevelEnvVar)))
}

func levelFor(verbose bool, env string) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	if env == "" {
		return defaultLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(env))
	if err != nil || level == zerolog.NoLevel {
		return defaultLevel
	}
	return level
}

// SetOutput redirects logs to w, keeping the current level.
func SetOutput(w io.Writer) {
	logger = newLogger(w, logger.GetLevel())
}

// Logger returns the underlying structured logger, for callers that attach
// fields.
func Logger() *zerolog.Logger {
	return &logger
}

func Debugf(format string, v ...interface{}) {
	logger.Debug().Msgf(format, v...)
}

// Diagnostic logs err as a single error event tagged with its kind. The
// stack is included when err captured one.
func Diagnostic(err error, kind, msg string) {
	logger.Error().Stack().Err(err).Str("kind", kind).Msg(msg)
}
