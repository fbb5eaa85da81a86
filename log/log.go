// Package log provides the logging facilities of the repository, a thin
// package-level layer over github.com/rs/zerolog with a console writer, so
// callers never carry a logger value around.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Available log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// logTestWriterName is the magic output name which selects logTestWriter,
// used by tests and benchmarks to capture or discard the output.
const logTestWriterName = "logtest"

var (
	log      zerolog.Logger
	curLevel = LogLevelInfo

	logTestWriter io.Writer = io.Discard

	// panicOnInvalidChars panics when a formatted log line carries invalid
	// UTF-8, which catches binary data logged by mistake. Off by default,
	// tests flip it on explicitly.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"
)

func init() {
	level := LogLevelInfo
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		level = s
	}
	Init(level, "stderr", nil)
}

// Init initializes the global logger. Output can be "stdout", "stderr" or a
// file path. Level is one of the LogLevel constants. If errorOutput is not
// nil, error and fatal lines are duplicated to it.
func Init(level, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	var w io.Writer = zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    out != os.Stdout && out != os.Stderr,
	}
	if errorOutput != nil {
		w = zerolog.MultiLevelWriter(w, errorLevelWriter{errorOutput})
	}
	log = zerolog.New(w).With().Timestamp().Logger().Level(zerologLevel(level))
	curLevel = strings.ToLower(level)
}

// Level returns the level the logger was initialized with.
func Level() string { return curLevel }

// Logger returns the global zerolog logger.
func Logger() *zerolog.Logger { return &log }

func zerologLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		panic(fmt.Sprintf("invalid log level %q", level))
	}
}

// errorLevelWriter drops everything below the error level, so a secondary
// error output only ever sees errors.
type errorLevelWriter struct{ io.Writer }

func (w errorLevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return w.Write(p)
}

func checkInvalidChars(s string) {
	if panicOnInvalidChars && !utf8.ValidString(s) {
		panic(fmt.Sprintf("log line with invalid chars: %q", s))
	}
}

func send(ev *zerolog.Event, args ...any) {
	msg := fmt.Sprint(args...)
	checkInvalidChars(msg)
	ev.Msg(msg)
}

func sendf(ev *zerolog.Event, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	checkInvalidChars(msg)
	ev.Msg(msg)
}

func sendw(ev *zerolog.Event, msg string, keyvalues ...any) {
	checkInvalidChars(msg)
	for i := 0; i+1 < len(keyvalues); i += 2 {
		key, ok := keyvalues[i].(string)
		if !ok {
			key = fmt.Sprint(keyvalues[i])
		}
		ev = ev.Interface(key, keyvalues[i+1])
	}
	ev.Msg(msg)
}

// Debug logs the arguments at debug level.
func Debug(args ...any) { send(log.Debug(), args...) }

// Info logs the arguments at info level.
func Info(args ...any) { send(log.Info(), args...) }

// Warn logs the arguments at warning level.
func Warn(args ...any) { send(log.Warn(), args...) }

// Error logs the arguments at error level.
func Error(args ...any) { send(log.Error(), args...) }

// Fatal logs the arguments at fatal level and exits the program.
func Fatal(args ...any) { send(log.Fatal(), args...) }

// Debugf formats and logs at debug level.
func Debugf(format string, args ...any) { sendf(log.Debug(), format, args...) }

// Infof formats and logs at info level.
func Infof(format string, args ...any) { sendf(log.Info(), format, args...) }

// Warnf formats and logs at warning level.
func Warnf(format string, args ...any) { sendf(log.Warn(), format, args...) }

// Errorf formats and logs at error level.
func Errorf(format string, args ...any) { sendf(log.Error(), format, args...) }

// Fatalf formats and logs at fatal level and exits the program.
func Fatalf(format string, args ...any) { sendf(log.Fatal(), format, args...) }

// Debugw logs a message at debug level with alternating key-value fields.
func Debugw(msg string, keyvalues ...any) { sendw(log.Debug(), msg, keyvalues...) }

// Infow logs a message at info level with alternating key-value fields.
func Infow(msg string, keyvalues ...any) { sendw(log.Info(), msg, keyvalues...) }

// Warnw logs a message at warning level with alternating key-value fields.
func Warnw(msg string, keyvalues ...any) { sendw(log.Warn(), msg, keyvalues...) }

// Errorw logs an error at error level with alternating key-value fields.
func Errorw(err error, msg string) {
	ev := log.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	checkInvalidChars(msg)
	ev.Msg(msg)
}
