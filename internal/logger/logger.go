package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Service is attached to every log line so shipped logs can be told apart.
const Service = "busseva"

// Setup builds the process logger and sets the global level.
//   - level: trace, debug, info, warn, error, fatal or panic (info if unknown)
//   - format: "pretty" for console output, anything else for JSON lines
//   - file: optional rotating log file; it always receives JSON lines
func Setup(level, format, file string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	writers := []io.Writer{consoleWriter(format)}
	if file != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	log := zerolog.New(out).
		With().
		Timestamp().
		Str("service", Service).
		Logger()

	// Caller info is only worth its cost while debugging.
	if lvl <= zerolog.DebugLevel {
		log = log.With().Caller().Logger()
	}
	return log
}

func consoleWriter(format string) io.Writer {
	if format != "pretty" {
		return os.Stdout
	}
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}
