// Package logger is a small leveled logging façade built on log/slog,
// reproducing gcsfuse's internal/logger package: custom TRACE/OFF levels
// on top of slog's own DEBUG/INFO/WARN/ERROR, a pluggable text/JSON wire
// format, and lumberjack-backed file rotation.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lunaixsky/vfscore/internal/config"
)

// Custom severity levels, layered on slog's int scale so TRACE sits below
// slog.LevelDebug and OFF sits above slog.LevelError.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(12)
)

var levelNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARNING",
	LevelError: "ERROR",
	LevelOff:   "OFF",
}

func severityName(l slog.Level) string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return l.String()
}

func severityFromName(s string) (slog.Level, bool) {
	switch s {
	case "TRACE":
		return LevelTrace, true
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARNING", "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "OFF":
		return LevelOff, true
	default:
		return 0, false
	}
}

// loggerFactory owns the writer, the configured level, and the output
// format, and knows how to rebuild the *slog.Logger whenever any of those
// change (SetLogFormat, InitLogFile).
type loggerFactory struct {
	mu              sync.Mutex
	file            io.Writer
	level           *slog.LevelVar
	format          string
	logRotateConfig config.LogRotateConfig
	sysWriter       io.Writer
}

var (
	defaultLogger        *slog.Logger
	defaultLoggerFactory *loggerFactory
	once                 sync.Once
)

func initDefault() {
	lv := &slog.LevelVar{}
	lv.Set(LevelInfo)
	defaultLoggerFactory = &loggerFactory{
		file:      os.Stderr,
		level:     lv,
		format:    "text",
		sysWriter: os.Stderr,
	}
	defaultLogger = slog.New(createJsonOrTextHandler(defaultLoggerFactory.file, defaultLoggerFactory.level, "text"))
}

func factory() *loggerFactory {
	once.Do(initDefault)
	return defaultLoggerFactory
}

func logger() *slog.Logger {
	once.Do(initDefault)
	return defaultLogger
}

// createJsonOrTextHandler builds the slog.Handler for the given format
// ("json" or anything else, which is treated as "text").
func createJsonOrTextHandler(w io.Writer, programLevel *slog.LevelVar, format string) slog.Handler {
	if format == "json" {
		return &jsonHandler{w: w, level: programLevel}
	}
	return &textHandler{w: w, level: programLevel}
}

// SetLogFormat switches the default logger's wire format between "text"
// and "json" without touching the configured writer or level.
func SetLogFormat(format string) {
	f := factory()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.format = format
	defaultLogger = slog.New(createJsonOrTextHandler(f.file, f.level, format))
}

func setLoggingLevel(level string, programLevel *slog.LevelVar) {
	if lvl, ok := severityFromName(level); ok {
		programLevel.Set(lvl)
		return
	}
	programLevel.Set(LevelInfo)
}

// InitLogFile reconfigures the default logger from a logging config:
// severity, format, and (if FilePath is set) a lumberjack-rotated file
// instead of stderr.
func InitLogFile(cfg config.LoggingConfig) error {
	f := factory()
	f.mu.Lock()
	defer f.mu.Unlock()

	setLoggingLevel(cfg.Severity, f.level)
	f.format = cfg.Format

	var w io.Writer = os.Stderr
	if cfg.FilePath != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    nonZero(cfg.LogRotate.MaxFileSizeMB, 512),
			MaxBackups: cfg.LogRotate.BackupFileCount,
			Compress:   cfg.LogRotate.Compress,
		}
	}
	f.file = w
	defaultLogger = slog.New(createJsonOrTextHandler(f.file, f.level, f.format))
	return nil
}

func nonZero(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func logf(level slog.Level, format string, v ...any) {
	l := logger()
	if !l.Enabled(context.Background(), level) {
		return
	}
	msg := format
	if len(v) > 0 {
		msg = fmt.Sprintf(format, v...)
	}
	_ = l.Handler().Handle(context.Background(), slog.NewRecord(time.Now(), level, msg, 0))
}

func Tracef(format string, v ...any) { logf(LevelTrace, format, v...) }
func Debugf(format string, v ...any) { logf(LevelDebug, format, v...) }
func Infof(format string, v ...any)  { logf(LevelInfo, format, v...) }
func Warnf(format string, v ...any)  { logf(LevelWarn, format, v...) }
func Errorf(format string, v ...any) { logf(LevelError, format, v...) }
