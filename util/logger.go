package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type PanicSafeLogger struct {
	f  *os.File
	mw io.Writer
}

var std *PanicSafeLogger

func NewPanicSafeLogger(f *os.File) *PanicSafeLogger {
	std = &PanicSafeLogger{
		f:  f,
		mw: io.MultiWriter(f, os.Stderr),
	}
	return std
}

func (l *PanicSafeLogger) Write(p []byte) (n int, err error) {
	return l.mw.Write(p)
}

func (l *PanicSafeLogger) Flush() error {
	return l.f.Sync()
}

func (l *PanicSafeLogger) Close() error {
	return l.f.Close()
}

func FlushLogger() error {
	if std == nil {
		return nil
	}
	return std.Flush()
}

// OpenLogFile creates a timestamped log file in the temp directory and returns a writer that
// sends everything to both the file and stderr.
func OpenLogFile(prefix string) (*PanicSafeLogger, string, error) {
	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.ReplaceAll(ts, ":", "-")
	ts = strings.ReplaceAll(ts, ".", "-")
	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s.log", prefix, ts))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, path, err
	}
	return NewPanicSafeLogger(f), path, nil
}

// NewLogger builds the structured logger used across the application. Unknown levels fall back
// to info.
func NewLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
	})
}

func LogPanic(logger *log.Logger, err any) {
	if logger == nil {
		logger = log.Default()
	}
	logger.Error("panicked", "panic", err, "stack", string(debug.Stack()))
	_ = FlushLogger()
}
