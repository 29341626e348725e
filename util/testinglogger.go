package util

import (
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

type testingWriter struct {
	tb testing.TB
}

func (w testingWriter) Write(p []byte) (n int, err error) {
	w.tb.Helper()
	w.tb.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// NewTestingLogger returns a debug-level logger whose lines end up in the test output.
func NewTestingLogger(tb testing.TB) *log.Logger {
	return log.NewWithOptions(testingWriter{tb: tb}, log.Options{Level: log.DebugLevel})
}
