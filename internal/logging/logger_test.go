package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(w io.Writer, format string) *slog.Logger {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	var handler slog.Handler
	if format == "json" {
		handler = newJSONHandler(w, levelVar)
	} else {
		handler = newConsoleHandler(w, levelVar)
	}
	return slog.New(handler)
}

func TestConsoleHandlerFoldsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newTestLogger(&buf, "console"), "watcher")

	logger.Info("scan complete", Int("files", 3))

	line := buf.String()
	if !strings.Contains(line, "watcher: scan complete") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "files=3") {
		t.Fatalf("expected attrs in line, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component attr should be folded into prefix: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, "console")

	logger.Warn("job failed", String("reason", "rate limit hit"))

	if !strings.Contains(buf.String(), `reason="rate limit hit"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, "json")

	logger.Error("persist failed", String("path", "/tmp/a.md"))

	line := buf.String()
	for _, want := range []string{`"ts":`, `"level":"error"`, `"msg":"persist failed"`, `"path":"/tmp/a.md"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %q", want, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled at every level")
	}
}
