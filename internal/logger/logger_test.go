package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) Entry {
	t.Helper()
	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log entry: %v (%q)", err, buf.String())
	}
	return entry
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Output:    &buf,
		MinLevel:  LevelDebug,
		WithStack: true,
	})

	if logger.output != &buf {
		t.Error("expected output to be set")
	}
	if logger.minLevel != LevelDebug {
		t.Errorf("expected minLevel DEBUG, got %s", logger.minLevel)
	}
	if logger.format != FormatJSON {
		t.Errorf("expected default json format, got %s", logger.format)
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *Logger)
		level Level
	}{
		{"debug", func(l *Logger) { l.Debug("m") }, LevelDebug},
		{"info", func(l *Logger) { l.Info("m") }, LevelInfo},
		{"warn", func(l *Logger) { l.Warn("m") }, LevelWarn},
		{"error", func(l *Logger) { l.Error("m", errors.New("boom")) }, LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(New(Config{Output: &buf, MinLevel: LevelDebug}))

			entry := decode(t, &buf)
			if entry.Level != tt.level {
				t.Errorf("expected level %s, got %s", tt.level, entry.Level)
			}
			if entry.Message != "m" {
				t.Errorf("expected message 'm', got %s", entry.Message)
			}
		})
	}
}

func TestErrorWithStack(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, MinLevel: LevelDebug, WithStack: true})

	logger.Error("failed", errors.New("boom"))

	entry := decode(t, &buf)
	if entry.Error != "boom" {
		t.Errorf("expected error 'boom', got %s", entry.Error)
	}
	if len(entry.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
}

func TestMinLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, MinLevel: LevelWarn})

	logger.Debug("hidden")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected nothing below WARN, got %q", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected WARN entry to be written")
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, MinLevel: LevelInfo})

	logger.WithFields(map[string]interface{}{"kind": "movie"}).
		WithFields(map[string]interface{}{"page": 2}).
		Info("page fetched")

	entry := decode(t, &buf)
	if entry.Context["kind"] != "movie" {
		t.Errorf("expected kind 'movie', got %v", entry.Context["kind"])
	}
	if entry.Context["page"] != float64(2) {
		t.Errorf("expected page 2, got %v", entry.Context["page"])
	}
}

func TestContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, MinLevel: LevelInfo})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "user-9")
	ctx = ContextWithSyncRunID(ctx, 42)

	logger.WithFields(map[string]interface{}{"id": 603}).InfoContext(ctx, "upserted")

	entry := decode(t, &buf)
	if entry.Context["request_id"] != "req-1" {
		t.Errorf("expected request_id 'req-1', got %v", entry.Context["request_id"])
	}
	if entry.Context["user_id"] != "user-9" {
		t.Errorf("expected user_id 'user-9', got %v", entry.Context["user_id"])
	}
	if entry.Context["sync_run_id"] != float64(42) {
		t.Errorf("expected sync_run_id 42, got %v", entry.Context["sync_run_id"])
	}
	if entry.Context["id"] != float64(603) {
		t.Errorf("expected id 603, got %v", entry.Context["id"])
	}
	if RequestIDFromContext(ctx) != "req-1" {
		t.Error("expected RequestIDFromContext to return stored id")
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("expected empty request id on bare context")
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, MinLevel: LevelInfo, Format: FormatText})

	logger.WithFields(map[string]interface{}{"b": 2, "a": "x"}).Error("sync failed", errors.New("upstream down"))

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "ERROR sync failed a=x b=2") {
		t.Errorf("unexpected text line %q", line)
	}
	if !strings.HasSuffix(line, `error="upstream down"`) {
		t.Errorf("expected error suffix, got %q", line)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"unknown": LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestInitializeLoggersWithFormat(t *testing.T) {
	defer InitializeLoggers("info", "info")

	InitializeLoggersWithFormat("debug", "error", "text")

	if AppLogger().minLevel != LevelDebug {
		t.Errorf("expected app logger DEBUG, got %s", AppLogger().minLevel)
	}
	if DatabaseLogger().minLevel != LevelError {
		t.Errorf("expected database logger ERROR, got %s", DatabaseLogger().minLevel)
	}
	if AppLogger().format != FormatText {
		t.Errorf("expected text format, got %s", AppLogger().format)
	}
}

func TestSetAppLogger(t *testing.T) {
	original := AppLogger()
	defer SetAppLogger(original)

	custom := New(Config{MinLevel: LevelError})
	SetAppLogger(custom)
	if AppLogger() != custom {
		t.Error("expected AppLogger to return the custom logger")
	}
}

func TestInitializeFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	closer := InitializeFileOutput(FileConfig{Path: path, MaxSizeMB: 1})
	defer func() {
		mu.Lock()
		sharedOutput = os.Stdout
		mu.Unlock()
		InitializeLoggers("info", "info")
	}()

	InitializeLoggers("info", "info")
	AppLogger().Info("to file")

	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("expected entry in log file, got %q", string(data))
	}
}

func TestGormAdapterTrace(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewGormAdapter(New(Config{Output: &buf, MinLevel: LevelDebug}), "debug")

	ctx := ContextWithRequestID(context.Background(), "req-7")
	adapter.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("syntax"))

	entry := decode(t, &buf)
	if entry.Level != LevelError {
		t.Errorf("expected ERROR entry, got %s", entry.Level)
	}
	if entry.Context["sql"] != "SELECT 1" {
		t.Errorf("expected sql in context, got %v", entry.Context["sql"])
	}
	if entry.Context["request_id"] != "req-7" {
		t.Errorf("expected request id propagated, got %v", entry.Context["request_id"])
	}

	buf.Reset()
	adapter.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gorm.ErrRecordNotFound)
	if strings.Contains(buf.String(), "ERROR") {
		t.Errorf("expected record-not-found to be ignored, got %q", buf.String())
	}
}

func TestMapToGormLevel(t *testing.T) {
	if mapToGormLevel("debug") != gormlogger.Info {
		t.Error("debug should show all queries")
	}
	if mapToGormLevel("error") != gormlogger.Error {
		t.Error("error should only show errors")
	}
	if mapToGormLevel("") != gormlogger.Warn {
		t.Error("default should be warn")
	}
}
