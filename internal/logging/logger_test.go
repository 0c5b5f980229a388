package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"editpdf/internal/config"
	"editpdf/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, closeLog, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")
	if err := closeLog(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if !strings.Contains(content, "INFO hello") {
		t.Fatalf("expected info line in log file, got %q", content)
	}
}

func TestCloseReleasesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "close.log")
	logger, closeLog, err := logging.New(logging.Options{Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("before close")
	if err := closeLog(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	// Writes after close fail inside the handler and are dropped by slog.
	logger.Info("after close")
	content := readLog(t, logPath)
	if strings.Contains(content, "after close") {
		t.Fatalf("expected no writes after close, got %q", content)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLineLayout(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, closeLog, err := logging.New(logging.Options{Format: "console", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closeLog()

	ctx := logging.WithEntryID(logging.WithRunID(context.Background(), "1a2b3c4d-5e6f-7788-99aa-bbccddeeff00"), 12)
	drainLogger := logging.WithContext(ctx, logging.NewComponentLogger(logger, "drain"))
	drainLogger.Warn("conversion failed",
		logging.Int64(logging.FieldUserID, 42),
		logging.Int64(logging.FieldSubmissionID, 10),
		logging.Error(errors.New("no pages")),
		logging.String(logging.FieldErrorCode, "nopages"),
	)

	line := readLog(t, logPath)
	want := `WARN drain: conversion failed [run 1a2b3c4d entry 12 submission 10 user 42] error_code=nopages error="no pages"`
	if !strings.Contains(line, want) {
		t.Fatalf("expected %q in %q", want, line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source location at info level, got %q", line)
	}
}

func TestConsoleFlattensGroups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "groups.log")
	logger, closeLog, err := logging.New(logging.Options{Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closeLog()

	logger.WithGroup("batch").Info("drained", logging.Int("fetched", 3), logging.Group("users", logging.Int("failed", 1)))

	line := readLog(t, logPath)
	for _, want := range []string{"batch.fetched=3", "batch.users.failed=1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestConsoleDebugAddsSource(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, closeLog, err := logging.New(logging.Options{Level: "debug", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closeLog()

	logger.Debug("checking")
	if line := readLog(t, logPath); !strings.Contains(line, "source=logger_test.go:") {
		t.Fatalf("expected source location at debug level, got %q", line)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, closeLog, err := logging.New(logging.Options{Format: "json", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closeLog()

	ctx := logging.WithEntryID(logging.WithRunID(context.Background(), "run-1"), 42)
	logging.WithContext(ctx, logger).Info("processing")

	var payload map[string]any
	if err := json.Unmarshal([]byte(readLog(t, logPath)), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldRunID] != "run-1" {
		t.Fatalf("expected full run id, got %v", payload[logging.FieldRunID])
	}
	if payload[logging.FieldEntryID] != float64(42) {
		t.Fatalf("expected entry id 42, got %v", payload[logging.FieldEntryID])
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, closeLog, err := logging.New(logging.Options{Format: "json", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closeLog()

	logging.WarnWithContext(logger, "conversion failed", "conversion_failed", logging.String(logging.FieldErrorCode, "nopages"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(readLog(t, logPath)), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "conversion_failed" {
		t.Fatalf("expected event type, got %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
	if payload[logging.FieldErrorCode] != "nopages" {
		t.Fatalf("expected error code, got %v", payload[logging.FieldErrorCode])
	}
}

func TestWithContextWithoutFieldsReturnsSameLogger(t *testing.T) {
	logger := logging.NewNop()
	if got := logging.WithContext(context.Background(), logger); got != logger {
		t.Fatal("expected the same logger when context carries no fields")
	}
}
