package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// subjectFields identify what a log line is about. The console handler
// lifts them out of the attribute list into one bracketed block, in this order.
var subjectFields = []struct {
	key   string
	label string
}{
	{FieldRunID, "run"},
	{FieldEntryID, "entry"},
	{FieldSubmissionID, "submission"},
	{FieldAssignmentID, "assignment"},
	{FieldUserID, "user"},
	{FieldAttempt, "attempt"},
}

// shortRunIDLen keeps the run id block readable; the JSON output carries the full id.
const shortRunIDLen = 8

// consoleHandler renders one line per record:
//
//	2026-01-02T15:04:05Z WARN drain: conversion failed [run 1a2b3c4d entry 12 user 42] error_code=nopages error=...
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     slog.Level
	addSource bool
	attrs     []slog.Attr
	prefix    string
}

func newConsoleHandler(out io.Writer, level slog.Level) *consoleHandler {
	return &consoleHandler{
		mu:        &sync.Mutex{},
		out:       out,
		level:     level,
		addSource: level <= slog.LevelDebug,
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = appendFlat(slices.Clip(h.attrs), h.prefix, attrs)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := slices.Clone(h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		attrs = appendFlat(attrs, h.prefix, []slog.Attr{attr})
		return true
	})

	var (
		component string
		errorCode string
		subject   = make(map[string]slog.Value, len(subjectFields))
		rest      = make([]slog.Attr, 0, len(attrs))
	)
	for _, attr := range attrs {
		switch {
		case attr.Key == FieldComponent:
			component = attr.Value.String()
		case attr.Key == FieldErrorCode:
			errorCode = formatValue(attr.Value)
		case isSubjectField(attr.Key):
			subject[attr.Key] = attr.Value
		default:
			rest = append(rest, attr)
		}
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(record.Level.String())
	b.WriteByte(' ')
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	b.WriteString(strings.TrimSpace(record.Message))

	if len(subject) > 0 {
		b.WriteString(" [")
		first := true
		for _, field := range subjectFields {
			value, ok := subject[field.key]
			if !ok {
				continue
			}
			if !first {
				b.WriteByte(' ')
			}
			first = false
			b.WriteString(field.label)
			b.WriteByte(' ')
			text := formatValue(value)
			if field.key == FieldRunID && len(text) > shortRunIDLen {
				text = text[:shortRunIDLen]
			}
			b.WriteString(text)
		}
		b.WriteByte(']')
	}

	if errorCode != "" {
		b.WriteString(" error_code=")
		b.WriteString(errorCode)
	}
	for _, attr := range rest {
		b.WriteByte(' ')
		b.WriteString(attr.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(attr.Value))
	}
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			b.WriteString(" source=")
			b.WriteString(filepath.Base(src.File))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(src.Line))
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func isSubjectField(key string) bool {
	for _, field := range subjectFields {
		if field.key == key {
			return true
		}
	}
	return false
}

// appendFlat resolves attrs and flattens groups into dotted keys.
func appendFlat(dst []slog.Attr, prefix string, attrs []slog.Attr) []slog.Attr {
	for _, attr := range attrs {
		attr.Value = attr.Value.Resolve()
		if attr.Equal(slog.Attr{}) {
			continue
		}
		if attr.Value.Kind() == slog.KindGroup {
			groupPrefix := prefix
			if attr.Key != "" {
				groupPrefix = joinKey(prefix, attr.Key)
			}
			dst = appendFlat(dst, groupPrefix, attr.Value.Group())
			continue
		}
		attr.Key = joinKey(prefix, attr.Key)
		dst = append(dst, attr)
	}
	return dst
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = v.String()
		}
	default:
		s = v.String()
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}
