package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// newPlainLogger returns a logger with color disabled so assertions
// don't have to account for ANSI escapes.
func newPlainLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(NewConsoleHandler(buf, WithLevel(level), WithoutColor(true)))
}

func TestConsoleHandlerFormat(t *testing.T) {
	t.Parallel()

	t.Run("level label and message", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		newPlainLogger(&buf, slog.LevelInfo).Warn("directory not under annex control", "path", "/data/sub-01")

		got := buf.String()
		if !strings.HasPrefix(got, "warn: directory not under annex control") {
			t.Errorf("unexpected line prefix: %q", got)
		}
		if !strings.Contains(got, "path=/data/sub-01") {
			t.Errorf("expected path attribute in %q", got)
		}
	})

	t.Run("levels below threshold are dropped", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		newPlainLogger(&buf, slog.LevelWarn).Info("quiet")
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("verbose keeps debug output", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		newPlainLogger(&buf, slog.LevelDebug).Debug("running step", "step", "brain-extract")
		if !strings.Contains(buf.String(), "running step") {
			t.Errorf("expected debug line, got %q", buf.String())
		}
	})
}

func TestConsoleHandlerAttrsAndGroups(t *testing.T) {
	t.Parallel()

	t.Run("WithAttrs attributes appear on every record", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := newPlainLogger(&buf, slog.LevelInfo).With("item", 3)
		logger.Info("mask written")
		if !strings.Contains(buf.String(), "item=3") {
			t.Errorf("expected item attribute, got %q", buf.String())
		}
	})

	t.Run("WithGroup prefixes attribute keys", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := newPlainLogger(&buf, slog.LevelInfo).WithGroup("annex")
		logger.Info("skipping", "reason", "untracked")
		if !strings.Contains(buf.String(), "annex.reason=untracked") {
			t.Errorf("expected grouped key, got %q", buf.String())
		}
	})

	t.Run("handler copies are independent", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		base := newPlainLogger(&buf, slog.LevelInfo)
		withItem := base.With("item", 1)

		base.Info("plain")
		if strings.Contains(buf.String(), "item=1") {
			t.Errorf("base logger leaked derived attrs: %q", buf.String())
		}
		buf.Reset()
		withItem.Info("derived")
		if !strings.Contains(buf.String(), "item=1") {
			t.Errorf("derived logger lost attrs: %q", buf.String())
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false, true)
	logger.Debug("hidden")
	logger.Info("shown")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug output should be suppressed without verbose: %q", got)
	}
	if !strings.Contains(got, "shown") {
		t.Errorf("info output missing: %q", got)
	}
}
