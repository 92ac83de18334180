package logger_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stratabuild/strata/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestLogger_Info(t *testing.T) {
	l := logger.New(slog.LevelInfo)
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Info("layer committed")

	out := buf.String()
	if !strings.Contains(out, "layer committed") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "level=INFO") {
		t.Errorf("expected INFO level in output, got %q", out)
	}
}

func TestLogger_Error(t *testing.T) {
	l := logger.New(slog.LevelInfo)
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Error(zerr.New("blob missing"))

	out := buf.String()
	if !strings.Contains(out, "blob missing") {
		t.Errorf("expected error message in output, got %q", out)
	}
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("expected ERROR level in output, got %q", out)
	}
}

func TestLogger_Warn(t *testing.T) {
	l := logger.New(slog.LevelInfo)
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Warn("cache bypassed")

	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected WARN level in output, got %q", buf.String())
	}
}
