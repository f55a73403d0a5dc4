package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(slog.LevelInfo)

	New("sim").Info("run finished", "variant", "sir")

	out := buf.String()
	if !strings.Contains(out, "component=sim") {
		t.Errorf("expected component attribute, got %q", out)
	}
	if !strings.Contains(out, "variant=sir") {
		t.Errorf("expected variant attribute, got %q", out)
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(slog.LevelInfo)

	log := New("sim")
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %q", buf.String())
	}

	SetLevel(slog.LevelDebug)
	defer SetLevel(slog.LevelInfo)
	log.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug record missing after SetLevel: %q", buf.String())
	}
}
