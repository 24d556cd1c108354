package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(Config{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info().Str("stage", "load").Msg("hello")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(raw)
	if !strings.Contains(line, `"stage":"load"`) || !strings.Contains(line, `"message":"hello"`) {
		t.Fatalf("unexpected log line %q", line)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for bad level")
	}
}

func TestNewAppliesLevel(t *testing.T) {
	l, err := New(Config{Level: "warn", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("level = %v", l.GetLevel())
	}
}
