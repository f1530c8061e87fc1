package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONToBuffers(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("path", "/a").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"path":"/a"`) || !strings.Contains(out, `"message":"shown"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("nonsense", &buf)
	log.Debug().Msg("debug")
	log.Info().Msg("info")
	if strings.Contains(buf.String(), `"message":"debug"`) || !strings.Contains(buf.String(), `"message":"info"`) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "apinav.log")
	w, closeFn, err := Open(path, os.Stderr)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	logger := New("info", w)
	logger.Info().Msg("to file")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "to file") {
		t.Fatalf("log file mismatch: %s %v", data, err)
	}
}
