package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHeader(t *testing.T) {
	s := NewMemory()
	if got := s.Header(); got != "" {
		t.Fatalf("expected empty header, got %q", got)
	}
	_ = s.Set("  user ", "pass")
	// base64("user:pass")
	if got := s.Header(); got != "Basic dXNlcjpwYXNz" {
		t.Fatalf("header mismatch: %q", got)
	}
}

func TestSetPersistsAndBumpsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auth.json")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ch := s.Subscribe()
	s.RequirePrompt()
	if err := s.Set("u", "p"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if s.PromptRequired() {
		t.Fatalf("set should close the prompt")
	}
	if v := <-ch; v != 1 {
		t.Fatalf("version mismatch: %d", v)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if c := again.Credentials(); c.Username != "u" || c.Password != "p" {
		t.Fatalf("credentials not persisted: %+v", c)
	}
}

func TestSubscribeCoalescesToNewest(t *testing.T) {
	s := NewMemory()
	ch := s.Subscribe()
	_ = s.Set("a", "1")
	_ = s.Set("b", "2")
	_ = s.Set("c", "3")
	if v := <-ch; v != 3 {
		t.Fatalf("expected newest version 3, got %d", v)
	}
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra signal %d", v)
	default:
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Header() != "" {
		t.Fatalf("corrupt file should load empty credentials")
	}
}

func TestClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	s, _ := Load(path)
	_ = s.Set("u", "p")
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}
	if s.Header() != "" {
		t.Fatalf("credentials not cleared")
	}
}
