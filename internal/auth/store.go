// Package auth keeps the API credentials and tells listeners when they change.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Store holds the current credentials, the auth-prompt flag and a version
// counter that increases every time credentials are (re)supplied.
type Store struct {
	path string

	mu      sync.Mutex
	creds   Credentials
	version uint64
	prompt  bool
	subs    []chan uint64
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "apinav")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "apinav")
}

// DefaultPath is where credentials live when no path is configured.
func DefaultPath() string {
	return filepath.Join(configDir(), "auth.json")
}

// Load reads credentials from path. A missing or corrupt file yields empty
// credentials.
func Load(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return s, nil
	}
	s.creds = creds
	return s, nil
}

// NewMemory returns a store that never touches disk.
func NewMemory() *Store {
	return &Store{}
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *Store) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// Header returns the Basic authorization header value, or "" when no
// credentials are set.
func (s *Store) Header() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return basicHeader(s.creds)
}

func basicHeader(c Credentials) string {
	user := strings.TrimSpace(c.Username)
	if user == "" && c.Password == "" {
		return ""
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+c.Password))
}

// Set stores new credentials, closes the prompt, bumps the version and
// notifies subscribers. The in-memory update happens even when saving fails.
func (s *Store) Set(username, password string) error {
	s.mu.Lock()
	s.creds = Credentials{Username: username, Password: password}
	s.prompt = false
	s.version++
	v := s.version
	err := s.save()
	subs := append([]chan uint64(nil), s.subs...)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- v:
		default:
			// slow reader: replace the pending version with the newest one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
	return err
}

// Clear forgets the credentials without signalling a change.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Subscribe returns a channel receiving the new version on every Set.
func (s *Store) Subscribe() <-chan uint64 {
	ch := make(chan uint64, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// RequirePrompt raises the "please authenticate" flag.
func (s *Store) RequirePrompt() {
	s.mu.Lock()
	s.prompt = true
	s.mu.Unlock()
}

func (s *Store) ClosePrompt() {
	s.mu.Lock()
	s.prompt = false
	s.mu.Unlock()
}

func (s *Store) PromptRequired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}
