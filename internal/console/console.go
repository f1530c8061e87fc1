// Package console is the status/response channel: the single place where
// request labels and their response bodies or status lines are shown.
package console

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const maxEntries = 50

type Entry struct {
	Label string
	Body  string
	At    time.Time
}

type Console struct {
	log zerolog.Logger

	mu      sync.RWMutex
	entries []Entry
	notify  chan struct{}
}

func New(log zerolog.Logger) *Console {
	return &Console{
		log:    log.With().Str("component", "console").Logger(),
		notify: make(chan struct{}, 1),
	}
}

// Record stores label and payload. Strings are kept verbatim and raw JSON
// keeps its key order and number text, only re-indented. Anything else is
// rendered as indented JSON.
func (c *Console) Record(label string, payload any) {
	e := Entry{Label: label, Body: render(payload), At: time.Now()}

	c.mu.Lock()
	c.entries = append(c.entries, e)
	if len(c.entries) > maxEntries {
		c.entries = c.entries[len(c.entries)-maxEntries:]
	}
	c.mu.Unlock()

	c.log.Debug().Str("label", label).Int("bytes", len(e.Body)).Msg("record")
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func render(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case json.RawMessage:
		var buf bytes.Buffer
		if err := json.Indent(&buf, v, "", "  "); err != nil {
			return string(v)
		}
		return buf.String()
	case error:
		return v.Error()
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// Last returns the most recent record.
func (c *Console) Last() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.entries) == 0 {
		return Entry{}, false
	}
	return c.entries[len(c.entries)-1], true
}

func (c *Console) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...)
}

// Updates fires (coalesced) after every Record.
func (c *Console) Updates() <-chan struct{} {
	return c.notify
}
