package location

import (
	"sync"

	"github.com/kennedn/apinav/internal/navpath"
)

// History is a back/forward stack of location records.
type History struct {
	mu      sync.Mutex
	entries []navpath.Path
	index   int
}

func NewHistory() *History {
	return &History{index: -1}
}

// Push records p as a new entry, dropping any forward entries.
func (h *History) Push(p navpath.Path) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], p.Clone())
	h.index = len(h.entries) - 1
}

// Replace overwrites the current entry, or pushes when empty.
func (h *History) Replace(p navpath.Path) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		h.entries = []navpath.Path{p.Clone()}
		h.index = 0
		return
	}
	h.entries[h.index] = p.Clone()
}

func (h *History) Back() (navpath.Path, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index <= 0 {
		return nil, false
	}
	h.index--
	return h.entries[h.index].Clone(), true
}

func (h *History) Forward() (navpath.Path, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 || h.index >= len(h.entries)-1 {
		return nil, false
	}
	h.index++
	return h.entries[h.index].Clone(), true
}

func (h *History) Current() (navpath.Path, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		return nil, false
	}
	return h.entries[h.index].Clone(), true
}

// Len is the number of recorded entries, forward ones included.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
