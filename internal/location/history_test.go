package location

import (
	"testing"

	"github.com/kennedn/apinav/internal/navpath"
)

func TestPushBackForward(t *testing.T) {
	h := NewHistory()
	h.Replace(navpath.Root())
	h.Push(navpath.Path{"a"})
	h.Push(navpath.Path{"a", "b"})

	if h.Len() != 3 {
		t.Fatalf("len mismatch: %d", h.Len())
	}
	p, ok := h.Back()
	if !ok || !p.Equal(navpath.Path{"a"}) {
		t.Fatalf("back mismatch: %q %v", p, ok)
	}
	p, ok = h.Back()
	if !ok || !p.IsRoot() {
		t.Fatalf("back to root mismatch: %q %v", p, ok)
	}
	if _, ok := h.Back(); ok {
		t.Fatalf("back past first entry should fail")
	}
	p, ok = h.Forward()
	if !ok || !p.Equal(navpath.Path{"a"}) {
		t.Fatalf("forward mismatch: %q %v", p, ok)
	}
}

func TestPushDropsForwardEntries(t *testing.T) {
	h := NewHistory()
	h.Push(navpath.Path{"a"})
	h.Push(navpath.Path{"b"})
	h.Back()
	h.Push(navpath.Path{"c"})
	if h.Len() != 2 {
		t.Fatalf("forward entries not dropped: %d", h.Len())
	}
	if _, ok := h.Forward(); ok {
		t.Fatalf("forward should be empty")
	}
	cur, _ := h.Current()
	if !cur.Equal(navpath.Path{"c"}) {
		t.Fatalf("current mismatch: %q", cur)
	}
}

func TestReplaceKeepsLength(t *testing.T) {
	h := NewHistory()
	h.Replace(navpath.Path{"x"})
	h.Replace(navpath.Path{"y"})
	if h.Len() != 1 {
		t.Fatalf("replace grew history: %d", h.Len())
	}
	cur, ok := h.Current()
	if !ok || !cur.Equal(navpath.Path{"y"}) {
		t.Fatalf("current mismatch: %q", cur)
	}
}
