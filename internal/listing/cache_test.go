package listing

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kennedn/apinav/internal/gateway"
	"github.com/kennedn/apinav/internal/navpath"
	"github.com/rs/zerolog"
)

type fakeSender struct {
	responses map[string]*gateway.Response
	calls     []string
}

func (f *fakeSender) Send(ctx context.Context, path string, opts gateway.Options) *gateway.Response {
	f.calls = append(f.calls, path)
	if r, ok := f.responses[path]; ok {
		return r
	}
	return &gateway.Response{Status: http.StatusNotFound, Text: "not found"}
}

func okJSON(body string) *gateway.Response {
	return &gateway.Response{OK: true, Status: 200, JSON: []byte(body), Text: body}
}

type recorder struct {
	labels []string
}

func (r *recorder) Record(label string, payload any) {
	r.labels = append(r.labels, label)
}

func TestFetchOrGetCachesAndPersists(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, zerolog.Nop())
	s := &fakeSender{responses: map[string]*gateway.Response{
		"/livingroom": okJSON(`{"data":["lamp","tv","lamp"]}`),
	}}

	p := navpath.Path{"livingroom"}
	l, err := c.FetchOrGet(context.Background(), p, s)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if strings.Join(l, ",") != "lamp,tv,lamp" {
		t.Fatalf("listing mismatch: %v", l)
	}
	if c.LastPersist() != PersistOK || store.Saves() != 1 {
		t.Fatalf("expected one persisted save, got %s/%d", c.LastPersist(), store.Saves())
	}

	again, err := c.FetchOrGet(context.Background(), p, s)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if len(s.calls) != 1 {
		t.Fatalf("cached path was fetched again: %v", s.calls)
	}
	if strings.Join(again, ",") != "lamp,tv,lamp" {
		t.Fatalf("cached listing mismatch: %v", again)
	}

	reloaded := New(store, zerolog.Nop())
	if got, ok := reloaded.Get(p); !ok || len(got) != 3 {
		t.Fatalf("listing not reloaded from store: %v %v", got, ok)
	}
}

func TestFetchOrGetStatusFailure(t *testing.T) {
	c := New(NewMemoryStore(), zerolog.Nop())
	s := &fakeSender{responses: map[string]*gateway.Response{
		"/": {Status: 500, Text: "boom"},
	}}
	_, err := c.FetchOrGet(context.Background(), navpath.Root(), s)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if err.Error() != "500 on /: boom" {
		t.Fatalf("message mismatch: %s", err)
	}
	if c.Len() != 0 {
		t.Fatalf("failed fetch must not be cached")
	}
}

func TestFetchOrGetMalformed(t *testing.T) {
	c := New(NewMemoryStore(), zerolog.Nop())
	s := &fakeSender{responses: map[string]*gateway.Response{
		"/a": okJSON(`{"items":["x"]}`),
		"/b": okJSON(`{"data":"x"}`),
		"/c": okJSON(`{"data":null}`),
		"/d": {OK: true, Status: 200, Text: "hello"},
		"/e": {OK: true, Status: 204},
	}}
	for _, seg := range []string{"a", "b", "c", "d", "e"} {
		_, err := c.FetchOrGet(context.Background(), navpath.Path{seg}, s)
		if err == nil {
			t.Fatalf("%s: expected error", seg)
		}
		if seg != "e" && !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected malformed, got %v", seg, err)
		}
	}
	if c.Len() != 0 {
		t.Fatalf("malformed bodies must not be cached")
	}
}

func TestEmptyDataIsValid(t *testing.T) {
	c := New(nil, zerolog.Nop())
	s := &fakeSender{responses: map[string]*gateway.Response{"/leaf": okJSON(`{"data":[]}`)}}
	l, err := c.FetchOrGet(context.Background(), navpath.Path{"leaf"}, s)
	if err != nil || l == nil || len(l) != 0 {
		t.Fatalf("expected empty non-nil listing, got %v %v", l, err)
	}
	if c.LastPersist() != PersistSkipped {
		t.Fatalf("persist without store should be skipped, got %s", c.LastPersist())
	}
}

func TestTryFetchOrGetSwallowsErrors(t *testing.T) {
	c := New(NewMemoryStore(), zerolog.Nop())
	s := &fakeSender{}
	if l := c.TryFetchOrGet(context.Background(), navpath.Path{"missing"}, s); l != nil {
		t.Fatalf("expected nil, got %v", l)
	}
}

func TestPersistFailureKeepsMemory(t *testing.T) {
	store := NewMemoryStore()
	store.FailWith(errors.New("disk full"))
	c := New(store, zerolog.Nop())
	s := &fakeSender{responses: map[string]*gateway.Response{"/": okJSON(`{"data":["a"]}`)}}

	if _, err := c.FetchOrGet(context.Background(), navpath.Root(), s); err != nil {
		t.Fatalf("persist failure must not fail the fetch: %v", err)
	}
	if c.LastPersist() != PersistFailed {
		t.Fatalf("expected failed persist, got %s", c.LastPersist())
	}
	if _, ok := c.Get(navpath.Root()); !ok {
		t.Fatalf("entry lost after persist failure")
	}
}

func TestCorruptStoreStartsEmpty(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Save([]byte("{broken"))
	c := New(store, zerolog.Nop())
	if c.Len() != 0 {
		t.Fatalf("corrupt store should yield empty cache")
	}
}

func TestLoggedFetchRecordsCachedHit(t *testing.T) {
	c := New(NewMemoryStore(), zerolog.Nop())
	s := &fakeSender{responses: map[string]*gateway.Response{"/": okJSON(`{"data":["a"]}`)}}
	rec := &recorder{}
	for i := 0; i < 2; i++ {
		if _, err := c.FetchOrGetLogged(context.Background(), navpath.Root(), s, rec, "https://x/"); err != nil {
			t.Fatalf("fetch: %v", err)
		}
	}
	if len(rec.labels) != 2 || rec.labels[1] != "GET https://x/" {
		t.Fatalf("unexpected records: %v", rec.labels)
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewFileStore(path)
	c := New(store, zerolog.Nop())
	s := &fakeSender{responses: map[string]*gateway.Response{"/": okJSON(`{"data":["a"]}`)}}
	if _, err := c.FetchOrGet(context.Background(), navpath.Root(), s); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("memory not cleared")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoData) {
		t.Fatalf("store not cleared: %v", err)
	}
	if _, err := c.FetchOrGet(context.Background(), navpath.Root(), s); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if len(s.calls) != 2 {
		t.Fatalf("expected refetch after clear, calls=%v", s.calls)
	}
}

func TestFetchErrorMessages(t *testing.T) {
	malformed := &FetchError{Path: "/a", Status: 200, Err: ErrMalformed}
	if malformed.Error() != "Unexpected response at /a" {
		t.Fatalf("malformed message: %s", malformed)
	}
	empty := &FetchError{Path: "/b", Status: 403}
	if empty.Error() != "403 on /b: (no body)" {
		t.Fatalf("empty body message: %s", empty)
	}
}
