// Package listing caches the child listings returned by the remote API,
// keyed by serialized path, and persists them best-effort.
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/kennedn/apinav/internal/gateway"
	"github.com/kennedn/apinav/internal/navpath"
	"github.com/rs/zerolog"
)

// Listing is the ordered child names of a path. Order and duplicates are
// preserved as the server sent them.
type Listing []string

// Sender is the part of the gateway the cache needs.
type Sender interface {
	Send(ctx context.Context, path string, opts gateway.Options) *gateway.Response
}

// ErrMalformed means the body was not {"data": [string, ...]}.
var ErrMalformed = errors.New("unexpected response")

// FetchError is returned when a listing could not be obtained.
type FetchError struct {
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if errors.Is(e.Err, ErrMalformed) {
		return "Unexpected response at " + e.Path
	}
	body := e.Body
	if body == "" {
		body = "(no body)"
	}
	return fmt.Sprintf("%d on %s: %s", e.Status, e.Path, body)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PersistResult names the outcome of the best-effort durable write.
type PersistResult int

const (
	PersistSkipped PersistResult = iota
	PersistOK
	PersistFailed
)

func (r PersistResult) String() string {
	switch r {
	case PersistOK:
		return "ok"
	case PersistFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Logger receives a console record for logged fetches.
type Logger interface {
	Record(label string, payload any)
}

type Cache struct {
	store Store
	log   zerolog.Logger

	mu      sync.RWMutex
	entries map[string]Listing

	persistMu   sync.Mutex
	lastPersist PersistResult
}

// New creates a cache over store and loads whatever it holds. Unreadable
// or corrupt data yields an empty cache.
func New(store Store, log zerolog.Logger) *Cache {
	c := &Cache{
		store:   store,
		log:     log.With().Str("component", "listing-cache").Logger(),
		entries: map[string]Listing{},
	}
	c.load()
	return c
}

func (c *Cache) load() {
	if c.store == nil {
		return
	}
	data, err := c.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoData) {
			c.log.Debug().Err(err).Msg("cache load failed, starting empty")
		}
		return
	}
	var parsed map[string]Listing
	if err := json.Unmarshal(data, &parsed); err != nil || parsed == nil {
		c.log.Debug().Err(err).Msg("cache data corrupt, starting empty")
		return
	}
	c.entries = parsed
	c.log.Debug().Int("entries", len(parsed)).Msg("cache loaded")
}

// Get returns the cached listing for p.
func (c *Cache) Get(p navpath.Path) (Listing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.entries[navpath.Encode(p)]
	return l, ok
}

// Len is the number of cached paths.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot copies the whole map.
func (c *Cache) Snapshot() map[string]Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Listing, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// FetchOrGet returns the cached listing for p or fetches it through s. A
// fresh listing is stored and the cache persisted.
func (c *Cache) FetchOrGet(ctx context.Context, p navpath.Path, s Sender) (Listing, error) {
	return c.fetch(ctx, p, s, nil)
}

// FetchOrGetLogged is FetchOrGet that also records the GET, cached or not,
// on the console.
func (c *Cache) FetchOrGetLogged(ctx context.Context, p navpath.Path, s Sender, console Logger, url string) (Listing, error) {
	return c.fetch(ctx, p, s, func(l Listing) {
		console.Record("GET "+url, map[string]any{"data": l})
	})
}

// TryFetchOrGet never fails; any error becomes a nil listing.
func (c *Cache) TryFetchOrGet(ctx context.Context, p navpath.Path, s Sender) Listing {
	l, err := c.fetch(ctx, p, s, nil)
	if err != nil {
		c.log.Debug().Err(err).Str("path", navpath.Encode(p)).Msg("speculative fetch failed")
		return nil
	}
	return l
}

func (c *Cache) fetch(ctx context.Context, p navpath.Path, s Sender, logged func(Listing)) (Listing, error) {
	key := navpath.Encode(p)
	if l, ok := c.Get(p); ok {
		if logged != nil {
			logged(l)
		}
		return l, nil
	}

	resp := s.Send(ctx, key, gateway.Options{Method: http.MethodGet})
	if !resp.OK || resp.Status != http.StatusOK {
		return nil, &FetchError{Path: key, Status: resp.Status, Body: resp.Text}
	}
	l, err := parse(resp.JSON)
	if err != nil {
		return nil, &FetchError{Path: key, Status: resp.Status, Body: resp.Text, Err: err}
	}

	c.mu.Lock()
	c.entries[key] = l
	c.mu.Unlock()
	c.persist()

	if logged != nil {
		logged(l)
	}
	return l, nil
}

func parse(body json.RawMessage) (Listing, error) {
	if body == nil {
		return nil, ErrMalformed
	}
	var env struct {
		Data *[]string `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Data == nil {
		return nil, ErrMalformed
	}
	if *env.Data == nil {
		return nil, ErrMalformed
	}
	return Listing(*env.Data), nil
}

// persist writes the whole map. Failures are logged and otherwise ignored;
// the in-memory cache stays valid.
func (c *Cache) persist() PersistResult {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	if c.store == nil {
		c.lastPersist = PersistSkipped
		return c.lastPersist
	}
	c.mu.RLock()
	data, err := json.Marshal(c.entries)
	c.mu.RUnlock()
	if err == nil {
		err = c.store.Save(data)
	}
	if err != nil {
		c.log.Debug().Err(err).Msg("cache persist failed")
		c.lastPersist = PersistFailed
		return c.lastPersist
	}
	c.lastPersist = PersistOK
	return c.lastPersist
}

// LastPersist reports how the most recent durable write went.
func (c *Cache) LastPersist() PersistResult {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	return c.lastPersist
}

// Clear empties the cache in memory and in the store.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = map[string]Listing{}
	c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	return c.store.Clear()
}
