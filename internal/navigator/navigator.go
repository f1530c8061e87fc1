// Package navigator resolves paths to listings, classifies each child as
// leaf or branch and makes sure only the latest navigation publishes.
package navigator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kennedn/apinav/internal/listing"
	"github.com/kennedn/apinav/internal/location"
	"github.com/kennedn/apinav/internal/navpath"
	"github.com/kennedn/apinav/internal/rangemode"
	"github.com/rs/zerolog"
)

// ChildInfo classifies one child. List is nil when the speculative fetch
// failed.
type ChildInfo struct {
	HasChildren bool
	List        listing.Listing
}

// RowState is the per-row command input.
type RowState struct {
	WithValue bool
	Value     string
}

// State is a read-only copy of the controller's published state.
type State struct {
	Path     navpath.Path
	Items    listing.Listing
	Range    rangemode.Info
	Children map[string]ChildInfo
	Loading  bool
	Error    string
	Session  uint64
}

type Controller struct {
	cache   *listing.Cache
	sender  listing.Sender
	history *location.History
	log     zerolog.Logger

	session atomic.Uint64

	mu       sync.Mutex
	path     navpath.Path
	items    listing.Listing
	rng      rangemode.Info
	children map[string]ChildInfo
	rows     map[string]*RowState
	loading  bool
	errMsg   string

	notify chan struct{}
}

func New(cache *listing.Cache, sender listing.Sender, history *location.History, log zerolog.Logger) *Controller {
	if history == nil {
		history = location.NewHistory()
	}
	return &Controller{
		cache:    cache,
		sender:   sender,
		history:  history,
		log:      log.With().Str("component", "navigator").Logger(),
		path:     navpath.Root(),
		rng:      rangemode.Info{Extras: []string{}},
		children: map[string]ChildInfo{},
		rows:     map[string]*RowState{},
		notify:   make(chan struct{}, 1),
	}
}

func (c *Controller) History() *location.History {
	return c.history
}

// Updates fires (coalesced) whenever published state changes.
func (c *Controller) Updates() <-chan struct{} {
	return c.notify
}

func (c *Controller) changed() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Controller) isCurrent(session uint64) bool {
	return c.session.Load() == session
}

// begin marks session as loading and clears the previous error, unless a
// newer navigation has already started.
func (c *Controller) begin(session uint64) {
	c.mu.Lock()
	current := c.isCurrent(session)
	if current {
		c.loading = true
		c.errMsg = ""
	}
	c.mu.Unlock()
	if current {
		c.changed()
	}
}

// State returns a copy of the published state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	children := make(map[string]ChildInfo, len(c.children))
	for k, v := range c.children {
		children[k] = v
	}
	return State{
		Path:     c.path.Clone(),
		Items:    append(listing.Listing(nil), c.items...),
		Range:    c.rng,
		Children: children,
		Loading:  c.loading,
		Error:    c.errMsg,
		Session:  c.session.Load(),
	}
}

// CurrentPath is the last successfully navigated path.
func (c *Controller) CurrentPath() navpath.Path {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path.Clone()
}

// Row returns the input state for a listing row, creating it on first use.
// Rows are reset on every successful navigation.
func (c *Controller) Row(name string) RowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rows[name]; ok {
		return *r
	}
	c.rows[name] = &RowState{}
	return RowState{}
}

func (c *Controller) SetRow(name string, r RowState) {
	c.mu.Lock()
	c.rows[name] = &r
	c.mu.Unlock()
	c.changed()
}

// NavigateTo resolves p and publishes it as the current state. A non-nil
// known listing is used as-is instead of consulting the cache. When record
// is set a location entry is pushed.
//
// Only a primary fetch failure is returned. A navigation superseded by a
// newer one returns nil and publishes nothing.
func (c *Controller) NavigateTo(ctx context.Context, p navpath.Path, known listing.Listing, record bool) error {
	p = p.Clone()
	session := c.session.Add(1)
	key := navpath.Encode(p)
	log := c.log.With().Uint64("session", session).Str("path", key).Logger()

	c.begin(session)

	defer func() {
		c.mu.Lock()
		if c.isCurrent(session) {
			c.loading = false
		}
		c.mu.Unlock()
		c.changed()
	}()

	items := known
	if items == nil {
		var err error
		items, err = c.cache.FetchOrGet(ctx, p, c.sender)
		if err != nil {
			c.mu.Lock()
			current := c.isCurrent(session)
			if current {
				c.errMsg = fmt.Sprintf("Error loading %s: %v", key, err)
			}
			c.mu.Unlock()
			if !current {
				return nil
			}
			log.Info().Err(err).Msg("navigation failed")
			return err
		}
	}

	info := rangemode.Analyze(items)

	c.mu.Lock()
	if !c.isCurrent(session) {
		c.mu.Unlock()
		log.Debug().Msg("superseded before publish")
		return nil
	}
	c.path = p
	c.items = items
	c.rng = info
	c.children = map[string]ChildInfo{}
	c.rows = map[string]*RowState{}
	if record {
		c.history.Push(p)
	}
	c.mu.Unlock()
	c.changed()

	if info.IsRange {
		log.Debug().Int("extras", len(info.Extras)).Msg("range mode, skipping classification")
		return nil
	}
	c.classify(ctx, session, p, items)
	return nil
}

// classify speculatively fetches every child's listing. It stops as soon as
// a newer navigation starts and only publishes a complete map.
func (c *Controller) classify(ctx context.Context, session uint64, p navpath.Path, items listing.Listing) {
	info := make(map[string]ChildInfo, len(items))
	for _, name := range items {
		if !c.isCurrent(session) {
			return
		}
		child := c.cache.TryFetchOrGet(ctx, p.Child(name), c.sender)
		if !c.isCurrent(session) {
			return
		}
		info[name] = ChildInfo{HasChildren: len(child) > 0, List: child}
	}

	c.mu.Lock()
	if c.isCurrent(session) {
		c.children = info
	}
	c.mu.Unlock()
	c.changed()
}

// Start performs the initial navigation from a location token and replaces
// the current location record with the resolved path.
func (c *Controller) Start(ctx context.Context, token string) error {
	p := navpath.ParseLocation(token)
	err := c.NavigateTo(ctx, p, nil, false)
	c.history.Replace(p)
	return err
}

// Open navigates into a child of the current path.
func (c *Controller) Open(ctx context.Context, name string) error {
	return c.NavigateTo(ctx, c.CurrentPath().Child(name), nil, true)
}

// Up navigates to the parent of the current path.
func (c *Controller) Up(ctx context.Context) error {
	return c.NavigateTo(ctx, c.CurrentPath().Parent(), nil, true)
}

// Back replays the previous location record. It reports false when there
// is nothing to go back to.
func (c *Controller) Back(ctx context.Context) (bool, error) {
	p, ok := c.history.Back()
	if !ok {
		return false, nil
	}
	return true, c.NavigateTo(ctx, p, nil, false)
}

func (c *Controller) Forward(ctx context.Context) (bool, error) {
	p, ok := c.history.Forward()
	if !ok {
		return false, nil
	}
	return true, c.NavigateTo(ctx, p, nil, false)
}

// Refresh silently re-navigates the current path.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.NavigateTo(ctx, c.CurrentPath(), nil, false)
}

// WatchCredentials re-navigates the current path, without recording a
// location entry, every time a new credentials version arrives. It returns
// when ctx is done or versions is closed.
func (c *Controller) WatchCredentials(ctx context.Context, versions <-chan uint64) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-versions:
			if !ok {
				return
			}
			c.log.Debug().Uint64("version", v).Msg("credentials changed, replaying navigation")
			_ = c.Refresh(ctx)
		}
	}
}
