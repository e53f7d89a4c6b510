package services

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

// RowCache keeps the records matched by list queries so re-sorting and
// paging a list reuse them. Any record write anywhere empties the cache,
// and entries older than the TTL are reloaded. A nil *RowCache or a zero
// TTL always queries the database.
type RowCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	gen     uint64
	entries map[string]rowEntry
}

type rowEntry struct {
	view   *TableView[*core.Record]
	loaded time.Time
}

func NewRowCache(ttl time.Duration) *RowCache {
	return &RowCache{ttl: ttl, now: time.Now, entries: make(map[string]rowEntry)}
}

// Bind empties the cache after every committed record create, update or
// delete.
func (c *RowCache) Bind(app core.App) {
	invalidate := func(e *core.RecordEvent) error {
		c.Invalidate()
		return e.Next()
	}
	app.OnRecordAfterCreateSuccess().BindFunc(invalidate)
	app.OnRecordAfterUpdateSuccess().BindFunc(invalidate)
	app.OnRecordAfterDeleteSuccess().BindFunc(invalidate)
}

// Invalidate drops every entry.
func (c *RowCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	n := len(c.entries)
	c.gen++
	clear(c.entries)
	c.mu.Unlock()
	if n > 0 {
		zap.S().Debugf("rowcache: dropped %d list(s)", n)
	}
}

// Len returns the number of cached lists.
func (c *RowCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Records returns every record of collection matching filter as a view.
func (c *RowCache) Records(app core.App, collection, filter string, params dbx.Params) (*TableView[*core.Record], error) {
	if c == nil || c.ttl <= 0 {
		return loadView(app, collection, filter, params)
	}
	key := cacheKey(collection, filter, params)

	c.mu.Lock()
	entry, ok := c.entries[key]
	gen := c.gen
	c.mu.Unlock()
	if ok && c.now().Sub(entry.loaded) < c.ttl {
		return entry.view, nil
	}

	view, err := loadView(app, collection, filter, params)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	// a write during the load makes the result stale
	if c.gen == gen {
		c.entries[key] = rowEntry{view: view, loaded: c.now()}
	}
	c.mu.Unlock()
	return view, nil
}

func loadView(app core.App, collection, filter string, params dbx.Params) (*TableView[*core.Record], error) {
	records, err := app.FindRecordsByFilter(collection, filter, "", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	return NewTableView(records), nil
}

func cacheKey(collection, filter string, params dbx.Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	b.WriteString(collection)
	b.WriteByte(0)
	b.WriteString(filter)
	for _, k := range keys {
		fmt.Fprintf(&b, "\x00%s=%v", k, params[k])
	}
	return b.String()
}
