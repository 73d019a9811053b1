package preset

import (
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// CacheEntry is one published view of the registry. It is never modified
// after it has been stored.
type CacheEntry struct {
	LoadedAt time.Time
	Presets  []PropertyPreset
	// Mtimes maps absolute paths to the modification time observed when the
	// entry was built.
	Mtimes map[string]time.Time
}

type loadFunc func() ([]PropertyPreset, map[string]time.Time)

// cache holds the current CacheEntry behind an atomic pointer. A nil pointer
// is the empty state. Readers never lock; reloads are serialised by mu.
type cache struct {
	ttl  time.Duration
	now  func() time.Time
	stat func(string) (os.FileInfo, error)
	load loadFunc

	entry atomic.Pointer[CacheEntry]
	// gen is bumped by invalidate so a reload that raced with it is not
	// published.
	gen   atomic.Uint64
	loads atomic.Int64
	mu    sync.Mutex
}

func newCache(ttl time.Duration, load loadFunc) *cache {
	if ttl < 0 {
		ttl = 0
	}
	return &cache{
		ttl:  ttl,
		now:  time.Now,
		stat: os.Stat,
		load: load,
	}
}

// get returns a fresh entry, reloading if the current one is missing or stale.
func (c *cache) get() *CacheEntry {
	if e := c.entry.Load(); e != nil && c.fresh(e) {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have reloaded while we waited.
	if e := c.entry.Load(); e != nil && c.fresh(e) {
		return e
	}

	gen := c.gen.Load()
	presets, mtimes := c.load()
	e := &CacheEntry{
		LoadedAt: c.now(),
		Presets:  presets,
		Mtimes:   mtimes,
	}
	c.loads.Add(1)
	if c.gen.Load() == gen {
		c.entry.Store(e)
	}
	return e
}

// fresh reports whether e may still be served: it is within the TTL (a TTL
// of zero skips this check) and no tracked path has vanished or changed.
func (c *cache) fresh(e *CacheEntry) bool {
	if c.ttl > 0 && c.now().Sub(e.LoadedAt) > c.ttl {
		return false
	}
	for path, mtime := range e.Mtimes {
		info, err := c.stat(path)
		if err != nil || !info.ModTime().Equal(mtime) {
			return false
		}
	}
	return true
}

func (c *cache) invalidate() {
	c.gen.Add(1)
	c.entry.Store(nil)
}

func (c *cache) peek() *CacheEntry {
	return c.entry.Load()
}
