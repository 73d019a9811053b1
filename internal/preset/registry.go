package preset

import (
	"context"
	"time"

	"github.com/bmordue/webdav-mcp/internal/logging"
)

// DefaultTTL is how long a loaded view is served before a reload is forced.
const DefaultTTL = 5 * time.Second

// Registry is the entry point to the preset view. It is safe for concurrent
// use; every read sees a complete view.
type Registry struct {
	dir    string
	logger logging.Logger
	cache  *cache
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now for TTL bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.cache.now = now
		}
	}
}

// NewRegistry creates a registry reading user presets from dir. A ttl of zero
// re-checks file modification times on every access and reloads only when
// something changed.
func NewRegistry(dir string, ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		dir:    dir,
		logger: logging.Nop(),
	}
	r.cache = newCache(ttl, r.load)
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("preset")
	return r
}

func (r *Registry) load() ([]PropertyPreset, map[string]time.Time) {
	op := logging.StartOperation(r.logger, "load_presets")
	presets, mtimes := NewLoader(r.logger).Load(r.dir)
	op.End(context.Background(), "dir", r.dir, "presets", len(presets), "files", len(mtimes))
	return presets, mtimes
}

// Dir returns the directory user presets are read from.
func (r *Registry) Dir() string {
	return r.dir
}

// All returns every preset in the current view, built-ins first. The slice is
// a copy; the presets themselves must be treated as read-only.
func (r *Registry) All() []PropertyPreset {
	e := r.cache.get()
	return append([]PropertyPreset(nil), e.Presets...)
}

// Get returns the preset called name. An unknown name yields a
// *NotFoundError listing the known names.
func (r *Registry) Get(name string) (PropertyPreset, error) {
	e := r.cache.get()
	for _, p := range e.Presets {
		if p.Name == name {
			return p, nil
		}
	}
	return PropertyPreset{}, &NotFoundError{Name: name, Known: names(e.Presets)}
}

// Names returns the names of all presets in view order.
func (r *Registry) Names() []string {
	return names(r.cache.get().Presets)
}

// Descriptors returns the listing form of every preset.
func (r *Registry) Descriptors() []Descriptor {
	presets := r.cache.get().Presets
	out := make([]Descriptor, len(presets))
	for i, p := range presets {
		out[i] = p.Describe()
	}
	return out
}

// Resolve compiles the named preset, extended with extra, into a PROPFIND
// request body.
func (r *Registry) Resolve(name string, extra []PropertyDefinition) (string, error) {
	p, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return ToRequestBody(Merge(p.Properties, extra))
}

// Invalidate drops the cached view; the next access reloads unconditionally.
func (r *Registry) Invalidate() {
	r.cache.invalidate()
	r.logger.Debug(context.Background(), "Preset cache invalidated")
}

// Stats describes the cache state.
type Stats struct {
	Loads    int64
	Cached   bool
	LoadedAt time.Time
}

// Stats returns the number of loads performed so far and the age of the
// current view. It does not trigger a load.
func (r *Registry) Stats() Stats {
	s := Stats{Loads: r.cache.loads.Load()}
	if e := r.cache.peek(); e != nil {
		s.Cached = true
		s.LoadedAt = e.LoadedAt
	}
	return s
}

func names(presets []PropertyPreset) []string {
	out := make([]string, len(presets))
	for i, p := range presets {
		out[i] = p.Name
	}
	return out
}
