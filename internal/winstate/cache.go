package winstate

import (
	"sort"
	"sync"
	"time"

	"autowin/internal/platform"

	"github.com/rs/zerolog"
)

// ScaleProvider reads a window's device-pixel-ratio from the UI toolkit.
// It is the preferred DPI source because toolkit readings stay correct under
// mixed-DPI multi-monitor setups where raw queries lag behind.
type ScaleProvider func(h platform.Handle) (float64, error)

// Cache keeps per-handle State snapshots behind a TTL. A returned cached
// snapshot is never older than the TTL unless the caller bypasses it.
type Cache struct {
	backend platform.Backend
	scale   ScaleProvider
	clock   func() time.Time
	ttl     time.Duration
	log     zerolog.Logger

	// One lock guards read-or-populate; the monitor goroutine writes,
	// executor goroutines only read or trigger a synchronous refresh.
	mu      sync.Mutex
	entries map[platform.Handle]*State
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock injects the time source, for tests.
func WithClock(clock func() time.Time) CacheOption {
	return func(c *Cache) { c.clock = clock }
}

// WithScaleProvider installs the toolkit device-pixel-ratio reader.
func WithScaleProvider(p ScaleProvider) CacheOption {
	return func(c *Cache) { c.scale = p }
}

// NewCache creates a cache over the given backend.
func NewCache(backend platform.Backend, ttl time.Duration, log zerolog.Logger, opts ...CacheOption) *Cache {
	c := &Cache{
		backend: backend,
		clock:   time.Now,
		ttl:     ttl,
		log:     log.With().Str("component", "winstate").Logger(),
		entries: make(map[platform.Handle]*State),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the window state, resampling on miss or expiry. With
// forceRefresh the TTL is bypassed, e.g. right after this subsystem itself
// resized the window. Returns ErrHandleInvalid for a dead handle.
func (c *Cache) Get(h platform.Handle, forceRefresh bool) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh {
		if st, ok := c.entries[h]; ok && st.Fresh(c.clock(), c.ttl) {
			return st, nil
		}
	}

	st, err := c.sample(h)
	if err != nil {
		delete(c.entries, h)
		return nil, err
	}
	c.entries[h] = st
	return st, nil
}

// ForceRefresh resamples one handle, bypassing the TTL.
func (c *Cache) ForceRefresh(h platform.Handle) (*State, error) {
	return c.Get(h, true)
}

// InvalidateAll drops every cached snapshot. A DPI change can be
// system-wide, so the monitor wipes the whole cache rather than one entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[platform.Handle]*State)
}

// Tracked returns every handle with a cached snapshot, sorted.
func (c *Cache) Tracked() []platform.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	handles := make([]platform.Handle, 0, len(c.entries))
	for h := range c.entries {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// sample reads geometry and DPI for a handle. Callers hold c.mu.
func (c *Cache) sample(h platform.Handle) (*State, error) {
	if !c.backend.IsLive(h) {
		return nil, ErrHandleInvalid
	}

	client, err := c.backend.ClientRect(h)
	if err != nil {
		return nil, ErrHandleInvalid
	}
	window, err := c.backend.WindowRect(h)
	if err != nil {
		// Keep the client rect usable even when the frame query fails.
		window = client
	}
	title, err := c.backend.Title(h)
	if err != nil {
		title = ""
	}

	dpi, scaleFactor := c.sampleDPI(h)

	return &State{
		Handle:       h,
		Title:        title,
		ClientWidth:  client.Width,
		ClientHeight: client.Height,
		DPI:          dpi,
		ScaleFactor:  scaleFactor,
		WindowRect:   window,
		ClientRect:   client,
		CapturedAt:   c.clock(),
	}, nil
}

// sampleDPI walks the layered DPI strategy: toolkit device-pixel-ratio,
// per-window query, system DPI, then the hardcoded 96/1.0 default.
func (c *Cache) sampleDPI(h platform.Handle) (int, float64) {
	if c.scale != nil {
		if factor, err := c.scale(h); err == nil && factor > 0 {
			return int(factor*BaselineDPI + 0.5), factor
		}
	}

	if dpi, err := c.backend.DPIForWindow(h); err == nil && dpi > 0 {
		return dpi, float64(dpi) / BaselineDPI
	}

	if dpi, err := c.backend.SystemDPI(); err == nil && dpi > 0 {
		c.log.Debug().Uint32("handle", uint32(h)).Int("dpi", dpi).
			Msg("per-window dpi unavailable, using system dpi")
		return dpi, float64(dpi) / BaselineDPI
	}

	c.log.Warn().Uint32("handle", uint32(h)).
		Msg("all dpi sources failed, assuming 96/1.0")
	return BaselineDPI, 1.0
}
