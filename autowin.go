package autowin

import (
	"context"
	"sync"

	"autowin/internal/binding"
	"autowin/internal/config"
	"autowin/internal/coords"
	"autowin/internal/isolation"
	"autowin/internal/locator"
	"autowin/internal/platform"
	"autowin/internal/resize"
	"autowin/internal/winstate"

	"github.com/rs/zerolog"
)

// Core wires the coordinate-virtualization components over one platform
// backend. The execution engine and UI layer consume this surface; they
// never touch the backend directly.
type Core struct {
	cfg        *config.Config
	log        zerolog.Logger
	backend    platform.Backend
	cache      *winstate.Cache
	monitor    *winstate.Monitor
	locator    *locator.Locator
	normalizer *coords.Normalizer
	processor  *coords.Processor
	resizer    *resize.Resizer
	registry   *binding.Registry

	mu        sync.Mutex
	executors map[platform.Handle]*isolation.Executor
}

// CoreOption configures a Core.
type CoreOption func(*coreOptions)

type coreOptions struct {
	cacheOpts []winstate.CacheOption
}

// WithScaleProvider installs the toolkit device-pixel-ratio reader as the
// preferred DPI source.
func WithScaleProvider(p winstate.ScaleProvider) CoreOption {
	return func(o *coreOptions) {
		o.cacheOpts = append(o.cacheOpts, winstate.WithScaleProvider(p))
	}
}

// New assembles a Core from a backend and configuration.
func New(backend platform.Backend, cfg *config.Config, log zerolog.Logger, opts ...CoreOption) *Core {
	var o coreOptions
	for _, opt := range opts {
		opt(&o)
	}

	cache := winstate.NewCache(backend, cfg.CacheTTL(), log, o.cacheOpts...)
	loc := locator.New(backend, cfg, log)

	return &Core{
		cfg:        cfg,
		log:        log,
		backend:    backend,
		cache:      cache,
		monitor:    winstate.NewMonitor(cache, cfg.PollInterval(), cfg.DPIChangeThreshold, log),
		locator:    loc,
		normalizer: coords.NewNormalizer(cache, cfg, log),
		processor:  coords.NewProcessor(cache, backend, log),
		resizer:    resize.New(backend, cache, cfg, log),
		registry:   binding.NewRegistry(backend, loc, log),
		executors:  make(map[platform.Handle]*isolation.Executor),
	}
}

// Locate resolves a window title or pattern to a live handle.
func (c *Core) Locate(titleOrPattern, kind string) (platform.Handle, error) {
	return c.locator.Locate(titleOrPattern, kind)
}

// LocateAll returns every matching surface handle not already bound.
func (c *Core) LocateAll(titleOrPattern, kind string) ([]platform.Handle, error) {
	return c.locator.LocateAll(titleOrPattern, kind, c.registry.BoundHandles())
}

// GetWindowState returns the cached geometry+DPI snapshot for a window,
// resampling if the cached one expired. The UI uses this for debug
// overlays aligned to the live rect.
func (c *Core) GetWindowState(h platform.Handle) (*winstate.State, error) {
	return c.cache.Get(h, false)
}

// ForceRefresh bypasses the cache TTL for one handle.
func (c *Core) ForceRefresh(h platform.Handle) (*winstate.State, error) {
	return c.cache.ForceRefresh(h)
}

// ToReference converts live physical pixels into the reference space.
func (c *Core) ToReference(p coords.Physical, h platform.Handle) coords.Reference {
	return c.normalizer.ToReference(p, h)
}

// FromReference converts reference-space coordinates to live physical pixels.
func (c *Core) FromReference(r coords.Reference, h platform.Handle) coords.Physical {
	return c.normalizer.FromReference(r, h)
}

// ResolveForInjection resolves an origin-tagged coordinate for an injector.
func (c *Core) ResolveForInjection(coord coords.Coordinate, origin coords.Origin, h platform.Handle, mode coords.ExecutionMode) (coords.Physical, error) {
	return c.processor.ResolveForInjection(coord, origin, h, mode)
}

// ResolveRegionForCapture resolves an origin-tagged region for capture.
func (c *Core) ResolveRegionForCapture(region coords.Coordinate, origin coords.Origin, h platform.Handle) (coords.Physical, error) {
	return c.processor.ResolveRegionForCapture(region, origin, h)
}

// ResizeClientArea resizes a window so its client area matches the target.
func (c *Core) ResizeClientArea(h platform.Handle, width, height int) (resize.Result, error) {
	return c.resizer.ClientArea(h, width, height)
}

// RunIsolated executes a task pinned to one window. Each bound window gets
// its own executor; executors share the state cache only.
func (c *Core) RunIsolated(ctx context.Context, h platform.Handle, task isolation.Task) (isolation.Result, error) {
	return c.executorFor(h).Run(ctx, h, task)
}

// OnDPIChange subscribes to DPI change notifications for user notification
// or auto-readjust.
func (c *Core) OnDPIChange(cb winstate.ChangeCallback) {
	c.monitor.OnChange(cb)
}

// EnableMonitoring starts the background DPI poller.
func (c *Core) EnableMonitoring(ctx context.Context) {
	c.monitor.Enable(ctx)
}

// DisableMonitoring stops the background DPI poller.
func (c *Core) DisableMonitoring() {
	c.monitor.Disable()
}

// Bindings exposes the slot-to-window registry.
func (c *Core) Bindings() *binding.Registry {
	return c.registry
}

// LoadBindings reads persisted bindings and revalidates them against live
// windows, returning what resolved and what needs a rebind.
func (c *Core) LoadBindings(path string) ([]binding.Binding, []binding.Unresolved, error) {
	bindings, err := binding.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	resolved, unresolved := c.registry.Revalidate(bindings)
	return resolved, unresolved, nil
}

func (c *Core) executorFor(h platform.Handle) *isolation.Executor {
	c.mu.Lock()
	defer c.mu.Unlock()
	ex, ok := c.executors[h]
	if !ok {
		ex = isolation.New(c.backend, c.cfg.ActivationCooldown(), c.log)
		c.executors[h] = ex
	}
	return ex
}
