package winstate

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"autowin/internal/platform"

	"github.com/rs/zerolog"
)

// ChangeRecord describes one detected DPI transition. Records live for the
// process lifetime only; nothing persists them.
type ChangeRecord struct {
	Handle      platform.Handle
	PreviousDPI int
	NewDPI      int
	At          time.Time
}

// ChangeCallback receives DPI change notifications. Callbacks run on the
// monitor goroutine; a panicking subscriber is isolated and logged.
type ChangeCallback func(ChangeRecord)

// Monitor polls every tracked window for DPI drift on a single dedicated
// ticker and fans change records out to subscribers.
type Monitor struct {
	cache     *Cache
	interval  time.Duration
	threshold int
	clock     func() time.Time
	log       zerolog.Logger

	mu        sync.Mutex
	last      map[platform.Handle]int
	callbacks []ChangeCallback
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewMonitor creates a monitor over the shared cache. A change fires when a
// window's DPI differs from the last recorded value by more than threshold.
func NewMonitor(cache *Cache, interval time.Duration, threshold int, log zerolog.Logger) *Monitor {
	return &Monitor{
		cache:     cache,
		interval:  interval,
		threshold: threshold,
		clock:     cache.clock,
		log:       log.With().Str("component", "dpimonitor").Logger(),
		last:      make(map[platform.Handle]int),
	}
}

// OnChange subscribes a callback to DPI change records.
func (m *Monitor) OnChange(cb ChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// Enable starts the background poll loop. Calling Enable on a running
// monitor is a no-op.
func (m *Monitor) Enable(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx, m.done)
}

// Disable stops the poll loop and waits for it to exit.
func (m *Monitor) Disable() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Enabled reports whether the poll loop is running.
func (m *Monitor) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info().Dur("interval", m.interval).Msg("dpi monitoring started")

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("dpi monitoring stopped")
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}

// Poll runs a single poll pass: force-refresh every monitored handle and
// compare DPI against the last recorded value. Exported so callers and
// tests can trigger a pass without waiting for the ticker.
func (m *Monitor) Poll() {
	// Recover so a backend fault cannot kill the poll loop.
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Msg("dpi poll panic recovered")
		}
	}()

	for _, h := range m.pollSet() {
		st, err := m.cache.Get(h, true)
		if err != nil {
			if errors.Is(err, ErrHandleInvalid) {
				m.mu.Lock()
				delete(m.last, h)
				m.mu.Unlock()
			}
			continue
		}

		m.mu.Lock()
		prev, seen := m.last[h]
		m.last[h] = st.DPI
		m.mu.Unlock()

		if !seen {
			continue
		}

		delta := st.DPI - prev
		if delta < 0 {
			delta = -delta
		}
		if delta <= m.threshold {
			continue
		}

		record := ChangeRecord{
			Handle:      h,
			PreviousDPI: prev,
			NewDPI:      st.DPI,
			At:          m.clock(),
		}
		m.log.Info().
			Uint32("handle", uint32(h)).
			Int("previous_dpi", prev).
			Int("new_dpi", st.DPI).
			Msg("dpi change detected")

		m.dispatch(record)

		// A DPI change can be system-wide; wipe everything so the next
		// Get for any handle resamples.
		m.cache.InvalidateAll()
	}
}

// pollSet returns the handles to poll: every cached handle plus every
// handle seen on an earlier pass. A window stays monitored across the
// whole-cache invalidation a detected change triggers; only a dead handle
// leaves the set.
func (m *Monitor) pollSet() []platform.Handle {
	set := make(map[platform.Handle]struct{})
	for _, h := range m.cache.Tracked() {
		set[h] = struct{}{}
	}

	m.mu.Lock()
	for h := range m.last {
		set[h] = struct{}{}
	}
	m.mu.Unlock()

	handles := make([]platform.Handle, 0, len(set))
	for h := range set {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// dispatch delivers the record to every subscriber, isolating each call so
// one faulty subscriber cannot break monitoring or starve the others.
func (m *Monitor) dispatch(record ChangeRecord) {
	m.mu.Lock()
	callbacks := make([]ChangeCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.log.Error().Interface("panic", r).
						Uint32("handle", uint32(record.Handle)).
						Msg("dpi change callback panicked")
				}
			}()
			cb(record)
		}()
	}
}
