// Package binding tracks the association of logical window slots to live
// handles. The persistence format belongs to the external configuration
// layer; this package only consumes it and treats persisted handles as
// hints that must be re-verified.
package binding

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"autowin/internal/locator"
	"autowin/internal/platform"

	"github.com/rs/zerolog"
)

// Binding associates a logical slot with a window.
type Binding struct {
	Slot      int             `json:"slot"`
	Title     string          `json:"title"`
	Kind      string          `json:"kind,omitempty"`
	Handle    platform.Handle `json:"handle,omitempty"`
	CachedDPI int             `json:"cached_dpi,omitempty"`
}

// Unresolved is a configured binding whose window could not be found. The
// UI surfaces these as a list with a rebind shortcut.
type Unresolved struct {
	Binding
	Reason string
}

// Registry holds the live slot-to-handle associations.
type Registry struct {
	backend platform.Backend
	loc     *locator.Locator
	log     zerolog.Logger

	mu     sync.Mutex
	bySlot map[int]Binding
}

// NewRegistry creates an empty registry.
func NewRegistry(backend platform.Backend, loc *locator.Locator, log zerolog.Logger) *Registry {
	return &Registry{
		backend: backend,
		loc:     loc,
		log:     log.With().Str("component", "binding").Logger(),
		bySlot:  make(map[int]Binding),
	}
}

// LoadFile reads persisted bindings from the external configuration layer.
// Missing file means no bindings, not an error.
func LoadFile(path string) ([]Binding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read bindings file: %w", err)
	}

	var bindings []Binding
	if err := json.Unmarshal(data, &bindings); err != nil {
		return nil, fmt.Errorf("failed to parse bindings file: %w", err)
	}
	return bindings, nil
}

// Revalidate verifies every binding against live windows: a live persisted
// handle is kept, a stale one is re-located by its stripped title, and
// whatever cannot be resolved lands on the unresolved list. Resolved
// bindings replace the registry contents.
func (r *Registry) Revalidate(bindings []Binding) ([]Binding, []Unresolved) {
	resolved := make([]Binding, 0, len(bindings))
	var unresolved []Unresolved
	taken := make(map[platform.Handle]bool)

	for _, b := range bindings {
		if b.Handle != platform.None && r.backend.IsLive(b.Handle) && !taken[b.Handle] {
			taken[b.Handle] = true
			resolved = append(resolved, b)
			continue
		}

		// Handle hint went stale; the decorated title is the fallback key.
		h, err := r.relocate(b, taken)
		if err != nil {
			r.log.Warn().
				Int("slot", b.Slot).
				Str("title", b.Title).
				Err(err).
				Msg("binding could not be resolved")
			unresolved = append(unresolved, Unresolved{Binding: b, Reason: err.Error()})
			continue
		}

		b.Handle = h
		taken[h] = true
		resolved = append(resolved, b)
		r.log.Info().
			Int("slot", b.Slot).
			Str("title", b.Title).
			Uint32("handle", uint32(h)).
			Msg("binding re-resolved to a new handle")
	}

	r.mu.Lock()
	r.bySlot = make(map[int]Binding, len(resolved))
	for _, b := range resolved {
		r.bySlot[b.Slot] = b
	}
	r.mu.Unlock()

	return resolved, unresolved
}

func (r *Registry) relocate(b Binding, taken map[platform.Handle]bool) (platform.Handle, error) {
	handles, err := r.loc.LocateAll(b.Title, b.Kind, taken)
	if err != nil {
		return platform.None, err
	}
	return handles[0], nil
}

// Bind records a slot association.
func (r *Registry) Bind(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySlot[b.Slot] = b
}

// Unbind removes a slot association.
func (r *Registry) Unbind(slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bySlot, slot)
}

// Get returns the binding for a slot.
func (r *Registry) Get(slot int) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bySlot[slot]
	return b, ok
}

// All returns every binding sorted by slot.
func (r *Registry) All() []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Binding, 0, len(r.bySlot))
	for _, b := range r.bySlot {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// BoundHandles returns the set of handles currently bound, used to keep
// bulk binding from double-binding one window instance.
func (r *Registry) BoundHandles() map[platform.Handle]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	bound := make(map[platform.Handle]bool, len(r.bySlot))
	for _, b := range r.bySlot {
		if b.Handle != platform.None {
			bound[b.Handle] = true
		}
	}
	return bound
}
