// Package isolation runs one task invocation against exactly one window
// without disturbing OS focus state other concurrently-driven windows
// depend on.
package isolation

import (
	"context"

	"autowin/internal/platform"
)

// Delivery selects how input reaches the window during an isolated run.
type Delivery int

const (
	// DeliveryBackground posts input directly to the window regardless of
	// focus. Isolation forces this so parallel windows never fight over
	// the cursor.
	DeliveryBackground Delivery = iota
	// DeliveryForeground drives the OS cursor and requires activation.
	DeliveryForeground
)

// Env is the execution environment threaded through a task invocation. It
// replaces a process-global multi-window flag: nested code paths read it
// from the context instead of shared mutable state, so concurrent tasks
// cannot race on it.
type Env struct {
	// Target is the window this task is pinned to.
	Target platform.Handle
	// Delivery is the forced input delivery mode.
	Delivery Delivery
	// MultiWindow tells nested code paths to suppress their default
	// window-activation behavior.
	MultiWindow bool
}

type envKey struct{}

// NewContext returns a context carrying the execution environment.
func NewContext(ctx context.Context, env Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// FromContext extracts the execution environment, if any.
func FromContext(ctx context.Context) (Env, bool) {
	env, ok := ctx.Value(envKey{}).(Env)
	return env, ok
}
