// Package autowin is the coordinate-virtualization and multi-window
// isolation core of a desktop automation tool.
//
// Automation coordinates are authored once against a canonical reference
// window size (1280x720 at 96dpi by default) and replayed against live
// windows of arbitrary pixel dimensions and per-monitor DPI scale factors.
// This package locates target windows (including embedded render surfaces
// inside emulator frames), caches their geometry and DPI behind a short
// TTL, converts coordinates between the reference space and live physical
// pixels, resizes client areas to exact sizes, and wraps task invocations
// so several windows can be driven in parallel without stealing input
// focus from one another.
//
// The actual input injection, image matching, and task graph execution are
// external collaborators; this package only turns a target identity plus an
// origin-tagged coordinate into window-scoped physical pixels.
package autowin
