// Package session owns the execution lifecycle of one sketch at a time.
//
// A Session moves between two states, idle and running, and is reusable:
// Start instantiates a fresh guest from the loaded program, Stop asks the
// guest to wind down, and every way a run can end funnels through one
// idempotent teardown. The session also owns everything a run touches:
// the canvas, the output transcript, the typed-input line buffer, the
// editor source text, and the per-run event bridge and frame scheduler.
//
// The Session implements engine.HostHooks, so host calls made by the
// guest (output, input, drawing, registration, stopping) land here and
// are resolved against whichever run is current.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. A session and its
// collaborators are confined to one driver goroutine: the terminal UI
// update loop, the serve-mode mailbox, or a test body. Front ends on
// other goroutines must hand events over rather than call in directly.
package session
