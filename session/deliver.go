package session

import (
	"context"

	"github.com/easelhq/easel/event"
)

// Pointer routes a surface pointer action into the current run. Events
// arriving while the session is idle are dropped; since teardown
// discards the bridge before releasing the guest, this is also what
// keeps input away from a superseded instance.
func (s *Session) Pointer(ctx context.Context, kind event.Kind, ev event.PointerEvent) error {
	if s.bridge == nil {
		return nil
	}
	return s.settle(ctx, s.bridge.Pointer(ctx, kind, ev))
}

// Key routes a keystroke into the current run. Dropped while idle.
func (s *Session) Key(ctx context.Context, ev event.KeyEvent) error {
	if s.bridge == nil {
		return nil
	}
	return s.settle(ctx, s.bridge.Key(ctx, ev))
}

// Input routes a control-value change into the current run. Dropped
// while idle.
func (s *Session) Input(ctx context.Context, id, value string) error {
	if s.bridge == nil {
		return nil
	}
	return s.settle(ctx, s.bridge.Input(ctx, id, value))
}

// handleFault ends the run after the scheduler reports a frame failure.
// The loop has already stopped itself by the time it fires.
func (s *Session) handleFault(err error) {
	_ = s.settle(context.Background(), err)
}
