package event

import (
	"context"

	"go.uber.org/zap"
)

// FrameClock schedules frame callbacks. RequestTick arranges exactly one
// future invocation of fn with the current timestamp in milliseconds.
// Clocks deliver callbacks in request order with non-decreasing timestamps
// and never run two callbacks concurrently.
type FrameClock interface {
	RequestTick(fn func(timestampMs float64))
}

// NopClock never ticks. Sessions without an animation source use it; a
// sketch that registers for frames then simply never receives one.
type NopClock struct{}

var _ FrameClock = NopClock{}

// RequestTick discards the callback.
func (NopClock) RequestTick(func(timestampMs float64)) {}

// HeldClock parks each requested tick until the front end's driver loop
// fires it, which keeps frame delivery on the driver goroutine. The
// scheduler never has more than one tick outstanding, so a single slot
// suffices. The zero value is ready to use.
type HeldClock struct {
	fn func(timestampMs float64)
}

var _ FrameClock = (*HeldClock)(nil)

// RequestTick parks fn for the next Fire.
func (c *HeldClock) RequestTick(fn func(timestampMs float64)) {
	c.fn = fn
}

// Pending reports whether a tick is parked.
func (c *HeldClock) Pending() bool {
	return c.fn != nil
}

// Fire delivers the parked tick, if any, at the given timestamp.
func (c *HeldClock) Fire(timestampMs float64) {
	if c.fn == nil {
		return
	}
	fn := c.fn
	c.fn = nil
	fn(timestampMs)
}

// Scheduler drives the guest per-frame callback through a FrameClock as a
// single cooperative loop. The first tick after Start defines elapsed time
// zero; Stop ends the loop at the next tick boundary and clears the time
// origin. All methods must be called from the goroutine the clock delivers
// ticks on.
type Scheduler struct {
	clock  FrameClock
	guest  Guest
	fault  func(error)
	logger *zap.Logger

	ctx      context.Context
	running  bool
	pending  bool
	startSet bool
	start    float64
}

// NewScheduler builds a scheduler over clock delivering frames to guest.
// fault, if non-nil, receives the error when a frame delivery fails; the
// loop stops either way. A nil logger disables logging.
func NewScheduler(clock FrameClock, guest Guest, fault func(error), logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		clock:  clock,
		guest:  guest,
		fault:  fault,
		logger: logger,
	}
}

// Start begins the frame loop. Starting an already-running scheduler has no
// effect; there is never more than one tick outstanding with the clock. ctx
// is held for the life of the loop and passed to every frame delivery.
func (s *Scheduler) Start(ctx context.Context) {
	if s.running {
		return
	}
	s.ctx = ctx
	s.running = true
	s.startSet = false
	s.requestTick()
}

// Stop ends the loop and clears the time origin. A tick already scheduled
// with the clock still fires, observes the stopped state and terminates
// without touching the guest. Safe to call repeatedly and while idle.
func (s *Scheduler) Stop() {
	s.running = false
	s.startSet = false
	s.start = 0
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	return s.running
}

func (s *Scheduler) requestTick() {
	if s.pending {
		return
	}
	s.pending = true
	s.clock.RequestTick(s.tick)
}

func (s *Scheduler) tick(ts float64) {
	s.pending = false
	if !s.running {
		return
	}
	if !s.startSet {
		s.start = ts
		s.startSet = true
	}
	elapsed := ts - s.start
	if err := s.guest.AnimationFrame(s.ctx, elapsed); err != nil {
		s.Stop()
		if s.fault != nil {
			s.fault(err)
			return
		}
		s.logger.Error("animation frame delivery failed", zap.Error(err))
		return
	}
	if s.running {
		s.requestTick()
	}
}
