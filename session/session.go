package session

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easelhq/easel/canvas"
	"github.com/easelhq/easel/engine"
	"github.com/easelhq/easel/errors"
	"github.com/easelhq/easel/event"
)

// Guest is the per-run instance the session drives. engine.Guest
// implements it; tests substitute in-process fakes.
type Guest interface {
	event.Guest

	// Run invokes the guest entry point and blocks until it returns.
	Run(ctx context.Context) error
	// Stop invokes the guest stop export.
	Stop(ctx context.Context) error
	// Close releases the instance. Idempotent.
	Close(ctx context.Context) error
	// Exited reports whether the guest terminated itself. A terminated
	// instance accepts no further calls.
	Exited() bool
	// Name identifies the instance in logs.
	Name() string
	// MemoryBytes is the current linear-memory size.
	MemoryBytes() uint32
}

var _ Guest = (*engine.Guest)(nil)

// Launcher creates one fresh guest instance per run.
type Launcher interface {
	Instantiate(ctx context.Context) (Guest, error)
}

// ProgramLauncher adapts a compiled engine.Program into a Launcher.
func ProgramLauncher(p *engine.Program) Launcher {
	return programLauncher{program: p}
}

type programLauncher struct {
	program *engine.Program
}

func (l programLauncher) Instantiate(ctx context.Context) (Guest, error) {
	g, err := l.program.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Options configures a Session.
type Options struct {
	// Launcher instantiates the program on each Start. Required.
	Launcher Launcher
	// Canvas is the drawing target, shared with the front end. Required.
	Canvas *canvas.Canvas
	// Clock drives animation frames. Defaults to event.NopClock.
	Clock event.FrameClock
	// Controls reveals and hides the front end's sketch input widgets.
	// Defaults to event.NopControls.
	Controls event.Controls
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Session runs one sketch at a time against a shared canvas, transcript
// and input buffer. It alternates between idle and running and is reused
// across runs; each Start gets a brand-new guest instance, event bridge
// and frame scheduler. NOT safe for concurrent use.
type Session struct {
	launcher Launcher
	canvas   *canvas.Canvas
	clock    event.FrameClock
	controls event.Controls
	logger   *zap.Logger

	// Per-run state, nil while idle.
	guest     Guest
	bridge    *event.Bridge
	scheduler *event.Scheduler

	running      bool
	runID        string
	pendingFault error

	input  lineBuffer
	output strings.Builder
	source string

	onOutput func(text string)
	onSource func(text string)
	onRun    func(running bool)
}

// New builds an idle session.
func New(opts Options) (*Session, error) {
	if opts.Launcher == nil {
		return nil, errors.InvalidInput(errors.PhaseStart, "session requires a launcher")
	}
	if opts.Canvas == nil {
		return nil, errors.InvalidInput(errors.PhaseStart, "session requires a canvas")
	}
	clock := opts.Clock
	if clock == nil {
		clock = event.NopClock{}
	}
	controls := opts.Controls
	if controls == nil {
		controls = event.NopControls{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		launcher: opts.Launcher,
		canvas:   opts.Canvas,
		clock:    clock,
		controls: controls,
		logger:   logger,
	}, nil
}

// Start begins a run: a fresh guest instance, a cleared canvas and
// transcript, then the guest entry point. Only one run exists at a time;
// starting a running session fails without disturbing the current run.
// Start returns once the entry point does, which for an animating or
// event-driven sketch is long before the run ends.
func (s *Session) Start(ctx context.Context) error {
	if s.running {
		return errors.AlreadyRunning()
	}

	guest, err := s.launcher.Instantiate(ctx)
	if err != nil {
		s.logger.Error("start aborted", zap.Error(err))
		return err
	}

	s.guest = guest
	s.pendingFault = nil
	s.runID = uuid.NewString()
	s.scheduler = event.NewScheduler(s.clock, guest, s.handleFault, s.logger)
	s.bridge = event.NewBridge(guest, s.canvas.Transform(), s.controls, s.scheduler, s.logger)
	s.canvas.Reset()
	s.output.Reset()
	s.running = true
	s.notifyRun(true)
	s.logger.Info("run started",
		zap.String("run", shortID(s.runID)),
		zap.String("guest", guest.Name()),
		zap.Uint32("guest_memory", guest.MemoryBytes()))

	return s.settle(ctx, guest.Run(ctx))
}

// Stop ends the current run. The guest's stop export runs first and is
// expected to call back into onSessionEnd; teardown happens regardless,
// including when the export traps or is missing. Stopping an idle
// session is a no-op.
func (s *Session) Stop(ctx context.Context) error {
	if s.guest == nil {
		s.afterStop(ctx)
		return nil
	}

	err := s.guest.Stop(ctx)
	if fault := s.pendingFault; fault != nil {
		s.pendingFault = nil
		if err == nil {
			err = fault
		}
	}
	if err != nil {
		s.logger.Warn("stop export failed",
			zap.String("run", shortID(s.runID)), zap.Error(err))
	}
	s.afterStop(ctx)
	return err
}

// afterStop is the single teardown path for a run. Natural completion
// through onSessionEnd, an explicit Stop, guest exit and fatal faults
// all funnel through here; calling it again is a no-op. Listeners detach
// before the guest is released, so a superseded instance can neither
// receive nor deliver events afterwards.
func (s *Session) afterStop(ctx context.Context) {
	active := s.running || s.guest != nil

	if s.bridge != nil {
		// Also stops the frame loop and hides the input controls.
		s.bridge.RemoveAll()
		s.bridge = nil
	}
	s.running = false
	s.scheduler = nil
	if s.guest != nil {
		if err := s.guest.Close(ctx); err != nil {
			s.logger.Warn("close guest",
				zap.String("run", shortID(s.runID)), zap.Error(err))
		}
		s.guest = nil
	}

	if active {
		s.logger.Info("run ended", zap.String("run", shortID(s.runID)))
		s.notifyRun(false)
	}
}

// settle folds the outcome of a guest call into session state. Faults
// recorded at the host boundary while the call was in flight take
// precedence, fatal errors end the run, and a guest that exited on its
// own is retired cleanly.
func (s *Session) settle(ctx context.Context, err error) error {
	if fault := s.pendingFault; fault != nil {
		s.pendingFault = nil
		s.logger.Error("run aborted by host-call fault",
			zap.String("run", shortID(s.runID)), zap.Error(fault))
		s.afterStop(ctx)
		if err == nil {
			err = fault
		}
		return err
	}

	if err != nil {
		if errors.IsFatal(err) {
			s.logger.Error("run aborted",
				zap.String("run", shortID(s.runID)), zap.Error(err))
			s.afterStop(ctx)
			return err
		}
		s.logger.Warn("guest call failed",
			zap.String("run", shortID(s.runID)), zap.Error(err))
	}

	if s.guest != nil && s.guest.Exited() {
		s.logger.Info("guest exited",
			zap.String("run", shortID(s.runID)))
		s.afterStop(ctx)
	}
	return err
}

// Running reports whether a run is active.
func (s *Session) Running() bool {
	return s.running
}

// Output returns the transcript accumulated since the last clear.
func (s *Session) Output() string {
	return s.output.String()
}

// Source returns the editor source text.
func (s *Session) Source() string {
	return s.source
}

// LoadSource replaces the editor source text, as when switching samples,
// and notifies the source listener.
func (s *Session) LoadSource(text string) {
	s.source = text
	if s.onSource != nil {
		s.onSource(text)
	}
}

// ClearOutputAndRender empties the transcript and resets the canvas
// without touching the run state.
func (s *Session) ClearOutputAndRender() {
	s.output.Reset()
	s.canvas.Reset()
}

// SubmitInput appends typed text to the line buffer guests read through
// the readLine host call. Front ends include the trailing newline
// themselves, so partial lines accumulate until one arrives.
func (s *Session) SubmitInput(text string) {
	s.input.Push(text)
}

// SetOutputListener registers fn to observe every transcript append.
// One listener; nil clears it.
func (s *Session) SetOutputListener(fn func(text string)) {
	s.onOutput = fn
}

// SetSourceListener registers fn to observe editor text replacement,
// whether from the guest or from sample switching. One listener; nil
// clears it.
func (s *Session) SetSourceListener(fn func(text string)) {
	s.onSource = fn
}

// SetRunListener registers fn to observe run-state flips, so front ends
// can toggle their stop affordance. One listener; nil clears it.
func (s *Session) SetRunListener(fn func(running bool)) {
	s.onRun = fn
}

// SetLauncher swaps the program launched by the next Start. Rejected
// while a run is active.
func (s *Session) SetLauncher(l Launcher) error {
	if s.running {
		return errors.AlreadyRunning()
	}
	s.launcher = l
	return nil
}

func (s *Session) notifyRun(running bool) {
	if s.onRun != nil {
		s.onRun(running)
	}
}

// shortID trims a run id for log lines.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
