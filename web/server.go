// Package web is the browser front end: a small fiber app serving a
// single page, the rendered framebuffer and a handful of session
// endpoints. Handlers run on fasthttp worker goroutines, so every touch
// of the session crosses a mailbox into the driver goroutine that Run
// owns; the frame ticker fires the session's held clock from the same
// loop.
package web

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/easelhq/easel/canvas"
	"github.com/easelhq/easel/catalog"
	"github.com/easelhq/easel/errors"
	"github.com/easelhq/easel/event"
	"github.com/easelhq/easel/session"
)

// ProgramLoader compiles sample bytecode on demand, for catalogue
// entries that carry a module reference.
type ProgramLoader interface {
	Load(ctx context.Context, source string) (session.Launcher, error)
}

// PanelState is the event.Controls implementation for the page: a flag
// the state poll reports so the page can reveal its input widgets. It is
// read and written on the driver goroutine only.
type PanelState struct {
	inputVisible bool
}

var _ event.Controls = (*PanelState)(nil)

func (p *PanelState) ShowInputControls() { p.inputVisible = true }
func (p *PanelState) HideInputControls() { p.inputVisible = false }

// InputVisible reports whether the sketch asked for input widgets.
func (p *PanelState) InputVisible() bool { return p.inputVisible }

// Options configures a Server. Session, Frame, Clock and Panel are the
// same objects wired into the session by the caller.
type Options struct {
	Session  *session.Session
	Catalog  *catalog.Catalog
	Frame    *canvas.Framebuffer
	Clock    *event.HeldClock
	Panel    *PanelState
	Programs ProgramLoader
	Addr     string
	// Interval is the frame-tick period. Defaults to 33ms.
	Interval time.Duration
	Logger   *zap.Logger
}

// Server is the web front end. NOT safe to share: one server, one
// session, one driver goroutine.
type Server struct {
	app      *fiber.App
	session  *session.Session
	catalog  *catalog.Catalog
	frame    *canvas.Framebuffer
	clock    *event.HeldClock
	panel    *PanelState
	programs ProgramLoader
	addr     string
	interval time.Duration
	logger   *zap.Logger

	mailbox   chan func()
	done      chan struct{}
	closeOnce sync.Once
	epoch     time.Time
}

// New builds the server and its routes. Run must be called before the
// first request is served.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	clock := opts.Clock
	if clock == nil {
		clock = &event.HeldClock{}
	}
	panel := opts.Panel
	if panel == nil {
		panel = &PanelState{}
	}

	s := &Server{
		session:  opts.Session,
		catalog:  opts.Catalog,
		frame:    opts.Frame,
		clock:    clock,
		panel:    panel,
		programs: opts.Programs,
		addr:     opts.Addr,
		interval: interval,
		logger:   logger,
		mailbox:  make(chan func(), 16),
		done:     make(chan struct{}),
		epoch:    time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "easel",
		DisableStartupMessage: true,
	})
	app.Get("/", s.handleIndex)
	app.Get("/frame.png", s.handleFrame)
	app.Get("/output", s.handleOutput)
	app.Post("/run", s.handleRun)
	app.Post("/stop", s.handleStop)
	app.Post("/source", s.handleSource)
	app.Post("/event/pointer", s.handlePointer)
	app.Post("/event/key", s.handleKey)
	app.Post("/event/input", s.handleInput)
	s.app = app
	return s
}

// Run starts the listener and drives the session mailbox until ctx is
// canceled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	listenErr := make(chan error, 1)
	go func() { listenErr <- s.app.Listen(s.addr) }()
	s.logger.Info("web front end listening", zap.String("addr", s.addr))
	return s.drive(ctx, listenErr)
}

// drive is the driver goroutine: handler jobs, frame ticks and shutdown
// all happen here, which is what confines the session.
func (s *Server) drive(ctx context.Context, listenErr <-chan error) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case job := <-s.mailbox:
			job()
		case now := <-ticker.C:
			s.clock.Fire(float64(now.Sub(s.epoch).Microseconds()) / 1000)
		case err := <-listenErr:
			s.close()
			return err
		case <-ctx.Done():
			s.close()
			if err := s.session.Stop(context.Background()); err != nil {
				s.logger.Warn("stop session", zap.Error(err))
			}
			if err := s.app.Shutdown(); err != nil {
				s.logger.Warn("shutdown", zap.Error(err))
			}
			return nil
		}
	}
}

// close releases handlers blocked on a driver round-trip.
func (s *Server) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

var errServerClosed = errors.NotInitialized(errors.PhaseRuntime, "web front end")

// call runs fn on the driver goroutine and returns its result.
func (s *Server) call(fn func() error) error {
	result := make(chan error, 1)
	select {
	case s.mailbox <- func() { result <- fn() }:
	case <-s.done:
		return errServerClosed
	}
	select {
	case err := <-result:
		return err
	case <-s.done:
		return errServerClosed
	}
}
