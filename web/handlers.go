package web

import (
	"bytes"
	"context"
	_ "embed"
	"image/png"

	"github.com/gofiber/fiber/v2"

	"github.com/easelhq/easel/errors"
	"github.com/easelhq/easel/event"
	"github.com/easelhq/easel/session"
)

//go:embed index.html
var pageHTML []byte

type stateResponse struct {
	Running  bool   `json:"running"`
	Output   string `json:"output"`
	Source   string `json:"source"`
	Controls bool   `json:"controls"`
}

type runRequest struct {
	Sample string `json:"sample"`
}

type runResponse struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type sourceRequest struct {
	Text string `json:"text"`
}

type pointerRequest struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
}

type keyRequest struct {
	Name string `json:"name"`
}

type inputRequest struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	// Line, when set, feeds the typed-input line buffer instead of the
	// sketch input controls.
	Line string `json:"line"`
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(pageHTML)
}

func (s *Server) handleFrame(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := s.call(func() error {
		return png.Encode(&buf, s.frame.Image())
	}); err != nil {
		return fail(c, err)
	}
	c.Type("png")
	return c.Send(buf.Bytes())
}

func (s *Server) handleOutput(c *fiber.Ctx) error {
	var state stateResponse
	if err := s.call(func() error {
		state = stateResponse{
			Running:  s.session.Running(),
			Output:   s.session.Output(),
			Source:   s.session.Source(),
			Controls: s.panel.InputVisible(),
		}
		return nil
	}); err != nil {
		return fail(c, err)
	}
	return c.JSON(state)
}

func (s *Server) handleRun(c *fiber.Ctx) error {
	var req runRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, errors.InvalidInput(errors.PhaseStart, "malformed run request"))
		}
	}
	if req.Sample != "" {
		if err := s.prepareSample(c.UserContext(), req.Sample); err != nil {
			return fail(c, err)
		}
	}

	var resp runResponse
	var reject error
	if err := s.call(func() error {
		err := s.session.Start(context.Background())
		if err != nil {
			// Launch-phase failures leave the session idle and are the
			// caller's problem; anything later is the run's outcome.
			if e, ok := err.(*errors.Error); ok && launchPhase(e.Phase) {
				reject = err
				return nil
			}
			resp.Error = err.Error()
		}
		resp.Running = s.session.Running()
		return nil
	}); err != nil {
		return fail(c, err)
	}
	if reject != nil {
		return fail(c, reject)
	}
	return c.JSON(resp)
}

// prepareSample loads the sample's source into the editor and, when it
// carries precompiled bytecode, swaps the launcher for the next run.
func (s *Server) prepareSample(ctx context.Context, id string) error {
	if s.catalog == nil {
		return errors.NotFound("sample", id)
	}
	sample, err := s.catalog.Lookup(id)
	if err != nil {
		return err
	}
	var launcher session.Launcher
	if sample.Module != "" {
		if s.programs == nil {
			return errors.NotFound("program for sample", id)
		}
		launcher, err = s.programs.Load(ctx, sample.Module)
		if err != nil {
			return err
		}
	}
	return s.call(func() error {
		s.session.LoadSource(sample.Source)
		if launcher != nil {
			return s.session.SetLauncher(launcher)
		}
		return nil
	})
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	var resp runResponse
	if err := s.call(func() error {
		if err := s.session.Stop(context.Background()); err != nil {
			resp.Error = err.Error()
		}
		resp.Running = s.session.Running()
		return nil
	}); err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (s *Server) handleSource(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errors.InvalidInput(errors.PhaseLoad, "malformed source request"))
	}
	if err := s.call(func() error {
		s.session.LoadSource(req.Text)
		return nil
	}); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handlePointer(c *fiber.Ctx) error {
	var req pointerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errors.InvalidInput(errors.PhaseEvents, "malformed pointer event"))
	}
	kind := event.Kind(req.Kind)
	switch kind {
	case event.KindPointerDown, event.KindPointerUp, event.KindPointerMove:
	default:
		return fail(c, errors.InvalidInput(errors.PhaseEvents, "unknown pointer kind"))
	}
	if req.W <= 0 || req.H <= 0 {
		return fail(c, errors.InvalidInput(errors.PhaseEvents, "pointer event needs a positive client size"))
	}
	ev := event.PointerEvent{X: req.X, Y: req.Y, ClientW: req.W, ClientH: req.H}
	if err := s.call(func() error {
		return s.session.Pointer(context.Background(), kind, ev)
	}); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleKey(c *fiber.Ctx) error {
	var req keyRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errors.InvalidInput(errors.PhaseEvents, "malformed key event"))
	}
	if err := s.call(func() error {
		return s.session.Key(context.Background(), event.KeyEvent{Name: req.Name})
	}); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleInput(c *fiber.Ctx) error {
	var req inputRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errors.InvalidInput(errors.PhaseEvents, "malformed input event"))
	}
	if err := s.call(func() error {
		if req.Line != "" {
			s.session.SubmitInput(req.Line)
			return nil
		}
		return s.session.Input(context.Background(), req.ID, req.Value)
	}); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// launchPhase reports whether an error phase means the run never began.
func launchPhase(p errors.Phase) bool {
	return p == errors.PhaseStart || p == errors.PhaseLoad
}

func statusFor(err error) int {
	e, ok := err.(*errors.Error)
	if !ok {
		return fiber.StatusInternalServerError
	}
	switch e.Kind {
	case errors.KindNotFound:
		return fiber.StatusNotFound
	case errors.KindInvalidInput, errors.KindInvalidData:
		return fiber.StatusBadRequest
	case errors.KindAlreadyRunning:
		return fiber.StatusConflict
	case errors.KindNotInitialized:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}
