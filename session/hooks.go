package session

import (
	"context"

	"github.com/easelhq/easel/engine"
	"github.com/easelhq/easel/errors"
)

// The session is the host side of every call a running guest makes.
var _ engine.HostHooks = (*Session)(nil)

// WriteOutput appends guest text to the transcript and feeds the output
// listener.
func (s *Session) WriteOutput(text string) {
	s.output.WriteString(text)
	if s.onOutput != nil {
		s.onOutput(text)
	}
}

// ReadLine pops the next complete input line, or reports not-ready when
// none is buffered.
func (s *Session) ReadLine() (string, bool) {
	return s.input.ReadLine()
}

// SourceText returns the editor text for the guest.
func (s *Session) SourceText() string {
	return s.source
}

// SetSourceText lets the guest replace the editor text.
func (s *Session) SetSourceText(text string) {
	s.LoadSource(text)
}

// Drawing host calls pass straight through to the shared canvas.

func (s *Session) Move(x, y float64) {
	s.canvas.Move(x, y)
}

func (s *Session) Line(x, y float64) {
	s.canvas.Line(x, y)
}

func (s *Session) SetLineWidth(w float64) {
	s.canvas.SetLineWidth(w)
}

func (s *Session) Circle(r float64) {
	s.canvas.Circle(r)
}

func (s *Session) FillRect(w, h float64) {
	s.canvas.Rect(w, h)
}

func (s *Session) SetColor(name string) {
	s.canvas.SetColor(name)
}

// RegisterEvents arms the requested kind on the current run's bridge.
func (s *Session) RegisterEvents(ctx context.Context, kind string) error {
	if s.bridge == nil {
		return errors.NotInitialized(errors.PhaseEvents, "event bridge")
	}
	return s.bridge.Register(ctx, kind)
}

// SessionEnded completes the run. Guests reach it through the
// onSessionEnd host call, from their stop export or when their sketch
// finishes on its own.
func (s *Session) SessionEnded(ctx context.Context) {
	s.afterStop(ctx)
}

// Fault records a fatal host-boundary failure. The first fault sticks;
// the run ends when the in-flight guest call unwinds.
func (s *Session) Fault(err error) {
	if s.pendingFault == nil {
		s.pendingFault = err
	}
}
