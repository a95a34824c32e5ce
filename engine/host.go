package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/easelhq/easel/abi"
	"github.com/easelhq/easel/errors"
)

// HostHooks receives the host calls a running guest makes. The session
// implements it. The engine marshals wasm values and guest-memory strings
// and drops calls from retired instances, so hooks only ever see calls
// from the live run.
//
// Hooks run on the driver goroutine, inside a guest call.
type HostHooks interface {
	// WriteOutput appends text to the session transcript.
	WriteOutput(text string)
	// ReadLine pops the next buffered input line. ok is false when no
	// complete line is available; the guest then sees the not-ready
	// sentinel and is expected to retry later.
	ReadLine() (line string, ok bool)
	// SourceText returns the current contents of the source editor.
	SourceText() string
	// SetSourceText replaces the contents of the source editor.
	SetSourceText(text string)

	Move(x, y float64)
	Line(x, y float64)
	SetLineWidth(w float64)
	Circle(r float64)
	FillRect(w, h float64)
	SetColor(name string)

	// RegisterEvents arms delivery for the named event kind. Unknown
	// kinds return a registration error; the run continues either way.
	RegisterEvents(ctx context.Context, kind string) error
	// SessionEnded runs the session's teardown. Guests call it from
	// their stop export; it must be idempotent.
	SessionEnded(ctx context.Context)
	// Fault records a fatal marshalling failure. The session ends the
	// run once the in-flight guest call unwinds.
	Fault(err error)
}

// InstallHost instantiates the "easel" host module in the engine's
// runtime, bound to hooks. wazero allows one instantiation per module
// name, so this runs once; every guest the engine instantiates links
// against it.
func (e *Engine) InstallHost(ctx context.Context, hooks HostHooks) error {
	if e.runtime == nil {
		return errors.NotInitialized(errors.PhaseHost, "engine")
	}
	if e.hooks != nil {
		return errors.InvalidInput(errors.PhaseHost, "host module already installed")
	}
	e.hooks = hooks

	_, err := e.runtime.NewHostModuleBuilder(abi.HostModule).
		NewFunctionBuilder().WithFunc(e.hostWriteOutput).WithParameterNames("addr").Export(abi.HostWriteOutput).
		NewFunctionBuilder().WithFunc(e.hostReadLine).Export(abi.HostReadLine).
		NewFunctionBuilder().WithFunc(e.hostGetSourceText).Export(abi.HostGetSourceText).
		NewFunctionBuilder().WithFunc(e.hostSetSourceText).WithParameterNames("addr").Export(abi.HostSetSourceText).
		NewFunctionBuilder().WithFunc(e.hostMove).WithParameterNames("x", "y").Export(abi.HostMove).
		NewFunctionBuilder().WithFunc(e.hostLine).WithParameterNames("x", "y").Export(abi.HostLine).
		NewFunctionBuilder().WithFunc(e.hostSetLineWidth).WithParameterNames("width").Export(abi.HostSetLineWidth).
		NewFunctionBuilder().WithFunc(e.hostCircle).WithParameterNames("radius").Export(abi.HostCircle).
		NewFunctionBuilder().WithFunc(e.hostFillRect).WithParameterNames("w", "h").Export(abi.HostFillRect).
		NewFunctionBuilder().WithFunc(e.hostSetColor).WithParameterNames("addr").Export(abi.HostSetColor).
		NewFunctionBuilder().WithFunc(e.hostOnSessionEnd).Export(abi.HostOnSessionEnd).
		NewFunctionBuilder().WithFunc(e.hostRegisterHandler).WithParameterNames("addr").Export(abi.HostRegisterHandler).
		Instantiate(ctx)
	if err != nil {
		e.hooks = nil
		return errors.Wrap(errors.PhaseHost, errors.KindInstantiation, err, "instantiate host module")
	}
	debugf("engine: host module %q installed", abi.HostModule)
	return nil
}

// gate returns the live guest when m is its instance. Calls from any other
// instance belong to a run that has already been torn down and are dropped.
func (e *Engine) gate(m api.Module, fn string) *Guest {
	g := e.live
	if g == nil || g.instance != m {
		debugf("host: dropped %s from stale instance %s", fn, m.Name())
		return nil
	}
	return g
}

func (e *Engine) hostWriteOutput(_ context.Context, m api.Module, addr uint64) {
	g := e.gate(m, abi.HostWriteOutput)
	if g == nil {
		return
	}
	text, err := g.readString(addr)
	if err != nil {
		e.hooks.Fault(err)
		return
	}
	e.hooks.WriteOutput(text)
}

func (e *Engine) hostReadLine(ctx context.Context, m api.Module) uint64 {
	g := e.gate(m, abi.HostReadLine)
	if g == nil {
		return abi.NotReady
	}
	line, ok := e.hooks.ReadLine()
	if !ok {
		return abi.NotReady
	}
	packed, err := g.writeString(ctx, line)
	if err != nil {
		e.hooks.Fault(err)
		return abi.NotReady
	}
	return packed
}

func (e *Engine) hostGetSourceText(ctx context.Context, m api.Module) uint64 {
	g := e.gate(m, abi.HostGetSourceText)
	if g == nil {
		return abi.NotReady
	}
	packed, err := g.writeString(ctx, e.hooks.SourceText())
	if err != nil {
		e.hooks.Fault(err)
		return abi.NotReady
	}
	return packed
}

func (e *Engine) hostSetSourceText(_ context.Context, m api.Module, addr uint64) {
	g := e.gate(m, abi.HostSetSourceText)
	if g == nil {
		return
	}
	text, err := g.readString(addr)
	if err != nil {
		e.hooks.Fault(err)
		return
	}
	e.hooks.SetSourceText(text)
}

func (e *Engine) hostMove(_ context.Context, m api.Module, x, y float64) {
	if e.gate(m, abi.HostMove) == nil {
		return
	}
	e.hooks.Move(x, y)
}

func (e *Engine) hostLine(_ context.Context, m api.Module, x, y float64) {
	if e.gate(m, abi.HostLine) == nil {
		return
	}
	e.hooks.Line(x, y)
}

func (e *Engine) hostSetLineWidth(_ context.Context, m api.Module, width float64) {
	if e.gate(m, abi.HostSetLineWidth) == nil {
		return
	}
	e.hooks.SetLineWidth(width)
}

func (e *Engine) hostCircle(_ context.Context, m api.Module, radius float64) {
	if e.gate(m, abi.HostCircle) == nil {
		return
	}
	e.hooks.Circle(radius)
}

func (e *Engine) hostFillRect(_ context.Context, m api.Module, w, h float64) {
	if e.gate(m, abi.HostFillRect) == nil {
		return
	}
	e.hooks.FillRect(w, h)
}

func (e *Engine) hostSetColor(_ context.Context, m api.Module, addr uint64) {
	g := e.gate(m, abi.HostSetColor)
	if g == nil {
		return
	}
	name, err := g.readString(addr)
	if err != nil {
		e.hooks.Fault(err)
		return
	}
	e.hooks.SetColor(name)
}

func (e *Engine) hostOnSessionEnd(ctx context.Context, m api.Module) {
	if e.gate(m, abi.HostOnSessionEnd) == nil {
		return
	}
	e.hooks.SessionEnded(ctx)
}

func (e *Engine) hostRegisterHandler(ctx context.Context, m api.Module, addr uint64) {
	g := e.gate(m, abi.HostRegisterHandler)
	if g == nil {
		return
	}
	kind, err := g.readString(addr)
	if err != nil {
		e.hooks.Fault(err)
		return
	}
	if err := e.hooks.RegisterEvents(ctx, kind); err != nil {
		// Non-fatal: the hooks already logged the rejection.
		debugf("host: registration rejected for kind %q: %v", kind, err)
	}
}

// hookWriter routes guest stdio into the session transcript, so wasip1
// guests that print through fd_write land in the same place as
// writeOutput calls.
type hookWriter struct {
	engine *Engine
}

func (w *hookWriter) Write(p []byte) (int, error) {
	if w.engine.hooks != nil {
		w.engine.hooks.WriteOutput(string(p))
	}
	return len(p), nil
}
