package engine

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"

	"github.com/easelhq/easel/errors"
)

// Program is compiled guest bytecode, ready to instantiate. Compiling once
// and instantiating per run keeps restart latency low.
type Program struct {
	engine   *Engine
	compiled wazero.CompiledModule
	name     string
}

// Name returns the program's display name, derived from its source.
func (p *Program) Name() string {
	return p.name
}

// LoadProgram fetches and compiles guest bytecode. Source may be a local
// file path or an http(s) URL.
func (e *Engine) LoadProgram(ctx context.Context, source string) (*Program, error) {
	bytecode, err := fetchBytecode(ctx, source)
	if err != nil {
		return nil, err
	}
	return e.LoadProgramBytes(ctx, programName(source), bytecode)
}

// LoadProgramBytes compiles guest bytecode already in memory.
func (e *Engine) LoadProgramBytes(ctx context.Context, name string, bytecode []byte) (*Program, error) {
	if e.runtime == nil {
		return nil, errors.NotInitialized(errors.PhaseLoad, "engine")
	}
	compiled, err := e.runtime.CompileModule(ctx, bytecode)
	if err != nil {
		return nil, errors.Transport(fmt.Sprintf("compile program %q", name), err)
	}
	debugf("engine: compiled %s (%d bytes)", name, len(bytecode))
	return &Program{engine: e, compiled: compiled, name: name}, nil
}

// Instantiate creates a fresh guest instance and makes it the engine's
// live instance for host-call routing. The previous run's instance, if
// any, must already be closed.
//
// Nothing runs at instantiation beyond toolchain setup: the entry point
// fires when the session calls Guest.Run.
func (p *Program) Instantiate(ctx context.Context) (*Guest, error) {
	e := p.engine
	if e.runtime == nil {
		return nil, errors.NotInitialized(errors.PhaseStart, "engine")
	}
	if e.hooks == nil {
		return nil, errors.NotInitialized(errors.PhaseStart, "host module")
	}

	out := &hookWriter{engine: e}
	name := p.name + "." + uuid.NewString()[:8]
	cfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions(). // entry points run explicitly, not here
		WithStdout(out).
		WithStderr(out).
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)

	instance, err := e.runtime.InstantiateModule(ctx, p.compiled, cfg)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	g, err := newGuest(ctx, e, instance, name)
	if err != nil {
		_ = instance.Close(ctx)
		return nil, err
	}
	e.live = g
	debugf("engine: instantiated %s", name)
	return g, nil
}

// fetchBytecode loads raw module bytes from a file path or an http(s) URL.
func fetchBytecode(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, errors.Transport(fmt.Sprintf("build request for %s", source), err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, errors.Transport(fmt.Sprintf("fetch %s", source), err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Transport(fmt.Sprintf("fetch %s: %s", source, resp.Status), nil)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Transport(fmt.Sprintf("read %s", source), err)
		}
		return data, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, errors.Transport(fmt.Sprintf("read %s", source), err)
	}
	return data, nil
}

// programName derives a short display name from a path or URL.
func programName(source string) string {
	name := strings.TrimRight(source, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "program"
	}
	return name
}
