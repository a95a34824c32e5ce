package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/easelhq/easel/errors"
)

// Config holds engine configuration options.
type Config struct {
	// MemoryLimitPages caps guest linear memory, in 64KB pages.
	// 0 means the wazero default (65536 pages = 4GB). 256 = 16MB,
	// 1024 = 64MB.
	MemoryLimitPages uint32
}

// Engine owns a wazero runtime and the host module guests link against.
// One engine serves one session at a time; everything it instantiates runs
// on the session's driver goroutine.
type Engine struct {
	runtime wazero.Runtime
	hooks   HostHooks
	live    *Guest
}

// New creates an engine backed by a fresh wazero runtime. WASI is
// instantiated up front so wasip1-compiled guests link without ceremony.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, errors.Wrap(errors.PhaseStart, errors.KindInstantiation, err, "instantiate WASI")
	}

	return &Engine{runtime: r}, nil
}

// Live returns the guest instance host calls currently route to, or nil
// when no run is active.
func (e *Engine) Live() *Guest {
	return e.live
}

// Close shuts the runtime down, closing any live instance with it.
func (e *Engine) Close(ctx context.Context) error {
	if e.runtime == nil {
		return nil
	}
	err := e.runtime.Close(ctx)
	e.runtime = nil
	e.hooks = nil
	e.live = nil
	return err
}
