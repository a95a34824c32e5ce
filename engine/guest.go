package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/abi"
	"github.com/easelhq/easel/errors"
)

// maxGuestStack is the scratch stack capacity for guest calls. The widest
// guest export takes two i64 params.
const maxGuestStack = 8

// Guest is one instantiated run of a program, with its exported functions,
// linear memory and allocator.
//
// A Guest is NOT safe for concurrent use. All calls must come from the
// session's driver goroutine.
type Guest struct {
	engine   *Engine
	instance api.Module
	name     string

	memory *guestMemory
	alloc  *guestAllocator

	entryName string
	funcCache map[string]api.Function
	stackBuf  []uint64

	depth         int
	closeOnUnwind bool
	closed        bool
	exited        bool
}

func newGuest(ctx context.Context, e *Engine, instance api.Module, name string) (*Guest, error) {
	mem := instance.Memory()
	if mem == nil {
		return nil, errors.MissingExport("memory")
	}

	g := &Guest{
		engine:    e,
		instance:  instance,
		name:      name,
		memory:    &guestMemory{memory: mem},
		funcCache: make(map[string]api.Function),
		stackBuf:  make([]uint64, maxGuestStack),
	}

	// Reactor-style modules export _initialize for toolchain runtime
	// setup. It must run before any other export.
	if initFn := instance.ExportedFunction("_initialize"); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			return nil, errors.GuestFault(errors.PhaseStart, "_initialize", err)
		}
	}

	entry, ok := pickExport(instance, abi.EntryPoints)
	if !ok {
		return nil, errors.New(errors.PhaseStart, errors.KindMissingExport).
			Detail("guest exports none of %v", abi.EntryPoints).Build()
	}
	g.entryName = entry

	allocName, ok := pickExport(instance, abi.AllocatorNames)
	if !ok {
		return nil, errors.New(errors.PhaseStart, errors.KindMissingExport).
			Detail("guest exports none of %v", abi.AllocatorNames).Build()
	}
	g.alloc = &guestAllocator{guest: g, name: allocName}

	return g, nil
}

// pickExport returns the first name the instance exports as a function.
func pickExport(instance api.Module, names []string) (string, bool) {
	for _, name := range names {
		if instance.ExportedFunction(name) != nil {
			return name, true
		}
	}
	return "", false
}

// Name returns the unique instance name, suitable for logs.
func (g *Guest) Name() string {
	return g.name
}

// Entry returns the resolved entry-point export name.
func (g *Guest) Entry() string {
	return g.entryName
}

// Exited reports whether the guest terminated itself through the WASI
// exit syscall. A terminated instance cannot receive further calls.
func (g *Guest) Exited() bool {
	return g.exited
}

// MemoryBytes returns the current size of guest linear memory.
func (g *Guest) MemoryBytes() uint32 {
	if g.memory == nil {
		return 0
	}
	return g.memory.Size()
}

// Run invokes the guest's entry point. It returns once the entry returns;
// with listeners armed the run then idles until events arrive.
func (g *Guest) Run(ctx context.Context) error {
	debugf("guest %s: entry %s", g.name, g.entryName)
	_, err := g.call(ctx, g.entryName)
	return err
}

// Stop invokes the guest's stop export. Guests are expected to call back
// into onSessionEnd from it.
func (g *Guest) Stop(ctx context.Context) error {
	_, err := g.call(ctx, abi.GuestStop)
	return err
}

// PointerDown delivers a pointer-press at logical coordinates.
func (g *Guest) PointerDown(ctx context.Context, x, y float64) error {
	_, err := g.call(ctx, abi.GuestPointerDown, api.EncodeF64(x), api.EncodeF64(y))
	return err
}

// PointerUp delivers a pointer-release at logical coordinates.
func (g *Guest) PointerUp(ctx context.Context, x, y float64) error {
	_, err := g.call(ctx, abi.GuestPointerUp, api.EncodeF64(x), api.EncodeF64(y))
	return err
}

// PointerMove delivers a pointer move at logical coordinates.
func (g *Guest) PointerMove(ctx context.Context, x, y float64) error {
	_, err := g.call(ctx, abi.GuestPointerMove, api.EncodeF64(x), api.EncodeF64(y))
	return err
}

// Key delivers a key name. The string is copied into guest memory first.
func (g *Guest) Key(ctx context.Context, name string) error {
	packed, err := g.writeString(ctx, name)
	if err != nil {
		return err
	}
	_, err = g.call(ctx, abi.GuestKey, packed)
	return err
}

// Input delivers a control id and its new value, each copied into guest
// memory.
func (g *Guest) Input(ctx context.Context, id, value string) error {
	idPacked, err := g.writeString(ctx, id)
	if err != nil {
		return err
	}
	valuePacked, err := g.writeString(ctx, value)
	if err != nil {
		return err
	}
	_, err = g.call(ctx, abi.GuestInput, idPacked, valuePacked)
	return err
}

// AnimationFrame delivers the elapsed time since the animation origin.
func (g *Guest) AnimationFrame(ctx context.Context, elapsedMs float64) error {
	_, err := g.call(ctx, abi.GuestAnimationFrame, api.EncodeF64(elapsedMs))
	return err
}

// exportedFunc looks up an exported function, caching the handle.
func (g *Guest) exportedFunc(name string) (api.Function, error) {
	if fn, ok := g.funcCache[name]; ok {
		return fn, nil
	}
	fn := g.instance.ExportedFunction(name)
	if fn == nil {
		return nil, errors.MissingExport(name)
	}
	g.funcCache[name] = fn
	return fn, nil
}

// call invokes an exported guest function with the scratch stack. Traps
// surface as guest faults; termination through the WASI exit syscall with
// code zero counts as a normal return but retires the instance.
func (g *Guest) call(ctx context.Context, name string, args ...uint64) (uint64, error) {
	if g.closed || g.exited {
		return 0, errors.NotInitialized(errors.PhaseRuntime, "guest instance")
	}
	fn, err := g.exportedFunc(name)
	if err != nil {
		return 0, err
	}

	stack := g.stackBuf
	copy(stack, args)

	g.depth++
	callErr := fn.CallWithStack(ctx, stack)
	g.depth--
	if g.depth == 0 && g.closeOnUnwind {
		g.closeOnUnwind = false
		g.finalize(ctx)
	}

	if callErr != nil {
		if code, terminated := exitStatus(callErr); terminated {
			g.exited = true
			debugf("guest %s: exited with code %d during %s", g.name, code, name)
			if code == 0 {
				return 0, nil
			}
			return 0, errors.GuestFault(errors.PhaseRuntime, fmt.Sprintf("%s: exit code %d", name, code), callErr)
		}
		return 0, errors.GuestFault(errors.PhaseRuntime, name, callErr)
	}
	return stack[0], nil
}

// readString decodes a packed string address out of guest memory.
func (g *Guest) readString(packed uint64) (string, error) {
	addr := abi.Unpack(packed)
	return abi.ReadString(g.memory, addr.Ptr, addr.Len)
}

// writeString copies s into guest memory and returns the packed address.
func (g *Guest) writeString(ctx context.Context, s string) (uint64, error) {
	addr, err := abi.WriteString(ctx, g.memory, g.alloc, s)
	if err != nil {
		return abi.NotReady, err
	}
	return addr.Pack(), nil
}

// Close retires the guest. Host calls from the instance are dropped from
// this point on. When a guest call is still on the stack (a guest that
// stopped itself from inside its stop export) the underlying instance
// survives until that call unwinds.
func (g *Guest) Close(ctx context.Context) error {
	if g.closed {
		return nil
	}
	g.closed = true
	if g.engine.live == g {
		g.engine.live = nil
	}
	if g.depth > 0 {
		g.closeOnUnwind = true
		return nil
	}
	g.finalize(ctx)
	return nil
}

// finalize closes the underlying instance and drops the cached handles.
func (g *Guest) finalize(ctx context.Context) {
	if g.instance != nil {
		if err := g.instance.Close(ctx); err != nil {
			Logger().Warn("failed to close guest instance",
				zap.String("instance", g.name),
				zap.Error(err))
		}
		g.instance = nil
	}
	g.funcCache = nil
	g.memory = nil
	g.alloc = nil
	g.stackBuf = nil
	debugf("guest %s: released", g.name)
}

// guestMemory adapts wazero linear memory to the easel.Memory interface.
type guestMemory struct {
	memory api.Memory
}

var _ easel.Memory = (*guestMemory)(nil)

func (m *guestMemory) Read(offset, length uint32) ([]byte, error) {
	data, ok := m.memory.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *guestMemory) Write(offset uint32, data []byte) error {
	if !m.memory.Write(offset, data) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *guestMemory) Size() uint32 {
	return m.memory.Size()
}

// guestAllocator allocates guest-owned memory through the guest's
// exported allocator.
type guestAllocator struct {
	guest *Guest
	name  string
}

var _ easel.Allocator = (*guestAllocator)(nil)

func (a *guestAllocator) Alloc(ctx context.Context, size uint32) (uint32, error) {
	out, err := a.guest.call(ctx, a.name, uint64(size))
	if err != nil {
		return 0, err
	}
	ptr := uint32(out)
	if ptr == 0 {
		return 0, errors.New(errors.PhaseMemory, errors.KindAllocation).
			Detail("allocator %s returned null for %d bytes", a.name, size).Build()
	}
	return ptr, nil
}
