// Package easel hosts compiled sketch programs inside an embedded
// WebAssembly sandbox and bridges them to a drawing surface and input
// devices.
//
// A sketch is an opaque guest binary. The host hands it a small import
// surface (text output, buffered line input, drawing primitives, event
// registration) and the guest hands back a fixed set of exports (entry
// point, stop, pointer/key/input/frame callbacks, an allocator). All
// strings cross the boundary as UTF-8 bytes in guest memory, addressed
// by a (pointer, length) pair packed into one 64-bit value.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	easel/           Root package with core Memory and Allocator interfaces
//	├── abi/         Address packing and string transfer across guest memory
//	├── canvas/      Logical-to-physical transform, pen state, framebuffer
//	├── event/       Event kind registration, dispatch, animation scheduling
//	├── engine/      wazero embedding: programs, instances, the host module
//	├── session/     Run lifecycle: start, stop, teardown
//	├── catalog/     Sample sketch sources
//	├── config/      File/env configuration
//	├── errors/      Structured error types for diagnostics
//	└── web/         Local HTTP front end
//
// # Quick Start
//
// Load a program and run one session:
//
//	eng, err := engine.New(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	prog, err := eng.LoadProgram(ctx, "sketch.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sess, err := session.New(session.Options{
//	    Launcher: session.ProgramLauncher(prog),
//	    Canvas:   canvas.New(canvas.DefaultTransform(), surface, nil),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := eng.InstallHost(ctx, sess); err != nil {
//	    log.Fatal(err)
//	}
//	if err := sess.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Stop(ctx)
//
// # Thread Safety
//
// Nothing here is safe for concurrent use. An engine serves one session,
// and the session, canvas and event bridge are confined to a single
// driver goroutine; front ends deliver input and frame ticks on that
// goroutine and keep everything else off it.
//
// # Memory Model
//
// WASM linear memory can only grow, never shrink. Strings written to the
// guest are owned by the guest from the moment the call returns; the host
// never frees them. Every run gets a brand-new instance, so per-run
// allocations never outlive a session.
package easel
