// Package engine hosts compiled sketches in a sandboxed WebAssembly VM.
//
// The package wraps wazero and owns everything below the session layer:
// the runtime, the "easel" host module guests import their host calls
// from, program compilation and per-run instantiation.
//
// # Architecture
//
// Three types cover the lifecycle:
//
//	Engine  - owns the wazero runtime and the installed host module
//	Program - compiled guest bytecode, reusable across runs
//	Guest   - one instantiated run, with its exports, memory and allocator
//
// # Run Flow
//
//  1. Engine.LoadProgram fetches and compiles the guest bytecode
//  2. Engine.InstallHost binds the host module to the session's hooks
//  3. Program.Instantiate creates a Guest and makes it the live instance
//  4. Guest.Run invokes the guest entry point; event callbacks follow
//  5. Guest.Close retires the instance; host calls from it are dropped
//
// # Host Calls
//
// Guests import the host surface from the "easel" namespace. Strings cross
// the boundary as a single i64 packing pointer and length; the abi package
// defines the layout. The engine marshals values and routes each call to
// the HostHooks implementation, dropping calls from instances that are no
// longer live.
//
// wazero instantiates a host module once per runtime, so the hooks are
// bound when the engine is built and every run links against the same
// host module.
//
// # Thread Safety
//
// Engine, Program and Guest are confined to one driver goroutine. Nothing
// here locks; front ends serialize through the session.
package engine
