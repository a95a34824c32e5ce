// Package errors provides structured error types for the easel host.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: a component path, a detail message, and a
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseHost, errors.KindInvalidInput).
//		Path("session", "start").
//		Detail("expected idle, got running").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.GuestFault(errors.PhaseRuntime, "onAnimationFrame", trap)
//	err := errors.Transport("fetch sketch.wasm", cause)
//
// The four outcomes a caller distinguishes map onto kinds: fatal guest
// faults (trap, allocation, bounds, missing export, instantiation; see IsFatal),
// recoverable registration errors, transport errors, and the not-ready
// input sentinel, which is not an error at all and never appears here.
// All errors implement the standard error interface and support errors.Is/As.
package errors
