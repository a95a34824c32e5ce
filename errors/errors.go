package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // bytecode/source loading
	PhaseStart   Phase = "start"   // session start, instantiation
	PhaseRuntime Phase = "runtime" // guest calls mid-session
	PhaseHost    Phase = "host"    // host function handling
	PhaseEvents  Phase = "events"  // event registration and dispatch
	PhaseMemory  Phase = "memory"  // boundary marshalling
)

// Kind categorizes the error
type Kind string

const (
	KindGuestFault     Kind = "guest_fault"
	KindAllocation     Kind = "allocation"
	KindTransport      Kind = "transport"
	KindRegistration   Kind = "registration"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindMissingExport  Kind = "missing_export"
	KindInstantiation  Kind = "instantiation"
	KindNotInitialized Kind = "not_initialized"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindAlreadyRunning Kind = "already_running"
	KindInvalidData    Kind = "invalid_data"
)

// Error is the structured error type used throughout the host
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsFatal reports whether err ends the run it occurred in. Faults, failed
// allocations, out-of-bounds boundary accesses, missing guest exports and
// instantiation failures are fatal; registration and transport errors are not.
func IsFatal(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	switch e.Kind {
	case KindGuestFault, KindAllocation, KindOutOfBounds, KindMissingExport, KindInstantiation:
		return true
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// GuestFault creates a fatal guest fault (trap or contract violation)
func GuestFault(phase Phase, what string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindGuestFault,
		Detail: what,
		Cause:  cause,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes in guest memory", size),
		Cause:  cause,
	}
}

// Transport creates a transport error for a failed bytecode or source fetch
func Transport(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindTransport,
		Detail: detail,
		Cause:  cause,
	}
}

// Registration creates a recoverable registration error for an
// unrecognized event kind
func Registration(kind string) *Error {
	return &Error{
		Phase:  PhaseEvents,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("unknown event kind %q", kind),
		Value:  kind,
	}
}

// OutOfBounds creates an out of bounds memory access error
func OutOfBounds(offset, length uint32) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("access out of bounds: offset=%d, length=%d", offset, length),
	}
}

// MissingExport creates a contract error for a guest export that is absent
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseStart,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("guest does not export %q", name),
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseStart,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error for a missing engine/program
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(what, name string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// AlreadyRunning creates the error returned when a session is started twice
func AlreadyRunning() *Error {
	return &Error{
		Phase:  PhaseStart,
		Kind:   KindAlreadyRunning,
		Detail: "session already running",
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
