package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which stage of the inspection pipeline failed
type Phase string

const (
	PhaseLoad    Phase = "load"    // container parsing
	PhaseMap     Phase = "map"     // RVA to file-offset translation
	PhaseHeader  Phase = "header"  // CLI header / metadata root decoding
	PhaseTables  Phase = "tables"  // #~ stream decoding
	PhaseResolve Phase = "resolve" // entry-point resolution
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidData Kind = "invalid_data"  // signature mismatch, malformed field
	KindTruncated   Kind = "truncated"     // read past the end of the buffer
	KindOutOfBounds Kind = "out_of_bounds" // address, index or offset out of range
	KindUnsupported Kind = "unsupported"   // structurally valid but outside the decoder's subset
	KindNotFound    Kind = "not_found"     // required directory or stream absent
	KindUnresolved  Kind = "unresolved"    // token names a row that decodes to no name
)

// Error is the structured error type used throughout the inspector.
// Value carries the offending numeric value (offset, token, bitmask bit)
// where one exists, so failures can be reported with the number that
// triggered them.
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

// Path sets the structure path
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

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Truncated creates a truncated-buffer error
func Truncated(phase Phase, path []string, offset, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Path:   path,
		Detail: fmt.Sprintf("read at offset %d past buffer end (length %d)", offset, length),
		Value:  offset,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Unmapped creates an unmappable-address error
func Unmapped(rva uint32) *Error {
	return &Error{
		Phase:  PhaseMap,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("virtual address 0x%08x not covered by any section", rva),
		Value:  rva,
	}
}

// BadSignature creates a signature mismatch error
func BadSignature(phase Phase, path []string, got, want uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: fmt.Sprintf("signature 0x%08x, want 0x%08x", got, want),
		Value:  got,
	}
}

// Unsupported creates an unsupported structure error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Unresolved creates an entry-point resolution error
func Unresolved(detail string, token uint32) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnresolved,
		Detail: fmt.Sprintf("%s (token 0x%08x)", detail, token),
		Value:  token,
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
