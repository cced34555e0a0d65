package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which half of a transcoding call the error occurred in
type Phase string

const (
	PhaseReceive  Phase = "receive"  // import: wire text to cargo
	PhaseSend     Phase = "send"     // export: cargo to wire text
	PhaseRegistry Phase = "registry" // polymorphic type reconstruction
)

// Kind categorizes the error
type Kind string

const (
	// Lexical
	KindBadEscape   Kind = "bad_escape"   // unknown or malformed escape sequence
	KindBadEncoding Kind = "bad_encoding" // bad numeric escape or unsupported source encoding
	KindReadFailure Kind = "read_failure" // the source refused a read

	// Structural
	KindUnbalancedScope Kind = "unbalanced_scope" // open/close mismatch
	KindBadDelimiter    Kind = "bad_delimiter"    // delimiter in the wrong position
	KindMissingName     Kind = "missing_name"     // tag or member name absent
	KindMissingQuote    Kind = "missing_quote"    // closing quote never arrived
	KindMissingClose    Kind = "missing_close"    // closing brace/bracket/tag never arrived
	KindBadAttribute    Kind = "bad_attribute"    // malformed attribute syntax

	// Schema
	KindNoInventory     Kind = "no_inventory"     // composite supplied no inventory
	KindBoundsExceeded  Kind = "bounds_exceeded"  // more instances than the entry's maximum
	KindInstanceMissing Kind = "instance_missing" // a required field never arrived
	KindUnknownName     Kind = "unknown_name"     // unmatched field with skipping disabled

	// Semantic
	KindInvalidObject Kind = "invalid_object" // post-import validation failed
	KindBadValue      Kind = "bad_value"      // literal text unparsable as the declared type
	KindUnknownType   Kind = "unknown_type"   // type tag not present in the registry

	// Destination
	KindWriteFailure Kind = "write_failure" // the output sink rejected a write
)

// Class groups kinds into the five taxonomy families.
type Class string

const (
	ClassLexical     Class = "lexical"
	ClassStructural  Class = "structural"
	ClassSchema      Class = "schema"
	ClassSemantic    Class = "semantic"
	ClassDestination Class = "destination"
)

// Class reports the taxonomy family of a kind.
func (k Kind) Class() Class {
	switch k {
	case KindBadEscape, KindBadEncoding, KindReadFailure:
		return ClassLexical
	case KindUnbalancedScope, KindBadDelimiter, KindMissingName,
		KindMissingQuote, KindMissingClose, KindBadAttribute:
		return ClassStructural
	case KindNoInventory, KindBoundsExceeded, KindInstanceMissing, KindUnknownName:
		return ClassSchema
	case KindInvalidObject, KindBadValue, KindUnknownType:
		return ClassSemantic
	case KindWriteFailure:
		return ClassDestination
	}
	return ClassSemantic
}

// Position is the last known source location, 1-based. A zero Position
// means the location was not recorded (export-side errors, typically).
type Position struct {
	Row int
	Col int
}

func (p Position) known() bool {
	return p.Row > 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Col)
}

// Error is the structured error type used throughout the engine
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Pos    Position
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

	if e.Pos.known() {
		b.WriteString(" (")
		b.WriteString(e.Pos.String())
		b.WriteByte(')')
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// At sets the source position
func (b *Builder) At(pos Position) *Builder {
	b.err.Pos = pos
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

// UnknownName creates an unmatched-field error
func UnknownName(path []string, pos Position, name string) *Error {
	return &Error{
		Phase:  PhaseReceive,
		Kind:   KindUnknownName,
		Path:   path,
		Pos:    pos,
		Detail: fmt.Sprintf("no inventory entry named %q", name),
		Value:  name,
	}
}

// BoundsExceeded creates a cardinality error
func BoundsExceeded(path []string, pos Position, name string, max int) *Error {
	return &Error{
		Phase:  PhaseReceive,
		Kind:   KindBoundsExceeded,
		Path:   path,
		Pos:    pos,
		Detail: fmt.Sprintf("field %q admits at most %d instances", name, max),
	}
}

// InstanceMissing creates a required-field-absent error
func InstanceMissing(path []string, pos Position, name string) *Error {
	return &Error{
		Phase:  PhaseReceive,
		Kind:   KindInstanceMissing,
		Path:   path,
		Pos:    pos,
		Detail: fmt.Sprintf("required field %q never arrived", name),
	}
}

// BadValue creates an unparsable-literal error
func BadValue(path []string, pos Position, text string) *Error {
	preview := text
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseReceive,
		Kind:   KindBadValue,
		Path:   path,
		Pos:    pos,
		Detail: fmt.Sprintf("value %q rejected by the receiving item", preview),
		Value:  text,
	}
}

// InvalidObject creates a post-import validation error
func InvalidObject(path []string, pos Position) *Error {
	return &Error{
		Phase:  PhaseReceive,
		Kind:   KindInvalidObject,
		Path:   path,
		Pos:    pos,
		Detail: "object failed post-import validation",
	}
}

// UnknownType creates a type-tag-not-registered error
func UnknownType(path []string, pos Position, tag string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindUnknownType,
		Path:   path,
		Pos:    pos,
		Detail: fmt.Sprintf("type tag %q is not registered", tag),
		Value:  tag,
	}
}

// WriteFailure wraps a sink error
func WriteFailure(path []string, cause error) *Error {
	return &Error{
		Phase: PhaseSend,
		Kind:  KindWriteFailure,
		Path:  path,
		Cause: cause,
	}
}

// NoInventory creates an empty-composite error
func NoInventory(phase Phase, path []string, pos Position) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNoInventory,
		Path:   path,
		Pos:    pos,
		Detail: "composite supplies no inventory and is not atomic",
	}
}
