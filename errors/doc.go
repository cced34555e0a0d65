// Package errors provides structured error types for the serialization engine.
//
// Errors are categorized by Phase (which half of a transcoding call failed)
// and Kind (error category); every Kind belongs to one of five Classes:
// Lexical, Structural, Schema, Semantic, Destination. An error carries the
// field path and the last known source position (row/column), sufficient to
// produce a human-readable diagnostic without re-parsing the document.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseReceive, errors.KindUnknownName).
//		Path("person", "nickname").
//		At(errors.Position{Row: 3, Col: 17}).
//		Detail("no inventory entry for %q", "nickname").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.BoundsExceeded(path, pos, "tags", 4)
//	err := errors.BadValue(path, pos, "12z")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
