// Package json implements the JSON transport of the serialization engine.
//
// The importer is a recursive-descent state machine over the grammar in RFC
// 8259 (objects, arrays, strings with the eight standard escapes plus
// \uXXXX, numbers, true/false/null; no trailing commas, no comments). The
// exporter walks a cargo tree depth-first in inventory sequence order.
//
// Packages declaring attributes-first are imported in two phases: a discard
// pass consumes only attribute-role entries while recording the byte offset
// where the object body started, FinaliseAttributes may swap in a
// freshly-typed delegate, and a positioned rewind drives the real pass
// against the rebuilt inventory. JSON has no syntactic place for
// attributes, so the rewind is what stands in for XML's start-tag grammar.
package json
