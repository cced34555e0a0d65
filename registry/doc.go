// Package registry reconstructs polymorphic composites from a type tag
// carried in the wire text.
//
// A concrete type registers a factory under its tag. On import a Handler
// stands in for the polymorphic slot: it declares the tag as a required
// attribute, the attributes-first protocol resolves the tag before
// anything else arrives, and finalisation swaps the concrete package in
// for the remainder of the element. On export the Handler emits the tag
// alongside the concrete package's own entries, so a round trip preserves
// the dynamic type exactly.
package registry
