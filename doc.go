// Package cargoline provides a format-agnostic object serialization engine.
//
// The engine transcodes in-memory object graphs to and from JSON and XML
// through a single reflective data model: application types declare their
// serializable shape via capability interfaces, and per-format transports
// walk that shape with recursive-descent state machines.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	cargoline/       Root package with the Source collaborator interface
//	├── cargo/       Capability model: Cargo, Item, Package interfaces
//	├── inventory/   Reflection ledger: Identity, Entry, Inventory
//	├── json/        JSON transport: importer, exporter, scanner
//	├── xml/         XML transport: importer, exporter, scanner
//	├── registry/    Polymorphic type-tag registry, Handler/Mover wrappers
//	├── document/    Dynamic open-content model (Object, Array, Value)
//	└── errors/      Structured error taxonomy with source positions
//
// # Quick Start
//
// Export a value implementing cargo.Package:
//
//	var buf bytes.Buffer
//	exp := json.NewExporter(json.Options{Tabbed: true})
//	err := exp.Send(person, inventory.Identity{Name: "person"}, &buf)
//
// Import it back:
//
//	imp := json.NewImporter(json.Options{})
//	err := imp.Receive(person, inventory.Identity{Name: "person"},
//		cargoline.NewBytesSource(buf.Bytes()))
//
// A transcoding call is single-threaded and synchronous: it builds the
// package's inventory, performs one uninterrupted depth-first walk, and
// either runs to completion or unwinds with a structured error carrying the
// last known source position. Inventories are transient and never shared
// across calls.
package cargoline
