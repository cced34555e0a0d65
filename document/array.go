package document

import (
	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/inventory"
)

// Array is the anonymous collection: a composite whose sole repeating
// entry has no name of its own. JSON renders it as a bare array; XML
// collapses it onto the enclosing tag.
type Array struct {
	cargo.CompositeBase
	values []cargo.Cargo
}

// NewArray returns an empty collection.
func NewArray(values ...cargo.Cargo) *Array {
	return &Array{values: values}
}

func (a *Array) Default() { a.values = nil }

// Append adds one element.
func (a *Array) Append(c cargo.Cargo) *Array {
	a.values = append(a.values, c)
	return a
}

// At returns the i-th element.
func (a *Array) At(i int) cargo.Cargo { return a.values[i] }

// Len reports the number of elements.
func (a *Array) Len() int { return len(a.values) }

func (a *Array) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{}, Index: 0, Max: inventory.Unbounded})
}

func (a *Array) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	switch avail := e.Available(); {
	case avail > len(a.values):
		return &Node{}, true
	case avail < len(a.values):
		return a.values[avail], true
	default:
		return nil, false
	}
}

func (a *Array) Insert(e *inventory.Entry, child cargo.Cargo) bool {
	a.values = append(a.values, child)
	return true
}
