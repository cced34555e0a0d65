package xml

import (
	"strconv"

	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/inventory"
)

// Test fixtures shared by the importer and exporter tests.

type textItem struct {
	cargo.LeafBase
	v string
}

func (t *textItem) Default() { t.v = "" }
func (t *textItem) Preferred() cargo.WireKind { return cargo.WireText }
func (t *textItem) Write() (string, bool) { return t.v, true }
func (t *textItem) Read(s string) bool { t.v = s; return true }

type intItem struct {
	cargo.LeafBase
	v int
}

func (i *intItem) Default() { i.v = 0 }
func (i *intItem) Preferred() cargo.WireKind { return cargo.WireNumber }
func (i *intItem) Write() (string, bool) { return strconv.Itoa(i.v), true }
func (i *intItem) Read(s string) bool {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	i.v = n
	return true
}

// nullItem always reports itself absent.
type nullItem struct {
	textItem
}

func (nullItem) IsNull() bool { return true }

// person is a conventional composite: one required attribute, two scalar
// elements, one unbounded repeating element.
type person struct {
	cargo.CompositeBase
	id   textItem
	name textItem
	age  intItem
	tags []string
}

func (p *person) Default() { *p = person{} }

func (p *person) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "id"}, Index: 0, Role: inventory.Attribute, Required: true, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "name"}, Index: 1, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "age"}, Index: 2, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "tags"}, Index: 3, Max: inventory.Unbounded})
}

func (p *person) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	switch e.Index {
	case 0:
		return &p.id, true
	case 1:
		return &p.name, true
	case 2:
		return &p.age, true
	case 3:
		if e.Available() > len(p.tags) {
			return &textItem{}, true
		}
		if e.Available() < len(p.tags) {
			return &textItem{v: p.tags[e.Available()]}, true
		}
		return nil, false
	}
	return nil, false
}

func (p *person) Insert(e *inventory.Entry, child cargo.Cargo) bool {
	if e.Index == 3 {
		p.tags = append(p.tags, child.(*textItem).v)
	}
	return true
}

// capped admits at most two instances of its only field.
type capped struct {
	cargo.CompositeBase
	vals []int
}

func (c *capped) Default() { c.vals = nil }

func (c *capped) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "n"}, Index: 0, Max: 2})
}

func (c *capped) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	if e.Available() > len(c.vals) {
		return &intItem{}, true
	}
	if e.Available() < len(c.vals) {
		return &intItem{v: c.vals[e.Available()]}, true
	}
	return nil, false
}

func (c *capped) Insert(e *inventory.Entry, child cargo.Cargo) bool {
	c.vals = append(c.vals, child.(*intItem).v)
	return true
}

// attrOnly carries nothing but attributes, so its markup self-closes.
type attrOnly struct {
	cargo.CompositeBase
	x intItem
}

func (a *attrOnly) Default() { a.x.Default() }

func (a *attrOnly) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "x"}, Index: 0, Role: inventory.Attribute, Max: 1})
}

func (a *attrOnly) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	return &a.x, true
}

func (a *attrOnly) Insert(*inventory.Entry, cargo.Cargo) bool { return true }

// bookList is a collapsed container: its sole repeating entry shares the
// tag its owner uses for the list, so the wrapper element never appears in
// the markup.
type bookList struct {
	cargo.CompositeBase
	titles []string
}

func (l *bookList) Default() { l.titles = nil }

func (l *bookList) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "book"}, Index: 0, Max: inventory.Unbounded})
}

func (l *bookList) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	if e.Available() > len(l.titles) {
		return &textItem{}, true
	}
	if e.Available() < len(l.titles) {
		return &textItem{v: l.titles[e.Available()]}, true
	}
	return nil, false
}

func (l *bookList) Insert(e *inventory.Entry, child cargo.Cargo) bool {
	l.titles = append(l.titles, child.(*textItem).v)
	return true
}

type shelf struct {
	cargo.CompositeBase
	label textItem
	books bookList
}

func (s *shelf) Default() { *s = shelf{} }

func (s *shelf) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "label"}, Index: 0, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "book"}, Index: 1, Max: 1})
}

func (s *shelf) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	switch e.Index {
	case 0:
		return &s.label, true
	case 1:
		return &s.books, true
	}
	return nil, false
}

func (s *shelf) Insert(*inventory.Entry, cargo.Cargo) bool { return true }

// nsPair declares a namespace-qualified entry.
type nsPair struct {
	cargo.CompositeBase
	v textItem
}

func (q *nsPair) Default() { q.v.Default() }

func (q *nsPair) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Group: "v", Name: "name"}, Index: 0, Max: 1})
}

func (q *nsPair) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	return &q.v, true
}

func (q *nsPair) Insert(*inventory.Entry, cargo.Cargo) bool { return true }

// twoPhase declares attributes-first: its kind attribute must be resolved
// before the value element, whatever order the fields were declared in.
type twoPhase struct {
	cargo.CompositeBase
	kind  textItem
	value textItem

	finalised       int
	kindAtFinalise  string
	valueAtFinalise string
}

func (t *twoPhase) Default() {
	t.kind.Default()
	t.value.Default()
}

func (t *twoPhase) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "kind"}, Index: 0, Role: inventory.Attribute, Required: true, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "value"}, Index: 1, Max: 1})
}

func (t *twoPhase) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	switch e.Index {
	case 0:
		return &t.kind, true
	case 1:
		return &t.value, true
	}
	return nil, false
}

func (t *twoPhase) Insert(*inventory.Entry, cargo.Cargo) bool { return true }

func (t *twoPhase) AttributesFirst() bool { return true }

func (t *twoPhase) FinaliseAttributes() (cargo.Package, bool) {
	t.finalised++
	t.kindAtFinalise = t.kind.v
	t.valueAtFinalise = t.value.v
	return t, true
}

// noAttrs claims attributes-first without declaring a single attribute
// entry: finalisation still runs exactly once, before any child lands.
type noAttrs struct {
	cargo.CompositeBase
	value     textItem
	finalised int
	applied   int
}

func (n *noAttrs) Default() { n.value.Default() }

func (n *noAttrs) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "value"}, Index: 0, Max: 1})
}

func (n *noAttrs) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	return &n.value, true
}

func (n *noAttrs) Insert(*inventory.Entry, cargo.Cargo) bool {
	n.applied++
	return true
}

func (n *noAttrs) AttributesFirst() bool { return true }

func (n *noAttrs) FinaliseAttributes() (cargo.Package, bool) {
	n.finalised++
	return n, true
}
