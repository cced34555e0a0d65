package document

import (
	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/inventory"
)

// field is one named slot of an Object, in arrival order.
type field struct {
	id     inventory.Identity
	role   inventory.Role
	max    int
	values []cargo.Cargo
}

// Object is a composite with no declared schema: the inventory grows as
// fields arrive. It satisfies the allocator capability, so both
// transports can feed it unknown names, and a field promotes itself to
// repeating when the markup delivers more instances than it declared.
type Object struct {
	cargo.CompositeBase
	fields []*field
}

// NewObject returns an empty dynamic composite.
func NewObject() *Object { return &Object{} }

func (o *Object) Default() { o.fields = nil }

func (o *Object) find(id inventory.Identity) *field {
	for _, f := range o.fields {
		if f.id.Equal(id) {
			return f
		}
	}
	return nil
}

// Set binds a single element field, replacing any previous values.
func (o *Object) Set(name string, c cargo.Cargo) *Object {
	return o.bind(inventory.Identity{Name: name}, inventory.Element, c)
}

// SetAttribute binds a single attribute field, replacing any previous
// values. Attribute fields land in the start tag on XML export.
func (o *Object) SetAttribute(name string, c cargo.Cargo) *Object {
	return o.bind(inventory.Identity{Name: name}, inventory.Attribute, c)
}

func (o *Object) bind(id inventory.Identity, role inventory.Role, c cargo.Cargo) *Object {
	if f := o.find(id); f != nil {
		f.role = role
		f.values = []cargo.Cargo{c}
		return o
	}
	o.fields = append(o.fields, &field{id: id, role: role, max: 1, values: []cargo.Cargo{c}})
	return o
}

// Append adds one more value under name, promoting the field to repeating
// when it passes one instance.
func (o *Object) Append(name string, c cargo.Cargo) *Object {
	id := inventory.Identity{Name: name}
	f := o.find(id)
	if f == nil {
		f = &field{id: id, role: inventory.Element, max: 1}
		o.fields = append(o.fields, f)
	}
	f.values = append(f.values, c)
	if len(f.values) > 1 {
		f.max = inventory.Unbounded
	}
	return o
}

// Get returns the first value bound to name.
func (o *Object) Get(name string) (cargo.Cargo, bool) {
	f := o.find(inventory.Identity{Name: name})
	if f == nil || len(f.values) == 0 {
		return nil, false
	}
	return f.values[0], true
}

// All returns every value bound to name.
func (o *Object) All(name string) []cargo.Cargo {
	f := o.find(inventory.Identity{Name: name})
	if f == nil {
		return nil
	}
	return f.values
}

// Names lists the field names in arrival order.
func (o *Object) Names() []string {
	out := make([]string, len(o.fields))
	for i, f := range o.fields {
		out[i] = f.id.Name
	}
	return out
}

// Len reports the number of fields.
func (o *Object) Len() int { return len(o.fields) }

func (o *Object) Fill(inv *inventory.Inventory) {
	for i, f := range o.fields {
		inv.Add(inventory.Entry{ID: f.id, Index: i, Role: f.role, Max: f.max})
	}
}

func (o *Object) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	if e.Index < 0 || e.Index >= len(o.fields) {
		return nil, false
	}
	f := o.fields[e.Index]
	switch avail := e.Available(); {
	case avail > len(f.values):
		return &Node{}, true
	case avail < len(f.values):
		return f.values[avail], true
	default:
		return nil, false
	}
}

func (o *Object) Insert(e *inventory.Entry, child cargo.Cargo) bool {
	if e.Index < 0 || e.Index >= len(o.fields) {
		return false
	}
	f := o.fields[e.Index]
	f.values = append(f.values, child)
	return true
}

// Allocate admits an undeclared field: the object grows a singular slot
// and the transport carries on as if it had always been there.
func (o *Object) Allocate(inv *inventory.Inventory, id inventory.Identity, role inventory.Role) (*inventory.Entry, bool) {
	o.fields = append(o.fields, &field{id: id, role: role, max: 1})
	e := inv.Add(inventory.Entry{ID: id, Index: len(o.fields) - 1, Role: role, Max: 1})
	return e, true
}

// AllocateArray promotes a slot to repeating when the document delivers a
// second instance.
func (o *Object) AllocateArray(inv *inventory.Inventory, e *inventory.Entry) (*inventory.Entry, bool) {
	if e.Index < 0 || e.Index >= len(o.fields) {
		return nil, false
	}
	o.fields[e.Index].max = inventory.Unbounded
	e.Max = inventory.Unbounded
	return e, true
}
