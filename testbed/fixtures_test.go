package testbed

import (
	"strconv"

	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/inventory"
	"github.com/cargoline/cargoline/registry"
)

// A shipping manifest domain exercising the whole stack at once: required
// attributes, nested composites, repeating entries, and a polymorphic
// payment slot resolved through the type registry.

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

type boolItem struct {
	cargo.LeafBase
	v bool
}

func (b *boolItem) Default() { b.v = false }
func (b *boolItem) Preferred() cargo.WireKind { return cargo.WireBoolean }
func (b *boolItem) Write() (string, bool) { return strconv.FormatBool(b.v), true }
func (b *boolItem) Read(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	b.v = v
	return true
}

type address struct {
	cargo.CompositeBase
	street textItem
	city   textItem
}

func (a *address) Default() { *a = address{} }

func (a *address) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "street"}, Index: 0, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "city"}, Index: 1, Max: 1})
}

func (a *address) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	switch e.Index {
	case 0:
		return &a.street, true
	case 1:
		return &a.city, true
	}
	return nil, false
}

func (a *address) Insert(*inventory.Entry, cargo.Cargo) bool { return true }

// parcel carries its sku as an attribute so both transports get attribute
// traffic on the repeating path.
type parcel struct {
	cargo.CompositeBase
	sku    textItem
	weight intItem
}

func (p *parcel) Default() { *p = parcel{} }

func (p *parcel) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "sku"}, Index: 0, Role: inventory.Attribute, Required: true, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "weight"}, Index: 1, Max: 1})
}

func (p *parcel) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	switch e.Index {
	case 0:
		return &p.sku, true
	case 1:
		return &p.weight, true
	}
	return nil, false
}

func (p *parcel) Insert(*inventory.Entry, cargo.Cargo) bool { return true }

// Payment methods are polymorphic: the wire carries a "method" tag and the
// registry supplies the concrete package.

type cardPayment struct {
	cargo.CompositeBase
	number textItem
	expiry textItem
}

func (c *cardPayment) TypeTag() string { return "card" }

func (c *cardPayment) Default() { *c = cardPayment{} }

func (c *cardPayment) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "number"}, Index: 0, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "expiry"}, Index: 1, Max: 1})
}

func (c *cardPayment) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	switch e.Index {
	case 0:
		return &c.number, true
	case 1:
		return &c.expiry, true
	}
	return nil, false
}

func (c *cardPayment) Insert(*inventory.Entry, cargo.Cargo) bool { return true }

type codPayment struct {
	cargo.CompositeBase
	fee intItem
}

func (c *codPayment) TypeTag() string { return "cod" }

func (c *codPayment) Default() { *c = codPayment{} }

func (c *codPayment) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "fee"}, Index: 0, Max: 1})
}

func (c *codPayment) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	return &c.fee, true
}

func (c *codPayment) Insert(*inventory.Entry, cargo.Cargo) bool { return true }

func newPaymentRegistry() *registry.Registry {
	reg := &registry.Registry{}
	reg.Register("card", func() registry.Tagged { return &cardPayment{} })
	reg.Register("cod", func() registry.Tagged { return &codPayment{} })
	return reg
}

// shipment is the root document: one required attribute, a boolean flag, a
// nested address, an unbounded parcel list, and the polymorphic payment.
type shipment struct {
	cargo.CompositeBase
	reg *registry.Registry

	id          textItem
	priority    boolItem
	destination address
	parcels     []*parcel
	payment     registry.Tagged
}

func (s *shipment) Default() {
	reg := s.reg
	*s = shipment{reg: reg}
}

func (s *shipment) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "id"}, Index: 0, Role: inventory.Attribute, Required: true, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "priority"}, Index: 1, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "destination"}, Index: 2, Max: 1})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "parcel"}, Index: 3, Max: inventory.Unbounded})
	inv.Add(inventory.Entry{ID: inventory.Identity{Name: "payment"}, Index: 4, Max: 1})
}

func (s *shipment) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	switch e.Index {
	case 0:
		return &s.id, true
	case 1:
		return &s.priority, true
	case 2:
		return &s.destination, true
	case 3:
		if e.Available() > len(s.parcels) {
			return &parcel{}, true
		}
		if e.Available() < len(s.parcels) {
			return s.parcels[e.Available()], true
		}
		return nil, false
	case 4:
		if e.Available() > 0 {
			// Import: the entry was registered before the fetch.
			return &registry.Mover{
				Handler: registry.Handler{Registry: s.reg, TagName: "method"},
				Accept: func(d registry.Tagged) bool {
					s.payment = d
					return true
				},
			}, true
		}
		if s.payment == nil {
			return nil, false
		}
		h := registry.Wrap(s.payment)
		h.TagName = "method"
		return h, true
	}
	return nil, false
}

func (s *shipment) Insert(e *inventory.Entry, child cargo.Cargo) bool {
	if e.Index == 3 {
		s.parcels = append(s.parcels, child.(*parcel))
	}
	return true
}

func sampleShipment(reg *registry.Registry) *shipment {
	return &shipment{
		reg:      reg,
		id:       textItem{v: "S-1"},
		priority: boolItem{v: true},
		destination: address{
			street: textItem{v: "5 Main St"},
			city:   textItem{v: "Omsk"},
		},
		parcels: []*parcel{
			{sku: textItem{v: "A1"}, weight: intItem{v: 2}},
			{sku: textItem{v: "B2"}, weight: intItem{v: 5}},
		},
		payment: &cardPayment{
			number: textItem{v: "4111"},
			expiry: textItem{v: "12/28"},
		},
	}
}
