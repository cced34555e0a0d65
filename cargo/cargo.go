// Package cargo defines the capability model: the vocabulary every
// serializable value implements.
//
// A value that wants to travel over a wire format implements Cargo plus
// exactly one of the two forms: Item for atomic scalars, Package for
// composites. The transports know nothing else about application types;
// this is the seam that keeps the engine ignorant of their concrete shape.
package cargo

import (
	"github.com/cargoline/cargoline/inventory"
)

// Form is the explicit discriminant between the two cargo shapes. The
// transports dispatch on it instead of probing for capabilities.
type Form int

const (
	// FormItem marks an atomic value transcoded via its string form.
	FormItem Form = iota
	// FormPackage marks a composite exposing an inventory of children.
	FormPackage
)

func (f Form) String() string {
	if f == FormPackage {
		return "package"
	}
	return "item"
}

// WireKind is a value's preferred wire-entry type. It drives literal
// syntax where the format distinguishes scalar kinds (JSON quoting), and
// lets a placeholder describe the shape of an incoming token.
type WireKind int

const (
	WireNone WireKind = iota
	WireText
	WireNumber
	WireBoolean
	WireComposite
	WireSequence
)

// Cargo is the root capability of every serializable value.
type Cargo interface {
	// Form reports whether the value is atomic or composite.
	Form() Form
	// Default resets the value to its default state. Calling it twice
	// yields the same state as calling it once.
	Default()
	// Validate is the value's last-chance integrity check after import.
	Validate() bool
	// IsNull reports whether the value currently represents absence.
	IsNull() bool
	// Preferred reports the value's preferred wire-entry type, or
	// WireNone when it has no preference.
	Preferred() WireKind
}

// Item is an atomic cargo transcoded through one string representation.
// A false return from either operation yields a format bad-value error.
type Item interface {
	Cargo
	// Write renders the scalar for emission.
	Write() (string, bool)
	// Read parses the scalar from its wire text.
	Read(text string) bool
}

// Package is a composite cargo exposing child fields through the
// reflection ledger.
type Package interface {
	Cargo
	// Fill populates the inventory for one transcoding pass, merging
	// base-class contributions base-first.
	Fill(inv *inventory.Inventory)
	// GetCargo supplies the child for a descriptor. On export the
	// entry's availability counter selects which instance to fetch; a
	// false return signals end-of-supply or an absent child.
	GetCargo(e *inventory.Entry) (Cargo, bool)
	// Insert accepts an incoming child once it has been transcoded.
	Insert(e *inventory.Entry, child Cargo) bool
}

// AttributeFirst is implemented by packages whose attribute-role entries
// must be resolved before element content, typically because the
// attributes carry a type tag the rest of the fields depend on.
type AttributeFirst interface {
	Package
	// AttributesFirst reports whether the two-phase protocol applies.
	AttributesFirst() bool
	// FinaliseAttributes runs once attributes are applied. It may return
	// a freshly-typed delegate to receive the remaining fields; a false
	// return is a fatal invalid-object condition.
	FinaliseAttributes() (Package, bool)
}

// Allocator is implemented by dynamically-shaped packages that grow their
// own inventory during import.
type Allocator interface {
	Package
	// Allocate admits an incoming field the inventory does not declare.
	Allocate(inv *inventory.Inventory, id inventory.Identity, role inventory.Role) (*inventory.Entry, bool)
	// AllocateArray promotes a singular entry into a repeating one when
	// more instances arrive than it declared.
	AllocateArray(inv *inventory.Inventory, e *inventory.Entry) (*inventory.Entry, bool)
}

// Morpher is a receiver whose concrete shape depends on the incoming
// token: the importer resolves it against the token's wire kind before
// descending.
type Morpher interface {
	Cargo
	Morph(k WireKind) Cargo
}

// BuildInventory runs one inventory-fill operation: a fresh ledger is
// populated by the package and every availability counter zeroed.
func BuildInventory(p Package) *inventory.Inventory {
	inv := inventory.New()
	p.Fill(inv)
	inv.ResetAvailable()
	return inv
}

// LeafBase supplies neutral Item defaults for embedding.
type LeafBase struct{}

func (LeafBase) Form() Form { return FormItem }
func (LeafBase) Validate() bool { return true }
func (LeafBase) IsNull() bool { return false }
func (LeafBase) Preferred() WireKind { return WireNone }

// CompositeBase supplies neutral Package defaults for embedding.
type CompositeBase struct{}

func (CompositeBase) Form() Form { return FormPackage }
func (CompositeBase) Validate() bool { return true }
func (CompositeBase) IsNull() bool { return false }
func (CompositeBase) Preferred() WireKind { return WireComposite }
