package inventory

// Role places an entry either in the attribute plane (resolved before
// element content) or in the element plane.
type Role int

const (
	Element Role = iota
	Attribute
)

func (r Role) String() string {
	if r == Attribute {
		return "attribute"
	}
	return "element"
}

// Unbounded marks an entry with no cardinality ceiling.
const Unbounded = -1

// Entry is one descriptor in an Inventory: the transcoding shape of a
// single field for the current call.
//
// Owner identifies which level of a type hierarchy contributed the entry,
// so colliding field indices across base and derived inventories never
// alias. The availability counter doubles as "which instance to fetch
// next" on export and "how many have arrived" on import.
type Entry struct {
	ID       Identity
	Index    int
	Owner    int
	Role     Role
	Required bool
	Max      int

	available int
}

// Available reports the availability counter for the current pass.
func (e *Entry) Available() int {
	return e.available
}

// Bump advances the availability counter. It reports false once the
// counter has reached the entry's cardinality bound.
func (e *Entry) Bump() bool {
	if e.Max != Unbounded && e.available >= e.Max {
		return false
	}
	e.available++
	return true
}

// Repeating reports whether the entry admits more than one instance.
func (e *Entry) Repeating() bool {
	return e.Max == Unbounded || e.Max > 1
}

func (e *Entry) reset() {
	e.available = 0
}
