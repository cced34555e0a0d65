// Package inventory implements the reflection ledger: the ordered set of
// field descriptors a composite exposes for one transcoding pass.
//
// An Inventory is built fresh at the start of every import or export call
// and discarded afterwards; it is never shared across concurrent calls.
package inventory

import (
	"sort"
)

// Status is the outcome of matching an incoming field against the ledger.
type Status int

const (
	// Matched: the entry was found and its availability counter bumped.
	Matched Status = iota
	// Unknown: no entry carries the incoming identity.
	Unknown
	// Exhausted: the entry was found but its cardinality bound is reached.
	Exhausted
)

// Inventory is the ordered collection of entries describing one package's
// transcoding shape for the current call.
type Inventory struct {
	entries []*Entry
}

// New returns an empty inventory.
func New() *Inventory {
	return &Inventory{}
}

// Add appends a descriptor. Registering an entry whose Index and Owner
// both match an existing one is a no-op merge returning the existing
// entry, so a subclass inventory folded onto its base never aliases.
func (v *Inventory) Add(e Entry) *Entry {
	for _, existing := range v.entries {
		if existing.Index == e.Index && existing.Owner == e.Owner {
			return existing
		}
	}
	added := e
	added.available = 0
	v.entries = append(v.entries, &added)
	return &added
}

// Len reports the number of entries.
func (v *Inventory) Len() int {
	return len(v.entries)
}

// At returns the i-th entry in registration order.
func (v *Inventory) At(i int) *Entry {
	return v.entries[i]
}

// ResetAvailable zeroes every availability counter. Called before an
// import pass begins and before export iteration.
func (v *Inventory) ResetAvailable() {
	for _, e := range v.entries {
		e.reset()
	}
}

// Find returns the first entry whose identity matches id, or nil.
func (v *Inventory) Find(id Identity) *Entry {
	for _, e := range v.entries {
		if e.ID.Equal(id) {
			return e
		}
	}
	return nil
}

// Register locates the entry matching an incoming identity and bumps its
// availability counter. It reports Unknown when no entry matches and
// Exhausted (with the offending entry) when the match has already
// produced its declared maximum of instances.
func (v *Inventory) Register(id Identity) (*Entry, Status) {
	e := v.Find(id)
	if e == nil {
		return nil, Unknown
	}
	if !e.Bump() {
		return e, Exhausted
	}
	return e, Matched
}

// Sequence returns the entries ordered by field index (ties broken by
// owner tag, base-first). Both transports emit in sequence order so
// output is deterministic regardless of input order.
func (v *Inventory) Sequence() []*Entry {
	seq := make([]*Entry, len(v.entries))
	copy(seq, v.entries)
	sort.SliceStable(seq, func(i, j int) bool {
		if seq[i].Index != seq[j].Index {
			return seq[i].Index < seq[j].Index
		}
		return seq[i].Owner < seq[j].Owner
	})
	return seq
}

// Sole implements the anonymous-array heuristic: it returns the unique
// repeating entry, or nil when the inventory has none or more than one.
func (v *Inventory) Sole() *Entry {
	var sole *Entry
	for _, e := range v.entries {
		if !e.Repeating() {
			continue
		}
		if sole != nil {
			return nil
		}
		sole = e
	}
	return sole
}

// AttributesOnly reports whether every entry is attribute-role. Such
// packages collapse to an empty element on XML export.
func (v *Inventory) AttributesOnly() bool {
	if len(v.entries) == 0 {
		return false
	}
	for _, e := range v.entries {
		if e.Role != Attribute {
			return false
		}
	}
	return true
}

// Attributes returns the attribute-role entries in sequence order.
func (v *Inventory) Attributes() []*Entry {
	return v.partition(Attribute)
}

// Elements returns the element-role entries in sequence order.
func (v *Inventory) Elements() []*Entry {
	return v.partition(Element)
}

func (v *Inventory) partition(role Role) []*Entry {
	var out []*Entry
	for _, e := range v.Sequence() {
		if e.Role == role {
			out = append(out, e)
		}
	}
	return out
}

// MissingRequired returns the first entry that never arrived during the
// pass: a required one, or any entry when all is set (the "every entry
// required" override). Nil when the inventory is satisfied.
func (v *Inventory) MissingRequired(all bool) *Entry {
	for _, e := range v.Sequence() {
		if e.available == 0 && (all || e.Required) {
			return e
		}
	}
	return nil
}
