package registry

import (
	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/inventory"
)

// DefaultTagName is the wire name of the type tag when a Handler does not
// override it.
const DefaultTagName = "class"

// handlerOwner keeps the Handler's own tag entry from colliding with a
// delegate entry at the same index.
const handlerOwner = -1

// Handler is the polymorphic slot. On import it declares the type tag as
// a required attribute, resolves the concrete type when the attributes
// finalise, and hands the rest of the element to the fresh delegate. On
// export it wraps an existing delegate and emits the tag alongside the
// delegate's entries.
type Handler struct {
	cargo.CompositeBase

	// Registry resolves tags; nil means the process-wide default.
	Registry *Registry

	// TagName overrides the wire name of the type tag.
	TagName string

	tag      string
	delegate Tagged
}

// Wrap returns a Handler ready to export d under its own tag.
func Wrap(d Tagged) *Handler {
	return &Handler{tag: d.TypeTag(), delegate: d}
}

// Delegate returns the concrete package resolved by the last import, or
// the one given to Wrap.
func (h *Handler) Delegate() Tagged { return h.delegate }

// Tag returns the resolved type tag.
func (h *Handler) Tag() string { return h.tag }

func (h *Handler) registry() *Registry {
	if h.Registry != nil {
		return h.Registry
	}
	return Default
}

func (h *Handler) tagName() string {
	if h.TagName != "" {
		return h.TagName
	}
	return DefaultTagName
}

func (h *Handler) Default() {
	h.tag = ""
	h.delegate = nil
}

// Validate requires both a resolved tag and a live delegate, so an import
// that never saw the tag attribute fails object validation.
func (h *Handler) Validate() bool {
	return h.tag != "" && h.delegate != nil
}

func (h *Handler) Fill(inv *inventory.Inventory) {
	inv.Add(inventory.Entry{
		ID:       inventory.Identity{Name: h.tagName()},
		Index:    0,
		Owner:    handlerOwner,
		Role:     inventory.Attribute,
		Required: true,
		Max:      1,
	})
	if h.delegate != nil {
		h.delegate.Fill(inv)
	}
}

func (h *Handler) GetCargo(e *inventory.Entry) (cargo.Cargo, bool) {
	if e.Owner == handlerOwner {
		return &tagItem{h: h}, true
	}
	if h.delegate == nil {
		return nil, false
	}
	return h.delegate.GetCargo(e)
}

func (h *Handler) Insert(e *inventory.Entry, child cargo.Cargo) bool {
	if e.Owner == handlerOwner {
		return true
	}
	if h.delegate == nil {
		return false
	}
	return h.delegate.Insert(e, child)
}

func (h *Handler) AttributesFirst() bool { return true }

// FinaliseAttributes trades the tag for a live instance. The transport
// applies the rest of the element to the returned package directly.
func (h *Handler) FinaliseAttributes() (cargo.Package, bool) {
	if h.tag == "" {
		return nil, false
	}
	d, err := h.registry().New(h.tag)
	if err != nil {
		return nil, false
	}
	h.delegate = d
	return d, true
}

// tagItem adapts the Handler's tag field to the item protocol.
type tagItem struct {
	cargo.LeafBase
	h *Handler
}

func (t *tagItem) Default() { t.h.tag = "" }

func (t *tagItem) Write() (string, bool) {
	if t.h.tag != "" {
		return t.h.tag, true
	}
	if t.h.delegate != nil {
		return t.h.delegate.TypeTag(), true
	}
	return "", false
}

func (t *tagItem) Read(s string) bool {
	if s == "" {
		return false
	}
	t.h.tag = s
	return true
}
