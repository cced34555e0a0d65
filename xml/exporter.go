package xml

import (
	"io"
	"strings"

	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/errors"
	"github.com/cargoline/cargoline/inventory"
)

// printer accumulates output with a sticky error, so the walk never has to
// thread sink failures through every call site.
type printer struct {
	w    io.Writer
	opts Options
	err  error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) line(depth int) {
	if !p.opts.lineFeeds() {
		return
	}
	p.raw("\n")
	if p.opts.Tabbed {
		p.raw(strings.Repeat("\t", depth))
	}
}

// Exporter drives the XML export walk. One Exporter may be reused; each
// Send call builds its own transient inventories.
type Exporter struct {
	opts Options
}

// NewExporter returns an exporter with the given options.
func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Send transcodes c into one XML document written to w.
func Send(c cargo.Cargo, id inventory.Identity, w io.Writer) error {
	return NewExporter(Options{}).Send(c, id, w)
}

// Send transcodes c into one XML document written to w. The root element
// takes its tag from id, which therefore cannot be anonymous. Emission
// follows inventory sequence order, so output is deterministic regardless
// of how the values arrived.
func (ex *Exporter) Send(c cargo.Cargo, id inventory.Identity, w io.Writer) error {
	if id.Name == "" {
		return errors.New(errors.PhaseSend, errors.KindMissingName).
			Detail("root element needs a name").
			Build()
	}

	p := &printer{w: w, opts: ex.opts}
	path := []string{id.Name}

	if ex.opts.Prolog {
		p.raw(`<?xml version="1.0" encoding="utf-8"?>`)
		p.raw("\n")
	}
	if err := ex.writeElement(p, c, id, 0, path); err != nil {
		return err
	}
	if ex.opts.lineFeeds() {
		p.raw("\n")
	}
	if p.err != nil {
		return errors.WriteFailure(path, p.err)
	}
	return nil
}

func (ex *Exporter) writeElement(p *printer, c cargo.Cargo, id inventory.Identity, depth int, path []string) error {
	tag := ex.tagName(id)
	if c.IsNull() {
		p.raw("<" + tag + "/>")
		return nil
	}

	switch c.Form() {
	case cargo.FormItem:
		item, ok := c.(cargo.Item)
		if !ok {
			return errors.New(errors.PhaseSend, errors.KindBadValue).
				Path(path...).
				Detail("cargo does not implement Item").
				Build()
		}
		text, ok := item.Write()
		if !ok {
			return errors.New(errors.PhaseSend, errors.KindBadValue).
				Path(path...).
				Detail("item refused to render").
				Build()
		}
		p.raw("<" + tag + ">")
		p.raw(escapeText(text))
		p.raw("</" + tag + ">")
		return nil

	case cargo.FormPackage:
		pkg, ok := c.(cargo.Package)
		if !ok {
			return errors.NoInventory(errors.PhaseSend, path, errors.Position{})
		}
		return ex.writePackage(p, pkg, id, depth, path)
	}
	return nil
}

func (ex *Exporter) writePackage(p *printer, pkg cargo.Package, id inventory.Identity, depth int, path []string) error {
	tag := ex.tagName(id)
	inv := cargo.BuildInventory(pkg)

	p.raw("<" + tag)
	for _, e := range inv.Sequence() {
		if e.Role != inventory.Attribute {
			continue
		}
		child, ok := pkg.GetCargo(e)
		if !ok {
			if ex.required(e) {
				return ex.missing(e, path)
			}
			continue
		}
		e.Bump()
		if child.IsNull() {
			continue
		}
		item, ok := child.(cargo.Item)
		if !ok || child.Form() != cargo.FormItem {
			return errors.New(errors.PhaseSend, errors.KindBadAttribute).
				Path(appendPath(path, e.ID.Name)...).
				Detail("attribute entry %q holds a composite", e.ID.Name).
				Build()
		}
		text, ok := item.Write()
		if !ok {
			return errors.New(errors.PhaseSend, errors.KindBadValue).
				Path(appendPath(path, e.ID.Name)...).
				Detail("item refused to render").
				Build()
		}
		p.raw(" " + ex.tagName(e.ID) + `="` + escapeAttr(text) + `"`)
	}

	// Probe element-role entries before committing to a content form so
	// an attribute-only package can self-close.
	wrote := false
	opened := false
	for _, e := range inv.Sequence() {
		if e.Role == inventory.Attribute {
			continue
		}
		probe, ok := pkg.GetCargo(e)
		if !ok {
			if ex.required(e) {
				return ex.missing(e, path)
			}
			continue
		}
		if !opened {
			p.raw(">")
			opened = true
		}

		name := e.ID
		if name.Anonymous() {
			name = id
		}
		childPath := appendPath(path, name.Name)

		if e.Repeating() {
			if err := ex.writeRepeated(p, pkg, e, name, depth, childPath); err != nil {
				return err
			}
			wrote = true
			continue
		}

		e.Bump()
		// A singular container whose content the markup spreads over
		// same-named sibling tags is emitted collapsed: the wrapper tag
		// never appears.
		if container, inner, ok := ex.collapsed(probe, e.ID); ok {
			if err := ex.writeCollapsed(p, container, inner, name, depth, childPath); err != nil {
				return err
			}
			wrote = true
			continue
		}

		p.line(depth + 1)
		if err := ex.writeElement(p, probe, name, depth+1, childPath); err != nil {
			return err
		}
		wrote = true
	}

	if !opened {
		p.raw("/>")
		return nil
	}
	if wrote {
		p.line(depth)
	}
	p.raw("</" + tag + ">")
	return nil
}

// writeRepeated emits one tag per instance of a repeating entry, fetching
// until the package reports end-of-supply.
func (ex *Exporter) writeRepeated(p *printer, pkg cargo.Package, e *inventory.Entry, name inventory.Identity, depth int, path []string) error {
	first := true
	for {
		child, ok := pkg.GetCargo(e)
		if !ok {
			if first && ex.required(e) {
				return ex.missing(e, path)
			}
			return nil
		}
		p.line(depth + 1)
		if err := ex.writeElement(p, child, name, depth+1, path); err != nil {
			return err
		}
		e.Bump()
		first = false
	}
}

// collapsed reports whether c is a container package the markup collapses:
// its sole repeating entry is anonymous or shares the member identity.
func (ex *Exporter) collapsed(c cargo.Cargo, id inventory.Identity) (cargo.Package, *inventory.Entry, bool) {
	if c.Form() != cargo.FormPackage {
		return nil, nil, false
	}
	container, ok := c.(cargo.Package)
	if !ok {
		return nil, nil, false
	}
	inner := cargo.BuildInventory(container)
	sole := inner.Sole()
	if sole == nil {
		return nil, nil, false
	}
	if !sole.ID.Anonymous() && !sole.ID.Equal(id) {
		return nil, nil, false
	}
	return container, sole, true
}

func (ex *Exporter) writeCollapsed(p *printer, container cargo.Package, inner *inventory.Entry, name inventory.Identity, depth int, path []string) error {
	for {
		child, ok := container.GetCargo(inner)
		if !ok {
			return nil
		}
		p.line(depth + 1)
		if err := ex.writeElement(p, child, name, depth+1, path); err != nil {
			return err
		}
		inner.Bump()
	}
}

func (ex *Exporter) required(e *inventory.Entry) bool {
	return ex.opts.EveryEntryRequired || (ex.opts.FailOnMissing && e.Required)
}

func (ex *Exporter) missing(e *inventory.Entry, path []string) error {
	return errors.New(errors.PhaseSend, errors.KindInstanceMissing).
		Path(path...).
		Detail("required field %q has no value", e.ID.Name).
		Build()
}

func (ex *Exporter) tagName(id inventory.Identity) string {
	if ex.opts.Namespaces && id.Group != "" {
		return id.Group + ":" + id.Name
	}
	return id.Name
}
