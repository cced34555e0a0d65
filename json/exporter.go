package json

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

// Exporter drives the JSON export walk. One Exporter may be reused; each
// Send call builds its own transient inventories.
type Exporter struct {
	opts Options
}

// NewExporter returns an exporter with the given options.
func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Send transcodes c into one JSON document written to w.
func Send(c cargo.Cargo, id inventory.Identity, w io.Writer) error {
	return NewExporter(Options{}).Send(c, id, w)
}

// Send transcodes c into one JSON document written to w. Emission follows
// inventory sequence order, so output is deterministic regardless of how
// the values arrived.
func (ex *Exporter) Send(c cargo.Cargo, id inventory.Identity, w io.Writer) error {
	p := &printer{w: w, opts: ex.opts}

	var path []string
	if id.Name != "" {
		path = []string{id.Name}
	}
	if err := ex.writeValue(p, c, id, 0, path); err != nil {
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

func (ex *Exporter) writeValue(p *printer, c cargo.Cargo, id inventory.Identity, depth int, path []string) error {
	if c.IsNull() {
		p.raw("null")
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
		switch item.Preferred() {
		case cargo.WireNumber, cargo.WireBoolean:
			p.raw(text)
		default:
			p.raw(`"`)
			p.raw(escape(text))
			p.raw(`"`)
		}
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
	inv := cargo.BuildInventory(pkg)

	// A sole entry carrying the enclosing identity (or no identity at
	// all) stands in for the wrapper: no enclosing object is emitted.
	if inv.Len() == 1 {
		e := inv.At(0)
		if e.ID.Equal(id) || e.ID.Anonymous() {
			if e.Repeating() {
				return ex.writeEntryArray(p, pkg, e, depth, path)
			}
			child, ok := pkg.GetCargo(e)
			if !ok {
				if ex.required(e) {
					return ex.missing(e, path)
				}
				p.raw("null")
				return nil
			}
			e.Bump()
			return ex.writeValue(p, child, id, depth, path)
		}
	}

	p.raw("{")
	wrote := false
	for _, e := range inv.Sequence() {
		probe, ok := pkg.GetCargo(e)
		if !ok {
			if ex.required(e) {
				return ex.missing(e, path)
			}
			continue
		}
		if wrote {
			p.raw(",")
		}
		p.line(depth + 1)
		p.raw(`"`)
		p.raw(escape(ex.memberName(e.ID)))
		p.raw(`":`)
		if ex.opts.lineFeeds() {
			p.raw(" ")
		}

		childPath := appendPath(path, e.ID.Name)
		if e.Repeating() {
			if err := ex.writeEntryArray(p, pkg, e, depth+1, childPath); err != nil {
				return err
			}
		} else {
			e.Bump()
			if err := ex.writeValue(p, probe, e.ID, depth+1, childPath); err != nil {
				return err
			}
		}
		wrote = true
	}
	if wrote {
		p.line(depth)
	}
	p.raw("}")
	return nil
}

// writeEntryArray iterates a repeating entry by bumping its availability
// counter from zero until the package reports end-of-supply, so the walk
// never needs to know the collection's size up front.
func (ex *Exporter) writeEntryArray(p *printer, pkg cargo.Package, e *inventory.Entry, depth int, path []string) error {
	p.raw("[")
	n := 0
	for {
		child, ok := pkg.GetCargo(e)
		if !ok {
			if n == 0 && ex.required(e) {
				return ex.missing(e, path)
			}
			break
		}
		if n > 0 {
			p.raw(",")
		}
		p.line(depth + 1)
		if err := ex.writeValue(p, child, e.ID, depth+1, path); err != nil {
			return err
		}
		e.Bump()
		n++
	}
	if n > 0 {
		p.line(depth)
	}
	p.raw("]")
	return nil
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

func (ex *Exporter) memberName(id inventory.Identity) string {
	if ex.opts.Namespaces && id.Group != "" {
		return id.String()
	}
	return id.Name
}
