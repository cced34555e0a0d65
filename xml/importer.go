package xml

import (
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cargoline/cargoline"
	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/errors"
	"github.com/cargoline/cargoline/inventory"
)

// Importer drives the XML import state machine. One Importer may be
// reused; each Receive call builds its own transient state.
type Importer struct {
	opts Options
}

// NewImporter returns an importer with the given options.
func NewImporter(opts Options) *Importer {
	return &Importer{opts: opts}
}

// Receive transcodes one XML document from data into c.
func Receive(c cargo.Cargo, id inventory.Identity, data []byte) error {
	return NewImporter(Options{}).Receive(c, id, cargoline.NewBytesSource(data))
}

// Receive transcodes one XML document from src into c. The root tag must
// match id unless id is anonymous. The call either runs to completion or
// unwinds with the first error.
func (im *Importer) Receive(c cargo.Cargo, id inventory.Identity, src cargoline.Source) error {
	s := newScanner(src)

	tok, err := s.skipToContent()
	if err != nil {
		if err == io.EOF {
			return errors.New(errors.PhaseReceive, errors.KindReadFailure).
				At(s.pos()).
				Detail("source is empty").
				Build()
		}
		return err
	}
	if tok.kind != tokStart && tok.kind != tokEmpty {
		return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
			At(tok.pos).
			Detail("expected a root element").
			Build()
	}

	rootID := im.tagIdentity(tok.name)
	if id.Name != "" && !rootID.Equal(id) {
		return errors.UnknownName(nil, tok.pos, tok.name)
	}

	var path []string
	if id.Name != "" {
		path = []string{id.Name}
	} else {
		path = []string{rootID.Name}
	}

	root, err := im.element(s, tok, c, path)
	if err != nil {
		return err
	}
	if !root.Validate() {
		return errors.InvalidObject(path, s.pos())
	}

	// Only insignificant content may follow the root element.
	switch _, err := s.skipToContent(); err {
	case io.EOF:
		return nil
	case nil:
		return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
			At(s.pos()).
			Detail("unexpected content after document").
			Build()
	default:
		return err
	}
}

// element transcodes one element whose start tag tok has already been
// consumed, and returns the cargo that actually received it (the morph
// target, when the receiver's shape depends on the markup).
func (im *Importer) element(s *scanner, tok token, c cargo.Cargo, path []string) (cargo.Cargo, error) {
	if m, ok := c.(cargo.Morpher); ok {
		kind, err := im.sniff(s, tok)
		if err != nil {
			return nil, err
		}
		c = m.Morph(kind)
	}

	if tok.kind == tokEmpty && len(tok.attrs) == 0 && c.Form() != cargo.FormPackage {
		// Self-closing with no attributes completes the element without
		// content; the receiver keeps its defaulted state.
		return c, nil
	}

	if c.Form() == cargo.FormPackage || len(tok.attrs) > 0 {
		pkg, err := im.requirePackage(tok, c, path)
		if err != nil {
			return nil, err
		}
		return c, im.readComposite(s, tok, pkg, path)
	}
	return c, im.readItem(s, tok, c, path)
}

// sniff resolves the wire kind of an element for a shape-dependent
// receiver. Attributes force a composite; otherwise the decision falls to
// the first significant token of the content.
func (im *Importer) sniff(s *scanner, tok token) (cargo.WireKind, error) {
	if len(tok.attrs) > 0 {
		return cargo.WireComposite, nil
	}
	if tok.kind == tokEmpty {
		return cargo.WireNone, nil
	}
	for {
		next, err := s.token()
		if err != nil {
			if err == io.EOF {
				return cargo.WireNone, s.unclosed(tok.pos, "element <"+tok.name+"> never closed")
			}
			return cargo.WireNone, err
		}
		switch next.kind {
		case tokText:
			if strings.TrimSpace(next.text) == "" {
				continue // insignificant padding between tags
			}
			s.unread(next)
			return cargo.WireText, nil
		case tokCData:
			s.unread(next)
			return cargo.WireText, nil
		case tokStart, tokEmpty:
			s.unread(next)
			return cargo.WireComposite, nil
		case tokEnd:
			s.unread(next)
			return cargo.WireText, nil
		default:
			continue
		}
	}
}

// readItem accumulates the character content of a scalar element through
// its end tag. Markup inside a scalar is an error. Plain character data is
// trimmed; CDATA content is kept verbatim.
func (im *Importer) readItem(s *scanner, tok token, c cargo.Cargo, path []string) error {
	item, err := im.requireItem(tok, c, path)
	if err != nil {
		return err
	}

	var out strings.Builder
	hadCData := false
	for {
		next, err := s.token()
		if err != nil {
			if err == io.EOF {
				return s.unclosed(tok.pos, "element <"+tok.name+"> never closed")
			}
			return err
		}
		switch next.kind {
		case tokText:
			out.WriteString(next.text)
		case tokCData:
			out.WriteString(next.text)
			hadCData = true
		case tokEnd:
			if next.name != tok.name {
				return errors.New(errors.PhaseReceive, errors.KindUnbalancedScope).
					At(next.pos).
					Path(path...).
					Detail("end tag </%s> closes <%s>", next.name, tok.name).
					Build()
			}
			text := out.String()
			if !hadCData {
				text = strings.TrimSpace(text)
			}
			if !item.Read(text) {
				return errors.BadValue(path, tok.pos, text)
			}
			return nil
		case tokStart, tokEmpty:
			return errors.New(errors.PhaseReceive, errors.KindBadValue).
				At(next.pos).
				Path(path...).
				Detail("composite content for an atomic field").
				Build()
		}
	}
}

// route tracks a collapsed container: a singular entry whose package holds
// the repeating content that the markup spreads over same-named sibling
// tags.
type route struct {
	entry     *inventory.Entry
	container cargo.Package
	inv       *inventory.Inventory
	inner     *inventory.Entry
}

// readComposite transcodes an element with attributes or child elements.
// Attributes are always applied ahead of children; a two-phase package
// additionally gets FinaliseAttributes between its attribute entries and
// everything else.
func (im *Importer) readComposite(s *scanner, tok token, pkg cargo.Package, path []string) error {
	inv := cargo.BuildInventory(pkg)
	if inv.Len() == 0 {
		if _, ok := pkg.(cargo.Allocator); !ok {
			return errors.NoInventory(errors.PhaseReceive, path, tok.pos)
		}
	}

	af, twoPass := pkg.(cargo.AttributeFirst)
	if twoPass {
		twoPass = af.AttributesFirst()
	}

	if twoPass {
		// Phase one: only attribute-role entries of the current inventory
		// are satisfied, so FinaliseAttributes sees them populated before
		// anything else lands.
		applied := make(map[string]bool)
		for _, a := range tok.attrs {
			done, err := im.applyDeclaredAttr(pkg, inv, a, tok.pos, path)
			if err != nil {
				return err
			}
			if done {
				applied[a.name] = true
			}
		}

		next, ok := af.FinaliseAttributes()
		if !ok {
			return errors.New(errors.PhaseReceive, errors.KindInvalidObject).
				At(tok.pos).
				Path(path...).
				Detail("attribute finalisation rejected").
				Build()
		}
		if next != nil {
			if next != pkg {
				Logger().Debug("attribute finalisation swapped the receiver",
					zap.String("path", strings.Join(path, ".")))
			}
			pkg = next
		}
		inv = cargo.BuildInventory(pkg)

		// Phase two: replay the attribute list against the finalised
		// inventory. Values consumed in phase one only count; the rest are
		// applied for real.
		for _, a := range tok.attrs {
			if err := im.replayAttr(pkg, inv, a, applied[a.name], tok.pos, path); err != nil {
				return err
			}
		}
	} else {
		for _, a := range tok.attrs {
			if err := im.applyAttr(pkg, inv, a, tok.pos, path); err != nil {
				return err
			}
		}
	}

	if tok.kind == tokEmpty {
		return im.checkMissing(inv, tok.pos, path)
	}
	return im.readChildren(s, tok, pkg, inv, path)
}

// applyDeclaredAttr is the two-phase first pass: it applies an attribute
// only when the current inventory declares it with the attribute role, and
// reports whether it did.
func (im *Importer) applyDeclaredAttr(pkg cargo.Package, inv *inventory.Inventory, a attr, at errors.Position, path []string) (bool, error) {
	if isDeclaration(a.name) {
		return false, nil
	}
	id := im.tagIdentity(a.name)
	entry, st := inv.Register(id)
	switch {
	case st == inventory.Matched && entry.Role == inventory.Attribute:
		return true, im.fillAttr(pkg, entry, a, at, path)
	case st == inventory.Exhausted && entry.Role == inventory.Attribute:
		return false, errors.BoundsExceeded(path, at, a.name, entry.Max)
	default:
		// Unknown here may be known to the finalised package; phase two
		// decides.
		return false, nil
	}
}

// replayAttr is the two-phase second pass, run against the finalised
// inventory. Attributes already applied only keep the counters honest;
// attributes the first pass could not place are applied now, and an
// attribute neither pass recognizes is unknown.
func (im *Importer) replayAttr(pkg cargo.Package, inv *inventory.Inventory, a attr, consumed bool, at errors.Position, path []string) error {
	if isDeclaration(a.name) {
		return nil
	}
	id := im.tagIdentity(a.name)
	entry, st := inv.Register(id)
	if consumed {
		// Consumed by the pre-finalisation package (a type tag, say). The
		// finalised inventory may not list it at all.
		return nil
	}
	switch st {
	case inventory.Matched:
		return im.fillAttr(pkg, entry, a, at, path)
	case inventory.Exhausted:
		return errors.BoundsExceeded(path, at, a.name, entry.Max)
	default:
		return im.unknownAttr(pkg, inv, a, id, at, path)
	}
}

// applyAttr is the single-pass attribute path for ordinary packages.
func (im *Importer) applyAttr(pkg cargo.Package, inv *inventory.Inventory, a attr, at errors.Position, path []string) error {
	if isDeclaration(a.name) {
		return nil
	}
	id := im.tagIdentity(a.name)
	entry, st := inv.Register(id)
	switch st {
	case inventory.Matched:
		return im.fillAttr(pkg, entry, a, at, path)
	case inventory.Exhausted:
		return errors.BoundsExceeded(path, at, a.name, entry.Max)
	default:
		return im.unknownAttr(pkg, inv, a, id, at, path)
	}
}

func (im *Importer) unknownAttr(pkg cargo.Package, inv *inventory.Inventory, a attr, id inventory.Identity, at errors.Position, path []string) error {
	if alloc, ok := pkg.(cargo.Allocator); ok {
		if grown, ok := alloc.Allocate(inv, id, inventory.Attribute); ok {
			if !grown.Bump() {
				return errors.BoundsExceeded(path, at, a.name, grown.Max)
			}
			return im.fillAttr(pkg, grown, a, at, path)
		}
	}
	if im.opts.SkipUnknown {
		Logger().Debug("skipping unknown attribute",
			zap.String("name", a.name),
			zap.String("pos", at.String()))
		return nil
	}
	return errors.UnknownName(path, at, a.name)
}

// fillAttr reads an attribute value into the entry's cargo. Attribute
// values are atomic, so the cargo must take the item form.
func (im *Importer) fillAttr(pkg cargo.Package, entry *inventory.Entry, a attr, at errors.Position, path []string) error {
	child, ok := pkg.GetCargo(entry)
	if !ok {
		return errors.New(errors.PhaseReceive, errors.KindNoInventory).
			At(at).
			Path(path...).
			Detail("package supplied no cargo for attribute %q", a.name).
			Build()
	}
	child.Default()
	if m, ok := child.(cargo.Morpher); ok {
		child = m.Morph(cargo.WireText)
	}
	item, ok := child.(cargo.Item)
	if !ok || child.Form() != cargo.FormItem {
		return errors.New(errors.PhaseReceive, errors.KindBadAttribute).
			At(at).
			Path(path...).
			Detail("attribute %q targets a composite entry", a.name).
			Build()
	}
	attrPath := appendPath(path, a.name)
	if !item.Read(a.value) {
		return errors.BadValue(attrPath, at, a.value)
	}
	if !child.Validate() {
		return errors.InvalidObject(attrPath, at)
	}
	if !pkg.Insert(entry, child) {
		return errors.New(errors.PhaseReceive, errors.KindInvalidObject).
			At(at).
			Path(attrPath...).
			Detail("package rejected the incoming attribute").
			Build()
	}
	return nil
}

// readChildren scans the element body from just after the start tag
// through the matching end tag.
func (im *Importer) readChildren(s *scanner, open token, pkg cargo.Package, inv *inventory.Inventory, path []string) error {
	routes := make(map[string]*route)
	for {
		tok, err := s.token()
		if err != nil {
			if err == io.EOF {
				return s.unclosed(open.pos, "element <"+open.name+"> never closed")
			}
			return err
		}
		switch tok.kind {
		case tokEnd:
			if tok.name != open.name {
				return errors.New(errors.PhaseReceive, errors.KindUnbalancedScope).
					At(tok.pos).
					Path(path...).
					Detail("end tag </%s> closes <%s>", tok.name, open.name).
					Build()
			}
			if err := im.finishRoutes(pkg, routes, tok.pos, path); err != nil {
				return err
			}
			return im.checkMissing(inv, tok.pos, path)
		case tokText, tokCData:
			if tok.kind == tokText && strings.TrimSpace(tok.text) == "" {
				continue
			}
			return errors.New(errors.PhaseReceive, errors.KindBadValue).
				At(tok.pos).
				Path(path...).
				Detail("scalar content for a composite field").
				Build()
		case tokProc:
			continue
		case tokStart, tokEmpty:
			if err := im.readChild(s, tok, pkg, inv, routes, path); err != nil {
				return err
			}
		}
	}
}

func (im *Importer) readChild(s *scanner, tok token, pkg cargo.Package, inv *inventory.Inventory, routes map[string]*route, path []string) error {
	if r, ok := routes[tok.name]; ok {
		return im.routeChild(s, tok, r, path)
	}

	id := im.tagIdentity(tok.name)
	entry, st := inv.Register(id)

	switch st {
	case inventory.Unknown:
		if alloc, ok := pkg.(cargo.Allocator); ok {
			if grown, ok := alloc.Allocate(inv, id, inventory.Element); ok {
				entry = grown
				if !entry.Bump() {
					return errors.BoundsExceeded(path, tok.pos, tok.name, entry.Max)
				}
				break
			}
		}
		if im.opts.SkipUnknown {
			Logger().Debug("skipping unknown element",
				zap.String("name", tok.name),
				zap.String("pos", tok.pos.String()))
			return im.skipElement(s, tok)
		}
		return errors.UnknownName(path, tok.pos, tok.name)

	case inventory.Exhausted:
		granted := false
		if alloc, ok := pkg.(cargo.Allocator); ok {
			if grown, ok := alloc.AllocateArray(inv, entry); ok {
				entry = grown
				granted = entry.Bump()
			}
		}
		if !granted {
			return errors.BoundsExceeded(path, tok.pos, tok.name, entry.Max)
		}
	}

	child, ok := pkg.GetCargo(entry)
	if !ok {
		return errors.New(errors.PhaseReceive, errors.KindNoInventory).
			At(tok.pos).
			Path(path...).
			Detail("package supplied no cargo for <%s>", tok.name).
			Build()
	}
	child.Default()

	// A singular entry backed by a container with a collapsed repeating
	// entry spreads over same-named sibling tags; route them all into the
	// one container.
	if !entry.Repeating() {
		if r := im.collapseRoute(entry, child, id); r != nil {
			routes[tok.name] = r
			return im.routeChild(s, tok, r, path)
		}
	}

	childPath := appendPath(path, tok.name)
	resolved, err := im.element(s, tok, child, childPath)
	if err != nil {
		return err
	}
	if !resolved.Validate() {
		return errors.InvalidObject(childPath, s.pos())
	}
	if !pkg.Insert(entry, resolved) {
		return errors.New(errors.PhaseReceive, errors.KindInvalidObject).
			At(s.pos()).
			Path(childPath...).
			Detail("package rejected the incoming child").
			Build()
	}
	return nil
}

// collapseRoute reports whether child is a container that the export side
// collapses: its sole repeating entry is anonymous or shares the member's
// identity. Such containers never appear as a wrapper tag in the markup.
func (im *Importer) collapseRoute(entry *inventory.Entry, child cargo.Cargo, id inventory.Identity) *route {
	container, ok := child.(cargo.Package)
	if !ok || child.Form() != cargo.FormPackage {
		return nil
	}
	inner := cargo.BuildInventory(container)
	sole := inner.Sole()
	if sole == nil {
		return nil
	}
	if !sole.ID.Anonymous() && !sole.ID.Equal(id) {
		return nil
	}
	return &route{entry: entry, container: container, inv: inner, inner: sole}
}

// routeChild feeds one same-named sibling tag into its collapsed
// container.
func (im *Importer) routeChild(s *scanner, tok token, r *route, path []string) error {
	if !r.inner.Bump() {
		granted := false
		if alloc, ok := r.container.(cargo.Allocator); ok {
			if grown, ok := alloc.AllocateArray(r.inv, r.inner); ok {
				r.inner = grown
				granted = r.inner.Bump()
			}
		}
		if !granted {
			return errors.BoundsExceeded(path, tok.pos, tok.name, r.inner.Max)
		}
	}
	child, ok := r.container.GetCargo(r.inner)
	if !ok {
		return errors.New(errors.PhaseReceive, errors.KindNoInventory).
			At(tok.pos).
			Path(path...).
			Detail("container supplied no cargo for <%s>", tok.name).
			Build()
	}
	child.Default()

	childPath := appendPath(path, tok.name)
	resolved, err := im.element(s, tok, child, childPath)
	if err != nil {
		return err
	}
	if !resolved.Validate() {
		return errors.InvalidObject(childPath, s.pos())
	}
	if !r.container.Insert(r.inner, resolved) {
		return errors.New(errors.PhaseReceive, errors.KindInvalidObject).
			At(s.pos()).
			Path(childPath...).
			Detail("container rejected the incoming child").
			Build()
	}
	return nil
}

// finishRoutes hands each populated container back to its owner once the
// enclosing scope closes.
func (im *Importer) finishRoutes(pkg cargo.Package, routes map[string]*route, at errors.Position, path []string) error {
	for name, r := range routes {
		childPath := appendPath(path, name)
		if !r.container.Validate() {
			return errors.InvalidObject(childPath, at)
		}
		if !pkg.Insert(r.entry, r.container) {
			return errors.New(errors.PhaseReceive, errors.KindInvalidObject).
				At(at).
				Path(childPath...).
				Detail("package rejected the incoming child").
				Build()
		}
	}
	return nil
}

// skipElement discards one unknown element and everything it contains.
func (im *Importer) skipElement(s *scanner, open token) error {
	if open.kind == tokEmpty {
		return nil
	}
	depth := 0
	for {
		tok, err := s.token()
		if err != nil {
			if err == io.EOF {
				return s.unclosed(open.pos, "element <"+open.name+"> never closed")
			}
			return err
		}
		switch tok.kind {
		case tokStart:
			depth++
		case tokEnd:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func (im *Importer) checkMissing(inv *inventory.Inventory, at errors.Position, path []string) error {
	if !im.opts.FailOnMissing && !im.opts.EveryEntryRequired {
		return nil
	}
	if e := inv.MissingRequired(im.opts.EveryEntryRequired); e != nil {
		return errors.InstanceMissing(path, at, e.ID.Name)
	}
	return nil
}

func (im *Importer) requirePackage(tok token, c cargo.Cargo, path []string) (cargo.Package, error) {
	if c.Form() != cargo.FormPackage {
		return nil, errors.New(errors.PhaseReceive, errors.KindBadValue).
			At(tok.pos).
			Path(path...).
			Detail("composite content for an atomic field").
			Build()
	}
	pkg, ok := c.(cargo.Package)
	if !ok {
		return nil, errors.NoInventory(errors.PhaseReceive, path, tok.pos)
	}
	return pkg, nil
}

func (im *Importer) requireItem(tok token, c cargo.Cargo, path []string) (cargo.Item, error) {
	if c.Form() != cargo.FormItem {
		return nil, errors.New(errors.PhaseReceive, errors.KindBadValue).
			At(tok.pos).
			Path(path...).
			Detail("scalar content for a composite field").
			Build()
	}
	item, ok := c.(cargo.Item)
	if !ok {
		return nil, errors.New(errors.PhaseReceive, errors.KindBadValue).
			At(tok.pos).
			Path(path...).
			Detail("cargo does not implement Item").
			Build()
	}
	return item, nil
}

func (im *Importer) tagIdentity(name string) inventory.Identity {
	if im.opts.Namespaces {
		if i := strings.IndexByte(name, ':'); i >= 0 {
			return inventory.Identity{Group: name[:i], Name: name[i+1:]}
		}
	}
	return inventory.Identity{Name: name}
}

// isDeclaration reports whether an attribute is a namespace declaration
// rather than data.
func isDeclaration(name string) bool {
	return name == "xmlns" || strings.HasPrefix(name, "xmlns:")
}

func appendPath(path []string, name string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = name
	return out
}
