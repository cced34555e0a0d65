package json

import (
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cargoline/cargoline"
	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/errors"
	"github.com/cargoline/cargoline/inventory"
)

// passMode selects how object members are treated during one scan of an
// object body.
type passMode int

const (
	// passNormal applies every matched member.
	passNormal passMode = iota
	// passAttributes applies only attribute-role entries and diverts
	// everything else into the discard sink (two-phase pass one).
	passAttributes
	// passSecond applies everything except attribute values already
	// consumed by pass one, which are parsed but discarded.
	passSecond
)

// Importer drives the JSON import state machine. One Importer may be
// reused; each Receive call builds its own transient state.
type Importer struct {
	opts Options
}

// NewImporter returns an importer with the given options.
func NewImporter(opts Options) *Importer {
	return &Importer{opts: opts}
}

// Receive transcodes one JSON document from src into c.
func Receive(c cargo.Cargo, id inventory.Identity, data []byte) error {
	return NewImporter(Options{}).Receive(c, id, cargoline.NewBytesSource(data))
}

// Receive transcodes one JSON document from src into c. The call either
// runs to completion or unwinds with the first error; no partial-result
// recovery is attempted.
func (im *Importer) Receive(c cargo.Cargo, id inventory.Identity, src cargoline.Source) error {
	s := newScanner(src)
	if err := s.skipSpace(); err != nil {
		if err == io.EOF {
			return errors.New(errors.PhaseReceive, errors.KindReadFailure).
				At(s.pos()).
				Detail("source is empty").
				Build()
		}
		return err
	}

	var path []string
	if id.Name != "" {
		path = []string{id.Name}
	}

	root, err := im.readValue(s, c, path)
	if err != nil {
		return err
	}
	if !root.Validate() {
		return errors.InvalidObject(path, s.pos())
	}

	// Only whitespace may follow the document.
	switch err := s.skipSpace(); err {
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

// readValue dispatches on the leading character of the next element and
// returns the cargo that actually received it (the morph target, when the
// receiver's shape depends on the token).
func (im *Importer) readValue(s *scanner, c cargo.Cargo, path []string) (cargo.Cargo, error) {
	if err := s.skipSpace(); err != nil {
		return nil, errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
			At(s.pos()).
			Detail("expected a value").
			Build()
	}
	b, err := s.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case b == '{':
		c = morph(c, cargo.WireComposite)
		pkg, err := im.requirePackage(s, c, path)
		if err != nil {
			return nil, err
		}
		return c, im.readObject(s, pkg, path)

	case b == '[':
		c = morph(c, cargo.WireSequence)
		pkg, err := im.requirePackage(s, c, path)
		if err != nil {
			return nil, err
		}
		return c, im.readArray(s, pkg, path)

	case b == '"':
		c = morph(c, cargo.WireText)
		item, err := im.requireItem(s, c, path)
		if err != nil {
			return nil, err
		}
		at := s.pos()
		text, err := s.readString()
		if err != nil {
			return nil, err
		}
		if !item.Read(text) {
			return nil, errors.BadValue(path, at, text)
		}
		return c, nil

	case b == 'n':
		at := s.pos()
		lit, err := s.readLiteral()
		if err != nil {
			return nil, err
		}
		if lit != "null" {
			return nil, errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
				At(at).
				Detail("unknown literal %q", lit).
				Build()
		}
		// Null completes the element without instantiating a child; the
		// receiver keeps its defaulted state.
		return morph(c, cargo.WireNone), nil

	case b == 't' || b == 'f':
		c = morph(c, cargo.WireBoolean)
		return c, im.readScalar(s, c, path)

	case b == '-' || (b >= '0' && b <= '9'):
		c = morph(c, cargo.WireNumber)
		return c, im.readScalar(s, c, path)

	default:
		return nil, errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
			At(s.pos()).
			Detail("unexpected character %q", string(b)).
			Build()
	}
}

func (im *Importer) readScalar(s *scanner, c cargo.Cargo, path []string) error {
	item, err := im.requireItem(s, c, path)
	if err != nil {
		return err
	}
	at := s.pos()
	lit, err := s.readLiteral()
	if err != nil {
		return err
	}
	if !item.Read(lit) {
		return errors.BadValue(path, at, lit)
	}
	return nil
}

func (im *Importer) readObject(s *scanner, pkg cargo.Package, path []string) error {
	openPos := s.pos()
	s.next() // consume '{'

	inv := cargo.BuildInventory(pkg)
	if inv.Len() == 0 {
		if _, ok := pkg.(cargo.Allocator); !ok {
			return errors.NoInventory(errors.PhaseReceive, path, openPos)
		}
	}

	af, twoPass := pkg.(cargo.AttributeFirst)
	if twoPass {
		twoPass = af.AttributesFirst()
	}

	if !twoPass {
		if err := im.readMembers(s, pkg, inv, passNormal, nil, path); err != nil {
			return err
		}
		return im.checkMissing(s, inv, path)
	}

	// Two-phase protocol: pass one consumes attribute-role entries only,
	// then the body is rewound and replayed against the finalised package.
	body := s.mark()
	applied := map[string]bool{}
	consumed := false
	if len(inv.Attributes()) > 0 {
		if err := im.readMembers(s, pkg, inv, passAttributes, applied, path); err != nil {
			return err
		}
		consumed = true
	} else {
		// Zero attribute-role entries: the first pass is a no-op and the
		// body is read exactly once, by pass two.
		debugf("attributes-first package with no attribute entries at %v", openPos)
	}

	next, ok := af.FinaliseAttributes()
	if !ok {
		return errors.New(errors.PhaseReceive, errors.KindInvalidObject).
			At(s.pos()).
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

	if consumed {
		if err := s.rewind(body); err != nil {
			return err
		}
	}
	if err := im.readMembers(s, pkg, inv, passSecond, applied, path); err != nil {
		return err
	}
	return im.checkMissing(s, inv, path)
}

func (im *Importer) checkMissing(s *scanner, inv *inventory.Inventory, path []string) error {
	if !im.opts.FailOnMissing && !im.opts.EveryEntryRequired {
		return nil
	}
	if e := inv.MissingRequired(im.opts.EveryEntryRequired); e != nil {
		return errors.InstanceMissing(path, s.pos(), e.ID.Name)
	}
	return nil
}

// readMembers scans one object body from just after the opening brace to
// the closing brace inclusive.
func (im *Importer) readMembers(s *scanner, pkg cargo.Package, inv *inventory.Inventory, mode passMode, applied map[string]bool, path []string) error {
	first := true
	for {
		if err := s.skipSpace(); err != nil {
			return errors.New(errors.PhaseReceive, errors.KindMissingClose).
				At(s.pos()).
				Detail("object never closed").
				Build()
		}
		b, err := s.peek()
		if err != nil {
			return err
		}
		if b == '}' {
			s.next()
			return nil
		}
		if !first {
			if b != ',' {
				return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
					At(s.pos()).
					Detail("expected ',' or '}'").
					Build()
			}
			s.next()
			if err := s.skipSpace(); err != nil {
				return errors.New(errors.PhaseReceive, errors.KindMissingClose).
					At(s.pos()).
					Detail("object never closed").
					Build()
			}
			b, _ = s.peek()
			if b == '}' {
				return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
					At(s.pos()).
					Detail("trailing comma").
					Build()
			}
		}
		if b != '"' {
			return errors.New(errors.PhaseReceive, errors.KindMissingName).
				At(s.pos()).
				Detail("expected a member name").
				Build()
		}

		namePos := s.pos()
		name, err := s.readString()
		if err != nil {
			return err
		}
		if err := s.skipSpace(); err != nil {
			return errors.New(errors.PhaseReceive, errors.KindMissingClose).
				At(s.pos()).
				Detail("object never closed").
				Build()
		}
		if b, _ := s.next(); b != ':' {
			return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
				At(s.pos()).
				Detail("expected ':' after member name").
				Build()
		}

		if err := im.readMember(s, pkg, inv, mode, applied, name, namePos, path); err != nil {
			return err
		}
		first = false
	}
}

func (im *Importer) readMember(s *scanner, pkg cargo.Package, inv *inventory.Inventory, mode passMode, applied map[string]bool, name string, namePos errors.Position, path []string) error {
	id := im.memberIdentity(name)
	entry, st := inv.Register(id)

	if mode == passAttributes {
		switch {
		case st == inventory.Matched && entry.Role == inventory.Attribute:
			applied[name] = true
		case st == inventory.Exhausted && entry.Role == inventory.Attribute:
			return errors.BoundsExceeded(path, namePos, name, entry.Max)
		default:
			// Not an attribute: divert into the discard sink; pass two
			// will read it for real.
			return im.skipValue(s, path)
		}
	}
	if mode == passSecond && applied[name] {
		// Already applied by pass one: parse structurally, discard
		// semantically. The finalised inventory may not even declare the
		// name (a consumed type tag, say); when it does, the registration
		// above keeps the counters honest.
		return im.skipValue(s, path)
	}

	switch st {
	case inventory.Unknown:
		if alloc, ok := pkg.(cargo.Allocator); ok {
			if grown, ok := alloc.Allocate(inv, id, inventory.Element); ok {
				entry = grown
				if !entry.Bump() {
					return errors.BoundsExceeded(path, namePos, name, entry.Max)
				}
				break
			}
		}
		if im.opts.SkipUnknown {
			Logger().Debug("skipping unknown member",
				zap.String("name", name),
				zap.String("pos", namePos.String()))
			return im.skipValue(s, path)
		}
		return errors.UnknownName(path, namePos, name)

	case inventory.Exhausted:
		granted := false
		if alloc, ok := pkg.(cargo.Allocator); ok {
			if grown, ok := alloc.AllocateArray(inv, entry); ok {
				entry = grown
				granted = entry.Bump()
			}
		}
		if !granted {
			return errors.BoundsExceeded(path, namePos, name, entry.Max)
		}
	}

	// A repeating member arrives as an array: its elements register
	// against the same entry, one bump each.
	if entry.Repeating() {
		if err := s.skipSpace(); err != nil {
			return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
				At(s.pos()).
				Detail("expected a value").
				Build()
		}
		if b, _ := s.peek(); b == '[' {
			return im.readMemberArray(s, pkg, inv, entry, appendPath(path, name))
		}
	}

	child, ok := pkg.GetCargo(entry)
	if !ok {
		return errors.New(errors.PhaseReceive, errors.KindNoInventory).
			At(namePos).
			Path(path...).
			Detail("package supplied no cargo for %q", name).
			Build()
	}
	child.Default()

	childPath := appendPath(path, name)
	resolved, err := im.readValue(s, child, childPath)
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

// readMemberArray drains one array bound to a named repeating entry. The
// member-name registration already bumped once; the first element spends
// that bump and every further element pays for its own.
func (im *Importer) readMemberArray(s *scanner, pkg cargo.Package, inv *inventory.Inventory, entry *inventory.Entry, path []string) error {
	s.next() // consume '['

	bumped := true
	first := true
	for {
		if err := s.skipSpace(); err != nil {
			return errors.New(errors.PhaseReceive, errors.KindMissingClose).
				At(s.pos()).
				Detail("array never closed").
				Build()
		}
		b, err := s.peek()
		if err != nil {
			return err
		}
		if b == ']' {
			s.next()
			return nil
		}
		if !first {
			if b != ',' {
				return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
					At(s.pos()).
					Detail("expected ',' or ']'").
					Build()
			}
			s.next()
			if err := s.skipSpace(); err != nil {
				return errors.New(errors.PhaseReceive, errors.KindMissingClose).
					At(s.pos()).
					Detail("array never closed").
					Build()
			}
			if b, _ := s.peek(); b == ']' {
				return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
					At(s.pos()).
					Detail("trailing comma").
					Build()
			}
		}

		if !bumped && !entry.Bump() {
			granted := false
			if alloc, ok := pkg.(cargo.Allocator); ok {
				if grown, ok := alloc.AllocateArray(inv, entry); ok {
					entry = grown
					granted = entry.Bump()
				}
			}
			if !granted {
				return errors.BoundsExceeded(path, s.pos(), entry.ID.Name, entry.Max)
			}
		}
		bumped = false

		child, ok := pkg.GetCargo(entry)
		if !ok {
			return errors.New(errors.PhaseReceive, errors.KindNoInventory).
				At(s.pos()).
				Path(path...).
				Detail("package supplied no cargo for array element").
				Build()
		}
		child.Default()

		resolved, err := im.readValue(s, child, path)
		if err != nil {
			return err
		}
		if !resolved.Validate() {
			return errors.InvalidObject(path, s.pos())
		}
		if !pkg.Insert(entry, resolved) {
			return errors.New(errors.PhaseReceive, errors.KindInvalidObject).
				At(s.pos()).
				Path(path...).
				Detail("package rejected the incoming element").
				Build()
		}
		first = false
	}
}

func (im *Importer) readArray(s *scanner, pkg cargo.Package, path []string) error {
	openPos := s.pos()
	s.next() // consume '['

	inv := cargo.BuildInventory(pkg)
	// The container is the element: there is no member name, so the
	// anonymous-array heuristic picks the unique repeating entry.
	entry := inv.Sole()
	if entry == nil && inv.Len() == 1 {
		entry = inv.At(0)
	}
	if entry == nil {
		return errors.New(errors.PhaseReceive, errors.KindNoInventory).
			At(openPos).
			Path(path...).
			Detail("no unique repeating entry for array content").
			Build()
	}

	first := true
	for {
		if err := s.skipSpace(); err != nil {
			return errors.New(errors.PhaseReceive, errors.KindMissingClose).
				At(s.pos()).
				Detail("array never closed").
				Build()
		}
		b, err := s.peek()
		if err != nil {
			return err
		}
		if b == ']' {
			s.next()
			break
		}
		if !first {
			if b != ',' {
				return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
					At(s.pos()).
					Detail("expected ',' or ']'").
					Build()
			}
			s.next()
			if err := s.skipSpace(); err != nil {
				return errors.New(errors.PhaseReceive, errors.KindMissingClose).
					At(s.pos()).
					Detail("array never closed").
					Build()
			}
			if b, _ := s.peek(); b == ']' {
				return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
					At(s.pos()).
					Detail("trailing comma").
					Build()
			}
		}

		if !entry.Bump() {
			granted := false
			if alloc, ok := pkg.(cargo.Allocator); ok {
				if grown, ok := alloc.AllocateArray(inv, entry); ok {
					entry = grown
					granted = entry.Bump()
				}
			}
			if !granted {
				return errors.BoundsExceeded(path, s.pos(), entry.ID.Name, entry.Max)
			}
		}

		child, ok := pkg.GetCargo(entry)
		if !ok {
			return errors.New(errors.PhaseReceive, errors.KindNoInventory).
				At(s.pos()).
				Path(path...).
				Detail("package supplied no cargo for array element").
				Build()
		}
		child.Default()

		resolved, err := im.readValue(s, child, path)
		if err != nil {
			return err
		}
		if !resolved.Validate() {
			return errors.InvalidObject(path, s.pos())
		}
		if !pkg.Insert(entry, resolved) {
			return errors.New(errors.PhaseReceive, errors.KindInvalidObject).
				At(s.pos()).
				Path(path...).
				Detail("package rejected the incoming element").
				Build()
		}
		first = false
	}

	return im.checkMissing(s, inv, path)
}

// skipValue is the discard sink: it parses one value structurally and
// throws the content away, so skipped members still validate syntax.
func (im *Importer) skipValue(s *scanner, path []string) error {
	if err := s.skipSpace(); err != nil {
		return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
			At(s.pos()).
			Detail("expected a value").
			Build()
	}
	b, err := s.peek()
	if err != nil {
		return err
	}
	switch b {
	case '{':
		return im.skipScope(s, '}', path)
	case '[':
		return im.skipScope(s, ']', path)
	case '"':
		_, err := s.readString()
		return err
	default:
		_, err := s.readLiteral()
		return err
	}
}

func (im *Importer) skipScope(s *scanner, close byte, path []string) error {
	s.next() // consume opener
	first := true
	for {
		if err := s.skipSpace(); err != nil {
			return errors.New(errors.PhaseReceive, errors.KindMissingClose).
				At(s.pos()).
				Detail("scope never closed").
				Build()
		}
		b, err := s.peek()
		if err != nil {
			return err
		}
		if b == close {
			s.next()
			return nil
		}
		if !first {
			if b != ',' {
				return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
					At(s.pos()).
					Detail("expected ',' or %q", string(close)).
					Build()
			}
			s.next()
			if err := s.skipSpace(); err != nil {
				return errors.New(errors.PhaseReceive, errors.KindMissingClose).
					At(s.pos()).
					Detail("scope never closed").
					Build()
			}
			if b, _ := s.peek(); b == close {
				return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
					At(s.pos()).
					Detail("trailing comma").
					Build()
			}
		}
		if close == '}' {
			if b, _ := s.peek(); b != '"' {
				return errors.New(errors.PhaseReceive, errors.KindMissingName).
					At(s.pos()).
					Detail("expected a member name").
					Build()
			}
			if _, err := s.readString(); err != nil {
				return err
			}
			if err := s.skipSpace(); err != nil {
				return errors.New(errors.PhaseReceive, errors.KindMissingClose).
					At(s.pos()).
					Detail("object never closed").
					Build()
			}
			if b, _ := s.next(); b != ':' {
				return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
					At(s.pos()).
					Detail("expected ':' after member name").
					Build()
			}
		}
		if err := im.skipValue(s, path); err != nil {
			return err
		}
		first = false
	}
}

func (im *Importer) requirePackage(s *scanner, c cargo.Cargo, path []string) (cargo.Package, error) {
	if c.Form() != cargo.FormPackage {
		return nil, errors.New(errors.PhaseReceive, errors.KindBadValue).
			At(s.pos()).
			Path(path...).
			Detail("composite content for an atomic field").
			Build()
	}
	pkg, ok := c.(cargo.Package)
	if !ok {
		return nil, errors.NoInventory(errors.PhaseReceive, path, s.pos())
	}
	return pkg, nil
}

func (im *Importer) requireItem(s *scanner, c cargo.Cargo, path []string) (cargo.Item, error) {
	if c.Form() != cargo.FormItem {
		return nil, errors.New(errors.PhaseReceive, errors.KindBadValue).
			At(s.pos()).
			Path(path...).
			Detail("scalar content for a composite field").
			Build()
	}
	item, ok := c.(cargo.Item)
	if !ok {
		return nil, errors.New(errors.PhaseReceive, errors.KindBadValue).
			At(s.pos()).
			Path(path...).
			Detail("cargo does not implement Item").
			Build()
	}
	return item, nil
}

func (im *Importer) memberIdentity(name string) inventory.Identity {
	if im.opts.Namespaces {
		if i := strings.IndexByte(name, ':'); i >= 0 {
			return inventory.Identity{Group: name[:i], Name: name[i+1:]}
		}
	}
	return inventory.Identity{Name: name}
}

func morph(c cargo.Cargo, k cargo.WireKind) cargo.Cargo {
	if m, ok := c.(cargo.Morpher); ok {
		return m.Morph(k)
	}
	return c
}

func appendPath(path []string, name string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = name
	return out
}
