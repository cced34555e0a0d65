package xml

import (
	"io"
	"strings"

	"github.com/cargoline/cargoline"
	"github.com/cargoline/cargoline/errors"
)

type tokenKind int

const (
	tokStart tokenKind = iota // <name attr="v">
	tokEmpty                  // <name attr="v"/>
	tokEnd                    // </name>
	tokText                   // character data, entities decoded
	tokCData                  // <![CDATA[ ... ]]>
	tokProc                   // <?name ... ?>
)

// attr is one attribute as it appeared on a start tag.
type attr struct {
	name  string
	value string
}

// token is one markup event. Comments never surface; the scanner discards
// them. Text tokens carry decoded character data with surrounding
// whitespace intact; callers trim where the grammar allows it.
type token struct {
	kind  tokenKind
	name  string
	text  string
	attrs []attr
	pos   errors.Position
}

// scanner tokenizes XML from a Source with one token of pushback. The
// pushback slot lets the importer peek at a tag to decide between scalar
// and composite handling before committing to either.
type scanner struct {
	src cargoline.Source

	buf    byte
	hasBuf bool

	held    token
	hasHeld bool

	row int
	col int
}

func newScanner(src cargoline.Source) *scanner {
	return &scanner{src: src, row: 1, col: 1}
}

func (s *scanner) pos() errors.Position {
	return errors.Position{Row: s.row, Col: s.col}
}

// unread pushes a token back; the next call to token returns it again.
func (s *scanner) unread(t token) {
	s.held = t
	s.hasHeld = true
}

func (s *scanner) next() (byte, error) {
	if s.hasBuf {
		s.hasBuf = false
		s.advance(s.buf)
		return s.buf, nil
	}
	b, err := s.src.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, errors.New(errors.PhaseReceive, errors.KindReadFailure).
			At(s.pos()).
			Cause(err).
			Build()
	}
	s.advance(b)
	return b, nil
}

func (s *scanner) peek() (byte, error) {
	if s.hasBuf {
		return s.buf, nil
	}
	b, err := s.src.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, errors.New(errors.PhaseReceive, errors.KindReadFailure).
			At(s.pos()).
			Cause(err).
			Build()
	}
	s.buf = b
	s.hasBuf = true
	return b, nil
}

func (s *scanner) advance(b byte) {
	if b == '\n' {
		s.row++
		s.col = 1
	} else {
		s.col++
	}
}

// token returns the next markup event. io.EOF is returned untranslated
// when the source ends between tokens; an EOF inside a token is a
// missing-close error.
func (s *scanner) token() (token, error) {
	if s.hasHeld {
		s.hasHeld = false
		return s.held, nil
	}
	for {
		at := s.pos()
		b, err := s.peek()
		if err != nil {
			return token{}, err
		}
		if b != '<' {
			return s.readText(at)
		}
		s.next()
		b, err = s.peek()
		if err != nil {
			return token{}, s.unclosed(at, "markup ends after '<'")
		}
		switch b {
		case '/':
			s.next()
			return s.readEndTag(at)
		case '?':
			s.next()
			return s.readProc(at)
		case '!':
			s.next()
			tok, err := s.readBang(at)
			if err != nil {
				return token{}, err
			}
			if tok.kind == tokCData {
				return tok, nil
			}
			continue // comment: discard and keep scanning
		default:
			return s.readStartTag(at)
		}
	}
}

// skipToContent discards whitespace text, comments, and processing
// instructions until a structural token arrives. Used ahead of the root
// element and between sibling elements.
func (s *scanner) skipToContent() (token, error) {
	for {
		tok, err := s.token()
		if err != nil {
			return token{}, err
		}
		switch tok.kind {
		case tokText:
			if strings.TrimSpace(tok.text) != "" {
				return tok, nil
			}
		case tokProc:
			// prolog and other instructions carry no object content
		default:
			return tok, nil
		}
	}
}

func (s *scanner) unclosed(at errors.Position, detail string) error {
	return errors.New(errors.PhaseReceive, errors.KindMissingClose).
		At(at).
		Detail("%s", detail).
		Build()
}

// readText accumulates character data up to the next '<', decoding entity
// references as it goes.
func (s *scanner) readText(at errors.Position) (token, error) {
	var out strings.Builder
	for {
		b, err := s.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return token{}, err
		}
		if b == '<' {
			break
		}
		s.next()
		if b == '&' {
			r, err := s.readEntity()
			if err != nil {
				return token{}, err
			}
			out.WriteRune(r)
			continue
		}
		out.WriteByte(b)
	}
	return token{kind: tokText, text: out.String(), pos: at}, nil
}

// readEntity consumes the reference body after '&' through the closing ';'.
func (s *scanner) readEntity() (rune, error) {
	at := s.pos()
	var name strings.Builder
	for {
		b, err := s.next()
		if err != nil {
			return 0, errors.New(errors.PhaseReceive, errors.KindBadEscape).
				At(at).
				Detail("entity reference never closed").
				Build()
		}
		if b == ';' {
			break
		}
		if name.Len() > 8 {
			return 0, errors.New(errors.PhaseReceive, errors.KindBadEscape).
				At(at).
				Detail("entity reference too long").
				Build()
		}
		name.WriteByte(b)
	}
	return decodeEntity(name.String(), at)
}

func (s *scanner) readStartTag(at errors.Position) (token, error) {
	name, err := s.readName(at)
	if err != nil {
		return token{}, err
	}
	tok := token{kind: tokStart, name: name, pos: at}
	for {
		if err := s.skipSpace(at); err != nil {
			return token{}, err
		}
		b, err := s.peek()
		if err != nil {
			return token{}, s.unclosed(at, "tag <"+name+"> never closed")
		}
		switch b {
		case '>':
			s.next()
			return tok, nil
		case '/':
			s.next()
			b, err := s.next()
			if err != nil || b != '>' {
				return token{}, errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
					At(s.pos()).
					Detail("expected '>' after '/' in tag <%s>", name).
					Build()
			}
			tok.kind = tokEmpty
			return tok, nil
		default:
			a, err := s.readAttr(at, name)
			if err != nil {
				return token{}, err
			}
			tok.attrs = append(tok.attrs, a)
		}
	}
}

func (s *scanner) readEndTag(at errors.Position) (token, error) {
	name, err := s.readName(at)
	if err != nil {
		return token{}, err
	}
	if err := s.skipSpace(at); err != nil {
		return token{}, err
	}
	b, err := s.next()
	if err != nil || b != '>' {
		return token{}, errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
			At(s.pos()).
			Detail("malformed end tag </%s>", name).
			Build()
	}
	return token{kind: tokEnd, name: name, pos: at}, nil
}

// readProc consumes a processing instruction through its '?>' terminator.
// The xml declaration's encoding, when present, must name an ASCII-clean
// encoding since the scanner reads bytes.
func (s *scanner) readProc(at errors.Position) (token, error) {
	name, err := s.readName(at)
	if err != nil {
		return token{}, err
	}
	var body strings.Builder
	var last byte
	for {
		b, err := s.next()
		if err != nil {
			return token{}, s.unclosed(at, "processing instruction never closed")
		}
		if last == '?' && b == '>' {
			break
		}
		if last != 0 {
			body.WriteByte(last)
		}
		last = b
	}
	tok := token{kind: tokProc, name: name, text: body.String(), pos: at}
	if name == "xml" {
		if err := checkDeclaration(tok.text, at); err != nil {
			return token{}, err
		}
	}
	return tok, nil
}

// checkDeclaration validates the encoding pseudo-attribute of the xml
// declaration when one is present.
func checkDeclaration(body string, at errors.Position) error {
	lower := strings.ToLower(body)
	i := strings.Index(lower, "encoding")
	if i < 0 {
		return nil
	}
	rest := lower[i+len("encoding"):]
	rest = strings.TrimLeft(rest, " \t\r\n=")
	if len(rest) == 0 {
		return nil
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		return nil
	}
	end := strings.IndexByte(rest[1:], quote)
	if end < 0 {
		return nil
	}
	enc := rest[1 : 1+end]
	switch enc {
	case "utf-8", "us-ascii":
		return nil
	}
	return errors.New(errors.PhaseReceive, errors.KindBadEncoding).
		At(at).
		Detail("unsupported document encoding %q", enc).
		Build()
}

// readBang handles '<!' constructs: comments and CDATA sections. DOCTYPE
// declarations are consumed and discarded like comments.
func (s *scanner) readBang(at errors.Position) (token, error) {
	b, err := s.peek()
	if err != nil {
		return token{}, s.unclosed(at, "markup ends after '<!'")
	}
	switch b {
	case '-':
		if err := s.skipComment(at); err != nil {
			return token{}, err
		}
		return token{pos: at}, nil
	case '[':
		return s.readCData(at)
	default:
		// DOCTYPE or other declaration: consume to the matching '>'.
		depth := 0
		for {
			b, err := s.next()
			if err != nil {
				return token{}, s.unclosed(at, "declaration never closed")
			}
			switch b {
			case '<':
				depth++
			case '>':
				if depth == 0 {
					return token{pos: at}, nil
				}
				depth--
			}
		}
	}
}

func (s *scanner) skipComment(at errors.Position) error {
	for _, want := range []byte("--") {
		b, err := s.next()
		if err != nil || b != want {
			return errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
				At(at).
				Detail("malformed comment open").
				Build()
		}
	}
	var run int
	for {
		b, err := s.next()
		if err != nil {
			return s.unclosed(at, "comment never closed")
		}
		switch {
		case b == '-':
			run++
		case b == '>' && run >= 2:
			return nil
		default:
			run = 0
		}
	}
}

func (s *scanner) readCData(at errors.Position) (token, error) {
	for _, want := range []byte("[CDATA[") {
		b, err := s.next()
		if err != nil || b != want {
			return token{}, errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
				At(at).
				Detail("malformed CDATA open").
				Build()
		}
	}
	var out strings.Builder
	var run int
	for {
		b, err := s.next()
		if err != nil {
			return token{}, s.unclosed(at, "CDATA section never closed")
		}
		switch {
		case b == ']':
			if run == 2 {
				out.WriteByte(']')
			} else {
				run++
			}
		case b == '>' && run == 2:
			return token{kind: tokCData, text: out.String(), pos: at}, nil
		default:
			for ; run > 0; run-- {
				out.WriteByte(']')
			}
			out.WriteByte(b)
		}
	}
}

// readName consumes a tag or attribute name.
func (s *scanner) readName(at errors.Position) (string, error) {
	var out strings.Builder
	for {
		b, err := s.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if !isNameByte(b, out.Len() == 0) {
			break
		}
		s.next()
		out.WriteByte(b)
	}
	if out.Len() == 0 {
		return "", errors.New(errors.PhaseReceive, errors.KindMissingName).
			At(s.pos()).
			Detail("expected a name").
			Build()
	}
	return out.String(), nil
}

func isNameByte(b byte, first bool) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	case b == '_' || b == ':':
		return true
	case b >= 0x80: // multibyte names pass through untouched
		return true
	case first:
		return false
	case b >= '0' && b <= '9':
		return true
	case b == '-' || b == '.':
		return true
	}
	return false
}

// readAttr consumes one name="value" pair inside a start tag.
func (s *scanner) readAttr(tagAt errors.Position, tag string) (attr, error) {
	name, err := s.readName(tagAt)
	if err != nil {
		return attr{}, err
	}
	if err := s.skipSpace(tagAt); err != nil {
		return attr{}, err
	}
	b, err := s.next()
	if err != nil || b != '=' {
		return attr{}, errors.New(errors.PhaseReceive, errors.KindBadAttribute).
			At(s.pos()).
			Detail("attribute %s in <%s> has no value", name, tag).
			Build()
	}
	if err := s.skipSpace(tagAt); err != nil {
		return attr{}, err
	}
	open := s.pos()
	quote, err := s.next()
	if err != nil || (quote != '"' && quote != '\'') {
		return attr{}, errors.New(errors.PhaseReceive, errors.KindMissingQuote).
			At(open).
			Detail("attribute %s in <%s> is not quoted", name, tag).
			Build()
	}
	var out strings.Builder
	for {
		b, err := s.next()
		if err != nil {
			return attr{}, errors.New(errors.PhaseReceive, errors.KindMissingQuote).
				At(open).
				Detail("attribute value never closed").
				Build()
		}
		if b == quote {
			return attr{name: name, value: out.String()}, nil
		}
		if b == '&' {
			r, err := s.readEntity()
			if err != nil {
				return attr{}, err
			}
			out.WriteRune(r)
			continue
		}
		out.WriteByte(b)
	}
}

func (s *scanner) skipSpace(at errors.Position) error {
	for {
		b, err := s.peek()
		if err == io.EOF {
			return s.unclosed(at, "markup truncated")
		}
		if err != nil {
			return err
		}
		if b != ' ' && b != '\t' && b != '\n' && b != '\r' {
			return nil
		}
		s.next()
	}
}
