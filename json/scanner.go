package json

import (
	"io"
	"strings"

	"github.com/cargoline/cargoline"
	"github.com/cargoline/cargoline/errors"
)

// scanner layers one-byte lookahead and row/column tracking over a Source.
// The importer's two-pass protocol uses mark/rewind to replay an object
// body from the byte where it started.
type scanner struct {
	src cargoline.Source

	buf    byte
	hasBuf bool

	row int
	col int
}

// mark is a restore point: offset plus the row/column of the next byte.
type mark struct {
	off int
	row int
	col int
}

func newScanner(src cargoline.Source) *scanner {
	return &scanner{src: src, row: 1, col: 1}
}

// pos reports the position of the next unconsumed byte.
func (s *scanner) pos() errors.Position {
	return errors.Position{Row: s.row, Col: s.col}
}

func (s *scanner) mark() mark {
	off := s.src.Offset()
	if s.hasBuf {
		off--
	}
	return mark{off: off, row: s.row, col: s.col}
}

func (s *scanner) rewind(m mark) error {
	if err := s.src.Rewind(m.off); err != nil {
		return errors.New(errors.PhaseReceive, errors.KindReadFailure).
			At(s.pos()).
			Cause(err).
			Detail("rewind to restore point failed").
			Build()
	}
	s.hasBuf = false
	s.row = m.row
	s.col = m.col
	return nil
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

// peek returns the next byte without consuming it; the byte is pushed back
// for the value reader.
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

// skipSpace consumes insignificant whitespace. io.EOF is returned
// untranslated so callers can decide whether end-of-source is legal.
func (s *scanner) skipSpace() error {
	for {
		b, err := s.peek()
		if err != nil {
			return err
		}
		if b != ' ' && b != '\t' && b != '\n' && b != '\r' {
			return nil
		}
		s.next()
	}
}

// readString consumes a string literal including both quotes and returns
// its unescaped body. A missing closing quote is reported at the offset of
// the opening quote.
func (s *scanner) readString() (string, error) {
	open := s.pos()
	b, err := s.next()
	if err != nil || b != '"' {
		return "", errors.New(errors.PhaseReceive, errors.KindMissingQuote).
			At(open).
			Detail("expected opening quote").
			Build()
	}

	var out strings.Builder
	for {
		b, err := s.next()
		if err != nil {
			return "", errors.New(errors.PhaseReceive, errors.KindMissingQuote).
				At(open).
				Detail("string literal never closed").
				Build()
		}
		switch b {
		case '"':
			return out.String(), nil
		case '\\':
			if err := s.readEscape(&out, open); err != nil {
				return "", err
			}
		default:
			out.WriteByte(b)
		}
	}
}

func (s *scanner) readEscape(out *strings.Builder, open errors.Position) error {
	at := s.pos()
	b, err := s.next()
	if err != nil {
		return errors.New(errors.PhaseReceive, errors.KindMissingQuote).
			At(open).
			Detail("string literal ends inside an escape").
			Build()
	}
	if lit, ok := unescapeTable[b]; ok {
		out.WriteByte(lit)
		return nil
	}
	if b != 'u' {
		return errors.New(errors.PhaseReceive, errors.KindBadEscape).
			At(at).
			Detail("unknown escape \\%c", b).
			Build()
	}
	r, err := s.readHex4(at)
	if err != nil {
		return err
	}
	// Surrogate pair: a high surrogate must be followed by \uXXXX with the
	// low half.
	if r >= 0xD800 && r <= 0xDBFF {
		b1, err1 := s.next()
		b2, err2 := s.next()
		if err1 != nil || err2 != nil || b1 != '\\' || b2 != 'u' {
			return errors.New(errors.PhaseReceive, errors.KindBadEncoding).
				At(at).
				Detail("unpaired surrogate in \\u escape").
				Build()
		}
		low, err := s.readHex4(at)
		if err != nil {
			return err
		}
		if low < 0xDC00 || low > 0xDFFF {
			return errors.New(errors.PhaseReceive, errors.KindBadEncoding).
				At(at).
				Detail("invalid low surrogate in \\u escape").
				Build()
		}
		r = 0x10000 + (r-0xD800)<<10 + (low - 0xDC00)
	}
	appendRune(out, r)
	return nil
}

func (s *scanner) readHex4(at errors.Position) (rune, error) {
	var r rune
	for i := 0; i < 4; i++ {
		b, err := s.next()
		if err != nil {
			return 0, errors.New(errors.PhaseReceive, errors.KindBadEncoding).
				At(at).
				Detail("\\u escape truncated").
				Build()
		}
		var d rune
		switch {
		case b >= '0' && b <= '9':
			d = rune(b - '0')
		case b >= 'a' && b <= 'f':
			d = rune(b-'a') + 10
		case b >= 'A' && b <= 'F':
			d = rune(b-'A') + 10
		default:
			return 0, errors.New(errors.PhaseReceive, errors.KindBadEncoding).
				At(at).
				Detail("bad hex digit %q in \\u escape", string(b)).
				Build()
		}
		r = r<<4 | d
	}
	return r, nil
}

// readLiteral consumes a bare literal: a number in either notation, or one
// of the true/false/null keywords.
func (s *scanner) readLiteral() (string, error) {
	at := s.pos()
	var out strings.Builder
	for {
		b, err := s.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if !isLiteralByte(b) {
			break
		}
		s.next()
		out.WriteByte(b)
	}
	if out.Len() == 0 {
		return "", errors.New(errors.PhaseReceive, errors.KindBadDelimiter).
			At(at).
			Detail("expected a value").
			Build()
	}
	return out.String(), nil
}

func isLiteralByte(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b == '-' || b == '+' || b == '.':
		return true
	case b == 'E':
		return true
	}
	return false
}
