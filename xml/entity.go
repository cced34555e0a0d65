package xml

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cargoline/cargoline/errors"
)

// Named entities recognized on input. XML 1.0 predefines exactly five.
var entityTable = map[string]rune{
	"lt":   '<',
	"gt":   '>',
	"amp":  '&',
	"quot": '"',
	"apos": '\'',
}

// decodeEntity resolves the text between '&' and ';' to a rune. Character
// references come in decimal (&#60;) and hexadecimal (&#x3C;) flavours;
// everything else must be one of the named entities.
func decodeEntity(name string, at errors.Position) (rune, error) {
	if strings.HasPrefix(name, "#") {
		body := name[1:]
		base := 10
		if strings.HasPrefix(body, "x") || strings.HasPrefix(body, "X") {
			body = body[1:]
			base = 16
		}
		n, err := strconv.ParseUint(body, base, 32)
		if err != nil || !utf8.ValidRune(rune(n)) || n == 0 {
			return 0, errors.New(errors.PhaseReceive, errors.KindBadEncoding).
				At(at).
				Detail("invalid character reference &%s;", name).
				Build()
		}
		return rune(n), nil
	}
	r, ok := entityTable[name]
	if !ok {
		return 0, errors.New(errors.PhaseReceive, errors.KindBadEscape).
			At(at).
			Detail("unknown entity &%s;", name).
			Build()
	}
	return r, nil
}

// escapeText encodes character data for element content. The quote
// characters pass through untouched; only the markup-significant runes
// need references there.
func escapeText(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeAttr encodes an attribute value for emission between double
// quotes.
func escapeAttr(s string) string {
	if !strings.ContainsAny(s, "<>&\"\n\t") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		case '"':
			b.WriteString("&quot;")
		case '\n':
			b.WriteString("&#10;")
		case '\t':
			b.WriteString("&#9;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
