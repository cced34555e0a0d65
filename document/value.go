package document

import "github.com/cargoline/cargoline/cargo"

// Value is one scalar leaf. It keeps the wire kind it was created with,
// so a number imported from JSON is still a number when it leaves, and
// text imported from XML stays quoted.
type Value struct {
	kind cargo.WireKind
	text string
	null bool
}

// Text returns a string-kinded value.
func Text(s string) *Value {
	return &Value{kind: cargo.WireText, text: s}
}

// Number returns a number-kinded value carrying its literal text.
func Number(lit string) *Value {
	return &Value{kind: cargo.WireNumber, text: lit}
}

// Bool returns a boolean-kinded value.
func Bool(v bool) *Value {
	text := "false"
	if v {
		text = "true"
	}
	return &Value{kind: cargo.WireBoolean, text: text}
}

// Null returns the absent value.
func Null() *Value {
	return &Value{kind: cargo.WireNone, null: true}
}

// String returns the scalar's literal text.
func (v *Value) String() string { return v.text }

func (v *Value) Form() cargo.Form { return cargo.FormItem }
func (v *Value) Default() {
	v.text = ""
	v.null = false
}
func (v *Value) Validate() bool { return true }
func (v *Value) IsNull() bool { return v.null }
func (v *Value) Preferred() cargo.WireKind { return v.kind }

func (v *Value) Write() (string, bool) {
	if v.null {
		return "", false
	}
	return v.text, true
}

func (v *Value) Read(text string) bool {
	v.text = text
	v.null = false
	if v.kind == cargo.WireNone {
		v.kind = cargo.WireText
	}
	return true
}
