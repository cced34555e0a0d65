// Package xml implements the XML transport of the serialization engine.
//
// The importer is a recursive-descent state machine over start/empty/end
// tags, attributes, character data, CDATA sections, comments, and
// processing instructions. Attributes are lexically attached to a start
// tag, so the attributes-first requirement is structural rather than
// optional: every start tag's attribute string is applied against the
// current inventory before the tag's children are transcoded, and
// FinaliseAttributes runs in between. The outcome matches the JSON
// two-pass protocol, without needing a rewind.
//
// The entity glossary covers the five named references (lt, gt, amp, quot,
// apos) plus decimal and hexadecimal character references; unknown entities
// are fatal.
package xml
