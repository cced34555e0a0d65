// Package document models wire content with no schema of its own: a tree
// of dynamically-shaped values that any transport can fill and any
// transport can drain. It is the bridge for format conversion: import a
// JSON document into a Node, export the Node as XML, and the shapes carry
// over.
//
// Object grows its inventory as fields arrive and promotes a field to
// repeating when the markup insists. Array is the anonymous collection.
// Value holds one scalar together with the wire kind it arrived as, so
// numbers and booleans survive a round trip unquoted.
package document
