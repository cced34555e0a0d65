package document

import "github.com/cargoline/cargoline/cargo"

// Node is the shape-agnostic receiver: the importer tells it what kind of
// token arrived and the Node becomes the matching concrete value. It
// retains what it resolved to, so a Node works as the root receiver for a
// document of unknown shape.
type Node struct {
	resolved cargo.Cargo
}

// Cargo returns what the Node resolved to during import, or nil when
// nothing arrived.
func (n *Node) Cargo() cargo.Cargo { return n.resolved }

// Morph commits the Node to the incoming token's shape.
func (n *Node) Morph(k cargo.WireKind) cargo.Cargo {
	switch k {
	case cargo.WireComposite:
		n.resolved = NewObject()
	case cargo.WireSequence:
		n.resolved = NewArray()
	case cargo.WireNone:
		n.resolved = Null()
	default:
		n.resolved = &Value{kind: k}
	}
	return n.resolved
}

func (n *Node) Form() cargo.Form {
	if n.resolved == nil {
		return cargo.FormItem
	}
	return n.resolved.Form()
}

func (n *Node) Default() { n.resolved = nil }

func (n *Node) Validate() bool {
	return n.resolved != nil && n.resolved.Validate()
}

func (n *Node) IsNull() bool {
	return n.resolved == nil || n.resolved.IsNull()
}

func (n *Node) Preferred() cargo.WireKind {
	if n.resolved == nil {
		return cargo.WireNone
	}
	return n.resolved.Preferred()
}
