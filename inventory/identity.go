package inventory

// Identity is a field's wire name plus an optional namespace group.
type Identity struct {
	Name  string
	Group string
}

// Equal reports whether both name and group match.
func (id Identity) Equal(other Identity) bool {
	return id.Name == other.Name && id.Group == other.Group
}

// Anonymous reports whether the identity carries no wire name. Anonymous
// entries stand in for unnamed repeating content such as array elements.
func (id Identity) Anonymous() bool {
	return id.Name == ""
}

// String renders the qualified wire name.
func (id Identity) String() string {
	if id.Group == "" {
		return id.Name
	}
	return id.Group + ":" + id.Name
}
