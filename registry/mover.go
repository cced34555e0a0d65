package registry

// Mover is a Handler that hands the resolved delegate to its owner once
// the element has fully arrived. The owner keeps the concrete instance;
// the Mover itself is a disposable receiver.
type Mover struct {
	Handler

	// Accept takes ownership of the populated delegate. Returning false
	// fails object validation, which the transport reports as an invalid
	// object.
	Accept func(Tagged) bool
}

func (m *Mover) Validate() bool {
	if !m.Handler.Validate() {
		return false
	}
	if m.Accept == nil {
		return true
	}
	return m.Accept(m.delegate)
}
