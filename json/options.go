package json

// Options configures one transport instance. The zero value is the strict
// compact configuration: no cosmetic whitespace, unknown names are fatal,
// missing required entries are tolerated.
type Options struct {
	// Tabbed indents nested scopes with tabs on export. Implies LineFeeds.
	Tabbed bool
	// LineFeeds terminates members with newlines on export.
	LineFeeds bool
	// Namespaces emits group-qualified member names (group:name).
	Namespaces bool
	// EveryEntryRequired treats every inventory entry as required.
	EveryEntryRequired bool
	// SkipUnknown diverts unmatched member names into a discard sink
	// instead of failing the call.
	SkipUnknown bool
	// FailOnMissing fails the call when a required entry never arrives
	// (import) or cannot be supplied (export).
	FailOnMissing bool
}

func (o Options) lineFeeds() bool {
	return o.LineFeeds || o.Tabbed
}
