package xml

// Options tune the XML transport. The zero value imports leniently on
// cardinality, fails on unknown tags, and exports compact markup with no
// declaration.
type Options struct {
	// Tabbed indents nested elements with tabs on export. Implies
	// LineFeeds.
	Tabbed bool

	// LineFeeds terminates each element line on export.
	LineFeeds bool

	// Namespaces keeps namespace prefixes significant: tag and attribute
	// names are split on the first ':' into group and name, and export
	// re-qualifies names that carry a group.
	Namespaces bool

	// Prolog emits an xml declaration ahead of the root element on
	// export.
	Prolog bool

	// EveryEntryRequired makes export fail when any ledger entry has no
	// instance to send.
	EveryEntryRequired bool

	// SkipUnknown discards unrecognized tags and attributes on import
	// instead of failing.
	SkipUnknown bool

	// FailOnMissing makes required entries that never arrive an import
	// error, and required entries with nothing to send an export error.
	FailOnMissing bool
}

func (o Options) lineFeeds() bool {
	return o.LineFeeds || o.Tabbed
}
