// Package filters defines the typed pre-filter surface shared by both
// retrieval backends. Every field is optional; the zero value matches
// everything.
package filters

// Filters narrows a retrieval attempt. Zero-valued fields are ignored.
type Filters struct {
	// Category restricts results to one document category (tag match).
	Category string
	// SourcePattern restricts results to sources with this prefix
	// (e.g. "agenzia_entrate").
	SourcePattern string
	// TitlePatterns are OR'd title predicates, typically synthesized from a
	// document reference ("circolare n. 64", "n. 64").
	TitlePatterns []string
	// Year restricts results to one publication year. Zero means any year.
	Year int
	// Topics restricts results to documents tagged with any of these topics.
	Topics []string
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return f.Category == "" && f.SourcePattern == "" &&
		len(f.TitlePatterns) == 0 && f.Year == 0 && len(f.Topics) == 0
}

// WithoutSource returns a copy with the source pattern cleared.
func (f Filters) WithoutSource() Filters {
	f.SourcePattern = ""
	return f
}

// WithTitlePatterns returns a copy with the title predicates replaced.
func (f Filters) WithTitlePatterns(patterns []string) Filters {
	f.TitlePatterns = patterns
	return f
}
