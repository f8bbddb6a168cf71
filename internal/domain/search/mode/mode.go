// Package mode defines the search strategy enum.
package mode

// Mode selects the retrieval strategy for a query.
type Mode string

const (
	// Hybrid combines lexical and vector retrieval (default).
	Hybrid Mode = "hybrid"
	// Lexical uses keyword retrieval only.
	Lexical Mode = "lexical"
	// Vector uses semantic retrieval only.
	Vector Mode = "vector"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case Hybrid, Lexical, Vector:
		return true
	default:
		return false
	}
}
