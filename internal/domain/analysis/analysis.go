// Package analysis holds the output types of the query analyzer.
package analysis

import "fmt"

// QueryType classifies a query for weight biasing.
type QueryType string

const (
	// Definitional is a "what is X" query.
	Definitional QueryType = "definitional"
	// Recent is a temporally anchored query (explicit year, month+year,
	// "latest" phrasing).
	Recent QueryType = "recent"
	// Conceptual is a "how/why does X work" query.
	Conceptual QueryType = "conceptual"
	// Default is everything else.
	Default QueryType = "default"
)

// DocumentReference is a structured hint extracted from the query, e.g.
// "circolare n. 24 del 2024". Number is always non-empty.
type DocumentReference struct {
	docType string
	number  string
	year    int
	month   string
}

// NewDocumentReference builds a reference. Number is mandatory; docType,
// year and month may be zero-valued.
func NewDocumentReference(docType, number string, year int, month string) (DocumentReference, error) {
	if number == "" {
		return DocumentReference{}, fmt.Errorf("document reference number is required")
	}
	return DocumentReference{docType: docType, number: number, year: year, month: month}, nil
}

// Type returns the document type ("circolare", "risoluzione", ...). May be empty.
func (r *DocumentReference) Type() string { return r.docType }

// Number returns the document number. Never empty.
func (r *DocumentReference) Number() string { return r.number }

// Year returns the referenced year, zero when absent.
func (r *DocumentReference) Year() int { return r.year }

// Month returns the month name found near the reference, empty when absent.
func (r *DocumentReference) Month() string { return r.month }

// NormalizedReference is the best-effort output of the external query
// normalizer. Zero-valued fields mean "the normalizer was silent".
type NormalizedReference struct {
	Type     string
	Number   string
	Year     int
	Keywords []string
}

// Result is the full analyzer output for one query.
type Result struct {
	QueryType QueryType
	// Topics are the matched topic tags, used both as filters and for
	// synonym expansion.
	Topics []string
	// OrgSourcePattern is the source prefix of the single matched
	// organization, empty when none matched.
	OrgSourcePattern string
	// DocRef is the extracted document reference, nil when absent.
	DocRef *DocumentReference
	// IsAggregation marks "list/summarize all" intent.
	IsAggregation bool
	// Months are the distinct month names mentioned, in calendar order.
	Months []string
	// Year is the standalone year mentioned in the query, zero when absent.
	// Year tokens are stripped from SearchTerms but kept here as a filter.
	Year int
	// SearchTerms is the query text prepared for lexical search: year tokens
	// stripped, topic synonyms appended.
	SearchTerms string
}
