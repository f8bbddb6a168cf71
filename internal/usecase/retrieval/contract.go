package retrieval

import (
	"context"

	"github.com/tributa-cloud/tributa/internal/domain/analysis"
	"github.com/tributa-cloud/tributa/internal/domain/search/candidate"
	"github.com/tributa-cloud/tributa/internal/domain/search/filters"
)

// MatchMode selects how the lexical backend combines query terms.
type MatchMode string

const (
	// MatchStrict requires every term (AND).
	MatchStrict MatchMode = "strict"
	// MatchRelaxed accepts any term (OR).
	MatchRelaxed MatchMode = "relaxed"
)

// LexicalSearcher is the keyword retrieval port.
type LexicalSearcher interface {
	Search(
		ctx context.Context, terms string, m MatchMode,
		f filters.Filters, limit int,
	) ([]candidate.Candidate, error)
}

// VectorSearcher is the semantic retrieval port. An unavailable vector
// backend is not an error: the engine degrades to lexical-only.
type VectorSearcher interface {
	// Available reports whether the backend can serve similarity queries.
	Available() bool

	Embed(ctx context.Context, text string) ([]float32, error)

	SearchSimilar(
		ctx context.Context, vector []float32,
		f filters.Filters, limit int,
	) ([]candidate.Candidate, error)
}

// Normalizer is the optional, best-effort external query normalizer
// (typically an LLM call). Failures are swallowed and treated as "no hint".
type Normalizer interface {
	Normalize(ctx context.Context, text, convoSummary string) (*analysis.NormalizedReference, error)
}
