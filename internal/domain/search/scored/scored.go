// Package scored defines the ranked output of the hybrid scorer.
package scored

import "github.com/tributa-cloud/tributa/internal/domain/search/candidate"

// Result is a candidate with normalized component scores and a final rank.
// Within one result list Combined is non-increasing in Rank order.
type Result struct {
	Candidate candidate.Candidate

	// Normalized component scores, each in [0,1].
	NormLexical float64
	NormVector  float64
	Recency     float64
	Quality     float64
	Authority   float64

	// Combined is the weighted, tier-adjusted final score.
	Combined float64
	// Rank is 1-based, assigned after the final sort.
	Rank int
	// Conflict marks a potential collision with a cached reference answer.
	// Only set by the review flow.
	Conflict bool
}
