package retrieval

import (
	"math"
	"sort"
	"time"

	"github.com/tributa-cloud/tributa/internal/domain/analysis"
	"github.com/tributa-cloud/tributa/internal/domain/ranking"
	"github.com/tributa-cloud/tributa/internal/domain/search/candidate"
	"github.com/tributa-cloud/tributa/internal/domain/search/scored"
)

// scoreEpsilon floors the normalization maxima to avoid division by zero.
const scoreEpsilon = 1e-9

// queryTypeBias is added to one effective weight depending on the query
// type: lexical for definitional, recency for temporal, vector for
// conceptual. The total is deliberately NOT re-normalized back to 1.0 —
// this is a tunable bias, not a bug.
const queryTypeBias = 0.10

// scoreCandidates normalizes component scores, fuses them with the
// configured weights and the tier multiplier, and returns the ranked list:
// sorted by combined score descending, filtered by threshold, truncated to
// limit, with 1-based ranks. Deterministic and side-effect-free.
func scoreCandidates(
	cands []candidate.Candidate,
	cfg *ranking.Config,
	qt analysis.QueryType,
	threshold float64,
	limit int,
	now time.Time,
) []scored.Result {
	if len(cands) == 0 {
		return nil
	}

	maxLex, maxVec := scoreEpsilon, scoreEpsilon
	for i := range cands {
		if s := cands[i].LexicalScore; s != nil && *s > maxLex {
			maxLex = *s
		}
		if s := cands[i].VectorScore; s != nil && *s > maxVec {
			maxVec = *s
		}
	}

	wLex := cfg.Weights().Lexical()
	wVec := cfg.Weights().Vector()
	wRec := cfg.Weights().Recency()
	wQua := cfg.Weights().Quality()
	wAut := cfg.Weights().Authority()

	switch qt {
	case analysis.Definitional:
		wLex += queryTypeBias
	case analysis.Recent:
		wRec += queryTypeBias
	case analysis.Conceptual:
		wVec += queryTypeBias
	case analysis.Default:
	}

	results := make([]scored.Result, 0, len(cands))
	for i := range cands {
		c := cands[i]
		if !c.HasScore() {
			// No backend score means no retrieval evidence; recency and
			// authority alone never rank a document.
			continue
		}

		var normLex, normVec float64
		if c.LexicalScore != nil {
			normLex = *c.LexicalScore / maxLex
		}
		if c.VectorScore != nil {
			normVec = *c.VectorScore / maxVec
		}

		rec := recencyScore(&c, cfg.DecayHalfLifeDays(), now)
		qua := qualityScore(c.TextQuality)
		aut := cfg.AuthorityBoost(c.Source)

		combined := wLex*normLex + wVec*normVec + wRec*rec + wQua*qua + wAut*aut

		tier := c.Tier
		if tier == 0 {
			tier = cfg.SourceTier(c.Source)
		}
		combined *= ranking.TierMultiplier(tier)

		if combined < threshold {
			continue
		}

		results = append(results, scored.Result{
			Candidate:   c,
			NormLexical: normLex,
			NormVector:  normVec,
			Recency:     rec,
			Quality:     qua,
			Authority:   aut,
			Combined:    combined,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Combined != results[j].Combined {
			return results[i].Combined > results[j].Combined
		}
		ti, tj := results[i].Candidate.UpdatedAt, results[j].Candidate.UpdatedAt
		switch {
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.After(*tj)
		case ti != nil && tj == nil:
			return true
		case ti == nil && tj != nil:
			return false
		}
		return results[i].Candidate.ID < results[j].Candidate.ID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	for i := range results {
		results[i].Rank = i + 1
	}

	return results
}

// recencyScore is exp(-ageInDays / halfLife) clamped to [0,1]. An unknown
// timestamp yields 0: no bonus, not a penalty. UpdatedAt wins over
// PublishedAt when both are present.
func recencyScore(c *candidate.Candidate, halfLifeDays float64, now time.Time) float64 {
	ts := c.UpdatedAt
	if ts == nil {
		ts = c.PublishedAt
	}
	if ts == nil {
		return 0
	}

	ageDays := now.Sub(*ts).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}

	s := math.Exp(-ageDays / halfLifeDays)
	return clamp01(s)
}

// qualityScore clamps text quality to [0,1]; an unassessed document gets a
// neutral 0.5.
func qualityScore(q *float64) float64 {
	if q == nil {
		return 0.5
	}
	return clamp01(*q)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
