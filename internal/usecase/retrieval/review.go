package retrieval

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tributa-cloud/tributa/internal/domain/search/request"
	"github.com/tributa-cloud/tributa/internal/domain/search/scored"
)

// Review re-ranking parameters.
const (
	reviewRecencyBoost  = 0.3
	reviewConflictBoost = 0.2
	reviewMaxResults    = 5
)

// FetchRecentChangesForReview reruns the hybrid search and keeps only items
// updated after max(now - thresholdDays, referenceTime), flagging candidates
// that collide with the cached reference answer (same category, overlapping
// topics, or explicit supersedes/rate-change tags). Results are re-ranked by
// combined + 0.3*recency + 0.2*conflict and capped at five, letting the
// caller reconcile a previously cached answer against newer content.
func (s *Service) FetchRecentChangesForReview(
	ctx context.Context,
	q *request.Query,
	referenceTime time.Time,
	thresholdDays int,
	referenceMeta map[string]string,
) []scored.Result {
	results := s.RetrieveTopK(ctx, q)
	if len(results) == 0 {
		return nil
	}

	cutoff := s.now().AddDate(0, 0, -thresholdDays)
	if referenceTime.After(cutoff) {
		cutoff = referenceTime
	}

	recent := results[:0]
	for _, r := range results {
		ts := r.Candidate.UpdatedAt
		if ts == nil || !ts.After(cutoff) {
			continue
		}
		r.Conflict = hasConflict(&r, referenceMeta)
		recent = append(recent, r)
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return reviewScore(&recent[i]) > reviewScore(&recent[j])
	})

	if len(recent) > reviewMaxResults {
		recent = recent[:reviewMaxResults]
	}

	// Fold the secondary score into Combined so the returned list keeps the
	// monotonicity contract, then re-rank.
	for i := range recent {
		recent[i].Combined = reviewScore(&recent[i])
		recent[i].Rank = i + 1
	}

	return recent
}

func reviewScore(r *scored.Result) float64 {
	s := r.Combined + reviewRecencyBoost*r.Recency
	if r.Conflict {
		s += reviewConflictBoost
	}
	return s
}

// hasConflict reports whether a candidate potentially collides with the
// cached reference answer described by meta.
func hasConflict(r *scored.Result, meta map[string]string) bool {
	c := &r.Candidate

	// Explicit change markers on the candidate always count.
	if _, ok := c.Metadata["supersedes"]; ok {
		return true
	}
	if tagsOverlap(c.Metadata["tags"], "rate-change,rate_change,supersedes") {
		return true
	}

	if len(meta) == 0 {
		return false
	}
	if cat := meta["category"]; cat != "" && strings.EqualFold(cat, c.Category) {
		return true
	}
	if tagsOverlap(c.Metadata["topics"], meta["topics"]) {
		return true
	}
	return false
}

// tagsOverlap reports whether two comma-separated tag lists share an entry.
func tagsOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	set := make(map[string]struct{})
	for _, t := range strings.Split(a, ",") {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			set[t] = struct{}{}
		}
	}
	for _, t := range strings.Split(b, ",") {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			if _, ok := set[t]; ok {
				return true
			}
		}
	}
	return false
}
