package retrieval

import "github.com/tributa-cloud/tributa/internal/domain/search/candidate"

// mergeCandidates unions the lexical and vector result sets by document id.
// When a document appears in both, the lexical entry is kept and the vector
// score is attached to it, so both raw scores survive into scoring.
// Lexical-order first, vector-only entries appended in backend order.
func mergeCandidates(lex, vec []candidate.Candidate) []candidate.Candidate {
	merged := make([]candidate.Candidate, 0, len(lex)+len(vec))
	byID := make(map[string]int, len(lex))

	for _, c := range lex {
		if _, ok := byID[c.ID]; ok {
			continue
		}
		byID[c.ID] = len(merged)
		merged = append(merged, c)
	}

	for _, c := range vec {
		if idx, ok := byID[c.ID]; ok {
			fillMissing(&merged[idx], &c)
			continue
		}
		byID[c.ID] = len(merged)
		merged = append(merged, c)
	}

	return merged
}

// fillMissing copies the vector score and any field the lexical entry lacks.
func fillMissing(dst, src *candidate.Candidate) {
	if dst.VectorScore == nil {
		dst.VectorScore = src.VectorScore
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Content == "" {
		dst.Content = src.Content
	}
	if dst.Category == "" {
		dst.Category = src.Category
	}
	if dst.Source == "" {
		dst.Source = src.Source
	}
	if dst.UpdatedAt == nil {
		dst.UpdatedAt = src.UpdatedAt
	}
	if dst.PublishedAt == nil {
		dst.PublishedAt = src.PublishedAt
	}
	if dst.TextQuality == nil {
		dst.TextQuality = src.TextQuality
	}
	if dst.Tier == 0 {
		dst.Tier = src.Tier
	}
}

// dedupeByID removes duplicate ids preserving first occurrence. Used by the
// multi-month aggregation branch when concatenating per-month result sets.
func dedupeByID(cands []candidate.Candidate) []candidate.Candidate {
	seen := make(map[string]struct{}, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
