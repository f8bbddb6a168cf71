// Package knowledge adapts the FT index over the tax/legal knowledge base to
// the retrieval ports: BM25 text search for keyword retrieval, KNN for
// semantic retrieval.
package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tributa-cloud/tributa/internal/db"
	"github.com/tributa-cloud/tributa/internal/domain"
	"github.com/tributa-cloud/tributa/internal/domain/search/candidate"
	"github.com/tributa-cloud/tributa/internal/domain/search/filters"
	"github.com/tributa-cloud/tributa/internal/usecase/retrieval"
)

// IndexName is the FT index over the knowledge base hashes.
const IndexName = "tributa-kb-idx"

// KeyPrefix is the hash key prefix covered by the index.
const KeyPrefix = domain.KeyPrefix + "kb:"

// HNSW build parameters for the embedding field.
const (
	hnswM           = 16
	hnswEFConstruct = 200
)

// returnFields is the fixed candidate projection requested from FT.SEARCH.
var returnFields = []string{
	"title", "content", "category", "source", "topics",
	"year", "updated_at", "published_at", "quality", "tier",
	"supersedes", "tags",
}

// Repo implements both retrieval ports over one FT index. A nil embedder
// disables the vector port; the lexical port always works.
type Repo struct {
	store    db.Searcher
	embedder domain.Embedder
}

// Compile-time checks: Repo satisfies both retrieval ports.
var (
	_ retrieval.LexicalSearcher = (*Repo)(nil)
	_ retrieval.VectorSearcher  = (*Repo)(nil)
)

// New creates a knowledge repository. embedder may be nil.
func New(store db.Searcher, embedder domain.Embedder) *Repo {
	return &Repo{store: store, embedder: embedder}
}

// Search runs a BM25 text search over title and content.
func (r *Repo) Search(
	ctx context.Context, terms string, m retrieval.MatchMode,
	f filters.Filters, limit int,
) ([]candidate.Candidate, error) {
	expr, err := buildExpression(f)
	if err != nil {
		return nil, fmt.Errorf("build filters: %w", err)
	}

	res, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:     IndexName,
		Terms:         terms,
		Or:            m == retrieval.MatchRelaxed,
		TitlePatterns: f.TitlePatterns,
		Filters:       expr,
		TopK:          limit,
		ReturnFields:  returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	cands := make([]candidate.Candidate, 0, len(res.Entries))
	for _, e := range res.Entries {
		c := parseCandidate(e)
		score := e.Score
		c.LexicalScore = &score
		cands = append(cands, c)
	}
	return cands, nil
}

// Available reports whether the semantic port can serve queries.
func (r *Repo) Available() bool {
	return r.embedder != nil
}

// Embed vectorizes the query text via the configured embedding provider.
func (r *Repo) Embed(ctx context.Context, text string) ([]float32, error) {
	if r.embedder == nil {
		return nil, domain.ErrVectorSearchUnavailable
	}
	res, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return res.Embedding, nil
}

// SearchSimilar runs a KNN similarity search. Title patterns are a lexical
// concern and do not constrain the vector side.
func (r *Repo) SearchSimilar(
	ctx context.Context, vector []float32, f filters.Filters, limit int,
) ([]candidate.Candidate, error) {
	expr, err := buildExpression(f)
	if err != nil {
		return nil, fmt.Errorf("build filters: %w", err)
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Filters:      expr,
		Vector:       vector,
		K:            limit,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	cands := make([]candidate.Candidate, 0, len(res.Entries))
	for _, e := range res.Entries {
		c := parseCandidate(e)
		score := e.Score
		c.VectorScore = &score
		cands = append(cands, c)
	}
	return cands, nil
}

// buildExpression translates the domain filters into FT pre-filter
// conditions: exact tags for category, a prefix tag for the source pattern,
// a numeric range for the year and a should-group over topic tags.
func buildExpression(f filters.Filters) (db.Expression, error) {
	if f.IsEmpty() {
		return db.Expression{}, nil
	}

	var must, should []db.Condition

	if f.Category != "" {
		c, err := db.NewMatch("category", f.Category)
		if err != nil {
			return db.Expression{}, err
		}
		must = append(must, c)
	}
	if f.SourcePattern != "" {
		c, err := db.NewPrefixMatch("source", f.SourcePattern)
		if err != nil {
			return db.Expression{}, err
		}
		must = append(must, c)
	}
	if f.Year != 0 {
		year := float64(f.Year)
		r, err := db.NewRangeFilter(nil, &year, nil, &year)
		if err != nil {
			return db.Expression{}, err
		}
		c, err := db.NewRange("year", r)
		if err != nil {
			return db.Expression{}, err
		}
		must = append(must, c)
	}
	for _, topic := range f.Topics {
		c, err := db.NewMatch("topics", topic)
		if err != nil {
			return db.Expression{}, err
		}
		should = append(should, c)
	}

	return db.NewExpression(must, should, nil)
}

// parseCandidate maps an FT result entry onto the domain candidate. Unknown
// or malformed fields degrade to their zero values; extra fields survive in
// Metadata for the review conflict checks.
func parseCandidate(e db.SearchEntry) candidate.Candidate {
	c := candidate.Candidate{
		ID:       e.Key,
		Title:    e.Fields["title"],
		Content:  e.Fields["content"],
		Category: e.Fields["category"],
		Source:   e.Fields["source"],
	}

	c.UpdatedAt = parseUnix(e.Fields["updated_at"])
	c.PublishedAt = parseUnix(e.Fields["published_at"])

	if s := e.Fields["quality"]; s != "" {
		if q, err := strconv.ParseFloat(s, 64); err == nil {
			c.TextQuality = &q
		}
	}
	if s := e.Fields["tier"]; s != "" {
		if t, err := strconv.Atoi(s); err == nil {
			c.Tier = t
		}
	}

	meta := make(map[string]string)
	for _, k := range []string{"topics", "supersedes", "tags"} {
		if v, ok := e.Fields[k]; ok && v != "" {
			meta[k] = v
		}
	}
	if len(meta) > 0 {
		c.Metadata = meta
	}

	return c
}

func parseUnix(s string) *time.Time {
	if s == "" {
		return nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
