package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tributa-cloud/tributa/internal/domain/analysis"
	"github.com/tributa-cloud/tributa/internal/domain/search/candidate"
	"github.com/tributa-cloud/tributa/internal/domain/search/filters"
	"github.com/tributa-cloud/tributa/internal/domain/search/mode"
	"github.com/tributa-cloud/tributa/internal/domain/search/request"
	"github.com/tributa-cloud/tributa/internal/domain/search/scored"
	"github.com/tributa-cloud/tributa/internal/lexicon"
	"github.com/tributa-cloud/tributa/internal/metrics"
)

// stage names the cascade states, in visiting order.
type stage string

const (
	stageStrict      stage = "strict_hybrid"
	stageRelaxed     stage = "relaxed_hybrid"
	stageDropOrg     stage = "drop_org_filter"
	stageNumeric     stage = "numeric_fallback"
	stageAggregation stage = "multi_month"
)

// overfetchFactor widens backend limits so the scorer has enough candidates
// to rank after threshold filtering.
const overfetchFactor = 3

// runCascade walks the fallback states until one yields a non-empty,
// above-threshold result set. Backend failures are logged and treated as
// zero rows for the failing backend; context expiry stops the walk and
// returns whatever was already scored.
func (s *Service) runCascade(ctx context.Context, q *request.Query, an *analysis.Result) []scored.Result {
	base := s.baseFilters(q, an)
	terms := an.SearchTerms
	depth := 0

	// Multi-month aggregation replaces the strict attempt entirely. The
	// branch is lexical-only, so vector-mode queries never take it.
	if an.IsAggregation && len(an.Months) >= 2 && q.Mode() != mode.Vector {
		depth++
		if results := s.attemptAggregation(ctx, q, an, base); len(results) > 0 {
			s.observeStage(stageAggregation, depth, true)
			return results
		}
		s.observeStage(stageAggregation, depth, false)
	} else {
		depth++
		if results, done := s.attemptHybrid(ctx, q, an, terms, MatchStrict, base, s.cfg.MinScore(), stageStrict); done || len(results) > 0 {
			s.observeStage(stageStrict, depth, len(results) > 0)
			return results
		}
		s.observeStage(stageStrict, depth, false)

		depth++
		if results, done := s.attemptHybrid(ctx, q, an, terms, MatchRelaxed, base, s.cfg.MinScore()/2, stageRelaxed); done || len(results) > 0 {
			s.observeStage(stageRelaxed, depth, len(results) > 0)
			return results
		}
		s.observeStage(stageRelaxed, depth, false)
	}

	if ctx.Err() != nil {
		return nil
	}

	// Drop the organization filter: strip org tokens from the terms and
	// clear the source pattern — the filter was too restrictive or wrong.
	// Both ports re-run with the widened filter set; the source filter
	// constrains the vector pre-filter too, so dropping it can surface
	// semantic matches the earlier states excluded.
	depth++
	dropTerms := lexicon.StripOrganizations(terms)
	dropFilters := base.WithoutSource()
	if results, done := s.attemptHybrid(ctx, q, an, dropTerms, MatchRelaxed, dropFilters, s.cfg.MinScore()/2, stageDropOrg); done || len(results) > 0 {
		s.observeStage(stageDropOrg, depth, len(results) > 0)
		return results
	}
	s.observeStage(stageDropOrg, depth, false)

	if ctx.Err() != nil {
		return nil
	}

	depth++
	results := s.attemptNumeric(ctx, q, an)
	s.observeStage(stageNumeric, depth, len(results) > 0)
	return results
}

// baseFilters merges the caller-supplied filters with everything the
// analyzer extracted: organization source pattern, document-reference title
// patterns, detected year and topic tags.
func (s *Service) baseFilters(q *request.Query, an *analysis.Result) filters.Filters {
	f := q.Filters()

	if f.SourcePattern == "" {
		f.SourcePattern = an.OrgSourcePattern
	}
	if len(f.TitlePatterns) == 0 && an.DocRef != nil {
		f = f.WithTitlePatterns(titlePatternsFromRef(an.DocRef))
	}
	if f.Year == 0 {
		if an.DocRef != nil && an.DocRef.Year() != 0 {
			f.Year = an.DocRef.Year()
		} else {
			f.Year = an.Year
		}
	}
	f.Topics = unionStrings(f.Topics, an.Topics)

	return f
}

// titlePatternsFromRef synthesizes OR'd title predicates from a document
// reference: "n. 24", "numero 24", "circolare 24", "24/2024".
func titlePatternsFromRef(ref *analysis.DocumentReference) []string {
	num := ref.Number()
	patterns := []string{
		fmt.Sprintf("n. %s", num),
		fmt.Sprintf("numero %s", num),
	}
	if t := ref.Type(); t != "" {
		patterns = append(patterns, fmt.Sprintf("%s %s", t, num))
	}
	if y := ref.Year(); y != 0 {
		patterns = append(patterns, fmt.Sprintf("%s/%d", num, y))
	}
	return patterns
}

// attemptHybrid runs one cascade state: the lexical and vector backends are
// queried concurrently with the same filter set and joined before scoring.
// done=true means the context expired and the cascade must stop.
func (s *Service) attemptHybrid(
	ctx context.Context,
	q *request.Query,
	an *analysis.Result,
	terms string,
	m MatchMode,
	f filters.Filters,
	threshold float64,
	st stage,
) (results []scored.Result, done bool) {
	fetchLimit := q.TopK() * overfetchFactor

	var (
		lexResults []candidate.Candidate
		vecResults []candidate.Candidate
	)

	g, gctx := errgroup.WithContext(ctx)

	if q.Mode() != mode.Vector && terms != "" {
		g.Go(func() error {
			cands, err := s.lexical.Search(gctx, terms, m, f, fetchLimit)
			if err != nil {
				s.logBackendFailure(st, "lexical", q, err)
				return nil // zero rows, cascade proceeds
			}
			lexResults = cands
			return nil
		})
	}

	if q.Mode() != mode.Lexical && s.vectorAvailable() {
		g.Go(func() error {
			cands, err := s.vectorSearch(gctx, q.Text(), f, fetchLimit)
			if err != nil {
				s.logBackendFailure(st, "vector", q, err)
				return nil
			}
			vecResults = cands
			return nil
		})
	}

	_ = g.Wait() // goroutines never return errors; this is a pure join

	merged := mergeCandidates(lexResults, vecResults)
	results = scoreCandidates(merged, s.cfg, an.QueryType, threshold, q.TopK(), s.now())

	if ctx.Err() != nil {
		// Deadline expired: stop the cascade, keep what was scored.
		return results, true
	}
	return results, false
}

// attemptAggregation handles "list everything for <month> and <month>": one
// relaxed lexical search per month with the sibling months stripped from
// the terms, deduplicated by id and concatenated. Months that find nothing
// do not fail the branch.
func (s *Service) attemptAggregation(
	ctx context.Context,
	q *request.Query,
	an *analysis.Result,
	f filters.Filters,
) []scored.Result {
	perMonth := make([][]candidate.Candidate, len(an.Months))

	g, gctx := errgroup.WithContext(ctx)
	for i, month := range an.Months {
		others := otherMonths(an.Months, month)
		terms := lexicon.StripMonths(an.SearchTerms, others)
		idx := i
		g.Go(func() error {
			cands, err := s.lexical.Search(gctx, terms, MatchRelaxed, f, q.TopK())
			if err != nil {
				s.logBackendFailure(stageAggregation, "lexical", q, err)
				return nil
			}
			perMonth[idx] = cands
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil
	}

	var all []candidate.Candidate
	for _, cands := range perMonth {
		all = append(all, cands...)
	}
	all = dedupeByID(all)
	if len(all) > q.TopK() {
		all = all[:q.TopK()]
	}

	// Aggregation results are returned whenever any month matched; the
	// threshold is not applied so a sparse month cannot sink the branch.
	return scoreCandidates(all, s.cfg, an.QueryType, 0, q.TopK(), s.now())
}

// attemptNumeric is the last resort: every standalone integer in the raw
// query becomes a synthesized title pattern set, retried without source or
// category filters. The first number that yields results wins. A cancelled
// loop returns nothing — partial numeric results are never surfaced.
func (s *Service) attemptNumeric(ctx context.Context, q *request.Query, an *analysis.Result) []scored.Result {
	// Lexical-only stage: vector-mode queries end at the hybrid states.
	if q.Mode() == mode.Vector {
		return nil
	}

	numbers := standaloneNumbers(q.Text())

	for _, num := range numbers {
		if ctx.Err() != nil {
			return nil
		}

		f := filters.Filters{TitlePatterns: []string{
			num,
			fmt.Sprintf("n. %s", num),
			fmt.Sprintf("numero %s", num),
		}}

		cands, err := s.lexical.Search(ctx, an.SearchTerms, MatchRelaxed, f, q.TopK()*overfetchFactor)
		if err != nil {
			s.logBackendFailure(stageNumeric, "lexical", q, err)
			continue
		}
		if len(cands) == 0 {
			continue
		}

		if ctx.Err() != nil {
			return nil
		}
		results := scoreCandidates(cands, s.cfg, an.QueryType, s.cfg.MinScore()/2, q.TopK(), s.now())
		if len(results) > 0 {
			return results
		}
	}

	return nil
}

// vectorSearch embeds the query text and runs the similarity search.
func (s *Service) vectorSearch(
	ctx context.Context, text string, f filters.Filters, limit int,
) ([]candidate.Candidate, error) {
	vec, err := s.vector.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	cands, err := s.vector.SearchSimilar(ctx, vec, f, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	return cands, nil
}

func (s *Service) vectorAvailable() bool {
	return s.vector != nil && s.vector.Available()
}

func (s *Service) logBackendFailure(st stage, backend string, q *request.Query, err error) {
	s.logger.Warn("retrieval backend failure",
		zap.String("stage", string(st)),
		zap.String("backend", backend),
		zap.String("query", q.Text()),
		zap.Error(err),
	)
	metrics.BackendFailuresTotal.WithLabelValues(string(st), backend).Inc()
}

func (s *Service) observeStage(st stage, depth int, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	metrics.CascadeStageTotal.WithLabelValues(string(st), outcome).Inc()
	if hit {
		metrics.FallbackDepth.Observe(float64(depth))
	}
}

// standaloneNumbers extracts every all-digit token (years excluded) from
// the raw query, first occurrence order, no duplicates.
func standaloneNumbers(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range lexicon.Tokenize(text) {
		if !isAllDigits(tok) || isYear(tok) {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func isAllDigits(tok string) bool {
	if tok == "" || len(tok) > 6 {
		return false
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return true
}

func isYear(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	return (tok[0] == '1' && tok[1] == '9') || (tok[0] == '2' && tok[1] == '0')
}

func otherMonths(all []string, keep string) []string {
	out := make([]string, 0, len(all)-1)
	for _, m := range all {
		if m != keep {
			out = append(out, m)
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// now is indirected for deterministic scoring in tests.
func (s *Service) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}
