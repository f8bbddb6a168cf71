// Package retrieval implements the hybrid retrieval and ranking engine:
// query analysis, concurrent dual-backend search, score fusion and the
// fallback cascade that guarantees a best-effort result set.
package retrieval

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tributa-cloud/tributa/internal/domain/analysis"
	"github.com/tributa-cloud/tributa/internal/domain/ranking"
	"github.com/tributa-cloud/tributa/internal/domain/search/request"
	"github.com/tributa-cloud/tributa/internal/domain/search/scored"
	"github.com/tributa-cloud/tributa/internal/metrics"
	"github.com/tributa-cloud/tributa/internal/usecase/analyze"
)

// normalizerTimeout bounds the best-effort LLM normalizer call so a slow
// provider cannot stall retrieval.
const normalizerTimeout = 3 * time.Second

// Service is the retrieval orchestrator. It owns the immutable ranking
// configuration and coordinates analyzer, cascade and scorer. Safe for
// concurrent use.
type Service struct {
	analyzer   *analyze.Analyzer
	lexical    LexicalSearcher
	vector     VectorSearcher
	normalizer Normalizer
	cfg        *ranking.Config
	logger     *zap.Logger
	clock      func() time.Time
}

// New creates a retrieval service. vector may be nil: the engine then runs
// lexical-only.
func New(
	analyzer *analyze.Analyzer,
	lexical LexicalSearcher,
	vector VectorSearcher,
	cfg *ranking.Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		analyzer: analyzer,
		lexical:  lexical,
		vector:   vector,
		cfg:      cfg,
		logger:   logger,
	}
}

// WithNormalizer attaches the optional external query normalizer.
func (s *Service) WithNormalizer(n Normalizer) *Service {
	s.normalizer = n
	return s
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// RetrieveTopK returns the top-k knowledge items for the query. It never
// returns an error: backend failures are logged and degrade to fewer (or
// zero) results, and an empty slice means the cascade was exhausted — a
// valid "no confident answer" outcome, not a fault.
func (s *Service) RetrieveTopK(ctx context.Context, q *request.Query) []scored.Result {
	if q == nil || strings.TrimSpace(q.Text()) == "" {
		return nil
	}

	start := s.now()

	hint := s.normalize(ctx, q)
	an := s.analyzer.Analyze(q, hint)

	results := s.runCascade(ctx, q, &an)

	outcome := "hit"
	if len(results) == 0 {
		outcome = "empty"
	}
	metrics.SearchesTotal.WithLabelValues(outcome).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	s.logger.Debug("retrieval complete",
		zap.String("query_type", string(an.QueryType)),
		zap.Strings("topics", an.Topics),
		zap.Bool("aggregation", an.IsAggregation),
		zap.Int("results", len(results)),
	)

	return results
}

// normalize asks the external normalizer for a structured document
// reference. Best-effort: any failure or timeout is swallowed and treated
// as "no hint".
func (s *Service) normalize(ctx context.Context, q *request.Query) *analysis.NormalizedReference {
	if s.normalizer == nil {
		return nil
	}

	nctx, cancel := context.WithTimeout(ctx, normalizerTimeout)
	defer cancel()

	hint, err := s.normalizer.Normalize(nctx, q.Text(), q.ConvoSummary())
	if err != nil {
		s.logger.Debug("query normalizer unavailable", zap.Error(err))
		return nil
	}
	return hint
}
