// Package request defines the validated query value object.
package request

import (
	"fmt"
	"strings"

	"github.com/tributa-cloud/tributa/internal/domain"
	"github.com/tributa-cloud/tributa/internal/domain/search/filters"
	"github.com/tributa-cloud/tributa/internal/domain/search/mode"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length.
	MaxQueryLength = 2048
	DefaultTopK    = 8
	MaxTopK        = 50
	MaxFacts       = 20
)

// Query is a validated, immutable retrieval request.
type Query struct {
	text         string
	facts        []string
	convoSummary string
	topK         int
	searchMode   mode.Mode
	filters      filters.Filters
}

// New validates and normalizes query parameters.
// Defaults: mode=hybrid, topK=8.
func New(
	text string,
	facts []string,
	convoSummary string,
	topK int,
	m mode.Mode,
	f filters.Filters,
) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, domain.ErrEmptyQuery
	}
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Query{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if len(facts) > MaxFacts {
		facts = facts[:MaxFacts]
	}

	return Query{
		text:         text,
		facts:        facts,
		convoSummary: convoSummary,
		topK:         topK,
		searchMode:   m,
		filters:      f,
	}, nil
}

// Text returns the raw query text.
func (q *Query) Text() string { return q.text }

// Facts returns the canonical facts pre-extracted upstream. May be nil.
func (q *Query) Facts() []string { return q.facts }

// ConvoSummary returns the recent-conversation summary. May be empty.
func (q *Query) ConvoSummary() string { return q.convoSummary }

// TopK returns the requested result count.
func (q *Query) TopK() int { return q.topK }

// Mode returns the retrieval strategy.
func (q *Query) Mode() mode.Mode { return q.searchMode }

// Filters returns the caller-supplied pre-filters.
func (q *Query) Filters() filters.Filters { return q.filters }
