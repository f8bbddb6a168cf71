// Package analyze classifies queries and extracts structured retrieval hints.
// The analyzer is pure: no I/O, no backend calls, O(query length) per pass.
package analyze

import (
	"strings"

	"github.com/tributa-cloud/tributa/internal/domain/analysis"
	"github.com/tributa-cloud/tributa/internal/domain/search/request"
	"github.com/tributa-cloud/tributa/internal/lexicon"
)

// Analyzer extracts query type, topics, organization filter, document
// reference and aggregation intent from a query.
type Analyzer struct {
	synonymBudget int
}

// New creates an analyzer with the default synonym budget.
func New() *Analyzer {
	return &Analyzer{synonymBudget: lexicon.MaxSynonymsPerTopic}
}

// Analyze runs every extraction pass over the query. hint is the optional
// output of the external normalizer; nil means "no hint".
func (a *Analyzer) Analyze(q *request.Query, hint *analysis.NormalizedReference) analysis.Result {
	text := q.Text()

	topics := lexicon.MatchTopics(text)
	tags := make([]string, 0, len(topics))
	for _, t := range topics {
		tags = append(tags, t.Tag)
	}

	months := lexicon.MatchMonths(text)
	year := extractYear(text)

	res := analysis.Result{
		QueryType:        classify(text, year, months),
		Topics:           tags,
		OrgSourcePattern: extractOrganization(text, q.Facts()),
		DocRef:           extractDocRef(text, months, hint),
		IsAggregation:    lexicon.HasAggregationIntent(text),
		Months:           months,
		Year:             year,
		SearchTerms:      a.buildSearchTerms(text, topics),
	}
	return res
}

// extractOrganization runs the two-pass organization match: first over the
// raw text, then over the canonical facts, which carry upstream-corrected
// typos the raw text may hide.
func extractOrganization(text string, facts []string) string {
	if org, ok := lexicon.MatchOrganization(text); ok {
		return org.SourcePrefix
	}
	if len(facts) > 0 {
		if org, ok := lexicon.MatchOrganization(strings.Join(facts, " ")); ok {
			return org.SourcePrefix
		}
	}
	return ""
}

// buildSearchTerms prepares the lexical query: year tokens are stripped
// (keyword backends do not index standalone numbers usefully) and each
// matched topic contributes a bounded number of synonym keywords to improve
// recall.
func (a *Analyzer) buildSearchTerms(text string, topics []lexicon.Topic) string {
	tokens := lexicon.Tokenize(text)
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isYearToken(tok) {
			continue
		}
		kept = append(kept, tok)
	}

	for _, t := range topics {
		budget := a.synonymBudget
		for _, syn := range t.Synonyms {
			if budget == 0 {
				break
			}
			kept = append(kept, syn)
			budget--
		}
	}

	return strings.Join(kept, " ")
}

// extractYear returns the first standalone 4-digit year in the text,
// zero when none is present.
func extractYear(text string) int {
	for _, tok := range lexicon.Tokenize(text) {
		if isYearToken(tok) {
			return yearValue(tok)
		}
	}
	return 0
}

func isYearToken(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return tok[0] == '1' && tok[1] == '9' || tok[0] == '2' && tok[1] == '0'
}

func yearValue(tok string) int {
	v := 0
	for i := 0; i < len(tok); i++ {
		v = v*10 + int(tok[i]-'0')
	}
	return v
}
