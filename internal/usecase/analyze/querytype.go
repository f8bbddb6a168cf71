package analyze

import (
	"strings"

	"github.com/tributa-cloud/tributa/internal/domain/analysis"
	"github.com/tributa-cloud/tributa/internal/lexicon"
)

// Classification phrase tables. Matched as substrings of the lowercased
// query, in priority order: definitional, recent, conceptual.
var (
	definitionalPhrases = []string{
		"cos'è", "cos è", "cosa è", "che cos", "cosa si intende",
		"cosa significa", "definizione di", "what is", "meaning of",
		"che significa",
	}

	recencyPhrases = []string{
		"ultime", "ultimi", "ultima", "ultimo", "novità", "più recente",
		"recenti", "appena pubblicat", "latest", "most recent", "newest",
	}

	conceptualPhrases = []string{
		"come funziona", "come si", "come viene", "in che modo", "perché",
		"per quale motivo", "how does", "how do", "how is", "why",
	}
)

// recentYearMin..recentYearMax is the explicit-year window that marks a
// query as temporal.
const (
	recentYearMin = 2024
	recentYearMax = 2029
)

// classify assigns the query type. First match wins: definitional, then
// recent/temporal, then conceptual; everything else is Default.
func classify(text string, year int, months []string) analysis.QueryType {
	lower := strings.ToLower(text)

	if containsAny(lower, definitionalPhrases) {
		return analysis.Definitional
	}

	if year >= recentYearMin && year <= recentYearMax {
		return analysis.Recent
	}
	if year > 0 && len(months) > 0 {
		return analysis.Recent
	}
	if containsAny(lower, recencyPhrases) || hasNewToken(lower) {
		return analysis.Recent
	}

	if containsAny(lower, conceptualPhrases) {
		return analysis.Conceptual
	}

	return analysis.Default
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// hasNewToken matches "new"/"nuova"/"nuove"/"nuovo" as whole tokens only,
// so "news" and "nuovamente" do not trigger the temporal class.
func hasNewToken(lower string) bool {
	for _, tok := range lexicon.Tokenize(lower) {
		switch tok {
		case "new", "nuova", "nuove", "nuovo", "nuovi":
			return true
		}
	}
	return false
}
