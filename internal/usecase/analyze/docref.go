package analyze

import (
	"github.com/tributa-cloud/tributa/internal/domain/analysis"
	"github.com/tributa-cloud/tributa/internal/lexicon"
)

// maxNumberDistance is how many tokens a number may trail its type keyword
// ("circolare agenzia entrate n. 24" keeps the pair linked).
const maxNumberDistance = 4

// extractDocRef finds a document reference like "circolare n. 24/2024",
// "risoluzione 64" or a bare "n. 12". The token scan uses the lexicon's
// typo-tolerant type stems. A normalizer hint, when present, wins on type
// (higher precision); the scanned number wins whenever the hint is silent.
func extractDocRef(text string, months []string, hint *analysis.NormalizedReference) *analysis.DocumentReference {
	docType, number, year := scanReference(text)

	if hint != nil {
		if hint.Type != "" {
			docType = hint.Type
		}
		if number == "" {
			number = hint.Number
		}
		if year == 0 {
			year = hint.Year
		}
	}

	if number == "" {
		return nil
	}

	month := ""
	if len(months) > 0 {
		month = months[0]
	}

	ref, err := analysis.NewDocumentReference(docType, number, year, month)
	if err != nil {
		return nil
	}
	return &ref
}

// scanReference walks the tokens once, pairing type keywords ("circolare",
// "risoluzione", "n.", "numero") with the digits that follow them. A 4-digit
// year token right after the number is taken as the reference year
// ("24/2024" tokenizes to "24" "2024").
func scanReference(text string) (docType, number string, year int) {
	tokens := lexicon.Tokenize(text)

	lastType := ""
	lastTypeIdx := -1
	markerIdx := -1

	for i, tok := range tokens {
		if isNumberMarker(tok) {
			markerIdx = i
			continue
		}
		if dt, ok := lexicon.MatchDocType(tok); ok {
			lastType = dt
			lastTypeIdx = i
			continue
		}

		if !isDigits(tok) {
			continue
		}

		if isYearToken(tok) {
			// Year directly after an already-captured number: "64/2024".
			if number != "" && year == 0 {
				year = yearValue(tok)
			}
			continue
		}

		if number != "" {
			continue // first number wins
		}

		afterMarker := markerIdx >= 0 && i-markerIdx <= 2
		afterType := lastTypeIdx >= 0 && i-lastTypeIdx <= maxNumberDistance
		if afterMarker || afterType {
			number = tok
			docType = lastType
		}
	}

	return docType, number, year
}

func isNumberMarker(tok string) bool {
	switch tok {
	case "n", "num", "numero", "no", "nr":
		return true
	default:
		return false
	}
}

func isDigits(tok string) bool {
	if tok == "" || len(tok) > 5 {
		return false
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return true
}
