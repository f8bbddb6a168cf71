// Package lexicon is the single versioned lookup table shared by the query
// analyzer and the fallback cascade: topic keywords with bounded synonyms,
// organization aliases mapped to source prefixes, document-type stems,
// aggregation indicator phrases and month names. Keeping these tables in one
// place prevents the extraction heuristics from drifting apart.
package lexicon

import (
	"strings"
	"unicode"
)

// Version identifies the table revision. Bump on any table change so that
// offline evaluation runs can be tied to the lexicon they were scored with.
const Version = 4

// Topic maps trigger keywords to a topic tag and a small synonym set used to
// expand lexical search terms.
type Topic struct {
	Tag      string
	Keywords []string
	Synonyms []string
}

// Topics is the static keyword→topic table. Keywords are matched as
// substrings of the lowercased query.
var Topics = []Topic{
	{
		Tag:      "iva",
		Keywords: []string{"iva", "vat", "imposta sul valore aggiunto", "aliquota"},
		Synonyms: []string{"imposta valore aggiunto", "aliquote", "detrazione iva"},
	},
	{
		Tag:      "irpef",
		Keywords: []string{"irpef", "scaglioni", "income tax", "addizionale"},
		Synonyms: []string{"scaglioni irpef", "aliquote irpef", "imposta reddito"},
	},
	{
		Tag:      "fatturazione",
		Keywords: []string{"fattura", "fatturazione", "e-invoice", "sdi", "corrispettivi"},
		Synonyms: []string{"fattura elettronica", "sistema di interscambio", "corrispettivi telematici"},
	},
	{
		Tag:      "ritenute",
		Keywords: []string{"ritenuta", "ritenute", "withholding", "sostituto"},
		Synonyms: []string{"ritenuta acconto", "sostituto imposta", "certificazione unica"},
	},
	{
		Tag:      "bonus-edilizi",
		Keywords: []string{"superbonus", "ecobonus", "sismabonus", "ristrutturazion"},
		Synonyms: []string{"detrazioni edilizie", "cessione credito", "sconto fattura"},
	},
	{
		Tag:      "dichiarazioni",
		Keywords: []string{"dichiarazione", "730", "modello redditi", "precompilata"},
		Synonyms: []string{"dichiarazione redditi", "modello 730", "termini presentazione"},
	},
	{
		Tag:      "contributi",
		Keywords: []string{"contribut", "inps", "gestione separata", "previdenz"},
		Synonyms: []string{"contributi previdenziali", "aliquota contributiva", "gestione separata"},
	},
	{
		Tag:      "accertamento",
		Keywords: []string{"accertamento", "verifica fiscale", "contraddittorio", "avviso bonario"},
		Synonyms: []string{"avviso accertamento", "adesione", "ravvedimento operoso"},
	},
}

// MaxSynonymsPerTopic bounds synonym expansion so lexical queries stay short.
const MaxSynonymsPerTopic = 3

// Organization maps name variants (including common typos) to a source
// prefix used to filter by publisher.
type Organization struct {
	SourcePrefix string
	Aliases      []string
}

// Organizations is the static alias table. Aliases are matched as substrings
// of the lowercased text, with single-token aliases also matched within one
// edit of distance.
var Organizations = []Organization{
	{
		SourcePrefix: "agenzia_entrate",
		Aliases: []string{
			"agenzia delle entrate", "agenzia entrate", "ag. entrate",
			"revenue agency", "ade",
		},
	},
	{
		SourcePrefix: "inps",
		Aliases:      []string{"inps", "istituto nazionale previdenza"},
	},
	{
		SourcePrefix: "mef",
		Aliases:      []string{"mef", "ministero economia", "ministero dell'economia"},
	},
	{
		SourcePrefix: "gdf",
		Aliases:      []string{"guardia di finanza", "gdf"},
	},
	{
		SourcePrefix: "inail",
		Aliases:      []string{"inail"},
	},
}

// DocType maps typo-tolerant keyword stems to a canonical document type.
type DocType struct {
	Canonical string
	Stems     []string
}

// DocTypes is the document-type stem table. Stems are matched as token
// prefixes, which absorbs inflections and trailing typos ("circolari",
// "circolarre").
var DocTypes = []DocType{
	{Canonical: "circolare", Stems: []string{"circolar", "circular", "circo"}},
	{Canonical: "risoluzione", Stems: []string{"risoluz", "resolut", "risol"}},
	{Canonical: "provvedimento", Stems: []string{"provvediment", "provv"}},
	{Canonical: "decreto", Stems: []string{"decret", "decree", "dl", "dlgs"}},
	{Canonical: "interpello", Stems: []string{"interpell", "risposta"}},
	{Canonical: "legge", Stems: []string{"legge", "law"}},
	{Canonical: "messaggio", Stems: []string{"messagg"}},
}

// aggregationPhrases signal "list/summarize all" intent.
var aggregationPhrases = []string{
	"tutte le", "tutti i", "elenco", "elenca", "lista", "riepilogo",
	"riassumi", "quali sono", "list all", "all the", "summarize",
	"overview of",
}

// months maps every accepted month name (Italian and English) to its
// canonical Italian name, in calendar order for deterministic output.
var months = []struct {
	canonical string
	names     []string
}{
	{"gennaio", []string{"gennaio", "january"}},
	{"febbraio", []string{"febbraio", "february"}},
	{"marzo", []string{"marzo", "march"}},
	{"aprile", []string{"aprile", "april"}},
	{"maggio", []string{"maggio", "may"}},
	{"giugno", []string{"giugno", "june"}},
	{"luglio", []string{"luglio", "july"}},
	{"agosto", []string{"agosto", "august"}},
	{"settembre", []string{"settembre", "september"}},
	{"ottobre", []string{"ottobre", "october"}},
	{"novembre", []string{"novembre", "november"}},
	{"dicembre", []string{"dicembre", "december"}},
}

// MatchTopics returns the topics whose keywords occur in text.
func MatchTopics(text string) []Topic {
	lower := strings.ToLower(text)
	var out []Topic
	for _, t := range Topics {
		for _, kw := range t.Keywords {
			if strings.Contains(lower, kw) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// MatchOrganization finds at most one organization mentioned in text.
// Multi-word aliases match as substrings; single-word aliases of four or
// more characters also match tokens within edit distance one, which absorbs
// common typos ("agenza entrate").
func MatchOrganization(text string) (Organization, bool) {
	lower := strings.ToLower(text)
	tokens := Tokenize(lower)

	for _, org := range Organizations {
		for _, alias := range org.Aliases {
			if strings.Contains(lower, alias) {
				return org, true
			}
			if !strings.ContainsRune(alias, ' ') && len(alias) >= 4 {
				for _, tok := range tokens {
					if withinOneEdit(tok, alias) {
						return org, true
					}
				}
			}
		}
	}

	// Fuzzy pass over multi-word aliases: every alias word must appear as a
	// token within one edit.
	for _, org := range Organizations {
		for _, alias := range org.Aliases {
			words := strings.Fields(alias)
			if len(words) < 2 {
				continue
			}
			if allWordsNear(words, tokens) {
				return org, true
			}
		}
	}

	return Organization{}, false
}

// StripOrganizations removes every known organization alias token from text.
// Used by the cascade when the organization filter proved too restrictive.
func StripOrganizations(text string) string {
	tokens := Tokenize(text)
	kept := tokens[:0]
	for _, tok := range tokens {
		if !isOrgToken(strings.ToLower(tok)) {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

func isOrgToken(tok string) bool {
	for _, org := range Organizations {
		for _, alias := range org.Aliases {
			for _, word := range strings.Fields(alias) {
				if len(word) < 3 {
					if tok == word {
						return true
					}
					continue
				}
				if withinOneEdit(tok, word) {
					return true
				}
			}
		}
	}
	return false
}

// MatchDocType resolves a token to a canonical document type by stem prefix.
func MatchDocType(token string) (string, bool) {
	lower := strings.ToLower(token)
	for _, dt := range DocTypes {
		for _, stem := range dt.Stems {
			if len(stem) <= 4 {
				if lower == stem {
					return dt.Canonical, true
				}
				continue
			}
			if strings.HasPrefix(lower, stem) || withinOneEdit(lower, stem) {
				return dt.Canonical, true
			}
		}
	}
	return "", false
}

// HasAggregationIntent reports whether text carries "list/summarize all"
// phrasing.
func HasAggregationIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range aggregationPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// MatchMonths returns the canonical names of every month mentioned in text,
// in calendar order, without duplicates.
func MatchMonths(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, m := range months {
		for _, name := range m.names {
			if containsWord(lower, name) {
				out = append(out, m.canonical)
				break
			}
		}
	}
	return out
}

// StripMonths removes the given canonical months (and their English
// equivalents) from text. Used by the multi-month aggregation branch so each
// per-month search does not match its siblings.
func StripMonths(text string, drop []string) string {
	dropSet := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		for _, m := range months {
			if m.canonical == d {
				for _, name := range m.names {
					dropSet[name] = struct{}{}
				}
			}
		}
	}

	tokens := Tokenize(text)
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, ok := dropSet[strings.ToLower(tok)]; !ok {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// Tokenize splits text on anything that is not a letter or digit.
// Apostrophes split too, so elided articles ("l'iva", "dell'agenzia") do not
// glue onto the word that matters.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsWord(text, word string) bool {
	for _, tok := range Tokenize(text) {
		if tok == word {
			return true
		}
	}
	return false
}

func allWordsNear(words, tokens []string) bool {
	for _, w := range words {
		found := false
		for _, tok := range tokens {
			if len(w) < 3 {
				if tok == w {
					found = true
					break
				}
				continue
			}
			if withinOneEdit(tok, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// withinOneEdit reports whether a and b are equal or one edit
// (substitution, insertion, deletion) apart.
func withinOneEdit(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if la > lb {
		a, b = b, a
		la, lb = lb, la
	}
	if lb-la > 1 {
		return false
	}

	if la == lb {
		diff := 0
		for i := 0; i < la; i++ {
			if a[i] != b[i] {
				diff++
				if diff > 1 {
					return false
				}
			}
		}
		return true
	}

	// One insertion into the shorter string.
	i, j, skipped := 0, 0, false
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		if skipped {
			return false
		}
		skipped = true
		j++
	}
	return true
}
