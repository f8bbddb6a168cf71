package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 text search over the title and content
// fields. Terms are combined with AND by default, OR when Or is set.
// TitlePatterns are OR'd exact phrases that must match the title field;
// they encode document references ("n. 64", "circolare 64", "64/2024").
type TextQuery struct {
	IndexName     string
	Terms         string
	Or            bool
	TitlePatterns []string
	Filters       Expression
	TopK          int
	ReturnFields  []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
