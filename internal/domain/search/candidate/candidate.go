// Package candidate defines a single retrieved knowledge item before scoring.
package candidate

import "time"

// Candidate is one knowledge item returned by a retrieval backend.
// At least one of LexicalScore/VectorScore is set for any candidate that
// survives the merge.
type Candidate struct {
	ID       string
	Title    string
	Content  string
	Category string
	Source   string

	// LexicalScore is the raw keyword rank score. Nil when the candidate came
	// from the vector backend only.
	LexicalScore *float64
	// VectorScore is the raw similarity score in [0,1]. Nil when the
	// candidate came from the lexical backend only.
	VectorScore *float64

	// UpdatedAt is the last content update. Nil when unknown.
	UpdatedAt *time.Time
	// PublishedAt is the official publication date. Nil when unknown.
	PublishedAt *time.Time
	// TextQuality is the extraction quality in [0,1]. Nil means unassessed.
	TextQuality *float64
	// Tier is the authority class: 1 statute-grade, 2 circular-grade,
	// 3 news-grade. Zero means unknown.
	Tier int

	Metadata map[string]string
}

// HasScore reports whether at least one backend score is present.
func (c *Candidate) HasScore() bool {
	return c.LexicalScore != nil || c.VectorScore != nil
}
