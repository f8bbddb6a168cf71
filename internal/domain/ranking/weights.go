// Package ranking holds the immutable scoring configuration: fusion weights,
// recency decay, tier multipliers and the source-authority table.
package ranking

import (
	"fmt"
	"math"

	"github.com/tributa-cloud/tributa/internal/domain"
)

// weightSumTolerance is the allowed deviation of the weight sum from 1.0.
const weightSumTolerance = 1e-5

// Weights are the five fusion weights. They sum to 1.0 at construction time.
type Weights struct {
	lexical   float64
	vector    float64
	recency   float64
	quality   float64
	authority float64
}

// NewWeights validates that all weights are non-negative and sum to
// 1.0 ± 1e-5. Construction fails otherwise — misconfiguration must never
// reach request time.
func NewWeights(lexical, vector, recency, quality, authority float64) (Weights, error) {
	for name, w := range map[string]float64{
		"lexical": lexical, "vector": vector, "recency": recency,
		"quality": quality, "authority": authority,
	} {
		if w < 0 {
			return Weights{}, fmt.Errorf("%w: %s weight is negative (%g)",
				domain.ErrInvalidWeights, name, w)
		}
	}

	sum := lexical + vector + recency + quality + authority
	if math.Abs(sum-1.0) > weightSumTolerance {
		return Weights{}, fmt.Errorf("%w: weights sum to %g, want 1.0",
			domain.ErrInvalidWeights, sum)
	}

	return Weights{
		lexical:   lexical,
		vector:    vector,
		recency:   recency,
		quality:   quality,
		authority: authority,
	}, nil
}

// DefaultWeights returns the production default fusion weights.
func DefaultWeights() Weights {
	w, err := NewWeights(0.35, 0.30, 0.15, 0.10, 0.10)
	if err != nil {
		panic(err) // unreachable: constants sum to 1.0
	}
	return w
}

// Lexical returns the keyword-score weight.
func (w Weights) Lexical() float64 { return w.lexical }

// Vector returns the similarity-score weight.
func (w Weights) Vector() float64 { return w.vector }

// Recency returns the recency-decay weight.
func (w Weights) Recency() float64 { return w.recency }

// Quality returns the text-quality weight.
func (w Weights) Quality() float64 { return w.quality }

// Authority returns the source-authority weight.
func (w Weights) Authority() float64 { return w.authority }
