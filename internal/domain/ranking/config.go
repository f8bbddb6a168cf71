package ranking

import (
	"fmt"
	"sort"
	"strings"
)

// Tier multipliers. Unknown tiers get a neutral 1.0.
const (
	tierStatuteMultiplier  = 1.25
	tierCircularMultiplier = 1.10
	tierNewsMultiplier     = 0.80
)

// SourceRule maps a source prefix to its authority boost and tier.
type SourceRule struct {
	Prefix string
	Boost  float64
	Tier   int
}

// Config is the full, immutable scoring configuration. Reconfiguration
// builds a new Config and swaps the pointer; instances are never mutated.
type Config struct {
	weights           Weights
	decayHalfLifeDays float64
	minScore          float64
	sources           []SourceRule // sorted longest prefix first
}

// NewConfig validates and builds a scoring configuration.
func NewConfig(w Weights, decayHalfLifeDays, minScore float64, sources []SourceRule) (*Config, error) {
	if decayHalfLifeDays <= 0 {
		return nil, fmt.Errorf("decay half-life must be positive, got %g", decayHalfLifeDays)
	}
	if minScore < 0 || minScore > 1 {
		return nil, fmt.Errorf("min score must be in [0,1], got %g", minScore)
	}
	for _, s := range sources {
		if s.Prefix == "" {
			return nil, fmt.Errorf("source rule with empty prefix")
		}
		if s.Tier < 0 || s.Tier > 3 {
			return nil, fmt.Errorf("source %q: tier must be 0-3, got %d", s.Prefix, s.Tier)
		}
	}

	sorted := make([]SourceRule, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})

	return &Config{
		weights:           w,
		decayHalfLifeDays: decayHalfLifeDays,
		minScore:          minScore,
		sources:           sorted,
	}, nil
}

// Weights returns the fusion weights.
func (c *Config) Weights() Weights { return c.weights }

// DecayHalfLifeDays returns the recency decay constant.
func (c *Config) DecayHalfLifeDays() float64 { return c.decayHalfLifeDays }

// MinScore returns the strict-attempt score threshold.
func (c *Config) MinScore() float64 { return c.minScore }

// AuthorityBoost returns the boost of the longest matching source prefix,
// zero for unknown sources.
func (c *Config) AuthorityBoost(source string) float64 {
	if r, ok := c.match(source); ok {
		return r.Boost
	}
	return 0
}

// SourceTier returns the tier of the longest matching source prefix,
// zero for unknown sources.
func (c *Config) SourceTier(source string) int {
	if r, ok := c.match(source); ok {
		return r.Tier
	}
	return 0
}

func (c *Config) match(source string) (SourceRule, bool) {
	for _, r := range c.sources {
		if strings.HasPrefix(source, r.Prefix) {
			return r, true
		}
	}
	return SourceRule{}, false
}

// TierMultiplier returns the discrete authority multiplier for a tier.
func TierMultiplier(tier int) float64 {
	switch tier {
	case 1:
		return tierStatuteMultiplier
	case 2:
		return tierCircularMultiplier
	case 3:
		return tierNewsMultiplier
	default:
		return 1.0
	}
}
