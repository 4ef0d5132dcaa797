package fuzzy

import (
	"errors"
	"fmt"
)

// Scorer scores how well choice matches query, 0-100.
type Scorer interface {
	Score(query, choice string) float64
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(query, choice string) float64

// Score calls f(query, choice).
func (f ScorerFunc) Score(query, choice string) float64 {
	return f(query, choice)
}

// Weights blends the individual scores into one composite score.
type Weights struct {
	PartialTokenSet float64 `yaml:"partial_token_set"`
	Partial         float64 `yaml:"partial"`
	TokenSort       float64 `yaml:"token_sort"`
	Ratio           float64 `yaml:"ratio"`
	Fuzzy           float64 `yaml:"fuzzy"`
}

// DefaultWeights returns the empirically tuned blend.
func DefaultWeights() Weights {
	return Weights{
		PartialTokenSet: 0.35,
		Partial:         0.25,
		TokenSort:       0.2,
		Ratio:           0.1,
		Fuzzy:           0.1,
	}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.PartialTokenSet + w.Partial + w.TokenSort + w.Ratio + w.Fuzzy
}

// IsZero reports whether no weight is set.
func (w Weights) IsZero() bool {
	return w == Weights{}
}

// Validate checks that weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.PartialTokenSet, w.Partial, w.TokenSort, w.Ratio, w.Fuzzy} {
		if v < 0 {
			return errors.New("weights must be >= 0")
		}
	}
	if sum := w.Sum(); sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("weights must sum to 1, got %.3f", sum)
	}
	return nil
}

// Composite is the weighted blend scorer.
type Composite struct {
	Weights Weights
}

// NewComposite creates a composite scorer. Zero weights select DefaultWeights.
func NewComposite(w Weights) Composite {
	if w.IsZero() {
		w = DefaultWeights()
	}
	return Composite{Weights: w}
}

// Score blends all scores of query against choice.
func (c Composite) Score(query, choice string) float64 {
	w := c.Weights
	score := 0.0
	if w.PartialTokenSet > 0 {
		score += w.PartialTokenSet * PartialTokenSetRatio(query, choice)
	}
	if w.Partial > 0 {
		score += w.Partial * PartialRatio(query, choice)
	}
	if w.TokenSort > 0 {
		score += w.TokenSort * TokenSortRatio(query, choice)
	}
	if w.Ratio > 0 {
		score += w.Ratio * Ratio(query, choice)
	}
	if w.Fuzzy > 0 {
		score += w.Fuzzy * FuzzyScore(query, choice)
	}
	return score
}
