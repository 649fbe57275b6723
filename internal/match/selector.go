package match

import (
	"fmt"

	"bookmatch/internal/isbn"
)

// Config carries the matching knobs consumed by Select. Values arrive
// already validated from configuration load; Select re-checks only the
// contract-level invariants a direct caller could violate.
type Config struct {
	// Threshold is the pass score in [0,100], inclusive.
	Threshold float64
	// UseISBN enables the exact-ISBN short-circuit.
	UseISBN bool
	// RequireAuthorMatch gates fuzzy matches on author similarity.
	RequireAuthorMatch bool
	// PriceCeilingCents flags candidates above this price; zero disables.
	PriceCeilingCents int
	Weights           Weights
}

// Result is the terminal matching artifact for one query. Best is nil only
// when the candidate list was empty; otherwise it holds the maximum-scoring
// candidate even below threshold, so near-misses stay inspectable.
type Result struct {
	Query  Query
	Best   *Breakdown
	Passed bool
}

// Select picks the best candidate for a query. An exact normalized-ISBN
// match wins immediately with a score of 100; otherwise every candidate is
// fuzzy-scored against the query's title variations and the maximum kept,
// earliest candidate winning ties. Malformed candidate data degrades to low
// scores; only a threshold outside [0,100] is an error.
func Select(query Query, candidates []Candidate, cfg Config) (Result, error) {
	if cfg.Threshold < 0 || cfg.Threshold > 100 {
		return Result{}, fmt.Errorf("match: threshold %.2f out of range [0,100]", cfg.Threshold)
	}

	result := Result{Query: query}
	if len(candidates) == 0 {
		return result, nil
	}

	if cfg.UseISBN && query.ISBN != "" {
		for i := range candidates {
			if isbn.Equal(query.ISBN, candidates[i].ISBN) {
				result.Best = &Breakdown{
					Base:         maxScore,
					Final:        maxScore,
					PriceFlagged: cfg.PriceCeilingCents > 0 && candidates[i].PriceCents > cfg.PriceCeilingCents,
					Candidate:    &candidates[i],
				}
				result.Passed = true
				return result, nil
			}
		}
	}

	variations := Normalize(query.Title).Variations()
	opts := ScoreOptions{
		Weights:            cfg.Weights,
		Threshold:          cfg.Threshold,
		RequireAuthorMatch: cfg.RequireAuthorMatch,
		PriceCeilingCents:  cfg.PriceCeilingCents,
	}

	for i := range candidates {
		breakdown := Score(query, variations, candidates[i], opts)
		if result.Best == nil || breakdown.Final > result.Best.Final {
			b := breakdown
			result.Best = &b
		}
	}

	result.Passed = result.Best.Final >= cfg.Threshold
	return result, nil
}
