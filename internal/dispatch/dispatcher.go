package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookmatch/internal/logging"
	"bookmatch/internal/match"
)

// Worker pool bounds. The upper bound keeps a misconfigured run from
// hammering the storefront.
const (
	MinWorkers = 1
	MaxWorkers = 20
)

// Status describes how far a single query got.
type Status string

const (
	// StatusMatched means the best candidate met the threshold.
	StatusMatched Status = "matched"
	// StatusNoMatch means the search completed but nothing passed, or the
	// store returned no candidates at all.
	StatusNoMatch Status = "no match"
	// StatusSkipped means the run was cancelled before this query was
	// searched.
	StatusSkipped Status = "not attempted"
)

// FetchFunc retrieves store candidates for one query. A failed fetch
// returns an error; the dispatcher degrades it to an empty candidate list
// rather than aborting the run.
type FetchFunc func(ctx context.Context, query match.Query) ([]match.Candidate, error)

// SelectFunc picks the best candidate for a query.
type SelectFunc func(query match.Query, candidates []match.Candidate) (match.Result, error)

// Outcome is the per-query result slot. Index mirrors the query's position
// in the input slice. FetchErr preserves the fetch failure, if any, for
// reporting; it never fails the run.
type Outcome struct {
	Index    int
	Query    match.Query
	Result   match.Result
	Status   Status
	FetchErr error
}

// Config carries the pool knobs.
type Config struct {
	// Workers is the pool size, within [MinWorkers, MaxWorkers].
	Workers int
	// Delay is the minimum pause each worker takes between successive
	// fetch starts. Zero disables throttling.
	Delay time.Duration
	// Logger receives per-query progress; nil means silent.
	Logger *slog.Logger
	// Progress, when non-nil, is called once per finished query.
	Progress func(Outcome)
}

// Run dispatches every query to the pool and returns one outcome per
// query, in input order. Cancellation stops dispatching new work; queries
// never started are returned with StatusSkipped. The only error is a
// worker count outside the allowed range.
func Run(ctx context.Context, queries []match.Query, fetch FetchFunc, sel SelectFunc, cfg Config) ([]Outcome, error) {
	if cfg.Workers < MinWorkers || cfg.Workers > MaxWorkers {
		return nil, fmt.Errorf("dispatch: workers %d out of range [%d,%d]", cfg.Workers, MinWorkers, MaxWorkers)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	outcomes := make([]Outcome, len(queries))
	for i := range outcomes {
		outcomes[i] = Outcome{Index: i, Query: queries[i], Status: StatusSkipped}
	}
	if len(queries) == 0 {
		return outcomes, nil
	}

	tasks := make(chan int)
	go func() {
		defer close(tasks)
		for i := range queries {
			select {
			case tasks <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for index := range tasks {
				if ctx.Err() != nil {
					return
				}
				if !first && cfg.Delay > 0 {
					select {
					case <-time.After(cfg.Delay):
					case <-ctx.Done():
						return
					}
				}
				first = false

				outcome := process(ctx, queries[index], fetch, sel, logger)
				outcome.Index = index

				mu.Lock()
				outcomes[index] = outcome
				mu.Unlock()

				if cfg.Progress != nil {
					cfg.Progress(outcome)
				}
			}
		}()
	}
	wg.Wait()

	return outcomes, nil
}

func process(ctx context.Context, query match.Query, fetch FetchFunc, sel SelectFunc, logger *slog.Logger) Outcome {
	outcome := Outcome{Query: query}

	candidates, err := fetch(ctx, query)
	if err != nil {
		logger.Warn("search failed",
			logging.String(logging.FieldTitle, query.Title),
			logging.Error(err))
		outcome.FetchErr = err
		candidates = nil
	}

	result, err := sel(query, candidates)
	if err != nil {
		// Contract violations surface loudly but still fill the slot.
		logger.Error("selection failed",
			logging.String(logging.FieldTitle, query.Title),
			logging.Error(err))
		outcome.Status = StatusNoMatch
		return outcome
	}

	outcome.Result = result
	if result.Passed {
		outcome.Status = StatusMatched
	} else {
		outcome.Status = StatusNoMatch
	}
	return outcome
}
