package dispatch_test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bookmatch/internal/dispatch"
	"bookmatch/internal/logging"
	"bookmatch/internal/match"
)

func fakeStore() map[string][]match.Candidate {
	return map[string][]match.Candidate{
		"The Song of Achilles": {
			{Title: "Song of Achilles", Author: "Madeline Miller", URL: "/products/achilles"},
		},
		"Circe": {
			{Title: "Circe", Author: "Madeline Miller", URL: "/products/circe"},
		},
		"It": {
			{Title: "It Ends With Us", URL: "/products/it-ends-with-us"},
		},
		"Nonexistent Book": nil,
	}
}

func storeFetch(store map[string][]match.Candidate) dispatch.FetchFunc {
	return func(_ context.Context, query match.Query) ([]match.Candidate, error) {
		return store[query.Title], nil
	}
}

func thresholdSelect(threshold float64) dispatch.SelectFunc {
	return func(query match.Query, candidates []match.Candidate) (match.Result, error) {
		return match.Select(query, candidates, match.Config{
			Threshold: threshold,
			UseISBN:   true,
			Weights:   match.DefaultWeights(),
		})
	}
}

func queriesFor(titles ...string) []match.Query {
	queries := make([]match.Query, len(titles))
	for i, title := range titles {
		queries[i] = match.Query{Title: title}
	}
	return queries
}

func TestRunWorkerRange(t *testing.T) {
	for _, workers := range []int{0, -1, 21, 100} {
		_, err := dispatch.Run(context.Background(), queriesFor("Circe"),
			storeFetch(fakeStore()), thresholdSelect(70), dispatch.Config{Workers: workers})
		if err == nil {
			t.Errorf("workers=%d accepted, want error", workers)
		}
	}
}

func TestRunOrderAndStatuses(t *testing.T) {
	queries := queriesFor("The Song of Achilles", "It", "Nonexistent Book", "Circe")
	outcomes, err := dispatch.Run(context.Background(), queries,
		storeFetch(fakeStore()), thresholdSelect(70), dispatch.Config{Workers: 8})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != len(queries) {
		t.Fatalf("got %d outcomes for %d queries", len(outcomes), len(queries))
	}
	for i, outcome := range outcomes {
		if outcome.Index != i {
			t.Errorf("outcome %d carries index %d", i, outcome.Index)
		}
		if outcome.Query.Title != queries[i].Title {
			t.Errorf("outcome %d is for %q, want %q", i, outcome.Query.Title, queries[i].Title)
		}
	}

	wantStatus := []dispatch.Status{
		dispatch.StatusMatched,
		dispatch.StatusNoMatch, // gated short title stays below threshold
		dispatch.StatusNoMatch, // store returned nothing
		dispatch.StatusMatched,
	}
	for i, want := range wantStatus {
		if outcomes[i].Status != want {
			t.Errorf("outcome %d status = %q, want %q", i, outcomes[i].Status, want)
		}
	}
	if outcomes[2].Result.Best != nil {
		t.Errorf("empty store result produced Best = %+v", outcomes[2].Result.Best)
	}
}

func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	queries := queriesFor(
		"The Song of Achilles", "Circe", "It", "Nonexistent Book",
		"Circe", "The Song of Achilles",
	)
	run := func(workers int) []dispatch.Outcome {
		outcomes, err := dispatch.Run(context.Background(), queries,
			storeFetch(fakeStore()), thresholdSelect(70), dispatch.Config{Workers: workers})
		if err != nil {
			t.Fatalf("Run workers=%d: %v", workers, err)
		}
		return outcomes
	}

	serial := run(1)
	parallel := run(8)
	if !reflect.DeepEqual(serial, parallel) {
		t.Errorf("outcomes differ between 1 and 8 workers:\n%+v\n%+v", serial, parallel)
	}
}

func TestRunFetchFailureDegrades(t *testing.T) {
	fetchErr := errors.New("store unreachable")
	fetch := func(context.Context, match.Query) ([]match.Candidate, error) {
		return nil, fetchErr
	}
	outcomes, err := dispatch.Run(context.Background(), queriesFor("Circe"),
		fetch, thresholdSelect(70), dispatch.Config{Workers: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcomes[0].Status != dispatch.StatusNoMatch {
		t.Errorf("status = %q, want %q after fetch failure", outcomes[0].Status, dispatch.StatusNoMatch)
	}
	if !errors.Is(outcomes[0].FetchErr, fetchErr) {
		t.Errorf("FetchErr = %v, want preserved fetch error", outcomes[0].FetchErr)
	}
	if outcomes[0].Result.Best != nil {
		t.Errorf("Best = %+v after fetch failure, want nil", outcomes[0].Result.Best)
	}
}

func TestRunFetchFailureLogsTitle(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New logger: %v", err)
	}

	fetch := func(context.Context, match.Query) ([]match.Candidate, error) {
		return nil, errors.New("store unreachable")
	}
	if _, err := dispatch.Run(context.Background(), queriesFor("The Song of Achilles"),
		fetch, thresholdSelect(70), dispatch.Config{Workers: 1, Logger: logger}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	line := buf.String()
	if !strings.Contains(line, "search failed") {
		t.Errorf("warning missing: %q", line)
	}
	if !strings.Contains(line, logging.FieldTitle+`="The Song of Achilles"`) {
		t.Errorf("failed search not keyed by %s: %q", logging.FieldTitle, line)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var fetches atomic.Int64
	fetch := func(context.Context, match.Query) ([]match.Candidate, error) {
		fetches.Add(1)
		return nil, nil
	}
	queries := queriesFor("The Song of Achilles", "Circe", "It")
	outcomes, err := dispatch.Run(ctx, queries, fetch, thresholdSelect(70), dispatch.Config{Workers: 4})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fetches.Load() != 0 {
		t.Errorf("%d fetches ran under a cancelled context", fetches.Load())
	}
	for i, outcome := range outcomes {
		if outcome.Status != dispatch.StatusSkipped {
			t.Errorf("outcome %d status = %q, want %q", i, outcome.Status, dispatch.StatusSkipped)
		}
	}
}

func TestRunCancelMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fetches atomic.Int64
	fetch := func(context.Context, match.Query) ([]match.Candidate, error) {
		if fetches.Add(1) == 2 {
			cancel()
		}
		return nil, nil
	}

	queries := queriesFor(
		"a", "b", "c", "d", "e", "f", "g", "h", "i", "j",
		"k", "l", "m", "n", "o", "p", "q", "r", "s", "t",
	)
	outcomes, err := dispatch.Run(ctx, queries, fetch, thresholdSelect(70), dispatch.Config{Workers: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	skipped := 0
	for _, outcome := range outcomes {
		if outcome.Status == dispatch.StatusSkipped {
			skipped++
		}
	}
	if skipped == 0 {
		t.Error("cancellation left no skipped outcomes")
	}
	if processed := len(outcomes) - skipped; processed < 2 {
		t.Errorf("only %d queries processed before cancellation", processed)
	}
}

func TestRunPerWorkerDelay(t *testing.T) {
	delay := 25 * time.Millisecond
	start := time.Now()
	_, err := dispatch.Run(context.Background(), queriesFor("a", "b", "c"),
		storeFetch(nil), thresholdSelect(70),
		dispatch.Config{Workers: 1, Delay: delay})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// One worker, three tasks: two inter-task delays minimum.
	if elapsed := time.Since(start); elapsed < 2*delay {
		t.Errorf("run finished in %v, want at least %v", elapsed, 2*delay)
	}
}

func TestRunEmptyQueries(t *testing.T) {
	outcomes, err := dispatch.Run(context.Background(), nil,
		storeFetch(nil), thresholdSelect(70), dispatch.Config{Workers: 4})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("got %d outcomes for zero queries", len(outcomes))
	}
}

func TestRunProgressCallback(t *testing.T) {
	var calls atomic.Int64
	queries := queriesFor("The Song of Achilles", "Circe")
	_, err := dispatch.Run(context.Background(), queries,
		storeFetch(fakeStore()), thresholdSelect(70),
		dispatch.Config{Workers: 2, Progress: func(dispatch.Outcome) { calls.Add(1) }})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls.Load() != int64(len(queries)) {
		t.Errorf("progress called %d times for %d queries", calls.Load(), len(queries))
	}
}
