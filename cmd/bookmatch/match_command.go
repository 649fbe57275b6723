package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"bookmatch/internal/bookoutlet"
	"bookmatch/internal/config"
	"bookmatch/internal/dispatch"
	"bookmatch/internal/logging"
	"bookmatch/internal/match"
	"bookmatch/internal/output"
	"bookmatch/internal/readinglist"
	"bookmatch/internal/searchcache"
)

func newMatchCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		inputFlag     string
		shelfFlag     string
		formatFlag    string
		outputFlag    string
		workersFlag   int
		delayFlag     int
		thresholdFlag float64
		noCacheFlag   bool
		refreshFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "match [export.csv]",
		Short: "Search the store for every book on the reading list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			applyMatchFlags(cmd, cfg, matchFlags{
				input:     inputFlag,
				shelf:     shelfFlag,
				format:    formatFlag,
				output:    outputFlag,
				workers:   workersFlag,
				delayMS:   delayFlag,
				threshold: thresholdFlag,
			}, args)
			if noCacheFlag {
				cfg.SearchCache.Enabled = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Input.Path == "" {
				return errors.New("no reading list: pass a CSV path or set input.path in the config")
			}
			return runMatch(cmd.Context(), cmdCtx, cfg, refreshFlag)
		},
	}

	cmd.Flags().StringVarP(&inputFlag, "input", "i", "", "Reading list CSV export")
	cmd.Flags().StringVar(&shelfFlag, "shelf", "", `Bookshelf to search ("*" for all shelves)`)
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Report format (text, json, csv, markdown, html)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Report file (default stdout)")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Concurrent store searches (1-20)")
	cmd.Flags().IntVar(&delayFlag, "delay-ms", -1, "Per-worker pause between searches in milliseconds")
	cmd.Flags().Float64Var(&thresholdFlag, "threshold", -1, "Minimum match score (0-100)")
	cmd.Flags().BoolVar(&noCacheFlag, "no-cache", false, "Skip the search cache entirely")
	cmd.Flags().BoolVar(&refreshFlag, "refresh", false, "Re-fetch every search, updating the cache")
	return cmd
}

type matchFlags struct {
	input     string
	shelf     string
	format    string
	output    string
	workers   int
	delayMS   int
	threshold float64
}

func applyMatchFlags(cmd *cobra.Command, cfg *config.Config, flags matchFlags, args []string) {
	if len(args) == 1 {
		cfg.Input.Path = args[0]
	}
	if flags.input != "" {
		cfg.Input.Path = flags.input
	}
	if flags.shelf != "" {
		cfg.Input.Shelf = flags.shelf
	}
	if flags.format != "" {
		cfg.Output.Format = flags.format
	}
	if flags.output != "" {
		cfg.Output.Path = flags.output
	}
	if cmd.Flags().Changed("workers") {
		cfg.Parallel.Workers = flags.workers
	}
	if cmd.Flags().Changed("delay-ms") {
		cfg.Parallel.DelayMS = flags.delayMS
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Matching.Threshold = flags.threshold
	}
}

func runMatch(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, refresh bool) error {
	logger, err := cmdCtx.newLogger()
	if err != nil {
		return err
	}
	logger = logging.NewComponentLogger(logger, "match")

	// One run at a time; concurrent runs would race on the cache and
	// double the load on the storefront.
	lock := flock.New(filepath.Join(os.TempDir(), "bookmatch.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another bookmatch run is already in progress")
	}
	defer func() { _ = lock.Unlock() }()

	books, err := readinglist.ReadFile(cfg.Input.Path, readinglist.Options{Shelf: cfg.Input.Shelf})
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return fmt.Errorf("no books on shelf %q in %s", cfg.Input.Shelf, cfg.Input.Path)
	}
	logger.Info("reading list loaded",
		logging.Int("books", len(books)),
		logging.String("shelf", cfg.Input.Shelf))

	client, err := bookoutlet.New(cfg.BookOutlet.BaseURL,
		bookoutlet.WithUserAgent(cfg.BookOutlet.UserAgent),
		bookoutlet.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.BookOutlet.TimeoutSeconds) * time.Second,
		}))
	if err != nil {
		return err
	}

	var cache *searchcache.Store
	if cfg.SearchCache.Enabled {
		cache, err = searchcache.Open(cfg.SearchCache.Path, cfg.CacheTTL())
		if err != nil {
			return fmt.Errorf("open search cache: %w", err)
		}
		defer cache.Close()
	}

	selectCfg := match.Config{
		Threshold:          cfg.Matching.Threshold,
		UseISBN:            cfg.Matching.UseISBN,
		RequireAuthorMatch: cfg.Matching.RequireAuthorMatch,
		PriceCeilingCents:  cfg.PriceCeilingCents(),
		Weights: match.Weights{
			Ratio:          cfg.Matching.Weights.Ratio,
			PartialRatio:   cfg.Matching.Weights.PartialRatio,
			TokenSortRatio: cfg.Matching.Weights.TokenSortRatio,
			TokenSetRatio:  cfg.Matching.Weights.TokenSetRatio,
		},
	}

	queries := readinglist.Queries(books)
	dispatchCfg := dispatch.Config{
		Workers: cfg.Parallel.Workers,
		Delay:   cfg.Delay(),
		Logger:  logger,
	}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		bar := progressbar.NewOptions(len(queries),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("searching"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		dispatchCfg.Progress = func(dispatch.Outcome) { _ = bar.Add(1) }
		defer func() { _ = bar.Finish() }()
	}

	started := time.Now()
	outcomes, err := dispatch.Run(ctx,
		queries,
		cachedFetch(cache, client, logger, refresh),
		func(query match.Query, candidates []match.Candidate) (match.Result, error) {
			return match.Select(query, candidates, selectCfg)
		},
		dispatchCfg,
	)
	if err != nil {
		return err
	}
	logger.Info("search finished",
		logging.Int(logging.FieldWorkers, cfg.Parallel.Workers),
		logging.Duration("elapsed", time.Since(started)))

	meta := output.NewMetadata(cfg.Matching.Threshold, outcomes)
	formatter, err := output.Get(cfg.Output.Format)
	if err != nil {
		return err
	}
	if cfg.Output.Path != "" {
		path, err := output.WriteFile(cfg.Output.Path, formatter, outcomes, meta)
		if err != nil {
			return err
		}
		logger.Info("report written",
			logging.String("path", path),
			logging.String(logging.FieldFormat, cfg.Output.Format))
		return nil
	}

	content, err := formatter.Format(outcomes, meta)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, content)
	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %d of %d searches not attempted",
			countSkipped(outcomes), len(outcomes))
	}
	return nil
}

// cachedFetch wraps the store client with the search cache. On refresh the
// cache is written through but never read.
func cachedFetch(cache *searchcache.Store, client bookoutlet.Searcher, logger *slog.Logger, refresh bool) dispatch.FetchFunc {
	return func(ctx context.Context, query match.Query) ([]match.Candidate, error) {
		if !refresh {
			if candidates, hit, err := cache.Lookup(ctx, query.Title); err != nil {
				logger.Warn("cache lookup failed",
					logging.String(logging.FieldQueryKey, searchcache.Key(query.Title)),
					logging.Error(err))
			} else if hit {
				return candidates, nil
			}
		}

		candidates, err := client.Search(ctx, query.Title)
		if err != nil {
			return nil, err
		}
		if storeErr := cache.Store(ctx, query.Title, candidates); storeErr != nil {
			logger.Warn("cache store failed",
				logging.String(logging.FieldQueryKey, searchcache.Key(query.Title)),
				logging.Error(storeErr))
		}
		return candidates, nil
	}
}

func countSkipped(outcomes []dispatch.Outcome) int {
	skipped := 0
	for _, outcome := range outcomes {
		if outcome.Status == dispatch.StatusSkipped {
			skipped++
		}
	}
	return skipped
}
