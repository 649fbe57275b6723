package config

const (
	defaultShelf          = "to-read"
	defaultThreshold      = 90.0
	defaultPriceCeiling   = 50.0
	defaultWorkers        = 4
	defaultDelayMS        = 250
	defaultBaseURL        = "https://bookoutlet.ca"
	defaultTimeoutSeconds = 15
	defaultCachePath      = "~/.cache/bookmatch/search_cache.db"
	defaultCacheTTLHours  = 24
	defaultOutputFormat   = "text"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
)

// DefaultWeights returns the empirically tuned similarity blend.
func DefaultWeights() Weights {
	return Weights{
		Ratio:          0.15,
		PartialRatio:   0.20,
		TokenSortRatio: 0.25,
		TokenSetRatio:  0.40,
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Input: Input{
			Shelf: defaultShelf,
		},
		Matching: Matching{
			Threshold:    defaultThreshold,
			UseISBN:      true,
			PriceCeiling: defaultPriceCeiling,
			Weights:      DefaultWeights(),
		},
		Parallel: Parallel{
			Workers: defaultWorkers,
			DelayMS: defaultDelayMS,
		},
		BookOutlet: BookOutlet{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		SearchCache: SearchCache{
			Enabled:  true,
			Path:     defaultCachePath,
			TTLHours: defaultCacheTTLHours,
		},
		Output: Output{
			Format: defaultOutputFormat,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
