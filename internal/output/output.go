// Package output renders finished match runs in the formats the CLI can
// emit: text, json, csv, markdown, and html.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookmatch/internal/dispatch"
)

// Metadata accompanies every rendered report.
type Metadata struct {
	RunID         string
	GeneratedAt   time.Time
	TotalSearched int
	TotalMatched  int
	Threshold     float64
}

// NewMetadata derives run metadata from finished outcomes.
func NewMetadata(threshold float64, outcomes []dispatch.Outcome) Metadata {
	matched := 0
	for _, outcome := range outcomes {
		if outcome.Status == dispatch.StatusMatched {
			matched++
		}
	}
	return Metadata{
		RunID:         uuid.NewString(),
		GeneratedAt:   time.Now().UTC(),
		TotalSearched: len(outcomes),
		TotalMatched:  matched,
		Threshold:     threshold,
	}
}

// Formatter renders one report format.
type Formatter interface {
	Format(outcomes []dispatch.Outcome, meta Metadata) (string, error)
	Extension() string
}

var registry = map[string]Formatter{
	"text":     textFormatter{},
	"json":     jsonFormatter{},
	"csv":      csvFormatter{},
	"markdown": markdownFormatter{},
	"html":     htmlFormatter{},
}

// Get returns the named formatter.
func Get(name string) (Formatter, error) {
	formatter, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("output: unknown format %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return formatter, nil
}

// Names lists the registered format names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteFile renders the outcomes and writes them to path, appending the
// format's extension when the path does not already carry it. The final
// path is returned.
func WriteFile(path string, formatter Formatter, outcomes []dispatch.Outcome, meta Metadata) (string, error) {
	suffix := "." + formatter.Extension()
	if !strings.HasSuffix(path, suffix) {
		path += suffix
	}
	content, err := formatter.Format(outcomes, meta)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func formatPrice(cents int) string {
	if cents <= 0 {
		return ""
	}
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func formatScore(outcome dispatch.Outcome) string {
	if outcome.Result.Best == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", outcome.Result.Best.Final)
}

func matchLabel(outcome dispatch.Outcome) string {
	best := outcome.Result.Best
	if best == nil || best.Candidate == nil {
		return ""
	}
	if best.Candidate.Author != "" {
		return best.Candidate.Title + " by " + best.Candidate.Author
	}
	return best.Candidate.Title
}
