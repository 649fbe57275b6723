package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"bookmatch/internal/dispatch"
)

// buildTable assembles the shared report table; the per-format renderers
// only differ in which go-pretty render call they make.
func buildTable(outcomes []dispatch.Outcome, meta Metadata) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("bookmatch run %s", meta.RunID))
	tw.AppendHeader(table.Row{"Reading List Title", "Store Match", "Score", "Status", "Price", "Link"})

	for _, outcome := range outcomes {
		price := ""
		link := ""
		if best := outcome.Result.Best; best != nil && best.Candidate != nil {
			price = formatPrice(best.Candidate.PriceCents)
			if best.PriceFlagged {
				price += " !"
			}
			link = best.Candidate.URL
		}
		tw.AppendRow(table.Row{
			outcome.Query.Title,
			matchLabel(outcome),
			formatScore(outcome),
			string(outcome.Status),
			price,
			link,
		})
	}

	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d searched", meta.TotalSearched),
		fmt.Sprintf("%d matched", meta.TotalMatched),
		fmt.Sprintf("cutoff %.0f", meta.Threshold),
		"", "", "",
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw
}

type textFormatter struct{}

func (textFormatter) Format(outcomes []dispatch.Outcome, meta Metadata) (string, error) {
	return buildTable(outcomes, meta).Render() + "\n", nil
}

func (textFormatter) Extension() string { return "txt" }

type csvFormatter struct{}

func (csvFormatter) Format(outcomes []dispatch.Outcome, meta Metadata) (string, error) {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Reading List Title", "Store Match", "Score", "Status", "Price", "Link"})
	for _, outcome := range outcomes {
		price := ""
		link := ""
		if best := outcome.Result.Best; best != nil && best.Candidate != nil {
			price = formatPrice(best.Candidate.PriceCents)
			link = best.Candidate.URL
		}
		tw.AppendRow(table.Row{
			outcome.Query.Title,
			matchLabel(outcome),
			formatScore(outcome),
			string(outcome.Status),
			price,
			link,
		})
	}
	return tw.RenderCSV() + "\n", nil
}

func (csvFormatter) Extension() string { return "csv" }

type markdownFormatter struct{}

func (markdownFormatter) Format(outcomes []dispatch.Outcome, meta Metadata) (string, error) {
	var builder strings.Builder
	builder.WriteString("# BookOutlet Matches\n\n")
	fmt.Fprintf(&builder, "Found **%d** matches out of **%d** books (threshold: %.0f).\n\n",
		meta.TotalMatched, meta.TotalSearched, meta.Threshold)
	if len(outcomes) == 0 {
		builder.WriteString("_No matches found._\n")
		return builder.String(), nil
	}
	builder.WriteString(buildTable(outcomes, meta).RenderMarkdown())
	builder.WriteString("\n")
	return builder.String(), nil
}

func (markdownFormatter) Extension() string { return "md" }

type htmlFormatter struct{}

func (htmlFormatter) Format(outcomes []dispatch.Outcome, meta Metadata) (string, error) {
	var builder strings.Builder
	builder.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	builder.WriteString("<title>BookOutlet Matches</title>\n</head>\n<body>\n")
	fmt.Fprintf(&builder, "<p>Found %d matches out of %d books (threshold: %.0f).</p>\n",
		meta.TotalMatched, meta.TotalSearched, meta.Threshold)
	builder.WriteString(buildTable(outcomes, meta).RenderHTML())
	builder.WriteString("\n</body>\n</html>\n")
	return builder.String(), nil
}

func (htmlFormatter) Extension() string { return "html" }

type jsonFormatter struct{}

type jsonMetadata struct {
	RunID         string  `json:"run_id"`
	GeneratedAt   string  `json:"generated_at"`
	Tool          string  `json:"tool"`
	TotalSearched int     `json:"total_searched"`
	TotalMatches  int     `json:"total_matches"`
	Threshold     float64 `json:"threshold"`
}

type jsonMatch struct {
	ReadingListTitle string  `json:"goodreads_title"`
	StoreMatch       string  `json:"bookoutlet_match,omitempty"`
	Score            float64 `json:"score"`
	Status           string  `json:"status"`
	Price            string  `json:"price,omitempty"`
	PriceFlagged     bool    `json:"price_flagged,omitempty"`
	URL              string  `json:"url,omitempty"`
	CoverURL         string  `json:"cover_url,omitempty"`
}

type jsonReport struct {
	Metadata jsonMetadata `json:"metadata"`
	Matches  []jsonMatch  `json:"matches"`
}

func (jsonFormatter) Format(outcomes []dispatch.Outcome, meta Metadata) (string, error) {
	report := jsonReport{
		Metadata: jsonMetadata{
			RunID:         meta.RunID,
			GeneratedAt:   meta.GeneratedAt.Format(time.RFC3339),
			Tool:          "bookmatch",
			TotalSearched: meta.TotalSearched,
			TotalMatches:  meta.TotalMatched,
			Threshold:     meta.Threshold,
		},
		Matches: make([]jsonMatch, 0, len(outcomes)),
	}

	for _, outcome := range outcomes {
		entry := jsonMatch{
			ReadingListTitle: outcome.Query.Title,
			Status:           string(outcome.Status),
		}
		if best := outcome.Result.Best; best != nil {
			entry.Score = best.Final
			entry.PriceFlagged = best.PriceFlagged
			if best.Candidate != nil {
				entry.StoreMatch = matchLabel(outcome)
				entry.Price = formatPrice(best.Candidate.PriceCents)
				entry.URL = best.Candidate.URL
				entry.CoverURL = best.Candidate.ImageURL
			}
		}
		report.Matches = append(report.Matches, entry)
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return string(payload) + "\n", nil
}

func (jsonFormatter) Extension() string { return "json" }
