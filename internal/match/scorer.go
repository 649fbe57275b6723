package match

import (
	"regexp"
	"strings"

	"github.com/hbollon/go-edlib"

	"bookmatch/internal/isbn"
)

// Scoring constants. The short-title cap keeps generic one- or two-word
// titles ("It") from passing on raw character similarity alone; it sits
// below every sane threshold.
const (
	maxScore             = 100.0
	isbnPrefixBonus      = 10.0
	authorBonus          = 15.0
	shortTitleCap        = 59.0
	shortTitleTokenLimit = 3
	longTitleLength      = 50
	longTitleTokenSetW   = 0.60
	authorSimilarityMin  = 0.5
)

// Weights holds the blend of the four similarity primitives. The four
// values must sum to 1.0; configuration load validates this before any
// scoring happens.
type Weights struct {
	Ratio          float64
	PartialRatio   float64
	TokenSortRatio float64
	TokenSetRatio  float64
}

// DefaultWeights returns the empirically tuned blend.
func DefaultWeights() Weights {
	return Weights{
		Ratio:          0.15,
		PartialRatio:   0.20,
		TokenSortRatio: 0.25,
		TokenSetRatio:  0.40,
	}
}

// Sum returns the total of the four weights.
func (w Weights) Sum() float64 {
	return w.Ratio + w.PartialRatio + w.TokenSortRatio + w.TokenSetRatio
}

// Query is a single reading-list entry to be matched. ISBN, when present,
// holds the normalized 13-digit form.
type Query struct {
	Title  string
	Author string
	ISBN   string
}

// Candidate is one scraped store listing. All fields are read-only to the
// matching engine; missing values degrade the score, they never fail it.
type Candidate struct {
	Title      string
	Author     string
	ISBN       string
	PriceCents int
	URL        string
	ImageURL   string
}

// Breakdown is the auditable result of evaluating one query against one
// candidate. Final is always within [0,100].
type Breakdown struct {
	Base         float64
	ISBNBonus    float64
	AuthorBonus  float64
	Final        float64
	PriceFlagged bool
	Candidate    *Candidate
}

// ScoreOptions carries the scorer knobs that come from configuration.
type ScoreOptions struct {
	Weights Weights
	// Threshold is the pass threshold; the short-title gate caps scores
	// just under it.
	Threshold float64
	// RequireAuthorMatch gates fuzzy matches on author similarity when both
	// sides name an author.
	RequireAuthorMatch bool
	// PriceCeilingCents flags (never rescores) candidates above this price.
	// Zero disables the flag.
	PriceCeilingCents int
}

// Score evaluates a candidate against the query's title variations and
// returns the full breakdown. The maximum base score across all
// (variation, candidate title) pairs is kept, then ISBN and author bonuses
// are applied with clamping at 100.
func Score(query Query, variations []string, cand Candidate, opts ScoreOptions) Breakdown {
	candTitle := Normalize(cand.Title).comparable()

	base := 0.0
	for _, variation := range variations {
		if score := blendedScore(variation, candTitle, opts); score > base {
			base = score
		}
	}

	breakdown := Breakdown{Base: base, Final: base, Candidate: &cand}

	isbnExact := false
	queryISBN := isbn.To13(query.ISBN)
	candISBN := isbn.To13(cand.ISBN)
	if queryISBN != "" && candISBN != "" {
		switch {
		case queryISBN == candISBN:
			isbnExact = true
			breakdown.ISBNBonus = maxScore - breakdown.Final
			breakdown.Final = maxScore
		case queryISBN[:9] == candISBN[:9]:
			breakdown.ISBNBonus = isbnPrefixBonus
			breakdown.Final = clamp(breakdown.Final + isbnPrefixBonus)
		}
	}

	queryAuthor := normalizeAuthor(query.Author)
	candAuthor := normalizeAuthor(cand.Author)
	if queryAuthor != "" && candAuthor != "" {
		if queryAuthor == candAuthor {
			breakdown.AuthorBonus = authorBonus
			breakdown.Final = clamp(breakdown.Final + authorBonus)
		} else if opts.RequireAuthorMatch && !isbnExact {
			similarity := float64(edlib.JaroWinklerSimilarity(queryAuthor, candAuthor))
			if similarity < authorSimilarityMin {
				if ceiling := gateCap(opts.Threshold); breakdown.Final > ceiling {
					breakdown.Final = ceiling
				}
			}
		}
	}

	if opts.PriceCeilingCents > 0 && cand.PriceCents > opts.PriceCeilingCents {
		breakdown.PriceFlagged = true
	}

	breakdown.Final = clamp(breakdown.Final)
	return breakdown
}

// blendedScore computes the weighted sub-score blend for one variation
// against the candidate title, applying length-adaptive reweighting and
// the short-title token-overlap gate.
func blendedScore(variation, candTitle string, opts ScoreOptions) float64 {
	weights := opts.Weights
	if weights.Sum() == 0 {
		weights = DefaultWeights()
	}
	weights = adaptWeights(weights, variation, candTitle)

	score := weights.Ratio*Ratio(variation, candTitle) +
		weights.PartialRatio*PartialRatio(variation, candTitle) +
		weights.TokenSortRatio*TokenSortRatio(variation, candTitle) +
		weights.TokenSetRatio*TokenSetRatio(variation, candTitle)

	if gated(variation, candTitle) {
		if ceiling := gateCap(opts.Threshold); score > ceiling {
			score = ceiling
		}
	}
	return clamp(score)
}

// adaptWeights shifts weight toward the token-set primitive for long
// titles, where subtitle noise and series decorations dominate character
// level similarity. The other three weights shrink proportionally so the
// blend still sums to 1.0.
func adaptWeights(w Weights, a, b string) Weights {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest <= longTitleLength || w.TokenSetRatio >= longTitleTokenSetW {
		return w
	}

	rest := w.Ratio + w.PartialRatio + w.TokenSortRatio
	if rest <= 0 {
		return w
	}
	scale := (1 - longTitleTokenSetW) / rest
	return Weights{
		Ratio:          w.Ratio * scale,
		PartialRatio:   w.PartialRatio * scale,
		TokenSortRatio: w.TokenSortRatio * scale,
		TokenSetRatio:  longTitleTokenSetW,
	}
}

// gated reports whether the short-title token-overlap gate fires: when
// either side has at most three tokens, fewer than two shared tokens caps
// the score. Identical titles are exempt, so one-word exact matches still
// score 100, while "it" against "it ends with us" stays capped.
func gated(a, b string) bool {
	if a == b {
		return false
	}
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	shortest := len(tokensA)
	if len(tokensB) < shortest {
		shortest = len(tokensB)
	}
	if shortest == 0 || shortest > shortTitleTokenLimit {
		return false
	}

	setB := tokenSet(b)
	shared := 0
	for _, token := range tokensA {
		if _, ok := setB[token]; ok {
			shared++
			delete(setB, token)
		}
	}
	return shared < 2
}

// gateCap returns the score ceiling applied by the overlap and author
// gates: just under the pass threshold, never above the fixed cap.
func gateCap(threshold float64) float64 {
	ceiling := shortTitleCap
	if threshold > 0 && threshold-1 < ceiling {
		ceiling = threshold - 1
	}
	if ceiling < 0 {
		ceiling = 0
	}
	return ceiling
}

var authorPunctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// normalizeAuthor lower-cases and strips punctuation so "J.R.R. Tolkien"
// and "JRR Tolkien" compare equal.
func normalizeAuthor(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = authorPunctuation.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
