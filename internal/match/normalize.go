package match

import (
	"regexp"
	"strings"
)

// TitleVariant is the normalized decomposition of a raw title string.
type TitleVariant struct {
	// Main is the lower-cased title with articles, decorations, and any
	// subtitle removed.
	Main string
	// Subtitle is the normalized text after the first real colon, "" when
	// the title has none.
	Subtitle string
	// Article is the leading article ("the", "a", "an") stripped from the
	// title, preserved so display forms can be restored.
	Article string
}

var (
	seriesMarkerPattern = regexp.MustCompile(`\(([^)]*#\d+[^)]*|(?:book|vol(?:ume)?\.?|part|no\.?)\s*\d+[^)]*)\)`)
	editionSuffixes     = []*regexp.Regexp{
		regexp.MustCompile(`[\s,:-]+\d+(?:st|nd|rd|th)\s+(?:anniversary\s+)?edition$`),
		regexp.MustCompile(`[\s,:-]+(?:revised|expanded|updated|special|deluxe|collector'?s|anniversary|illustrated)(?:\s+edition)?$`),
		regexp.MustCompile(`[\s,:-]+(?:vol\.?|volume|book)\s*\d+$`),
	}
	trailingNumeralPattern = regexp.MustCompile(`\s+#?(\d{1,2})$`)
	dashRunPattern         = regexp.MustCompile(`[-\x{2013}\x{2014}]{2,}`)
	whitespacePattern      = regexp.MustCompile(`\s+`)
)

var punctuationNormalizer = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
)

// Normalize canonicalizes a raw title into a comparable variant. It is
// total: malformed input degrades to a best-effort result rather than
// failing, and an empty string yields the zero TitleVariant.
func Normalize(raw string) TitleVariant {
	s := punctuationNormalizer.Replace(raw)
	s = dashRunPattern.ReplaceAllString(s, "-")
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespacePattern.ReplaceAllString(s, " ")

	s = seriesMarkerPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")

	s, article := stripArticle(s)

	main, subtitle := splitSubtitle(s)
	main = stripDecorations(main)
	subtitle = stripDecorations(subtitle)

	if main == "" && subtitle != "" {
		main, subtitle = subtitle, ""
	}

	return TitleVariant{Main: main, Subtitle: subtitle, Article: article}
}

// Recombined reassembles the variant into a single title string, article
// included, such that normalizing the result is a no-op.
func (v TitleVariant) Recombined() string {
	s := v.Main
	if v.Subtitle != "" {
		s += ": " + v.Subtitle
	}
	if v.Article != "" {
		s = v.Article + " " + s
	}
	return s
}

// comparable returns the article-free form used for similarity scoring.
func (v TitleVariant) comparable() string {
	if v.Subtitle != "" {
		return v.Main + ": " + v.Subtitle
	}
	return v.Main
}

// Variations expands a normalized title into its alternate query forms, in
// priority order: full title with ": ", main title alone, full title with
// " - ", and main title with the stripped article restored. The sequence is
// deterministic and contains 1-4 unique non-empty entries.
func (v TitleVariant) Variations() []string {
	candidates := make([]string, 0, 4)
	if v.Subtitle != "" {
		candidates = append(candidates, v.Main+": "+v.Subtitle)
	}
	candidates = append(candidates, v.Main)
	if v.Subtitle != "" {
		candidates = append(candidates, v.Main+" - "+v.Subtitle)
	}
	if v.Article != "" {
		candidates = append(candidates, v.Article+" "+v.Main)
	}

	seen := make(map[string]struct{}, len(candidates))
	variations := candidates[:0]
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		variations = append(variations, c)
	}
	return variations
}

func stripArticle(s string) (string, string) {
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, article) {
			rest := strings.TrimSpace(s[len(article):])
			if rest != "" {
				return rest, strings.TrimSpace(article)
			}
		}
	}
	return s, ""
}

// splitSubtitle splits on the first colon that is neither inside
// parentheses nor between digits, so "10:04" and "(vol 1: reissue)" stay
// intact.
func splitSubtitle(s string) (string, string) {
	depth := 0
	runes := []rune(s)
	for i, r := range runes {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth > 0 {
				continue
			}
			if i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
				continue
			}
			main := strings.TrimSpace(string(runes[:i]))
			subtitle := strings.TrimSpace(string(runes[i+1:]))
			if main == "" {
				return subtitle, ""
			}
			return main, subtitle
		}
	}
	return strings.TrimSpace(s), ""
}

// stripDecorations removes trailing edition markers and standalone volume
// numerals. A bare trailing numeral is only treated as a volume marker when
// it is small and the rest of the title survives; "fahrenheit 451" keeps
// its number, "mistborn 2" loses it.
func stripDecorations(s string) string {
	if s == "" {
		return s
	}
	for changed := true; changed; {
		changed = false
		for _, pattern := range editionSuffixes {
			if stripped := pattern.ReplaceAllString(s, ""); stripped != s && strings.TrimSpace(stripped) != "" {
				s = strings.TrimSpace(stripped)
				changed = true
			}
		}
	}
	if m := trailingNumeralPattern.FindStringSubmatch(s); m != nil {
		if rest := strings.TrimSpace(strings.TrimSuffix(s, m[0])); rest != "" {
			s = rest
		}
	}
	return strings.TrimSpace(s)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
