package bookoutlet

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bookmatch/internal/isbn"
	"bookmatch/internal/match"
)

var (
	pricePattern   = regexp.MustCompile(`\$\s*(\d+)\.(\d{2})`)
	isbnURLPattern = regexp.MustCompile(`(97[89]\d{10}|\d{9}[\dXx])`)
)

// ParseResults extracts product candidates from a browse page. Each
// product card is an anchor to /products/; the cover image alt text
// carries "Title by Author" and the card body carries the price. Cards
// with no usable title are dropped, malformed prices parse to zero.
func ParseResults(r io.Reader) ([]match.Candidate, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var candidates []match.Candidate
	seen := make(map[string]struct{})
	walk(root, func(node *html.Node) {
		if node.Type != html.ElementNode || node.Data != "a" {
			return
		}
		href := attr(node, "href")
		if !strings.HasPrefix(href, "/products/") {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}

		candidate := match.Candidate{
			URL:  href,
			ISBN: isbnFromURL(href),
		}
		if img := findElement(node, "img"); img != nil {
			candidate.ImageURL = attr(img, "src")
			candidate.Title, candidate.Author = splitAltText(attr(img, "alt"))
		}
		if candidate.Title == "" {
			// Navigation links to /products/ have no cover image.
			return
		}
		candidate.PriceCents = parsePrice(textContent(node))

		seen[href] = struct{}{}
		candidates = append(candidates, candidate)
	})
	return candidates, nil
}

func walk(node *html.Node, visit func(*html.Node)) {
	visit(node)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

func attr(node *html.Node, name string) string {
	for _, a := range node.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func findElement(node *html.Node, name string) *html.Node {
	if node.Type == html.ElementNode && node.Data == name {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, name); found != nil {
			return found
		}
	}
	return nil
}

func textContent(node *html.Node) string {
	var builder strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
			builder.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(node)
	return builder.String()
}

// splitAltText breaks a cover image's "Title by Author" alt text apart.
// The last " by " wins, so titles containing the word keep it.
func splitAltText(alt string) (title, author string) {
	alt = strings.TrimSpace(alt)
	if alt == "" {
		return "", ""
	}
	if idx := strings.LastIndex(alt, " by "); idx > 0 {
		return restoreCase(alt[:idx]), restoreCase(alt[idx+4:])
	}
	return restoreCase(alt), ""
}

var titleCaser = cases.Title(language.English)

// restoreCase tames listings that shout in all caps; mixed-case text is
// left alone.
func restoreCase(s string) string {
	s = strings.TrimSpace(s)
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return s
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	if !hasLetter {
		return s
	}
	return titleCaser.String(strings.ToLower(s))
}

func parsePrice(text string) int {
	m := pricePattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	dollars, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	cents, err := strconv.Atoi(m[2])
	if err != nil {
		return 0
	}
	return dollars*100 + cents
}

// isbnFromURL pulls an ISBN out of a product path when the slug carries
// one, e.g. /products/9780765326355-the-way-of-kings.
func isbnFromURL(href string) string {
	m := isbnURLPattern.FindString(href)
	if m == "" {
		return ""
	}
	return isbn.To13(m)
}
