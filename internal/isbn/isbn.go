package isbn

import (
	"regexp"
	"strings"
)

var (
	exportFormulaPattern = regexp.MustCompile(`="([^"]*)"`)
	isbn10Pattern        = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13Pattern        = regexp.MustCompile(`^\d{13}$`)
)

// UnwrapExportCell extracts an ISBN from a spreadsheet export cell.
// Goodreads-style exports wrap ISBN columns in Excel formulas such as
// ="9780262046480" to keep leading zeros; plain cell values are accepted
// as-is when they look like an ISBN. Returns "" when the cell holds no ISBN.
func UnwrapExportCell(cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return ""
	}

	if m := exportFormulaPattern.FindStringSubmatch(cell); m != nil {
		return strings.TrimSpace(m[1])
	}

	cleaned := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(cell))
	if isbn10Pattern.MatchString(cleaned) || isbn13Pattern.MatchString(cleaned) {
		return cleaned
	}
	return ""
}

// Normalize strips separators and upper-cases an ISBN. Returns "" when the
// input is not a structurally valid 10- or 13-digit ISBN.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	normalized := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(raw)))
	if isbn10Pattern.MatchString(normalized) || isbn13Pattern.MatchString(normalized) {
		return normalized
	}
	return ""
}

// To13 converts an ISBN-10 to its ISBN-13 form: "978" is prepended to the
// first nine digits and a fresh weighted checksum digit is appended.
// A 13-digit input is returned unchanged. Returns "" for invalid input.
func To13(raw string) string {
	normalized := Normalize(raw)
	switch len(normalized) {
	case 13:
		return normalized
	case 10:
		base := "978" + normalized[:9]
		return base + string(rune('0'+checkDigit13(base)))
	default:
		return ""
	}
}

// Valid reports whether an ISBN-10 or ISBN-13 has a correct checksum.
func Valid(raw string) bool {
	normalized := Normalize(raw)
	switch len(normalized) {
	case 10:
		sum := 0
		for i, ch := range normalized {
			digit := int(ch - '0')
			if ch == 'X' {
				digit = 10
			}
			sum += digit * (10 - i)
		}
		return sum%11 == 0
	case 13:
		sum := 0
		for i, ch := range normalized {
			weight := 1
			if i%2 == 1 {
				weight = 3
			}
			sum += int(ch-'0') * weight
		}
		return sum%10 == 0
	default:
		return false
	}
}

// Variants returns both representations of an ISBN where derivable: the
// normalized input plus its converted counterpart. ISBN-13 values outside
// the 978 prefix have no ISBN-10 form and yield a single variant.
func Variants(raw string) []string {
	normalized := Normalize(raw)
	if normalized == "" {
		return nil
	}

	variants := []string{normalized}
	switch {
	case len(normalized) == 10:
		if converted := To13(normalized); converted != "" {
			variants = append(variants, converted)
		}
	case len(normalized) == 13 && strings.HasPrefix(normalized, "978"):
		base := normalized[3:12]
		sum := 0
		for i, ch := range base {
			sum += int(ch-'0') * (10 - i)
		}
		check := (11 - sum%11) % 11
		if check == 10 {
			variants = append(variants, base+"X")
		} else {
			variants = append(variants, base+string(rune('0'+check)))
		}
	}
	return variants
}

// Equal reports whether two raw ISBN values identify the same book once
// both are remapped to 13-digit form. Empty or invalid values never match.
func Equal(a, b string) bool {
	a13 := To13(a)
	b13 := To13(b)
	return a13 != "" && a13 == b13
}

func checkDigit13(base string) int {
	sum := 0
	for i, ch := range base {
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		sum += int(ch-'0') * weight
	}
	return (10 - sum%10) % 10
}
