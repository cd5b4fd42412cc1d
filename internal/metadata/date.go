package metadata

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// months maps Portuguese month names to two-digit month codes.
var months = map[string]string{
	"janeiro":   "01",
	"fevereiro": "02",
	"março":     "03",
	"marco":     "03",
	"abril":     "04",
	"maio":      "05",
	"junho":     "06",
	"julho":     "07",
	"agosto":    "08",
	"setembro":  "09",
	"outubro":   "10",
	"novembro":  "11",
	"dezembro":  "12",
}

var (
	// datePhraseRe finds "8 de fevereiro de 2024" style phrases.
	datePhraseRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(?:de\s+)?(\p{L}+)\s+(?:de\s+)?(\d{4})\b`)
	numericDate  = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{4})$`)
	deConnector  = regexp.MustCompile(`\bde\b`)
)

// FindDatePhrase returns the first localized date phrase in s whose month
// token is a known month name, or "".
func FindDatePhrase(s string) string {
	for _, m := range datePhraseRe.FindAllStringSubmatchIndex(s, -1) {
		month := strings.ToLower(s[m[4]:m[5]])
		if _, ok := months[month]; ok {
			return s[m[0]:m[1]]
		}
	}
	return ""
}

// ParseDate converts a localized or numeric date phrase to YYYY-MM-DD.
// Anything unrecoverable yields <year>-01-01.
func ParseDate(phrase string, year int) string {
	fallback := fmt.Sprintf("%04d-01-01", year)

	p := strings.TrimSpace(strings.ToLower(phrase))
	if p == "" {
		return fallback
	}
	if m := numericDate.FindStringSubmatch(p); m != nil {
		if iso, ok := isoFromParts(m[1], m[2], m[3]); ok {
			return iso
		}
		return fallback
	}

	tokens := strings.Fields(deConnector.ReplaceAllString(p, " "))
	if len(tokens) < 3 {
		return fallback
	}

	day, month, yr := tokens[0], tokens[1], tokens[2]
	if _, ok := months[month]; !ok {
		idx := -1
		for i, tok := range tokens {
			if _, ok := months[tok]; ok {
				idx = i
				break
			}
		}
		if idx <= 0 || idx >= len(tokens)-1 {
			return fallback
		}
		day, month, yr = tokens[idx-1], tokens[idx], tokens[idx+1]
	}

	if iso, ok := isoFromParts(day, months[month], yr); ok {
		return iso
	}
	return fallback
}

func isoFromParts(day, month, year string) (string, bool) {
	d, err := strconv.Atoi(strings.Trim(day, ".,"))
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	y, err := strconv.Atoi(strings.Trim(year, ".,"))
	if err != nil || y < 1000 || y > 9999 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}
