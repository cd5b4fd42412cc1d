package structure

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/bteparse/internal/doctree"
)

var (
	spacedHyphenRe = regexp.MustCompile(`(\pL)[ \t]+-[ \t]+(\pL)`)
	wrapHyphenRe   = regexp.MustCompile(`(\pL)-[ \t]*\n[ \t]*(\pL)`)
	hspaceRe       = regexp.MustCompile(`[^\S\n]+`)
	newlineSpaceRe = regexp.MustCompile(` ?\n ?`)

	// listItemRe matches a line that continues an enumeration: "1.", "2)",
	// "3 -", "a)", "b." or the same marker after a list word ("item 2.",
	// "alínea b)", "número 3.").
	listItemRe = regexp.MustCompile(`^(?:(?i:item|alínea|alinea|número|numero)[ \t]+)?(?:(?:\d{1,3}|[a-z])[.)]|\d{1,3}[ \t]*[-–])(?:\s|$)`)
)

// Normalize repairs line-wrap artifacts and whitespace in every node of the
// tree, in place.
func Normalize(root *doctree.Node) {
	doctree.Walk(root, func(n *doctree.Node) bool {
		if n.Text != nil {
			t := NormalizeText(*n.Text)
			n.Text = &t
		}
		if n.Header != nil {
			h := normalizeHeader(*n.Header)
			n.Header = &h
		}
		return true
	})
}

// NormalizeText applies the body-text repairs until nothing changes, so
// NormalizeText(NormalizeText(s)) == NormalizeText(s).
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	for {
		next := norm.NFC.String(normalizePass(s))
		if next == s {
			return s
		}
		s = next
	}
}

func normalizePass(s string) string {
	s = replaceToFixpoint(spacedHyphenRe, s)
	s = replaceToFixpoint(wrapHyphenRe, s)
	s = joinWrappedLines(s)
	s = hspaceRe.ReplaceAllString(s, " ")
	s = newlineSpaceRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// replaceToFixpoint joins the two captured letters until no match remains.
// Matches cannot overlap, so "a - b - c" needs two rounds.
func replaceToFixpoint(re *regexp.Regexp, s string) string {
	for {
		next := re.ReplaceAllString(s, "$1$2")
		if next == s {
			return s
		}
		s = next
	}
}

// joinWrappedLines replaces newlines with spaces except before a line that
// starts an enumerated item.
func joinWrappedLines(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	parts := strings.Split(s, "\n")
	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if listItemRe.MatchString(strings.TrimLeft(p, " \t")) {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

func normalizeHeader(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
