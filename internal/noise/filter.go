// Package noise drops running headers, footers, page numbers and section
// captions from reconstructed lines.
package noise

import (
	"regexp"
	"strings"

	"github.com/dgallion1/bteparse/internal/doctree"
)

// PublicationName appears in every running header of the bulletin.
const PublicationName = "Boletim do Trabalho e Emprego"

var (
	pageNumberRe = regexp.MustCompile(`^\d+$`)
	issueMarkRe  = regexp.MustCompile(`(?i)n\.\s*º`)
	footerRe     = regexp.MustCompile(`^BTE\s+\d+\s*\|\s*\d+$`)
)

// Filter returns the lines that are not noise, in their original order.
func Filter(lines []doctree.LogicalLine) []doctree.LogicalLine {
	out := make([]doctree.LogicalLine, 0, len(lines))
	for _, l := range lines {
		if IsNoise(l.Text) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// IsNoise reports whether a line is boilerplate rather than content.
func IsNoise(text string) bool {
	t := strings.TrimSpace(text)
	switch {
	case pageNumberRe.MatchString(t):
		return true
	case strings.Contains(t, PublicationName):
		return true
	case isRunningHeader(t):
		return true
	case footerRe.MatchString(t):
		return true
	case captionRe.MatchString(t):
		return true
	}
	return false
}

func isRunningHeader(t string) bool {
	return strings.Contains(t, "Vol.") && issueMarkRe.MatchString(t) && strings.Contains(t, "|")
}
