// Package metadata derives the publication date and canonical reference of a
// bulletin from its first lines.
package metadata

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/bteparse/internal/doctree"
)

// WindowSize is how many leading lines are scanned.
const WindowSize = 10

// Fallback carries the values declared by whoever discovered the document.
type Fallback struct {
	Type   doctree.DocType
	Year   int
	Number string
}

// headerRe matches the bulletin masthead, e.g.
// "Boletim do Trabalho e Emprego, n.º 5 | Vol. 91 | 8 de fevereiro de 2024".
var headerRe = regexp.MustCompile(`(?i)Boletim\s+do\s+Trabalho\s+e\s+Emprego,?\s*n\.?\s*[º°o]\s*(\d+)` +
	`(?:\s*[|,]\s*Vol\.?\s*(\d+))?` +
	`(?:\s*[|,]\s*(\d{1,2}\s+(?:de\s+)?\p{L}+\s+(?:de\s+)?\d{4}|\d{1,2}[./-]\d{1,2}[./-]\d{4}))?`)

// Extract scans the first WindowSize lines for the masthead and date phrase.
// It never fails; missing signals fall back to the declared values.
func Extract(lines []doctree.LogicalLine, fb Fallback) doctree.Metadata {
	window := lines
	if len(window) > WindowSize {
		window = window[:WindowSize]
	}

	number := fb.Number
	var volume, phrase string

	for _, l := range window {
		m := headerRe.FindStringSubmatch(l.Text)
		if m == nil {
			continue
		}
		number, volume, phrase = m[1], m[2], m[3]
		if !recognizedDate(phrase) {
			phrase = ""
		}
		break
	}

	if phrase == "" {
		for _, l := range window {
			if p := FindDatePhrase(l.Text); p != "" {
				phrase = p
				break
			}
		}
	}

	return doctree.Metadata{
		ISODate:   ParseDate(phrase, fb.Year),
		Reference: BuildReference(fb.Type, number, volume, phrase, fb.Year),
	}
}

// recognizedDate reports whether a masthead date names a known month or is a
// valid numeric date.
func recognizedDate(phrase string) bool {
	if m := numericDate.FindStringSubmatch(phrase); m != nil {
		_, ok := isoFromParts(m[1], m[2], m[3])
		return ok
	}
	return FindDatePhrase(phrase) != ""
}

// Label returns the human prefix used in references for a document type.
func Label(t doctree.DocType) string {
	if t == doctree.TypeOffprint {
		return "Separata BTE"
	}
	return "BTE"
}

// BuildReference formats "<label> n.º <number>[, Vol. <volume>], de <phrase>".
// The localized phrase is kept verbatim; without one the year is used.
func BuildReference(t doctree.DocType, number, volume, phrase string, year int) string {
	var b strings.Builder
	b.WriteString(Label(t))
	b.WriteString(" n.º ")
	b.WriteString(number)
	if volume != "" {
		b.WriteString(", Vol. ")
		b.WriteString(volume)
	}
	b.WriteString(", ")

	phrase = strings.TrimSpace(phrase)
	switch {
	case phrase == "":
		b.WriteString("de " + strconv.Itoa(year))
	case strings.HasPrefix(strings.ToLower(phrase), "de "):
		b.WriteString(phrase)
	default:
		b.WriteString(fmt.Sprintf("de %s", phrase))
	}
	return b.String()
}
