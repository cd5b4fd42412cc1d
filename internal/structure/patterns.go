package structure

import (
	"regexp"
	"strings"

	"github.com/dgallion1/bteparse/internal/doctree"
)

const (
	// maxContinuationLen bounds a header continuation line, in runes.
	maxContinuationLen = 250
	preambleCaption    = "preâmbulo"
)

var (
	diplomaRe = regexp.MustCompile(`^(?:Portaria|Decreto-Lei|Decreto|Despacho|Resolução|Aviso|Deliberação|` +
		`Contrato\s+coletivo|Acordo\s+coletivo|Acordo\s+de\s+empresa|Acordo\s+de\s+adesão|` +
		`Convenção\s+coletiva|Decisão\s+arbitral|Regulamento)\b(?:\s+n\.?\s*[º°o]\s*[\w/.-]+)?`)

	chapterRe = regexp.MustCompile(`^(?i:Capítulo|Secção|Seção|Subsecção|Título|Anexo)\s+(?:[IVXLCDM]+|\d+)\b`)

	articleRe = regexp.MustCompile(`^(?:Artigo|ARTIGO|Cláusula|CLÁUSULA|Base|BASE)\s+(?:\d+|único|ÚNICO)`)

	// enumStartRe matches the start of a numbered or lettered sub-item:
	// "1 -", "2.", "3)", "a)".
	enumStartRe = regexp.MustCompile(`^(?:\d+(?:\.\d+)*\s*[-–.)]|[a-z]\))(?:\s|$)`)

	sentenceEnd = ".;:!?"
)

// classify returns the structural kind of a line, or "" for body content.
func classify(text string) doctree.Kind {
	switch {
	case diplomaRe.MatchString(text):
		return doctree.KindDiploma
	case isPreamble(text) || chapterRe.MatchString(text):
		return doctree.KindChapter
	case articleRe.MatchString(text):
		return doctree.KindArticle
	}
	return ""
}

func isPreamble(text string) bool {
	return strings.ToLower(strings.TrimSpace(text)) == preambleCaption
}

// isContinuation reports whether a line can extend a header split across
// several positional lines.
func isContinuation(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || len([]rune(t)) >= maxContinuationLen {
		return false
	}
	if classify(t) != "" || isPreamble(t) {
		return false
	}
	if enumStartRe.MatchString(t) {
		return false
	}
	return strings.IndexByte(sentenceEnd, t[len(t)-1]) < 0
}
