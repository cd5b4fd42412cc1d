// Package render turns stored records into Markdown, HTML and DOCX for
// reading and export.
package render

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/dgallion1/bteparse/internal/doctree"
)

var (
	inlineEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`,
		`[`, `\[`, `]`, `\]`, `<`, `\<`, `>`, `\>`, `|`, `\|`,
	)
	// Line starts that goldmark would read as a block construct.
	blockStartRe   = regexp.MustCompile(`^([#+\-=~])`)
	orderedStartRe = regexp.MustCompile(`^(\d{1,9})([.)])`)

	sanitizer = bluemonday.UGCPolicy()
)

// headingLevel maps node kinds to Markdown heading depth. The record
// reference takes level 1.
var headingLevel = map[doctree.Kind]int{
	doctree.KindDiploma: 2,
	doctree.KindChapter: 3,
	doctree.KindArticle: 4,
}

// Markdown renders rec as a Markdown document. Body line breaks are kept
// as hard breaks so list items stay on their own lines.
func Markdown(rec *doctree.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escapeLine(rec.Reference))
	fmt.Fprintf(&b, "*%s · %s*\n\n", rec.ISODate, rec.Type)
	if rec.SourceURL != "" {
		fmt.Fprintf(&b, "<%s>\n\n", rec.SourceURL)
	}

	if rec.Root != nil {
		for _, c := range rec.Root.Children {
			writeNode(&b, c)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeNode(b *strings.Builder, n *doctree.Node) {
	if h := n.HeaderText(); h != "" {
		b.WriteString(strings.Repeat("#", headingLevel[n.Kind]))
		b.WriteByte(' ')
		b.WriteString(escapeLine(strings.ReplaceAll(h, "\n", " ")))
		b.WriteString("\n\n")
	}
	if body := strings.TrimSpace(n.BodyText()); body != "" {
		lines := strings.Split(body, "\n")
		for i, l := range lines {
			lines[i] = escapeLine(strings.TrimSpace(l))
		}
		b.WriteString(strings.Join(lines, "\\\n"))
		b.WriteString("\n\n")
	}
	for _, c := range n.Children {
		writeNode(b, c)
	}
}

func escapeLine(s string) string {
	s = inlineEscaper.Replace(s)
	if m := orderedStartRe.FindStringSubmatchIndex(s); m != nil {
		return s[:m[4]] + `\` + s[m[4]:]
	}
	return blockStartRe.ReplaceAllString(s, `\$1`)
}

// HTML renders rec as a standalone HTML page through the Markdown form.
func HTML(rec *doctree.Record) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.New().Convert([]byte(Markdown(rec)), &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	// Record text comes from third-party PDFs; strip anything beyond
	// user-content markup before serving it.
	clean := sanitizer.SanitizeBytes(body.Bytes())

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html lang=\"pt\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n</head>\n<body>\n", html.EscapeString(rec.Reference))
	out.Write(clean)
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
