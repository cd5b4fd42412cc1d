package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/bteparse/internal/doctree"
)

// Heading run sizes in half-points.
var docxHeadingSize = map[doctree.Kind]string{
	doctree.KindDiploma: "28",
	doctree.KindChapter: "26",
	doctree.KindArticle: "24",
}

// DOCX writes rec as a Word document: one bold paragraph per header and
// one paragraph per body line.
func DOCX(w io.Writer, rec *doctree.Record) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText(rec.Reference).Bold().Size("32")
	doc.AddParagraph().AddText(fmt.Sprintf("%s · %s", rec.ISODate, rec.Type)).Italic()
	if rec.SourceURL != "" {
		doc.AddParagraph().AddText(rec.SourceURL).Color("808080")
	}

	if rec.Root != nil {
		for _, c := range rec.Root.Children {
			addNode(doc, c)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func addNode(doc *docx.Docx, n *doctree.Node) {
	if h := n.HeaderText(); h != "" {
		doc.AddParagraph().AddText(strings.ReplaceAll(h, "\n", " ")).Bold().Size(docxHeadingSize[n.Kind])
	}
	if body := strings.TrimSpace(n.BodyText()); body != "" {
		for _, line := range strings.Split(body, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				doc.AddParagraph().AddText(line)
			}
		}
	}
	for _, c := range n.Children {
		addNode(doc, c)
	}
}
