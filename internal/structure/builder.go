// Package structure turns cleaned lines into the diploma/chapter/article tree
// and normalizes its text.
package structure

import (
	"strings"

	"github.com/dgallion1/bteparse/internal/doctree"
)

// Build assembles the document tree from noise-filtered lines.
func Build(lines []doctree.LogicalLine) *doctree.Node {
	root := doctree.NewNode(doctree.KindRoot, "")

	// Open nodes, outermost first. The root is never popped.
	stack := []*doctree.Node{root}
	var orphans []string

	popUntil := func(kinds ...doctree.Kind) {
		for len(stack) > 1 && !hasKind(stack[len(stack)-1], kinds) {
			stack = stack[:len(stack)-1]
		}
	}
	push := func(n *doctree.Node) {
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, n)
		stack = append(stack, n)
	}

	for i := 0; i < len(lines); i++ {
		text := strings.TrimSpace(lines[i].Text)
		if text == "" {
			continue
		}

		kind := classify(text)
		if kind == "" {
			top := stack[len(stack)-1]
			if top.Kind == doctree.KindRoot {
				orphans = append(orphans, text)
				continue
			}
			top.AppendText(text)
			continue
		}

		header := text
		if !isPreamble(text) {
			var consumed int
			header, consumed = mergeHeader(text, lines[i+1:])
			i += consumed
		}

		switch kind {
		case doctree.KindDiploma:
			stack = stack[:1]
		case doctree.KindChapter:
			popUntil(doctree.KindDiploma, doctree.KindRoot)
		case doctree.KindArticle:
			popUntil(doctree.KindChapter, doctree.KindDiploma, doctree.KindRoot)
		}
		push(doctree.NewNode(kind, header))
	}

	// Nothing structural anywhere: keep the text as one header-less diploma.
	if len(root.Children) == 0 && len(orphans) > 0 {
		n := doctree.NewNode(doctree.KindDiploma, "")
		for _, o := range orphans {
			n.AppendText(o)
		}
		root.Children = append(root.Children, n)
	}

	return root
}

// mergeHeader greedily appends continuation lines to a header and reports
// how many lines it consumed.
func mergeHeader(header string, rest []doctree.LogicalLine) (string, int) {
	consumed := 0
	for _, l := range rest {
		if !isContinuation(l.Text) {
			break
		}
		header += " " + strings.TrimSpace(l.Text)
		consumed++
	}
	return header, consumed
}

func hasKind(n *doctree.Node, kinds []doctree.Kind) bool {
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}
