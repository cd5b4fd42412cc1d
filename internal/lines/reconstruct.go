// Package lines rebuilds reading-order text lines from positioned runs.
package lines

import (
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/bteparse/internal/doctree"
)

// YTolerance is the maximum vertical distance between two runs on the same line.
const YTolerance = 5.0

// Reconstruct groups each page's runs into logical lines, pages in order.
func Reconstruct(pages [][]doctree.PositionedRun) []doctree.LogicalLine {
	var out []doctree.LogicalLine
	for i, page := range pages {
		out = append(out, reconstructPage(i, page)...)
	}
	return out
}

func reconstructPage(pageIndex int, runs []doctree.PositionedRun) []doctree.LogicalLine {
	if len(runs) == 0 {
		return nil
	}

	sorted := make([]doctree.PositionedRun, len(runs))
	copy(sorted, runs)
	sortReadingOrder(sorted)

	var (
		out   []doctree.LogicalLine
		buf   strings.Builder
		lastY float64
		open  bool
	)

	flush := func() {
		if open {
			if t := strings.TrimSpace(buf.String()); t != "" {
				out = append(out, doctree.LogicalLine{Text: t, Y: lastY, PageIndex: pageIndex})
			}
		}
		buf.Reset()
		open = false
	}

	for _, r := range sorted {
		if open && math.Abs(r.Y-lastY) > YTolerance {
			flush()
		}
		buf.WriteString(r.Text)
		lastY = r.Y
		open = true
		if r.EndsLine {
			flush()
		}
	}
	flush()

	return out
}

// sortReadingOrder orders runs top-to-bottom, then left-to-right. Ties on
// position fall back to content so the result never depends on input order.
func sortReadingOrder(runs []doctree.PositionedRun) {
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Text != b.Text {
			return a.Text < b.Text
		}
		return !a.EndsLine && b.EndsLine
	})
}
