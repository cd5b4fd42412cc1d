package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/bteparse/internal/doctree"
	"github.com/dgallion1/bteparse/internal/lines"
	pdflib "github.com/ledongthuc/pdf"
)

const (
	// spaceGap and columnGap are fractions of the font size.
	spaceGap  = 0.2
	columnGap = 3.0

	defaultFontSize = 10.0
	fallbackLeading = 12.0
)

// PDFDecoder turns PDF bytes into positioned runs, one slice per page. It
// tries the Go library first, then falls back to pdftotext if enabled.
type PDFDecoder struct {
	FallbackPdftotext bool
}

func (d *PDFDecoder) Decode(r io.Reader) ([][]doctree.PositionedRun, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "bteparse-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := decodeWithLibrary(tmpPath)
	if (err != nil || runCount(pages) == 0) && d.FallbackPdftotext {
		if fb, fbErr := decodeWithPdftotext(tmpPath); fbErr == nil && runCount(fb) > 0 {
			return fb, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode pdf: %w", err)
	}
	return pages, nil
}

func decodeWithLibrary(path string) (pages [][]doctree.PositionedRun, err error) {
	// The library panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf library panic: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages = make([][]doctree.PositionedRun, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages[i-1] = coalesce(i-1, page.Content().Text)
	}
	return pages, nil
}

// coalesce merges glyph-level text into word-spaced runs that share a
// baseline. Newline glyphs mark the preceding run as ending its line.
// Raised or lowered glyphs within lines.YTolerance stay in the current run,
// which keeps the first glyph's Y. A run split off by a gap on the same line
// ends with a space, since lines.Reconstruct joins runs verbatim.
func coalesce(pageIndex int, glyphs []pdflib.Text) []doctree.PositionedRun {
	var (
		runs []doctree.PositionedRun
		cur  strings.Builder
		run  doctree.PositionedRun
		end  float64
		size float64
		open bool
	)

	flush := func(endsLine, sameLine bool) {
		if open && strings.TrimSpace(cur.String()) != "" {
			if sameLine && !strings.HasSuffix(cur.String(), " ") {
				cur.WriteByte(' ')
			}
			run.Text = cur.String()
			run.EndsLine = endsLine
			runs = append(runs, run)
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		if g.S == "\n" || g.S == "\r" || g.S == "\r\n" {
			flush(true, false)
			continue
		}
		if g.S == "" {
			continue
		}

		fs := g.FontSize
		if fs <= 0 {
			fs = defaultFontSize
		}

		if open {
			gap := g.X - end
			sameLine := math.Abs(g.Y-run.Y) <= lines.YTolerance
			if !sameLine || gap > columnGap*size || gap < -size {
				flush(false, sameLine)
			} else if gap > spaceGap*size && !strings.HasSuffix(cur.String(), " ") && !strings.HasPrefix(g.S, " ") {
				cur.WriteByte(' ')
			}
		}

		if !open {
			run = doctree.PositionedRun{X: g.X, Y: g.Y, PageIndex: pageIndex}
			size = fs
			open = true
		}
		cur.WriteString(g.S)
		end = g.X + g.W
		if fs > size {
			size = fs
		}
	}
	flush(false, false)

	return runs
}

func decodeWithPdftotext(path string) ([][]doctree.PositionedRun, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return runsFromLayoutText(string(out)), nil
}

// runsFromLayoutText synthesizes coordinates for plain layout text: one run
// per line, Y descending with the line number, X from the indentation.
func runsFromLayoutText(text string) [][]doctree.PositionedRun {
	var pages [][]doctree.PositionedRun
	for i, page := range splitPages(text) {
		rows := strings.Split(page, "\n")
		var runs []doctree.PositionedRun
		for j, line := range rows {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			runs = append(runs, doctree.PositionedRun{
				Text:      trimmed,
				X:         float64(indent),
				Y:         float64(len(rows)-j) * fallbackLeading,
				PageIndex: i,
				EndsLine:  true,
			})
		}
		pages = append(pages, runs)
	}
	return pages
}

func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	// pdftotext terminates the last page with a form feed too.
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}

func runCount(pages [][]doctree.PositionedRun) int {
	n := 0
	for _, p := range pages {
		n += len(p)
	}
	return n
}
