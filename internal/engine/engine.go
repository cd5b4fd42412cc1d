// Package engine runs the full layout-to-tree pass for one bulletin.
//
// Parse is pure and synchronous: everything it allocates is scoped to the
// call, and the only shared data are read-only lookup tables, so callers may
// run one Parse per goroutine without coordination.
package engine

import (
	"github.com/dgallion1/bteparse/internal/doctree"
	"github.com/dgallion1/bteparse/internal/lines"
	"github.com/dgallion1/bteparse/internal/metadata"
	"github.com/dgallion1/bteparse/internal/noise"
	"github.com/dgallion1/bteparse/internal/structure"
)

// Source describes where a document came from and what its publisher
// declared about it. Year and Number are only used as metadata fallbacks.
type Source struct {
	Type   doctree.DocType
	Year   int
	Number string
	URL    string
}

// Stats summarizes one parse for logging.
type Stats struct {
	RawLines  int
	KeptLines int
	Diplomas  int
	Chapters  int
	Articles  int
}

// Parse turns per-page positioned runs into a document record. It never
// fails: missing signals degrade to defaults.
func Parse(pages [][]doctree.PositionedRun, src Source) doctree.Record {
	rec, _ := ParseWithStats(pages, src)
	return rec
}

// ParseWithStats is Parse plus line and node counts.
func ParseWithStats(pages [][]doctree.PositionedRun, src Source) (doctree.Record, Stats) {
	raw := lines.Reconstruct(pages)

	// The masthead is itself boilerplate, so metadata reads the raw lines.
	md := metadata.Extract(raw, metadata.Fallback{
		Type:   src.Type,
		Year:   src.Year,
		Number: src.Number,
	})

	kept := noise.Filter(raw)
	root := structure.Build(kept)
	structure.Normalize(root)

	counts := doctree.CountKinds(root)
	stats := Stats{
		RawLines:  len(raw),
		KeptLines: len(kept),
		Diplomas:  counts[doctree.KindDiploma],
		Chapters:  counts[doctree.KindChapter],
		Articles:  counts[doctree.KindArticle],
	}

	return doctree.Record{
		Type:      src.Type,
		Reference: md.Reference,
		ISODate:   md.ISODate,
		SourceURL: src.URL,
		Root:      root,
	}, stats
}
