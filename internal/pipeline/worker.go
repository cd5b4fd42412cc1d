package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/dgallion1/bteparse/internal/doctree"
	"github.com/dgallion1/bteparse/internal/engine"
	"github.com/dgallion1/bteparse/internal/parser"
	"github.com/dgallion1/bteparse/internal/store"
	"github.com/dgallion1/bteparse/internal/validate"
)

// Fetcher retrieves a document by URL.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// DocumentStore is the persistence the worker needs.
type DocumentStore interface {
	FindByHash(ctx context.Context, contentHash string) (*store.Document, error)
	Put(ctx context.Context, contentHash string, rec *doctree.Record) (*store.Document, error)
}

// Worker processes a single document job.
type Worker struct {
	fetcher Fetcher
	decoder parser.Decoder
	docs    DocumentStore
	stats   *Stats
	log     *slog.Logger
}

func NewWorker(fetcher Fetcher, decoder parser.Decoder, docs DocumentStore, stats *Stats, log *slog.Logger) *Worker {
	return &Worker{
		fetcher: fetcher,
		decoder: decoder,
		docs:    docs,
		stats:   stats,
		log:     log,
	}
}

// Process runs the full ingest pipeline for a job. Failures are recorded
// on the job and never affect other jobs.
func (w *Worker) Process(ctx context.Context, job *Job) {
	start := time.Now()
	log := w.log.With("job_id", job.ID, "source_url", job.SourceURL, "filename", job.Filename)

	fail := func(phase string, err error) {
		log.Error(phase+" failed", "error", err)
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
		if w.stats != nil {
			w.stats.Failure()
		}
	}
	dup := func(docID string) {
		log.Info("duplicate document, skipping", "existing_doc_id", docID)
		job.SetDocID(docID)
		job.SetStatus(StatusDupSkipped, "dedup")
		if w.stats != nil {
			w.stats.Duplicate()
		}
	}

	// Phase 1: Fetch
	data := job.FileData()
	if len(data) == 0 {
		if job.SourceURL == "" {
			fail("fetching", errors.New("job has neither data nor source url"))
			return
		}
		if w.fetcher == nil {
			fail("fetching", errors.New("no fetcher configured"))
			return
		}
		job.SetStatus(StatusFetching, "fetching")
		var err error
		data, err = w.fetcher.Get(ctx, job.SourceURL)
		if err != nil {
			fail("fetching", err)
			return
		}
		// The bytes are only needed for the rest of this call.
		job.SetFileData(nil)
	}

	// Phase 1.5: Dedup check
	job.SetContentHash(ContentHashHex(data))
	existing, err := w.docs.FindByHash(ctx, job.ContentHash)
	switch {
	case err == nil:
		dup(existing.ID)
		return
	case !errors.Is(err, store.ErrNotFound):
		log.Warn("dedup check failed, proceeding", "error", err)
	}

	// Phase 2: Decode
	job.SetStatus(StatusDecoding, "decoding")
	if !parser.LooksLikePDF(data) {
		fail("decoding", errors.New("payload is not a PDF"))
		return
	}
	pages, err := w.decoder.Decode(bytes.NewReader(data))
	job.SetFileData(nil)
	if err != nil {
		fail("decoding", err)
		return
	}

	// Phase 3: Parse
	job.SetStatus(StatusParsing, "parsing")
	rec, st := engine.ParseWithStats(pages, w.source(job))
	job.SetCounts(len(pages), st.RawLines, st.KeptLines, st.Diplomas, st.Chapters, st.Articles)
	log.Info("parsed document",
		"pages", len(pages),
		"raw_lines", st.RawLines,
		"kept_lines", st.KeptLines,
		"diplomas", st.Diplomas,
		"chapters", st.Chapters,
		"articles", st.Articles,
		"reference", rec.Reference,
	)

	// Phase 4: Validate
	job.SetStatus(StatusValidating, "validating")
	if err := validate.Record(&rec); err != nil {
		fail("validating", err)
		return
	}

	// Phase 5: Store
	job.SetStatus(StatusStoring, "storing")
	doc, err := w.docs.Put(ctx, job.ContentHash, &rec)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent job carrying the same bytes.
		if existing, ferr := w.docs.FindByHash(ctx, job.ContentHash); ferr == nil {
			dup(existing.ID)
		} else {
			dup("")
		}
		return
	}
	if err != nil {
		fail("storing", err)
		return
	}

	job.SetDocID(doc.ID)
	job.SetStatus(StatusCompleted, "done")
	if w.stats != nil {
		w.stats.Success(time.Since(start))
	}
	log.Info("document stored", "doc_id", doc.ID, "duration_ms", time.Since(start).Milliseconds())
}

// source resolves the declared type, year and number, filling gaps from
// the published file name and then from defaults.
func (w *Worker) source(job *Job) engine.Source {
	src := engine.Source{
		Type:   job.Type,
		Year:   job.Year,
		Number: job.Number,
		URL:    job.SourceURL,
	}

	name := job.Filename
	if name == "" {
		name = path.Base(job.SourceURL)
	}
	if t, year, number, ok := parser.InferSource(name); ok {
		if src.Type == "" {
			src.Type = t
		}
		if src.Year == 0 {
			src.Year = year
		}
		if src.Number == "" {
			src.Number = number
		}
	}

	if src.Type == "" {
		src.Type = doctree.TypeIssue
	}
	if src.Year == 0 {
		created := job.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		src.Year = created.Year()
	}
	return src
}
