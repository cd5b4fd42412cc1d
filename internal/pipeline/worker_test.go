package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/bteparse/internal/doctree"
	"github.com/dgallion1/bteparse/internal/store"
)

type fakeFetcher struct {
	mu    sync.Mutex
	body  map[string][]byte
	calls int
}

func (f *fakeFetcher) Get(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	b, ok := f.body[url]
	if !ok {
		return nil, errors.New("get " + url + ": status 404")
	}
	return b, nil
}

type fakeDecoder struct {
	pages [][]doctree.PositionedRun
	err   error
}

func (d *fakeDecoder) Decode(r io.Reader) ([][]doctree.PositionedRun, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return d.pages, d.err
}

func row(text string, y float64) doctree.PositionedRun {
	return doctree.PositionedRun{Text: text, X: 50, Y: y}
}

func bulletinPages() [][]doctree.PositionedRun {
	return [][]doctree.PositionedRun{{
		row("Boletim do Trabalho e Emprego, n.º 5 | Vol. 91 | 8 de fevereiro de 2024", 820),
		row("Portaria n.º 12/2024", 760),
		row("Manda o Governo o seguinte:", 730),
		row("Artigo 1.º", 710),
		row("Objeto", 700),
		row("O presente regulamento aplica-se ao setor.", 690),
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

const fakePDF = "%PDF-1.4 bulletin"

func TestWorker_UploadCompletes(t *testing.T) {
	docs := openStore(t)
	stats := NewStats(0)
	w := NewWorker(nil, &fakeDecoder{pages: bulletinPages()}, docs, stats, discardLogger())

	job := NewJob("bte5_2024.pdf", "https://bte.example.org/bte5_2024.pdf")
	job.SetFileData([]byte(fakePDF))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status, snap.Progress.Errors)
	assert.NotEmpty(t, snap.DocID)
	assert.Equal(t, ContentHashHex([]byte(fakePDF)), snap.ContentHash)
	assert.Equal(t, 1, snap.Progress.Pages)
	assert.Equal(t, 1, snap.Progress.Diplomas)
	assert.Equal(t, 1, snap.Progress.Articles)
	assert.Nil(t, job.FileData())

	doc, err := docs.Get(context.Background(), snap.DocID)
	require.NoError(t, err)
	assert.Equal(t, doctree.TypeIssue, doc.Type)
	assert.Equal(t, "BTE n.º 5, Vol. 91, de 8 de fevereiro de 2024", doc.Reference)
	assert.Equal(t, "2024-02-08", doc.ISODate)

	assert.Equal(t, int64(1), stats.Snapshot().Succeeded)
}

func TestWorker_FetchesByURL(t *testing.T) {
	url := "https://bte.example.org/separatas/sep3_2024.pdf"
	fetcher := &fakeFetcher{body: map[string][]byte{url: []byte(fakePDF)}}
	docs := openStore(t)
	w := NewWorker(fetcher, &fakeDecoder{pages: bulletinPages()}, docs, nil, discardLogger())

	job := NewJob("", url)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status, snap.Progress.Errors)
	assert.Equal(t, 1, fetcher.calls)

	doc, err := docs.Get(context.Background(), snap.DocID)
	require.NoError(t, err)
	assert.Equal(t, doctree.TypeOffprint, doc.Type, "type inferred from file name")
	assert.Equal(t, url, doc.SourceURL)
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	docs := openStore(t)
	stats := NewStats(0)
	w := NewWorker(nil, &fakeDecoder{pages: bulletinPages()}, docs, stats, discardLogger())

	first := NewJob("bte5_2024.pdf", "https://bte.example.org/bte5_2024.pdf")
	first.SetFileData([]byte(fakePDF))
	w.Process(context.Background(), first)
	require.Equal(t, StatusCompleted, first.Snapshot().Status)

	second := NewJob("copy.pdf", "https://mirror.example.org/copy.pdf")
	second.SetFileData([]byte(fakePDF))
	w.Process(context.Background(), second)

	snap := second.Snapshot()
	assert.Equal(t, StatusDupSkipped, snap.Status)
	assert.Equal(t, first.Snapshot().DocID, snap.DocID)
	assert.Equal(t, int64(1), stats.Snapshot().Duplicates)
}

func TestWorker_Failures(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		url     string
		decoder *fakeDecoder
		phase   string
	}{
		{"no data no url", "", "", &fakeDecoder{}, "fetching"},
		{"fetch error", "", "https://bte.example.org/missing.pdf", &fakeDecoder{}, "fetching"},
		{"not a pdf", "<html>", "https://bte.example.org/x.pdf", &fakeDecoder{}, "decoding"},
		{"decode error", fakePDF, "https://bte.example.org/x.pdf", &fakeDecoder{err: errors.New("broken xref")}, "decoding"},
		{"invalid record", fakePDF, "relative/x.pdf", &fakeDecoder{pages: bulletinPages()}, "validating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := NewStats(0)
			w := NewWorker(&fakeFetcher{}, tt.decoder, openStore(t), stats, discardLogger())

			job := NewJob("", tt.url)
			if tt.data != "" {
				job.SetFileData([]byte(tt.data))
			}
			w.Process(context.Background(), job)

			snap := job.Snapshot()
			assert.Equal(t, StatusFailed, snap.Status)
			assert.Equal(t, tt.phase, snap.Phase)
			assert.NotEmpty(t, snap.Progress.Errors)
			assert.Equal(t, int64(1), stats.Snapshot().Failed)
		})
	}
}

func TestWorker_SourceFallbacks(t *testing.T) {
	w := &Worker{}

	job := NewJob("", "https://bte.example.org/completos/bte7_2019.pdf")
	src := w.source(job)
	assert.Equal(t, doctree.TypeIssue, src.Type)
	assert.Equal(t, 2019, src.Year)
	assert.Equal(t, "7", src.Number)

	job = NewJob("upload.pdf", "")
	job.Type = doctree.TypeOffprint
	job.Number = "2"
	src = w.source(job)
	assert.Equal(t, doctree.TypeOffprint, src.Type)
	assert.Equal(t, job.CreatedAt.Year(), src.Year)
	assert.Equal(t, "2", src.Number)
}
