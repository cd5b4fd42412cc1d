package engine

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/bteparse/internal/doctree"
)

func row(text string, y float64) doctree.PositionedRun {
	return doctree.PositionedRun{Text: text, X: 50, Y: y}
}

func samplePages() [][]doctree.PositionedRun {
	return [][]doctree.PositionedRun{
		{
			row("Boletim do Trabalho e Emprego, n.º 5 | Vol. 91 | 8 de fevereiro de 2024", 820),
			row("REGULAMENTAÇÃO DO TRABALHO", 780),
			row("Portaria n.º 12/2024", 760),
			row("de extensão do contrato coletivo", 750),
			row("Manda o Governo o seguinte:", 730),
			row("Artigo 1.º", 710),
			row("Objeto", 700),
			row("1 - O presente regula-", 690),
			row("mento aplica-se ao setor.", 680),
			row("1", 20),
		},
		{
			row("BTE 5 | 312", 820),
			row("Artigo 2.º", 800),
			row("Entrada em vigor", 790),
			row("A presente portaria entra em vigor no dia seguinte.", 780),
		},
	}
}

func TestParse_FullDocument(t *testing.T) {
	rec, stats := ParseWithStats(samplePages(), Source{
		Type:   doctree.TypeIssue,
		Year:   2023,
		Number: "1",
		URL:    "https://bte.gep.mtsss.gov.pt/completos/2024/bte5_2024.pdf",
	})

	assert.Equal(t, doctree.TypeIssue, rec.Type)
	assert.Equal(t, "BTE n.º 5, Vol. 91, de 8 de fevereiro de 2024", rec.Reference)
	assert.Equal(t, "2024-02-08", rec.ISODate)
	assert.Equal(t, "https://bte.gep.mtsss.gov.pt/completos/2024/bte5_2024.pdf", rec.SourceURL)

	assert.Equal(t, 14, stats.RawLines)
	assert.Equal(t, 10, stats.KeptLines)
	assert.Equal(t, 1, stats.Diplomas)
	assert.Equal(t, 2, stats.Articles)

	require.Len(t, rec.Root.Children, 1)
	d := rec.Root.Children[0]
	assert.Equal(t, "Portaria n.º 12/2024 de extensão do contrato coletivo", d.HeaderText())
	assert.Equal(t, "Manda o Governo o seguinte:", d.BodyText())

	require.Len(t, d.Children, 2)
	assert.Equal(t, "Artigo 1.º Objeto", d.Children[0].HeaderText())
	assert.Equal(t, "1 - O presente regulamento aplica-se ao setor.", d.Children[0].BodyText())
	assert.Equal(t, "Artigo 2.º Entrada em vigor", d.Children[1].HeaderText())
	assert.Equal(t, "A presente portaria entra em vigor no dia seguinte.", d.Children[1].BodyText())
}

func TestParse_TwoRowScenario(t *testing.T) {
	rec := Parse([][]doctree.PositionedRun{{
		row("Disposição geral.", 680),
		row("Artigo 1.º", 700),
	}}, Source{Type: doctree.TypeOffprint, Year: 2020, Number: "3"})

	require.Len(t, rec.Root.Children, 1)
	art := rec.Root.Children[0]
	assert.Equal(t, doctree.KindArticle, art.Kind)
	assert.Equal(t, "Artigo 1.º", art.HeaderText())
	assert.Equal(t, "Disposição geral.", art.BodyText())
	assert.Equal(t, "Separata BTE n.º 3, de 2020", rec.Reference)
	assert.Equal(t, "2020-01-01", rec.ISODate)
}

func TestParse_EmptyInput(t *testing.T) {
	rec := Parse(nil, Source{Type: doctree.TypeIssue, Year: 2024, Number: "1"})

	require.NotNil(t, rec.Root)
	assert.Equal(t, doctree.KindRoot, rec.Root.Kind)
	assert.Empty(t, rec.Root.Children)
	assert.Equal(t, "2024-01-01", rec.ISODate)
}

func TestParse_JSONShape(t *testing.T) {
	rec := Parse([][]doctree.PositionedRun{{row("Artigo 1.º", 700)}}, Source{Type: doctree.TypeIssue, Year: 2024, Number: "1", URL: "https://example.org/a.pdf"})

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "issue", got["type"])
	assert.Equal(t, "https://example.org/a.pdf", got["sourceUrl"])

	root := got["root"].(map[string]any)
	assert.Equal(t, "root", root["kind"])
	_, hasText := root["text"]
	assert.False(t, hasText)

	art := root["children"].([]any)[0].(map[string]any)
	assert.Equal(t, "", art["text"])
}

func TestParse_ConcurrentCallsAreIndependent(t *testing.T) {
	want := Parse(samplePages(), Source{Type: doctree.TypeIssue, Year: 2024})
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := Parse(samplePages(), Source{Type: doctree.TypeIssue, Year: 2024})
			results[i], _ = json.Marshal(rec)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.JSONEq(t, string(wantJSON), string(r))
	}
}
