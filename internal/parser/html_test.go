package parser

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/bteparse/internal/doctree"
)

const indexPage = `<html><head><title>BTE</title>
<script>var a = "<a href='x.pdf'>";</script></head>
<body>
<h1>Boletins de 2024</h1>
<ul>
  <li><a href="/completos/2024/bte5_2024.pdf">BTE n.º 5</a></li>
  <li><a href="separatas/sep3_2024.pdf#page=2"> Separata <b>3</b> </a></li>
  <li><a href="/completos/2024/bte5_2024.pdf">duplicate</a></li>
  <li><a href="/sobre.html">Sobre</a></li>
  <li><a href="mailto:geral@example.org">Email</a></li>
  <li><a href="https://other.example.org/files/anexo.PDF">Anexo</a></li>
</ul>
</body></html>`

func TestExtractPDFLinks(t *testing.T) {
	base, err := url.Parse("https://bte.example.org/indice/")
	require.NoError(t, err)

	links, err := ExtractPDFLinks(strings.NewReader(indexPage), base)
	require.NoError(t, err)
	require.Len(t, links, 3)

	assert.Equal(t, "https://bte.example.org/completos/2024/bte5_2024.pdf", links[0].URL)
	assert.Equal(t, "BTE n.º 5", links[0].Text)
	assert.Equal(t, doctree.TypeIssue, links[0].Type)
	assert.Equal(t, 2024, links[0].Year)
	assert.Equal(t, "5", links[0].Number)

	assert.Equal(t, "https://bte.example.org/indice/separatas/sep3_2024.pdf", links[1].URL)
	assert.Equal(t, "Separata 3", links[1].Text)
	assert.Equal(t, doctree.TypeOffprint, links[1].Type)

	assert.Equal(t, "https://other.example.org/files/anexo.PDF", links[2].URL)
	assert.Empty(t, links[2].Type)
}

func TestExtractPDFLinks_NoLinks(t *testing.T) {
	links, err := ExtractPDFLinks(strings.NewReader("<p>nada</p>"), nil)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestInferSource(t *testing.T) {
	tests := []struct {
		path   string
		typ    doctree.DocType
		year   int
		number string
		ok     bool
	}{
		{"/completos/2024/bte5_2024.pdf", doctree.TypeIssue, 2024, "5", true},
		{"sep12_2019.pdf", doctree.TypeOffprint, 2019, "12", true},
		{"BTE07_2010.PDF", doctree.TypeIssue, 2010, "7", true},
		{"relatorio.pdf", "", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			typ, year, number, ok := InferSource(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.year, year)
			assert.Equal(t, tt.number, number)
		})
	}
}
