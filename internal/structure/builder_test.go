package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/bteparse/internal/doctree"
)

func linesOf(texts ...string) []doctree.LogicalLine {
	out := make([]doctree.LogicalLine, len(texts))
	for i, t := range texts {
		out[i] = doctree.LogicalLine{Text: t}
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want doctree.Kind
	}{
		{"Portaria n.º 123/2024", doctree.KindDiploma},
		{"Contrato coletivo entre a Associação X e o Sindicato Y", doctree.KindDiploma},
		{"Decreto-Lei n.º 7/2009", doctree.KindDiploma},
		{"Portarias de extensão", ""},
		{"CAPÍTULO I", doctree.KindChapter},
		{"Capítulo 3", doctree.KindChapter},
		{"ANEXO II", doctree.KindChapter},
		{"Secção IV - Disposições finais", doctree.KindChapter},
		{"Preâmbulo", doctree.KindChapter},
		{"PREÂMBULO", doctree.KindChapter},
		{"Título civil da obra", ""},
		{"Artigo 1.º", doctree.KindArticle},
		{"Cláusula 12.ª", doctree.KindArticle},
		{"Artigo único", doctree.KindArticle},
		{"artigo 5.º do Código do Trabalho", ""},
		{"O presente contrato aplica-se.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.text))
		})
	}
}

func TestBuild_ArticleUnderRoot(t *testing.T) {
	root := Build(linesOf("Artigo 1.º", "Disposição geral."))

	require.Len(t, root.Children, 1)
	art := root.Children[0]
	assert.Equal(t, doctree.KindArticle, art.Kind)
	assert.Equal(t, "Artigo 1.º", art.HeaderText())
	assert.Equal(t, "Disposição geral.", art.BodyText())
	assert.Nil(t, root.Text)
}

func TestBuild_HeaderMerge(t *testing.T) {
	root := Build(linesOf(
		"Portaria n.º 123/2024",
		"de regulamentação do trabalho",
		"Manda o Governo o seguinte:",
	))

	require.Len(t, root.Children, 1)
	d := root.Children[0]
	assert.Equal(t, doctree.KindDiploma, d.Kind)
	assert.Equal(t, "Portaria n.º 123/2024 de regulamentação do trabalho", d.HeaderText())
	assert.Equal(t, "Manda o Governo o seguinte:", d.BodyText())
}

func TestBuild_HeaderMergeStops(t *testing.T) {
	long := make([]rune, 250)
	for i := range long {
		long[i] = 'x'
	}
	tests := []struct {
		name string
		next string
	}{
		{"punctuation", "Disposição geral."},
		{"enumerated item", "1 - O presente regulamento"},
		{"lettered item", "a) Trabalhador"},
		{"structural", "Artigo 2.º"},
		{"preamble", "Preâmbulo"},
		{"too long", string(long)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := Build(linesOf("Artigo 1.º", tt.next))
			require.NotEmpty(t, root.Children)
			assert.Equal(t, "Artigo 1.º", root.Children[0].HeaderText())
		})
	}
}

func TestBuild_PreambleNotMerged(t *testing.T) {
	root := Build(linesOf("Acordo de empresa entre A e B", "Preâmbulo", "Considerando que", "Artigo 1.º"))

	require.Len(t, root.Children, 1)
	d := root.Children[0]
	require.Len(t, d.Children, 1)
	pre := d.Children[0]
	assert.Equal(t, doctree.KindChapter, pre.Kind)
	assert.Equal(t, "Preâmbulo", pre.HeaderText())
	assert.Equal(t, "Considerando que", pre.BodyText())
	require.Len(t, pre.Children, 1)
	assert.Equal(t, doctree.KindArticle, pre.Children[0].Kind)
}

func TestBuild_Nesting(t *testing.T) {
	root := Build(linesOf(
		"Portaria n.º 1/2024",
		"Texto introdutório.",
		"CAPÍTULO I",
		"Artigo 1.º",
		"Corpo um.",
		"Artigo 2.º",
		"Corpo dois.",
		"CAPÍTULO II",
		"Artigo 3.º",
		"Corpo três.",
		"Contrato coletivo entre A e B",
		"Artigo 1.º",
		"Outro corpo.",
	))

	require.Len(t, root.Children, 2)
	d1 := root.Children[0]
	assert.Equal(t, "Texto introdutório.", d1.BodyText())
	require.Len(t, d1.Children, 2)
	assert.Equal(t, "CAPÍTULO I", d1.Children[0].HeaderText())
	assert.Len(t, d1.Children[0].Children, 2)
	assert.Equal(t, "Corpo dois.", d1.Children[0].Children[1].BodyText())
	assert.Len(t, d1.Children[1].Children, 1)

	d2 := root.Children[1]
	assert.Equal(t, doctree.KindDiploma, d2.Kind)
	require.Len(t, d2.Children, 1)
	assert.Equal(t, doctree.KindArticle, d2.Children[0].Kind)
}

func TestBuild_ChaptersDoNotNest(t *testing.T) {
	root := Build(linesOf("Decreto n.º 4/2020", "CAPÍTULO I", "Secção I", "Artigo 1.º"))

	d := root.Children[0]
	require.Len(t, d.Children, 2)
	assert.Equal(t, "Secção I", d.Children[1].HeaderText())
	assert.Len(t, d.Children[1].Children, 1)
}

func TestBuild_BodyUnderRootDropped(t *testing.T) {
	root := Build(linesOf("Sumário solto", "Portaria n.º 2/2024", "texto."))

	require.Len(t, root.Children, 1)
	assert.Equal(t, "texto.", root.Children[0].BodyText())
	assert.Nil(t, root.Text)
}

func TestBuild_NoStructureYieldsBodyOnlyTree(t *testing.T) {
	root := Build(linesOf("apenas texto", "sem estrutura"))

	require.Len(t, root.Children, 1)
	n := root.Children[0]
	assert.Nil(t, n.Header)
	assert.Equal(t, "apenas texto\nsem estrutura", n.BodyText())
}

func TestBuild_EmptyInput(t *testing.T) {
	root := Build(nil)
	assert.Equal(t, doctree.KindRoot, root.Kind)
	assert.Empty(t, root.Children)
}

func TestBuild_ArticlesAlwaysHaveText(t *testing.T) {
	root := Build(linesOf("Artigo 1.º", "Artigo 2.º", "Cláusula 1.ª"))

	for _, c := range root.Children {
		require.NotNil(t, c.Text)
		assert.Empty(t, c.Children)
	}
}

func TestBuild_WellFormed(t *testing.T) {
	root := Build(linesOf(
		"Artigo 0.º", "x",
		"Portaria n.º 9/2024", "CAPÍTULO I", "Artigo 1.º", "y",
		"ANEXO I", "z", "Artigo 2.º",
	))

	seen := make(map[*doctree.Node]int)
	doctree.Walk(root, func(n *doctree.Node) bool {
		for _, c := range n.Children {
			seen[c]++
			assert.NotEqual(t, doctree.KindRoot, c.Kind)
		}
		if n.Kind == doctree.KindArticle {
			assert.NotNil(t, n.Text)
			assert.Empty(t, n.Children)
		}
		return true
	})
	for n, count := range seen {
		assert.Equal(t, 1, count, "node %q has %d parents", n.HeaderText(), count)
	}
}
