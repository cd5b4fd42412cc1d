package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dgallion1/bteparse/internal/doctree"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"wrap hyphen", "traba-\nlho", "trabalho"},
		{"spaced hyphen", "traba - lho", "trabalho"},
		{"chained spaced hyphen", "a - b - c", "abc"},
		{"wrap joined with space", "o presente\ncontrato", "o presente contrato"},
		{"keeps newline before item", "item 1.\nitem 2.", "item 1.\nitem 2."},
		{"keeps newline before numbered", "O seguinte:\n1 - Primeiro;\n2 - Segundo.", "O seguinte:\n1 - Primeiro;\n2 - Segundo."},
		{"keeps newline before lettered", "São:\na) um;\nb) dois.", "São:\na) um;\nb) dois."},
		{"collapses spaces", "  muitos    espaços\t\taqui  ", "muitos espaços aqui"},
		{"blank lines", "um\n\n\ndois", "um dois"},
		{"spaces around kept newline", "lista:   \n   a) x", "lista:\na) x"},
		{"ordinal is not an item", "nos termos do\nartigo 3.º", "nos termos do artigo 3.º"},
		{"cross reference is not an item", "previsto no\nartigo 12. Os trabalhadores", "previsto no artigo 12. Os trabalhadores"},
		{"keeps newline before alinea", "Ver:\nalínea b) do n.º 1", "Ver:\nalínea b) do n.º 1"},
		{"digits keep hyphen", "1 - 2", "1 - 2"},
		{"nfc", "Decisa\u0303o", "Decisão"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"traba-\nlho e emprego",
		"a - b - c - d",
		"x\n- y",
		"um\n1.\n2)\n  a) b\n\tc",
		"linha-\n  -\nquebrada - - texto",
		"  \n \n ",
		"Cláusula 3.ª\nretribuição - mínima\r\nmensal",
		"item 1.\nitem 2.",
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once), "input %q", in)
	}
}

func TestNormalize_Tree(t *testing.T) {
	root := Build(linesOf(
		"Portaria n.º 1/2024",
		"O   Governo   manda:",
		"Artigo 1.º",
		"Objeto",
		"1 - O traba-",
		"lho digno.",
	))
	Normalize(root)

	d := root.Children[0]
	assert.Equal(t, "O Governo manda:", d.BodyText())
	art := d.Children[0]
	assert.Equal(t, "Artigo 1.º Objeto", art.HeaderText())
	assert.Equal(t, "1 - O trabalho digno.", art.BodyText())
	assert.Nil(t, root.Text)
}

func TestNormalize_EmptyArticleKeepsText(t *testing.T) {
	root := doctree.NewNode(doctree.KindRoot, "")
	root.Children = append(root.Children, doctree.NewNode(doctree.KindArticle, "Artigo 1.º"))
	Normalize(root)

	if assert.NotNil(t, root.Children[0].Text) {
		assert.Equal(t, "", *root.Children[0].Text)
	}
}
