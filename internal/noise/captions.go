package noise

import (
	"regexp"
	"strings"
)

// captions are the section-category titles printed between diplomas.
// Tuned against published issues; keep the literal values.
var captions = []string{
	"Conselho Económico e Social",
	"Regulamentação do trabalho",
	"Organizações do trabalho",
	"Informação sobre trabalho e emprego",
	"Arbitragem para definição de serviços mínimos",
	"Despachos/portarias",
	"Portarias de condições de trabalho",
	"Portarias de extensão",
	"Convenções coletivas",
	"Decisões arbitrais",
	"Avisos de cessação da vigência de convenções coletivas",
	"Acordos de revogação de convenções coletivas",
	"Jurisprudência",
	"Associações sindicais",
	"Associações de empregadores",
	"Comissões de trabalhadores",
	"Representantes dos trabalhadores para a segurança e saúde no trabalho",
	"Conselhos de empresa europeus",
	"Estatutos",
	"Direção",
	"Eleições",
	"Sumário",
}

var captionRe = compileCaptions(captions)

func compileCaptions(list []string) *regexp.Regexp {
	quoted := make([]string, len(list))
	for i, c := range list {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(c), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)^(?:` + strings.Join(quoted, "|") + `)$`)
}
