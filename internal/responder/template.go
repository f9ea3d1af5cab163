package responder

import (
	"context"

	"github.com/xaenox/mail-triage/internal/models"
)

const actionableTemplate = `Prezado(a),

Agradecemos pelo contato. Recebemos sua solicitação e nossa equipe está analisando o caso.

Em breve entraremos em contato com mais informações ou atualizações sobre o status da sua requisição.

Caso tenha urgência, por favor, entre em contato através dos nossos canais prioritários.

Atenciosamente,
Equipe de Atendimento`

const courtesyTemplate = `Prezado(a),

Agradecemos sua mensagem e os votos de felicidade.

É um prazer poder contar com você como nosso cliente.

Desejamos um excelente dia!

Atenciosamente,
Equipe de Atendimento`

// TemplateResponder returns a fixed reply per category. It never fails.
type TemplateResponder struct{}

func NewTemplateResponder() *TemplateResponder {
	return &TemplateResponder{}
}

func (*TemplateResponder) Name() string { return "template" }

// Template is a pure function of category.
func (*TemplateResponder) Template(category models.Category) string {
	if category == models.Actionable {
		return actionableTemplate
	}
	return courtesyTemplate
}

func (t *TemplateResponder) Reply(_ context.Context, category models.Category, _ string) (string, error) {
	return t.Template(category), nil
}
