package classifier

import "strings"

// Phrases that signal an email needs a follow-up.
var ActionableKeywords = []string{
	"solicitação", "requisição", "suporte", "problema", "erro", "ajuda",
	"atualização", "status", "caso", "ticket", "dúvida", "questão",
	"arquivo", "documento", "urgente", "importante", "ação", "resolver",
	"preciso", "necessito", "gostaria", "poderia", "favor",
}

// Phrases that signal greetings, thanks and holiday wishes.
var CourtesyKeywords = []string{
	"feliz natal", "feliz ano novo", "parabéns", "agradecimento",
	"obrigado", "obrigada", "cumprimento", "saudações", "saudação",
	"bom dia", "boa tarde", "boa noite", "feliz", "aniversario",
}

// KeywordScorer counts keyword phrases contained in raw text. It does not use
// the normalizer so multi-word phrases survive.
type KeywordScorer struct {
	actionable []string
	courtesy   []string
}

func NewKeywordScorer(actionable, courtesy []string) *KeywordScorer {
	if actionable == nil {
		actionable = ActionableKeywords
	}
	if courtesy == nil {
		courtesy = CourtesyKeywords
	}
	return &KeywordScorer{
		actionable: lowerAll(actionable),
		courtesy:   lowerAll(courtesy),
	}
}

// Score returns how many phrases of each set occur in text. Overlapping
// phrases are counted independently.
func (s *KeywordScorer) Score(text string) (actionable, courtesy int) {
	text = strings.ToLower(text)
	return countContained(text, s.actionable), countContained(text, s.courtesy)
}

func countContained(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
