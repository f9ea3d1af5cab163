package responder

import (
	"context"
	"fmt"

	"github.com/xaenox/mail-triage/internal/llm"
	"github.com/xaenox/mail-triage/internal/models"
)

const excerptChars = 500

const replySystemPrompt = "Você é um assistente profissional de atendimento."

const replyPromptFormat = `Você é um assistente de atendimento de uma empresa financeira.

Email recebido:
%s

Categoria: %s

Gere uma resposta profissional e adequada em português brasileiro.
Se for Produtivo, a resposta deve ser útil e direta ao ponto.
Se for Improdutivo, a resposta deve ser cordial e breve.

Resposta:`

// GPTResponder writes a reply with the LLM.
type GPTResponder struct {
	client      *llm.Client
	maxTokens   int
	temperature float32
}

func NewGPTResponder(client *llm.Client, maxTokens int, temperature float64) *GPTResponder {
	return &GPTResponder{
		client:      client,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
	}
}

func (*GPTResponder) Name() string { return "openai" }

func (r *GPTResponder) Reply(ctx context.Context, category models.Category, text string) (string, error) {
	reply, err := r.client.Complete(ctx, llm.Request{
		System:      replySystemPrompt,
		Prompt:      fmt.Sprintf(replyPromptFormat, excerpt(text, excerptChars), category),
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return reply, nil
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
