package responder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/mail-triage/internal/llm"
	"github.com/xaenox/mail-triage/internal/models"
)

var (
	ErrMissingCredential = errors.New("triage: OPENAI_API_KEY not configured")
	ErrUpstream          = errors.New("triage: upstream call failed")
	ErrInvalidJSON       = errors.New("triage: response is not valid JSON")
	// ErrMissingFields covers absent fields and an unknown category value.
	ErrMissingFields = errors.New("triage: response is missing required fields")
)

const triageSystemPrompt = "Você é um assistente de triagem financeira especializado em classificar e-mails de clientes. " +
	"Seja criterioso: classifique como PRODUTIVO apenas e-mails que exigem ação concreta, como suporte, dúvidas operacionais, envio de documentos ou status de requisições. " +
	"Não classifique pedidos legítimos de clientes como IMPRODUTIVO, mesmo que sejam educados. " +
	"IMPRODUTIVO são apenas felicitações, agradecimentos irrelevantes ou mensagens não relacionadas ao negócio. " +
	"Para cada e-mail, gere uma resposta curta, profissional e em português brasileiro. " +
	"Retorne APENAS um objeto JSON válido com as chaves 'categoria' (PRODUTIVO ou IMPRODUTIVO) e 'resposta_sugerida' (string)."

const triagePromptPrefix = "Analise o seguinte e-mail e forneça a classificação e resposta sugerida:\n\n"

type triageResponse struct {
	Category       *string `json:"categoria"`
	SuggestedReply *string `json:"resposta_sugerida"`
}

// Triager is the strict generator: it asks the LLM for a structured
// classification and reply and reports every failure as a typed error.
type Triager struct {
	client      *llm.Client
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

func NewTriager(client *llm.Client, maxTokens int, temperature float64, logger *zap.Logger) *Triager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Triager{
		client:      client,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		logger:      logger,
	}
}

func (t *Triager) Triage(ctx context.Context, text string) (models.TriageResult, error) {
	if !t.client.Configured() {
		return models.TriageResult{}, ErrMissingCredential
	}

	content, err := t.client.Complete(ctx, llm.Request{
		System:      triageSystemPrompt,
		Prompt:      triagePromptPrefix + text,
		MaxTokens:   t.maxTokens,
		Temperature: t.temperature,
		JSON:        true,
	})
	if err != nil {
		return models.TriageResult{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	var resp triageResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		t.logger.Error("Failed to parse triage response",
			zap.Error(err),
			zap.String("response", content))
		return models.TriageResult{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	if resp.Category == nil || resp.SuggestedReply == nil || strings.TrimSpace(*resp.SuggestedReply) == "" {
		return models.TriageResult{}, ErrMissingFields
	}
	category, ok := models.ParseCategory(*resp.Category)
	if !ok {
		return models.TriageResult{}, fmt.Errorf("%w: unknown categoria %q", ErrMissingFields, *resp.Category)
	}

	return models.TriageResult{
		Category:       category,
		SuggestedReply: strings.TrimSpace(*resp.SuggestedReply),
	}, nil
}
