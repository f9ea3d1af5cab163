package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/mail-triage/internal/llm"
	"github.com/xaenox/mail-triage/internal/models"
)

const sentimentSystemPrompt = `You are a sentiment classifier for customer emails written in Portuguese or English.
Return ONLY a JSON object with this structure:
{
    "label": "POSITIVE" | "NEUTRAL" | "NEGATIVE",
    "score": number between 0 and 1 with your certainty
}`

type gptSentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// GPTClassifier asks the LLM for a sentiment label, standing in for a local
// sentiment model.
type GPTClassifier struct {
	client        *llm.Client
	maxInputChars int
	logger        *zap.Logger
}

func NewGPTClassifier(client *llm.Client, maxInputChars int, logger *zap.Logger) *GPTClassifier {
	if maxInputChars == 0 {
		maxInputChars = DefaultMaxInputChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GPTClassifier{
		client:        client,
		maxInputChars: maxInputChars,
		logger:        logger,
	}
}

func (c *GPTClassifier) Name() string { return "openai" }

func (c *GPTClassifier) Predict(ctx context.Context, text string) (models.Prediction, error) {
	if !c.client.Configured() {
		return models.Prediction{}, fmt.Errorf("%w: %w", ErrModelUnavailable, llm.ErrNotConfigured)
	}

	content, err := c.client.Complete(ctx, llm.Request{
		System:      sentimentSystemPrompt,
		Prompt:      "Content: " + truncateRunes(text, c.maxInputChars),
		MaxTokens:   50,
		Temperature: 0.1,
		JSON:        true,
	})
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	var resp gptSentiment
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		c.logger.Error("Failed to parse GPT sentiment response",
			zap.Error(err),
			zap.String("response", content))
		return models.Prediction{}, fmt.Errorf("%w: parse response: %w", ErrModelUnavailable, err)
	}
	if strings.TrimSpace(resp.Label) == "" {
		return models.Prediction{}, fmt.Errorf("%w: response has no label", ErrModelUnavailable)
	}

	return models.Prediction{
		Label: strings.ToUpper(strings.TrimSpace(resp.Label)),
		Score: clamp(resp.Score, 0, 1),
	}, nil
}
