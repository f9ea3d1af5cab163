// Package service orchestrates one classification request: normalize,
// classify, reply.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/mail-triage/internal/apperr"
	"github.com/xaenox/mail-triage/internal/classifier"
	"github.com/xaenox/mail-triage/internal/llm"
	"github.com/xaenox/mail-triage/internal/metrics"
	"github.com/xaenox/mail-triage/internal/models"
	"github.com/xaenox/mail-triage/internal/nlp"
	"github.com/xaenox/mail-triage/internal/responder"
)

const previewChars = 200

type Deps struct {
	Normalizer *nlp.Normalizer
	Classifier *classifier.Classifier
	Replies    *responder.Chain
	Triager    *responder.Triager
	LLM        *llm.Client
	Logger     *zap.Logger
}

// Service is stateless apart from the read-only collaborators built at
// startup; it is safe for concurrent use.
type Service struct {
	normalizer *nlp.Normalizer
	classifier *classifier.Classifier
	replies    *responder.Chain
	triager    *responder.Triager
	llm        *llm.Client
	logger     *zap.Logger
}

func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{
		normalizer: d.Normalizer,
		classifier: d.Classifier,
		replies:    d.Replies,
		triager:    d.Triager,
		llm:        d.LLM,
		logger:     d.Logger,
	}
}

// Process classifies text and builds the reply. Only empty input is an error;
// model and LLM failures degrade to the keyword and template paths.
func (s *Service) Process(ctx context.Context, text string) (*models.ClassificationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Input("Texto vazio")
	}

	start := time.Now()
	id := uuid.New().String()

	normalized := s.normalizer.Normalize(text)
	decision := s.classifier.Classify(ctx, text)
	reply, responderName := s.replies.Reply(ctx, decision.Category, text)

	elapsed := time.Since(start)
	metrics.RecordClassification(string(decision.Category), string(decision.Source), responderName, elapsed)

	s.logger.Info("Email classified",
		zap.String("id", id),
		zap.String("category", string(decision.Category)),
		zap.Float64("confidence", decision.Confidence),
		zap.String("source", string(decision.Source)),
		zap.String("responder", responderName),
		zap.Int("tokens", len(strings.Fields(normalized))),
		zap.Duration("elapsed", elapsed))

	return &models.ClassificationResult{
		ID:           id,
		Category:     decision.Category,
		Confidence:   decision.Confidence,
		Reply:        reply,
		OriginalText: Preview(text, previewChars),
		Source:       decision.Source,
		Normalized:   normalized,
	}, nil
}

// Triage runs the strict structured generator. Its typed errors are returned
// to the caller unchanged.
func (s *Service) Triage(ctx context.Context, text string) (models.TriageResult, error) {
	if strings.TrimSpace(text) == "" {
		return models.TriageResult{}, apperr.Input("Texto vazio")
	}

	res, err := s.triager.Triage(ctx, text)
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, responder.ErrMissingCredential):
		outcome = "missing_credential"
	case errors.Is(err, responder.ErrInvalidJSON), errors.Is(err, responder.ErrMissingFields):
		outcome = "invalid_response"
	default:
		outcome = "upstream_error"
	}
	metrics.RecordTriage(outcome)

	if err != nil {
		s.logger.Warn("Triage failed", zap.String("outcome", outcome), zap.Error(err))
		return models.TriageResult{}, err
	}
	return res, nil
}

func (s *Service) Health() models.Health {
	return models.Health{
		Status:           "healthy",
		ClassifierLoaded: s.classifier.ModelLoaded(),
		OpenAIConfigured: s.llm.Configured(),
	}
}

// Preview truncates text to n runes, appending "..." when it was cut.
func Preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
