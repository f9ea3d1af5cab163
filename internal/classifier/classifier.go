// Package classifier decides whether an email requires action.
package classifier

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xaenox/mail-triage/internal/models"
)

// Classifier runs the keyword scorer, consults the model only when keywords
// are not decisive, and applies the decision policy.
type Classifier struct {
	scorer *KeywordScorer
	policy *Policy
	model  Model
	logger *zap.Logger
}

// New builds a Classifier. model may be nil, in which case the keyword-only
// path is always used.
func New(scorer *KeywordScorer, policy *Policy, model Model, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		scorer: scorer,
		policy: policy,
		model:  model,
		logger: logger,
	}
}

// ModelLoaded reports whether a model collaborator is attached.
func (c *Classifier) ModelLoaded() bool {
	return c.model != nil
}

// Classify never fails: model errors degrade to the keyword path.
func (c *Classifier) Classify(ctx context.Context, text string) models.Decision {
	actionable, courtesy := c.scorer.Score(text)
	if c.policy.Decisive(actionable, courtesy) || c.model == nil {
		return c.policy.Decide(text, actionable, courtesy, nil)
	}

	pred, err := c.model.Predict(ctx, text)
	if err != nil {
		if !errors.Is(err, ErrModelUnavailable) {
			err = errors.Join(ErrModelUnavailable, err)
		}
		c.logger.Warn("Model prediction failed, using keyword fallback",
			zap.String("model", c.model.Name()),
			zap.Error(err))
		return c.policy.Decide(text, actionable, courtesy, nil)
	}

	c.logger.Debug("Model prediction",
		zap.String("model", c.model.Name()),
		zap.String("label", pred.Label),
		zap.Float64("score", pred.Score))
	return c.policy.Decide(text, actionable, courtesy, &pred)
}
