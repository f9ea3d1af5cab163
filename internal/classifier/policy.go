package classifier

import (
	"strings"

	"github.com/xaenox/mail-triage/internal/models"
)

// PolicyConfig holds the constants of the category-decision policy.
type PolicyConfig struct {
	// KeywordConfidence is used when one keyword set clearly wins.
	KeywordConfidence float64
	// ModelBoost is added to the model score on the model path.
	ModelBoost float64
	// MaxConfidence caps model-assisted and fallback confidences.
	MaxConfidence float64
	// ShortTextWords is the word count below which a positive email may be courtesy.
	ShortTextWords int
	// FallbackBase and FallbackStep give the tie confidence as base + step*count.
	FallbackBase float64
	FallbackStep float64
	// DefaultConfidence is used when no signal exists at all.
	DefaultConfidence float64
	// TieBreak is chosen when both keyword sets match equally and no model is available.
	TieBreak models.Category
	// DefaultCategory is chosen when nothing matches and no model is available.
	DefaultCategory models.Category
}

// DefaultPolicyConfig returns the constants used when nothing is configured.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		KeywordConfidence: 0.85,
		ModelBoost:        0.10,
		MaxConfidence:     0.95,
		ShortTextWords:    20,
		FallbackBase:      0.70,
		FallbackStep:      0.05,
		DefaultConfidence: 0.60,
		TieBreak:          models.Courtesy,
		DefaultCategory:   models.Actionable,
	}
}

// Policy combines keyword scores and an optional model prediction into a
// final decision. Explicit keyword evidence always wins over the model.
type Policy struct {
	cfg PolicyConfig
}

// NewPolicy returns a Policy applying cfg.
func NewPolicy(cfg PolicyConfig) *Policy {
	return &Policy{cfg: cfg}
}

// Decisive reports whether the keyword scores alone settle the category.
func (p *Policy) Decisive(actionable, courtesy int) bool {
	return actionable != courtesy && max(actionable, courtesy) > 0
}

// Decide applies the policy. pred is nil when no model is available.
func (p *Policy) Decide(text string, actionable, courtesy int, pred *models.Prediction) models.Decision {
	switch {
	case actionable > courtesy && actionable > 0:
		return models.Decision{Category: models.Actionable, Confidence: p.cfg.KeywordConfidence, Source: models.SourceKeyword}
	case courtesy > actionable && courtesy > 0:
		return models.Decision{Category: models.Courtesy, Confidence: p.cfg.KeywordConfidence, Source: models.SourceKeyword}
	}

	if pred != nil {
		confidence := clamp(pred.Score+p.cfg.ModelBoost, 0, p.cfg.MaxConfidence)
		if len(strings.Fields(text)) < p.cfg.ShortTextWords && IsStrongPositive(pred.Label) {
			return models.Decision{Category: models.Courtesy, Confidence: confidence, Source: models.SourceModel}
		}
		return models.Decision{Category: models.Actionable, Confidence: confidence, Source: models.SourceModel}
	}

	// Scores are tied here.
	if actionable > 0 {
		confidence := clamp(p.cfg.FallbackBase+p.cfg.FallbackStep*float64(actionable), 0, p.cfg.MaxConfidence)
		return models.Decision{Category: p.cfg.TieBreak, Confidence: confidence, Source: models.SourceKeywordFallback}
	}
	return models.Decision{Category: p.cfg.DefaultCategory, Confidence: p.cfg.DefaultConfidence, Source: models.SourceDefault}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
