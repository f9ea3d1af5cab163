package classifier

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xaenox/mail-triage/internal/models"
)

// ErrModelUnavailable signals that no model prediction could be obtained.
// Callers take the keyword-only path.
var ErrModelUnavailable = errors.New("classifier: model unavailable")

// DefaultMaxInputChars bounds the text sent to a model.
const DefaultMaxInputChars = 512

// Model is a pretrained text-classification collaborator.
type Model interface {
	Name() string
	Predict(ctx context.Context, text string) (models.Prediction, error)
}

// ModelChain tries models in order and returns the first prediction.
type ModelChain []Model

func (c ModelChain) Name() string {
	names := make([]string, len(c))
	for i, m := range c {
		names[i] = m.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c ModelChain) Predict(ctx context.Context, text string) (models.Prediction, error) {
	if len(c) == 0 {
		return models.Prediction{}, ErrModelUnavailable
	}
	var errs []error
	for _, m := range c {
		p, err := m.Predict(ctx, text)
		if err == nil {
			return p, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
	}
	return models.Prediction{}, fmt.Errorf("%w: %w", ErrModelUnavailable, errors.Join(errs...))
}

var starLabel = regexp.MustCompile(`^([1-5])\s*stars?$`)

// IsStrongPositive reports whether a model label means clearly positive
// sentiment: a POSITIVE label or a 4-5 star rating.
func IsStrongPositive(label string) bool {
	l := strings.TrimSpace(strings.ToUpper(label))
	if strings.Contains(l, "POSITIVE") && !strings.Contains(l, "NOT") {
		return true
	}
	if m := starLabel.FindStringSubmatch(strings.ToLower(l)); m != nil {
		stars, _ := strconv.Atoi(m[1])
		return stars >= 4
	}
	return false
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
