// Package responder produces suggested replies for classified emails.
package responder

import (
	"context"

	"go.uber.org/zap"

	"github.com/xaenox/mail-triage/internal/models"
)

// Responder generates a reply for an email of the given category.
type Responder interface {
	Name() string
	Reply(ctx context.Context, category models.Category, text string) (string, error)
}

// Chain tries responders in order and ends with the static templates, so
// Reply always returns a reply.
type Chain struct {
	responders []Responder
	fallback   *TemplateResponder
	logger     *zap.Logger
}

func NewChain(logger *zap.Logger, responders ...Responder) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		responders: responders,
		fallback:   NewTemplateResponder(),
		logger:     logger,
	}
}

// Reply returns the first successful reply and the name of the responder that
// produced it.
func (c *Chain) Reply(ctx context.Context, category models.Category, text string) (string, string) {
	for _, r := range c.responders {
		reply, err := r.Reply(ctx, category, text)
		if err == nil {
			return reply, r.Name()
		}
		c.logger.Warn("Responder failed, trying next",
			zap.String("responder", r.Name()),
			zap.Error(err))
	}
	return c.fallback.Template(category), c.fallback.Name()
}
