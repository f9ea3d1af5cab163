package classifier

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/mail-triage/internal/llm"
)

const probeText = "Obrigado pelo excelente atendimento!"

// ModelOptions selects and configures the model collaborator at startup.
type ModelOptions struct {
	// Provider is one of none, huggingface, openai or auto.
	Provider    string
	HuggingFace HuggingFaceConfig
	LLM         *llm.Client
	Probe       bool
}

// BuildModel returns the configured model, or nil when none is available.
// With Probe set, a model that fails a single prediction is discarded.
func BuildModel(ctx context.Context, opts ModelOptions, logger *zap.Logger) (Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var chain ModelChain
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "none":
		return nil, nil
	case "huggingface":
		chain = ModelChain{NewHuggingFaceModel(opts.HuggingFace)}
	case "openai":
		if opts.LLM.Configured() {
			chain = ModelChain{NewGPTClassifier(opts.LLM, opts.HuggingFace.MaxInputChars, logger)}
		}
	case "auto":
		if opts.HuggingFace.Token != "" {
			chain = append(chain, NewHuggingFaceModel(opts.HuggingFace))
		}
		if opts.LLM.Configured() {
			chain = append(chain, NewGPTClassifier(opts.LLM, opts.HuggingFace.MaxInputChars, logger))
		}
	default:
		return nil, fmt.Errorf("unknown model provider %q", opts.Provider)
	}

	if len(chain) == 0 {
		logger.Info("No model configured, using keyword classification only",
			zap.String("provider", opts.Provider))
		return nil, nil
	}

	var m Model = chain
	if len(chain) == 1 {
		m = chain[0]
	}

	if opts.Probe {
		pred, err := m.Predict(ctx, probeText)
		if err != nil {
			logger.Warn("Model probe failed, using keyword classification only",
				zap.String("model", m.Name()),
				zap.Error(err))
			return nil, nil
		}
		logger.Info("Model loaded",
			zap.String("model", m.Name()),
			zap.String("probe_label", pred.Label))
	}

	return m, nil
}
