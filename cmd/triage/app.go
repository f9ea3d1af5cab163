package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xaenox/mail-triage/internal/classifier"
	"github.com/xaenox/mail-triage/internal/extract"
	"github.com/xaenox/mail-triage/internal/llm"
	"github.com/xaenox/mail-triage/internal/models"
	"github.com/xaenox/mail-triage/internal/nlp"
	"github.com/xaenox/mail-triage/internal/responder"
	"github.com/xaenox/mail-triage/internal/service"
	"github.com/xaenox/mail-triage/pkg/config"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	svc       *service.Service
	extractor *extract.Extractor
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

func policyConfig(cfg config.PolicyConfig) (classifier.PolicyConfig, error) {
	tieBreak, ok := models.ParseCategory(cfg.TieBreak)
	if !ok {
		return classifier.PolicyConfig{}, fmt.Errorf("invalid policy.tie_break %q", cfg.TieBreak)
	}
	defaultCategory, ok := models.ParseCategory(cfg.DefaultCategory)
	if !ok {
		return classifier.PolicyConfig{}, fmt.Errorf("invalid policy.default_category %q", cfg.DefaultCategory)
	}
	return classifier.PolicyConfig{
		KeywordConfidence: cfg.KeywordConfidence,
		ModelBoost:        cfg.ModelBoost,
		MaxConfidence:     cfg.MaxConfidence,
		ShortTextWords:    cfg.ShortTextWords,
		FallbackBase:      cfg.FallbackBase,
		FallbackStep:      cfg.FallbackStep,
		DefaultConfidence: cfg.DefaultConfidence,
		TieBreak:          tieBreak,
		DefaultCategory:   defaultCategory,
	}, nil
}

// modelOptions enables the startup probe only when probe is set and the
// config allows it. Only serve probes.
func modelOptions(cfg config.ModelConfig, client *llm.Client, probe bool) classifier.ModelOptions {
	return classifier.ModelOptions{
		Provider: cfg.Provider,
		HuggingFace: classifier.HuggingFaceConfig{
			Endpoint:      cfg.Endpoint,
			Token:         cfg.HFToken,
			MaxInputChars: cfg.MaxInputChars,
			Timeout:       cfg.Timeout,
		},
		LLM:   client,
		Probe: probe && cfg.ProbeOnStart,
	}
}

func newApp(ctx context.Context, configPath string, probe bool) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	client := llm.NewClient(llm.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	}, logger)
	if !client.Configured() {
		logger.Info("OPENAI_API_KEY not set, using template replies")
	}

	model, err := classifier.BuildModel(ctx, modelOptions(cfg.Model, client, probe), logger)
	if err != nil {
		return nil, err
	}

	pcfg, err := policyConfig(cfg.Policy)
	if err != nil {
		return nil, err
	}

	var replies []responder.Responder
	if client.Configured() {
		replies = append(replies, responder.NewGPTResponder(client, cfg.OpenAI.MaxTokens, cfg.OpenAI.Temperature))
	}

	normalizer := nlp.NewNormalizer(nlp.Options{}, logger)
	logger.Info("Normalizer ready", zap.String("stem_language", normalizer.StemLanguage()))

	svc := service.New(service.Deps{
		Normalizer: normalizer,
		Classifier: classifier.New(classifier.NewKeywordScorer(nil, nil), classifier.NewPolicy(pcfg), model, logger),
		Replies:    responder.NewChain(logger, replies...),
		Triager:    responder.NewTriager(client, cfg.Triage.MaxTokens, cfg.Triage.Temperature, logger),
		LLM:        client,
		Logger:     logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		svc:       svc,
		extractor: extract.New(cfg.Upload.Dir, cfg.Upload.MaxBytes, logger),
	}, nil
}
