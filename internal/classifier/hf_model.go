package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xaenox/mail-triage/internal/models"
)

const DefaultHuggingFaceEndpoint = "https://api-inference.huggingface.co/models/nlptown/bert-base-multilingual-uncased-sentiment"

type HuggingFaceConfig struct {
	Endpoint      string
	Token         string
	MaxInputChars int
	Timeout       time.Duration
}

// HuggingFaceModel calls a hosted text-classification pipeline.
type HuggingFaceModel struct {
	endpoint      string
	token         string
	maxInputChars int
	httpClient    *http.Client
}

func NewHuggingFaceModel(cfg HuggingFaceConfig) *HuggingFaceModel {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultHuggingFaceEndpoint
	}
	if cfg.MaxInputChars == 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HuggingFaceModel{
		endpoint:      cfg.Endpoint,
		token:         cfg.Token,
		maxInputChars: cfg.MaxInputChars,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (m *HuggingFaceModel) Name() string { return "huggingface" }

func (m *HuggingFaceModel) Predict(ctx context.Context, text string) (models.Prediction, error) {
	body, err := json.Marshal(map[string]string{"inputs": truncateRunes(text, m.maxInputChars)})
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%w: encode request: %w", ErrModelUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%w: build request: %w", ErrModelUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%w: read response: %w", ErrModelUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Prediction{}, fmt.Errorf("%w: status %d: %s", ErrModelUnavailable, resp.StatusCode, truncateRunes(string(raw), 200))
	}

	preds, err := decodePredictions(raw)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return top(preds), nil
}

// decodePredictions accepts both [[{label,score}...]] and [{label,score}...].
func decodePredictions(raw []byte) ([]models.Prediction, error) {
	var nested [][]models.Prediction
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}
	var flat []models.Prediction
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("decode predictions: empty result")
	}
	return flat, nil
}

func top(preds []models.Prediction) models.Prediction {
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best
}
