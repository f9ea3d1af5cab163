package models

import "strings"

// Category is the triage decision for an email
type Category string

const (
	// Actionable emails require a concrete follow-up (support request, status inquiry, documents).
	Actionable Category = "Produtivo"
	// Courtesy emails are greetings, thanks or holiday wishes.
	Courtesy Category = "Improdutivo"
)

// ParseCategory accepts the wire labels in any case, plus the English names.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "produtivo", "actionable":
		return Actionable, true
	case "improdutivo", "courtesy":
		return Courtesy, true
	}
	return "", false
}

// DecisionSource records which branch of the policy produced a decision
type DecisionSource string

const (
	SourceKeyword         DecisionSource = "keyword"
	SourceModel           DecisionSource = "model"
	SourceKeywordFallback DecisionSource = "keyword_fallback"
	SourceDefault         DecisionSource = "default"
)

// Prediction is the raw output of a text-classification model
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Decision is the category-decision policy output
type Decision struct {
	Category   Category       `json:"category"`
	Confidence float64        `json:"confidence"`
	Source     DecisionSource `json:"source"`
}

// ClassificationResult is built once per request and discarded after the response
type ClassificationResult struct {
	ID           string         `json:"id"`
	Category     Category       `json:"category"`
	Confidence   float64        `json:"confidence"`
	Reply        string         `json:"response"`
	OriginalText string         `json:"original_text"`
	Source       DecisionSource `json:"source"`
	Normalized   string         `json:"-"`
}

// TriageResult is the structured answer of the strict triage generator
type TriageResult struct {
	Category       Category `json:"categoria"`
	SuggestedReply string   `json:"resposta_sugerida"`
}

// Health reports which optional collaborators are available
type Health struct {
	Status           string `json:"status"`
	ClassifierLoaded bool   `json:"classifier_loaded"`
	OpenAIConfigured bool   `json:"openai_configured"`
}
