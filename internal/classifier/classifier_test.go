package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mail-triage/internal/models"
)

type fakeModel struct {
	pred  models.Prediction
	err   error
	calls int
}

func (m *fakeModel) Name() string { return "fake" }

func (m *fakeModel) Predict(context.Context, string) (models.Prediction, error) {
	m.calls++
	return m.pred, m.err
}

func newTestClassifier(model Model) *Classifier {
	return New(NewKeywordScorer(nil, nil), NewPolicy(DefaultPolicyConfig()), model, nil)
}

func TestKeywordScorer(t *testing.T) {
	s := NewKeywordScorer(nil, nil)

	tests := []struct {
		name           string
		text           string
		wantActionable int
		wantCourtesy   int
	}{
		{
			name:           "holiday wishes count overlapping phrases",
			text:           "Desejo um feliz natal para a equipe, obrigado!",
			wantActionable: 0,
			wantCourtesy:   3,
		},
		{
			name:           "support request",
			text:           "Preciso de ajuda urgente com um erro na minha requisição #123",
			wantActionable: 5,
			wantCourtesy:   0,
		},
		{
			name:           "case insensitive",
			text:           "PARABÉNS pelo ANIVERSARIO",
			wantActionable: 0,
			wantCourtesy:   2,
		},
		{
			name: "no keywords",
			text: "Segue o link da reunião",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, c := s.Score(tt.text)
			assert.Equal(t, tt.wantActionable, a)
			assert.Equal(t, tt.wantCourtesy, c)
		})
	}
}

func TestKeywordScorerCustomSets(t *testing.T) {
	s := NewKeywordScorer([]string{"Invoice"}, []string{"thanks"})

	a, c := s.Score("invoice attached, THANKS")
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, c)
}

func TestClassifyScenarios(t *testing.T) {
	c := newTestClassifier(nil)
	require.False(t, c.ModelLoaded())

	d := c.Classify(context.Background(), "Desejo um feliz natal para a equipe, obrigado!")
	assert.Equal(t, models.Courtesy, d.Category)
	assert.Equal(t, 0.85, d.Confidence)

	d = c.Classify(context.Background(), "Preciso de ajuda urgente com um erro na minha requisição #123")
	assert.Equal(t, models.Actionable, d.Category)
	assert.Equal(t, 0.85, d.Confidence)

	d = c.Classify(context.Background(), "Segue o link da reunião")
	assert.Equal(t, models.Actionable, d.Category)
	assert.Equal(t, 0.60, d.Confidence)
	assert.Equal(t, models.SourceDefault, d.Source)
}

func TestClassifySkipsModelWhenKeywordsDecide(t *testing.T) {
	m := &fakeModel{pred: models.Prediction{Label: "5 stars", Score: 0.9}}
	c := newTestClassifier(m)

	d := c.Classify(context.Background(), "Tenho um problema no sistema")
	assert.Equal(t, models.Actionable, d.Category)
	assert.Equal(t, models.SourceKeyword, d.Source)
	assert.Zero(t, m.calls)
}

func TestClassifyUsesModelOnTie(t *testing.T) {
	m := &fakeModel{pred: models.Prediction{Label: "5 stars", Score: 0.7}}
	c := newTestClassifier(m)
	require.True(t, c.ModelLoaded())

	d := c.Classify(context.Background(), "Segue o link da reunião")
	assert.Equal(t, 1, m.calls)
	assert.Equal(t, models.Courtesy, d.Category)
	assert.InDelta(t, 0.80, d.Confidence, 1e-9)
	assert.Equal(t, models.SourceModel, d.Source)
}

func TestClassifyModelFailureFallsBack(t *testing.T) {
	for _, err := range []error{ErrModelUnavailable, errors.New("inference crashed")} {
		m := &fakeModel{err: err}
		c := newTestClassifier(m)

		d := c.Classify(context.Background(), "Segue o link da reunião")
		assert.Equal(t, 1, m.calls)
		assert.Equal(t, models.Actionable, d.Category)
		assert.Equal(t, 0.60, d.Confidence)
		assert.Equal(t, models.SourceDefault, d.Source)
	}
}

func TestModelChain(t *testing.T) {
	failing := &fakeModel{err: ErrModelUnavailable}
	working := &fakeModel{pred: models.Prediction{Label: "NEUTRAL", Score: 0.5}}

	pred, err := ModelChain{failing, working}.Predict(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "NEUTRAL", pred.Label)
	assert.Equal(t, 1, failing.calls)

	_, err = ModelChain{failing}.Predict(context.Background(), "x")
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = ModelChain{}.Predict(context.Background(), "x")
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, "chain(fake,fake)", ModelChain{failing, working}.Name())
}
