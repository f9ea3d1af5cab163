package classifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mail-triage/internal/llm"
	"github.com/xaenox/mail-triage/internal/llm/llmtest"
)

func hfServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`[{"label":"5 stars","score":0.9}]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBuildModelNone(t *testing.T) {
	for _, provider := range []string{"", "none", "auto"} {
		m, err := BuildModel(context.Background(), ModelOptions{
			Provider: provider,
			LLM:      llm.NewClient(llm.Config{}, nil),
		}, nil)
		require.NoError(t, err)
		assert.Nil(t, m, provider)
	}
}

func TestBuildModelUnknownProvider(t *testing.T) {
	_, err := BuildModel(context.Background(), ModelOptions{Provider: "bert"}, nil)
	assert.Error(t, err)
}

func TestBuildModelHuggingFaceProbe(t *testing.T) {
	ok := hfServer(t, http.StatusOK)
	m, err := BuildModel(context.Background(), ModelOptions{
		Provider:    "huggingface",
		HuggingFace: HuggingFaceConfig{Endpoint: ok.URL},
		Probe:       true,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "huggingface", m.Name())

	down := hfServer(t, http.StatusServiceUnavailable)
	m, err = BuildModel(context.Background(), ModelOptions{
		Provider:    "huggingface",
		HuggingFace: HuggingFaceConfig{Endpoint: down.URL},
		Probe:       true,
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestBuildModelAutoChain(t *testing.T) {
	down := hfServer(t, http.StatusServiceUnavailable)
	gpt := llmtest.NewServer(t, func(openai.ChatCompletionRequest) (string, int) {
		return `{"label":"POSITIVE","score":0.8}`, http.StatusOK
	})

	m, err := BuildModel(context.Background(), ModelOptions{
		Provider:    "auto",
		HuggingFace: HuggingFaceConfig{Endpoint: down.URL, Token: "hf_test"},
		LLM:         llm.NewClient(gpt.Config(), nil),
		Probe:       true,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "chain(huggingface,openai)", m.Name())
	assert.Equal(t, 1, gpt.Calls())
}
