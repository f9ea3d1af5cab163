package llm_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mail-triage/internal/llm"
	"github.com/xaenox/mail-triage/internal/llm/llmtest"
)

func TestClientNotConfigured(t *testing.T) {
	c := llm.NewClient(llm.Config{}, nil)

	assert.False(t, c.Configured())
	_, err := c.Complete(context.Background(), llm.Request{Prompt: "hi"})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestClientComplete(t *testing.T) {
	srv := llmtest.NewServer(t, llmtest.Static("  Olá, tudo certo.\n"))
	c := llm.NewClient(srv.Config(), nil)
	require.True(t, c.Configured())

	out, err := c.Complete(context.Background(), llm.Request{
		System:      "system prompt",
		Prompt:      "user prompt",
		MaxTokens:   300,
		Temperature: 0.3,
		JSON:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Olá, tudo certo.", out)

	req := srv.LastRequest()
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "user prompt", req.Messages[1].Content)
	assert.Equal(t, 300, req.MaxTokens)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
}

func TestClientUsesDefaults(t *testing.T) {
	srv := llmtest.NewServer(t, llmtest.Static("ok"))
	c := llm.NewClient(srv.Config(), nil)

	_, err := c.Complete(context.Background(), llm.Request{Prompt: "p"})
	require.NoError(t, err)

	req := srv.LastRequest()
	require.Len(t, req.Messages, 1)
	assert.Equal(t, 200, req.MaxTokens)
	assert.Equal(t, openai.GPT3Dot5Turbo, req.Model)
	assert.Nil(t, req.ResponseFormat)
}

func TestClientUpstreamErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply llmtest.Reply
	}{
		{name: "server error", reply: llmtest.Failing(http.StatusInternalServerError)},
		{name: "quota", reply: llmtest.Failing(http.StatusTooManyRequests)},
		{name: "empty content", reply: llmtest.Static("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := llmtest.NewServer(t, tt.reply)
			c := llm.NewClient(srv.Config(), nil)

			_, err := c.Complete(context.Background(), llm.Request{Prompt: "p"})
			assert.ErrorIs(t, err, llm.ErrUpstream)
		})
	}
}

func TestClientBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := llmtest.NewServer(t, llmtest.Failing(http.StatusBadGateway))
	c := llm.NewClient(srv.Config(), nil)

	for i := 0; i < 5; i++ {
		_, err := c.Complete(context.Background(), llm.Request{Prompt: "p"})
		require.ErrorIs(t, err, llm.ErrUpstream)
	}
	require.Equal(t, 5, srv.Calls())

	_, err := c.Complete(context.Background(), llm.Request{Prompt: "p"})
	assert.ErrorIs(t, err, llm.ErrUpstream)
	assert.Equal(t, 5, srv.Calls(), "open breaker must not reach the upstream")
}
