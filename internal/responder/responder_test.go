package responder

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mail-triage/internal/llm"
	"github.com/xaenox/mail-triage/internal/llm/llmtest"
	"github.com/xaenox/mail-triage/internal/models"
)

func TestTemplateIsPureFunctionOfCategory(t *testing.T) {
	tr := NewTemplateResponder()

	for _, category := range []models.Category{models.Actionable, models.Courtesy} {
		first, err := tr.Reply(context.Background(), category, "texto A")
		require.NoError(t, err)
		second, err := tr.Reply(context.Background(), category, "outro texto B")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, first, tr.Template(category))
	}

	assert.NotEqual(t, tr.Template(models.Actionable), tr.Template(models.Courtesy))
	assert.Contains(t, tr.Template(models.Actionable), "Recebemos sua solicitação")
	assert.Contains(t, tr.Template(models.Courtesy), "votos de felicidade")
}

func TestChainWithoutResponders(t *testing.T) {
	chain := NewChain(nil)

	reply, source := chain.Reply(context.Background(), models.Courtesy, "Feliz natal!")
	assert.Equal(t, courtesyTemplate, reply)
	assert.Equal(t, "template", source)
}

func TestChainUsesGPTReply(t *testing.T) {
	srv := llmtest.NewServer(t, llmtest.Static("  Olá! Vamos verificar seu acesso hoje mesmo.  "))
	chain := NewChain(nil, NewGPTResponder(llm.NewClient(srv.Config(), nil), 200, 0.7))

	text := strings.Repeat("x", 800)
	reply, source := chain.Reply(context.Background(), models.Actionable, text)
	assert.Equal(t, "Olá! Vamos verificar seu acesso hoje mesmo.", reply)
	assert.Equal(t, "openai", source)

	req := srv.LastRequest()
	require.Len(t, req.Messages, 2)
	assert.Equal(t, replySystemPrompt, req.Messages[0].Content)
	assert.Contains(t, req.Messages[1].Content, "Categoria: Produtivo")
	assert.Contains(t, req.Messages[1].Content, strings.Repeat("x", 500)+"\n")
	assert.NotContains(t, req.Messages[1].Content, strings.Repeat("x", 501))
	assert.Equal(t, 200, req.MaxTokens)
}

func TestChainFallsBackToTemplate(t *testing.T) {
	srv := llmtest.NewServer(t, llmtest.Failing(http.StatusTooManyRequests))
	chain := NewChain(nil, NewGPTResponder(llm.NewClient(srv.Config(), nil), 200, 0.7))

	reply, source := chain.Reply(context.Background(), models.Actionable, "Preciso de ajuda")
	assert.Equal(t, actionableTemplate, reply)
	assert.Equal(t, "template", source)
}

func TestGPTResponderNotConfigured(t *testing.T) {
	r := NewGPTResponder(llm.NewClient(llm.Config{}, nil), 200, 0.7)

	_, err := r.Reply(context.Background(), models.Actionable, "x")
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestTriage(t *testing.T) {
	srv := llmtest.NewServer(t, llmtest.Static(`{"categoria": "PRODUTIVO", "resposta_sugerida": " Vamos analisar sua solicitação. "}`))
	tr := NewTriager(llm.NewClient(srv.Config(), nil), 300, 0.3, nil)

	res, err := tr.Triage(context.Background(), "Qual o status do meu pedido?")
	require.NoError(t, err)
	assert.Equal(t, models.Actionable, res.Category)
	assert.Equal(t, "Vamos analisar sua solicitação.", res.SuggestedReply)

	req := srv.LastRequest()
	assert.Equal(t, 300, req.MaxTokens)
	assert.InDelta(t, 0.3, req.Temperature, 1e-6)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
	assert.Contains(t, req.Messages[0].Content, "PRODUTIVO")
	assert.True(t, strings.HasSuffix(req.Messages[1].Content, "Qual o status do meu pedido?"))
}

func TestTriageErrors(t *testing.T) {
	tests := []struct {
		name    string
		reply   llmtest.Reply
		wantErr error
	}{
		{name: "upstream failure", reply: llmtest.Failing(http.StatusInternalServerError), wantErr: ErrUpstream},
		{name: "not json", reply: llmtest.Static("PRODUTIVO: responda logo"), wantErr: ErrInvalidJSON},
		{name: "missing reply", reply: llmtest.Static(`{"categoria": "IMPRODUTIVO"}`), wantErr: ErrMissingFields},
		{name: "missing category", reply: llmtest.Static(`{"resposta_sugerida": "Obrigado!"}`), wantErr: ErrMissingFields},
		{name: "unknown category", reply: llmtest.Static(`{"categoria": "SPAM", "resposta_sugerida": "x"}`), wantErr: ErrMissingFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := llmtest.NewServer(t, tt.reply)
			tr := NewTriager(llm.NewClient(srv.Config(), nil), 300, 0.3, nil)

			_, err := tr.Triage(context.Background(), "texto")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTriageMissingCredential(t *testing.T) {
	tr := NewTriager(llm.NewClient(llm.Config{}, nil), 300, 0.3, nil)

	_, err := tr.Triage(context.Background(), "texto")
	assert.ErrorIs(t, err, ErrMissingCredential)
}
