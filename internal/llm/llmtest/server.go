// Package llmtest provides a fake OpenAI chat completion endpoint for tests.
package llmtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/xaenox/mail-triage/internal/llm"
)

// Reply decides the fake response for a request. A non-200 status produces an
// API error body.
type Reply func(req openai.ChatCompletionRequest) (content string, status int)

// Server is a fake chat completion endpoint.
type Server struct {
	*httptest.Server
	calls atomic.Int32
	last  atomic.Value
}

// NewServer starts a fake endpoint that is closed when the test ends.
func NewServer(t testing.TB, reply Reply) *Server {
	t.Helper()
	s := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.last.Store(req)

		content, status := reply(req)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": content, "type": "server_error"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Calls returns how many completion requests were received.
func (s *Server) Calls() int {
	return int(s.calls.Load())
}

// LastRequest returns the most recent decoded request.
func (s *Server) LastRequest() openai.ChatCompletionRequest {
	req, _ := s.last.Load().(openai.ChatCompletionRequest)
	return req
}

// Config returns a client config pointing at the fake endpoint.
func (s *Server) Config() llm.Config {
	return llm.Config{
		APIKey:    "sk-test",
		BaseURL:   s.URL + "/v1",
		Model:     openai.GPT3Dot5Turbo,
		MaxTokens: 200,
		Timeout:   5 * time.Second,
	}
}

// Static always answers with content.
func Static(content string) Reply {
	return func(openai.ChatCompletionRequest) (string, int) {
		return content, http.StatusOK
	}
}

// Failing always answers with the given status.
func Failing(status int) Reply {
	return func(openai.ChatCompletionRequest) (string, int) {
		return "upstream unavailable", status
	}
}
