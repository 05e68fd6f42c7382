package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-review-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Chat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{Message: ollamaMessage{Role: "assistant", Content: "좋아요"}, Done: true})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "qwen2.5")
	out, err := p.Chat(context.Background(),
		[]llm.Message{{Role: "system", Content: "s"}, {Role: "model", Content: "m"}},
		llm.WithTemperature(0), llm.WithMaxTokens(64))
	require.NoError(t, err)

	assert.Equal(t, "좋아요", out)
	assert.Equal(t, "qwen2.5", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, 64, got.Options.NumPredict)
}

func TestOllamaProvider_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Generate(context.Background(), "hi")
	assert.ErrorContains(t, err, "status 404")
}
