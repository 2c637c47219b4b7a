package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbotrag/src/core/chatbot"
	"chatbotrag/src/infrastructure/integrations/ollama"
)

func newServer(t *testing.T, gotChat *api.ChatRequest) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req api.EmbedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		inputs, _ := req.Input.([]interface{})
		embeddings := make([][]float32, len(inputs))
		for i := range inputs {
			embeddings[i] = []float32{float32(i), 0.5}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.EmbedResponse{Model: req.Model, Embeddings: embeddings})
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(gotChat))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   gotChat.Model,
			Message: api.Message{Role: "assistant", Content: "Paris is the capital."},
			Done:    true,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedDocuments(t *testing.T) {
	srv := newServer(t, &api.ChatRequest{})
	c, err := ollama.NewClient(srv.URL+"/api", srv.Client(), "", "nomic-embed-text")
	require.NoError(t, err)

	vectors, err := c.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{2, 0.5}, vectors[2])

	vector, err := c.EmbedQuery(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.5}, vector)
}

func TestChat(t *testing.T) {
	var got api.ChatRequest
	srv := newServer(t, &got)
	c, err := ollama.NewClient(srv.URL, srv.Client(), "llama3.2", "")
	require.NoError(t, err)

	reply, err := c.Chat(context.Background(), []chatbot.Message{
		{Role: chatbot.RoleSystem, Content: "You are a geography tutor."},
		{Role: chatbot.RoleUser, Content: "What is the capital of France?"},
	}, chatbot.GenerateOptions{MaxTokens: 1000, Temperature: 0.7})
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital.", reply)

	assert.Equal(t, "llama3.2", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	assert.EqualValues(t, 1000, got.Options["num_predict"])
	assert.EqualValues(t, 0.7, got.Options["temperature"])
}
