package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"chatbotrag/src/core/chatbot"
	"chatbotrag/src/log"
)

const (
	DefaultURL        = "http://localhost:11434"
	DefaultChatModel  = "llama3.2"
	DefaultEmbedModel = "nomic-embed-text"
)

// Client implements chat and embeddings on top of an Ollama server
type Client struct {
	api        *api.Client
	chatModel  string
	embedModel string
}

var (
	_ chatbot.LLMProvider = (*Client)(nil)
	_ chatbot.Embedder    = (*Client)(nil)
)

// NewClient creates a new Ollama API client. A trailing "/api" on baseURL is
// accepted for compatibility with older configuration.
func NewClient(baseURL string, c *http.Client, chatModel, embedModel string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/api")

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	if embedModel == "" {
		embedModel = DefaultEmbedModel
	}

	return &Client{
		api:        api.NewClient(u, c),
		chatModel:  chatModel,
		embedModel: embedModel,
	}, nil
}

func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.embedModel,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("error generating embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	return resp.Embeddings, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Chat sends the conversation without streaming and returns the reply text
func (c *Client) Chat(ctx context.Context, messages []chatbot.Message, opts chatbot.GenerateOptions) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    c.chatModel,
		Messages: make([]api.Message, len(messages)),
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": opts.Temperature,
		},
	}
	if opts.MaxTokens > 0 {
		req.Options["num_predict"] = opts.MaxTokens
	}
	for i, m := range messages {
		req.Messages[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}

	var reply strings.Builder
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		if resp.Done && resp.DoneReason == "length" {
			log.Debug("ollama reply truncated at token limit", "model", c.chatModel)
		}
		return nil
	})
	if err != nil {
		log.Error(err, "failed to make request to ollama")
		return "", fmt.Errorf("error generating chat response: %w", err)
	}

	return reply.String(), nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.api.Heartbeat(ctx)
}
