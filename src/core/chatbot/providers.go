package chatbot

import (
	"context"

	"chatbotrag/src/core/chunking"
)

// MetadataStore persists chatbots and their chat history
type MetadataStore interface {
	// CreateChatbot stores a new chatbot and fills in its ID and timestamps.
	// It returns ErrChatbotExists when an active chatbot has the same name.
	CreateChatbot(ctx context.Context, bot *Chatbot) error
	// GetChatbot returns nil without error when no active chatbot has the name
	GetChatbot(ctx context.Context, name string) (*Chatbot, error)
	ListChatbots(ctx context.Context) ([]Chatbot, error)
	UpdateChatbot(ctx context.Context, bot *Chatbot) error
	// DeactivateChatbot soft deletes the chatbot
	DeactivateChatbot(ctx context.Context, name string) error

	SaveExchange(ctx context.Context, chatbot string, exchange Exchange) error
	// ListExchanges returns the most recent exchanges oldest first; limit <= 0 returns all
	ListExchanges(ctx context.Context, chatbot string, limit int) ([]Exchange, error)
	ClearExchanges(ctx context.Context, chatbot string) error
}

// VectorIndex holds one collection of embedded chunks per chatbot
type VectorIndex interface {
	Exists(ctx context.Context, chatbot string) (bool, error)
	Create(ctx context.Context, chatbot string) error
	Drop(ctx context.Context, chatbot string) error
	Insert(ctx context.Context, chatbot string, records []IndexRecord) error
	// Search returns up to limit chunks nearest to vector. A maxDistance of 0 disables the cutoff.
	Search(ctx context.Context, chatbot string, vector []float32, limit int, maxDistance float64) ([]RetrievedChunk, error)
}

// CollectionNamer is implemented by indexes that store chatbots under a
// derived collection name. The indexer serializes work per collection.
type CollectionNamer interface {
	CollectionName(chatbot string) string
}

// Embedder turns text into vectors
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// LLMProvider generates a chat completion
type LLMProvider interface {
	Chat(ctx context.Context, messages []Message, opts GenerateOptions) (string, error)
}

// Extractor converts an uploaded file into a text document
type Extractor interface {
	Extract(ctx context.Context, filename, contentType string, data []byte) (chunking.Document, error)
}

// FileArchive keeps the raw uploaded files of each chatbot
type FileArchive interface {
	Store(ctx context.Context, chatbot string, upload Upload) error
	RemoveAll(ctx context.Context, chatbot string) error
	// Load returns ErrFileNotFound when nothing was archived under filename
	Load(ctx context.Context, chatbot, filename string) ([]byte, error)
}

// HealthChecker reports whether a backing component is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}
