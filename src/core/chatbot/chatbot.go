package chatbot

import (
	"errors"
	"time"

	"chatbotrag/src/core/chunking"
)

var (
	ErrChatbotNotFound    = errors.New("chatbot not found")
	ErrChatbotExists      = errors.New("chatbot already exists")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrEmptyKnowledgeBase = errors.New("no text could be extracted from the uploaded files")
	ErrFileNotFound       = errors.New("file not found")
)

// FallbackAnswer is returned to the user when the model produces no text.
const FallbackAnswer = "I apologize, but I couldn't generate a response."

// Chatbot is a named assistant with its own system prompt and knowledge base
type Chatbot struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	SystemPrompt  string              `json:"system_prompt"`
	KnowledgeBase []chunking.Document `json:"knowledge_base"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Filenames lists the documents in the knowledge base
func (c *Chatbot) Filenames() []string {
	names := make([]string, len(c.KnowledgeBase))
	for i, doc := range c.KnowledgeBase {
		names[i] = doc.Filename
	}
	return names
}

// Exchange is one user message and the reply it received
type Exchange struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	CreatedAt time.Time `json:"created_at"`
}

// Upload is a raw file handed to the service before extraction
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn sent to the language model
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions bounds a single model call
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// IndexRecord is a chunk with its embedding, ready to be pushed to the index
type IndexRecord struct {
	chunking.Chunk
	Vector []float32
}

// RetrievedChunk is a chunk returned by similarity search
type RetrievedChunk struct {
	chunking.Chunk
	Distance float64 `json:"distance"`
}

// Reply is the answer to a chat message and the chunks it was grounded on
type Reply struct {
	Answer  string           `json:"answer"`
	Sources []RetrievedChunk `json:"sources"`
}

// CreateRequest holds the inputs for a new chatbot
type CreateRequest struct {
	Name         string
	SystemPrompt string
	Uploads      []Upload
}

// UpdateRequest changes a chatbot. A nil SystemPrompt keeps the current one.
// New documents are merged into the knowledge base by filename unless
// ReplaceKnowledge is set, in which case they become the whole knowledge base.
type UpdateRequest struct {
	SystemPrompt     *string
	Uploads          []Upload
	Documents        []chunking.Document
	ReplaceKnowledge bool
}
