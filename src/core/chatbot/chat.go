package chatbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatbotrag/src/log"
)

const contextHeader = "Use the following excerpts from your knowledge base when they are relevant to the question:"

// Chat answers a user message with the chatbot's system prompt, the chunks
// retrieved for the message and the most recent exchanges as context. The
// exchange is saved to the chatbot's history.
func (s *Service) Chat(ctx context.Context, name, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}

	bot, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	name = bot.Name

	sources, err := s.indexer.Search(ctx, name, message, s.retrievalLimit, s.maxDistance)
	if err != nil {
		// answer without retrieved context rather than failing the conversation
		log.Error(err, "failed to retrieve chunks", "chatbot", name)
		sources = nil
	}

	history, err := s.store.ListExchanges(ctx, name, s.historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	if s.historyWindow == 0 {
		history = nil
	}

	messages := BuildMessages(bot.SystemPrompt, sources, history, message)

	answer, err := s.llm.Chat(ctx, messages, s.generate)
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		answer = FallbackAnswer
	}

	exchange := Exchange{
		User:      message,
		Assistant: answer,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveExchange(ctx, name, exchange); err != nil {
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}

	log.Debug("chat answered", "chatbot", name, "sources", len(sources), "history", len(history))
	return &Reply{Answer: answer, Sources: sources}, nil
}

// History returns the chatbot's whole conversation, oldest first
func (s *Service) History(ctx context.Context, name string) ([]Exchange, error) {
	bot, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	exchanges, err := s.store.ListExchanges(ctx, bot.Name, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return exchanges, nil
}

func (s *Service) ClearHistory(ctx context.Context, name string) error {
	bot, err := s.Get(ctx, name)
	if err != nil {
		return err
	}

	if err := s.store.ClearExchanges(ctx, bot.Name); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}

// BuildMessages lays out a model request: the system prompt extended with the
// retrieved excerpts, then past exchanges in order, then the new message.
func BuildMessages(systemPrompt string, sources []RetrievedChunk, history []Exchange, userMessage string) []Message {
	system := systemPrompt
	if len(sources) > 0 {
		var b strings.Builder
		b.WriteString(systemPrompt)
		b.WriteString("\n\n")
		b.WriteString(contextHeader)
		for _, src := range sources {
			fmt.Fprintf(&b, "\n\n[%s #%d]\n%s", src.Filename, src.ChunkIndex, src.Content)
		}
		system = b.String()
	}

	messages := make([]Message, 0, 2+2*len(history))
	messages = append(messages, Message{Role: RoleSystem, Content: system})
	for _, ex := range history {
		messages = append(messages,
			Message{Role: RoleUser, Content: ex.User},
			Message{Role: RoleAssistant, Content: ex.Assistant},
		)
	}
	messages = append(messages, Message{Role: RoleUser, Content: userMessage})

	return messages
}
