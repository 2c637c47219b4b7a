package chatbotctrl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"chatbotrag/src/core/chatbot"
	"chatbotrag/src/core/chunking"
)

type Chatbot struct {
	ID            int64               `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name          string              `gorm:"not null;uniqueIndex:idx_chatbots_active_name,where:is_active" json:"name"`
	SystemPrompt  string              `gorm:"type:text;not null" json:"system_prompt"`
	KnowledgeBase []chunking.Document `gorm:"type:jsonb;serializer:json" json:"knowledge_base"`
	IsActive      bool                `gorm:"not null;index" json:"is_active"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type ChatMessage struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ChatbotName string    `gorm:"not null;index" json:"chatbot_name"`
	UserMessage string    `gorm:"type:text;not null" json:"user_message"`
	BotResponse string    `gorm:"type:text;not null" json:"bot_response"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatbotService stores chatbots and chat history in Postgres. Chatbots are
// soft deleted so the same name can be reused once the old one is inactive.
type ChatbotService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

var _ chatbot.MetadataStore = (*ChatbotService)(nil)

func NewChatbotService(db *gorm.DB) (*ChatbotService, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}

	return &ChatbotService{
		db:        db,
		snowflake: node,
	}, nil
}

// Migrate creates or updates the chatbots and chat_messages tables
func (s *ChatbotService) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Chatbot{}, &ChatMessage{}); err != nil {
		return fmt.Errorf("failed to migrate chatbot tables: %w", err)
	}
	return nil
}

func (s *ChatbotService) CreateChatbot(ctx context.Context, bot *chatbot.Chatbot) error {
	row := fromDomain(bot)
	row.ID = s.snowflake.Generate().Int64()
	row.IsActive = true

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Chatbot{}).Where("name = ? AND is_active", row.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return chatbot.ErrChatbotExists
		}
		return tx.Create(row).Error
	})
	if err != nil {
		if errors.Is(err, chatbot.ErrChatbotExists) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", chatbot.ErrChatbotExists, bot.Name)
		}
		return fmt.Errorf("failed to create chatbot: %w", err)
	}

	*bot = *row.toDomain()
	return nil
}

func (s *ChatbotService) GetChatbot(ctx context.Context, name string) (*chatbot.Chatbot, error) {
	var row Chatbot
	result := s.db.WithContext(ctx).Where("name = ? AND is_active", name).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chatbot: %w", result.Error)
	}
	return row.toDomain(), nil
}

func (s *ChatbotService) ListChatbots(ctx context.Context) ([]chatbot.Chatbot, error) {
	var rows []Chatbot
	result := s.db.WithContext(ctx).Where("is_active").Order("name").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list chatbots: %w", result.Error)
	}

	bots := make([]chatbot.Chatbot, len(rows))
	for i := range rows {
		bots[i] = *rows[i].toDomain()
	}
	return bots, nil
}

func (s *ChatbotService) UpdateChatbot(ctx context.Context, bot *chatbot.Chatbot) error {
	row := fromDomain(bot)
	row.UpdatedAt = time.Now().UTC()

	// struct updates go through the json serializer of KnowledgeBase
	result := s.db.WithContext(ctx).Model(&Chatbot{}).
		Where("name = ? AND is_active", bot.Name).
		Select("system_prompt", "knowledge_base", "updated_at").
		Updates(row)
	if result.Error != nil {
		return fmt.Errorf("failed to update chatbot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", chatbot.ErrChatbotNotFound, bot.Name)
	}
	return nil
}

func (s *ChatbotService) DeactivateChatbot(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Model(&Chatbot{}).
		Where("name = ? AND is_active", name).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate chatbot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", chatbot.ErrChatbotNotFound, name)
	}
	return nil
}

func (s *ChatbotService) SaveExchange(ctx context.Context, name string, exchange chatbot.Exchange) error {
	msg := &ChatMessage{
		ID:          s.snowflake.Generate().Int64(),
		ChatbotName: name,
		UserMessage: exchange.User,
		BotResponse: exchange.Assistant,
		CreatedAt:   exchange.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

func (s *ChatbotService) ListExchanges(ctx context.Context, name string, limit int) ([]chatbot.Exchange, error) {
	query := s.db.WithContext(ctx).Where("chatbot_name = ?", name).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []ChatMessage
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}

	// snowflake IDs grow with time, so reversing gives oldest first
	exchanges := make([]chatbot.Exchange, len(rows))
	for i, row := range rows {
		exchanges[len(rows)-1-i] = chatbot.Exchange{
			User:      row.UserMessage,
			Assistant: row.BotResponse,
			CreatedAt: row.CreatedAt,
		}
	}
	return exchanges, nil
}

func (s *ChatbotService) ClearExchanges(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).Where("chatbot_name = ?", name).Delete(&ChatMessage{}).Error; err != nil {
		return fmt.Errorf("failed to clear chat messages: %w", err)
	}
	return nil
}

func (s *ChatbotService) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func fromDomain(bot *chatbot.Chatbot) *Chatbot {
	row := &Chatbot{
		Name:          bot.Name,
		SystemPrompt:  bot.SystemPrompt,
		KnowledgeBase: bot.KnowledgeBase,
		CreatedAt:     bot.CreatedAt,
		UpdatedAt:     bot.UpdatedAt,
	}
	if row.KnowledgeBase == nil {
		row.KnowledgeBase = []chunking.Document{}
	}
	if id, err := strconv.ParseInt(bot.ID, 10, 64); err == nil {
		row.ID = id
	}
	return row
}

func (c *Chatbot) toDomain() *chatbot.Chatbot {
	return &chatbot.Chatbot{
		ID:            strconv.FormatInt(c.ID, 10),
		Name:          c.Name,
		SystemPrompt:  c.SystemPrompt,
		KnowledgeBase: c.KnowledgeBase,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
