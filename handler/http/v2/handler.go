package v2

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbotrag/src/core/chatbot"
	"chatbotrag/src/core/chunking"
	"chatbotrag/src/infrastructure/job"
)

// ChatbotService is the part of chatbot.Service the API serves
type ChatbotService interface {
	Create(ctx context.Context, req chatbot.CreateRequest) (*chatbot.Chatbot, error)
	Get(ctx context.Context, name string) (*chatbot.Chatbot, error)
	List(ctx context.Context) ([]chatbot.Chatbot, error)
	Update(ctx context.Context, name string, req chatbot.UpdateRequest) (*chatbot.Chatbot, error)
	Delete(ctx context.Context, name string) error
	Chat(ctx context.Context, name, message string) (*chatbot.Reply, error)
	History(ctx context.Context, name string) ([]chatbot.Exchange, error)
	ClearHistory(ctx context.Context, name string) error
	File(ctx context.Context, name, filename string) (*chatbot.Upload, error)
	PreviewChunks(docs []chunking.Document) ([]chunking.Chunk, error)
}

// JobQueue schedules background work
type JobQueue interface {
	EnqueueReindex(ctx context.Context, chatbotName string) (*job.Job, error)
	GetJob(ctx context.Context, id int) (*job.Job, error)
}

type SystemService interface {
	CheckHealth(ctx context.Context) *chatbot.HealthStatus
}

type Handler struct {
	botService ChatbotService
	jobQueue   JobQueue
	sysService SystemService
}

func NewHandler(botService ChatbotService, jobQueue JobQueue, sysService SystemService) *Handler {
	return &Handler{
		botService: botService,
		jobQueue:   jobQueue,
		sysService: sysService,
	}
}

// RegisterRoutes registers all v1 API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	// Chatbot routes
	v1.GET("/chatbots", h.ListChatbots)
	v1.POST("/chatbots", h.CreateChatbot)
	v1.GET("/chatbots/:name", h.GetChatbot)
	v1.PATCH("/chatbots/:name", h.UpdateChatbot)
	v1.DELETE("/chatbots/:name", h.DeleteChatbot)
	v1.POST("/chatbots/:name/reindex", h.ReindexChatbot)
	v1.GET("/chatbots/:name/files/:filename", h.DownloadFile)

	// Chat routes
	v1.POST("/chatbots/:name/chat", h.Chat)
	v1.GET("/chatbots/:name/history", h.GetChatHistory)
	v1.DELETE("/chatbots/:name/history", h.ClearChatHistory)

	// Chunking routes
	v1.POST("/chunks/preview", h.PreviewChunks)

	// Job routes
	v1.GET("/jobs/:id", h.GetJob)

	// System routes
	v1.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// sendError writes err as an ErrorResponse. Known domain errors pick their own
// status; anything else is sent with the given one.
func sendError(c *gin.Context, status int, err error) {
	var code string
	switch {
	case errors.Is(err, chatbot.ErrChatbotNotFound), errors.Is(err, chatbot.ErrFileNotFound), errors.Is(err, job.ErrJobNotFound):
		code = "NOT_FOUND"
		status = http.StatusNotFound
	case errors.Is(err, chatbot.ErrChatbotExists):
		code = "ALREADY_EXISTS"
		status = http.StatusConflict
	case errors.Is(err, chatbot.ErrInvalidRequest), errors.Is(err, chunking.ErrInvalidConfig):
		code = "INVALID_REQUEST"
		status = http.StatusBadRequest
	case errors.Is(err, chatbot.ErrEmptyKnowledgeBase):
		code = "EMPTY_KNOWLEDGE_BASE"
		status = http.StatusBadRequest
	case status >= http.StatusInternalServerError:
		code = "INTERNAL_ERROR"
	default:
		code = "BAD_REQUEST"
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
