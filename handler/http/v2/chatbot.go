package v2

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chatbotrag/src/core/chatbot"
	"chatbotrag/src/core/chunking"
)

// chatbotSummary is the listing view of a chatbot, without document contents
type chatbotSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SystemPrompt string    `json:"system_prompt"`
	Files        []string  `json:"files"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func summarize(bot *chatbot.Chatbot) chatbotSummary {
	return chatbotSummary{
		ID:           bot.ID,
		Name:         bot.Name,
		SystemPrompt: bot.SystemPrompt,
		Files:        bot.Filenames(),
		CreatedAt:    bot.CreatedAt,
		UpdatedAt:    bot.UpdatedAt,
	}
}

type updateChatbotRequest struct {
	SystemPrompt     *string             `json:"system_prompt"`
	KnowledgeBase    []chunking.Document `json:"knowledge_base"`
	ReplaceKnowledge bool                `json:"replace_knowledge"`
}

// ListChatbots godoc
// @Summary List all active chatbots
// @Tags chatbots
// @Produce json
// @Success 200 {array} chatbotSummary
// @Failure 500 {object} ErrorResponse
// @Router /chatbots [get]
func (h *Handler) ListChatbots(c *gin.Context) {
	bots, err := h.botService.List(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	resp := make([]chatbotSummary, len(bots))
	for i := range bots {
		resp[i] = summarize(&bots[i])
	}
	sendJSON(c, http.StatusOK, resp)
}

// CreateChatbot godoc
// @Summary Create a chatbot from uploaded knowledge files
// @Tags chatbots
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Chatbot name"
// @Param system_prompt formData string true "System prompt"
// @Param files formData file false "Knowledge base files"
// @Success 201 {object} chatbotSummary
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chatbots [post]
func (h *Handler) CreateChatbot(c *gin.Context) {
	uploads, err := readUploads(c)
	if err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	bot, err := h.botService.Create(c.Request.Context(), chatbot.CreateRequest{
		Name:         c.PostForm("name"),
		SystemPrompt: c.PostForm("system_prompt"),
		Uploads:      uploads,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusCreated, summarize(bot))
}

// GetChatbot godoc
// @Summary Get a chatbot with its knowledge base
// @Tags chatbots
// @Param name path string true "Chatbot name"
// @Produce json
// @Success 200 {object} chatbot.Chatbot
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chatbots/{name} [get]
func (h *Handler) GetChatbot(c *gin.Context) {
	bot, err := h.botService.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, bot)
}

// UpdateChatbot godoc
// @Summary Update a chatbot's system prompt or knowledge base
// @Description Accepts JSON, or a multipart form with system_prompt, replace_knowledge and files.
// @Tags chatbots
// @Accept json,multipart/form-data
// @Produce json
// @Param name path string true "Chatbot name"
// @Param body body updateChatbotRequest false "Changes"
// @Success 200 {object} chatbotSummary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chatbots/{name} [patch]
func (h *Handler) UpdateChatbot(c *gin.Context) {
	var req chatbot.UpdateRequest

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		uploads, err := readUploads(c)
		if err != nil {
			sendError(c, http.StatusBadRequest, err)
			return
		}
		req.Uploads = uploads

		if prompt, ok := c.GetPostForm("system_prompt"); ok {
			req.SystemPrompt = &prompt
		}
		if raw, ok := c.GetPostForm("replace_knowledge"); ok {
			replace, err := strconv.ParseBool(raw)
			if err != nil {
				sendError(c, http.StatusBadRequest, fmt.Errorf("invalid replace_knowledge: %w", err))
				return
			}
			req.ReplaceKnowledge = replace
		}
	} else {
		var body updateChatbotRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			sendError(c, http.StatusBadRequest, err)
			return
		}
		req.SystemPrompt = body.SystemPrompt
		req.Documents = body.KnowledgeBase
		req.ReplaceKnowledge = body.ReplaceKnowledge
	}

	bot, err := h.botService.Update(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, summarize(bot))
}

// DeleteChatbot godoc
// @Summary Delete a chatbot, its index and its chat history
// @Tags chatbots
// @Param name path string true "Chatbot name"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chatbots/{name} [delete]
func (h *Handler) DeleteChatbot(c *gin.Context) {
	if err := h.botService.Delete(c.Request.Context(), c.Param("name")); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReindexChatbot godoc
// @Summary Schedule a rebuild of the chatbot's index
// @Tags chatbots
// @Param name path string true "Chatbot name"
// @Produce json
// @Success 202 {object} job.Job
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chatbots/{name}/reindex [post]
func (h *Handler) ReindexChatbot(c *gin.Context) {
	name := c.Param("name")
	if _, err := h.botService.Get(c.Request.Context(), name); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	j, err := h.jobQueue.EnqueueReindex(c.Request.Context(), name)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusAccepted, j)
}

// DownloadFile godoc
// @Summary Download an original knowledge base file
// @Tags chatbots
// @Param name path string true "Chatbot name"
// @Param filename path string true "File name"
// @Produce octet-stream
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chatbots/{name}/files/{filename} [get]
func (h *Handler) DownloadFile(c *gin.Context) {
	up, err := h.botService.File(c.Request.Context(), c.Param("name"), c.Param("filename"))
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", up.Filename))
	c.Data(http.StatusOK, contentType, up.Data)
}

// readUploads reads every file sent in the "files" form field
func readUploads(c *gin.Context) ([]chatbot.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	headers := form.File["files"]
	uploads := make([]chatbot.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, chatbot.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
