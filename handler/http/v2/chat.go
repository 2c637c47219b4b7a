package v2

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat godoc
// @Summary Send a message to a chatbot
// @Tags chat
// @Accept json
// @Produce json
// @Param name path string true "Chatbot name"
// @Param body body chatRequest true "User message"
// @Success 200 {object} chatbot.Reply
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chatbots/{name}/chat [post]
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	reply, err := h.botService.Chat(c.Request.Context(), c.Param("name"), req.Message)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, reply)
}

// GetChatHistory godoc
// @Summary Get a chatbot's conversation, oldest first
// @Tags chat
// @Param name path string true "Chatbot name"
// @Produce json
// @Success 200 {array} chatbot.Exchange
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chatbots/{name}/history [get]
func (h *Handler) GetChatHistory(c *gin.Context) {
	history, err := h.botService.History(c.Request.Context(), c.Param("name"))
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, history)
}

// ClearChatHistory godoc
// @Summary Clear a chatbot's conversation
// @Tags chat
// @Param name path string true "Chatbot name"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chatbots/{name}/history [delete]
func (h *Handler) ClearChatHistory(c *gin.Context) {
	if err := h.botService.ClearHistory(c.Request.Context(), c.Param("name")); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}
