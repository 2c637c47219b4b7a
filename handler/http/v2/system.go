package v2

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatbotrag/src/core/chatbot"
)

// CheckHealth godoc
// @Summary Check system health status
// @Tags system
// @Produce json
// @Success 200 {object} chatbot.HealthStatus
// @Failure 503 {object} chatbot.HealthStatus
// @Router /health [get]
func (h *Handler) CheckHealth(c *gin.Context) {
	status := h.sysService.CheckHealth(c.Request.Context())
	if status.Status != chatbot.StatusHealthy {
		sendJSON(c, http.StatusServiceUnavailable, status)
		return
	}
	sendJSON(c, http.StatusOK, status)
}

// GetJob godoc
// @Summary Get the status of a background job
// @Tags system
// @Param id path int true "Job ID"
// @Produce json
// @Success 200 {object} job.Job
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	j, err := h.jobQueue.GetJob(c.Request.Context(), id)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, j)
}
