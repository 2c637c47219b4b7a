package v2

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbotrag/src/core/chunking"
)

type previewChunksRequest struct {
	Documents    []chunking.Document `json:"documents" binding:"required,min=1"`
	ChunkSize    *int                `json:"chunk_size"`
	ChunkOverlap *int                `json:"chunk_overlap"`
}

type previewChunksResponse struct {
	Count  int              `json:"count"`
	Chunks []chunking.Chunk `json:"chunks"`
}

// PreviewChunks godoc
// @Summary Split documents into chunks without indexing them
// @Description Uses the server's chunking settings unless chunk_size or chunk_overlap is given.
// @Tags chunks
// @Accept json
// @Produce json
// @Param body body previewChunksRequest true "Documents and optional chunking settings"
// @Success 200 {object} previewChunksResponse
// @Failure 400 {object} ErrorResponse
// @Router /chunks/preview [post]
func (h *Handler) PreviewChunks(c *gin.Context) {
	var req previewChunksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	var (
		chunks []chunking.Chunk
		err    error
	)
	if req.ChunkSize == nil && req.ChunkOverlap == nil {
		chunks, err = h.botService.PreviewChunks(req.Documents)
	} else {
		chunks, err = previewWith(req)
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, previewChunksResponse{Count: len(chunks), Chunks: chunks})
}

func previewWith(req previewChunksRequest) ([]chunking.Chunk, error) {
	var opts []chunking.Option
	if req.ChunkSize != nil {
		opts = append(opts, chunking.WithChunkSize(*req.ChunkSize))
	}
	if req.ChunkOverlap != nil {
		opts = append(opts, chunking.WithChunkOverlap(*req.ChunkOverlap))
	}

	splitter, err := chunking.NewSplitter(opts...)
	if err != nil {
		return nil, err
	}
	return splitter.ChunkDocuments(req.Documents)
}
