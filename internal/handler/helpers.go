package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/response"
)

// handleError maps the pipeline's failure taxonomy onto HTTP responses.
// Each kind stays distinguishable for the caller; nothing collapses
// into a silent empty success.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, apperrors.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", err.Error())
	case errors.Is(err, apperrors.ErrEmptyIndex):
		response.Error(c, http.StatusNotFound, "no_knowledge_base", "no documents ingested for this client")
	case errors.Is(err, apperrors.ErrModelMismatch):
		response.Error(c, http.StatusConflict, "embed_model_mismatch", err.Error())
	case errors.Is(err, apperrors.ErrEmbedding):
		response.Error(c, http.StatusBadGateway, "embedding_failed", "embedding capability unavailable")
	case errors.Is(err, apperrors.ErrGeneration):
		response.Error(c, http.StatusBadGateway, "generation_failed", "answer generation failed")
	case errors.Is(err, apperrors.ErrStorage):
		response.Error(c, http.StatusServiceUnavailable, "storage_unavailable", "storage unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
