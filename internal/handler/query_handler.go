package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/model"
	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/rag"
	"github.com/xxxsen/docqa/internal/service"
)

type QueryHandler struct {
	svc *service.QueryService
}

func NewQueryHandler(svc *service.QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type queryResponse struct {
	ClientID         string         `json:"client_id"`
	Query            string         `json:"query"`
	Answer           string         `json:"answer"`
	Unsupported      bool           `json:"unsupported"`
	Sources          []model.Source `json:"sources"`
	ContextChunks    int            `json:"context_chunks_used"`
	GenerationTimeMs int64          `json:"generation_time_ms"`
	Model            string         `json:"model"`
}

func (h *QueryHandler) Query(c *gin.Context) {
	clientID := c.Param("client_id")
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request body")
		return
	}
	answer, err := h.svc.Answer(c.Request.Context(), clientID, req.Query, req.TopK)
	if err != nil {
		// A client that never ingested anything gets a normal answer
		// saying so, not an error status.
		if errors.Is(err, apperrors.ErrEmptyIndex) {
			response.Success(c, &queryResponse{
				ClientID: clientID,
				Query:    req.Query,
				Answer:   rag.NoCorpusAnswer,
				Sources:  []model.Source{},
			})
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, &queryResponse{
		ClientID:         clientID,
		Query:            req.Query,
		Answer:           answer.Text,
		Unsupported:      answer.Unsupported,
		Sources:          answer.Sources,
		ContextChunks:    answer.ContextChunks,
		GenerationTimeMs: answer.ElapsedMs,
		Model:            answer.Model,
	})
}
