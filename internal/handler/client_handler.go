package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

type ClientHandler struct {
	svc *service.ClientService
}

func NewClientHandler(svc *service.ClientService) *ClientHandler {
	return &ClientHandler{svc: svc}
}

func (h *ClientHandler) ListClients(c *gin.Context) {
	ids, err := h.svc.ListClients(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"clients": ids})
}

func (h *ClientHandler) ListDocuments(c *gin.Context) {
	clientID := c.Param("client_id")
	names, err := h.svc.ListDocuments(c.Request.Context(), clientID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"client_id": clientID, "documents": names})
}

func (h *ClientHandler) ClearDocuments(c *gin.Context) {
	clientID := c.Param("client_id")
	removed, err := h.svc.Clear(c.Request.Context(), clientID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"client_id": clientID, "chunks_removed": removed})
}
