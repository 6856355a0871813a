package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Ingest  *IngestHandler
	Query   *QueryHandler
	Clients *ClientHandler
	Health  *HealthHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", deps.Health.Check)

	api.GET("/clients", deps.Clients.ListClients)
	api.POST("/clients/:client_id/ingest", deps.Ingest.Ingest)
	api.POST("/clients/:client_id/query", deps.Query.Query)
	api.GET("/clients/:client_id/documents", deps.Clients.ListDocuments)
	api.DELETE("/clients/:client_id/documents", deps.Clients.ClearDocuments)
}
