package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

const maxUploadBytes = 32 << 20 // per file

type IngestHandler struct {
	ingest *service.IngestService
}

func NewIngestHandler(ingest *service.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

type ingestJSONRequest struct {
	Documents []struct {
		Filename string `json:"filename"`
		Text     string `json:"text"`
	} `json:"documents"`
}

// Ingest accepts either multipart uploads under "files" or a JSON body
// with inline document text.
func (h *IngestHandler) Ingest(c *gin.Context) {
	clientID := c.Param("client_id")
	docs, err := h.readDocuments(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", err.Error())
		return
	}
	if len(docs) == 0 {
		response.Error(c, http.StatusBadRequest, "invalid", "no documents provided")
		return
	}
	report, err := h.ingest.Ingest(c.Request.Context(), clientID, docs)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, report)
}

func (h *IngestHandler) readDocuments(c *gin.Context) ([]service.IngestDocument, error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		return h.readMultipart(c)
	}
	var req ingestJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	docs := make([]service.IngestDocument, 0, len(req.Documents))
	for _, item := range req.Documents {
		filename := item.Filename
		if filename != "" && !strings.Contains(filename, ".") {
			filename += ".txt"
		}
		docs = append(docs, service.IngestDocument{
			Filename: filename,
			Data:     []byte(item.Text),
		})
	}
	return docs, nil
}

func (h *IngestHandler) readMultipart(c *gin.Context) ([]service.IngestDocument, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File["files"]
	docs := make([]service.IngestDocument, 0, len(files))
	for _, file := range files {
		opened, err := file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(opened, maxUploadBytes+1))
		opened.Close()
		if err != nil {
			return nil, err
		}
		if len(data) > maxUploadBytes {
			return nil, fmt.Errorf("file %s exceeds the %d byte limit", file.Filename, maxUploadBytes)
		}
		docs = append(docs, service.IngestDocument{
			Filename: file.Filename,
			Data:     data,
		})
	}
	return docs, nil
}
