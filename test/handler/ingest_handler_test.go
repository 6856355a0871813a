package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type ingestReport struct {
	BatchID  string `json:"batch_id"`
	ClientID string `json:"client_id"`
	Accepted int    `json:"accepted"`
	Rejected []struct {
		Filename string `json:"filename"`
		Reason   string `json:"reason"`
	} `json:"rejected"`
	ChunkCount int `json:"chunk_count"`
}

func TestIngestJSONDocuments(t *testing.T) {
	router := setupRouter(t, &scriptedGenerator{reply: "x"})

	resp := postJSON(t, router, "/api/v1/clients/client-a/ingest", map[string]interface{}{
		"documents": []map[string]string{
			{"filename": "a.txt", "text": "first document body"},
			{"filename": "b", "text": "inline text without extension"},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var report ingestReport
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
	require.Equal(t, "client-a", report.ClientID)
	require.NotEmpty(t, report.BatchID)
	require.Equal(t, 2, report.Accepted)
	require.Empty(t, report.Rejected)
	require.Equal(t, 2, report.ChunkCount)
}

func TestIngestPartialBatch(t *testing.T) {
	router := setupRouter(t, &scriptedGenerator{reply: "x"})

	resp := postJSON(t, router, "/api/v1/clients/client-a/ingest", map[string]interface{}{
		"documents": []map[string]string{
			{"filename": "good.txt", "text": "legitimate content"},
			{"filename": "blank.txt", "text": "   "},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var report ingestReport
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
	require.Equal(t, 1, report.Accepted)
	require.Len(t, report.Rejected, 1)
	require.Equal(t, "blank.txt", report.Rejected[0].Filename)
	require.NotEmpty(t, report.Rejected[0].Reason)
}

func TestIngestMultipartUpload(t *testing.T) {
	router := setupRouter(t, &scriptedGenerator{reply: "x"})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", "upload.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("uploaded file content"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients/client-a/ingest", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var report ingestReport
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
	require.Equal(t, 1, report.Accepted)
}

func TestIngestNoDocuments(t *testing.T) {
	router := setupRouter(t, &scriptedGenerator{reply: "x"})

	resp := postJSON(t, router, "/api/v1/clients/client-a/ingest", map[string]interface{}{
		"documents": []map[string]string{},
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
