package handler_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/docqa/internal/handler"
	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/model"
	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/rag"
	"github.com/xxxsen/docqa/internal/service"
)

// wordEmbedder maps text to a tiny deterministic vector so retrieval
// ordering is predictable without a real model.
type wordEmbedder struct {
	model string
}

func (e *wordEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var vec [8]float32
	for i, r := range text {
		vec[i%8] += float32(r % 31)
	}
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1
		norm = 1
	}
	scale := float32(1 / math.Sqrt(float64(norm)))
	out := make([]float32, 8)
	for i, v := range vec {
		out[i] = v * scale
	}
	return out, nil
}

func (e *wordEmbedder) ModelName() string {
	return e.model
}

// memStore is an in-memory stand-in for the pgvector-backed store. It
// implements both the ingest write side and the retrieval index.
type memStore struct {
	mu         sync.Mutex
	embedModel map[string]string
	chunks     map[string][]*model.EmbeddedChunk
}

func newMemStore() *memStore {
	return &memStore{
		embedModel: map[string]string{},
		chunks:     map[string][]*model.EmbeddedChunk{},
	}
}

type memNamespace struct {
	store    *memStore
	clientID string
}

func (s *memStore) Namespace(clientID string) service.DocumentIndex {
	return &memNamespace{store: s, clientID: clientID}
}

func (s *memStore) Index(clientID string) rag.Index {
	return &memNamespace{store: s, clientID: clientID}
}

func (n *memNamespace) UpsertDocument(ctx context.Context, embedModel, filename string, chunks []*model.EmbeddedChunk) error {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	if stored, ok := n.store.embedModel[n.clientID]; ok && stored != embedModel {
		return apperrors.ErrModelMismatch
	}
	n.store.embedModel[n.clientID] = embedModel
	kept := n.store.chunks[n.clientID][:0]
	for _, existing := range n.store.chunks[n.clientID] {
		if existing.Chunk.Filename != filename {
			kept = append(kept, existing)
		}
	}
	n.store.chunks[n.clientID] = append(kept, chunks...)
	return nil
}

func (n *memNamespace) EmbedModel(ctx context.Context) (string, bool, error) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	stored, ok := n.store.embedModel[n.clientID]
	if !ok || len(n.store.chunks[n.clientID]) == 0 {
		return "", false, nil
	}
	return stored, true, nil
}

func (n *memNamespace) Search(ctx context.Context, embedding []float32, k int) ([]*model.RetrievedChunk, error) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	items := n.store.chunks[n.clientID]
	if len(items) == 0 {
		return nil, apperrors.ErrEmptyIndex
	}
	hits := make([]*model.RetrievedChunk, 0, len(items))
	for _, item := range items {
		hits = append(hits, &model.RetrievedChunk{Chunk: item.Chunk, Score: cosine(embedding, item.Embedding)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var errAny = errors.New("backend exploded")

type scriptedGenerator struct {
	reply string
	err   error
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func setupRouter(t *testing.T, gen *scriptedGenerator) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	embedder := &wordEmbedder{model: "embed-test"}
	chunker := rag.NewChunker(200, 0)
	retriever := rag.NewRetriever(embedder, store, 20)
	answerGen := rag.NewGenerator(gen, "chat-test", rag.GeneratorConfig{TimeoutSeconds: 5, MaxTokens: 64})

	queryService := service.NewQueryService(retriever, answerGen, service.QueryServiceConfig{DefaultTopK: 3})
	ingestService := service.NewIngestService(chunker, embedder, store, nil, queryService)

	deps := handler.RouterDeps{
		Ingest:  handler.NewIngestHandler(ingestService),
		Query:   handler.NewQueryHandler(queryService),
		Clients: handler.NewClientHandler(nil),
		Health:  handler.NewHealthHandler(nil),
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine
}
