package rag

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/model"
	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
)

// Index is the similarity engine of one client namespace. Keeping it
// narrow lets the store swap exact search for an approximate index
// without touching retrieval logic.
type Index interface {
	EmbedModel(ctx context.Context) (string, bool, error)
	Search(ctx context.Context, embedding []float32, k int) ([]*model.RetrievedChunk, error)
}

type IndexSource interface {
	Index(clientID string) Index
}

// Retriever embeds the query and runs top-k search against the caller's
// namespace. Queries must use the same embedding space as ingestion;
// the namespace records its model and mismatches are rejected.
type Retriever struct {
	embedder ai.IEmbedder
	indexes  IndexSource
	maxTopK  int
}

func NewRetriever(embedder ai.IEmbedder, indexes IndexSource, maxTopK int) *Retriever {
	return &Retriever{embedder: embedder, indexes: indexes, maxTopK: maxTopK}
}

func (r *Retriever) Retrieve(ctx context.Context, clientID, query string, k int) ([]*model.RetrievedChunk, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("client_id", clientID))
	if k < 1 {
		k = 1
	}
	if r.maxTopK > 0 && k > r.maxTopK {
		k = r.maxTopK
	}
	index := r.indexes.Index(clientID)
	storedModel, ok, err := index.EmbedModel(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Namespace was never created: same outcome as an empty index.
		return nil, apperrors.ErrEmptyIndex
	}
	if storedModel != r.embedder.ModelName() {
		return nil, fmt.Errorf("%w: namespace built with %s, configured %s",
			apperrors.ErrModelMismatch, storedModel, r.embedder.ModelName())
	}
	embedding, err := r.embedder.Embed(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEmbedding, err)
	}
	results, err := index.Search(ctx, embedding, k)
	if err != nil {
		return nil, err
	}
	logger.Debug("retrieval done", zap.Int("top_k", k), zap.Int("hits", len(results)))
	return results, nil
}
