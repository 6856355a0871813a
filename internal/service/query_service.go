package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/model"
	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
)

type Retriever interface {
	Retrieve(ctx context.Context, clientID, query string, k int) ([]*model.RetrievedChunk, error)
}

type Generator interface {
	Generate(ctx context.Context, query string, retrieved []*model.RetrievedChunk) (*model.Answer, error)
}

// AnswerPurger invalidates cached answers for one client. Satisfied by
// QueryService; the ingest and clear paths depend on it so namespace
// mutations are visible to the next query immediately.
type AnswerPurger interface {
	PurgeClient(clientID string)
}

type QueryServiceConfig struct {
	DefaultTopK   int
	MaxInputChars int
	CacheSize     int
	CacheTTL      time.Duration
}

// QueryService drives one question through retrieval and generation and
// packages the result with its audit fields. Empty-index and generation
// failures propagate as distinct kinds, never masked as one another.
type QueryService struct {
	retriever Retriever
	generator Generator
	cache     *expirable.LRU[string, *model.Answer]
	cfg       QueryServiceConfig
}

func NewQueryService(retriever Retriever, generator Generator, cfg QueryServiceConfig) *QueryService {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 3
	}
	var cache *expirable.LRU[string, *model.Answer]
	if cfg.CacheSize > 0 && cfg.CacheTTL > 0 {
		cache = expirable.NewLRU[string, *model.Answer](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return &QueryService{
		retriever: retriever,
		generator: generator,
		cache:     cache,
		cfg:       cfg,
	}
}

func (s *QueryService) Answer(ctx context.Context, clientID, query string, topK int) (*model.Answer, error) {
	query = strings.TrimSpace(query)
	if clientID == "" || query == "" {
		return nil, fmt.Errorf("%w: client id and query are required", apperrors.ErrInvalid)
	}
	if s.cfg.MaxInputChars > 0 && len(query) > s.cfg.MaxInputChars {
		return nil, fmt.Errorf("%w: query too long", apperrors.ErrInvalid)
	}
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}
	logger := logutil.GetLogger(ctx).With(zap.String("client_id", clientID))
	cacheKey := s.cacheKey(clientID, query, topK)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			logger.Debug("answer cache hit")
			return cached, nil
		}
	}
	start := time.Now()
	retrieved, err := s.retriever.Retrieve(ctx, clientID, query, topK)
	if err != nil {
		return nil, err
	}
	answer, err := s.generator.Generate(ctx, query, retrieved)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(cacheKey, answer)
	}
	logger.Info("query answered",
		zap.String("query", query),
		zap.Int("top_k", topK),
		zap.Int("context_chunks", answer.ContextChunks),
		zap.Bool("unsupported", answer.Unsupported),
		zap.Duration("elapsed", time.Since(start)),
	)
	return answer, nil
}

// PurgeClient drops every cached answer for one client. Clear and
// re-ingestion call this so a cached answer never outlives the corpus
// it was generated from.
func (s *QueryService) PurgeClient(clientID string) {
	if s.cache == nil {
		return
	}
	prefix := clientID + ":"
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Remove(key)
		}
	}
}

func (s *QueryService) cacheKey(clientID, query string, topK int) string {
	hash := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%s:%d:%s", clientID, topK, hex.EncodeToString(hash[:]))
}
