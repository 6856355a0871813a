package vectorstore

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/rag"
	"github.com/xxxsen/docqa/internal/repo"
)

// Store hands out one Namespace handle per client identifier. Handles
// are cached so every caller for the same client shares the same lock.
type Store struct {
	chunks     *repo.ChunkRepo
	namespaces *repo.NamespaceRepo

	mu      sync.Mutex
	handles map[string]*Namespace
}

func New(chunks *repo.ChunkRepo, namespaces *repo.NamespaceRepo) *Store {
	return &Store{
		chunks:     chunks,
		namespaces: namespaces,
		handles:    make(map[string]*Namespace),
	}
}

func (s *Store) Namespace(clientID string) *Namespace {
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle, ok := s.handles[clientID]; ok {
		return handle
	}
	handle := &Namespace{
		clientID:   clientID,
		chunks:     s.chunks,
		namespaces: s.namespaces,
	}
	s.handles[clientID] = handle
	return handle
}

// Index adapts a namespace handle to the retriever's search interface.
func (s *Store) Index(clientID string) rag.Index {
	return s.Namespace(clientID)
}

func (s *Store) ListClients(ctx context.Context) ([]string, error) {
	ids, err := s.namespaces.ListClientIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return ids, nil
}
