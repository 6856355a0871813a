package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xxxsen/docqa/internal/model"
	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/repo"
)

// Namespace is the isolated index of one client. All reads and writes
// are scoped by the client identifier at the storage key level; the RW
// lock serializes writers and keeps clear exclusive with searches.
type Namespace struct {
	clientID   string
	chunks     *repo.ChunkRepo
	namespaces *repo.NamespaceRepo
	mu         sync.RWMutex
}

func (n *Namespace) ClientID() string {
	return n.clientID
}

// UpsertDocument replaces a document's chunks by (filename, chunk index)
// key. Re-ingesting the identical document leaves the chunk count
// unchanged; a shrunk document loses its trailing chunks.
func (n *Namespace) UpsertDocument(ctx context.Context, embedModel, filename string, chunks []*model.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return apperrors.ErrEmptyDocument
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ensureModelLocked(ctx, embedModel); err != nil {
		return err
	}
	if err := n.chunks.UpsertChunks(ctx, chunks); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	if err := n.chunks.DeleteFromIndex(ctx, n.clientID, filename, len(chunks)); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return nil
}

func (n *Namespace) Search(ctx context.Context, embedding []float32, k int) ([]*model.RetrievedChunk, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	count, err := n.chunks.CountByClient(ctx, n.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	if count == 0 {
		return nil, apperrors.ErrEmptyIndex
	}
	if k < 1 {
		k = 1
	}
	if k > count {
		k = count
	}
	results, err := n.chunks.Search(ctx, n.clientID, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return results, nil
}

// Clear removes the whole namespace; subsequent searches fail with the
// empty-index error until the client re-ingests.
func (n *Namespace) Clear(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.chunks.DeleteByClient(ctx, n.clientID); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	if err := n.namespaces.Delete(ctx, n.clientID); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return nil
}

func (n *Namespace) Documents(ctx context.Context) ([]string, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names, err := n.chunks.ListFilenames(ctx, n.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return names, nil
}

func (n *Namespace) ChunkCount(ctx context.Context) (int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	count, err := n.chunks.CountByClient(ctx, n.clientID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return count, nil
}

// EmbedModel reports which embedding model produced this namespace; ok
// is false when the namespace does not exist yet.
func (n *Namespace) EmbedModel(ctx context.Context) (string, bool, error) {
	ns, ok, err := n.namespaces.Get(ctx, n.clientID)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	if !ok {
		return "", false, nil
	}
	return ns.EmbedModel, true, nil
}

func (n *Namespace) ensureModelLocked(ctx context.Context, embedModel string) error {
	ns, ok, err := n.namespaces.Get(ctx, n.clientID)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	if ok {
		if ns.EmbedModel != embedModel {
			return fmt.Errorf("%w: namespace built with %s, configured %s", apperrors.ErrModelMismatch, ns.EmbedModel, embedModel)
		}
		return nil
	}
	if err := n.namespaces.Ensure(ctx, &model.Namespace{
		ClientID:   n.clientID,
		EmbedModel: embedModel,
		Ctime:      time.Now().Unix(),
	}); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return nil
}
