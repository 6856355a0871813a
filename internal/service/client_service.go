package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/vectorstore"
)

// ClientService exposes the namespace inventory operations: which
// clients exist, which documents a client holds, and full clear.
type ClientService struct {
	store   *vectorstore.Store
	answers AnswerPurger
}

func NewClientService(store *vectorstore.Store, answers AnswerPurger) *ClientService {
	return &ClientService{store: store, answers: answers}
}

func (s *ClientService) ListClients(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *ClientService) ListDocuments(ctx context.Context, clientID string) ([]string, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id is required", apperrors.ErrInvalid)
	}
	names, err := s.store.Namespace(clientID).Documents(ctx)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *ClientService) Clear(ctx context.Context, clientID string) (int, error) {
	if clientID == "" {
		return 0, fmt.Errorf("%w: client id is required", apperrors.ErrInvalid)
	}
	ns := s.store.Namespace(clientID)
	count, err := ns.ChunkCount(ctx)
	if err != nil {
		return 0, err
	}
	if err := ns.Clear(ctx); err != nil {
		return 0, err
	}
	if s.answers != nil {
		s.answers.PurgeClient(clientID)
	}
	logutil.GetLogger(ctx).Info("client namespace cleared", zap.String("client_id", clientID), zap.Int("chunks_removed", count))
	return count, nil
}
