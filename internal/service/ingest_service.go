package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/extract"
	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/model"
	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/rag"
)

// IngestDocument is one raw uploaded file.
type IngestDocument struct {
	Filename string
	Data     []byte
}

// DocumentIndex is the write side of one client namespace.
type DocumentIndex interface {
	UpsertDocument(ctx context.Context, embedModel, filename string, chunks []*model.EmbeddedChunk) error
}

// IndexWriter hands out per-client write handles.
type IndexWriter interface {
	Namespace(clientID string) DocumentIndex
}

type IngestService struct {
	chunker  *rag.Chunker
	embedder ai.IEmbedder
	indexes  IndexWriter
	archive  filestore.Store // nil disables archiving
	answers  AnswerPurger    // nil disables cache invalidation
}

func NewIngestService(chunker *rag.Chunker, embedder ai.IEmbedder, indexes IndexWriter, archive filestore.Store, answers AnswerPurger) *IngestService {
	return &IngestService{
		chunker:  chunker,
		embedder: embedder,
		indexes:  indexes,
		archive:  archive,
		answers:  answers,
	}
}

// Ingest runs extract -> chunk -> embed -> upsert for each document.
// A bad document is recorded as rejected and the batch continues; only
// storage unavailability aborts it.
func (s *IngestService) Ingest(ctx context.Context, clientID string, docs []IngestDocument) (*model.IngestionReport, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id is required", apperrors.ErrInvalid)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents provided", apperrors.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("client_id", clientID))
	report := &model.IngestionReport{
		BatchID:  uuid.NewString(),
		ClientID: clientID,
		Rejected: []model.RejectedDocument{},
	}
	ns := s.indexes.Namespace(clientID)
	for _, doc := range docs {
		chunkCount, err := s.ingestOne(ctx, ns, clientID, doc)
		if err != nil {
			if apperrors.IsStorage(err) {
				return nil, err
			}
			logger.Warn("document rejected", zap.String("filename", doc.Filename), zap.Error(err))
			report.Rejected = append(report.Rejected, model.RejectedDocument{
				Filename: doc.Filename,
				Reason:   err.Error(),
			})
			continue
		}
		report.Accepted++
		report.ChunkCount += chunkCount
	}
	if report.Accepted > 0 && s.answers != nil {
		s.answers.PurgeClient(clientID)
	}
	logger.Info("ingestion batch finished",
		zap.String("batch_id", report.BatchID),
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", len(report.Rejected)),
		zap.Int("chunks", report.ChunkCount),
	)
	return report, nil
}

func (s *IngestService) ingestOne(ctx context.Context, ns DocumentIndex, clientID string, doc IngestDocument) (int, error) {
	if doc.Filename == "" {
		return 0, fmt.Errorf("%w: filename is required", apperrors.ErrInvalid)
	}
	text, err := extract.Extract(doc.Filename, doc.Data)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}
	chunks, err := s.chunker.Chunk(&model.Document{
		ID:       uuid.NewString(),
		ClientID: clientID,
		Filename: doc.Filename,
		Text:     text,
	})
	if err != nil {
		return 0, err
	}
	embedded := make([]*model.EmbeddedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		values, err := s.embedder.Embed(ctx, chunk.Content, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return 0, fmt.Errorf("%w: %v", apperrors.ErrEmbedding, err)
		}
		embedded = append(embedded, &model.EmbeddedChunk{Chunk: chunk, Embedding: values})
	}
	if err := ns.UpsertDocument(ctx, s.embedder.ModelName(), doc.Filename, embedded); err != nil {
		return 0, err
	}
	s.archiveRaw(ctx, clientID, doc)
	return len(embedded), nil
}

// archiveRaw keeps the original bytes for later re-ingestion. Failures
// here never reject the document.
func (s *IngestService) archiveRaw(ctx context.Context, clientID string, doc IngestDocument) {
	if s.archive == nil {
		return
	}
	key := buildArchiveKey(clientID, doc.Filename)
	if err := s.archive.Save(ctx, key, filestore.BytesFile(doc.Data), int64(len(doc.Data))); err != nil {
		logutil.GetLogger(ctx).Warn("failed to archive document",
			zap.String("client_id", clientID),
			zap.String("filename", doc.Filename),
			zap.Error(err),
		)
	}
}

func buildArchiveKey(clientID, filename string) string {
	hash := sha256.Sum256([]byte(filename))
	return clientID + "_" + hex.EncodeToString(hash[:8]) + "_" + sanitizeKeyPart(filename)
}

func sanitizeKeyPart(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
