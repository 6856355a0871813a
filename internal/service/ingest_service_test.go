package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/model"
	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/rag"
)

type fakeEmbedder struct {
	model string
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) ModelName() string {
	return f.model
}

type fakeNamespace struct {
	err  error
	docs map[string][]*model.EmbeddedChunk
}

func (f *fakeNamespace) UpsertDocument(ctx context.Context, embedModel, filename string, chunks []*model.EmbeddedChunk) error {
	if f.err != nil {
		return f.err
	}
	if f.docs == nil {
		f.docs = map[string][]*model.EmbeddedChunk{}
	}
	f.docs[filename] = chunks
	return nil
}

type fakeIndexWriter struct {
	ns *fakeNamespace
}

func (f *fakeIndexWriter) Namespace(clientID string) DocumentIndex {
	return f.ns
}

type recordingPurger struct {
	purged []string
}

func (r *recordingPurger) PurgeClient(clientID string) {
	r.purged = append(r.purged, clientID)
}

func newTestIngestService(ns *fakeNamespace, embedErr error) *IngestService {
	return NewIngestService(
		rag.NewChunker(200, 0),
		&fakeEmbedder{model: "embed-a", err: embedErr},
		&fakeIndexWriter{ns: ns},
		nil,
		nil,
	)
}

func TestIngestBatchIsolation(t *testing.T) {
	ns := &fakeNamespace{}
	svc := newTestIngestService(ns, nil)

	report, err := svc.Ingest(context.Background(), "client-1", []IngestDocument{
		{Filename: "good.txt", Data: []byte("some real document content here")},
		{Filename: "empty.txt", Data: []byte("   ")},
		{Filename: "good2.txt", Data: []byte("another document")},
	})
	require.NoError(t, err)
	require.Equal(t, 2, report.Accepted)
	require.Len(t, report.Rejected, 1)
	require.Equal(t, "empty.txt", report.Rejected[0].Filename)
	require.NotEmpty(t, report.BatchID)
	require.Equal(t, "client-1", report.ClientID)
	require.Equal(t, 2, report.ChunkCount)
	require.Len(t, ns.docs, 2)
}

func TestIngestUnsupportedExtensionRejected(t *testing.T) {
	ns := &fakeNamespace{}
	svc := newTestIngestService(ns, nil)

	report, err := svc.Ingest(context.Background(), "client-1", []IngestDocument{
		{Filename: "image.png", Data: []byte{0x89, 0x50}},
		{Filename: "good.txt", Data: []byte("plain text")},
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Accepted)
	require.Len(t, report.Rejected, 1)
	require.Equal(t, "image.png", report.Rejected[0].Filename)
}

func TestIngestEmbeddingFailureRejectsDocument(t *testing.T) {
	ns := &fakeNamespace{}
	svc := newTestIngestService(ns, fmt.Errorf("backend down"))

	report, err := svc.Ingest(context.Background(), "client-1", []IngestDocument{
		{Filename: "doc.txt", Data: []byte("content")},
	})
	require.NoError(t, err)
	require.Equal(t, 0, report.Accepted)
	require.Len(t, report.Rejected, 1)
}

func TestIngestStorageFailureAbortsBatch(t *testing.T) {
	ns := &fakeNamespace{err: fmt.Errorf("%w: connection refused", apperrors.ErrStorage)}
	svc := newTestIngestService(ns, nil)

	_, err := svc.Ingest(context.Background(), "client-1", []IngestDocument{
		{Filename: "doc.txt", Data: []byte("content")},
	})
	require.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestIngestModelMismatchRejectsDocuments(t *testing.T) {
	ns := &fakeNamespace{err: fmt.Errorf("%w: namespace built with embed-b", apperrors.ErrModelMismatch)}
	svc := newTestIngestService(ns, nil)

	report, err := svc.Ingest(context.Background(), "client-1", []IngestDocument{
		{Filename: "doc.txt", Data: []byte("content")},
		{Filename: "doc2.txt", Data: []byte("more content")},
	})
	require.NoError(t, err)
	require.Equal(t, 0, report.Accepted)
	require.Len(t, report.Rejected, 2)
	require.Contains(t, report.Rejected[0].Reason, "embedding model mismatch")
}

func TestIngestPurgesAnswerCache(t *testing.T) {
	purger := &recordingPurger{}
	svc := NewIngestService(
		rag.NewChunker(200, 0),
		&fakeEmbedder{model: "embed-a"},
		&fakeIndexWriter{ns: &fakeNamespace{}},
		nil,
		purger,
	)

	_, err := svc.Ingest(context.Background(), "client-1", []IngestDocument{
		{Filename: "doc.txt", Data: []byte("fresh content")},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"client-1"}, purger.purged)

	// a batch that accepted nothing leaves the cache alone
	_, err = svc.Ingest(context.Background(), "client-1", []IngestDocument{
		{Filename: "blank.txt", Data: []byte("   ")},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"client-1"}, purger.purged)
}

func TestIngestValidation(t *testing.T) {
	svc := newTestIngestService(&fakeNamespace{}, nil)

	_, err := svc.Ingest(context.Background(), "", []IngestDocument{{Filename: "a.txt", Data: []byte("x")}})
	require.ErrorIs(t, err, apperrors.ErrInvalid)

	_, err = svc.Ingest(context.Background(), "client-1", nil)
	require.ErrorIs(t, err, apperrors.ErrInvalid)
}
