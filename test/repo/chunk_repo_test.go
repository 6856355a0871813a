package repo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/repo"
	"github.com/xxxsen/docqa/test/testutil"
)

func embeddedChunk(clientID, filename string, idx int, embedding []float32) *model.EmbeddedChunk {
	return &model.EmbeddedChunk{
		Chunk: &model.Chunk{
			ClientID:  clientID,
			Filename:  filename,
			Index:     idx,
			Content:   fmt.Sprintf("%s chunk %d", filename, idx),
			WordCount: 3,
		},
		Embedding: embedding,
	}
}

func TestChunkRepoUpsertAndSearch(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	clientID := "client-" + uuid.NewString()

	require.NoError(t, chunks.UpsertChunks(context.Background(), []*model.EmbeddedChunk{
		embeddedChunk(clientID, "a.txt", 0, []float32{1, 0, 0}),
		embeddedChunk(clientID, "a.txt", 1, []float32{0, 1, 0}),
		embeddedChunk(clientID, "b.txt", 0, []float32{0.9, 0.1, 0}),
	}))

	count, err := chunks.CountByClient(context.Background(), clientID)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	hits, err := chunks.Search(context.Background(), clientID, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "a.txt", hits[0].Chunk.Filename)
	require.Equal(t, 0, hits[0].Chunk.Index)
	require.InDelta(t, 1.0, hits[0].Score, 1e-6)
	require.GreaterOrEqual(t, hits[0].Score, hits[1].Score)

	names, err := chunks.ListFilenames(context.Background(), clientID)
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestChunkRepoUpsertIsIdempotent(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	clientID := "client-" + uuid.NewString()
	batch := []*model.EmbeddedChunk{
		embeddedChunk(clientID, "doc.txt", 0, []float32{1, 0, 0}),
		embeddedChunk(clientID, "doc.txt", 1, []float32{0, 1, 0}),
	}

	require.NoError(t, chunks.UpsertChunks(context.Background(), batch))
	require.NoError(t, chunks.UpsertChunks(context.Background(), batch))

	count, err := chunks.CountByDocument(context.Background(), clientID, "doc.txt")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestChunkRepoShrunkDocument(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	clientID := "client-" + uuid.NewString()

	require.NoError(t, chunks.UpsertChunks(context.Background(), []*model.EmbeddedChunk{
		embeddedChunk(clientID, "doc.txt", 0, []float32{1, 0, 0}),
		embeddedChunk(clientID, "doc.txt", 1, []float32{0, 1, 0}),
		embeddedChunk(clientID, "doc.txt", 2, []float32{0, 0, 1}),
	}))
	// re-ingest produced a single chunk; the trailing two must go
	require.NoError(t, chunks.UpsertChunks(context.Background(), []*model.EmbeddedChunk{
		embeddedChunk(clientID, "doc.txt", 0, []float32{1, 0, 0}),
	}))
	require.NoError(t, chunks.DeleteFromIndex(context.Background(), clientID, "doc.txt", 1))

	count, err := chunks.CountByDocument(context.Background(), clientID, "doc.txt")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestChunkRepoClientScoping(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	clientA := "client-" + uuid.NewString()
	clientB := "client-" + uuid.NewString()

	require.NoError(t, chunks.UpsertChunks(context.Background(), []*model.EmbeddedChunk{
		embeddedChunk(clientA, "a.txt", 0, []float32{1, 0, 0}),
	}))
	require.NoError(t, chunks.UpsertChunks(context.Background(), []*model.EmbeddedChunk{
		embeddedChunk(clientB, "b.txt", 0, []float32{1, 0, 0}),
	}))

	hits, err := chunks.Search(context.Background(), clientA, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, clientA, hits[0].Chunk.ClientID)

	require.NoError(t, chunks.DeleteByClient(context.Background(), clientA))
	count, err := chunks.CountByClient(context.Background(), clientA)
	require.NoError(t, err)
	require.Equal(t, 0, count)
	count, err = chunks.CountByClient(context.Background(), clientB)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNamespaceRepoEnsureAndGuard(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	namespaces := repo.NewNamespaceRepo(db)
	clientID := "client-" + uuid.NewString()

	_, ok, err := namespaces.Get(context.Background(), clientID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, namespaces.Ensure(context.Background(), &model.Namespace{
		ClientID:   clientID,
		EmbedModel: "embed-a",
		Ctime:      100,
	}))
	// second ensure with a different model must not overwrite
	require.NoError(t, namespaces.Ensure(context.Background(), &model.Namespace{
		ClientID:   clientID,
		EmbedModel: "embed-b",
		Ctime:      200,
	}))

	ns, ok, err := namespaces.Get(context.Background(), clientID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "embed-a", ns.EmbedModel)

	require.NoError(t, namespaces.Delete(context.Background(), clientID))
	_, ok, err = namespaces.Get(context.Background(), clientID)
	require.NoError(t, err)
	require.False(t, ok)
}
