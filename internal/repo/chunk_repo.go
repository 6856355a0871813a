package repo

import (
	"context"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/docqa/internal/model"
)

type ChunkRepo struct {
	db *sqlx.DB
}

func NewChunkRepo(db *sqlx.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// UpsertChunks writes chunk+embedding pairs with replace-by-key semantics
// on (client_id, filename, chunk_idx). Each row is atomic on its own;
// callers serialize whole-document writes.
func (r *ChunkRepo) UpsertChunks(ctx context.Context, chunks []*model.EmbeddedChunk) error {
	const query = `
		INSERT INTO doc_chunks (client_id, filename, chunk_idx, content, word_count, embedding, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (client_id, filename, chunk_idx) DO UPDATE SET
			content = EXCLUDED.content,
			word_count = EXCLUDED.word_count,
			embedding = EXCLUDED.embedding,
			mtime = EXCLUDED.mtime
	`
	now := time.Now().UnixMilli()
	for _, item := range chunks {
		if _, err := r.db.ExecContext(ctx, query,
			item.Chunk.ClientID,
			item.Chunk.Filename,
			item.Chunk.Index,
			item.Chunk.Content,
			item.Chunk.WordCount,
			pgvector.NewVector(item.Embedding),
			now,
		); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFromIndex drops trailing chunks left over when a re-ingested
// document produced fewer chunks than the stored version.
func (r *ChunkRepo) DeleteFromIndex(ctx context.Context, clientID, filename string, fromIdx int) error {
	const query = `DELETE FROM doc_chunks WHERE client_id = $1 AND filename = $2 AND chunk_idx >= $3`
	_, err := r.db.ExecContext(ctx, query, clientID, filename, fromIdx)
	return err
}

// Search returns the k nearest chunks by cosine similarity, descending
// score, ties broken by insertion order.
func (r *ChunkRepo) Search(ctx context.Context, clientID string, embedding []float32, k int) ([]*model.RetrievedChunk, error) {
	const query = `
		SELECT client_id, filename, chunk_idx, content, word_count,
		       1 - (embedding <=> $2::vector) AS score
		FROM doc_chunks
		WHERE client_id = $1
		ORDER BY embedding <=> $2::vector ASC, id ASC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, clientID, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []*model.RetrievedChunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var score float64
		if err := rows.Scan(&chunk.ClientID, &chunk.Filename, &chunk.Index, &chunk.Content, &chunk.WordCount, &score); err != nil {
			return nil, err
		}
		results = append(results, &model.RetrievedChunk{Chunk: chunk, Score: score})
	}
	return results, rows.Err()
}

func (r *ChunkRepo) CountByClient(ctx context.Context, clientID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM doc_chunks WHERE client_id = $1`, clientID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepo) CountByDocument(ctx context.Context, clientID, filename string) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM doc_chunks WHERE client_id = $1 AND filename = $2`
	if err := r.db.GetContext(ctx, &count, query, clientID, filename); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepo) ListFilenames(ctx context.Context, clientID string) ([]string, error) {
	var names []string
	const query = `SELECT DISTINCT filename FROM doc_chunks WHERE client_id = $1 ORDER BY filename`
	if err := r.db.SelectContext(ctx, &names, query, clientID); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *ChunkRepo) DeleteByClient(ctx context.Context, clientID string) error {
	where := map[string]interface{}{
		"client_id": clientID,
	}
	sqlStr, args, err := builder.BuildDelete("doc_chunks", where)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(sqlStr), args...)
	return err
}
