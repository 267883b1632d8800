package vecstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
)

type pgStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Add(ctx context.Context, collection string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	const query = `
		INSERT INTO chunk_vectors (id, collection, material_id, content, metadata, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	now := time.Now().Unix()
	for _, entry := range entries {
		metaJSON, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query,
			entry.ID, collection, entry.MaterialID, entry.Content,
			string(metaJSON), pgvector.NewVector(entry.Embedding), now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *pgStore) QuerySimilar(ctx context.Context, collection string, embedding []float32, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	const query = `
		SELECT id, material_id, content, metadata, embedding, 1 - (embedding <=> $1) AS score
		FROM chunk_vectors
		WHERE collection = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(embedding), collection, topK)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var results []SearchResult
	for rows.Next() {
		var item SearchResult
		var metaJSON string
		var vec pgvector.Vector
		if err := rows.Scan(&item.ID, &item.MaterialID, &item.Content, &metaJSON, &vec, &item.Score); err != nil {
			return nil, err
		}
		item.Embedding = vec.Slice()
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &item.Metadata)
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (s *pgStore) QueryMMR(ctx context.Context, collection string, embedding []float32, topK int, lambda float64, fetchK int) ([]SearchResult, error) {
	if fetchK < topK {
		fetchK = topK
	}
	candidates, err := s.QuerySimilar(ctx, collection, embedding, fetchK)
	if err != nil {
		return nil, err
	}
	return Rerank(candidates, lambda, topK), nil
}

func (s *pgStore) DeleteByMaterial(ctx context.Context, collection, materialID string) error {
	const query = `DELETE FROM chunk_vectors WHERE collection = $1 AND material_id = $2`
	_, err := s.db.ExecContext(ctx, query, collection, materialID)
	return err
}

func (s *pgStore) DropCollection(ctx context.Context, collection string) error {
	const query = `DELETE FROM chunk_vectors WHERE collection = $1`
	_, err := s.db.ExecContext(ctx, query, collection)
	return err
}

func (s *pgStore) Count(ctx context.Context, collection string) (int, error) {
	const query = `SELECT count(*) FROM chunk_vectors WHERE collection = $1`
	row := s.db.QueryRowContext(ctx, query, collection)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
