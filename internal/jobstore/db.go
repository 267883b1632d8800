package jobstore

import (
	"context"
	"time"

	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/repo"
)

// dbStore persists batches through the batch repo so status polls survive
// restarts and cleanup jobs can see abandoned batches.
type dbStore struct {
	batches *repo.BatchRepo
}

func NewDBStore(batches *repo.BatchRepo) Store {
	return &dbStore{batches: batches}
}

func (s *dbStore) Create(ctx context.Context, batch *model.Batch) error {
	return s.batches.Create(ctx, batch)
}

func (s *dbStore) Get(ctx context.Context, batchID string) (*model.Batch, error) {
	return s.batches.Get(ctx, batchID)
}

func (s *dbStore) SetStatus(ctx context.Context, batchID, status, errMsg string) error {
	return s.batches.Update(ctx, batchID, map[string]interface{}{
		"status": status,
		"error":  errMsg,
		"mtime":  time.Now().Unix(),
	})
}

func (s *dbStore) IncrGenerated(ctx context.Context, batchID string, n int) error {
	batch, err := s.batches.Get(ctx, batchID)
	if err != nil {
		return err
	}
	return s.batches.Update(ctx, batchID, map[string]interface{}{
		"generated": batch.Generated + n,
		"mtime":     time.Now().Unix(),
	})
}
