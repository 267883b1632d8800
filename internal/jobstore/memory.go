package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/examgen/examgen/internal/model"
	appErr "github.com/examgen/examgen/internal/pkg/errors"
)

// memoryStore keeps batches in-process. Suitable for single-node deploys
// and tests; state does not survive a restart.
type memoryStore struct {
	mu      sync.RWMutex
	batches map[string]*model.Batch
}

func NewMemoryStore() Store {
	return &memoryStore{batches: make(map[string]*model.Batch)}
}

func (s *memoryStore) Create(ctx context.Context, batch *model.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batch.ID]; ok {
		return appErr.ErrConflict
	}
	clone := *batch
	s.batches[batch.ID] = &clone
	return nil
}

func (s *memoryStore) Get(ctx context.Context, batchID string) (*model.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	clone := *batch
	return &clone, nil
}

func (s *memoryStore) SetStatus(ctx context.Context, batchID, status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return appErr.ErrNotFound
	}
	batch.Status = status
	batch.Error = errMsg
	batch.Mtime = time.Now().Unix()
	return nil
}

func (s *memoryStore) IncrGenerated(ctx context.Context, batchID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return appErr.ErrNotFound
	}
	batch.Generated += n
	batch.Mtime = time.Now().Unix()
	return nil
}
