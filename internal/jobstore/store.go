package jobstore

import (
	"context"

	"github.com/examgen/examgen/internal/model"
)

// Store tracks generation batches for the poll-by-id contract. Clients fire
// a generation request, get a batch id back and poll status/progress here.
type Store interface {
	Create(ctx context.Context, batch *model.Batch) error
	Get(ctx context.Context, batchID string) (*model.Batch, error)
	// SetStatus moves a batch between lifecycle states; errMsg is kept only
	// for failed batches.
	SetStatus(ctx context.Context, batchID, status, errMsg string) error
	// IncrGenerated bumps the delivered-question counter.
	IncrGenerated(ctx context.Context, batchID string, n int) error
}
