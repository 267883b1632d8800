package job

import (
	"context"
	"time"

	"github.com/examgen/examgen/internal/repo"
)

// BatchCleanupJob fails generation batches stuck in a non-terminal state.
// A batch survives its goroutine only when the process crashed mid-run, so
// anything processing with no recent progress is abandoned.
type BatchCleanupJob struct {
	batches *repo.BatchRepo
	maxAge  time.Duration
}

func NewBatchCleanupJob(batches *repo.BatchRepo, maxAge time.Duration) *BatchCleanupJob {
	return &BatchCleanupJob{batches: batches, maxAge: maxAge}
}

func (j *BatchCleanupJob) Name() string {
	return "batch_cleanup"
}

func (j *BatchCleanupJob) Run(ctx context.Context) error {
	if j.batches == nil {
		return nil
	}
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 2 * time.Hour
	}
	cutoff := time.Now().Add(-maxAge).Unix()
	_, err := j.batches.FailStale(ctx, cutoff, time.Now().Unix())
	return err
}
