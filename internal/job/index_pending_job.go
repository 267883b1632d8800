package job

import (
	"context"

	"github.com/examgen/examgen/internal/service"
)

// indexPendingBatchSize bounds one sweep so a pile of uploads cannot hold
// the job slot for hours.
const indexPendingBatchSize = 10

// IndexPendingJob picks up materials that were uploaded but never indexed,
// e.g. when the process died between upload and the index call.
type IndexPendingJob struct {
	indexing *service.IndexingService
}

func NewIndexPendingJob(indexing *service.IndexingService) *IndexPendingJob {
	return &IndexPendingJob{indexing: indexing}
}

func (j *IndexPendingJob) Name() string {
	return "index_pending_materials"
}

func (j *IndexPendingJob) Run(ctx context.Context) error {
	if j.indexing == nil {
		return nil
	}
	_, err := j.indexing.IndexPending(ctx, indexPendingBatchSize)
	return err
}
