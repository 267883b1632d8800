package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/pkg/dbutil"
	appErr "github.com/examgen/examgen/internal/pkg/errors"
)

var batchFields = []string{
	"id", "subject_id", "topic_id", "targets", "target", "generated",
	"status", "error", "ctime", "mtime",
}

type BatchRepo struct {
	db *sql.DB
}

func NewBatchRepo(db *sql.DB) *BatchRepo {
	return &BatchRepo{db: db}
}

func (r *BatchRepo) Create(ctx context.Context, item *model.Batch) error {
	targetsJSON, err := json.Marshal(item.Targets)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":         item.ID,
		"subject_id": item.SubjectID,
		"topic_id":   item.TopicID,
		"targets":    string(targetsJSON),
		"target":     item.Target,
		"generated":  item.Generated,
		"status":     item.Status,
		"error":      item.Error,
		"ctime":      item.Ctime,
		"mtime":      item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("batches", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *BatchRepo) Get(ctx context.Context, batchID string) (*model.Batch, error) {
	items, err := r.query(ctx, map[string]interface{}{"id": batchID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return items[0], nil
}

func (r *BatchRepo) ListBySubject(ctx context.Context, subjectID string, limit uint) ([]*model.Batch, error) {
	where := map[string]interface{}{"subject_id": subjectID, "_orderby": "ctime desc"}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	return r.query(ctx, where)
}

func (r *BatchRepo) Update(ctx context.Context, batchID string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": batchID}
	sqlStr, args, err := builder.BuildUpdate("batches", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// FailStale marks processing batches older than cutoff as failed. Covers
// batches orphaned by a crash mid-generation.
func (r *BatchRepo) FailStale(ctx context.Context, cutoff, now int64) (int64, error) {
	const query = `
		UPDATE batches
		SET status = $1, error = $2, mtime = $3
		WHERE status = $4 AND mtime < $5
	`
	res, err := r.db.ExecContext(ctx, query,
		model.BatchStatusFailed, "abandoned: no progress before restart", now,
		model.BatchStatusProcessing, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *BatchRepo) query(ctx context.Context, where map[string]interface{}) ([]*model.Batch, error) {
	sqlStr, args, err := builder.BuildSelect("batches", where, batchFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []*model.Batch
	for rows.Next() {
		var item model.Batch
		var targetsJSON string
		if err := rows.Scan(
			&item.ID, &item.SubjectID, &item.TopicID, &targetsJSON, &item.Target,
			&item.Generated, &item.Status, &item.Error, &item.Ctime, &item.Mtime,
		); err != nil {
			return nil, err
		}
		if targetsJSON != "" {
			_ = json.Unmarshal([]byte(targetsJSON), &item.Targets)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
