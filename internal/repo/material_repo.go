package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/pkg/dbutil"
	appErr "github.com/examgen/examgen/internal/pkg/errors"
)

var materialFields = []string{
	"id", "subject_id", "topic_id", "title", "file_key", "format",
	"state", "chunk_count", "page_count", "error", "ctime", "mtime",
}

type MaterialRepo struct {
	db *sql.DB
}

func NewMaterialRepo(db *sql.DB) *MaterialRepo {
	return &MaterialRepo{db: db}
}

func (r *MaterialRepo) Create(ctx context.Context, item *model.Material) error {
	data := map[string]interface{}{
		"id":          item.ID,
		"subject_id":  item.SubjectID,
		"topic_id":    item.TopicID,
		"title":       item.Title,
		"file_key":    item.FileKey,
		"format":      item.Format,
		"state":       item.State,
		"chunk_count": item.ChunkCount,
		"page_count":  item.PageCount,
		"error":       item.Error,
		"ctime":       item.Ctime,
		"mtime":       item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("materials", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *MaterialRepo) Get(ctx context.Context, materialID string) (*model.Material, error) {
	where := map[string]interface{}{"id": materialID}
	items, err := r.query(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return items[0], nil
}

func (r *MaterialRepo) ListBySubject(ctx context.Context, subjectID string) ([]*model.Material, error) {
	return r.query(ctx, map[string]interface{}{"subject_id": subjectID, "_orderby": "ctime desc"})
}

func (r *MaterialRepo) ListByState(ctx context.Context, state string, limit int) ([]*model.Material, error) {
	where := map[string]interface{}{"state": state, "_orderby": "ctime asc"}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	return r.query(ctx, where)
}

func (r *MaterialRepo) CountBySubjectAndState(ctx context.Context, subjectID, state string) (int, error) {
	where := map[string]interface{}{"subject_id": subjectID, "state": state}
	sqlStr, args, err := builder.BuildSelect("materials", where, []string{"count(*)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MaterialRepo) Update(ctx context.Context, materialID string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": materialID}
	sqlStr, args, err := builder.BuildUpdate("materials", where, update)
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

// MarkIndexing flips an uploaded material to the indexing state only if no
// other worker claimed it first.
func (r *MaterialRepo) MarkIndexing(ctx context.Context, materialID string, mtime int64) (bool, error) {
	where := map[string]interface{}{"id": materialID, "state": model.MaterialStateUploaded}
	update := map[string]interface{}{"state": model.MaterialStateIndexing, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("materials", where, update)
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *MaterialRepo) Delete(ctx context.Context, materialID string) error {
	where := map[string]interface{}{"id": materialID}
	sqlStr, args, err := builder.BuildDelete("materials", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *MaterialRepo) query(ctx context.Context, where map[string]interface{}) ([]*model.Material, error) {
	sqlStr, args, err := builder.BuildSelect("materials", where, materialFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []*model.Material
	for rows.Next() {
		var item model.Material
		if err := rows.Scan(
			&item.ID, &item.SubjectID, &item.TopicID, &item.Title, &item.FileKey, &item.Format,
			&item.State, &item.ChunkCount, &item.PageCount, &item.Error, &item.Ctime, &item.Mtime,
		); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
