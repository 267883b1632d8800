package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/pkg/dbutil"
	appErr "github.com/examgen/examgen/internal/pkg/errors"
)

var subjectFields = []string{"id", "name", "code", "description", "ctime", "mtime"}

type SubjectRepo struct {
	db *sql.DB
}

func NewSubjectRepo(db *sql.DB) *SubjectRepo {
	return &SubjectRepo{db: db}
}

func (r *SubjectRepo) Create(ctx context.Context, subject *model.Subject) error {
	data := map[string]interface{}{
		"id":          subject.ID,
		"name":        subject.Name,
		"code":        subject.Code,
		"description": subject.Description,
		"ctime":       subject.Ctime,
		"mtime":       subject.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("subjects", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *SubjectRepo) Get(ctx context.Context, subjectID string) (*model.Subject, error) {
	where := map[string]interface{}{"id": subjectID}
	sqlStr, args, err := builder.BuildSelect("subjects", where, subjectFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanSubject(rows)
}

func (r *SubjectRepo) List(ctx context.Context) ([]*model.Subject, error) {
	where := map[string]interface{}{"_orderby": "ctime desc"}
	sqlStr, args, err := builder.BuildSelect("subjects", where, subjectFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []*model.Subject
	for rows.Next() {
		item, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *SubjectRepo) Update(ctx context.Context, subjectID string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": subjectID}
	sqlStr, args, err := builder.BuildUpdate("subjects", where, update)
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

func (r *SubjectRepo) Delete(ctx context.Context, subjectID string) error {
	where := map[string]interface{}{"id": subjectID}
	sqlStr, args, err := builder.BuildDelete("subjects", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func scanSubject(rows *sql.Rows) (*model.Subject, error) {
	var item model.Subject
	if err := rows.Scan(&item.ID, &item.Name, &item.Code, &item.Description, &item.Ctime, &item.Mtime); err != nil {
		return nil, err
	}
	return &item, nil
}
