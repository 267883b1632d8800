package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/pkg/dbutil"
	appErr "github.com/examgen/examgen/internal/pkg/errors"
)

type TopicRepo struct {
	db *sql.DB
}

func NewTopicRepo(db *sql.DB) *TopicRepo {
	return &TopicRepo{db: db}
}

func (r *TopicRepo) Create(ctx context.Context, topic *model.Topic) error {
	data := map[string]interface{}{
		"id":          topic.ID,
		"subject_id":  topic.SubjectID,
		"name":        topic.Name,
		"description": topic.Description,
		"ctime":       topic.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("topics", []map[string]interface{}{data})
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

func (r *TopicRepo) Get(ctx context.Context, topicID string) (*model.Topic, error) {
	where := map[string]interface{}{"id": topicID}
	sqlStr, args, err := builder.BuildSelect("topics", where, []string{"id", "subject_id", "name", "description", "ctime"})
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
	var topic model.Topic
	if err := rows.Scan(&topic.ID, &topic.SubjectID, &topic.Name, &topic.Description, &topic.Ctime); err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *TopicRepo) ListBySubject(ctx context.Context, subjectID string) ([]*model.Topic, error) {
	where := map[string]interface{}{"subject_id": subjectID, "_orderby": "ctime asc"}
	sqlStr, args, err := builder.BuildSelect("topics", where, []string{"id", "subject_id", "name", "description", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []*model.Topic
	for rows.Next() {
		var topic model.Topic
		if err := rows.Scan(&topic.ID, &topic.SubjectID, &topic.Name, &topic.Description, &topic.Ctime); err != nil {
			return nil, err
		}
		items = append(items, &topic)
	}
	return items, rows.Err()
}

func (r *TopicRepo) Delete(ctx context.Context, topicID string) error {
	where := map[string]interface{}{"id": topicID}
	sqlStr, args, err := builder.BuildDelete("topics", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
