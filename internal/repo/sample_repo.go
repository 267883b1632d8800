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

var sampleFields = []string{"id", "subject_id", "type", "text", "options", "answer", "difficulty", "ctime"}

type SampleRepo struct {
	db *sql.DB
}

func NewSampleRepo(db *sql.DB) *SampleRepo {
	return &SampleRepo{db: db}
}

func (r *SampleRepo) Create(ctx context.Context, item *model.SampleQuestion) error {
	optionsJSON, err := json.Marshal(item.Options)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":         item.ID,
		"subject_id": item.SubjectID,
		"type":       string(item.Type),
		"text":       item.Text,
		"options":    string(optionsJSON),
		"answer":     item.Answer,
		"difficulty": string(item.Difficulty),
		"ctime":      item.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("sample_questions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SampleRepo) ListBySubject(ctx context.Context, subjectID string) ([]*model.SampleQuestion, error) {
	return r.query(ctx, map[string]interface{}{"subject_id": subjectID, "_orderby": "ctime asc"})
}

func (r *SampleRepo) ListBySubjectAndType(ctx context.Context, subjectID string, qtype model.QuestionType) ([]*model.SampleQuestion, error) {
	return r.query(ctx, map[string]interface{}{
		"subject_id": subjectID,
		"type":       string(qtype),
		"_orderby":   "ctime asc",
	})
}

func (r *SampleRepo) Delete(ctx context.Context, sampleID string) error {
	where := map[string]interface{}{"id": sampleID}
	sqlStr, args, err := builder.BuildDelete("sample_questions", where)
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

func (r *SampleRepo) query(ctx context.Context, where map[string]interface{}) ([]*model.SampleQuestion, error) {
	sqlStr, args, err := builder.BuildSelect("sample_questions", where, sampleFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []*model.SampleQuestion
	for rows.Next() {
		var item model.SampleQuestion
		var qtype, difficulty, optionsJSON string
		if err := rows.Scan(&item.ID, &item.SubjectID, &qtype, &item.Text, &optionsJSON, &item.Answer, &difficulty, &item.Ctime); err != nil {
			return nil, err
		}
		item.Type = model.QuestionType(qtype)
		item.Difficulty = model.Difficulty(difficulty)
		if optionsJSON != "" {
			_ = json.Unmarshal([]byte(optionsJSON), &item.Options)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
