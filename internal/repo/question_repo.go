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

var questionFields = []string{
	"id", "subject_id", "topic_id", "batch_id", "type", "text", "options",
	"correct_answer", "explanation", "bloom_level", "difficulty", "outcome_codes",
	"context_snapshot", "reasoning", "review_status", "needs_review", "ctime",
}

type QuestionRepo struct {
	db *sql.DB
}

func NewQuestionRepo(db *sql.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

func (r *QuestionRepo) Create(ctx context.Context, item *model.Question) error {
	optionsJSON, err := json.Marshal(item.Options)
	if err != nil {
		return err
	}
	outcomesJSON, err := json.Marshal(item.OutcomeCodes)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":               item.ID,
		"subject_id":       item.SubjectID,
		"topic_id":         item.TopicID,
		"batch_id":         item.BatchID,
		"type":             string(item.Type),
		"text":             item.Text,
		"options":          string(optionsJSON),
		"correct_answer":   item.CorrectAnswer,
		"explanation":      item.Explanation,
		"bloom_level":      string(item.Bloom),
		"difficulty":       string(item.Difficulty),
		"outcome_codes":    string(outcomesJSON),
		"context_snapshot": item.ContextSnapshot,
		"reasoning":        item.Reasoning,
		"review_status":    item.ReviewStatus,
		"needs_review":     item.NeedsReview,
		"ctime":            item.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("questions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *QuestionRepo) Get(ctx context.Context, questionID string) (*model.Question, error) {
	items, err := r.query(ctx, map[string]interface{}{"id": questionID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return items[0], nil
}

func (r *QuestionRepo) ListByBatch(ctx context.Context, batchID string) ([]*model.Question, error) {
	return r.query(ctx, map[string]interface{}{"batch_id": batchID, "_orderby": "ctime asc"})
}

type QuestionFilter struct {
	SubjectID    string
	TopicID      string
	Type         model.QuestionType
	ReviewStatus string
	Offset       uint
	Limit        uint
}

func (r *QuestionRepo) List(ctx context.Context, filter QuestionFilter) ([]*model.Question, error) {
	where := map[string]interface{}{"subject_id": filter.SubjectID, "_orderby": "ctime desc"}
	if filter.TopicID != "" {
		where["topic_id"] = filter.TopicID
	}
	if filter.Type != "" {
		where["type"] = string(filter.Type)
	}
	if filter.ReviewStatus != "" {
		where["review_status"] = filter.ReviewStatus
	}
	if filter.Limit > 0 {
		where["_limit"] = []uint{filter.Offset, filter.Limit}
	}
	return r.query(ctx, where)
}

// ListRecentTexts returns the newest accepted question texts for a
// subject/topic/type, used to keep new questions distinct from earlier
// batches without loading full rows.
func (r *QuestionRepo) ListRecentTexts(ctx context.Context, subjectID, topicID string, qtype model.QuestionType, limit int) ([]string, error) {
	where := map[string]interface{}{
		"subject_id": subjectID,
		"type":       string(qtype),
		"_orderby":   "ctime desc",
	}
	if topicID != "" {
		where["topic_id"] = topicID
	}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	sqlStr, args, err := builder.BuildSelect("questions", where, []string{"text"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

func (r *QuestionRepo) UpdateReviewStatus(ctx context.Context, questionID, status string) error {
	where := map[string]interface{}{"id": questionID}
	update := map[string]interface{}{"review_status": status}
	sqlStr, args, err := builder.BuildUpdate("questions", where, update)
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

func (r *QuestionRepo) Delete(ctx context.Context, questionID string) error {
	where := map[string]interface{}{"id": questionID}
	sqlStr, args, err := builder.BuildDelete("questions", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *QuestionRepo) query(ctx context.Context, where map[string]interface{}) ([]*model.Question, error) {
	sqlStr, args, err := builder.BuildSelect("questions", where, questionFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []*model.Question
	for rows.Next() {
		item, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanQuestion(rows *sql.Rows) (*model.Question, error) {
	var item model.Question
	var qtype, bloom, difficulty, optionsJSON, outcomesJSON string
	if err := rows.Scan(
		&item.ID, &item.SubjectID, &item.TopicID, &item.BatchID, &qtype, &item.Text, &optionsJSON,
		&item.CorrectAnswer, &item.Explanation, &bloom, &difficulty, &outcomesJSON,
		&item.ContextSnapshot, &item.Reasoning, &item.ReviewStatus, &item.NeedsReview, &item.Ctime,
	); err != nil {
		return nil, err
	}
	item.Type = model.QuestionType(qtype)
	item.Bloom = model.BloomLevel(bloom)
	item.Difficulty = model.Difficulty(difficulty)
	if optionsJSON != "" {
		_ = json.Unmarshal([]byte(optionsJSON), &item.Options)
	}
	if outcomesJSON != "" {
		_ = json.Unmarshal([]byte(outcomesJSON), &item.OutcomeCodes)
	}
	return &item, nil
}
