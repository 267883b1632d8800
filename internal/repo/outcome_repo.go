package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/pkg/dbutil"
)

type OutcomeRepo struct {
	db *sql.DB
}

func NewOutcomeRepo(db *sql.DB) *OutcomeRepo {
	return &OutcomeRepo{db: db}
}

// Replace swaps the whole outcome set for a subject. Outcome codes are
// maintained as a unit (pasted from a course outline), so partial edits are
// not supported.
func (r *OutcomeRepo) Replace(ctx context.Context, subjectID string, outcomes []*model.Outcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	delStr, delArgs, err := builder.BuildDelete("outcomes", map[string]interface{}{"subject_id": subjectID})
	if err != nil {
		return err
	}
	delStr, delArgs = dbutil.Finalize(delStr, delArgs)
	if _, err := tx.ExecContext(ctx, delStr, delArgs...); err != nil {
		return err
	}
	if len(outcomes) > 0 {
		data := make([]map[string]interface{}, 0, len(outcomes))
		for _, item := range outcomes {
			data = append(data, map[string]interface{}{
				"id":          item.ID,
				"subject_id":  item.SubjectID,
				"code":        item.Code,
				"description": item.Description,
			})
		}
		insStr, insArgs, err := builder.BuildInsert("outcomes", data)
		if err != nil {
			return err
		}
		insStr, insArgs = dbutil.Finalize(insStr, insArgs)
		if _, err := tx.ExecContext(ctx, insStr, insArgs...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OutcomeRepo) ListBySubject(ctx context.Context, subjectID string) ([]*model.Outcome, error) {
	where := map[string]interface{}{"subject_id": subjectID, "_orderby": "code asc"}
	sqlStr, args, err := builder.BuildSelect("outcomes", where, []string{"id", "subject_id", "code", "description"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []*model.Outcome
	for rows.Next() {
		var item model.Outcome
		if err := rows.Scan(&item.ID, &item.SubjectID, &item.Code, &item.Description); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
