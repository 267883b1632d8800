package service

import (
	"context"

	"github.com/examgen/examgen/internal/model"
	appErr "github.com/examgen/examgen/internal/pkg/errors"
	"github.com/examgen/examgen/internal/repo"
)

var validReviewStatus = map[string]bool{
	model.ReviewPending:     true,
	model.ReviewApproved:    true,
	model.ReviewRejected:    true,
	model.ReviewQuarantined: true,
}

type QuestionService struct {
	questions *repo.QuestionRepo
}

func NewQuestionService(questions *repo.QuestionRepo) *QuestionService {
	return &QuestionService{questions: questions}
}

func (s *QuestionService) Get(ctx context.Context, questionID string) (*model.Question, error) {
	return s.questions.Get(ctx, questionID)
}

func (s *QuestionService) List(ctx context.Context, filter repo.QuestionFilter) ([]*model.Question, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.questions.List(ctx, filter)
}

func (s *QuestionService) Review(ctx context.Context, questionID, status string) (*model.Question, error) {
	if !validReviewStatus[status] {
		return nil, appErr.ErrInvalid
	}
	if err := s.questions.UpdateReviewStatus(ctx, questionID, status); err != nil {
		return nil, err
	}
	return s.questions.Get(ctx, questionID)
}

func (s *QuestionService) Delete(ctx context.Context, questionID string) error {
	return s.questions.Delete(ctx, questionID)
}
