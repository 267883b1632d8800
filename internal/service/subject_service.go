package service

import (
	"context"
	"strings"
	"time"

	"github.com/examgen/examgen/internal/model"
	appErr "github.com/examgen/examgen/internal/pkg/errors"
	"github.com/examgen/examgen/internal/repo"
)

type SubjectService struct {
	subjects *repo.SubjectRepo
	topics   *repo.TopicRepo
	outcomes *repo.OutcomeRepo
	samples  *repo.SampleRepo
}

func NewSubjectService(subjects *repo.SubjectRepo, topics *repo.TopicRepo, outcomes *repo.OutcomeRepo, samples *repo.SampleRepo) *SubjectService {
	return &SubjectService{subjects: subjects, topics: topics, outcomes: outcomes, samples: samples}
}

func (s *SubjectService) Create(ctx context.Context, name, code, description string) (*model.Subject, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" || code == "" {
		return nil, appErr.ErrInvalid
	}
	now := time.Now().Unix()
	subject := &model.Subject{
		ID:          newID(),
		Name:        name,
		Code:        code,
		Description: strings.TrimSpace(description),
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *SubjectService) Get(ctx context.Context, subjectID string) (*model.Subject, error) {
	return s.subjects.Get(ctx, subjectID)
}

func (s *SubjectService) List(ctx context.Context) ([]*model.Subject, error) {
	return s.subjects.List(ctx)
}

func (s *SubjectService) Delete(ctx context.Context, subjectID string) error {
	if _, err := s.subjects.Get(ctx, subjectID); err != nil {
		return err
	}
	return s.subjects.Delete(ctx, subjectID)
}

func (s *SubjectService) CreateTopic(ctx context.Context, subjectID, name, description string) (*model.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.subjects.Get(ctx, subjectID); err != nil {
		return nil, err
	}
	topic := &model.Topic{
		ID:          newID(),
		SubjectID:   subjectID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Ctime:       time.Now().Unix(),
	}
	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *SubjectService) ListTopics(ctx context.Context, subjectID string) ([]*model.Topic, error) {
	return s.topics.ListBySubject(ctx, subjectID)
}

func (s *SubjectService) ReplaceOutcomes(ctx context.Context, subjectID string, items []*model.Outcome) ([]*model.Outcome, error) {
	if _, err := s.subjects.Get(ctx, subjectID); err != nil {
		return nil, err
	}
	for _, item := range items {
		item.ID = newID()
		item.SubjectID = subjectID
		item.Code = strings.TrimSpace(item.Code)
		if item.Code == "" {
			return nil, appErr.ErrInvalid
		}
	}
	if err := s.outcomes.Replace(ctx, subjectID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SubjectService) ListOutcomes(ctx context.Context, subjectID string) ([]*model.Outcome, error) {
	return s.outcomes.ListBySubject(ctx, subjectID)
}

func (s *SubjectService) AddSample(ctx context.Context, sample *model.SampleQuestion) (*model.SampleQuestion, error) {
	if !sample.Type.Valid() || strings.TrimSpace(sample.Text) == "" {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.subjects.Get(ctx, sample.SubjectID); err != nil {
		return nil, err
	}
	sample.ID = newID()
	sample.Text = strings.TrimSpace(sample.Text)
	sample.Ctime = time.Now().Unix()
	if err := s.samples.Create(ctx, sample); err != nil {
		return nil, err
	}
	return sample, nil
}

func (s *SubjectService) ListSamples(ctx context.Context, subjectID string) ([]*model.SampleQuestion, error) {
	return s.samples.ListBySubject(ctx, subjectID)
}

func (s *SubjectService) DeleteSample(ctx context.Context, sampleID string) error {
	return s.samples.Delete(ctx, sampleID)
}
