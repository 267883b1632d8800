package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/examgen/examgen/internal/config"
	"github.com/examgen/examgen/internal/generator"
	"github.com/examgen/examgen/internal/jobstore"
	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/novelty"
	appErr "github.com/examgen/examgen/internal/pkg/errors"
	"github.com/examgen/examgen/internal/prompt"
	"github.com/examgen/examgen/internal/retriever"
	"github.com/examgen/examgen/internal/vecstore"
)

type fakeGen struct {
	mu    sync.Mutex
	calls int
	specs []prompt.Spec
	fn    func(call int, spec prompt.Spec) (*generator.Candidate, error)
	gate  chan struct{} // when set, each call blocks until the gate closes
}

func (f *fakeGen) GenerateOne(ctx context.Context, spec prompt.Spec, checker *novelty.Checker) (*generator.Candidate, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.specs = append(f.specs, spec)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(call, spec)
	}
	return &generator.Candidate{
		Type:          spec.Type,
		Text:          fmt.Sprintf("generated question %d about %s", call, spec.Topic),
		CorrectAnswer: "A",
	}, nil
}

func (f *fakeGen) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRetriever struct {
	calls     int32
	subtopics []string
}

func (f *fakeRetriever) RetrieveContext(ctx context.Context, query, subjectID string, n int) string {
	atomic.AddInt32(&f.calls, 1)
	return "retrieved context for " + query
}

func (f *fakeRetriever) RetrieveForSubtopic(ctx context.Context, subtopic, subjectID, topicID string, n int) []retriever.Passage {
	atomic.AddInt32(&f.calls, 1)
	return []retriever.Passage{{Text: "passage about " + subtopic, Page: "3", Source: "notes"}}
}

func (f *fakeRetriever) DiscoverSubtopics(ctx context.Context, topic, subjectID string, count int) []string {
	if len(f.subtopics) > 0 {
		return f.subtopics
	}
	return []string{topic}
}

type fakeSubjects struct{ subject *model.Subject }

func (f *fakeSubjects) Get(ctx context.Context, subjectID string) (*model.Subject, error) {
	if f.subject == nil || f.subject.ID != subjectID {
		return nil, appErr.ErrNotFound
	}
	return f.subject, nil
}

type fakeTopics struct{ items []*model.Topic }

func (f *fakeTopics) Get(ctx context.Context, topicID string) (*model.Topic, error) {
	for _, t := range f.items {
		if t.ID == topicID {
			return t, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (f *fakeTopics) ListBySubject(ctx context.Context, subjectID string) ([]*model.Topic, error) {
	return f.items, nil
}

type fakeOutcomes struct{ items []*model.Outcome }

func (f *fakeOutcomes) ListBySubject(ctx context.Context, subjectID string) ([]*model.Outcome, error) {
	return f.items, nil
}

type fakeSamples struct{ items []*model.SampleQuestion }

func (f *fakeSamples) ListBySubject(ctx context.Context, subjectID string) ([]*model.SampleQuestion, error) {
	return f.items, nil
}

type fakeQuestions struct {
	mu    sync.Mutex
	saved []*model.Question
}

func (f *fakeQuestions) Create(ctx context.Context, question *model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, question)
	return nil
}

func (f *fakeQuestions) ListByBatch(ctx context.Context, batchID string) ([]*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Question
	for _, q := range f.saved {
		if q.BatchID == batchID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestions) ListRecentTexts(ctx context.Context, subjectID, topicID string, qtype model.QuestionType, limit int) ([]string, error) {
	return nil, nil
}

func (f *fakeQuestions) all() []*model.Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.Question(nil), f.saved...)
}

type fakeVec struct{ count int }

func (f *fakeVec) Add(ctx context.Context, collection string, entries []vecstore.Entry) error {
	return nil
}

func (f *fakeVec) QuerySimilar(ctx context.Context, collection string, embedding []float32, topK int) ([]vecstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeVec) QueryMMR(ctx context.Context, collection string, embedding []float32, topK int, lambda float64, fetchK int) ([]vecstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeVec) DeleteByMaterial(ctx context.Context, collection, materialID string) error {
	return nil
}

func (f *fakeVec) DropCollection(ctx context.Context, collection string) error { return nil }

func (f *fakeVec) Count(ctx context.Context, collection string) (int, error) {
	return f.count, nil
}

type genFixture struct {
	svc       *GenerationService
	gen       *fakeGen
	retriever *fakeRetriever
	questions *fakeQuestions
	jobs      jobstore.Store
	subject   *model.Subject
}

func newGenFixture(t *testing.T, topics []*model.Topic, cfg config.GenerationConfig) *genFixture {
	t.Helper()
	subject := &model.Subject{ID: "sub1", Name: "Operating Systems", Code: "OS101"}
	gen := &fakeGen{}
	retr := &fakeRetriever{}
	questions := &fakeQuestions{}
	jobs := jobstore.NewMemoryStore()
	svc := NewGenerationService(
		gen,
		retr,
		jobs,
		&fakeSubjects{subject: subject},
		&fakeTopics{items: topics},
		&fakeOutcomes{items: []*model.Outcome{{Code: "LO1"}, {Code: "LO2"}}},
		&fakeSamples{},
		questions,
		&fakeVec{count: 12},
		cfg,
	)
	return &genFixture{svc: svc, gen: gen, retriever: retr, questions: questions, jobs: jobs, subject: subject}
}

func waitBatch(t *testing.T, jobs jobstore.Store, batchID string) *model.Batch {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		batch, err := jobs.Get(context.Background(), batchID)
		require.NoError(t, err)
		if batch.Status == model.BatchStatusCompleted || batch.Status == model.BatchStatusFailed {
			return batch
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("batch did not reach a terminal state")
	return nil
}

func TestStartBatchQueuesBehindRunningBatch(t *testing.T) {
	fix := newGenFixture(t, []*model.Topic{{ID: "t1", SubjectID: "sub1", Name: "Scheduling"}}, config.GenerationConfig{})
	fix.gen.gate = make(chan struct{})

	first, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{model.QuestionTypeMCQ: 1},
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		batch, err := fix.jobs.Get(context.Background(), first.ID)
		return err == nil && batch.Status == model.BatchStatusProcessing
	}, 2*time.Second, 5*time.Millisecond)

	second, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{model.QuestionTypeMCQ: 1},
	})
	require.NoError(t, err)

	// The second batch holds in queued while the first owns the slot; its
	// generator must not have been touched yet.
	time.Sleep(50 * time.Millisecond)
	queued, err := fix.jobs.Get(context.Background(), second.ID)
	require.NoError(t, err)
	require.Equal(t, model.BatchStatusQueued, queued.Status)

	close(fix.gen.gate)
	waitBatch(t, fix.jobs, first.ID)
	final := waitBatch(t, fix.jobs, second.ID)
	require.Equal(t, model.BatchStatusCompleted, final.Status)
	require.Equal(t, 2, fix.gen.callCount())
}

func TestStartBatchRequiresIndexedSubject(t *testing.T) {
	fix := newGenFixture(t, []*model.Topic{{ID: "t1", SubjectID: "sub1", Name: "Scheduling"}}, config.GenerationConfig{})
	fix.svc.vec = &fakeVec{count: 0}

	_, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{model.QuestionTypeMCQ: 1},
	})
	require.ErrorIs(t, err, appErr.ErrNotIndexed)
}

func TestStartBatchRejectsBadRequest(t *testing.T) {
	fix := newGenFixture(t, nil, config.GenerationConfig{})

	_, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{SubjectID: "sub1"})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{"trivia": 2},
	})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestBatchPersistsQuestionsRoundRobin(t *testing.T) {
	topics := []*model.Topic{
		{ID: "t1", SubjectID: "sub1", Name: "Scheduling"},
		{ID: "t2", SubjectID: "sub1", Name: "Memory Management"},
	}
	fix := newGenFixture(t, topics, config.GenerationConfig{})

	batch, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets: map[model.QuestionType]int{
			model.QuestionTypeMCQ:         2,
			model.QuestionTypeShortAnswer: 1,
		},
	})
	require.NoError(t, err)
	final := waitBatch(t, fix.jobs, batch.ID)

	require.Equal(t, model.BatchStatusCompleted, final.Status)
	require.Equal(t, 3, final.Generated)
	require.Equal(t, 3, final.Target)

	saved := fix.questions.all()
	require.Len(t, saved, 3)
	seenTopics := map[string]bool{}
	for _, q := range saved {
		require.Equal(t, batch.ID, q.BatchID)
		require.Equal(t, model.ReviewPending, q.ReviewStatus)
		require.Equal(t, []string{"LO1", "LO2"}, q.OutcomeCodes)
		require.NotEmpty(t, q.ContextSnapshot)
		seenTopics[q.TopicID] = true
	}
	// Two topics, three slots: both topics must have been visited.
	require.True(t, seenTopics["t1"])
	require.True(t, seenTopics["t2"])
}

func TestBatchWithoutTopicsUsesSubjectName(t *testing.T) {
	fix := newGenFixture(t, nil, config.GenerationConfig{})

	batch, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{model.QuestionTypeEssay: 1},
	})
	require.NoError(t, err)
	waitBatch(t, fix.jobs, batch.ID)

	require.Len(t, fix.gen.specs, 1)
	require.Equal(t, "Operating Systems", fix.gen.specs[0].Topic)
}

func TestBatchCompletesPartialOnDiscards(t *testing.T) {
	fix := newGenFixture(t, []*model.Topic{{ID: "t1", SubjectID: "sub1", Name: "Scheduling"}}, config.GenerationConfig{})
	fix.gen.fn = func(call int, spec prompt.Spec) (*generator.Candidate, error) {
		if call%2 == 0 {
			return nil, generator.ErrDiscarded
		}
		return &generator.Candidate{
			Type: spec.Type,
			Text: fmt.Sprintf("unique question %d", call),
		}, nil
	}

	batch, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{model.QuestionTypeMCQ: 4},
	})
	require.NoError(t, err)
	final := waitBatch(t, fix.jobs, batch.ID)

	// First pass delivers 2 of 4, the single shortfall pass recovers one
	// more. Discards never fail the batch.
	require.Equal(t, model.BatchStatusCompleted, final.Status)
	require.Equal(t, 3, final.Generated)
	require.Equal(t, 6, fix.gen.callCount())
}

func TestBatchFailsWhenBackendDown(t *testing.T) {
	fix := newGenFixture(t, []*model.Topic{{ID: "t1", SubjectID: "sub1", Name: "Scheduling"}}, config.GenerationConfig{BreakerFailures: 10})
	fix.gen.fn = func(call int, spec prompt.Spec) (*generator.Candidate, error) {
		return nil, errors.New("connection refused")
	}

	batch, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{model.QuestionTypeMCQ: 2},
	})
	require.NoError(t, err)
	final := waitBatch(t, fix.jobs, batch.ID)

	require.Equal(t, model.BatchStatusFailed, final.Status)
	require.Contains(t, final.Error, "connection refused")
	require.Equal(t, 0, final.Generated)
}

func TestBreakerSkipsSlotAfterConsecutiveFailures(t *testing.T) {
	fix := newGenFixture(t, []*model.Topic{{ID: "t1", SubjectID: "sub1", Name: "Scheduling"}}, config.GenerationConfig{BreakerFailures: 2})
	fix.gen.fn = func(call int, spec prompt.Spec) (*generator.Candidate, error) {
		return nil, errors.New("model overloaded")
	}

	batch, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{model.QuestionTypeMCQ: 6},
	})
	require.NoError(t, err)
	waitBatch(t, fix.jobs, batch.ID)

	// Two failures trip the breaker; the remaining slots and the shortfall
	// pass are skipped without touching the backend.
	require.Equal(t, 2, fix.gen.callCount())
}

func TestTopicContextRetrievedOncePerTopic(t *testing.T) {
	fix := newGenFixture(t, []*model.Topic{{ID: "t1", SubjectID: "sub1", Name: "Scheduling"}}, config.GenerationConfig{})

	batch, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{model.QuestionTypeMCQ: 3},
	})
	require.NoError(t, err)
	waitBatch(t, fix.jobs, batch.ID)

	require.EqualValues(t, 1, atomic.LoadInt32(&fix.retriever.calls))
	require.Equal(t, 3, fix.gen.callCount())
}

func TestSubtopicsCycleAcrossQuestions(t *testing.T) {
	fix := newGenFixture(t, []*model.Topic{{ID: "t1", SubjectID: "sub1", Name: "Scheduling"}}, config.GenerationConfig{})
	fix.retriever.subtopics = []string{"preemption", "priority inversion"}

	batch, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{model.QuestionTypeMCQ: 4},
	})
	require.NoError(t, err)
	waitBatch(t, fix.jobs, batch.ID)

	require.Len(t, fix.gen.specs, 4)
	var focuses []string
	for _, spec := range fix.gen.specs {
		focuses = append(focuses, spec.Subtopic)
	}
	require.Equal(t, []string{"preemption", "priority inversion", "preemption", "priority inversion"}, focuses)
	// One retrieval per distinct subtopic, the rest served from the cache.
	require.EqualValues(t, 2, atomic.LoadInt32(&fix.retriever.calls))
}

func TestListBatchQuestions(t *testing.T) {
	fix := newGenFixture(t, []*model.Topic{{ID: "t1", SubjectID: "sub1", Name: "Scheduling"}}, config.GenerationConfig{})

	batch, err := fix.svc.StartBatch(context.Background(), &GenerateRequest{
		SubjectID: "sub1",
		Targets:   map[model.QuestionType]int{model.QuestionTypeMCQ: 2},
	})
	require.NoError(t, err)
	waitBatch(t, fix.jobs, batch.ID)

	questions, err := fix.svc.ListBatchQuestions(context.Background(), batch.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	_, err = fix.svc.ListBatchQuestions(context.Background(), "missing")
	require.Error(t, err)
}
