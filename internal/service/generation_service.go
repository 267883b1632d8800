package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

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

// Local LLM backends fall over under parallel load, so generation holds a
// single system-wide slot and everything behind it runs strictly in order.
type questionGenerator interface {
	GenerateOne(ctx context.Context, spec prompt.Spec, checker *novelty.Checker) (*generator.Candidate, error)
}

type contextRetriever interface {
	RetrieveContext(ctx context.Context, query, subjectID string, n int) string
	RetrieveForSubtopic(ctx context.Context, subtopic, subjectID, topicID string, n int) []retriever.Passage
	DiscoverSubtopics(ctx context.Context, topic, subjectID string, count int) []string
}

type subjectGetter interface {
	Get(ctx context.Context, subjectID string) (*model.Subject, error)
}

type topicSource interface {
	Get(ctx context.Context, topicID string) (*model.Topic, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*model.Topic, error)
}

type outcomeSource interface {
	ListBySubject(ctx context.Context, subjectID string) ([]*model.Outcome, error)
}

type sampleSource interface {
	ListBySubject(ctx context.Context, subjectID string) ([]*model.SampleQuestion, error)
}

type questionSink interface {
	Create(ctx context.Context, question *model.Question) error
	ListByBatch(ctx context.Context, batchID string) ([]*model.Question, error)
	ListRecentTexts(ctx context.Context, subjectID, topicID string, qtype model.QuestionType, limit int) ([]string, error)
}

// crossBatchSeedLimit bounds how many prior question texts are loaded per
// type for the cross-batch novelty pool.
const crossBatchSeedLimit = 50

const topicContextTTL = 15 * time.Minute

// subtopicSpread is how many subtopics a topic is split into for a batch.
// Cycling through them keeps questions on one topic from piling onto the
// same concept.
const subtopicSpread = 5

type GenerateRequest struct {
	SubjectID  string
	TopicID    string
	Targets    map[model.QuestionType]int
	Difficulty model.Difficulty
}

func (r *GenerateRequest) total() int {
	total := 0
	for _, n := range r.Targets {
		total += n
	}
	return total
}

type GenerationService struct {
	sem       *semaphore.Weighted
	gen       questionGenerator
	retr      contextRetriever
	jobs      jobstore.Store
	subjects  subjectGetter
	topics    topicSource
	outcomes  outcomeSource
	samples   sampleSource
	questions questionSink
	vec       vecstore.Store
	cfg       config.GenerationConfig
	ctxCache  *expirable.LRU[string, string]
}

func NewGenerationService(
	gen questionGenerator,
	retr contextRetriever,
	jobs jobstore.Store,
	subjects subjectGetter,
	topics topicSource,
	outcomes outcomeSource,
	samples sampleSource,
	questions questionSink,
	vec vecstore.Store,
	cfg config.GenerationConfig,
) *GenerationService {
	if cfg.ContextResults <= 0 {
		cfg.ContextResults = 5
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.TopicContextCache <= 0 {
		cfg.TopicContextCache = 64
	}
	return &GenerationService{
		sem:       semaphore.NewWeighted(1),
		gen:       gen,
		retr:      retr,
		jobs:      jobs,
		subjects:  subjects,
		topics:    topics,
		outcomes:  outcomes,
		samples:   samples,
		questions: questions,
		vec:       vec,
		cfg:       cfg,
		ctxCache:  expirable.NewLRU[string, string](cfg.TopicContextCache, nil, topicContextTTL),
	}
}

// StartBatch validates the request, records the batch as queued and runs it
// in the background. One batch generates at a time; requests arriving while
// a batch holds the slot stay queued until it frees, in arrival order.
func (s *GenerationService) StartBatch(ctx context.Context, req *GenerateRequest) (*model.Batch, error) {
	if req.total() <= 0 {
		return nil, appErr.ErrInvalid
	}
	for qtype := range req.Targets {
		if !qtype.Valid() {
			return nil, fmt.Errorf("%w: unknown question type %q", appErr.ErrInvalid, qtype)
		}
	}
	if req.Difficulty == "" {
		req.Difficulty = model.DifficultyMedium
	}
	subject, err := s.subjects.Get(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}
	count, err := s.vec.Count(ctx, vecstore.CollectionForSubject(subject.ID))
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, appErr.ErrNotIndexed
	}

	now := time.Now().Unix()
	batch := &model.Batch{
		ID:        newID(),
		SubjectID: subject.ID,
		TopicID:   req.TopicID,
		Targets:   req.Targets,
		Target:    req.total(),
		Status:    model.BatchStatusQueued,
		Ctime:     now,
		Mtime:     now,
	}
	if err := s.jobs.Create(ctx, batch); err != nil {
		return nil, err
	}
	go func() {
		// The batch must outlive the originating HTTP request. It stays
		// queued until the single generation slot frees; blocked acquirers
		// proceed in FIFO order.
		ctx := context.Background()
		if err := s.sem.Acquire(ctx, 1); err != nil {
			_ = s.jobs.SetStatus(ctx, batch.ID, model.BatchStatusFailed, err.Error())
			return
		}
		defer s.sem.Release(1)
		s.run(ctx, batch, subject, req)
	}()
	return batch, nil
}

func (s *GenerationService) GetBatch(ctx context.Context, batchID string) (*model.Batch, error) {
	return s.jobs.Get(ctx, batchID)
}

func (s *GenerationService) ListBatchQuestions(ctx context.Context, batchID string) ([]*model.Question, error) {
	if _, err := s.jobs.Get(ctx, batchID); err != nil {
		return nil, err
	}
	return s.questions.ListByBatch(ctx, batchID)
}

func (s *GenerationService) run(ctx context.Context, batch *model.Batch, subject *model.Subject, req *GenerateRequest) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("batch_id", batch.ID),
		zap.String("subject_id", subject.ID),
	)
	_ = s.jobs.SetStatus(ctx, batch.ID, model.BatchStatusProcessing, "")

	checker, blueprints, err := s.prepare(ctx, subject.ID, req)
	if err != nil {
		logger.Error("batch preparation failed", zap.Error(err))
		_ = s.jobs.SetStatus(ctx, batch.ID, model.BatchStatusFailed, err.Error())
		return
	}
	topicList, err := s.resolveTopics(ctx, subject, req.TopicID)
	if err != nil {
		logger.Error("batch topic resolution failed", zap.Error(err))
		_ = s.jobs.SetStatus(ctx, batch.ID, model.BatchStatusFailed, err.Error())
		return
	}
	outcomeCodes := s.loadOutcomeCodes(ctx, subject.ID)
	assigner := prompt.NewBloomAssigner()
	breakers := make(map[string]*gobreaker.CircuitBreaker)

	run := &batchRun{
		service:      s,
		logger:       logger,
		batch:        batch,
		subject:      subject,
		difficulty:   req.Difficulty,
		checker:      checker,
		blueprints:   blueprints,
		outcomeCodes: outcomeCodes,
		assigner:     assigner,
		breakers:     breakers,
		topics:       topicList,
	}

	generated := 0
	for _, qtype := range orderedTypes(req.Targets) {
		generated += run.generateType(ctx, qtype, req.Targets[qtype])
	}
	// One shortfall pass: slots lost to duplicates or discards get a second
	// chance before the batch closes. Open breakers stay skipped.
	for _, qtype := range orderedTypes(req.Targets) {
		if missing := req.Targets[qtype] - run.delivered[qtype]; missing > 0 {
			logger.Info("retrying shortfall",
				zap.String("type", string(qtype)),
				zap.Int("missing", missing),
			)
			generated += run.generateType(ctx, qtype, missing)
		}
	}

	if generated == 0 && run.lastBackendErr != nil {
		_ = s.jobs.SetStatus(ctx, batch.ID, model.BatchStatusFailed,
			fmt.Sprintf("no questions generated: %v", run.lastBackendErr))
		return
	}
	// Partial delivery is a valid terminal state; the count tells the story.
	_ = s.jobs.SetStatus(ctx, batch.ID, model.BatchStatusCompleted, "")
	logger.Info("batch finished",
		zap.Int("generated", generated),
		zap.Int("target", batch.Target),
	)
}

func (s *GenerationService) prepare(ctx context.Context, subjectID string, req *GenerateRequest) (*novelty.Checker, map[model.QuestionType]string, error) {
	checker := novelty.NewChecker(novelty.Thresholds{
		Samples:    s.cfg.SampleSimilarity,
		CrossBatch: s.cfg.CrossBatchSim,
		InBatch:    s.cfg.InBatchSim,
	})
	sampleList, err := s.samples.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("load sample questions: %w", err)
	}
	sampleTexts := make([]string, 0, len(sampleList))
	for _, sample := range sampleList {
		sampleTexts = append(sampleTexts, sample.Text)
	}
	checker.Seed(novelty.TierSamples, sampleTexts)

	blueprints := make(map[model.QuestionType]string)
	for qtype := range req.Targets {
		blueprints[qtype] = prompt.BuildBlueprint(sampleList, qtype)
		prior, err := s.questions.ListRecentTexts(ctx, subjectID, req.TopicID, qtype, crossBatchSeedLimit)
		if err != nil {
			return nil, nil, fmt.Errorf("load prior questions: %w", err)
		}
		checker.Seed(novelty.TierCrossBatch, prior)
	}
	return checker, blueprints, nil
}

func (s *GenerationService) resolveTopics(ctx context.Context, subject *model.Subject, topicID string) ([]*model.Topic, error) {
	if topicID != "" {
		topic, err := s.topics.Get(ctx, topicID)
		if err != nil {
			return nil, err
		}
		if topic.SubjectID != subject.ID {
			return nil, appErr.ErrInvalid
		}
		return []*model.Topic{topic}, nil
	}
	topicList, err := s.topics.ListBySubject(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	if len(topicList) == 0 {
		// Subjects without explicit topics generate against the subject as
		// a whole.
		return []*model.Topic{{ID: "", SubjectID: subject.ID, Name: subject.Name}}, nil
	}
	return topicList, nil
}

func (s *GenerationService) loadOutcomeCodes(ctx context.Context, subjectID string) []string {
	items, err := s.outcomes.ListBySubject(ctx, subjectID)
	if err != nil {
		logutil.GetLogger(ctx).Warn("loading outcome codes failed", zap.Error(err))
		return nil
	}
	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.Code)
	}
	return codes
}

func (s *GenerationService) subtopicContext(ctx context.Context, subjectID string, topic *model.Topic, subtopic string) string {
	key := subjectID + "/" + topic.ID + "/" + subtopic
	if cached, ok := s.ctxCache.Get(key); ok {
		return cached
	}
	var text string
	if topic.ID == "" {
		// Pseudo-topic for subjects without explicit topics: no topic_id
		// metadata to filter on, search the whole subject.
		text = s.retr.RetrieveContext(ctx, subtopic, subjectID, s.cfg.ContextResults)
	} else {
		passages := s.retr.RetrieveForSubtopic(ctx, subtopic, subjectID, topic.ID, s.cfg.ContextResults)
		parts := make([]string, 0, len(passages))
		for _, p := range passages {
			parts = append(parts, p.Text)
		}
		text = strings.Join(parts, "\n\n")
	}
	s.ctxCache.Add(key, text)
	return text
}

// batchRun carries the per-batch state shared across type passes.
type batchRun struct {
	service        *GenerationService
	logger         *zap.Logger
	batch          *model.Batch
	subject        *model.Subject
	difficulty     model.Difficulty
	checker        *novelty.Checker
	blueprints     map[model.QuestionType]string
	outcomeCodes   []string
	assigner       *prompt.BloomAssigner
	breakers       map[string]*gobreaker.CircuitBreaker
	topics         []*model.Topic
	topicIdx       int
	subtopics      map[string][]string
	subtopicIdx    map[string]int
	delivered      map[model.QuestionType]int
	lastBackendErr error
}

// subtopicFor cycles through a topic's discovered subtopics so consecutive
// questions on the same topic take a different focus. Discovery runs once
// per topic per batch; failures fall back to the topic name.
func (r *batchRun) subtopicFor(ctx context.Context, topic *model.Topic) string {
	if r.subtopics == nil {
		r.subtopics = make(map[string][]string)
		r.subtopicIdx = make(map[string]int)
	}
	key := topic.ID + "/" + topic.Name
	list, ok := r.subtopics[key]
	if !ok {
		list = r.service.retr.DiscoverSubtopics(ctx, topic.Name, r.subject.ID, subtopicSpread)
		if len(list) == 0 {
			list = []string{topic.Name}
		}
		r.subtopics[key] = list
	}
	idx := r.subtopicIdx[key] % len(list)
	r.subtopicIdx[key]++
	return list[idx]
}

func (r *batchRun) generateType(ctx context.Context, qtype model.QuestionType, count int) int {
	if r.delivered == nil {
		r.delivered = make(map[model.QuestionType]int)
	}
	generated := 0
	for i := 0; i < count; i++ {
		topic := r.topics[r.topicIdx%len(r.topics)]
		r.topicIdx++
		if r.generateSlot(ctx, qtype, topic) {
			generated++
			r.delivered[qtype]++
		}
		// Yield so status polls and other handlers run between the long
		// backend calls of a strictly sequential batch.
		runtime.Gosched()
	}
	return generated
}

func (r *batchRun) generateSlot(ctx context.Context, qtype model.QuestionType, topic *model.Topic) bool {
	s := r.service
	breaker := r.breakerFor(qtype, topic.ID)
	if breaker.State() == gobreaker.StateOpen {
		r.logger.Warn("skipping slot, breaker open",
			zap.String("type", string(qtype)),
			zap.String("topic", topic.Name),
		)
		return false
	}
	subtopic := r.subtopicFor(ctx, topic)
	spec := prompt.Spec{
		Subject:      r.subject.Name,
		Topic:        topic.Name,
		Type:         qtype,
		Difficulty:   r.difficulty,
		Bloom:        r.assigner.Next(r.difficulty),
		Context:      s.subtopicContext(ctx, r.subject.ID, topic, subtopic),
		Blueprint:    r.blueprints[qtype],
		OutcomeCodes: r.outcomeCodes,
	}
	if subtopic != topic.Name {
		spec.Subtopic = subtopic
	}
	res, err := breaker.Execute(func() (interface{}, error) {
		return s.gen.GenerateOne(ctx, spec, r.checker)
	})
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrTooSimilar):
			r.logger.Info("slot lost to duplicate", zap.String("type", string(qtype)))
		case errors.Is(err, generator.ErrDiscarded):
			r.logger.Info("slot lost to discard", zap.String("type", string(qtype)))
		case errors.Is(err, gobreaker.ErrOpenState):
			// Tripped mid-call; the next slot sees StateOpen directly.
		default:
			r.lastBackendErr = err
			r.logger.Warn("slot failed", zap.String("type", string(qtype)), zap.Error(err))
		}
		return false
	}
	cand := res.(*generator.Candidate)
	question := &model.Question{
		ID:              newID(),
		SubjectID:       r.subject.ID,
		TopicID:         topic.ID,
		BatchID:         r.batch.ID,
		Type:            cand.Type,
		Text:            cand.Text,
		Options:         cand.Options,
		CorrectAnswer:   cand.CorrectAnswer,
		Explanation:     cand.Explanation,
		Bloom:           spec.Bloom,
		Difficulty:      spec.Difficulty,
		OutcomeCodes:    cand.OutcomeCodes,
		ContextSnapshot: spec.Context,
		Reasoning:       cand.Reasoning,
		ReviewStatus:    model.ReviewPending,
		NeedsReview:     cand.Fallback,
		Ctime:           time.Now().Unix(),
	}
	if err := s.questions.Create(ctx, question); err != nil {
		r.logger.Error("persisting question failed", zap.Error(err))
		return false
	}
	_ = s.jobs.IncrGenerated(ctx, r.batch.ID, 1)
	return true
}

func (r *batchRun) breakerFor(qtype model.QuestionType, topicID string) *gobreaker.CircuitBreaker {
	key := string(qtype) + "/" + topicID
	if breaker, ok := r.breakers[key]; ok {
		return breaker
	}
	threshold := uint32(r.service.cfg.BreakerFailures)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: key,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				r.logger.Warn("generation breaker opened", zap.String("slot", name))
			}
		},
	})
	r.breakers[key] = breaker
	return breaker
}

func orderedTypes(targets map[model.QuestionType]int) []model.QuestionType {
	order := []model.QuestionType{
		model.QuestionTypeMCQ,
		model.QuestionTypeShortAnswer,
		model.QuestionTypeEssay,
		model.QuestionTypeAssignment,
	}
	var present []model.QuestionType
	for _, qtype := range order {
		if targets[qtype] > 0 {
			present = append(present, qtype)
		}
	}
	return present
}
