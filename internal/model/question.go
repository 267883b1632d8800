package model

type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "mcq"
	QuestionTypeShortAnswer QuestionType = "short_answer"
	QuestionTypeEssay       QuestionType = "essay"
	QuestionTypeAssignment  QuestionType = "assignment"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMCQ, QuestionTypeShortAnswer, QuestionTypeEssay, QuestionTypeAssignment:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type BloomLevel string

const (
	BloomRemember   BloomLevel = "Remember"
	BloomUnderstand BloomLevel = "Understand"
	BloomApply      BloomLevel = "Apply"
	BloomAnalyze    BloomLevel = "Analyze"
	BloomEvaluate   BloomLevel = "Evaluate"
	BloomCreate     BloomLevel = "Create"
)

const (
	ReviewPending     = "pending"
	ReviewApproved    = "approved"
	ReviewRejected    = "rejected"
	ReviewQuarantined = "quarantined"
)

// Option is a labeled MCQ choice ("A".."D").
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is the persisted, accepted form. The review workflow mutates
// ReviewStatus afterward; this service only ever writes it as pending.
type Question struct {
	ID              string       `json:"id"`
	SubjectID       string       `json:"subject_id"`
	TopicID         string       `json:"topic_id"`
	BatchID         string       `json:"batch_id"`
	Type            QuestionType `json:"type"`
	Text            string       `json:"text"`
	Options         []Option     `json:"options,omitempty"`
	CorrectAnswer   string       `json:"correct_answer"`
	Explanation     string       `json:"explanation"`
	Bloom           BloomLevel   `json:"bloom_level"`
	Difficulty      Difficulty   `json:"difficulty"`
	OutcomeCodes    []string     `json:"outcome_codes,omitempty"`
	ContextSnapshot string       `json:"context_snapshot,omitempty"`
	Reasoning       string       `json:"reasoning,omitempty"`
	ReviewStatus    string       `json:"review_status"`
	NeedsReview     bool         `json:"needs_review"` // set when the backend output could not be parsed and a fallback was kept
	Ctime           int64        `json:"ctime"`
}

// SampleQuestion is an uploaded exemplar. Only its structure feeds prompt
// blueprints; its text also seeds the anti-plagiarism tier of novelty checks.
type SampleQuestion struct {
	ID         string       `json:"id"`
	SubjectID  string       `json:"subject_id"`
	Type       QuestionType `json:"type"`
	Text       string       `json:"text"`
	Options    []string     `json:"options,omitempty"`
	Answer     string       `json:"answer,omitempty"`
	Difficulty Difficulty   `json:"difficulty,omitempty"`
	Ctime      int64        `json:"ctime"`
}
