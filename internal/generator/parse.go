package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/examgen/examgen/internal/model"
)

// Candidate is one generated question between the backend and acceptance.
// Fallback marks a candidate rebuilt from unparseable output; it skips the
// validation loop and is persisted flagged for manual review.
type Candidate struct {
	Type          model.QuestionType
	Text          string
	Options       []model.Option
	CorrectAnswer string
	Explanation   string
	Reasoning     string
	OutcomeCodes  []string
	Fallback      bool
}

type mcqResult struct {
	Question      string         `json:"question"`
	Options       []model.Option `json:"options"`
	CorrectAnswer string         `json:"correct_answer"`
	Explanation   string         `json:"explanation"`
	Reasoning     string         `json:"reasoning"`
	OutcomeCodes  []string       `json:"outcome_codes"`
}

type markPoint struct {
	Point string `json:"point"`
	Marks int    `json:"marks"`
}

type shortAnswerResult struct {
	Question      string      `json:"question"`
	Answer        string      `json:"answer"`
	MarkingScheme []markPoint `json:"marking_scheme"`
	Explanation   string      `json:"explanation"`
	Reasoning     string      `json:"reasoning"`
	OutcomeCodes  []string    `json:"outcome_codes"`
}

type rubricItem struct {
	Criterion string `json:"criterion"`
	Weight    int    `json:"weight"`
}

type essayResult struct {
	Question     string       `json:"question"`
	Rubric       []rubricItem `json:"rubric"`
	Guidance     string       `json:"guidance"`
	Reasoning    string       `json:"reasoning"`
	OutcomeCodes []string     `json:"outcome_codes"`
}

type assignmentResult struct {
	Question     string   `json:"question"`
	Deliverables []string `json:"deliverables"`
	Criteria     []string `json:"criteria"`
	Guidance     string   `json:"guidance"`
	Reasoning    string   `json:"reasoning"`
	OutcomeCodes []string `json:"outcome_codes"`
}

// ParseCandidate converts an extracted JSON object into a typed candidate,
// rejecting structurally invalid output at the boundary so the rest of the
// loop never sees a half-formed question.
func ParseCandidate(qtype model.QuestionType, parsed map[string]interface{}) (*Candidate, error) {
	blob, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("re-encode backend output: %w", err)
	}
	switch qtype {
	case model.QuestionTypeMCQ:
		return parseMCQ(blob)
	case model.QuestionTypeShortAnswer:
		return parseShortAnswer(blob)
	case model.QuestionTypeEssay:
		return parseEssay(blob)
	case model.QuestionTypeAssignment:
		return parseAssignment(blob)
	default:
		return nil, fmt.Errorf("unknown question type: %s", qtype)
	}
}

func parseMCQ(blob []byte) (*Candidate, error) {
	var res mcqResult
	if err := json.Unmarshal(blob, &res); err != nil {
		return nil, fmt.Errorf("decode mcq result: %w", err)
	}
	if strings.TrimSpace(res.Question) == "" {
		return nil, fmt.Errorf("mcq result missing question text")
	}
	if len(res.Options) != 4 {
		return nil, fmt.Errorf("mcq result has %d options, want 4", len(res.Options))
	}
	labels := make(map[string]bool, 4)
	for i := range res.Options {
		res.Options[i].Label = strings.ToUpper(strings.TrimSpace(res.Options[i].Label))
		label := res.Options[i].Label
		if label < "A" || label > "D" || len(label) != 1 {
			return nil, fmt.Errorf("mcq option has invalid label %q", label)
		}
		if labels[label] {
			return nil, fmt.Errorf("mcq option label %q repeated", label)
		}
		labels[label] = true
		if strings.TrimSpace(res.Options[i].Text) == "" {
			return nil, fmt.Errorf("mcq option %s is empty", label)
		}
	}
	answer := normalizeAnswerLabel(res.CorrectAnswer)
	if !labels[answer] {
		return nil, fmt.Errorf("mcq correct answer %q does not name an option", res.CorrectAnswer)
	}
	return &Candidate{
		Type:          model.QuestionTypeMCQ,
		Text:          strings.TrimSpace(res.Question),
		Options:       res.Options,
		CorrectAnswer: answer,
		Explanation:   strings.TrimSpace(res.Explanation),
		Reasoning:     strings.TrimSpace(res.Reasoning),
		OutcomeCodes:  res.OutcomeCodes,
	}, nil
}

func parseShortAnswer(blob []byte) (*Candidate, error) {
	var res shortAnswerResult
	if err := json.Unmarshal(blob, &res); err != nil {
		return nil, fmt.Errorf("decode short answer result: %w", err)
	}
	if strings.TrimSpace(res.Question) == "" || strings.TrimSpace(res.Answer) == "" {
		return nil, fmt.Errorf("short answer result missing question or answer")
	}
	explanation := strings.TrimSpace(res.Explanation)
	if len(res.MarkingScheme) > 0 {
		var sb strings.Builder
		sb.WriteString("Marking scheme:\n")
		for _, item := range res.MarkingScheme {
			fmt.Fprintf(&sb, "- %s (%d marks)\n", item.Point, item.Marks)
		}
		if explanation != "" {
			explanation += "\n\n"
		}
		explanation += strings.TrimSpace(sb.String())
	}
	return &Candidate{
		Type:          model.QuestionTypeShortAnswer,
		Text:          strings.TrimSpace(res.Question),
		CorrectAnswer: strings.TrimSpace(res.Answer),
		Explanation:   explanation,
		Reasoning:     strings.TrimSpace(res.Reasoning),
		OutcomeCodes:  res.OutcomeCodes,
	}, nil
}

func parseEssay(blob []byte) (*Candidate, error) {
	var res essayResult
	if err := json.Unmarshal(blob, &res); err != nil {
		return nil, fmt.Errorf("decode essay result: %w", err)
	}
	if strings.TrimSpace(res.Question) == "" {
		return nil, fmt.Errorf("essay result missing question text")
	}
	if len(res.Rubric) == 0 {
		return nil, fmt.Errorf("essay result missing rubric")
	}
	var sb strings.Builder
	sb.WriteString("Rubric:\n")
	for _, item := range res.Rubric {
		fmt.Fprintf(&sb, "- %s (%d%%)\n", item.Criterion, item.Weight)
	}
	explanation := strings.TrimSpace(sb.String())
	if guidance := strings.TrimSpace(res.Guidance); guidance != "" {
		explanation += "\n\n" + guidance
	}
	return &Candidate{
		Type:         model.QuestionTypeEssay,
		Text:         strings.TrimSpace(res.Question),
		Explanation:  explanation,
		Reasoning:    strings.TrimSpace(res.Reasoning),
		OutcomeCodes: res.OutcomeCodes,
	}, nil
}

func parseAssignment(blob []byte) (*Candidate, error) {
	var res assignmentResult
	if err := json.Unmarshal(blob, &res); err != nil {
		return nil, fmt.Errorf("decode assignment result: %w", err)
	}
	if strings.TrimSpace(res.Question) == "" {
		return nil, fmt.Errorf("assignment result missing task description")
	}
	if len(res.Deliverables) == 0 {
		return nil, fmt.Errorf("assignment result missing deliverables")
	}
	var sb strings.Builder
	sb.WriteString("Deliverables:\n")
	for _, item := range res.Deliverables {
		fmt.Fprintf(&sb, "- %s\n", item)
	}
	if len(res.Criteria) > 0 {
		sb.WriteString("Assessment criteria:\n")
		for _, item := range res.Criteria {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
	}
	explanation := strings.TrimSpace(sb.String())
	if guidance := strings.TrimSpace(res.Guidance); guidance != "" {
		explanation += "\n\n" + guidance
	}
	return &Candidate{
		Type:         model.QuestionTypeAssignment,
		Text:         strings.TrimSpace(res.Question),
		Explanation:  explanation,
		Reasoning:    strings.TrimSpace(res.Reasoning),
		OutcomeCodes: res.OutcomeCodes,
	}, nil
}

// FallbackCandidate salvages unparseable output as a review-flagged
// question rather than losing the request.
func FallbackCandidate(qtype model.QuestionType, raw string) *Candidate {
	text := strings.TrimSpace(raw)
	const maxFallbackChars = 2000
	if len(text) > maxFallbackChars {
		text = text[:maxFallbackChars]
	}
	return &Candidate{
		Type:     qtype,
		Text:     text,
		Fallback: true,
	}
}

func normalizeAnswerLabel(answer string) string {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	// Accept "B", "B.", "B) ..." and full option restatements like
	// "B. Ribosome".
	if answer == "" {
		return ""
	}
	first := answer[:1]
	if len(answer) == 1 {
		return first
	}
	switch answer[1] {
	case '.', ')', ':', ' ':
		return first
	}
	return answer
}
