package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/examgen/examgen/internal/ai"
	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/prompt"
)

// RuleSet is the programmatic quality gate run before any model-based
// validation. It catches the cheap, mechanical tells of weak questions
// without spending a backend call.
type RuleSet struct {
	// BannedPhrases are instruction-echo fragments that mean the model
	// answered the prompt instead of writing a question.
	BannedPhrases []string
	// AbsoluteQualifiers let students eliminate options without knowledge;
	// MaxQualifiers or more across the options fails the check.
	AbsoluteQualifiers []string
	MaxQualifiers      int
}

func DefaultRuleSet() RuleSet {
	return RuleSet{
		BannedPhrases: []string{
			"focus solely on",
			"ignore the",
			"avoid the",
			"as an ai",
			"i cannot",
		},
		AbsoluteQualifiers: []string{"solely", "altogether", "never", "always"},
		MaxQualifiers:      2,
	}
}

// Check returns the programmatic issues found, empty when the candidate
// passes. Fallback candidates are not checked; they go straight to review.
func (r RuleSet) Check(cand *Candidate) []string {
	var issues []string
	lowerText := strings.ToLower(cand.Text)
	for _, phrase := range r.BannedPhrases {
		if strings.Contains(lowerText, phrase) {
			issues = append(issues, fmt.Sprintf("question text contains the banned phrase %q", phrase))
		}
	}
	if cand.Type != model.QuestionTypeMCQ {
		return issues
	}
	qualifiers := 0
	for _, opt := range cand.Options {
		lowerOpt := strings.ToLower(opt.Text)
		for _, phrase := range r.BannedPhrases {
			if strings.Contains(lowerOpt, phrase) {
				issues = append(issues, fmt.Sprintf("option %s contains the banned phrase %q", opt.Label, phrase))
			}
		}
		for _, q := range r.AbsoluteQualifiers {
			if containsWord(lowerOpt, q) {
				qualifiers++
			}
		}
		if strings.Contains(lowerOpt, "all of the above") || strings.Contains(lowerOpt, "none of the above") {
			issues = append(issues, fmt.Sprintf("option %s is a throwaway (%q)", opt.Label, opt.Text))
		}
	}
	if qualifiers >= r.MaxQualifiers {
		issues = append(issues, fmt.Sprintf("options contain %d absolute qualifiers, which makes elimination trivial", qualifiers))
	}
	if dup := duplicateOptionText(cand.Options); dup != "" {
		issues = append(issues, fmt.Sprintf("two options share the same text (%q)", dup))
	}
	return issues
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(word)
		leftOK := start == 0 || !isWordByte(text[start-1])
		rightOK := end == len(text) || !isWordByte(text[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func duplicateOptionText(options []model.Option) string {
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		key := strings.ToLower(strings.TrimSpace(opt.Text))
		if seen[key] {
			return opt.Text
		}
		seen[key] = true
	}
	return ""
}

// Verdict is the model reviewer's judgment on one candidate.
type Verdict struct {
	Passed          bool
	Issues          []string
	SuggestedAnswer string
}

type verdictResult struct {
	Passed          bool     `json:"passed"`
	Issues          []string `json:"issues"`
	SuggestedAnswer string   `json:"suggested_answer"`
}

// Validator runs model-based review: the same backend reads the candidate
// against its context and judges correctness, ambiguity and guessability.
type Validator struct {
	client *ai.Client
}

func NewValidator(client *ai.Client) *Validator {
	return &Validator{client: client}
}

func (v *Validator) Validate(ctx context.Context, cand *Candidate, contextText string) (*Verdict, error) {
	p := prompt.BuildValidation(toPromptCandidate(cand), contextText)
	return v.ask(ctx, p)
}

// Revalidate is the post-correction sanity pass: only "clearly wrong answer"
// and "garbled text" are grounds to fail, so a correction cannot ping-pong
// forever on style disagreements.
func (v *Validator) Revalidate(ctx context.Context, cand *Candidate) (*Verdict, error) {
	p := prompt.BuildRevalidation(toPromptCandidate(cand))
	return v.ask(ctx, p)
}

func (v *Validator) ask(ctx context.Context, p string) (*Verdict, error) {
	parsed, _, err := v.client.GenerateJSON(ctx, p)
	if err != nil {
		return nil, err
	}
	blob, err := json.Marshal(parsed)
	if err != nil {
		return nil, err
	}
	var res verdictResult
	if err := json.Unmarshal(blob, &res); err != nil {
		return nil, fmt.Errorf("decode validation verdict: %w", err)
	}
	if !res.Passed && len(res.Issues) == 0 {
		res.Issues = []string{"reviewer rejected the question without naming issues"}
	}
	return &Verdict{
		Passed:          res.Passed,
		Issues:          res.Issues,
		SuggestedAnswer: strings.TrimSpace(res.SuggestedAnswer),
	}, nil
}

func toPromptCandidate(cand *Candidate) prompt.Candidate {
	return prompt.Candidate{
		Type:          cand.Type,
		Text:          cand.Text,
		Options:       cand.Options,
		CorrectAnswer: cand.CorrectAnswer,
		Explanation:   cand.Explanation,
	}
}
