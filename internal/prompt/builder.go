package prompt

import (
	"fmt"
	"strings"

	"github.com/examgen/examgen/internal/model"
)

// Spec carries everything one generation prompt needs. Context may be empty
// when retrieval degraded; the prompt then discloses that the question is
// built from general subject knowledge.
type Spec struct {
	Subject      string
	Topic        string
	Subtopic     string
	Type         model.QuestionType
	Difficulty   model.Difficulty
	Bloom        model.BloomLevel
	Context      string
	Blueprint    string
	Exclusions   []string
	OutcomeCodes []string
}

// ExclusionWindow bounds how many prior question texts enter the prompt.
// More than a handful dilutes the instruction and burns tokens.
const ExclusionWindow = 5

func BuildGeneration(spec Spec) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are an experienced university examiner writing an exam for the subject %q.\n", spec.Subject)
	focus := spec.Subtopic
	if focus == "" {
		focus = spec.Topic
	}
	fmt.Fprintf(&sb, "Write exactly one %s question on: %s.\n", typeName(spec.Type), focus)
	fmt.Fprintf(&sb, "Difficulty: %s. The question must target the %q level of Bloom's taxonomy.\n\n",
		spec.Difficulty, spec.Bloom)

	if ctx := strings.TrimSpace(spec.Context); ctx != "" {
		sb.WriteString("Base the question strictly on the following course material:\n---\n")
		sb.WriteString(SanitizeSourceReferences(ctx))
		sb.WriteString("\n---\n\n")
	} else {
		sb.WriteString("No course material is available for this topic. " +
			"Write the question from general knowledge of the subject at this level, " +
			"staying within what a standard curriculum covers.\n\n")
	}

	if spec.Blueprint != "" {
		sb.WriteString(spec.Blueprint)
		sb.WriteString("\n\n")
	}

	if len(spec.OutcomeCodes) > 0 {
		fmt.Fprintf(&sb, "Map the question to the most relevant of these learning outcome codes: %s.\n\n",
			strings.Join(spec.OutcomeCodes, ", "))
	}

	sb.WriteString(typeRequirements(spec.Type))
	sb.WriteString("\n")

	if block := exclusionBlock(spec.Exclusions); block != "" {
		sb.WriteString(block)
	}

	sb.WriteString("\nRespond with a single JSON object and nothing else:\n")
	sb.WriteString(typeSchema(spec.Type))
	return sb.String()
}

// Candidate is the generated question as the validation and correction
// prompts see it.
type Candidate struct {
	Type          model.QuestionType
	Text          string
	Options       []model.Option
	CorrectAnswer string
	Explanation   string
}

func BuildValidation(cand Candidate, context string) string {
	var sb strings.Builder
	sb.WriteString("You are reviewing a draft exam question for quality before it reaches students.\n\n")
	writeCandidate(&sb, cand)
	if ctx := strings.TrimSpace(context); ctx != "" {
		sb.WriteString("\nCourse material the question is based on:\n---\n")
		sb.WriteString(SanitizeSourceReferences(ctx))
		sb.WriteString("\n---\n")
	}
	sb.WriteString(`
Check every point:
1. Is the marked answer actually correct?
2. Is the question factually consistent with the course material (when given)?
3. Is the wording unambiguous, with exactly one defensible answer?
4. For multiple choice: are the distractors realistic mistakes rather than obvious throwaways?
5. Could a student guess the answer from wording alone (option length, keyword leakage from the stem, absolute qualifiers)?

Respond with a single JSON object and nothing else:
{"passed": true|false, "issues": ["specific problem", ...], "suggested_answer": "corrected answer if the marked one is wrong, else empty"}`)
	return sb.String()
}

func BuildCorrection(cand Candidate, issues []string, suggestedAnswer string) string {
	var sb strings.Builder
	sb.WriteString("A draft exam question failed review. Fix every listed issue while keeping the topic, type and difficulty unchanged.\n\n")
	writeCandidate(&sb, cand)
	sb.WriteString("\nIssues to fix:\n")
	for i, issue := range issues {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, issue)
	}
	if suggestedAnswer != "" {
		fmt.Fprintf(&sb, "\nThe reviewer believes the correct answer is: %s\n", suggestedAnswer)
	}
	sb.WriteString("\nRespond with the corrected question as a single JSON object in the same schema as the original, and nothing else:\n")
	sb.WriteString(typeSchema(cand.Type))
	return sb.String()
}

// BuildRevalidation is a sanity pass only: a corrected question is not
// re-litigated on style, just checked for being answerable and not garbled.
func BuildRevalidation(cand Candidate) string {
	var sb strings.Builder
	sb.WriteString("Final sanity check on a corrected exam question.\n\n")
	writeCandidate(&sb, cand)
	sb.WriteString(`
Answer two things only:
1. Is the marked answer clearly wrong?
2. Is the question text garbled, truncated or self-contradictory?

Respond with a single JSON object and nothing else:
{"passed": true|false, "issues": ["...", ...]}`)
	return sb.String()
}

func writeCandidate(sb *strings.Builder, cand Candidate) {
	fmt.Fprintf(sb, "Question (%s):\n%s\n", typeName(cand.Type), cand.Text)
	if len(cand.Options) > 0 {
		sb.WriteString("Options:\n")
		for _, opt := range cand.Options {
			fmt.Fprintf(sb, "%s. %s\n", opt.Label, opt.Text)
		}
	}
	if cand.CorrectAnswer != "" {
		fmt.Fprintf(sb, "Marked answer: %s\n", cand.CorrectAnswer)
	}
	if cand.Explanation != "" {
		fmt.Fprintf(sb, "Explanation: %s\n", cand.Explanation)
	}
}

func exclusionBlock(exclusions []string) string {
	if len(exclusions) == 0 {
		return ""
	}
	if len(exclusions) > ExclusionWindow {
		exclusions = exclusions[len(exclusions)-ExclusionWindow:]
	}
	var sb strings.Builder
	sb.WriteString("The following questions already exist. Your question must cover different content and must not overlap with any of them:\n")
	for i, text := range exclusions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, text)
	}
	return sb.String()
}

func typeName(t model.QuestionType) string {
	switch t {
	case model.QuestionTypeMCQ:
		return "multiple choice"
	case model.QuestionTypeShortAnswer:
		return "short answer"
	case model.QuestionTypeEssay:
		return "essay"
	case model.QuestionTypeAssignment:
		return "assignment"
	default:
		return string(t)
	}
}

func typeRequirements(t model.QuestionType) string {
	switch t {
	case model.QuestionTypeMCQ:
		return `Requirements:
- Exactly 4 options labeled A, B, C, D with exactly one correct.
- Place the correct answer at a random position, not habitually A or B.
- Distractors must be plausible mistakes a real student would make; never use "all of the above" or "none of the above".
- Do not repeat a distinctive stem keyword only in the correct option.
- Avoid absolute qualifiers ("always", "never", "solely") that let students eliminate options without knowledge.`
	case model.QuestionTypeShortAnswer:
		return `Requirements:
- The question must be answerable in 2-5 sentences.
- Provide the expected answer and a marking scheme listing the points a full answer must contain, with marks per point.`
	case model.QuestionTypeEssay:
		return `Requirements:
- Pose an open question that requires structured argument, not recall.
- Provide a rubric of 3-5 weighted criteria an assessor would mark against.`
	case model.QuestionTypeAssignment:
		return `Requirements:
- Describe a practical task students complete over days, not in an exam sitting.
- List concrete deliverables and the assessment criteria for each.`
	default:
		return ""
	}
}

func typeSchema(t model.QuestionType) string {
	switch t {
	case model.QuestionTypeMCQ:
		return `{"question": "...", "options": [{"label": "A", "text": "..."}, {"label": "B", "text": "..."}, {"label": "C", "text": "..."}, {"label": "D", "text": "..."}], "correct_answer": "A", "explanation": "...", "reasoning": "why this tests the target level", "outcome_codes": ["..."]}`
	case model.QuestionTypeShortAnswer:
		return `{"question": "...", "answer": "...", "marking_scheme": [{"point": "...", "marks": 2}], "explanation": "...", "reasoning": "...", "outcome_codes": ["..."]}`
	case model.QuestionTypeEssay:
		return `{"question": "...", "rubric": [{"criterion": "...", "weight": 30}], "guidance": "what a strong answer covers", "reasoning": "...", "outcome_codes": ["..."]}`
	case model.QuestionTypeAssignment:
		return `{"question": "...", "deliverables": ["..."], "criteria": ["..."], "guidance": "...", "reasoning": "...", "outcome_codes": ["..."]}`
	default:
		return `{"question": "..."}`
	}
}
