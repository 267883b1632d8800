package prompt

import (
	"fmt"
	"strings"

	"github.com/examgen/examgen/internal/model"
)

// BuildBlueprint distills uploaded sample questions into structural traits
// the model can imitate. Only shape is described; the sample text itself
// never enters the prompt, so the model cannot paraphrase it.
func BuildBlueprint(samples []*model.SampleQuestion, qtype model.QuestionType) string {
	var matched []*model.SampleQuestion
	for _, s := range samples {
		if s.Type == qtype {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return ""
	}
	var traits []string
	traits = append(traits, describeStemLength(matched))
	if trait := describeOpening(matched); trait != "" {
		traits = append(traits, trait)
	}
	if qtype == model.QuestionTypeMCQ {
		if trait := describeOptions(matched); trait != "" {
			traits = append(traits, trait)
		}
	}
	if scenarioShare(matched) >= 0.5 {
		traits = append(traits, "questions are framed around a concrete scenario before asking")
	}
	var sb strings.Builder
	sb.WriteString("Match the structural style of this exam:\n")
	for _, trait := range traits {
		sb.WriteString("- " + trait + "\n")
	}
	sb.WriteString("Do not copy, paraphrase or reuse the content of any existing exam question.")
	return sb.String()
}

func describeStemLength(samples []*model.SampleQuestion) string {
	total := 0
	for _, s := range samples {
		total += len(strings.Fields(s.Text))
	}
	avg := total / len(samples)
	switch {
	case avg < 15:
		return "question stems are short and direct (roughly 10-15 words)"
	case avg < 35:
		return fmt.Sprintf("question stems run around %d words", avg)
	default:
		return fmt.Sprintf("question stems are long, around %d words, with supporting detail", avg)
	}
}

func describeOpening(samples []*model.SampleQuestion) string {
	interrogative := 0
	for _, s := range samples {
		first := strings.ToLower(firstWord(s.Text))
		switch first {
		case "what", "which", "who", "when", "where", "why", "how":
			interrogative++
		}
	}
	share := float64(interrogative) / float64(len(samples))
	if share >= 0.7 {
		return "stems open with an interrogative (What/Which/How...)"
	}
	if share <= 0.3 {
		return "stems open with an imperative or statement rather than a question word"
	}
	return ""
}

func describeOptions(samples []*model.SampleQuestion) string {
	counts := make(map[int]int)
	for _, s := range samples {
		if len(s.Options) > 0 {
			counts[len(s.Options)]++
		}
	}
	best, bestCount := 0, 0
	for n, c := range counts {
		if c > bestCount {
			best, bestCount = n, c
		}
	}
	if best == 0 {
		return ""
	}
	return fmt.Sprintf("multiple choice questions carry %d options", best)
}

func scenarioShare(samples []*model.SampleQuestion) float64 {
	scenario := 0
	for _, s := range samples {
		// A stem much longer than its final question sentence reads as a
		// scenario setup.
		if idx := strings.LastIndexByte(s.Text, '?'); idx > 0 && len(s.Text) > 160 {
			scenario++
		}
	}
	return float64(scenario) / float64(len(samples))
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
