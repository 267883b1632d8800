package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/examgen/examgen/internal/model"
)

func TestBloomAssignerCycles(t *testing.T) {
	a := NewBloomAssigner()
	got := []model.BloomLevel{
		a.Next(model.DifficultyMedium),
		a.Next(model.DifficultyMedium),
		a.Next(model.DifficultyMedium),
		a.Next(model.DifficultyMedium),
	}
	want := []model.BloomLevel{
		model.BloomUnderstand, model.BloomApply, model.BloomAnalyze, model.BloomUnderstand,
	}
	require.Equal(t, want, got)
}

func TestBloomAssignerPerDifficultyCounters(t *testing.T) {
	a := NewBloomAssigner()
	require.Equal(t, model.BloomRemember, a.Next(model.DifficultyEasy))
	require.Equal(t, model.BloomApply, a.Next(model.DifficultyHard))
	require.Equal(t, model.BloomUnderstand, a.Next(model.DifficultyEasy))
	require.Equal(t, model.BloomAnalyze, a.Next(model.DifficultyHard))
}

func TestBloomAssignerUnknownDifficulty(t *testing.T) {
	a := NewBloomAssigner()
	require.Equal(t, model.BloomUnderstand, a.Next(model.Difficulty("weird")))
}

func TestSanitizeSourceReferences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"According to this book, osmosis is passive.", "According to the course material, osmosis is passive."},
		{"This chapter covers transport.", "the course material covers transport."},
		{"The author argues that enzymes are catalysts.", "the course material argues that enzymes are catalysts."},
		{"Osmosis moves water across membranes.", "Osmosis moves water across membranes."},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, SanitizeSourceReferences(tc.in))
	}
}

func TestBuildGenerationWithContext(t *testing.T) {
	got := BuildGeneration(Spec{
		Subject:    "Cell Biology",
		Topic:      "Membrane transport",
		Type:       model.QuestionTypeMCQ,
		Difficulty: model.DifficultyMedium,
		Bloom:      model.BloomApply,
		Context:    "Osmosis is the diffusion of water across a semipermeable membrane.",
	})
	require.Contains(t, got, "Cell Biology")
	require.Contains(t, got, "Membrane transport")
	require.Contains(t, got, "Osmosis is the diffusion")
	require.Contains(t, got, `"Apply"`)
	require.Contains(t, got, "labeled A, B, C, D")
	require.NotContains(t, got, "No course material is available")
}

func TestBuildGenerationEmptyContextDiscloses(t *testing.T) {
	got := BuildGeneration(Spec{
		Subject:    "Cell Biology",
		Topic:      "Membrane transport",
		Type:       model.QuestionTypeEssay,
		Difficulty: model.DifficultyHard,
		Bloom:      model.BloomEvaluate,
	})
	require.Contains(t, got, "No course material is available")
	require.Contains(t, got, "rubric")
}

func TestBuildGenerationSanitizesContext(t *testing.T) {
	got := BuildGeneration(Spec{
		Subject: "Biology",
		Topic:   "Cells",
		Type:    model.QuestionTypeShortAnswer,
		Context: "This chapter explains that the author considers mitochondria central.",
	})
	require.NotContains(t, got, "This chapter")
	require.NotContains(t, got, "the author considers")
}

func TestBuildGenerationExclusionWindow(t *testing.T) {
	exclusions := []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7"}
	got := BuildGeneration(Spec{
		Subject:    "Bio",
		Topic:      "Cells",
		Type:       model.QuestionTypeMCQ,
		Exclusions: exclusions,
	})
	require.NotContains(t, got, "q1\n")
	require.NotContains(t, got, "q2\n")
	for _, text := range exclusions[2:] {
		require.Contains(t, got, text)
	}
}

func TestBuildBlueprintStructureOnly(t *testing.T) {
	samples := []*model.SampleQuestion{
		{Type: model.QuestionTypeMCQ, Text: "Which organelle produces ATP?", Options: []string{"a", "b", "c", "d"}},
		{Type: model.QuestionTypeMCQ, Text: "What is the role of ribosomes?", Options: []string{"a", "b", "c", "d"}},
	}
	got := BuildBlueprint(samples, model.QuestionTypeMCQ)
	require.Contains(t, got, "4 options")
	require.Contains(t, got, "interrogative")
	require.Contains(t, got, "Do not copy")
	// Sample content must never leak into the prompt.
	require.NotContains(t, got, "organelle")
	require.NotContains(t, got, "ribosomes")
}

func TestBuildBlueprintNoMatchingSamples(t *testing.T) {
	samples := []*model.SampleQuestion{{Type: model.QuestionTypeEssay, Text: "Discuss."}}
	require.Empty(t, BuildBlueprint(samples, model.QuestionTypeMCQ))
}

func TestBuildValidationCoversChecks(t *testing.T) {
	got := BuildValidation(Candidate{
		Type: model.QuestionTypeMCQ,
		Text: "Which organelle produces ATP?",
		Options: []model.Option{
			{Label: "A", Text: "Mitochondrion"}, {Label: "B", Text: "Ribosome"},
			{Label: "C", Text: "Nucleus"}, {Label: "D", Text: "Lysosome"},
		},
		CorrectAnswer: "A",
	}, "Mitochondria produce ATP.")
	require.Contains(t, got, "Marked answer: A")
	require.Contains(t, got, "distractors")
	require.Contains(t, got, `"suggested_answer"`)
}

func TestBuildCorrectionListsIssues(t *testing.T) {
	got := BuildCorrection(Candidate{Type: model.QuestionTypeMCQ, Text: "stem"}, []string{"answer B is also correct", "option D is a throwaway"}, "C")
	require.Contains(t, got, "1. answer B is also correct")
	require.Contains(t, got, "2. option D is a throwaway")
	require.Contains(t, got, "correct answer is: C")
}

func TestBuildRevalidationIsSanityOnly(t *testing.T) {
	got := BuildRevalidation(Candidate{Type: model.QuestionTypeShortAnswer, Text: "Explain osmosis.", CorrectAnswer: "Water moves..."})
	require.Contains(t, got, "clearly wrong")
	require.Contains(t, got, "garbled")
	require.False(t, strings.Contains(got, "distractor"), "revalidation must not re-check style")
}
