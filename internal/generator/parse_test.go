package generator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/examgen/examgen/internal/model"
)

func toMap(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestParseMCQNormalizesAnswerLabel(t *testing.T) {
	tests := []struct {
		answer string
		want   string
	}{
		{"a", "A"},
		{"B.", "B"},
		{"C) Golgi apparatus", "C"},
		{"D. Lysosome", "D"},
	}
	for _, tc := range tests {
		raw := `{
			"question": "Pick the right organelle.",
			"options": [
				{"label": "a", "text": "Mitochondrion"},
				{"label": "B", "text": "Ribosome"},
				{"label": "C", "text": "Golgi apparatus"},
				{"label": "D", "text": "Lysosome"}
			],
			"correct_answer": "` + tc.answer + `"
		}`
		cand, err := ParseCandidate(model.QuestionTypeMCQ, toMap(t, raw))
		require.NoError(t, err, "answer %q", tc.answer)
		require.Equal(t, tc.want, cand.CorrectAnswer)
	}
}

func TestParseMCQRejectsBadStructure(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"answer not an option", `{"question": "q", "options": [{"label": "A", "text": "w"}, {"label": "B", "text": "x"}, {"label": "C", "text": "y"}, {"label": "D", "text": "z"}], "correct_answer": "E"}`},
		{"duplicate label", `{"question": "q", "options": [{"label": "A", "text": "w"}, {"label": "A", "text": "x"}, {"label": "C", "text": "y"}, {"label": "D", "text": "z"}], "correct_answer": "A"}`},
		{"empty option", `{"question": "q", "options": [{"label": "A", "text": ""}, {"label": "B", "text": "x"}, {"label": "C", "text": "y"}, {"label": "D", "text": "z"}], "correct_answer": "B"}`},
		{"missing question", `{"options": [{"label": "A", "text": "w"}, {"label": "B", "text": "x"}, {"label": "C", "text": "y"}, {"label": "D", "text": "z"}], "correct_answer": "A"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCandidate(model.QuestionTypeMCQ, toMap(t, tc.raw))
			require.Error(t, err)
		})
	}
}

func TestParseShortAnswerFoldsMarkingScheme(t *testing.T) {
	raw := `{
		"question": "Explain osmosis.",
		"answer": "Water diffuses across a semipermeable membrane toward higher solute concentration.",
		"marking_scheme": [
			{"point": "mentions semipermeable membrane", "marks": 2},
			{"point": "names the direction of movement", "marks": 3}
		]
	}`
	cand, err := ParseCandidate(model.QuestionTypeShortAnswer, toMap(t, raw))
	require.NoError(t, err)
	require.Contains(t, cand.Explanation, "semipermeable membrane (2 marks)")
	require.Contains(t, cand.Explanation, "direction of movement (3 marks)")
}

func TestParseEssayRequiresRubric(t *testing.T) {
	raw := `{"question": "Discuss membrane transport."}`
	_, err := ParseCandidate(model.QuestionTypeEssay, toMap(t, raw))
	require.Error(t, err)
}

func TestParseAssignmentRendersDeliverables(t *testing.T) {
	raw := `{
		"question": "Build a model of a cell membrane.",
		"deliverables": ["annotated diagram", "written summary"],
		"criteria": ["accuracy of labeling"]
	}`
	cand, err := ParseCandidate(model.QuestionTypeAssignment, toMap(t, raw))
	require.NoError(t, err)
	require.Contains(t, cand.Explanation, "annotated diagram")
	require.Contains(t, cand.Explanation, "accuracy of labeling")
}

func TestFallbackCandidateTruncates(t *testing.T) {
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	cand := FallbackCandidate(model.QuestionTypeMCQ, string(long))
	require.True(t, cand.Fallback)
	require.Len(t, cand.Text, 2000)
}
