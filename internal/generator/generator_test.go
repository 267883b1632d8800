package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/examgen/examgen/internal/ai"
	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/novelty"
	"github.com/examgen/examgen/internal/prompt"
)

type scriptedProvider struct {
	responses []string
	prompts   []string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	p.prompts = append(p.prompts, req.Prompt)
	if len(p.responses) == 0 {
		return "", ai.ErrUnavailable
	}
	res := p.responses[0]
	p.responses = p.responses[1:]
	return res, nil
}

func newTestGenerator(responses ...string) (*Generator, *scriptedProvider) {
	provider := &scriptedProvider{responses: responses}
	client := ai.NewClient(provider, ai.ClientConfig{Model: "test-model"})
	return New(client, Config{}), provider
}

const validMCQ = `{
	"question": "Which organelle is the primary site of ATP synthesis?",
	"options": [
		{"label": "A", "text": "Mitochondrion"},
		{"label": "B", "text": "Ribosome"},
		{"label": "C", "text": "Golgi apparatus"},
		{"label": "D", "text": "Lysosome"}
	],
	"correct_answer": "A",
	"explanation": "Oxidative phosphorylation happens on the inner mitochondrial membrane.",
	"reasoning": "Tests recall of organelle function.",
	"outcome_codes": ["LO1"]
}`

const passVerdict = `{"passed": true, "issues": []}`
const failVerdict = `{"passed": false, "issues": ["the marked answer is wrong"], "suggested_answer": "B"}`

func mcqSpec() prompt.Spec {
	return prompt.Spec{
		Subject:    "Cell Biology",
		Topic:      "Organelles",
		Type:       model.QuestionTypeMCQ,
		Difficulty: model.DifficultyEasy,
		Bloom:      model.BloomRemember,
		Context:    "Mitochondria synthesize ATP via oxidative phosphorylation on their inner membrane.",
	}
}

func TestGenerateOneHappyPath(t *testing.T) {
	g, provider := newTestGenerator(validMCQ, passVerdict)
	checker := novelty.NewChecker(novelty.DefaultThresholds())

	cand, err := g.GenerateOne(context.Background(), mcqSpec(), checker)
	require.NoError(t, err)
	require.False(t, cand.Fallback)
	require.Equal(t, "A", cand.CorrectAnswer)
	require.Len(t, cand.Options, 4)
	require.Len(t, provider.prompts, 2, "expected one generation and one validation call")

	// Accepted text feeds the in-batch pool.
	ok, tier, _ := checker.Check(cand.Text)
	require.False(t, ok)
	require.Equal(t, novelty.TierInBatch, tier)
}

func TestGenerateOneFallbackOnGarbage(t *testing.T) {
	g, provider := newTestGenerator("I'm sorry, here is your question: what is a cell?")
	cand, err := g.GenerateOne(context.Background(), mcqSpec(), nil)
	require.NoError(t, err)
	require.True(t, cand.Fallback)
	require.Contains(t, cand.Text, "what is a cell?")
	require.Len(t, provider.prompts, 1, "fallback must not consume validation calls")
}

func TestGenerateOneFallbackOnStructuralFailure(t *testing.T) {
	// Parseable JSON, but only two options: fails the typed boundary.
	twoOptions := `{"question": "Pick one", "options": [{"label": "A", "text": "x"}, {"label": "B", "text": "y"}], "correct_answer": "A"}`
	g, _ := newTestGenerator(twoOptions)
	cand, err := g.GenerateOne(context.Background(), mcqSpec(), nil)
	require.NoError(t, err)
	require.True(t, cand.Fallback)
}

func TestGenerateOneRejectsNearDuplicate(t *testing.T) {
	g, provider := newTestGenerator(validMCQ)
	checker := novelty.NewChecker(novelty.DefaultThresholds())
	checker.Seed(novelty.TierSamples, []string{"Which organelle is the primary site of ATP synthesis?"})

	_, err := g.GenerateOne(context.Background(), mcqSpec(), checker)
	require.ErrorIs(t, err, ErrTooSimilar)
	require.Len(t, provider.prompts, 1, "duplicate must be rejected before validation")
}

func TestGenerateOneCorrectionRoundsAreBounded(t *testing.T) {
	// Validation fails, then every correction round returns a candidate the
	// revalidator still rejects. Exactly 3 correction attempts run.
	g, provider := newTestGenerator(
		validMCQ, failVerdict,
		validMCQ, failVerdict,
		validMCQ, failVerdict,
		validMCQ, failVerdict,
	)
	_, err := g.GenerateOne(context.Background(), mcqSpec(), nil)
	require.ErrorIs(t, err, ErrDiscarded)
	// 1 generate + 1 validate + 3 x (correct + revalidate).
	require.Len(t, provider.prompts, 8)
}

func TestGenerateOneCorrectionSucceeds(t *testing.T) {
	corrected := `{
		"question": "Which organelle carries out oxidative phosphorylation?",
		"options": [
			{"label": "A", "text": "Nucleus"},
			{"label": "B", "text": "Mitochondrion"},
			{"label": "C", "text": "Ribosome"},
			{"label": "D", "text": "Vacuole"}
		],
		"correct_answer": "B",
		"explanation": "The electron transport chain sits on the inner mitochondrial membrane."
	}`
	g, provider := newTestGenerator(validMCQ, failVerdict, corrected, passVerdict)
	cand, err := g.GenerateOne(context.Background(), mcqSpec(), nil)
	require.NoError(t, err)
	require.Equal(t, "B", cand.CorrectAnswer)
	require.Len(t, provider.prompts, 4)
	// The correction prompt carries the reviewer's issues and suggestion.
	require.Contains(t, provider.prompts[2], "the marked answer is wrong")
	require.Contains(t, provider.prompts[2], "correct answer is: B")
}

func TestGenerateOneProgrammaticFailSkipsModelValidation(t *testing.T) {
	banned := `{
		"question": "Answer this and focus solely on the diagram.",
		"options": [
			{"label": "A", "text": "Mitochondrion"},
			{"label": "B", "text": "Ribosome"},
			{"label": "C", "text": "Golgi apparatus"},
			{"label": "D", "text": "Lysosome"}
		],
		"correct_answer": "A"
	}`
	g, provider := newTestGenerator(banned, validMCQ, passVerdict)
	cand, err := g.GenerateOne(context.Background(), mcqSpec(), nil)
	require.NoError(t, err)
	require.NotContains(t, cand.Text, "focus solely on")
	// generate, correct, revalidate: no full validation call for the
	// programmatically rejected draft.
	require.Len(t, provider.prompts, 3)
	require.Contains(t, provider.prompts[1], "banned phrase")
}

func TestRuleSetQualifierThreshold(t *testing.T) {
	rules := DefaultRuleSet()
	cand := &Candidate{
		Type: model.QuestionTypeMCQ,
		Text: "Which statement describes osmosis?",
		Options: []model.Option{
			{Label: "A", Text: "Water always moves toward higher solute concentration"},
			{Label: "B", Text: "Water never crosses membranes"},
			{Label: "C", Text: "Water moves down its potential gradient"},
			{Label: "D", Text: "Water binds to transport proteins"},
		},
	}
	issues := rules.Check(cand)
	require.Len(t, issues, 1)
	require.Contains(t, issues[0], "absolute qualifiers")

	// A single qualifier is tolerated.
	cand.Options[1].Text = "Water crosses membranes via aquaporins"
	require.Empty(t, rules.Check(cand))
}

func TestRuleSetThrowawayOptions(t *testing.T) {
	rules := DefaultRuleSet()
	cand := &Candidate{
		Type: model.QuestionTypeMCQ,
		Text: "Which factors affect diffusion rate?",
		Options: []model.Option{
			{Label: "A", Text: "Temperature"},
			{Label: "B", Text: "Concentration gradient"},
			{Label: "C", Text: "Membrane surface area"},
			{Label: "D", Text: "All of the above"},
		},
	}
	issues := rules.Check(cand)
	require.Len(t, issues, 1)
	require.Contains(t, issues[0], "throwaway")
}

func TestRuleSetAppliesBannedPhrasesToAllTypes(t *testing.T) {
	rules := DefaultRuleSet()
	cand := &Candidate{
		Type: model.QuestionTypeEssay,
		Text: "Discuss membrane transport but ignore the role of proteins.",
	}
	require.NotEmpty(t, rules.Check(cand))
}

func TestRuleSetScansOptionsForBannedPhrases(t *testing.T) {
	rules := DefaultRuleSet()
	cand := &Candidate{
		Type: model.QuestionTypeMCQ,
		Text: "Which approach best evaluates a page replacement algorithm?",
		Options: []model.Option{
			{Label: "A", Text: "Measure hit rates under a recorded workload"},
			{Label: "B", Text: "Focus solely on the eviction policy"},
			{Label: "C", Text: "Compare against an optimal oracle"},
			{Label: "D", Text: "Profile memory access patterns"},
		},
	}
	issues := rules.Check(cand)
	require.Len(t, issues, 1)
	require.Contains(t, issues[0], "option B")
	require.Contains(t, issues[0], "banned phrase")
}
