package generator

import (
	"context"

	"github.com/examgen/examgen/internal/prompt"
)

// Corrector re-prompts with the reviewer's issues and parses the corrected
// question through the same typed boundary as fresh generations.
type Corrector struct {
	gen *Generator
}

func (c *Corrector) Correct(ctx context.Context, cand *Candidate, issues []string, suggestedAnswer string) (*Candidate, error) {
	p := prompt.BuildCorrection(toPromptCandidate(cand), issues, suggestedAnswer)
	parsed, _, err := c.gen.client.GenerateJSON(ctx, p)
	if err != nil {
		return nil, err
	}
	corrected, err := ParseCandidate(cand.Type, parsed)
	if err != nil {
		return nil, err
	}
	corrected.Text = prompt.SanitizeSourceReferences(corrected.Text)
	return corrected, nil
}
