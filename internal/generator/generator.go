package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/examgen/examgen/internal/ai"
	"github.com/examgen/examgen/internal/novelty"
	"github.com/examgen/examgen/internal/prompt"
)

var (
	// ErrTooSimilar marks a candidate rejected by the novelty check. The
	// caller may simply try the next slot; the request is not failed.
	ErrTooSimilar = errors.New("candidate too similar to an existing question")
	// ErrDiscarded marks a candidate that failed review and exhausted its
	// correction attempts.
	ErrDiscarded = errors.New("candidate discarded after correction attempts")
)

const DefaultCorrectionRetries = 3

type Config struct {
	CorrectionRetries int
	Rules             RuleSet
}

type Generator struct {
	client      *ai.Client
	validator   *Validator
	corrector   *Corrector
	rules       RuleSet
	corrections int
}

func New(client *ai.Client, cfg Config) *Generator {
	if cfg.CorrectionRetries <= 0 {
		cfg.CorrectionRetries = DefaultCorrectionRetries
	}
	if len(cfg.Rules.BannedPhrases) == 0 && len(cfg.Rules.AbsoluteQualifiers) == 0 {
		cfg.Rules = DefaultRuleSet()
	}
	g := &Generator{
		client:      client,
		validator:   NewValidator(client),
		rules:       cfg.Rules,
		corrections: cfg.CorrectionRetries,
	}
	g.corrector = &Corrector{gen: g}
	return g
}

// GenerateOne runs the full lifecycle for a single question: generate,
// programmatic check, model validation, then up to the configured number of
// correction rounds with sanity-only revalidation. Unparseable backend
// output becomes a review-flagged fallback instead of a lost slot.
func (g *Generator) GenerateOne(ctx context.Context, spec prompt.Spec, checker *novelty.Checker) (*Candidate, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("type", string(spec.Type)),
		zap.String("topic", spec.Topic),
	)
	if checker != nil {
		spec.Exclusions = checker.RecentTexts(prompt.ExclusionWindow)
	}

	parsed, raw, err := g.client.GenerateJSON(ctx, prompt.BuildGeneration(spec))
	if err != nil {
		if raw == "" {
			return nil, err
		}
		logger.Warn("backend output not parseable as json, keeping fallback for review", zap.Error(err))
		return FallbackCandidate(spec.Type, raw), nil
	}
	cand, err := ParseCandidate(spec.Type, parsed)
	if err != nil {
		logger.Warn("backend output failed structural parse, keeping fallback for review", zap.Error(err))
		return FallbackCandidate(spec.Type, raw), nil
	}
	cand.Text = prompt.SanitizeSourceReferences(cand.Text)

	if checker != nil {
		if ok, tier, match := checker.Check(cand.Text); !ok {
			logger.Info("candidate rejected as near-duplicate",
				zap.Int("tier", int(tier)),
				zap.String("match", clip(match, 80)),
			)
			return nil, ErrTooSimilar
		}
	}

	issues := g.rules.Check(cand)
	var suggestedAnswer string
	if len(issues) == 0 {
		verdict, err := g.validator.Validate(ctx, cand, spec.Context)
		if err != nil {
			return nil, fmt.Errorf("model validation: %w", err)
		}
		if verdict.Passed {
			return g.accept(cand, checker), nil
		}
		issues = verdict.Issues
		suggestedAnswer = verdict.SuggestedAnswer
	}

	for attempt := 1; attempt <= g.corrections; attempt++ {
		logger.Info("correcting candidate",
			zap.Int("attempt", attempt),
			zap.Strings("issues", issues),
		)
		corrected, err := g.corrector.Correct(ctx, cand, issues, suggestedAnswer)
		if err != nil {
			return nil, fmt.Errorf("correction attempt %d: %w", attempt, err)
		}
		cand = corrected
		suggestedAnswer = ""

		if progIssues := g.rules.Check(cand); len(progIssues) > 0 {
			issues = progIssues
			continue
		}
		verdict, err := g.validator.Revalidate(ctx, cand)
		if err != nil {
			return nil, fmt.Errorf("revalidation: %w", err)
		}
		if verdict.Passed {
			if checker != nil {
				if ok, _, _ := checker.Check(cand.Text); !ok {
					return nil, ErrTooSimilar
				}
			}
			return g.accept(cand, checker), nil
		}
		issues = verdict.Issues
		suggestedAnswer = verdict.SuggestedAnswer
	}
	logger.Info("candidate discarded", zap.Strings("last_issues", issues))
	return nil, ErrDiscarded
}

func (g *Generator) accept(cand *Candidate, checker *novelty.Checker) *Candidate {
	if checker != nil {
		checker.Accept(cand.Text)
	}
	return cand
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
