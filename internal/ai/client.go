package ai

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const generateAttempts = 3

// backoffBase is scaled down in tests.
var backoffBase = time.Second

type ClientConfig struct {
	Model         string
	FallbackModel string
	Timeout       time.Duration
	MaxTokens     int
	Temperature   float32
	RatePerMinute int
}

// Client is the single point of contact with the generation backend.
// It owns per-call timeouts, bounded retry with exponential backoff, the
// fallback-model escalation, and JSON extraction from free-form output.
type Client struct {
	provider IProvider
	cfg      ClientConfig
	limiter  *rate.Limiter
}

func NewClient(provider IProvider, cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 600 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), 1)
	}
	return &Client{provider: provider, cfg: cfg, limiter: limiter}
}

func (c *Client) Model() string {
	return c.cfg.Model
}

// GenerateText runs one completion against the primary model, retrying on
// transient failure and escalating once to the fallback model before
// surfacing the error.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, false)
}

// GenerateJSON additionally extracts a JSON object from the raw output.
// The raw text is returned alongside so callers can keep it for manual
// review when extraction fails even after repair.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (map[string]interface{}, string, error) {
	raw, err := c.generate(ctx, prompt, true)
	if err != nil {
		return nil, "", err
	}
	parsed, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, raw, err
	}
	return parsed, raw, nil
}

func (c *Client) generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	logger := logutil.GetLogger(ctx)
	res, err := c.callWithRetry(ctx, c.cfg.Model, prompt, jsonMode)
	if err == nil {
		return res, nil
	}
	if c.cfg.FallbackModel == "" || c.cfg.FallbackModel == c.cfg.Model {
		return "", err
	}
	logger.Warn("primary model failed, retrying with fallback",
		zap.String("model", c.cfg.Model),
		zap.String("fallback", c.cfg.FallbackModel),
		zap.Error(err),
	)
	return c.callOnce(ctx, c.cfg.FallbackModel, prompt, jsonMode)
}

func (c *Client) callWithRetry(ctx context.Context, model string, prompt string, jsonMode bool) (string, error) {
	logger := logutil.GetLogger(ctx)
	var lastErr error
	for attempt := 0; attempt < generateAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * backoffBase
			logger.Warn("backend call failed, backing off",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
		res, err := c.callOnce(ctx, model, prompt, jsonMode)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

func (c *Client) callOnce(ctx context.Context, model string, prompt string, jsonMode bool) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	return c.provider.Generate(callCtx, GenerateRequest{
		Model:       model,
		Prompt:      prompt,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		JSONMode:    jsonMode,
	})
}
