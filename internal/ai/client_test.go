package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedProvider struct {
	calls    []GenerateRequest
	failures int
	response string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(_ context.Context, req GenerateRequest) (string, error) {
	p.calls = append(p.calls, req)
	if len(p.calls) <= p.failures {
		return "", errors.New("connection refused")
	}
	return p.response, nil
}

func TestClientRetriesThenSucceeds(t *testing.T) {
	backoffBase = time.Millisecond
	provider := &scriptedProvider{failures: 2, response: "ok"}
	client := NewClient(provider, ClientConfig{Model: "primary", Timeout: time.Second})

	got, err := client.GenerateText(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Fatalf("unexpected response: %s", got)
	}
	if len(provider.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(provider.calls))
	}
}

func TestClientFallsBackAfterExhaustingPrimary(t *testing.T) {
	backoffBase = time.Millisecond
	provider := &scriptedProvider{failures: 3, response: "from fallback"}
	client := NewClient(provider, ClientConfig{
		Model:         "primary",
		FallbackModel: "small",
		Timeout:       time.Second,
	})

	got, err := client.GenerateText(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if got != "from fallback" {
		t.Fatalf("unexpected response: %s", got)
	}
	if len(provider.calls) != 4 {
		t.Fatalf("expected 3 primary + 1 fallback calls, got %d", len(provider.calls))
	}
	last := provider.calls[len(provider.calls)-1]
	if last.Model != "small" {
		t.Fatalf("final call should use fallback model, got %s", last.Model)
	}
}

func TestClientSurfacesErrorWithoutFallback(t *testing.T) {
	backoffBase = time.Millisecond
	provider := &scriptedProvider{failures: 10}
	client := NewClient(provider, ClientConfig{Model: "primary", Timeout: time.Second})

	if _, err := client.GenerateText(context.Background(), "p"); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if len(provider.calls) != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", len(provider.calls))
	}
}

func TestClientGenerateJSONReturnsRawOnParseFailure(t *testing.T) {
	backoffBase = time.Millisecond
	provider := &scriptedProvider{response: "not json at all"}
	client := NewClient(provider, ClientConfig{Model: "primary", Timeout: time.Second})

	parsed, raw, err := client.GenerateJSON(context.Background(), "p")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if parsed != nil {
		t.Fatalf("expected nil parse result, got %v", parsed)
	}
	if raw != "not json at all" {
		t.Fatalf("raw output should be preserved, got %q", raw)
	}
}

func TestClientJSONModeFlag(t *testing.T) {
	backoffBase = time.Millisecond
	provider := &scriptedProvider{response: `{"ok": true}`}
	client := NewClient(provider, ClientConfig{Model: "primary", Timeout: time.Second})

	if _, _, err := client.GenerateJSON(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	if !provider.calls[0].JSONMode {
		t.Fatal("GenerateJSON should request json mode")
	}
}
