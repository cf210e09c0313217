// Package providers adapts the SDK clients to the gateway's Provider
// contract and classifies their failures into the resilience taxonomy.
package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/sells-group/adinsights-cli/internal/config"
	"github.com/sells-group/adinsights-cli/internal/gateway"
	"github.com/sells-group/adinsights-cli/internal/resilience"
	"github.com/sells-group/adinsights-cli/pkg/anthropic"
	"github.com/sells-group/adinsights-cli/pkg/gemini"
	"github.com/sells-group/adinsights-cli/pkg/perplexity"
)

// Provider ids used in the fallback chain configuration.
const (
	IDAnthropic  = "anthropic"
	IDGemini     = "gemini"
	IDPerplexity = "perplexity"
)

// classifyStatus maps an HTTP status from a provider to the resilience
// error taxonomy. Unknown statuses pass through unchanged so they surface
// as non-retryable.
func classifyStatus(provider string, statusCode int, retryAfter time.Duration, err error) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &resilience.AuthError{Provider: provider, Err: err}
	case statusCode == http.StatusTooManyRequests:
		return &resilience.RateLimitError{Provider: provider, RetryAfter: retryAfter, Err: err}
	case resilience.IsTransientHTTPStatus(statusCode):
		return resilience.NewTransientError(err, statusCode)
	default:
		return err
	}
}

// BuildRegistry constructs a gateway registry with every provider that has
// credentials configured. Providers without keys are simply absent: the
// chain skips them via the unknown-provider error.
func BuildRegistry(ctx context.Context, cfg *config.Config) (*gateway.Registry, error) {
	reg := gateway.NewRegistry()

	if cfg.Anthropic.Key != "" {
		reg.Register(NewAnthropicProvider(
			anthropic.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
		))
	}

	if cfg.Gemini.Key != "" {
		client, err := gemini.NewClient(ctx, cfg.Gemini.Key, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		reg.Register(NewGeminiProvider(client, cfg.Gemini.Model))
	}

	if cfg.Perplexity.Key != "" {
		opts := []perplexity.Option{perplexity.WithModel(cfg.Perplexity.Model)}
		if cfg.Perplexity.BaseURL != "" {
			opts = append(opts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
		}
		reg.Register(NewPerplexityProvider(
			perplexity.NewClient(cfg.Perplexity.Key, opts...),
			cfg.Perplexity.Model,
		))
	}

	return reg, nil
}
