package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/adinsights-cli/internal/resilience"
)

// Options configures the resilience envelope around every provider call.
type Options struct {
	// Retry is the backoff policy for transient failures. Zero value uses
	// the defaults.
	Retry resilience.RetryConfig

	// AttemptTimeout bounds each individual network attempt. Default: 60s.
	AttemptTimeout time.Duration

	// RatePerSec paces outbound calls per provider. Zero disables pacing.
	RatePerSec float64
}

// Gateway executes provider calls behind the circuit breaker and retry
// policy. One gateway serves all providers; breaker state is partitioned
// per provider id.
type Gateway struct {
	registry *Registry
	breakers *resilience.ProviderBreakers
	opts     Options
	limiters map[string]*rate.Limiter
}

// New creates a gateway over the given registry and breaker set.
func New(registry *Registry, breakers *resilience.ProviderBreakers, opts Options) *Gateway {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 60 * time.Second
	}
	g := &Gateway{
		registry: registry,
		breakers: breakers,
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
	if opts.RatePerSec > 0 {
		for _, id := range registry.IDs() {
			g.limiters[id] = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
		}
	}
	return g
}

// Breakers exposes the per-provider breaker registry for observability.
func (g *Gateway) Breakers() *resilience.ProviderBreakers { return g.breakers }

// Call executes one generation request against the named provider.
//
// The breaker is consulted before any network activity: an open circuit
// fails in well under the time a network attempt would take. The retry
// policy wraps the network attempts; the breaker records one terminal
// outcome per Call, not one per attempt.
func (g *Gateway) Call(ctx context.Context, providerID string, req Request) (*Response, error) {
	p := g.registry.Get(providerID)
	if p == nil {
		return nil, &resilience.AuthError{Provider: providerID, Err: errUnknownProvider(providerID)}
	}

	breaker := g.breakers.Get(providerID)
	if !breaker.Allow() {
		zap.L().Debug("gateway: circuit open, rejecting call",
			zap.String("provider", providerID),
		)
		return nil, &resilience.CircuitOpenError{Provider: providerID}
	}

	if lim := g.limiters[providerID]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			breaker.RecordFailure()
			return nil, err
		}
	}

	retryCfg := g.opts.Retry
	retryCfg.OnRetry = resilience.RetryLogger(providerID, "generate")

	start := time.Now()
	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*Response, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, g.opts.AttemptTimeout)
		defer cancel()
		return p.Generate(attemptCtx, req)
	})
	if err != nil {
		breaker.RecordFailure()
		zap.L().Warn("gateway: provider call failed",
			zap.String("provider", providerID),
			zap.String("kind", string(resilience.Classify(err))),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	breaker.RecordSuccess()
	resp.Provider = providerID
	resp.Latency = time.Since(start)
	return resp, nil
}
