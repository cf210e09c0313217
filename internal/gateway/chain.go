package gateway

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/adinsights-cli/internal/model"
	"github.com/sells-group/adinsights-cli/internal/resilience"
)

// ExhaustedError means every provider in the chain failed. The attempt
// trail carries one entry per provider, in chain order.
type ExhaustedError struct {
	Attempts []model.ProviderAttempt
}

func (e *ExhaustedError) Error() string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, fmt.Sprintf("%s (%s)", a.Provider, a.Kind))
	}
	return "all providers exhausted: " + strings.Join(names, ", ")
}

func errUnknownProvider(id string) error {
	return fmt.Errorf("provider %q is not registered", id)
}

// Chain tries providers in a fixed priority order and returns the first
// success. Order comes from configuration and never changes mid-run.
type Chain struct {
	gateway *Gateway
}

// NewChain creates a fallback chain over a gateway.
func NewChain(g *Gateway) *Chain {
	return &Chain{gateway: g}
}

// CallWithFallback runs one chain traversal with a fresh session. Callers
// making several related calls should hold a Session instead so auth
// failures carry across them.
func (c *Chain) CallWithFallback(ctx context.Context, providerIDs []string, req Request) (*Response, []model.ProviderAttempt, error) {
	return c.Session().CallWithFallback(ctx, providerIDs, req)
}

// Session tracks provider auth failures across chain calls within one run.
// A bad credential will not become valid mid-run, so once a provider fails
// authentication the session skips it: later traversals record the failure
// in the trail without another network attempt. Not safe for concurrent
// use; one session serves one run.
type Session struct {
	chain      *Chain
	authFailed map[string]string // provider id -> first auth failure message
}

// Session starts a per-run view over the chain.
func (c *Chain) Session() *Session {
	return &Session{chain: c, authFailed: make(map[string]string)}
}

// CallWithFallback tries each provider id in order until one succeeds.
// The attempt trail records every provider tried — including the one that
// succeeded, with an empty Kind — so reports can show the full path. When
// all providers fail the error is an *ExhaustedError and the trail holds a
// classified failure per provider.
func (s *Session) CallWithFallback(ctx context.Context, providerIDs []string, req Request) (*Response, []model.ProviderAttempt, error) {
	attempts := make([]model.ProviderAttempt, 0, len(providerIDs))

	for _, id := range providerIDs {
		if ctx.Err() != nil {
			attempts = append(attempts, model.ProviderAttempt{
				Provider: id,
				Kind:     model.ErrorKindTransient,
				Message:  ctx.Err().Error(),
			})
			break
		}

		if msg, bad := s.authFailed[id]; bad {
			attempts = append(attempts, model.ProviderAttempt{
				Provider: id,
				Kind:     model.ErrorKindAuth,
				Message:  msg,
			})
			continue
		}

		resp, err := s.chain.gateway.Call(ctx, id, req)
		if err == nil {
			attempts = append(attempts, model.ProviderAttempt{Provider: id})
			return resp, attempts, nil
		}
		if resilience.IsAuth(err) {
			s.authFailed[id] = err.Error()
		}

		attempt := model.ProviderAttempt{
			Provider: id,
			Kind:     resilience.Classify(err),
			Message:  err.Error(),
		}
		if hint, ok := resilience.RetryAfterHint(err); ok {
			attempt.RetryAfter = hint.String()
		}
		attempts = append(attempts, attempt)

		zap.L().Info("gateway: falling back to next provider",
			zap.String("failed", id),
			zap.String("kind", string(attempt.Kind)),
		)
	}

	return nil, attempts, &ExhaustedError{Attempts: attempts}
}
