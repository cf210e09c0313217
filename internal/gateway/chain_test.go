package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sells-group/adinsights-cli/internal/model"
	"github.com/sells-group/adinsights-cli/internal/resilience"
)

func TestCallWithFallback_FirstSucceeds(t *testing.T) {
	primary := &fakeProvider{id: "primary", resp: &Response{Text: "from primary"}}
	backup := &fakeProvider{id: "backup"}
	g, _ := newTestGateway(fastOptions(), primary, backup)
	chain := NewChain(g)

	resp, attempts, err := chain.CallWithFallback(context.Background(), []string{"primary", "backup"}, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "from primary" {
		t.Errorf("got %q", resp.Text)
	}
	if backup.calls.Load() != 0 {
		t.Error("backup consulted although primary succeeded")
	}
	if len(attempts) != 1 || attempts[0].Provider != "primary" || attempts[0].Kind != "" {
		t.Errorf("attempt trail: %+v", attempts)
	}
}

func TestCallWithFallback_FallsToNext(t *testing.T) {
	primary := &fakeProvider{
		id:   "primary",
		errs: []error{&resilience.AuthError{Provider: "primary", Err: errors.New("bad key")}},
	}
	backup := &fakeProvider{id: "backup", resp: &Response{Text: "from backup"}}
	g, _ := newTestGateway(fastOptions(), primary, backup)
	chain := NewChain(g)

	resp, attempts, err := chain.CallWithFallback(context.Background(), []string{"primary", "backup"}, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "from backup" || resp.Provider != "backup" {
		t.Errorf("response: %+v", resp)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].Kind != model.ErrorKindAuth {
		t.Errorf("failed attempt not classified: %+v", attempts[0])
	}
	if attempts[1].Kind != "" {
		t.Errorf("successful attempt should have empty kind: %+v", attempts[1])
	}
}

func TestCallWithFallback_AllExhausted(t *testing.T) {
	a := &fakeProvider{id: "a", errs: []error{&resilience.AuthError{Provider: "a", Err: errors.New("401")}}}
	b := &fakeProvider{id: "b", errs: []error{&resilience.RateLimitError{Provider: "b", RetryAfter: 30 * time.Second}}}
	g, _ := newTestGateway(fastOptions(), a, b)
	chain := NewChain(g)

	resp, attempts, err := chain.CallWithFallback(context.Background(), []string{"a", "b"}, Request{})
	if resp != nil {
		t.Fatal("expected no response")
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if len(exhausted.Attempts) != 2 || len(attempts) != 2 {
		t.Fatalf("attempt trail incomplete: %+v", attempts)
	}
	if attempts[1].Kind != model.ErrorKindRateLimit || attempts[1].RetryAfter != "30s" {
		t.Errorf("rate limit hint not propagated: %+v", attempts[1])
	}
}

func TestCallWithFallback_SkipsOpenCircuit(t *testing.T) {
	primary := &fakeProvider{id: "primary"}
	backup := &fakeProvider{id: "backup", resp: &Response{Text: "from backup"}}
	g, breakers := newTestGateway(fastOptions(), primary, backup)

	// Force the primary's circuit open.
	b := breakers.Get("primary")
	b.RecordFailure()
	b.RecordFailure()
	if b.State() != resilience.CircuitOpen {
		t.Fatal("setup: circuit not open")
	}

	chain := NewChain(g)
	resp, attempts, err := chain.CallWithFallback(context.Background(), []string{"primary", "backup"}, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != "backup" {
		t.Errorf("expected backup to serve, got %q", resp.Provider)
	}
	if primary.calls.Load() != 0 {
		t.Error("open circuit still reached the primary provider")
	}
	if attempts[0].Kind != model.ErrorKindCircuit {
		t.Errorf("skipped provider not recorded as circuit: %+v", attempts[0])
	}
}

func TestSession_AuthFailureSticksAcrossCalls(t *testing.T) {
	primary := &fakeProvider{
		id:   "primary",
		errs: []error{&resilience.AuthError{Provider: "primary", Err: errors.New("invalid key")}},
	}
	backup := &fakeProvider{id: "backup", resp: &Response{Text: "from backup"}}
	g, _ := newTestGateway(fastOptions(), primary, backup)
	session := NewChain(g).Session()

	for i := 0; i < 2; i++ {
		resp, attempts, err := session.CallWithFallback(context.Background(), []string{"primary", "backup"}, Request{})
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if resp.Provider != "backup" {
			t.Fatalf("call %d served by %q", i, resp.Provider)
		}
		if len(attempts) != 2 || attempts[0].Kind != model.ErrorKindAuth {
			t.Errorf("call %d trail: %+v", i, attempts)
		}
	}

	// The second traversal skipped the provider instead of re-dialing it.
	if got := primary.calls.Load(); got != 1 {
		t.Errorf("auth-failed provider called %d times, want 1", got)
	}
}

func TestCallWithFallback_ContextCancelled(t *testing.T) {
	p := &fakeProvider{id: "a"}
	g, _ := newTestGateway(fastOptions(), p)
	chain := NewChain(g)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, attempts, err := chain.CallWithFallback(ctx, []string{"a"}, Request{})
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if p.calls.Load() != 0 {
		t.Error("cancelled context still reached the provider")
	}
	if len(attempts) != 1 || attempts[0].Provider != "a" {
		t.Errorf("attempt trail: %+v", attempts)
	}
}
