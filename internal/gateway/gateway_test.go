package gateway

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sells-group/adinsights-cli/internal/resilience"
)

// fakeProvider returns scripted responses; errs are consumed before resp.
type fakeProvider struct {
	id    string
	calls atomic.Int64
	errs  []error
	resp  *Response
}

func (f *fakeProvider) ID() string { return f.id }

func (f *fakeProvider) Generate(_ context.Context, _ Request) (*Response, error) {
	n := f.calls.Add(1)
	if int(n) <= len(f.errs) {
		return nil, f.errs[n-1]
	}
	if f.resp != nil {
		r := *f.resp
		return &r, nil
	}
	return &Response{Text: "generated"}, nil
}

func fastOptions() Options {
	return Options{
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			BaseDelay:      time.Millisecond,
			MaxDelay:       5 * time.Millisecond,
			Multiplier:     2.0,
			JitterFraction: 0,
		},
		AttemptTimeout: time.Second,
	}
}

func newTestGateway(opts Options, providers ...Provider) (*Gateway, *resilience.ProviderBreakers) {
	reg := NewRegistry()
	for _, p := range providers {
		reg.Register(p)
	}
	breakers := resilience.NewProviderBreakers(resilience.BreakerConfig{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
	})
	return New(reg, breakers, opts), breakers
}

func TestCall_Success(t *testing.T) {
	p := &fakeProvider{id: "alpha", resp: &Response{Text: "hello", InputTokens: 10, OutputTokens: 20}}
	g, breakers := newTestGateway(fastOptions(), p)

	resp, err := g.Call(context.Background(), "alpha", Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "hello" || resp.Provider != "alpha" {
		t.Errorf("response not stamped: %+v", resp)
	}
	if fails, state := breakers.Get("alpha").Counters(); fails != 0 || state != resilience.CircuitClosed {
		t.Errorf("success not recorded: fails=%d state=%s", fails, state)
	}
}

func TestCall_UnknownProvider(t *testing.T) {
	g, _ := newTestGateway(fastOptions())
	_, err := g.Call(context.Background(), "nope", Request{})
	if !resilience.IsAuth(err) {
		t.Fatalf("expected auth error for unknown provider, got %v", err)
	}
}

func TestCall_RetriesTransientWithinOneCall(t *testing.T) {
	p := &fakeProvider{
		id:   "alpha",
		errs: []error{resilience.NewTransientError(errors.New("503"), 503)},
	}
	g, breakers := newTestGateway(fastOptions(), p)

	resp, err := g.Call(context.Background(), "alpha", Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "generated" {
		t.Errorf("got %q", resp.Text)
	}
	if p.calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", p.calls.Load())
	}
	// The transient attempt that was retried to success never reaches the breaker.
	if fails, _ := breakers.Get("alpha").Counters(); fails != 0 {
		t.Errorf("intermediate failure leaked to breaker: %d", fails)
	}
}

func TestCall_TerminalFailureRecordsOnce(t *testing.T) {
	p := &fakeProvider{
		id: "alpha",
		errs: []error{
			resilience.NewTransientError(errors.New("down"), 502),
			resilience.NewTransientError(errors.New("down"), 502),
			resilience.NewTransientError(errors.New("down"), 502),
		},
	}
	g, breakers := newTestGateway(fastOptions(), p)

	_, err := g.Call(context.Background(), "alpha", Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls.Load() != 3 {
		t.Errorf("expected retry exhaustion after 3 attempts, got %d", p.calls.Load())
	}
	if fails, _ := breakers.Get("alpha").Counters(); fails != 1 {
		t.Errorf("expected one breaker failure per Call, got %d", fails)
	}
}

func TestCall_CircuitOpenFailsFast(t *testing.T) {
	p := &fakeProvider{
		id:   "alpha",
		errs: []error{&resilience.AuthError{Provider: "alpha", Err: errors.New("401")}},
	}
	g, breakers := newTestGateway(fastOptions(), p)

	// Threshold is 2: two failing calls open the circuit.
	g.Call(context.Background(), "alpha", Request{})
	p.errs = append(p.errs, &resilience.AuthError{Provider: "alpha", Err: errors.New("401")})
	g.Call(context.Background(), "alpha", Request{})

	if state := breakers.Get("alpha").State(); state != resilience.CircuitOpen {
		t.Fatalf("circuit should be open, is %s", state)
	}

	before := p.calls.Load()
	_, err := g.Call(context.Background(), "alpha", Request{})
	if !resilience.IsCircuitOpen(err) {
		t.Fatalf("expected circuit-open error, got %v", err)
	}
	if p.calls.Load() != before {
		t.Error("open circuit still reached the provider")
	}
}

func TestCall_RateLimitNotRetried(t *testing.T) {
	p := &fakeProvider{
		id:   "alpha",
		errs: []error{&resilience.RateLimitError{Provider: "alpha", RetryAfter: time.Minute}},
	}
	g, _ := newTestGateway(fastOptions(), p)

	_, err := g.Call(context.Background(), "alpha", Request{})
	if !resilience.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if p.calls.Load() != 1 {
		t.Errorf("rate-limited call was retried: %d attempts", p.calls.Load())
	}
}

func TestCall_PacingDoesNotBreakSuccess(t *testing.T) {
	p := &fakeProvider{id: "alpha"}
	opts := fastOptions()
	opts.RatePerSec = 100
	g, _ := newTestGateway(opts, p)

	for i := 0; i < 3; i++ {
		if _, err := g.Call(context.Background(), "alpha", Request{}); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}
