package resilience

import (
	"testing"
	"time"
)

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *time.Time) {
	b := NewBreaker("test", BreakerConfig{
		FailureThreshold: threshold,
		Cooldown:         cooldown,
	})
	now := time.Now()
	b.nowFunc = func() time.Time { return now }
	return b, &now
}

func TestBreaker_ClosedAllowsCalls(t *testing.T) {
	b, _ := newTestBreaker(5, time.Minute)

	for i := 0; i < 10; i++ {
		if !b.Allow() {
			t.Fatalf("closed breaker rejected call %d", i)
		}
	}
	if b.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(5, time.Minute)

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	if b.State() != CircuitClosed {
		t.Fatalf("breaker opened before threshold: %s", b.State())
	}

	b.RecordFailure()
	if b.State() != CircuitOpen {
		t.Fatalf("expected open after 5 failures, got %s", b.State())
	}
	if b.Allow() {
		t.Error("open breaker allowed a call before cooldown")
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(5, time.Minute)

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	b.RecordSuccess()
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}

	// Failures are consecutive, so the count restarted after the success.
	if b.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_HalfOpenSingleProbe(t *testing.T) {
	b, now := newTestBreaker(2, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	if b.Allow() {
		t.Fatal("open breaker allowed a call")
	}

	*now = now.Add(61 * time.Second)

	if !b.Allow() {
		t.Fatal("expected the probe call to be allowed after cooldown")
	}
	// A second caller while the probe is in flight is held back.
	if b.Allow() {
		t.Error("second probe allowed while first still in flight")
	}
}

func TestBreaker_HalfOpenSuccessCloses(t *testing.T) {
	b, now := newTestBreaker(2, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	*now = now.Add(61 * time.Second)

	if !b.Allow() {
		t.Fatal("probe not allowed")
	}
	b.RecordSuccess()

	if b.State() != CircuitClosed {
		t.Errorf("expected closed after probe success, got %s", b.State())
	}
	if !b.Allow() {
		t.Error("closed breaker rejected a call")
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(2, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	*now = now.Add(61 * time.Second)

	if !b.Allow() {
		t.Fatal("probe not allowed")
	}
	b.RecordFailure()

	if b.State() != CircuitOpen {
		t.Fatalf("expected reopen after probe failure, got %s", b.State())
	}

	// Cooldown clock restarted: half the cooldown later it is still open.
	*now = now.Add(30 * time.Second)
	if b.Allow() {
		t.Error("breaker allowed a call before the restarted cooldown elapsed")
	}

	*now = now.Add(31 * time.Second)
	if !b.Allow() {
		t.Error("breaker rejected the probe after the restarted cooldown")
	}
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	b := NewBreaker("prov", BreakerConfig{
		FailureThreshold: 1,
		Cooldown:         time.Minute,
		OnStateChange: func(provider string, from, to CircuitState) {
			transitions = append(transitions, provider+":"+from.String()+"->"+to.String())
		},
	})
	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(61 * time.Second)
	b.Allow()
	b.RecordSuccess()

	want := []string{
		"prov:closed->open",
		"prov:open->half-open",
		"prov:half-open->closed",
	}
	if len(transitions) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], transitions[i])
		}
	}
}

func TestProviderBreakers_PartitionedPerProvider(t *testing.T) {
	pb := NewProviderBreakers(BreakerConfig{FailureThreshold: 2, Cooldown: time.Minute})

	a := pb.Get("alpha")
	a.RecordFailure()
	a.RecordFailure()

	if pb.Get("alpha").State() != CircuitOpen {
		t.Error("alpha breaker should be open")
	}
	if pb.Get("beta").State() != CircuitClosed {
		t.Error("beta breaker should be unaffected by alpha's failures")
	}
	if pb.Get("alpha") != a {
		t.Error("Get returned a different breaker for the same provider")
	}

	states := pb.States()
	if states["alpha"] != CircuitOpen || states["beta"] != CircuitClosed {
		t.Errorf("unexpected states snapshot: %v", states)
	}
}
