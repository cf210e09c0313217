// Package monitoring gathers point-in-time health snapshots: run outcomes
// over a lookback window plus live circuit breaker states.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/adinsights-cli/internal/model"
	"github.com/sells-group/adinsights-cli/internal/resilience"
	"github.com/sells-group/adinsights-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of system health.
type MetricsSnapshot struct {
	// Run metrics (within lookback window).
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsDegraded int     `json:"runs_degraded"`
	RunsFailed   int     `json:"runs_failed"`
	RunsQueued   int     `json:"runs_queued"`
	FailRate     float64 `json:"fail_rate"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	CacheHits    int     `json:"cache_hits"`
	CacheMisses  int     `json:"cache_misses"`

	// Provider circuit breaker states.
	Breakers map[string]string `json:"breakers,omitempty"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store and the breaker registry.
type Collector struct {
	store    store.Store
	breakers *resilience.ProviderBreakers
}

// NewCollector creates a new metrics collector. Either argument may be nil
// when that dimension is unavailable.
func NewCollector(st store.Store, breakers *resilience.ProviderBreakers) *Collector {
	return &Collector{store: st, breakers: breakers}
}

// Collect gathers a snapshot of system metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	if c.store != nil {
		cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)
		runs, err := c.store.ListRuns(ctx, store.RunFilter{
			CreatedAfter: cutoff,
			Limit:        10000,
		})
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: list runs")
		}

		snap.RunsTotal = len(runs)
		for _, r := range runs {
			switch r.Status {
			case model.RunStatusComplete:
				snap.RunsComplete++
			case model.RunStatusDegraded:
				snap.RunsDegraded++
			case model.RunStatusFailed:
				snap.RunsFailed++
			case model.RunStatusQueued:
				snap.RunsQueued++
			}
			if r.Report != nil {
				snap.TotalCostUSD += r.Report.CostUSD
				snap.CacheHits += r.Report.CacheHits
				snap.CacheMisses += r.Report.CacheMisses
			}
		}

		finished := snap.RunsComplete + snap.RunsDegraded + snap.RunsFailed
		if finished > 0 {
			snap.FailRate = float64(snap.RunsFailed) / float64(finished)
		}
	}

	if c.breakers != nil {
		states := c.breakers.States()
		snap.Breakers = make(map[string]string, len(states))
		for provider, state := range states {
			snap.Breakers[provider] = state.String()
		}
	}

	return snap, nil
}
