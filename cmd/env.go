package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/adinsights-cli/internal/config"
	"github.com/sells-group/adinsights-cli/internal/cost"
	"github.com/sells-group/adinsights-cli/internal/gateway"
	"github.com/sells-group/adinsights-cli/internal/knowledge"
	"github.com/sells-group/adinsights-cli/internal/orchestrator"
	"github.com/sells-group/adinsights-cli/internal/providers"
	"github.com/sells-group/adinsights-cli/internal/resilience"
	"github.com/sells-group/adinsights-cli/internal/schedule"
	"github.com/sells-group/adinsights-cli/internal/store"
	"github.com/sells-group/adinsights-cli/pkg/perplexity"
)

// analysisEnv holds the initialized clients, breakers, and orchestrator
// shared by the analyze/serve/status commands.
type analysisEnv struct {
	Store        store.Store
	Registry     *gateway.Registry
	Breakers     *resilience.ProviderBreakers
	Scheduler    *schedule.Scheduler
	Orchestrator *orchestrator.Orchestrator
}

// Close releases resources held by the environment.
func (e *analysisEnv) Close() {
	if e.Scheduler != nil {
		e.Scheduler.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initAnalysis wires the store, provider registry, gateway chain, knowledge
// retriever, scheduler, and orchestrator from config. Callers should defer
// env.Close().
func initAnalysis(ctx context.Context, onProgress func(orchestrator.Event)) (*analysisEnv, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	registry, err := providers.BuildRegistry(ctx, cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if len(registry.IDs()) == 0 {
		zap.L().Warn("no provider keys configured, narrative generation will degrade")
	}

	breakers := resilience.NewProviderBreakers(resilience.FromBreakerSettings(
		cfg.Circuit.FailureThreshold, cfg.Circuit.CooldownSecs,
	))
	gw := gateway.New(registry, breakers, gateway.Options{
		Retry: resilience.FromRetrySettings(
			cfg.Retry.MaxAttempts, cfg.Retry.BaseDelayMs, cfg.Retry.MaxDelayMs,
			cfg.Retry.Multiplier, cfg.Retry.JitterFraction,
		),
		AttemptTimeout: time.Duration(cfg.Providers.AttemptTimeoutSecs) * time.Second,
		RatePerSec:     cfg.Providers.RatePerSec,
	})
	chain := gateway.NewChain(gw)

	// Knowledge retrieval: in-memory cache, optional store tier, Perplexity
	// as the source when its key is configured.
	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	cache := knowledge.NewCache(cfg.Cache.MaxEntries, ttl)
	var retriever *knowledge.Retriever
	if cfg.Perplexity.Key != "" {
		source := providers.NewKnowledgeSource(
			perplexity.NewClient(cfg.Perplexity.Key,
				perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
				perplexity.WithModel(cfg.Perplexity.Model),
			),
			cfg.Perplexity.Model,
		)
		retriever = knowledge.NewRetriever(cache, source, cfg.Knowledge.MaxParallel, ttl)
		if cfg.Cache.Persist {
			retriever = retriever.WithPersistentCache(st)
		}
	} else {
		zap.L().Warn("perplexity key not set, benchmark knowledge retrieval disabled")
	}

	calc := cost.NewCalculator(cost.Rates{
		Models:       toModelRates(cfg.Pricing.Models),
		QueryCostUSD: cfg.Pricing.QueryCostUSD,
	})

	scheduler := schedule.New(cfg.Scheduler.Width)

	orch := orchestrator.New(scheduler, chain, registry, retriever, calc, st, orchestrator.Options{
		Chain:       cfg.Providers.Chain,
		TopN:        cfg.Report.TopN,
		QueryLimit:  cfg.Knowledge.QueryLimit,
		MaxTokens:   cfg.Providers.MaxTokens,
		TaskTimeout: time.Duration(cfg.Scheduler.TaskTimeoutSecs) * time.Second,
		Sequential:  cfg.Scheduler.Sequential,
		OnProgress:  onProgress,
	})

	return &analysisEnv{
		Store:        st,
		Registry:     registry,
		Breakers:     breakers,
		Scheduler:    scheduler,
		Orchestrator: orch,
	}, nil
}

func toModelRates(in map[string]config.ModelPricing) map[string]cost.ModelRate {
	out := make(map[string]cost.ModelRate, len(in))
	for name, p := range in {
		out[name] = cost.ModelRate{Input: p.Input, Output: p.Output}
	}
	return out
}
