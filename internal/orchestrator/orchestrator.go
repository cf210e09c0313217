// Package orchestrator drives a full analysis run: shared metrics, the
// scheduled task set, aggregation, knowledge retrieval, narrative
// generation over the provider fallback chain, and confidence scoring.
// Every failure below this layer is recovered into the report.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/adinsights-cli/internal/aggregate"
	"github.com/sells-group/adinsights-cli/internal/analysis"
	"github.com/sells-group/adinsights-cli/internal/confidence"
	"github.com/sells-group/adinsights-cli/internal/cost"
	"github.com/sells-group/adinsights-cli/internal/dataset"
	"github.com/sells-group/adinsights-cli/internal/gateway"
	"github.com/sells-group/adinsights-cli/internal/knowledge"
	"github.com/sells-group/adinsights-cli/internal/model"
	"github.com/sells-group/adinsights-cli/internal/schedule"
	"github.com/sells-group/adinsights-cli/internal/store"
)

// Event is one progress notification during a run.
type Event struct {
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Options tunes a run. Zero values fall back to sensible defaults.
type Options struct {
	// Chain lists provider ids in strict fallback order.
	Chain []string
	// TopN bounds each finding list after dedup.
	TopN int
	// QueryLimit bounds how many knowledge queries one run may issue.
	QueryLimit int
	// MaxTokens is the generation budget per narrative call.
	MaxTokens int
	// TaskTimeout bounds each analysis task. Zero leaves the scheduler
	// default in charge.
	TaskTimeout time.Duration
	// Sequential disables the worker pool for debugging.
	Sequential bool
	// OnProgress receives progress events. May be nil.
	OnProgress func(Event)
}

// modeler is implemented by provider adapters that know their model id.
type modeler interface {
	Model() string
}

// Orchestrator owns the long-lived pieces shared across runs.
type Orchestrator struct {
	scheduler *schedule.Scheduler
	chain     *gateway.Chain
	registry  *gateway.Registry
	retriever *knowledge.Retriever
	calc      *cost.Calculator
	runs      store.Store // may be nil
	opts      Options
}

// New creates an orchestrator. The store may be nil; runs then exist only
// in the returned reports.
func New(scheduler *schedule.Scheduler, chain *gateway.Chain, registry *gateway.Registry, retriever *knowledge.Retriever, calc *cost.Calculator, runs store.Store, opts Options) *Orchestrator {
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.QueryLimit <= 0 {
		opts.QueryLimit = 6
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}
	return &Orchestrator{
		scheduler: scheduler,
		chain:     chain,
		registry:  registry,
		retriever: retriever,
		calc:      calc,
		runs:      runs,
		opts:      opts,
	}
}

func (o *Orchestrator) progress(stage, format string, args ...any) {
	if o.opts.OnProgress == nil {
		return
	}
	o.opts.OnProgress(Event{
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		At:      time.Now().UTC(),
	})
}

// RunAnalysis executes one full analysis over the dataset. It never returns
// an error: every failure is recovered into the report's error records and
// reflected in the run status.
func (o *Orchestrator) RunAnalysis(ctx context.Context, ds *model.Dataset) *model.AggregatedReport {
	report := &model.AggregatedReport{
		DatasetLabel: ds.Label,
		GeneratedAt:  time.Now().UTC(),
	}

	runID := o.createRun(ctx, ds.Label)
	report.RunID = runID

	if len(ds.Records) == 0 {
		report.Errors = append(report.Errors, model.ErrorInfo{
			Stage:   "dataset",
			Kind:    model.ErrorKindTask,
			Message: "dataset has no records",
		})
		o.finishRun(ctx, runID, model.RunStatusFailed, report)
		return report
	}

	// Shared metrics, computed once and handed read-only to every task.
	o.progress("metrics", "computing shared metrics over %d records", len(ds.Records))
	metrics := dataset.ComputeMetrics(ds.Records)
	report.Metrics = metrics

	// Scheduled analysis tasks.
	tasks := o.analysisTasks()
	o.progress("tasks", "running %d analysis tasks", len(tasks))
	var results map[string]model.TaskResult
	if o.opts.Sequential {
		results = o.scheduler.RunSequential(ctx, tasks, ds, metrics)
	} else {
		results = o.scheduler.RunAll(ctx, tasks, ds, metrics)
	}
	report.TaskResults = results

	// Aggregate and dedupe findings.
	merged := aggregate.Merge(results, o.opts.TopN)
	report.Opportunities = merged.Opportunities
	report.Risks = merged.Risks
	report.Errors = append(report.Errors, merged.Errors...)
	o.progress("aggregate", "%d opportunities, %d risks after dedup", len(merged.Opportunities), len(merged.Risks))

	// External benchmark knowledge for the findings.
	var chunks []model.KnowledgeChunk
	var stats knowledge.Stats
	if o.retriever != nil {
		queries := benchmarkQueries(ds, metrics, merged, o.opts.QueryLimit)
		o.progress("knowledge", "resolving %d benchmark queries", len(queries))
		var kerrs []model.ErrorInfo
		chunks, stats, kerrs = o.retriever.RetrieveAll(ctx, queries)
		report.Knowledge = chunks
		report.CacheHits = stats.Hits
		report.CacheMisses = stats.Misses
		report.Errors = append(report.Errors, kerrs...)
	}

	// Narrative over the provider fallback chain.
	o.progress("narrative", "generating narrative via provider chain %v", o.opts.Chain)
	narrative, attempts, usage, costUSD := o.generateNarrative(ctx, ds, metrics, merged, chunks)
	report.Narrative = narrative
	report.ProviderAttempts = attempts
	report.TokenUsage = usage
	report.CostUSD = costUSD + float64(stats.Misses)*o.calc.KnowledgeQuery()
	if narrative.Degraded {
		report.Errors = append(report.Errors, model.ErrorInfo{
			Stage:   "narrative",
			Kind:    model.ErrorKindExhausted,
			Message: "all text providers failed; narrative is a placeholder",
		})
	}

	// Confidence labels for the narrative's recommendations.
	scorer := confidence.NewScorer(metrics, chunks)
	report.Recommendations = scorer.Score(narrative.Detailed)
	o.progress("confidence", "scored %d recommendations", len(report.Recommendations))

	status := o.runStatus(report)
	o.finishRun(ctx, runID, status, report)
	o.progress("report", "run %s finished with status %s", runID, status)

	zap.L().Info("orchestrator: run finished",
		zap.String("run_id", runID),
		zap.String("status", string(status)),
		zap.Int("errors", len(report.Errors)),
		zap.Float64("cost_usd", report.CostUSD),
	)
	return report
}

// analysisTasks returns the standard task set with the configured per-task
// timeout stamped on.
func (o *Orchestrator) analysisTasks() []schedule.Task {
	tasks := analysis.Tasks()
	if o.opts.TaskTimeout > 0 {
		for i := range tasks {
			tasks[i].Timeout = o.opts.TaskTimeout
		}
	}
	return tasks
}

// runStatus derives the final run status from what the report recovered.
func (o *Orchestrator) runStatus(report *model.AggregatedReport) model.RunStatus {
	failedTasks := 0
	for _, r := range report.TaskResults {
		if r.Failed() {
			failedTasks++
		}
	}
	switch {
	case len(report.TaskResults) > 0 && failedTasks == len(report.TaskResults):
		return model.RunStatusFailed
	case report.Narrative.Degraded || failedTasks > 0:
		return model.RunStatusDegraded
	default:
		return model.RunStatusComplete
	}
}

func (o *Orchestrator) createRun(ctx context.Context, label string) string {
	if o.runs == nil {
		return uuid.New().String()
	}
	run, err := o.runs.CreateRun(ctx, label)
	if err != nil {
		zap.L().Warn("orchestrator: create run record failed", zap.Error(err))
		return uuid.New().String()
	}
	if err := o.runs.UpdateRunStatus(ctx, run.ID, model.RunStatusAnalyzing); err != nil {
		zap.L().Warn("orchestrator: update run status failed", zap.Error(err))
	}
	return run.ID
}

func (o *Orchestrator) finishRun(ctx context.Context, runID string, status model.RunStatus, report *model.AggregatedReport) {
	if o.runs == nil {
		return
	}
	if err := o.runs.UpdateRunReport(ctx, runID, status, report); err != nil {
		zap.L().Warn("orchestrator: persist report failed",
			zap.String("run_id", runID),
			zap.Error(err),
		)
	}
}

// generateNarrative produces the brief and detailed narrative through the
// fallback chain, accounting tokens and cost per successful call. When the
// chain is exhausted for both calls the narrative degrades to placeholder
// text rather than failing the run.
func (o *Orchestrator) generateNarrative(ctx context.Context, ds *model.Dataset, metrics model.SharedMetrics, merged aggregate.Merged, chunks []model.KnowledgeChunk) (model.Narrative, []model.ProviderAttempt, model.TokenUsage, float64) {
	var (
		narrative model.Narrative
		attempts  []model.ProviderAttempt
		usage     model.TokenUsage
		costUSD   float64
	)

	// One session for both calls: a provider that fails auth on the brief
	// call is not retried for the detailed one.
	session := o.chain.Session()

	brief, briefAttempts, err := session.CallWithFallback(ctx, o.opts.Chain, gateway.Request{
		System:    narrativeSystemPrompt,
		Prompt:    briefPrompt(ds, metrics, merged),
		MaxTokens: o.opts.MaxTokens,
	})
	attempts = append(attempts, briefAttempts...)
	if err == nil {
		narrative.Brief = brief.Text
		narrative.Provider = brief.Provider
		usage.Add(model.TokenUsage{InputTokens: brief.InputTokens, OutputTokens: brief.OutputTokens})
		costUSD += o.completionCost(brief)
	}

	detailed, detailedAttempts, derr := session.CallWithFallback(ctx, o.opts.Chain, gateway.Request{
		System:    narrativeSystemPrompt,
		Prompt:    detailedPrompt(ds, metrics, merged, chunks),
		MaxTokens: o.opts.MaxTokens,
	})
	attempts = append(attempts, detailedAttempts...)
	if derr == nil {
		narrative.Detailed = detailed.Text
		if narrative.Provider == "" {
			narrative.Provider = detailed.Provider
		}
		usage.Add(model.TokenUsage{InputTokens: detailed.InputTokens, OutputTokens: detailed.OutputTokens})
		costUSD += o.completionCost(detailed)
	}

	if err != nil && derr != nil {
		narrative = degradedNarrative(metrics, merged)
	} else {
		if narrative.Brief == "" {
			narrative.Brief = fallbackBrief(metrics)
		}
		if narrative.Detailed == "" {
			narrative.Detailed = narrative.Brief
		}
	}

	return narrative, attempts, usage, costUSD
}

// completionCost resolves the provider's configured model for pricing.
func (o *Orchestrator) completionCost(resp *gateway.Response) float64 {
	p := o.registry.Get(resp.Provider)
	if p == nil {
		return 0
	}
	m, ok := p.(modeler)
	if !ok {
		return 0
	}
	return o.calc.Completion(m.Model(), resp.InputTokens, resp.OutputTokens)
}
