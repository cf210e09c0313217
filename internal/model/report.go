package model

import "time"

// ErrorKind classifies a recorded failure.
type ErrorKind string

const (
	ErrorKindTask      ErrorKind = "task"
	ErrorKindTransient ErrorKind = "transient"
	ErrorKindRateLimit ErrorKind = "rate_limit"
	ErrorKindAuth      ErrorKind = "auth"
	ErrorKindCircuit   ErrorKind = "circuit_open"
	ErrorKindExhausted ErrorKind = "exhausted"
	ErrorKindUnknown   ErrorKind = "unknown"
)

// ErrorInfo is a structured error record inside a report. Failures below the
// orchestrator are recovered into these, never propagated.
type ErrorInfo struct {
	Stage   string    `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// TaskResult is produced exactly once per declared analysis task. A failed
// task still yields a result with Err set and an empty payload.
type TaskResult struct {
	Name       string         `json:"name"`
	Payload    map[string]any `json:"payload"`
	Err        *ErrorInfo     `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// Failed reports whether the task ended in error.
func (r TaskResult) Failed() bool { return r.Err != nil }

// Finding is a structured opportunity or risk produced by an analysis task.
type Finding struct {
	Type     string         `json:"type"`
	Campaign string         `json:"campaign,omitempty"`
	Platform string         `json:"platform,omitempty"`
	Metric   string         `json:"metric,omitempty"`
	Value    float64        `json:"value,omitempty"`
	Detail   string         `json:"detail"`
	Tags     []string       `json:"tags,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Narrative holds the generated summary. Degraded marks placeholder text
// written when every text provider failed, so consumers can tell "no data"
// from "service unavailable".
type Narrative struct {
	Brief    string `json:"brief"`
	Detailed string `json:"detailed"`
	Provider string `json:"provider,omitempty"`
	Degraded bool   `json:"degraded"`
}

// ConfidenceLevel labels how well a recommendation is backed by data.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ScoredRecommendation is a recommendation extracted from the narrative with
// a confidence label and its supporting evidence references.
type ScoredRecommendation struct {
	Text       string          `json:"text"`
	Confidence ConfidenceLevel `json:"confidence"`
	Evidence   []string        `json:"evidence,omitempty"`
}

// KnowledgeChunk is one unit of external knowledge returned by the
// knowledge source and cached by fingerprint.
type KnowledgeChunk struct {
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
}

// ProviderAttempt records one provider's outcome inside a fallback chain
// invocation, kept for diagnostics and the confidence evidence trail.
type ProviderAttempt struct {
	Provider   string    `json:"provider"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message,omitempty"`
	RetryAfter string    `json:"retry_after,omitempty"`
}

// AggregatedReport is the sole externally visible output of a run.
// Assembled once at the end; immutable thereafter.
type AggregatedReport struct {
	RunID            string                 `json:"run_id"`
	DatasetLabel     string                 `json:"dataset_label"`
	Metrics          SharedMetrics          `json:"metrics"`
	TaskResults      map[string]TaskResult  `json:"task_results"`
	Opportunities    []Finding              `json:"opportunities"`
	Risks            []Finding              `json:"risks"`
	Narrative        Narrative              `json:"narrative"`
	Recommendations  []ScoredRecommendation `json:"recommendations"`
	Knowledge        []KnowledgeChunk       `json:"knowledge,omitempty"`
	ProviderAttempts []ProviderAttempt      `json:"provider_attempts,omitempty"`
	Errors           []ErrorInfo            `json:"errors,omitempty"`
	TokenUsage       TokenUsage             `json:"token_usage"`
	CostUSD          float64                `json:"cost_usd"`
	CacheHits        int                    `json:"cache_hits"`
	CacheMisses      int                    `json:"cache_misses"`
	GeneratedAt      time.Time              `json:"generated_at"`
}
