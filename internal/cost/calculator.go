// Package cost computes USD cost estimates for provider usage.
package cost

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates holds pricing for generation models and flat knowledge queries.
type Rates struct {
	Models       map[string]ModelRate `yaml:"models" mapstructure:"models"`
	QueryCostUSD float64              `yaml:"query_cost_usd" mapstructure:"query_cost_usd"`
}

// Calculator computes costs for provider usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Completion computes the cost of one generation call. Unknown models cost 0.
func (c *Calculator) Completion(model string, inputTokens, outputTokens int64) float64 {
	rate, ok := c.rates.Models[model]
	if !ok {
		return 0
	}
	return (float64(inputTokens)/1e6)*rate.Input + (float64(outputTokens)/1e6)*rate.Output
}

// KnowledgeQuery returns the flat cost of one knowledge-source query.
// Cache hits are free — only misses should be charged.
func (c *Calculator) KnowledgeQuery() float64 {
	return c.rates.QueryCostUSD
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {Input: 0.80, Output: 4.00},
			"gemini-2.5-flash":          {Input: 0.30, Output: 2.50},
			"sonar-pro":                 {Input: 3.00, Output: 15.00},
		},
		QueryCostUSD: 0.005,
	}
}
