// Package llmgateway is the single choke point for LLM calls across task
// workers: a token-bucket admission gate composed with a minimum
// inter-admission delay, dispatching to a configurable provider client.
package llmgateway

import "context"

// Usage reports token counts and estimated cost for one generation.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	EstimatedCostUSD float64
}

// ProviderClient performs a single completion call against one LLM provider.
type ProviderClient interface {
	// Generate sends prompt to model and returns the raw completion text
	// plus token usage, as reported by the provider.
	Generate(ctx context.Context, prompt, model string) (text string, promptTokens, completionTokens int, err error)
}

// ProviderType selects which ProviderClient implementation the Gateway dispatches to.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderGemini    ProviderType = "gemini"
)
