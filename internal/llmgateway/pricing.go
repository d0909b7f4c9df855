package llmgateway

// ModelPrice is the per-million-token rate for a model, in US dollars.
type ModelPrice struct {
	PromptPerMillion     float64
	CompletionPerMillion float64
}

// PriceTable estimates cost from per-model rates. Unknown models estimate
// zero cost rather than erroring, since cost accounting must never block
// a task's result from being recorded.
type PriceTable map[string]ModelPrice

// Estimate returns the dollar cost for the given token counts at model's
// rate, or 0 if model is not in the table.
func (t PriceTable) Estimate(model string, promptTokens, completionTokens int) float64 {
	price, ok := t[model]
	if !ok {
		return 0
	}
	return float64(promptTokens)/1_000_000*price.PromptPerMillion +
		float64(completionTokens)/1_000_000*price.CompletionPerMillion
}

// DefaultPriceTable holds list prices for the models reviewloop ships
// support for out of the box. Operators running other models get $0
// estimates until they override it with WithPriceTable.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		"gpt-4o":            {PromptPerMillion: 2.50, CompletionPerMillion: 10.00},
		"gpt-4o-mini":       {PromptPerMillion: 0.15, CompletionPerMillion: 0.60},
		"claude-sonnet-4-5": {PromptPerMillion: 3.00, CompletionPerMillion: 15.00},
		"claude-haiku-4-5":  {PromptPerMillion: 0.80, CompletionPerMillion: 4.00},
		"gemini-2.5-pro":    {PromptPerMillion: 1.25, CompletionPerMillion: 10.00},
		"gemini-2.5-flash":  {PromptPerMillion: 0.30, CompletionPerMillion: 2.50},
	}
}
