package llmgateway

import "fmt"

// NewProviderClient builds the ProviderClient named by provider.
func NewProviderClient(provider ProviderType, apiKey, baseURL string) (ProviderClient, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, baseURL), nil
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, baseURL), nil
	case ProviderGemini:
		return NewGeminiClient(apiKey, baseURL), nil
	default:
		return nil, fmt.Errorf("llmgateway: unknown provider %q", provider)
	}
}
