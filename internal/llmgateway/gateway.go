package llmgateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/forgepilot/reviewloop/internal/rlerrors"
)

// Gateway is the process-wide singleton collaborator all task workers
// acquire from before calling an LLM. It is passed explicitly into
// constructors rather than reached for as an ambient global, so tests can
// substitute a fake ProviderClient and a tight rate limit.
type Gateway struct {
	limiter  *rate.Limiter
	minDelay time.Duration
	client   ProviderClient
	model    string
	prices   PriceTable
	logger   *slog.Logger

	mu            sync.Mutex
	lastAdmission time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for admission diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithPriceTable overrides the default static per-model price table.
func WithPriceTable(prices PriceTable) Option {
	return func(g *Gateway) { g.prices = prices }
}

// New builds a Gateway. maxRPM is both the token bucket's capacity and its
// refill rate (tokens per minute); minDelay enforces a minimum gap between
// successive admissions on top of the bucket.
func New(client ProviderClient, model string, maxRPM int, minDelay time.Duration, opts ...Option) *Gateway {
	if maxRPM <= 0 {
		maxRPM = 1
	}
	g := &Gateway{
		limiter:  rate.NewLimiter(rate.Limit(float64(maxRPM)/60.0), maxRPM),
		minDelay: minDelay,
		client:   client,
		model:    model,
		prices:   DefaultPriceTable(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// acquire blocks until both the token bucket and the minimum-delay gate
// clear. Context cancellation releases the waiter without consuming a
// token (rate.Limiter.Wait's own contract) and without advancing the
// min-delay timestamp.
func (g *Gateway) acquire(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return rlerrors.Wrap(rlerrors.KindCancelled, "llm gateway admission cancelled", err)
	}

	g.mu.Lock()
	wait := g.minDelay - time.Since(g.lastAdmission)
	g.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return rlerrors.Wrap(rlerrors.KindCancelled, "llm gateway admission cancelled", ctx.Err())
		case <-timer.C:
		}
	}

	g.mu.Lock()
	g.lastAdmission = time.Now()
	g.mu.Unlock()
	return nil
}

// Generate acquires admission, then dispatches to the configured provider
// client and returns the completion text plus usage accounting. A model
// override of "" uses the Gateway's configured default model.
func (g *Gateway) Generate(ctx context.Context, prompt, model string) (string, Usage, error) {
	if model == "" {
		model = g.model
	}

	if err := g.acquire(ctx); err != nil {
		return "", Usage{}, err
	}

	text, promptTokens, completionTokens, err := g.client.Generate(ctx, prompt, model)
	if err != nil {
		return "", Usage{}, rlerrors.Wrap(rlerrors.KindLLMError, fmt.Sprintf("generate with model %s", model), err)
	}

	usage := Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		EstimatedCostUSD: g.prices.Estimate(model, promptTokens, completionTokens),
	}
	g.logger.Debug("llm generation complete", "model", model, "prompt_tokens", promptTokens, "completion_tokens", completionTokens, "estimated_cost_usd", usage.EstimatedCostUSD)

	return text, usage, nil
}
