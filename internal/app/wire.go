// Package app assembles reviewloop's services (hosting client, LLM gateway,
// session store, task workers, orchestrator, HTTP surface) from a resolved
// config.Config. It is the one place that knows how every package's
// constructor fits together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgepilot/reviewloop/internal/config"
	"github.com/forgepilot/reviewloop/internal/diffutil"
	"github.com/forgepilot/reviewloop/internal/events"
	"github.com/forgepilot/reviewloop/internal/hosting"
	_ "github.com/forgepilot/reviewloop/internal/hosting/github"
	_ "github.com/forgepilot/reviewloop/internal/hosting/gitlab"
	"github.com/forgepilot/reviewloop/internal/llmgateway"
	"github.com/forgepilot/reviewloop/internal/orchestrator"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/sessionstore/filestore"
	"github.com/forgepilot/reviewloop/internal/sessionstore/pgstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
	"github.com/forgepilot/reviewloop/internal/workers"
)

// App holds every wired service plus the orchestrator and event bus the
// HTTP surface is built from.
type App struct {
	Host    hosting.Provider
	Store   sessionstore.Store
	Gateway *llmgateway.Gateway
	Orc     *orchestrator.Orchestrator
	Pub     events.Publisher
}

// Build wires every service from cfg. The caller owns App.Store.Close().
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	host, err := hosting.NewProvider(hosting.Config{
		Provider: cfg.Host.Provider,
		Token:    cfg.Host.Token,
		BaseURL:  cfg.Host.BaseURL,
		Owner:    cfg.Host.Owner,
		Repo:     cfg.Host.Repo,
	})
	if err != nil {
		return nil, fmt.Errorf("build hosting provider: %w", err)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build session store: %w", err)
	}

	providerClient, err := llmgateway.NewProviderClient(llmgateway.ProviderType(cfg.LLM.Provider), cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("build llm provider client: %w", err)
	}
	gateway := llmgateway.New(providerClient, cfg.LLM.Model, cfg.LLM.MaxRPM,
		time.Duration(cfg.LLM.MinDelaySeconds*float64(time.Second)), llmgateway.WithLogger(logger))

	codeReview := workers.NewCodeReview(gateway, host, cfg.PostReviewOnPR, cfg.PostAsIssue, cfg.DiffContextLines)
	readme := workers.NewREADME(gateway, host)
	specUpdater := workers.NewSpecUpdater(gateway, host)
	reviewLog := workers.NewReviewLog(gateway, host, codeReview)

	triggerCfg := trigger.Config{
		Mode:                  trigger.Mode(cfg.TriggerMode),
		TrivialFilterEnabled:  cfg.TrivialChangeFilterEnabled,
		DiffConfig:            diffutil.Config{TrivialMaxLines: cfg.TrivialMaxLines, MinimalThreshold: diffutil.DefaultConfig().MinimalThreshold},
		LightweightOnDocsOnly: cfg.LightweightOnDocsOnly,
		DiffMaxBytes:          cfg.DiffMaxBytes,
	}

	orcCfg := orchestrator.DefaultConfig()
	orcCfg.DedupWindow = cfg.DedupWindow
	orcCfg.WorkerTimeout = cfg.WorkerTimeout
	orcCfg.GroupAutomationUpdates = cfg.GroupAutomationUpdates

	pub := events.NewMemoryPublisher()
	orc := orchestrator.New(store, host, triggerCfg, orcCfg, codeReview, readme, specUpdater, reviewLog,
		orchestrator.WithLogger(logger), orchestrator.WithPublisher(pub))

	return &App{Host: host, Store: store, Gateway: gateway, Orc: orc, Pub: pub}, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (sessionstore.Store, error) {
	switch cfg.SessionStore.Backend {
	case "postgres":
		return pgstore.Open(ctx, cfg.SessionStore.DatabaseURL, 30*time.Second)
	case "file", "":
		return filestore.Open(cfg.SessionStore.Path, 30*time.Second)
	default:
		return nil, fmt.Errorf("unknown session_store.backend %q", cfg.SessionStore.Backend)
	}
}
