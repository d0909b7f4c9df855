package api

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/forgepilot/reviewloop/internal/diffutil"
	"github.com/forgepilot/reviewloop/internal/events"
	"github.com/forgepilot/reviewloop/internal/llmgateway"
	"github.com/forgepilot/reviewloop/internal/orchestrator"
	"github.com/forgepilot/reviewloop/internal/sessionstore/filestore"
	"github.com/forgepilot/reviewloop/internal/trigger"
	"github.com/forgepilot/reviewloop/internal/workers"
)

// newTestStack builds a full, in-memory orchestrator over a fake host
// provider and a temp-file session store, suitable for driving the HTTP
// surface end to end in tests.
func newTestStack(t *testing.T) (*fakeProvider, *filestore.Store, *orchestrator.Orchestrator) {
	t.Helper()

	host := newFakeProvider()

	path := filepath.Join(t.TempDir(), "runs.json")
	store, err := filestore.Open(path, time.Minute)
	if err != nil {
		t.Fatalf("open filestore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	gw := llmgateway.New(&fakeLLMClient{response: "Score: 8/10\nNo blocking issues."}, "fake-model", 1000, 0)
	codeReview := workers.NewCodeReview(gw, host, true, false, 20)
	readme := workers.NewREADME(gw, host)
	specUpdater := workers.NewSpecUpdater(gw, host)
	reviewLog := workers.NewReviewLog(gw, host, codeReview)

	triggerCfg := trigger.Config{
		Mode:                 trigger.ModeBoth,
		TrivialFilterEnabled: true,
		DiffConfig:           diffutil.DefaultConfig(),
	}
	cfg := orchestrator.DefaultConfig()
	cfg.DedupWindow = time.Minute

	orc := orchestrator.New(store, host, triggerCfg, cfg, codeReview, readme, specUpdater, reviewLog,
		orchestrator.WithPublisher(events.NewMemoryPublisher()))

	return host, store, orc
}
