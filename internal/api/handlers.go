package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/forgepilot/reviewloop/internal/orchestrator"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

// Handlers serves the read-only dashboard API plus the manual-run and
// retry control endpoints, all layered over the session store.
type Handlers struct {
	store     sessionstore.Store
	orc       *orchestrator.Orchestrator
	startedAt time.Time
}

// NewHandlers builds the dashboard handler set.
func NewHandlers(store sessionstore.Store, orc *orchestrator.Orchestrator) *Handlers {
	return &Handlers{store: store, orc: orc, startedAt: time.Now()}
}

// Liveness serves GET /.
func (h *Handlers) Liveness(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// History serves GET /api/history?limit=&since=.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			JSONError(w, "since must be RFC3339", http.StatusBadRequest)
			return
		}
		since = t
	}

	runs, err := h.store.ListRuns(r.Context(), limit, since, sessionstore.ListFilter{})
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, runs)
}

// HistoryByPR serves GET /api/history/pr/{pr_number}.
func (h *Handlers) HistoryByPR(w http.ResponseWriter, r *http.Request) {
	prNumber, err := strconv.Atoi(r.PathValue("pr_number"))
	if err != nil {
		JSONError(w, "pr_number must be an integer", http.StatusBadRequest)
		return
	}
	runs, err := h.store.ListByPR(r.Context(), prNumber)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, runs)
}

// HistorySkipped serves GET /api/history/skipped.
func (h *Handlers) HistorySkipped(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListSkipped(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, runs)
}

// metricsSummary is the aggregate shape served by GET /api/metrics.
type metricsSummary struct {
	RunsTotal        int            `json:"runs_total"`
	RunsByStatus     map[string]int `json:"runs_by_status"`
	TokensTotal      int            `json:"tokens_total"`
	EstimatedCostUSD float64        `json:"estimated_cost_usd"`
	SuccessRate      float64        `json:"success_rate"`
}

// successRateWindow is how many of the most recent runs the success rate
// served by GET /api/metrics covers.
const successRateWindow = 100

// Metrics serves GET /api/metrics: aggregate counters over the full run
// history, computed on demand since the session store keeps per-run
// metrics rather than a running total. The success rate is rolling: it
// covers only the terminal runs among the successRateWindow newest runs.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context(), 0, time.Time{}, sessionstore.ListFilter{})
	if err != nil {
		HandleError(w, err)
		return
	}

	summary := metricsSummary{RunsByStatus: make(map[string]int)}
	var succeeded int
	var terminal int
	for i, run := range runs {
		summary.RunsTotal++
		summary.RunsByStatus[string(run.Status)]++
		summary.TokensTotal += run.Metrics.TokensUsed
		summary.EstimatedCostUSD += run.Metrics.EstimatedCostUSD
		// ListRuns returns newest first, so the first successRateWindow
		// entries are the most recent runs.
		if i < successRateWindow && isTerminalStatus(run.Status) {
			terminal++
			if run.Status == sessionstore.StatusCompleted {
				succeeded++
			}
		}
	}
	if terminal > 0 {
		summary.SuccessRate = float64(succeeded) / float64(terminal)
	}
	JSONResponse(w, summary)
}

// TriggerConfig serves GET /api/trigger-config: the live trigger
// classification configuration, read-only.
func (h *Handlers) TriggerConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.orc.TriggerConfig()
	JSONResponse(w, map[string]any{
		"mode":                     cfg.Mode,
		"trivial_filter_enabled":   cfg.TrivialFilterEnabled,
		"trivial_max_lines":        cfg.DiffConfig.TrivialMaxLines,
		"minimal_threshold":        cfg.DiffConfig.MinimalThreshold,
		"lightweight_on_docs_only": cfg.LightweightOnDocsOnly,
	})
}

type manualRunRequest struct {
	CommitSHA string `json:"commit_sha"`
	Branch    string `json:"branch"`
}

// ManualRun serves POST /api/manual-run: synthesizes a push-like trigger
// event from an operator-supplied commit/branch and opens a Run for it.
func (h *Handlers) ManualRun(w http.ResponseWriter, r *http.Request) {
	var body manualRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.CommitSHA == "" {
		JSONError(w, "commit_sha is required", http.StatusBadRequest)
		return
	}

	ev := trigger.Event{
		Kind:     trigger.EventPush,
		CommitID: body.CommitSHA,
		Branch:   body.Branch,
	}
	h.dispatchEvent(w, r, ev)
}

// Retry serves POST /api/runs/{run_id}/retry: re-synthesizes a push-like
// trigger event from a terminal Run's commit id and re-opens it.
func (h *Handlers) Retry(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")
	run, err := h.store.GetRun(r.Context(), runID)
	if err != nil {
		HandleError(w, err)
		return
	}
	if !isTerminalStatus(run.Status) {
		JSONError(w, "run is not in a terminal status", http.StatusConflict)
		return
	}

	ev := trigger.Event{
		Kind:     trigger.EventPush,
		CommitID: run.CommitID,
		Branch:   run.Branch,
		PRNumber: run.PRNumber,
		HasPR:    run.PRNumber != 0,
	}
	h.dispatchEvent(w, r, ev)
}

func (h *Handlers) dispatchEvent(w http.ResponseWriter, r *http.Request, ev trigger.Event) {
	runID, err := h.orc.HandleEventAsync(r.Context(), ev)
	if err != nil {
		HandleError(w, err)
		return
	}
	if runID == "" {
		NoContent(w)
		return
	}
	JSONResponseStatus(w, map[string]string{"status": "accepted", "run_id": runID}, http.StatusAccepted)
}

func isTerminalStatus(status sessionstore.Status) bool {
	switch status {
	case sessionstore.StatusCompleted, sessionstore.StatusCompletedWithIssues, sessionstore.StatusFailed, sessionstore.StatusSkipped:
		return true
	default:
		return false
	}
}
