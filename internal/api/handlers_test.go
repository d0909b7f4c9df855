package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

func TestHandlers_Liveness(t *testing.T) {
	t.Parallel()

	_, store, orc := newTestStack(t)
	h := NewHandlers(store, orc)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %v, want ok", body["status"])
	}
}

func TestHandlers_HistoryListsNewestFirst(t *testing.T) {
	t.Parallel()

	host, store, orc := newTestStack(t)
	h := NewHandlers(store, orc)

	host.setCommitDiff("c1", trivialDiff)
	host.setCommitDiff("c2", trivialDiff)

	if _, err := orc.HandleEvent(context.Background(), trigger.Event{Kind: trigger.EventPush, CommitID: "c1", Branch: "main", DiffText: trivialDiff}); err != nil {
		t.Fatalf("handle event c1: %v", err)
	}
	if _, err := orc.HandleEvent(context.Background(), trigger.Event{Kind: trigger.EventPush, CommitID: "c2", Branch: "main", DiffText: trivialDiff}); err != nil {
		t.Fatalf("handle event c2: %v", err)
	}

	rec := httptest.NewRecorder()
	h.History(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var runs []*sessionstore.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].CommitID != "c2" {
		t.Fatalf("runs[0].CommitID = %q, want c2 (newest first)", runs[0].CommitID)
	}
}

func TestHandlers_HistorySkippedOnlyReturnsSkippedRuns(t *testing.T) {
	t.Parallel()

	host, store, orc := newTestStack(t)
	h := NewHandlers(store, orc)

	host.setCommitDiff("trivial", trivialDiff)
	host.setCommitDiff("full", fullDiff)

	if _, err := orc.HandleEvent(context.Background(), trigger.Event{Kind: trigger.EventPush, CommitID: "trivial", Branch: "main", DiffText: trivialDiff}); err != nil {
		t.Fatalf("handle trivial event: %v", err)
	}
	if _, err := orc.HandleEvent(context.Background(), trigger.Event{Kind: trigger.EventPush, CommitID: "full", Branch: "main", DiffText: fullDiff}); err != nil {
		t.Fatalf("handle full event: %v", err)
	}

	rec := httptest.NewRecorder()
	h.HistorySkipped(rec, httptest.NewRequest(http.MethodGet, "/api/history/skipped", nil))

	var runs []*sessionstore.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(runs) != 1 || runs[0].CommitID != "trivial" {
		t.Fatalf("skipped runs = %+v, want exactly the trivial-change run", runs)
	}
}

func TestHandlers_MetricsAggregatesAcrossRuns(t *testing.T) {
	t.Parallel()

	host, store, orc := newTestStack(t)
	h := NewHandlers(store, orc)

	host.setCommitDiff("full", fullDiff)
	if _, err := orc.HandleEvent(context.Background(), trigger.Event{Kind: trigger.EventPush, CommitID: "full", Branch: "main", DiffText: fullDiff}); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	var summary metricsSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if summary.RunsTotal != 1 {
		t.Fatalf("RunsTotal = %d, want 1", summary.RunsTotal)
	}
	if summary.TokensTotal <= 0 {
		t.Fatalf("TokensTotal = %d, want > 0", summary.TokensTotal)
	}
}

func TestHandlers_TriggerConfigReflectsLiveConfig(t *testing.T) {
	t.Parallel()

	_, store, orc := newTestStack(t)
	h := NewHandlers(store, orc)

	rec := httptest.NewRecorder()
	h.TriggerConfig(rec, httptest.NewRequest(http.MethodGet, "/api/trigger-config", nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["mode"] != string(trigger.ModeBoth) {
		t.Fatalf("mode = %v, want %q", body["mode"], trigger.ModeBoth)
	}
}

func TestHandlers_ManualRunRejectsMissingCommitSHA(t *testing.T) {
	t.Parallel()

	_, store, orc := newTestStack(t)
	h := NewHandlers(store, orc)

	req := httptest.NewRequest(http.MethodPost, "/api/manual-run", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	h.ManualRun(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlers_ManualRunAcceptsAndReturnsRunID(t *testing.T) {
	t.Parallel()

	host, store, orc := newTestStack(t)
	h := NewHandlers(store, orc)
	host.setCommitDiff("abc123", trivialDiff)

	body, _ := json.Marshal(manualRunRequest{CommitSHA: "abc123", Branch: "main"})
	req := httptest.NewRequest(http.MethodPost, "/api/manual-run", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	h.ManualRun(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body=%s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp["run_id"] == "" {
		t.Fatal("expected a non-empty run_id")
	}
}

func TestHandlers_RetryRejectsNonTerminalRun(t *testing.T) {
	t.Parallel()

	_, store, orc := newTestStack(t)
	h := NewHandlers(store, orc)

	runID, err := store.StartRun(context.Background(), sessionstore.StartRunInput{
		CommitID: "pending-commit", Branch: "main", TriggerType: string(trigger.TriggerPushWithoutPR), RunType: string(trigger.RunFullAutomation),
	})
	if err != nil {
		t.Fatalf("start run: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/runs/"+runID+"/retry", nil)
	req.SetPathValue("run_id", runID)
	rec := httptest.NewRecorder()
	h.Retry(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

const trivialDiff = `diff --git a/main.go b/main.go
index 111..222 100644
--- a/main.go
+++ b/main.go
@@ -1,1 +1,2 @@
 package main
+
`

const fullDiff = `diff --git a/main.go b/main.go
index 111..222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,6 @@
 package main
+
+func helper() int {
+	return 42
+}

`
