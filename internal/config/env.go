package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvVarMapping documents every environment variable reviewloop honors,
// mapping each name to the config field path it overrides.
var EnvVarMapping = map[string]string{
	"TRIGGER_MODE":                  "trigger_mode",
	"TRIVIAL_CHANGE_FILTER_ENABLED": "trivial_change_filter_enabled",
	"TRIVIAL_MAX_LINES":             "trivial_max_lines",
	"LIGHTWEIGHT_ON_DOCS_ONLY":      "lightweight_on_docs_only",
	"POST_REVIEW_ON_PR":             "post_review_on_pr",
	"POST_AS_ISSUE":                 "post_as_issue",
	"GROUP_AUTOMATION_UPDATES":      "group_automation_updates",
	"DEDUP_WINDOW_SECONDS":          "dedup_window_seconds",
	"WORKER_TIMEOUT_SECONDS":        "worker_timeout_seconds",
	"DIFF_CONTEXT_LINES":            "diff_context_lines",
	"DIFF_MAX_BYTES":                "diff_max_bytes",
	"LOG_FORMAT":                    "log_format",
	"LLM_PROVIDER":                  "llm.provider",
	"LLM_MODEL":                     "llm.model",
	"LLM_MAX_RPM":                   "llm.max_rpm",
	"LLM_MIN_DELAY_SECONDS":         "llm.min_delay_seconds",
	"LLM_API_KEY":                   "llm.api_key",
	"LLM_BASE_URL":                  "llm.base_url",
	"HOST_PROVIDER":                 "host.provider",
	"HOST_TOKEN":                    "host.token",
	"HOST_BASE_URL":                 "host.base_url",
	"HOST_OWNER":                    "host.owner",
	"HOST_REPO":                     "host.repo",
	"HOST":                          "server.host",
	"PORT":                          "server.port",
	"SESSION_STORE_BACKEND":         "session_store.backend",
	"SESSION_STORE_PATH":            "session_store.path",
	"DATABASE_URL":                  "session_store.database_url",
	"WEBHOOK_SECRET":                "webhook_secret",
}

// ApplyEnvVars applies process environment overrides onto cfg, in the
// shape of the EnvVarMapping table above. Returns the list of env vars
// that were actually applied (non-empty in the environment).
func ApplyEnvVars(cfg *Config) []string {
	var applied []string
	for envVar, path := range EnvVarMapping {
		val := os.Getenv(envVar)
		if val == "" {
			continue
		}
		if applyEnvVar(cfg, path, val) {
			applied = append(applied, envVar)
		}
	}
	return applied
}

func applyEnvVar(cfg *Config, path, value string) bool {
	switch path {
	case "trigger_mode":
		cfg.TriggerMode = TriggerMode(value)
	case "trivial_change_filter_enabled":
		cfg.TrivialChangeFilterEnabled = parseBool(value)
	case "trivial_max_lines":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.TrivialMaxLines = v
		}
	case "lightweight_on_docs_only":
		cfg.LightweightOnDocsOnly = parseBool(value)
	case "post_review_on_pr":
		cfg.PostReviewOnPR = parseBool(value)
	case "post_as_issue":
		cfg.PostAsIssue = parseBool(value)
	case "group_automation_updates":
		cfg.GroupAutomationUpdates = parseBool(value)
	case "dedup_window_seconds":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.DedupWindow = time.Duration(v) * time.Second
		}
	case "worker_timeout_seconds":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.WorkerTimeout = time.Duration(v) * time.Second
		}
	case "diff_context_lines":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.DiffContextLines = v
		}
	case "diff_max_bytes":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.DiffMaxBytes = v
		}
	case "log_format":
		cfg.LogFormat = value
	case "llm.provider":
		cfg.LLM.Provider = value
	case "llm.model":
		cfg.LLM.Model = value
	case "llm.max_rpm":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.LLM.MaxRPM = v
		}
	case "llm.min_delay_seconds":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.LLM.MinDelaySeconds = v
		}
	case "llm.api_key":
		cfg.LLM.APIKey = value
	case "llm.base_url":
		cfg.LLM.BaseURL = value
	case "host.provider":
		cfg.Host.Provider = value
	case "host.token":
		cfg.Host.Token = value
	case "host.base_url":
		cfg.Host.BaseURL = value
	case "host.owner":
		cfg.Host.Owner = value
	case "host.repo":
		cfg.Host.Repo = value
	case "server.host":
		cfg.Server.Host = value
	case "server.port":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.Server.Port = v
		}
	case "session_store.backend":
		cfg.SessionStore.Backend = value
	case "session_store.path":
		cfg.SessionStore.Path = value
	case "session_store.database_url":
		cfg.SessionStore.DatabaseURL = value
	case "webhook_secret":
		cfg.WebhookSecret = value
	default:
		return false
	}
	return true
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
