// Package config provides reviewloop's layered configuration: compiled-in
// defaults, overridden by an optional YAML file, overridden by process
// environment variables.
package config

import "time"

// TriggerMode controls which event kinds the trigger filter accepts.
type TriggerMode string

const (
	TriggerModePR   TriggerMode = "pr"
	TriggerModePush TriggerMode = "push"
	TriggerModeBoth TriggerMode = "both"
)

// LLMConfig configures the rate-limited LLM gateway.
type LLMConfig struct {
	Provider        string  `yaml:"provider" mapstructure:"provider"`
	Model           string  `yaml:"model" mapstructure:"model"`
	MaxRPM          int     `yaml:"max_rpm" mapstructure:"max_rpm"`
	MinDelaySeconds float64 `yaml:"min_delay_seconds" mapstructure:"min_delay_seconds"`
	APIKey          string  `yaml:"-" mapstructure:"-"`
	BaseURL         string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// HostConfig configures the repository-host client.
type HostConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // github | gitlab
	Token    string `yaml:"-" mapstructure:"-"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Owner    string `yaml:"owner,omitempty" mapstructure:"owner"`
	Repo     string `yaml:"repo,omitempty" mapstructure:"repo"`
}

// ServerConfig configures the HTTP ingress/dashboard surface.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// SessionStoreConfig configures the durable run record.
type SessionStoreConfig struct {
	Backend     string `yaml:"backend" mapstructure:"backend"` // file | postgres
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"-" mapstructure:"-"`
}

// Config is reviewloop's fully resolved configuration.
type Config struct {
	TriggerMode                TriggerMode   `yaml:"trigger_mode" mapstructure:"trigger_mode"`
	TrivialChangeFilterEnabled bool          `yaml:"trivial_change_filter_enabled" mapstructure:"trivial_change_filter_enabled"`
	TrivialMaxLines            int           `yaml:"trivial_max_lines" mapstructure:"trivial_max_lines"`
	LightweightOnDocsOnly      bool          `yaml:"lightweight_on_docs_only" mapstructure:"lightweight_on_docs_only"`
	PostReviewOnPR             bool          `yaml:"post_review_on_pr" mapstructure:"post_review_on_pr"`
	PostAsIssue                bool          `yaml:"post_as_issue" mapstructure:"post_as_issue"`
	GroupAutomationUpdates     bool          `yaml:"group_automation_updates" mapstructure:"group_automation_updates"`
	DedupWindow                time.Duration `yaml:"dedup_window" mapstructure:"dedup_window"`
	WorkerTimeout              time.Duration `yaml:"worker_timeout" mapstructure:"worker_timeout"`
	DiffContextLines           int           `yaml:"diff_context_lines" mapstructure:"diff_context_lines"`
	DiffMaxBytes               int           `yaml:"diff_max_bytes" mapstructure:"diff_max_bytes"`
	LogFormat                  string        `yaml:"log_format" mapstructure:"log_format"`

	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Host         HostConfig         `yaml:"host" mapstructure:"host"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	SessionStore SessionStoreConfig `yaml:"session_store" mapstructure:"session_store"`

	WebhookSecret string `yaml:"-" mapstructure:"-"`
}
