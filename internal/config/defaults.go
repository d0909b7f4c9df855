package config

import "time"

// Defaults returns reviewloop's compiled-in configuration, the bottom layer
// of defaults < file < environment.
func Defaults() *Config {
	return &Config{
		TriggerMode:                TriggerModeBoth,
		TrivialChangeFilterEnabled: true,
		TrivialMaxLines:            10,
		LightweightOnDocsOnly:      false,
		PostReviewOnPR:             true,
		PostAsIssue:                false,
		GroupAutomationUpdates:     true,
		DedupWindow:                300 * time.Second,
		WorkerTimeout:              10 * time.Minute,
		DiffContextLines:           20,
		DiffMaxBytes:               200_000,
		LogFormat:                  "text",
		LLM: LLMConfig{
			MaxRPM:          10,
			MinDelaySeconds: 2.0,
		},
		Host: HostConfig{
			Provider: "github",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		SessionStore: SessionStoreConfig{
			Backend: "file",
			Path:    "./reviewloop-state.json",
		},
	}
}
