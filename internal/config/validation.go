package config

import "fmt"

var validTriggerModes = map[TriggerMode]bool{
	TriggerModePR:   true,
	TriggerModePush: true,
	TriggerModeBoth: true,
}

var validHostProviders = map[string]bool{"github": true, "gitlab": true}

var validStoreBackends = map[string]bool{"file": true, "postgres": true}

// Validate checks that cfg is internally consistent and has everything
// required to start the service. A non-nil error here is a configuration
// error, reported before any webhook is accepted.
func Validate(cfg *Config) error {
	if !validTriggerModes[cfg.TriggerMode] {
		return fmt.Errorf("invalid trigger_mode: %q (must be one of: pr, push, both)", cfg.TriggerMode)
	}
	if cfg.TrivialMaxLines < 0 {
		return fmt.Errorf("trivial_max_lines cannot be negative: %d", cfg.TrivialMaxLines)
	}
	if cfg.WebhookSecret == "" {
		return fmt.Errorf("webhook_secret is required (set WEBHOOK_SECRET)")
	}

	if !validHostProviders[cfg.Host.Provider] {
		return fmt.Errorf("invalid host.provider: %q (must be one of: github, gitlab)", cfg.Host.Provider)
	}
	if cfg.Host.Token == "" {
		return fmt.Errorf("host.token is required (set HOST_TOKEN)")
	}
	if cfg.Host.Owner == "" || cfg.Host.Repo == "" {
		return fmt.Errorf("host.owner and host.repo are required (set HOST_OWNER and HOST_REPO)")
	}

	if cfg.LLM.Provider == "" {
		return fmt.Errorf("llm.provider is required (set LLM_PROVIDER)")
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set LLM_API_KEY)")
	}
	if cfg.LLM.MaxRPM <= 0 {
		return fmt.Errorf("llm.max_rpm must be positive: %d", cfg.LLM.MaxRPM)
	}
	if cfg.LLM.MinDelaySeconds < 0 {
		return fmt.Errorf("llm.min_delay_seconds cannot be negative: %v", cfg.LLM.MinDelaySeconds)
	}

	if !validStoreBackends[cfg.SessionStore.Backend] {
		return fmt.Errorf("invalid session_store.backend: %q (must be one of: file, postgres)", cfg.SessionStore.Backend)
	}
	if cfg.SessionStore.Backend == "file" && cfg.SessionStore.Path == "" {
		return fmt.Errorf("session_store.path is required when session_store.backend is file")
	}
	if cfg.SessionStore.Backend == "postgres" && cfg.SessionStore.DatabaseURL == "" {
		return fmt.Errorf("session_store.database_url is required when session_store.backend is postgres (set DATABASE_URL)")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", cfg.Server.Port)
	}

	return nil
}
