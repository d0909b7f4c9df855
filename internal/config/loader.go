package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Load resolves the final Config: compiled-in defaults, overridden by the
// YAML file at path (if non-empty and present), overridden by process
// environment variables. A missing path is not an error; a present but
// unparsable file is.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFile(path, cfg); err != nil {
				return nil, fmt.Errorf("load config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	ApplyEnvVars(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile reads and parses a YAML config file via viper, the way the rest
// of the stack's CLI layer reads its own config, then decodes it onto dst.
// Only the keys present in the file are written, so every other field keeps
// its default, and an explicit false or zero in the file still overrides.
func loadFile(path string, dst *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(dst)
}
