// Package cli implements the reviewloop command-line interface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgepilot/reviewloop/internal/config"
)

var cfgFile string

// rootCmd is the base command when reviewloop is called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "reviewloop",
	Short: "Webhook-driven code review and documentation automation",
	Long: `reviewloop listens for GitHub/GitLab push and pull-request webhooks,
filters out trivial changes, runs LLM-assisted code review and
documentation-update tasks, and opens a grouped automation PR with the
results.

Quick start:
  reviewloop serve              Start the webhook server
  reviewloop status             Watch recent runs live
  reviewloop history            List recent runs
  reviewloop manual-run <sha>   Trigger a run outside of a webhook`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: none, compiled-in defaults + env vars)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newManualRunCmd())
	rootCmd.AddCommand(newStatusCmd())
}

// loadConfig resolves config.Config from the --config flag, the way every
// subcommand that talks to the store/host/LLM stack needs it.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger builds the process logger per cfg.LogFormat.
func newLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	} else {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	return slog.New(handler)
}
