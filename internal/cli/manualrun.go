package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgepilot/reviewloop/internal/app"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

// newManualRunCmd triggers a run outside of a webhook delivery: useful for
// replaying a commit after a config change, or running automation against a
// branch that never went through a push/PR event.
func newManualRunCmd() *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "manual-run <commit-sha>",
		Short: "Trigger a review run for a commit outside of a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg)

			ctx := cmd.Context()
			built, err := app.Build(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("build service stack: %w", err)
			}
			defer built.Store.Close()

			ev := trigger.Event{Kind: trigger.EventPush, CommitID: args[0], Branch: branch}
			diff, err := built.Host.CommitDiff(ctx, args[0])
			if err != nil {
				return fmt.Errorf("fetch commit diff: %w", err)
			}
			ev.DiffText = diff

			// Uses the synchronous HandleEvent, not HandleEventAsync: this
			// process exits as soon as RunE returns, so there is no server
			// process left alive to own a background goroutine.
			run, err := built.Orc.HandleEvent(ctx, ev)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			if run == nil {
				fmt.Println("no run started (duplicate delivery)")
				return nil
			}
			fmt.Printf("run %s finished with status %s\n", run.ID, run.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "main", "branch the commit lives on")

	return cmd
}
