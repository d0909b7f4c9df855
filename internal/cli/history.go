package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgepilot/reviewloop/internal/config"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/sessionstore/filestore"
	"github.com/forgepilot/reviewloop/internal/sessionstore/pgstore"
)

// newHistoryCmd lists recent runs directly from the session store, for use
// on a machine that has the store on disk/reachable without the HTTP server
// running.
func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the session store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit, time.Time{}, sessionstore.ListFilter{})
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tCOMMIT\tBRANCH\tPR\tTYPE\tSTATUS\tSTARTED")
			for _, run := range runs {
				pr := "-"
				if run.PRNumber != 0 {
					pr = fmt.Sprintf("#%d", run.PRNumber)
				}
				commit := run.CommitID
				if len(commit) > 10 {
					commit = commit[:10]
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					run.ID, commit, run.Branch, pr, run.RunType, run.Status, run.StartedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")

	return cmd
}

// openStore opens the session store backend named by cfg, the same
// switch app.Build uses, so CLI commands that read the store directly
// agree with what the server itself would open.
func openStore(ctx context.Context, cfg *config.Config) (sessionstore.Store, error) {
	switch cfg.SessionStore.Backend {
	case "postgres":
		return pgstore.Open(ctx, cfg.SessionStore.DatabaseURL, 30*time.Second)
	case "file", "":
		return filestore.Open(cfg.SessionStore.Path, 30*time.Second)
	default:
		return nil, fmt.Errorf("unknown session_store.backend %q", cfg.SessionStore.Backend)
	}
}
