package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/forgepilot/reviewloop/internal/tui"
)

// newStatusCmd watches recent runs live by polling a running server's
// dashboard API, the same API a browser-based dashboard would use.
func newStatusCmd() *cobra.Command {
	var addr string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Watch recent runs live",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := loadConfig()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				addr = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
			}

			model := tui.NewStatusModel(addr, interval)
			_, err := tea.NewProgram(model).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "base URL of a running reviewloop server (default: server.host:server.port from config)")
	cmd.Flags().DurationVar(&interval, "interval", 3*time.Second, "refresh interval")

	return cmd
}
