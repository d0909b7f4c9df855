package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forgepilot/reviewloop/internal/api"
	"github.com/forgepilot/reviewloop/internal/app"
	"github.com/forgepilot/reviewloop/internal/hosting"
)

// newServeCmd creates the serve command: resolves config, wires the service
// stack via app.Build, and runs the HTTP surface until SIGINT/SIGTERM.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server and dashboard API",
		Long: `Start reviewloop's HTTP server: the webhook ingress endpoint, the
read-only dashboard API, and the live event websocket.

Example:
  reviewloop serve                  # listen on 127.0.0.1:8080
  reviewloop serve --addr :9090     # listen on a custom address`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg)

			if addr == "" {
				addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			built, err := app.Build(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("build service stack: %w", err)
			}
			defer built.Store.Close()

			server := api.NewServer(addr, hosting.ProviderType(cfg.Host.Provider), []byte(cfg.WebhookSecret),
				built.Host, built.Store, built.Orc, built.Pub, logger)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				logger.Info("shutting down")
				cancel()
			}()

			logger.Info("starting reviewloop server", "addr", server.Addr())
			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default: server.host:server.port from config)")

	return cmd
}
