package cli

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"metaql/internal/app"
	"metaql/internal/config"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serves the rewrite, completion and entity endpoints. Settings come from
the environment (LISTEN_ADDR, RATE_LIMIT_RPS, CORS_ALLOWED_ORIGINS, ...);
--catalog, --database, --log-level and --listen override them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			if opts.catalogPath != "" {
				cfg.CatalogPath = opts.catalogPath
			}
			if opts.database != "" {
				cfg.MainDatabase = opts.database
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
			if listen != "" {
				cfg.ListenAddr = listen
			}

			logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			for _, w := range cfg.Warnings {
				logger.Warn(w)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, app.Deps{Cfg: cfg, Logger: logger})
			if err != nil {
				return err
			}
			return a.Serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default $LISTEN_ADDR or :8080)")

	return cmd
}
