package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeusync/robonav/internal/core/observability/log"
	"github.com/zeusync/robonav/internal/injector"
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and expose it over websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.load(cmd, map[string]string{
				"server.addr":     "addr",
				"engine.seed":     "seed",
				"log.level":       "log-level",
				"engine.movement": "movement",
			})
			if err != nil {
				return err
			}

			app, err := injector.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer func() { _ = app.Logger.Sync() }()

			srv, err := injector.ProvideServer(app)
			if err != nil {
				return fmt.Errorf("initialize server: %w", err)
			}

			ctx := cmd.Context()
			if err = app.Runner.Start(ctx); err != nil {
				return err
			}
			defer app.Runner.Stop()

			app.Logger.Info("Serving", log.String("addr", cfg.Server.Addr))
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Int64("seed", 0, "obstacle field seed (0 draws a fresh one per field)")
	cmd.Flags().String("log-level", "info", "log level")
	cmd.Flags().String("movement", "direct", "movement strategy outside obstacle mode")
	return cmd
}
