package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/zeusync/robonav/internal/injector"
	"github.com/zeusync/robonav/internal/tui"
)

func (c *cli) newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Run the engine in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.load(cmd, map[string]string{
				"engine.seed":     "seed",
				"engine.movement": "movement",
			})
			if err != nil {
				return err
			}
			// Console logging would draw over the screen.
			if cfg.Log.File == "" {
				cfg.Log.Level = "fatal"
			}

			app, err := injector.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer func() { _ = app.Logger.Sync() }()

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			if err = screen.Init(); err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			defer screen.Fini()

			ctx := cmd.Context()
			if err = app.Runner.Start(ctx); err != nil {
				return err
			}
			defer app.Runner.Stop()

			return tui.New(screen, app.Engine, app.Logger).Run(ctx)
		},
	}
	cmd.Flags().Int64("seed", 0, "obstacle field seed (0 draws a fresh one per field)")
	cmd.Flags().String("movement", "direct", "movement strategy outside obstacle mode")
	return cmd
}
