package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeusync/robonav/internal/core/level"
)

func (c *cli) newFieldCmd() *cobra.Command {
	var seed int64
	var clearSpawn bool
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Print a generated obstacle field and its fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.load(cmd, map[string]string{
				"engine.field_width":  "width",
				"engine.field_height": "height",
				"engine.spawn_x":      "spawn-x",
				"engine.spawn_y":      "spawn-y",
			})
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Engine.Seed
			}
			if seed == 0 {
				seed = rand.Int64()
			}

			f := level.NewGenerator(cfg.Noise).GenerateWithSeed(cfg.Engine.FieldWidth, cfg.Engine.FieldHeight, seed)
			if clearSpawn {
				x, y := int(cfg.Engine.SpawnX), int(cfg.Engine.SpawnY)
				if f.InBounds(x, y) {
					f.RemoveObstacle(x, y)
				}
			}

			out := cmd.OutOrStdout()
			_, err = fmt.Fprintf(out, "%s\nseed=%d obstacles=%d fingerprint=%s\n",
				strings.Join(f.Rows(), "\n"), seed, f.Obstacles(), level.FormatFingerprint(f.Fingerprint()))
			return err
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "noise seed (0 uses the configured seed or a random one)")
	cmd.Flags().Int("width", 50, "field width")
	cmd.Flags().Int("height", 50, "field height")
	cmd.Flags().Float64("spawn-x", 2, "spawn x")
	cmd.Flags().Float64("spawn-y", 2, "spawn y")
	cmd.Flags().BoolVar(&clearSpawn, "clear-spawn", true, "remove the obstacle under the spawn cell")
	return cmd
}
