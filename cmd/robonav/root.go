package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zeusync/robonav/internal/config"
)

// cli carries state shared by every subcommand.
type cli struct {
	cfgFile string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "robonav",
		Short:         "Robot navigation engine: pursue a target, optionally around generated obstacles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file (default is ./robonav.yaml)")

	root.AddCommand(
		c.newServeCmd(),
		c.newViewCmd(),
		c.newScenarioCmd(),
		c.newFieldCmd(),
	)
	return root
}

// load resolves the configuration with precedence flags > env > file >
// defaults. bindings maps config keys to flag names of cmd.
func (c *cli) load(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	v, err := config.NewViper(c.cfgFile)
	if err != nil {
		return nil, err
	}
	if err = bindFlags(v, cmd, bindings); err != nil {
		return nil, err
	}
	return config.FromViper(v)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("bind %s: no flag --%s", key, name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}
