package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	scenario   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "shopfloor",
		Short:         "Scan driven warehouse client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVarP(&flags.scenario, "scenario", "s", "", "scenario to activate, overrides SHOPFLOOR_SCENARIO")

	cmd.AddCommand(
		newTUICmd(flags),
		newServeCmd(flags),
		newReplayCmd(flags),
		newClassifyCmd(),
		newScenariosCmd(),
	)
	return cmd
}
