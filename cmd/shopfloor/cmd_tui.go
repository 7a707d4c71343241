package main

import (
	"github.com/spf13/cobra"

	"shopfloor_go/internal/tui"
)

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal scanner screen",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.Run(tui.Options{
				Scenario:  a.cfg.Scenario,
				Build:     a.build,
				Transport: a.transport,
				Timeout:   a.cfg.RequestTimeout(),
				Logger:    a.log.WithComponent("tui").Logger,
			})
		},
	}
}
