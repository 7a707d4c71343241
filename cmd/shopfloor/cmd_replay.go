package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shopfloor_go/internal/shopfloor/replay"
)

func newReplayCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <script>",
		Short: "Play a scan script against the backend and check expected states",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			steps, stats := replay.Parse(content)
			stats.FileName = args[0]
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "script: %s lines=%d valid=%d invalid=%d\n",
				stats.FileName, stats.TotalLines, stats.ValidLines, stats.InvalidLines)
			for _, le := range stats.Errors {
				fmt.Fprintf(out, "  line %d: %s\n", le.Line, le.Err)
			}

			a, err := newApp(cmd.Context(), flags, false)
			if err != nil {
				return err
			}
			defer a.Close()

			r := &replay.Runner{
				Build:     a.build,
				Transport: a.transport,
				Logger:    a.log.WithComponent("replay").Logger,
			}
			report, err := r.Run(cmd.Context(), a.cfg.Scenario, steps)
			for _, res := range report.Results {
				mark := "ok  "
				if res.Failed {
					mark = "FAIL"
				}
				line := fmt.Sprintf("%s %3d %-6s %-24s -> %s", mark, res.Step.Line, res.Step.Kind, res.Step.Arg, res.State)
				if len(res.Outcomes) > 0 {
					line += " [" + strings.Join(res.Outcomes, ", ") + "]"
				}
				if res.Error != "" {
					line += " error=" + res.Error
				} else if res.Message != "" {
					line += " message=" + res.Message
				}
				fmt.Fprintln(out, line)
			}
			if err != nil {
				return err
			}
			if !report.Passed() {
				return fmt.Errorf("%d step(s) failed", report.Failed)
			}
			return nil
		},
	}
}
