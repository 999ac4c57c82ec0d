package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen the universe and print the selections",
	RunE:  runScreen,
}

func init() {
	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	s, err := open()
	if err != nil {
		return err
	}
	defer s.close()

	run, err := s.app.Screen(s.ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	sum := run.Summary
	fmt.Fprintf(out, "🔍 Screened %d symbols: %d passed, %d failed, %d skipped\n\n",
		len(sum.Passed)+len(sum.Failed), len(sum.Passed), len(sum.Failed), len(run.Skipped))

	fmt.Fprintln(out, "🎯 Selected:")
	for _, r := range sum.Selected {
		fmt.Fprintf(out, "  %s — %s\n", r.Symbol, r.Name)
		fmt.Fprintf(out, "    Score: %d | RSI: %.0f | Price: %.2f\n", r.Score, r.RSI, r.Price)
		fmt.Fprintf(out, "    Why: %s\n", strings.Join(r.Reasons, ", "))
	}
	if len(sum.Selected) == 0 {
		fmt.Fprintln(out, "  (none)")
	}

	if len(run.Skipped) > 0 {
		fmt.Fprintf(out, "\n⚠️ No data: %s\n", strings.Join(run.Skipped, ", "))
	}
	return nil
}
