package main

import (
	"fmt"

	"github.com/newthinker/twquant/internal/notifier"
	"github.com/spf13/cobra"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Evaluate live strategies on the latest bars and notify",
	RunE:  runSignals,
}

func init() {
	rootCmd.AddCommand(signalsCmd)
}

func runSignals(cmd *cobra.Command, args []string) error {
	s, err := open()
	if err != nil {
		return err
	}
	defer s.close()

	run, err := s.app.Signals(s.ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(run.Generated) == 0 {
		fmt.Fprintln(out, "No signals today.")
		return nil
	}
	for _, sig := range run.Generated {
		fmt.Fprintln(out, notifier.FormatSignal(sig))
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d signals, %d sent to notifiers\n", len(run.Generated), len(run.Routed))
	return nil
}
