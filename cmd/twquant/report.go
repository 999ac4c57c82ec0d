package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	reportNotify bool
	reportQuiet  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the weekly report",
	Long: `Screen the universe, backtest the selections against the benchmark and
save the markdown report to journal/weekly/<YYYY>-W<WW>.md.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportNotify, "notify", false, "send the report to the enabled notifiers")
	reportCmd.Flags().BoolVarP(&reportQuiet, "quiet", "q", false, "do not print the report")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := open()
	if err != nil {
		return err
	}
	defer s.close()

	run, err := s.app.WeeklyReport(s.ctx, reportNotify)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !reportQuiet {
		fmt.Fprintln(out, run.Text)
	}
	fmt.Fprintf(out, "✅ Report saved to %s\n", run.Path)
	return nil
}
