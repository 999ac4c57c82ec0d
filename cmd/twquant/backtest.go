package main

import (
	"fmt"

	"github.com/newthinker/twquant/internal/app"
	"github.com/newthinker/twquant/internal/report"
	"github.com/spf13/cobra"
)

var backtestTrades bool

var backtestCmd = &cobra.Command{
	Use:   "backtest [symbol...]",
	Short: "Backtest the RSI rebound strategy",
	Long: `Run the RSI rebound strategy over the configured history window for the
given symbols, or for the whole universe when none are given. Ledgers,
equity curves and reports are archived under runs/<run-id>/.`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().BoolVar(&backtestTrades, "trades", true, "print the trade ledger of each symbol")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	s, err := open()
	if err != nil {
		return err
	}
	defer s.close()

	run, err := s.app.Backtest(s.ctx, args)
	if err != nil {
		return err
	}

	cfg := s.app.Config()
	out := cmd.OutOrStdout()
	failed := 0
	for _, it := range run.Items {
		if it.Err != nil {
			failed++
			fmt.Fprintf(out, "📊 %s %s\n  ❌ %v\n\n", it.Symbol, cfg.NameOf(it.Symbol), it.Err)
			continue
		}
		fmt.Fprintln(out, report.FormatResult(it.Symbol, cfg.NameOf(it.Symbol), it.Result))
		if backtestTrades && len(it.Result.Trades) > 0 {
			fmt.Fprintln(out, "\n📋 Trades:")
			fmt.Fprint(out, report.FormatTrades(it.Result.Trades))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Run %s: %d symbols, %d failed, archived to %s/\n",
		run.ID, len(run.Items), failed, app.RunPath(run.ID))
	return nil
}
