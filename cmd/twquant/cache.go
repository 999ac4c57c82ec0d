package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheKeepDays int

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the price history cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached history older than --keep days",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}
		defer s.close()

		n, err := s.app.PruneCache(s.ctx, cacheKeepDays)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached files\n", n)
		return nil
	},
}

func init() {
	cachePruneCmd.Flags().IntVar(&cacheKeepDays, "keep", 7, "days of cache to keep")
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
