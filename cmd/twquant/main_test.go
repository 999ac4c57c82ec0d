package main

import (
	"testing"
)

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"backtest", "screen", "report", "signals", "cache", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == rootCmd {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, tt := range []struct{ name, short string }{{"config", "c"}, {"debug", "d"}} {
		f := rootCmd.PersistentFlags().Lookup(tt.name)
		if f == nil {
			t.Fatalf("flag --%s missing", tt.name)
		}
		if f.Shorthand != tt.short {
			t.Errorf("--%s shorthand = %q, want %q", tt.name, f.Shorthand, tt.short)
		}
	}
}

func TestCachePrune_KeepDefault(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"cache", "prune"})
	if err != nil {
		t.Fatalf("cache prune not registered: %v", err)
	}
	if got := cmd.Flags().Lookup("keep").DefValue; got != "7" {
		t.Errorf("--keep default = %s, want 7", got)
	}
}
