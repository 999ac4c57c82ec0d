package main

import (
	"fmt"
	"runtime"
	rdebug "runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.Version=..." at release time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// buildInfo returns the version fields, filling the ones not set at link
// time from the module and VCS data embedded by the Go toolchain.
func buildInfo() (version, commit, built string) {
	version, commit, built = Version, GitCommit, BuildTime

	info, ok := rdebug.ReadBuildInfo()
	if !ok {
		return version, commit, built
	}
	if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "unknown" {
				commit = s.Value
			}
		case "vcs.time":
			if built == "unknown" {
				built = s.Value
			}
		}
	}
	return version, commit, built
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		version, commit, built := buildInfo()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "twquant %s\n", version)
		fmt.Fprintf(out, "  Git commit: %s\n", commit)
		fmt.Fprintf(out, "  Build time: %s\n", built)
		fmt.Fprintf(out, "  Go version: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
