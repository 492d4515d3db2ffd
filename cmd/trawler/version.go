package main

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/aretw0/trawler"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of trawler",
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		printVersion(cmd.OutOrStdout(), info)
	},
}

// printVersion writes the release version, plus the module version and VCS
// revision stamped by the Go toolchain when they are known.
func printVersion(w io.Writer, info *debug.BuildInfo) {
	fmt.Fprintf(w, "trawler version %s\n", strings.TrimSpace(trawler.Version))
	if info == nil {
		return
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		fmt.Fprintf(w, "module %s %s\n", info.Main.Path, v)
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			fmt.Fprintf(w, "revision %s\n", s.Value)
		}
	}
	if info.GoVersion != "" {
		fmt.Fprintf(w, "built with %s\n", info.GoVersion)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
