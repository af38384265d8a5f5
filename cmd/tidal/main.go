// Package main implements tidal, a tiling window manager daemon. The
// daemon observes windows through the display server, keeps a tiled
// layout per workspace, and exposes a unix-socket command interface
// used by the client subcommands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	debugMode    bool
	layoutFlag   string
	noAnimations bool
	gapsOuter    float64
	gapsInner    float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tidal",
		Short: "Tiling window manager daemon",
		Long: `tidal - tiling window manager

A daemon that keeps application windows tiled: windows are assigned to
named workspaces by rules, laid out by per-workspace layout algorithms,
and moved smoothly to their targets. A unix socket exposes queries and
commands for scripting and hotkey daemons.`,
		Example: `  # Run the daemon
  tidal

  # Run without animations, custom default layout
  tidal --no-animations --layout master-stack

  # Query and control a running daemon
  tidal status
  tidal workspace switch web
  tidal focus left
  tidal layout set grid

  # Edit configuration
  tidal config edit`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&layoutFlag, "layout", "", "Default layout (overrides config)")
	rootCmd.Flags().BoolVar(&noAnimations, "no-animations", false, "Disable window animations")
	rootCmd.Flags().Float64Var(&gapsOuter, "gaps-outer", -1, "Outer gap in pixels (overrides config)")
	rootCmd.Flags().Float64Var(&gapsInner, "gaps-inner", -1, "Inner gap in pixels (overrides config)")

	rootCmd.AddCommand(clientCommands()...)
	rootCmd.AddCommand(configCommands())

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s", version, commit, date)),
	); err != nil {
		os.Exit(1)
	}
}
