package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tidalwm/tidal/internal/ipc"
)

// clientCommands returns the subcommands that talk to a running daemon
// over its unix socket.
func clientCommands() []*cobra.Command {
	return []*cobra.Command{
		statusCommand(),
		screensCommand(),
		windowsCommand(),
		workspaceCommand(),
		layoutCommand(),
		focusCommand(),
		swapCommand(),
		resizeCommand(),
		balanceCommand(),
		presetCommand(),
		moveCommand(),
		floatCommand(),
		reloadCommand(),
		retryCommand(),
		watchCommand(),
	}
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ipc.NewClient().Status()
			if err != nil {
				return err
			}
			tiling := "yes"
			if !status.Tiling {
				tiling = "no (permission missing, run 'tidal retry')"
			}
			fmt.Printf("Version:  %s\n", status.Version)
			fmt.Printf("Tiling:   %s\n", tiling)
			fmt.Printf("Windows:  %d\n", status.WindowCount)
			fmt.Printf("Screens:  %d\n", status.ScreenCount)
			fmt.Printf("Uptime:   %s\n", formatUptime(status.UptimeSeconds))
			return nil
		},
	}
}

func screensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "screens",
		Short: "List connected screens",
		RunE: func(cmd *cobra.Command, args []string) error {
			screens, err := ipc.NewClient().Screens()
			if err != nil {
				return err
			}
			for _, sc := range screens {
				fmt.Printf("%d: %gx%g at %g,%g (work area %gx%g, %.0f Hz)\n",
					sc.ID, sc.Frame.W, sc.Frame.H, sc.Frame.X, sc.Frame.Y,
					sc.WorkFrame.W, sc.WorkFrame.H, sc.RefreshRate)
			}
			return nil
		},
	}
}

func windowsCommand() *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List managed windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			windows, err := ipc.NewClient().Windows(workspace)
			if err != nil {
				return err
			}
			for _, w := range windows {
				flags := ""
				if w.Floating {
					flags += " [floating]"
				}
				if w.Minimized {
					flags += " [minimized]"
				}
				fmt.Printf("%d: %s - %s (%s)%s\n", w.ID, w.App, w.Title, w.Workspace, flags)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", "Only windows on this workspace")
	return cmd
}

func workspaceCommand() *cobra.Command {
	workspaceCmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage workspaces",
	}

	var screen uint32
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspaces, err := ipc.NewClient().Workspaces(screen)
			if err != nil {
				return err
			}
			for _, ws := range workspaces {
				visibility := "hidden"
				if ws.Screen != 0 {
					visibility = fmt.Sprintf("screen %d", ws.Screen)
				}
				fmt.Printf("%s: %s, %d windows (%s)\n", ws.Name, ws.Layout, len(ws.Windows), visibility)
			}
			return nil
		},
	}
	listCmd.Flags().Uint32Var(&screen, "screen", 0, "Only workspaces visible on this screen")

	switchCmd := &cobra.Command{
		Use:   "switch <name>",
		Short: "Show a workspace on its screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ipc.NewClient().SwitchWorkspace(args[0])
		},
	}

	var backward bool
	cycleCmd := &cobra.Command{
		Use:   "cycle",
		Short: "Switch to the next workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ipc.NewClient().CycleWorkspace(backward)
		},
	}
	cycleCmd.Flags().BoolVar(&backward, "backward", false, "Cycle in reverse order")

	sendCmd := &cobra.Command{
		Use:   "send <name> <screen>",
		Short: "Send a workspace to a screen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			screenID, err := parseID(args[1])
			if err != nil {
				return fmt.Errorf("invalid screen id %q", args[1])
			}
			return ipc.NewClient().SendWorkspaceToScreen(args[0], screenID)
		},
	}

	workspaceCmd.AddCommand(listCmd, switchCmd, cycleCmd, sendCmd)
	return workspaceCmd
}

func layoutCommand() *cobra.Command {
	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "Manage the focused workspace's layout",
	}

	setCmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Set the layout",
		Long: `Set the layout of the focused workspace

Available layouts: split-auto, split-horizontal, split-vertical,
master-stack, dwindle, grid, monocle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ipc.NewClient().SetLayout(args[0])
		},
	}

	cycleCmd := &cobra.Command{
		Use:   "cycle",
		Short: "Cycle to the next layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ipc.NewClient().CycleLayout()
		},
	}

	layoutCmd.AddCommand(setCmd, cycleCmd)
	return layoutCmd
}

func focusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "focus <direction>",
		Short: "Focus the window in a direction",
		Long: `Focus the window in a direction relative to the focused window

Directions: left, right, up, down. Use next/prev to cycle through the
workspace's windows in order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ipc.NewClient().Focus(args[0])
		},
	}
}

func swapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "swap <direction>",
		Short: "Swap the focused window in a direction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ipc.NewClient().Swap(args[0])
		},
	}
}

func resizeCommand() *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "resize <delta>",
		Short: "Nudge a split point of the focused workspace",
		Long: `Nudge a split point of the focused workspace

The delta is a fraction of the workspace size, e.g. 0.05 grows the
first region by five percent and -0.05 shrinks it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid delta %q", args[0])
			}
			return ipc.NewClient().ResizeSplit(index, delta)
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Split point index")
	return cmd
}

func balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Reset the focused workspace's splits to equal sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ipc.NewClient().Balance()
		},
	}
}

func presetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preset <name>",
		Short: "Snap the focused floating window to a preset frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ipc.NewClient().ApplyPreset(args[0])
		},
	}
}

func moveCommand() *cobra.Command {
	var window uint32
	var workspace string
	var screen uint32
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move a window to a workspace or screen",
		Example: `  # Focused window to workspace "web"
  tidal move --to-workspace web

  # Specific window to screen 2
  tidal move --window 41943043 --to-screen 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case workspace != "" && screen != 0:
				return fmt.Errorf("use either --to-workspace or --to-screen, not both")
			case workspace != "":
				return ipc.NewClient().MoveWindowToWorkspace(window, workspace)
			case screen != 0:
				return ipc.NewClient().MoveWindowToScreen(window, screen)
			default:
				return fmt.Errorf("one of --to-workspace or --to-screen is required")
			}
		},
	}
	cmd.Flags().Uint32Var(&window, "window", 0, "Window id (focused window if omitted)")
	cmd.Flags().StringVar(&workspace, "to-workspace", "", "Target workspace name")
	cmd.Flags().Uint32Var(&screen, "to-screen", 0, "Target screen id")
	return cmd
}

func floatCommand() *cobra.Command {
	var window uint32
	cmd := &cobra.Command{
		Use:   "float",
		Short: "Toggle floating for a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ipc.NewClient().ToggleFloating(window)
		},
	}
	cmd.Flags().Uint32Var(&window, "window", 0, "Window id (focused window if omitted)")
	return cmd
}

func reloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the daemon's configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ipc.NewClient().Reload(); err != nil {
				return err
			}
			fmt.Println("Configuration reload requested")
			return nil
		},
	}
}

func retryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Retry display initialization",
		Long: `Retry display initialization

Useful after granting display permission while the daemon was already
running in degraded mode.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ipc.NewClient().RetryInit(); err != nil {
				return err
			}
			fmt.Println("Tiling initialized")
			return nil
		},
	}
}

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream layout and focus events",
		Long: `Stream layout and focus events from the daemon

Prints one line per event until interrupted. Useful for driving status
bars and external border helpers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, stop, err := ipc.NewClient().Subscribe()
			if err != nil {
				return err
			}
			defer stop()

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return fmt.Errorf("daemon closed the connection")
					}
					if len(ev.Moved) > 0 {
						fmt.Printf("%s focused=%d moved=%v\n", ev.Kind, ev.Focused, ev.Moved)
					} else {
						fmt.Printf("%s focused=%d\n", ev.Kind, ev.Focused)
					}
				case <-sigc:
					return nil
				}
			}
		},
	}
}

func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func formatUptime(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
