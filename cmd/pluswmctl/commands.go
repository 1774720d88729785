package main

import (
	"github.com/spf13/cobra"

	"pluswm/internal/ipc"
)

func newClientsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List managed windows, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, ipc.Request{Command: "clients"})
		},
	}
}

func newActionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action <name> [arg...]",
		Short: "Run a window manager action",
		Long: "Run an action by the name used in keybindings, for example\n" +
			"  pluswmctl action tag_view 2\n" +
			"  pluswmctl action spawn xterm -e top",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, ipc.Request{Command: "action", Args: args})
		},
	}
	// everything after the action name belongs to the action
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newFocusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focus <window>",
		Short: "Focus and raise a managed window by id (0x... or decimal)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, ipc.Request{Command: "focus", Args: args})
		},
	}
}
