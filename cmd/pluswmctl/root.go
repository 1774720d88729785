package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pluswm/internal/ipc"
	"pluswm/pkg/logger"
)

var rootCmd = newRootCmd()

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pluswmctl",
		Short:         "Control a running pluswm",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("socket", "", "control socket path (default $XDG_RUNTIME_DIR/pluswm.sock)")
	root.PersistentFlags().String("format", "text", "output format: text, json or yaml")
	root.PersistentFlags().Bool("debug", false, "log socket traffic to stderr")

	root.AddCommand(newClientsCmd(), newActionCmd(), newFocusCmd())
	return root
}

// send runs one request against the socket named by the persistent flags
// and prints the response.
func send(cmd *cobra.Command, req ipc.Request) error {
	socket, _ := cmd.Flags().GetString("socket")
	format, _ := cmd.Flags().GetString("format")
	debug, _ := cmd.Flags().GetBool("debug")

	log := logger.Nop()
	if debug {
		var err error
		log, err = logger.NewLogger(
			logger.WithWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}),
			logger.WithLevel(zerolog.DebugLevel),
		)
		if err != nil {
			return err
		}
		defer log.Close()
	}

	resp, err := ipc.SendCommand(ipc.SocketPath(socket), req, log)
	if err != nil {
		return fmt.Errorf("is pluswm running? %w", err)
	}
	if err := printResponse(cmd.OutOrStdout(), resp, format); err != nil {
		return err
	}
	if resp.Status != ipc.StatusSuccess {
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}

func printResponse(w io.Writer, resp ipc.Response, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}
		return enc.Close()
	case "text":
		return printText(w, resp)
	}
	return fmt.Errorf("unsupported format: %s (use text, json or yaml)", format)
}

func printText(w io.Writer, resp ipc.Response) error {
	if resp.Status != ipc.StatusSuccess {
		// the error itself is printed by cobra
		return nil
	}
	if resp.Clients == nil {
		_, err := fmt.Fprintln(w, resp.Message)
		return err
	}
	for _, c := range resp.Clients {
		var flags []string
		for _, f := range []struct {
			on   bool
			name string
		}{
			{c.Focused, "focused"},
			{c.Fullscreen, "fullscreen"},
			{c.Floating, "floating"},
			{c.AlwaysOnTop, "aot"},
			{c.Sticky, "sticky"},
			{c.Hidden, "hidden"},
		} {
			if f.on {
				flags = append(flags, f.name)
			}
		}
		if _, err := fmt.Fprintf(w, "%s\t%dx%d+%d+%d\ttags=%#x\t%s\n",
			c.Window, c.Width, c.Height, c.X, c.Y, c.Tags, strings.Join(flags, ",")); err != nil {
			return err
		}
	}
	return nil
}
