package main

import (
	"context"
	"fmt"
	"io"

	"Sideload/pkg/bridge"

	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect [ip:port]",
	Short: "Connect to a device over the network",
	Long: `Connect to a device that has network debugging enabled. Without an
address you are asked for one; an empty answer cancels.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newTerminalApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		var out bridge.ConnectOutcome
		if len(args) == 0 {
			out = app.ConnectInteractive(ctx)
		} else {
			out, err = waitWithSpinner(ctx, "Connecting to "+args[0], func(ctx context.Context) bridge.ConnectOutcome {
				return app.Connect(ctx, args[0])
			})
			if err != nil {
				return err
			}
		}
		if out.Cancelled {
			return nil
		}

		printReady(cmd.OutOrStdout(), out.Devices)
		if !out.OK() {
			return errOperationFailed
		}
		return nil
	},
}

var pairCmd = &cobra.Command{
	Use:   "pair [ip:port] [code]",
	Short: "Pair with a device using wireless debugging",
	Long: `Pair with a device using the address and code shown under
"Pair device with pairing code" on the device. Missing values are asked
for one at a time; an empty answer cancels.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newTerminalApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		var out bridge.PairOutcome
		switch len(args) {
		case 0:
			out = app.PairInteractive(ctx)
		case 1:
			code, ok := app.prompter.Ask(ctx, bridge.PairCodePrompt)
			if !ok {
				LogUserAction(ActionCancel, "", map[string]interface{}{"flow": "pair", "at": bridge.PairAwaitingCode.String()})
				return nil
			}
			out, err = pairWithSpinner(ctx, app, args[0], code)
		default:
			out, err = pairWithSpinner(ctx, app, args[0], args[1])
		}
		if err != nil {
			return err
		}
		if out.Cancelled {
			return nil
		}

		printReady(cmd.OutOrStdout(), out.Devices)
		if !out.OK() {
			return errOperationFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(pairCmd)
}

func pairWithSpinner(ctx context.Context, app *App, target, code string) (bridge.PairOutcome, error) {
	return waitWithSpinner(ctx, "Pairing with "+target, func(ctx context.Context) bridge.PairOutcome {
		return app.Pair(ctx, target, code)
	})
}

// printReady shows the device list that replaced the displayed one.
func printReady(w io.Writer, devices []string) {
	fmt.Fprintln(w, "Ready devices:")
	_ = printDevices(w, devices, false)
}
