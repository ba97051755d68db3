package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"Sideload/pkg/bridge"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var devicesJSON bool

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"ls"},
	Short:   "List devices ready for commands",
	Long: `List devices the bridge reports as ready. Unauthorized and offline
devices are left out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newTerminalApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		devices, err := waitWithSpinner(cmd.Context(), "Listing devices", app.Refresh)
		if err != nil {
			return err
		}
		return printDevices(cmd.OutOrStdout(), devices, devicesJSON)
	},
}

var installCmd = &cobra.Command{
	Use:   "install <device> <apk>",
	Short: "Install an APK on a device",
	Long: `Install an APK on the given device, replacing an existing installation
of the same package. The device list is refreshed afterwards.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newTerminalApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var device, apk string
		if len(args) > 0 {
			device = args[0]
		}
		if len(args) > 1 {
			apk = args[1]
		}

		ctx := cmd.Context()
		out, err := waitWithSpinner(ctx, "Installing "+apk, func(ctx context.Context) bridge.InstallOutcome {
			return app.InstallSelected(ctx, device, apk)
		})
		if err != nil {
			return err
		}
		if strings.TrimSpace(device) == "" || strings.TrimSpace(apk) == "" {
			// Rejected before a command ran; nothing changed on the devices.
			return errOperationFailed
		}

		devices, err := waitWithSpinner(ctx, "Refreshing devices", app.Refresh)
		if err != nil {
			return err
		}
		if err := printDevices(cmd.OutOrStdout(), devices, false); err != nil {
			return err
		}
		if !out.Success {
			return errOperationFailed
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report devices as they appear and disappear",
	Long: `Poll the device list every watch.interval_ms and print "+ <id>" for each
device that becomes ready and "- <id>" for each that goes away. Stops on
Ctrl-C. Changes to the config file are applied while running.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newTerminalApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		watchConfig(app)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, pterm.Info.Sprint("Watching for devices (Ctrl-C to stop)"))
		app.Watch(cmd.Context(), func(change bridge.DeviceChange) {
			for _, id := range change.Added {
				fmt.Fprintln(out, "+ "+id)
			}
			for _, id := range change.Removed {
				fmt.Fprintln(out, "- "+id)
			}
		})
		return nil
	},
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesJSON, "json", false, "print the list as JSON")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(watchCmd)
}

// printDevices writes one identifier per line, or a JSON array.
func printDevices(w io.Writer, devices []string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(devices)
	}
	if len(devices) == 0 {
		fmt.Fprintln(w, pterm.Info.Sprint("No devices ready"))
		return nil
	}
	for _, id := range devices {
		fmt.Fprintln(w, id)
	}
	return nil
}
