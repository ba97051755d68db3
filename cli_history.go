package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"Sideload/pkg/history"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var historyOpts struct {
	kind   string
	device string
	limit  int
	json   bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent install, connect and pair attempts",
	Long: `List journaled operations, newest first. Entries older than
history.retention_days are pruned whenever a device command starts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(historyOpts.kind)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.History.Enabled {
			return ErrHistoryDisabled
		}

		store, err := history.Open(cfg.History.Dir, ModuleLogger("history"))
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context(), history.Query{
			Kind:   kind,
			Device: historyOpts.device,
			Limit:  historyOpts.limit,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if historyOpts.json {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, pterm.Info.Sprint("No operations recorded"))
			return nil
		}

		table, err := pterm.DefaultTable.WithHasHeader().WithData(historyTable(entries)).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, table)
		return nil
	},
}

func init() {
	flags := historyCmd.Flags()
	flags.StringVar(&historyOpts.kind, "kind", "", "only this kind (install, connect, pair)")
	flags.StringVar(&historyOpts.device, "device", "", "only operations on this device")
	flags.IntVarP(&historyOpts.limit, "limit", "n", 20, "maximum number of entries (0 for all)")
	flags.BoolVar(&historyOpts.json, "json", false, "print entries as JSON")

	rootCmd.AddCommand(historyCmd)
}

func parseKind(s string) (history.Kind, error) {
	switch k := history.Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", history.KindInstall, history.KindConnect, history.KindPair:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want install, connect or pair)", s)
	}
}

func historyTable(entries []history.Entry) pterm.TableData {
	data := pterm.TableData{{"Time", "Kind", "Subject", "Result", "Exit", "Took", "Message"}}
	for _, e := range entries {
		result := "ok"
		if !e.Success {
			result = "failed"
		}
		subject := e.Target
		if e.DeviceID != "" {
			subject = e.DeviceID
		}
		data = append(data, []string{
			e.StartedAt.Local().Format(time.DateTime),
			string(e.Kind),
			subject,
			result,
			e.ExitCode(),
			e.Duration.Round(time.Millisecond).String(),
			firstMessageLine(e.Message),
		})
	}
	return data
}

func firstMessageLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
