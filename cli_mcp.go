package main

import (
	"Sideload/mcp"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the bridge to MCP clients over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing device
listing, install, connect, pair and the operation journal. Logs go to
stderr. Changes to the config file are applied while running.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(quietNotifier{}, nil)
		if err != nil {
			return err
		}
		defer app.Close()
		watchConfig(app)

		LogInfo("mcp").Str("version", Version).Msg("Serving MCP over stdio")
		return mcp.NewMCPServer(NewMCPBridge(app)).ServeIO(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
