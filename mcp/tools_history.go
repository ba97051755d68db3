package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"Sideload/pkg/history"

	"github.com/mark3labs/mcp-go/mcp"
)

const defaultHistoryLimit = 20

func (s *MCPServer) registerHistoryTools() {
	s.server.AddTool(
		mcp.NewTool("history_list",
			mcp.WithDescription("List recent install, connect and pair attempts, newest first"),
			mcp.WithString("kind",
				mcp.Description("Only this operation kind"),
				mcp.Enum(string(history.KindInstall), string(history.KindConnect), string(history.KindPair)),
			),
			mcp.WithString("device_id",
				mcp.Description("Only operations on this device"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of entries (default: 20)"),
			),
		),
		s.handleHistoryList,
	)
}

func historyQueryFromArgs(args map[string]any) HistoryQuery {
	q := HistoryQuery{Limit: defaultHistoryLimit}
	if kind, ok := args["kind"].(string); ok {
		q.Kind = history.Kind(strings.TrimSpace(kind))
	}
	if device, ok := args["device_id"].(string); ok {
		q.Device = strings.TrimSpace(device)
	}
	if l, ok := args["limit"].(float64); ok && l > 0 {
		q.Limit = int(l)
	}
	return q
}

func (s *MCPServer) handleHistoryList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.app.History(ctx, historyQueryFromArgs(request.GetArguments()))
	if err != nil {
		return errorResult(fmt.Sprintf("History unavailable: %v", err)), nil
	}
	if len(entries) == 0 {
		return textResult("No operations recorded"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d operation(s):\n\n", len(entries))
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		subject := e.Target
		if e.DeviceID != "" {
			subject = e.DeviceID
		}
		fmt.Fprintf(&sb, "- %s %s %s [%s, exit %s] %s\n",
			e.StartedAt.Format(time.DateTime), e.Kind, subject, status, e.ExitCode(), firstLine(e.Message))
	}

	jsonData, _ := json.MarshalIndent(entries, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(sb.String()),
			mcp.NewTextContent(fmt.Sprintf("\nJSON data:\n```json\n%s\n```", string(jsonData))),
		},
	}, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
