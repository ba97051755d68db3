package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *MCPServer) registerAppTools() {
	s.server.AddTool(
		mcp.NewTool("app_install",
			mcp.WithDescription("Install an APK on a device, replacing an existing installation of the same package"),
			mcp.WithString("device_id",
				mcp.Required(),
				mcp.Description("Device ID as returned by device_list"),
			),
			mcp.WithString("apk_path",
				mcp.Required(),
				mcp.Description("Local path to the APK file"),
			),
		),
		s.handleAppInstall,
	)
}

func (s *MCPServer) handleAppInstall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	deviceID, _ := args["device_id"].(string)
	if strings.TrimSpace(deviceID) == "" {
		return nil, fmt.Errorf("device_id is required")
	}
	apkPath, _ := args["apk_path"].(string)
	if strings.TrimSpace(apkPath) == "" {
		return nil, fmt.Errorf("apk_path is required")
	}

	out, err := s.app.Install(ctx, deviceID, apkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to install: %w", err)
	}

	// An install can change device state, so report a fresh list like
	// device_connect and device_pair do.
	ready := "unknown"
	if devices, err := s.app.ListDevices(ctx); err == nil {
		ready = formatDevices(devices)
	}

	if !out.Success {
		return errorResult(fmt.Sprintf("Install failed on %s:\n%s\n\nReady devices: %s", deviceID, out.Message, ready)), nil
	}
	return textResult(fmt.Sprintf("%s\n\nReady devices: %s", out.Message, ready)), nil
}
