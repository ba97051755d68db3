package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *MCPServer) registerDeviceTools() {
	s.server.AddTool(
		mcp.NewTool("device_list",
			mcp.WithDescription("List devices that are ready for commands (unauthorized and offline devices are left out)"),
		),
		s.handleDeviceList,
	)

	s.server.AddTool(
		mcp.NewTool("device_connect",
			mcp.WithDescription("Connect to a device over the network"),
			mcp.WithString("address",
				mcp.Required(),
				mcp.Description("Device address in format IP:port (e.g., 192.168.1.100:5555)"),
			),
		),
		s.handleDeviceConnect,
	)

	s.server.AddTool(
		mcp.NewTool("device_pair",
			mcp.WithDescription("Pair with a device using wireless debugging"),
			mcp.WithString("address",
				mcp.Required(),
				mcp.Description("Device pairing address (IP:port), e.g. 192.168.1.5:4711"),
			),
			mcp.WithString("code",
				mcp.Required(),
				mcp.Description("Pairing code shown on the device"),
			),
		),
		s.handleDevicePair,
	)
}

func (s *MCPServer) handleDeviceList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := s.app.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if len(devices) == 0 {
		return textResult("No devices ready"), nil
	}

	result := fmt.Sprintf("Found %d device(s):\n\n", len(devices))
	for i, id := range devices {
		result += fmt.Sprintf("%d. %s\n", i+1, id)
	}

	jsonData, _ := json.MarshalIndent(devices, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(result),
			mcp.NewTextContent(fmt.Sprintf("\nJSON data:\n```json\n%s\n```", string(jsonData))),
		},
	}, nil
}

func (s *MCPServer) handleDeviceConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	address, _ := args["address"].(string)
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("address is required")
	}

	out, err := s.app.Connect(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	text := fmt.Sprintf("%s\n\nReady devices: %s", out.Message, formatDevices(out.Devices))
	if !out.OK() {
		return errorResult(text), nil
	}
	return textResult(text), nil
}

func (s *MCPServer) handleDevicePair(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	address, _ := args["address"].(string)
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("address is required")
	}
	code, _ := args["code"].(string)
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("code is required")
	}

	out, err := s.app.Pair(ctx, address, code)
	if err != nil {
		return nil, fmt.Errorf("failed to pair: %w", err)
	}

	text := fmt.Sprintf("%s\n\nReady devices: %s", out.Message, formatDevices(out.Devices))
	if !out.OK() {
		return errorResult(text), nil
	}
	return textResult(text), nil
}

func formatDevices(devices []string) string {
	if len(devices) == 0 {
		return "none"
	}
	return strings.Join(devices, ", ")
}
