// Package mcp exposes the device bridge over the Model Context Protocol so
// external AI clients can list devices, connect, pair and install packages.
package mcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"Sideload/pkg/bridge"
	"Sideload/pkg/history"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Type aliases for the outcome types handlers render.
type (
	InstallOutcome = bridge.InstallOutcome
	ConnectOutcome = bridge.ConnectOutcome
	PairOutcome    = bridge.PairOutcome
	HistoryEntry   = history.Entry
	HistoryQuery   = history.Query
)

// BridgeApp is what the MCP server needs from the application. Every call
// honours ctx so a client that goes away does not block the server.
type BridgeApp interface {
	GetAppVersion() string

	ListDevices(ctx context.Context) ([]string, error)
	Connect(ctx context.Context, address string) (ConnectOutcome, error)
	Pair(ctx context.Context, address, code string) (PairOutcome, error)
	Install(ctx context.Context, deviceID, apkPath string) (InstallOutcome, error)

	History(ctx context.Context, q HistoryQuery) ([]HistoryEntry, error)
}

// MCPServer wraps the MCP server around a BridgeApp.
type MCPServer struct {
	app       BridgeApp
	server    *server.MCPServer
	mu        sync.Mutex
	isRunning bool
}

// NewMCPServer registers every tool and resource.
func NewMCPServer(app BridgeApp) *MCPServer {
	mcpServer := server.NewMCPServer(
		"sideload",
		app.GetAppVersion(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	s := &MCPServer{
		app:    app,
		server: mcpServer,
	}

	s.registerTools()
	s.registerResources()

	return s
}

func (s *MCPServer) registerTools() {
	s.registerDeviceTools()
	s.registerAppTools()
	s.registerHistoryTools()
}

func (s *MCPServer) registerResources() {
	s.server.AddResource(
		mcp.NewResource(
			"sideload://devices",
			"Devices ready for commands",
			mcp.WithMIMEType("application/json"),
		),
		s.handleDevicesResource,
	)

	s.server.AddResource(
		mcp.NewResource(
			"sideload://history",
			"Recent install, connect and pair attempts",
			mcp.WithMIMEType("application/json"),
		),
		s.handleHistoryResource,
	)
}

// Serve speaks MCP over stdio until ctx ends or stdin closes.
func (s *MCPServer) Serve(ctx context.Context) error {
	return s.ServeIO(ctx, os.Stdin, os.Stdout)
}

// ServeIO speaks MCP over the given streams.
func (s *MCPServer) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("MCP server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	return server.NewStdioServer(s.server).Listen(ctx, in, out)
}

// IsRunning reports whether Serve is active.
func (s *MCPServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
		IsError: true,
	}
}
