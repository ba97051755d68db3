package main

import (
	"context"

	"Sideload/mcp"
	"Sideload/pkg/bridge"
	"Sideload/pkg/history"
)

// MCPBridge bridges the main App to the MCP server
type MCPBridge struct {
	app *App
}

// NewMCPBridge creates a new MCP bridge
func NewMCPBridge(app *App) *MCPBridge {
	return &MCPBridge{app: app}
}

// Implement mcp.BridgeApp interface. Each call runs as a task so an
// abandoned request stops waiting even while the bridge command finishes.

func (b *MCPBridge) GetAppVersion() string {
	return b.app.GetAppVersion()
}

func (b *MCPBridge) ListDevices(ctx context.Context) ([]string, error) {
	return bridge.Go(ctx, b.app.Refresh).Wait(ctx)
}

func (b *MCPBridge) Connect(ctx context.Context, address string) (mcp.ConnectOutcome, error) {
	return bridge.Go(ctx, func(ctx context.Context) bridge.ConnectOutcome {
		return b.app.Connect(ctx, address)
	}).Wait(ctx)
}

func (b *MCPBridge) Pair(ctx context.Context, address, code string) (mcp.PairOutcome, error) {
	return bridge.Go(ctx, func(ctx context.Context) bridge.PairOutcome {
		return b.app.Pair(ctx, address, code)
	}).Wait(ctx)
}

func (b *MCPBridge) Install(ctx context.Context, deviceID, apkPath string) (mcp.InstallOutcome, error) {
	return bridge.Go(ctx, func(ctx context.Context) bridge.InstallOutcome {
		return b.app.InstallSelected(ctx, deviceID, apkPath)
	}).Wait(ctx)
}

func (b *MCPBridge) History(ctx context.Context, q history.Query) ([]history.Entry, error) {
	return b.app.History(ctx, q)
}

var _ mcp.BridgeApp = (*MCPBridge)(nil)
