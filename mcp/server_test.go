package mcp

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNewMCPServer(t *testing.T) {
	mock := NewMockBridgeApp()
	server := NewMCPServer(mock)

	if server == nil {
		t.Fatal("NewMCPServer should not return nil")
	}
	if server.server == nil {
		t.Error("server.server (underlying MCP server) should not be nil")
	}
	if !mock.WasMethodCalled("GetAppVersion") {
		t.Error("GetAppVersion should be called during server creation")
	}
}

func TestMockBridgeApp_Interface(t *testing.T) {
	var _ BridgeApp = (*MockBridgeApp)(nil)
}

func TestMCPServer_IsRunning(t *testing.T) {
	server := NewMCPServer(NewMockBridgeApp())
	if server.IsRunning() {
		t.Error("Server should not be running initially")
	}
}

func TestMCPServer_ServeIOStopsOnEOF(t *testing.T) {
	server := NewMCPServer(NewMockBridgeApp())

	var out strings.Builder
	done := make(chan error, 1)
	go func() {
		done <- server.ServeIO(context.Background(), strings.NewReader(""), &out)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ServeIO did not return on closed input")
	}
	if server.IsRunning() {
		t.Error("Server should not be running after ServeIO returns")
	}
}
