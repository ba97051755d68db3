package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"Sideload/pkg/bridge"
	"Sideload/pkg/config"
	"Sideload/pkg/history"

	"github.com/rs/zerolog"
)

// Integration tests for MCP Bridge
// These run the real App against a scripted bridge and a temp journal.

func TestMCPBridge_ListDevices(t *testing.T) {
	app, _, _ := newTestApp(t, map[string]bridge.CommandResult{
		"devices": {Stdout: listing},
	}, nil)
	b := NewMCPBridge(app)

	devices, err := b.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 1 || devices[0] != "ABC123" {
		t.Errorf("devices = %v", devices)
	}
	if b.GetAppVersion() != "test" {
		t.Errorf("GetAppVersion() = %q", b.GetAppVersion())
	}
}

func TestMCPBridge_InstallIsJournaled(t *testing.T) {
	app, _, _ := newTestApp(t, map[string]bridge.CommandResult{
		"-s ABC123 install -r /tmp/app.apk": {Stdout: "Success\n"},
	}, nil)
	b := NewMCPBridge(app)
	ctx := context.Background()

	out, err := b.Install(ctx, "ABC123", "/tmp/app.apk")
	if err != nil || !out.Success {
		t.Fatalf("Install = %+v, %v", out, err)
	}

	entries, err := b.History(ctx, history.Query{Kind: history.KindInstall})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].DeviceID != "ABC123" {
		t.Errorf("history = %+v", entries)
	}
}

func TestMCPBridge_PairOmitsCode(t *testing.T) {
	app, _, _ := newTestApp(t, map[string]bridge.CommandResult{
		"pair 192.168.1.5:4711 482913": {Stdout: "Successfully paired to 192.168.1.5:4711 [guid=adb-X]"},
		"devices":                      {Stdout: listing},
	}, nil)
	b := NewMCPBridge(app)
	ctx := context.Background()

	out, err := b.Pair(ctx, "192.168.1.5:4711", "482913")
	if err != nil || !out.OK() {
		t.Fatalf("Pair = %+v, %v", out, err)
	}
	entries, _ := b.History(ctx, history.Query{Kind: history.KindPair})
	if len(entries) != 1 {
		t.Fatalf("history = %+v", entries)
	}
	if string(entries[0].Details) == "" || entries[0].Detail("argv.2").Exists() {
		t.Errorf("pairing code leaked into details %s", entries[0].Details)
	}
}

func TestMCPBridge_ConnectStopsWaitingOnCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	app := NewApp(config.Default(), blockingClient(t, release), nil, nil, nil, "test")
	b := NewMCPBridge(app)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Connect(ctx, "10.0.0.2:5555")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

// blockingClient returns a client whose commands hang until release closes.
func blockingClient(t *testing.T, release <-chan struct{}) *bridge.Client {
	t.Helper()
	client, err := bridge.New(bridge.Config{
		Path:   "/opt/bridge/adb",
		Logger: zerolog.Nop(),
		Runner: bridge.RunnerFunc(func(ctx context.Context, argv []string) bridge.CommandResult {
			<-release
			return bridge.CommandResult{}
		}),
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}
