package mcp

import (
	"context"
	"errors"
	"sync"

	"Sideload/pkg/bridge"
)

// MockCall records a method call for verification
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockBridgeApp is a mock implementation of BridgeApp for testing
type MockBridgeApp struct {
	mu    sync.Mutex
	Calls []MockCall

	ListDevicesResult []string
	ListDevicesError  error
	ConnectResult     ConnectOutcome
	ConnectError      error
	PairResult        PairOutcome
	PairError         error
	InstallResult     InstallOutcome
	InstallError      error
	HistoryResult     []HistoryEntry
	HistoryError      error

	AppVersion string
}

// NewMockBridgeApp creates a MockBridgeApp with empty results
func NewMockBridgeApp() *MockBridgeApp {
	return &MockBridgeApp{
		Calls:             make([]MockCall, 0),
		AppVersion:        "1.0.0-test",
		ListDevicesResult: []string{},
		HistoryResult:     []HistoryEntry{},
	}
}

func (m *MockBridgeApp) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCalls returns all recorded calls
func (m *MockBridgeApp) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall{}, m.Calls...)
}

// GetLastCall returns the last recorded call
func (m *MockBridgeApp) GetLastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	return &m.Calls[len(m.Calls)-1]
}

// WasMethodCalled checks if a method was called
func (m *MockBridgeApp) WasMethodCalled(method string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.Calls {
		if call.Method == method {
			return true
		}
	}
	return false
}

func (m *MockBridgeApp) GetAppVersion() string {
	m.recordCall("GetAppVersion")
	return m.AppVersion
}

func (m *MockBridgeApp) ListDevices(ctx context.Context) ([]string, error) {
	m.recordCall("ListDevices")
	return m.ListDevicesResult, m.ListDevicesError
}

func (m *MockBridgeApp) Connect(ctx context.Context, address string) (ConnectOutcome, error) {
	m.recordCall("Connect", address)
	return m.ConnectResult, m.ConnectError
}

func (m *MockBridgeApp) Pair(ctx context.Context, address, code string) (PairOutcome, error) {
	m.recordCall("Pair", address, code)
	return m.PairResult, m.PairError
}

func (m *MockBridgeApp) Install(ctx context.Context, deviceID, apkPath string) (InstallOutcome, error) {
	m.recordCall("Install", deviceID, apkPath)
	return m.InstallResult, m.InstallError
}

func (m *MockBridgeApp) History(ctx context.Context, q HistoryQuery) ([]HistoryEntry, error) {
	m.recordCall("History", q)
	return m.HistoryResult, m.HistoryError
}

// SetupWithDevices sets the ready device list
func (m *MockBridgeApp) SetupWithDevices(devices ...string) *MockBridgeApp {
	m.ListDevicesResult = devices
	return m
}

// SetupConnected makes Connect succeed for address
func (m *MockBridgeApp) SetupConnected(address string, devices ...string) *MockBridgeApp {
	m.ConnectResult = ConnectOutcome{
		Target:  address,
		State:   bridge.Connected,
		Message: "Connected to " + address,
		Devices: devices,
	}
	return m
}

var (
	ErrBridgeUnavailable = errors.New("bridge unavailable")
	ErrTimeout           = errors.New("operation timed out")
)
