package bridge

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

const testBinary = "/opt/bridge/adb"

// fakeRunner answers by the argument string after the binary path and
// records every argv it receives.
type fakeRunner struct {
	mu        sync.Mutex
	calls     [][]string
	responses map[string]CommandResult
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: make(map[string]CommandResult)}
}

func (f *fakeRunner) on(args string, res CommandResult) *fakeRunner {
	f.responses[args] = res
	return f
}

func (f *fakeRunner) Run(ctx context.Context, argv []string) CommandResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), argv...))
	return f.responses[strings.Join(argv[1:], " ")]
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c[1:], " ")
	}
	return out
}

func newTestClient(t *testing.T, runner Runner) *Client {
	t.Helper()
	c, err := New(Config{Path: testBinary, Runner: runner, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
