package bridge

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestHelperProcess is not a real test. The runner tests re-exec the test
// binary and it plays the bridge.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}
	switch args[1] {
	case "devices":
		fmt.Print("List of devices attached\nABC123\tdevice\n")
	case "fail":
		fmt.Print("partial")
		fmt.Fprint(os.Stderr, "boom")
		os.Exit(3)
	case "proxy":
		fmt.Printf("[%s]", os.Getenv("HTTPS_PROXY"))
	case "hang":
		time.Sleep(time.Minute)
	case "fork":
		// Like adb starting its server: a child that outlives us and
		// inherits stdout.
		fmt.Println("Success")
		child := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--", "linger")
		child.Stdout = os.Stdout
		if err := child.Start(); err != nil {
			os.Exit(4)
		}
	case "linger":
		time.Sleep(4 * time.Second)
	}
	os.Exit(0)
}

func helperArgv(args ...string) []string {
	return append([]string{os.Args[0], "-test.run=TestHelperProcess", "--"}, args...)
}

func TestExecRunnerCapturesStdout(t *testing.T) {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	r := NewExecRunner(0, zerolog.Nop())

	res := r.Run(context.Background(), helperArgv("devices"))
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.ExitCode, res.Stderr)
	}
	if !strings.Contains(res.Stdout, "ABC123\tdevice") {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestExecRunnerNonZeroExitKeepsStreams(t *testing.T) {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	r := NewExecRunner(0, zerolog.Nop())

	res := r.Run(context.Background(), helperArgv("fail"))
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
	if res.Stdout != "partial" || res.Stderr != "boom" {
		t.Errorf("streams = %q / %q", res.Stdout, res.Stderr)
	}
}

func TestExecRunnerLaunchFailure(t *testing.T) {
	r := NewExecRunner(0, zerolog.Nop())
	missing := filepath.Join(t.TempDir(), "no-such-adb")

	res := r.Run(context.Background(), []string{missing, "devices"})
	if res.Stdout != "" {
		t.Errorf("stdout = %q, want empty", res.Stdout)
	}
	if res.Stderr == "" {
		t.Error("stderr should describe the launch failure")
	}
	if res.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", res.ExitCode)
	}
}

func TestExecRunnerEmptyCommand(t *testing.T) {
	r := NewExecRunner(0, zerolog.Nop())
	res := r.Run(context.Background(), nil)
	if res.Stderr != "empty command" || res.Stdout != "" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestExecRunnerKeepsOutputWhenServerHoldsPipes(t *testing.T) {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	r := NewExecRunner(0, zerolog.Nop())

	res := r.Run(context.Background(), helperArgv("fork"))
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.ExitCode, res.Stderr)
	}
	if !strings.Contains(res.Stdout, "Success") {
		t.Errorf("stdout = %q, want the bridge output", res.Stdout)
	}
	if v := InstallClassifier.Classify(res); !v.OK {
		t.Errorf("install verdict = %+v, want success", v)
	}
}

func TestExecRunnerTimeout(t *testing.T) {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	r := NewExecRunner(200*time.Millisecond, zerolog.Nop())

	start := time.Now()
	res := r.Run(context.Background(), helperArgv("hang"))
	if time.Since(start) > 20*time.Second {
		t.Fatal("runner did not stop the hung child")
	}
	if res.Stdout != "" {
		t.Errorf("stdout = %q, want empty", res.Stdout)
	}
	if !strings.Contains(res.Stderr, "timed out") {
		t.Errorf("stderr = %q, want timeout description", res.Stderr)
	}
}

func TestExecRunnerScrubsProxyEnv(t *testing.T) {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	t.Setenv("HTTPS_PROXY", "http://proxy.invalid:3128")
	r := NewExecRunner(0, zerolog.Nop())

	res := r.Run(context.Background(), helperArgv("proxy"))
	if res.Stdout != "[]" {
		t.Errorf("child saw proxy %q", res.Stdout)
	}
}

func TestExecRunnerSetTimeout(t *testing.T) {
	r := NewExecRunner(time.Second, zerolog.Nop())
	r.SetTimeout(5 * time.Second)
	if r.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %v", r.Timeout())
	}
	r.SetTimeout(-time.Second)
	if r.Timeout() != 0 {
		t.Errorf("negative timeout should clamp to 0, got %v", r.Timeout())
	}
}

func TestCombined(t *testing.T) {
	res := CommandResult{Stdout: "a", Stderr: "b"}
	if res.Combined() != "ab" {
		t.Errorf("Combined() = %q", res.Combined())
	}
}
