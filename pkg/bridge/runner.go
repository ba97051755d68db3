package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// CommandResult holds the captured streams of one bridge invocation.
// ExitCode is -1 when the process could not be started or was killed.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Combined returns stdout followed by stderr.
func (r CommandResult) Combined() string {
	return r.Stdout + r.Stderr
}

// Runner executes one command synchronously. Implementations never return
// an error: launch and execution failures are reported through Stderr.
type Runner interface {
	Run(ctx context.Context, argv []string) CommandResult
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, argv []string) CommandResult

func (f RunnerFunc) Run(ctx context.Context, argv []string) CommandResult {
	return f(ctx, argv)
}

// proxyVars are removed from the child environment; adb talks to a local
// server and a configured HTTP proxy only gets in the way.
var proxyVars = []string{"HTTP_PROXY", "HTTPS_PROXY", "ALL_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "all_proxy", "no_proxy"}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	timeout atomic.Int64
	logger  zerolog.Logger
}

// NewExecRunner creates a runner. A zero timeout lets a command run until
// it exits on its own.
func NewExecRunner(timeout time.Duration, logger zerolog.Logger) *ExecRunner {
	r := &ExecRunner{logger: logger}
	r.SetTimeout(timeout)
	return r
}

// SetTimeout changes the per-command timeout for subsequent runs.
func (r *ExecRunner) SetTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	r.timeout.Store(int64(d))
}

// Timeout returns the current per-command timeout.
func (r *ExecRunner) Timeout() time.Duration {
	return time.Duration(r.timeout.Load())
}

// Run executes argv[0] with argv[1:] and blocks until it exits.
func (r *ExecRunner) Run(ctx context.Context, argv []string) (res CommandResult) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = CommandResult{Stderr: fmt.Sprintf("panic while running command: %v", p), ExitCode: -1}
		}
		res.Duration = time.Since(start)
		r.logResult(argv, res)
	}()

	if len(argv) == 0 || argv[0] == "" {
		return CommandResult{Stderr: "empty command", ExitCode: -1}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r.logger.Debug().Strs("argv", argv).Msg("Running command")

	timeout := r.Timeout()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = scrubProxyEnv(os.Environ())
	// Without WaitDelay a grandchild holding the pipes open (the adb
	// server fork) would keep Wait blocked after the kill.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg := "command timed out"
			if timeout > 0 {
				msg = fmt.Sprintf("command timed out after %s", timeout)
			}
			return CommandResult{Stderr: msg, ExitCode: -1}
		}
		return CommandResult{Stderr: fmt.Sprintf("command cancelled: %v", ctx.Err()), ExitCode: -1}
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	case errors.As(err, &exitErr):
		return CommandResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitErr.ExitCode()}
	case errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil:
		// The bridge exited but a forked server still holds the pipes.
		r.logger.Debug().Strs("argv", argv).Msg("Child left output pipes open")
		return CommandResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: cmd.ProcessState.ExitCode()}
	default:
		return CommandResult{Stderr: err.Error(), ExitCode: -1}
	}
}

func (r *ExecRunner) logResult(argv []string, res CommandResult) {
	ev := r.logger.Debug()
	if res.ExitCode != 0 {
		ev = r.logger.Warn()
	}
	ev.Str("command", strings.Join(argv, " ")).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration).
		Str("stdout", strings.TrimSpace(res.Stdout)).
		Str("stderr", strings.TrimSpace(res.Stderr)).
		Msg("Command finished")
}

func scrubProxyEnv(env []string) []string {
	out := make([]string, 0, len(env))
	for _, e := range env {
		isProxy := false
		for _, v := range proxyVars {
			if strings.HasPrefix(e, v+"=") {
				isProxy = true
				break
			}
		}
		if !isProxy {
			out = append(out, e)
		}
	}
	return out
}
