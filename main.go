package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Sideload/pkg/bridge"
	"Sideload/pkg/config"

	"github.com/pterm/pterm"
)

func main() {
	os.Exit(run())
}

// run executes the command line and returns the process exit status.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer CloseLogger()

	configureOutput()
	if err := Execute(ctx); err != nil {
		reportError(err)
		return 1
	}
	return 0
}

// startupError marks a failure that happened before any device command,
// such as a missing bridge binary.
type startupError struct {
	err error
}

func (e *startupError) Error() string { return e.err.Error() }
func (e *startupError) Unwrap() error { return e.err }

// errOperationFailed is returned by commands whose failure the notifier
// has already shown; it only sets the exit status.
var errOperationFailed = errors.New("operation failed")

func reportError(err error) {
	var verrs config.ValidationErrors
	var serr *startupError

	switch {
	case errors.Is(err, errOperationFailed):
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, pterm.Warning.Sprint("Interrupted"))
	case errors.Is(err, bridge.ErrUnsupportedPlatform):
		printFatal("Unsupported OS", err)
	case errors.Is(err, bridge.ErrBinaryNotFound):
		printFatal("ADB Not Found", err)
	case errors.As(err, &verrs):
		printFatal("Configuration Error", err)
	case errors.As(err, &serr):
		printFatal("Startup Failed", err)
	default:
		LogError("cli").Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, pterm.Error.Sprint(err))
	}
}
