package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Notifier shows operation results to the user.
type Notifier interface {
	Success(title, message string)
	Failure(title, message string)
	Warning(title, message string)
	Info(message string)
}

// terminalNotifier prints pterm-styled lines.
type terminalNotifier struct {
	out io.Writer
}

func newTerminalNotifier(out io.Writer) *terminalNotifier {
	return &terminalNotifier{out: out}
}

func (n *terminalNotifier) Success(title, message string) {
	fmt.Fprintln(n.out, pterm.Success.Sprint(message))
}

func (n *terminalNotifier) Failure(title, message string) {
	fmt.Fprintln(n.out, pterm.Error.Sprint(title+": "+message))
}

func (n *terminalNotifier) Warning(title, message string) {
	fmt.Fprintln(n.out, pterm.Warning.Sprint(message))
}

func (n *terminalNotifier) Info(message string) {
	fmt.Fprintln(n.out, pterm.Info.Sprint(message))
}

// quietNotifier drops everything; the MCP server reports through tool results.
type quietNotifier struct{}

func (quietNotifier) Success(string, string) {}
func (quietNotifier) Failure(string, string) {}
func (quietNotifier) Warning(string, string) {}
func (quietNotifier) Info(string)            {}

// printFatal renders a startup failure as a boxed error on stderr.
func printFatal(title string, err error) {
	style := pterm.NewStyle(pterm.FgRed, pterm.Bold)
	box := pterm.DefaultBox.WithTitle(style.Sprint(title)).WithPadding(1).Sprint(err.Error())
	fmt.Fprintln(os.Stderr, box)
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// configureOutput disables colors when stdout is not a terminal so piped
// output and scripts see plain text.
func configureOutput() {
	if !isTerminal(os.Stdout) {
		pterm.DisableColor()
	}
}
