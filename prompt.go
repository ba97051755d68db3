package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"Sideload/pkg/bridge"

	"github.com/pterm/pterm"
)

// linePrompter asks questions on a terminal, one line per answer. An empty
// line or end of input cancels.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer

	// pending is a read left running by a cancelled Ask. The next Ask
	// takes its line so only one goroutine ever reads from in.
	pending chan lineRead
}

type lineRead struct {
	line string
	err  error
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

func (p *linePrompter) Ask(ctx context.Context, prompt bridge.Prompt) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	fmt.Fprintln(p.out, pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint(prompt.Title))
	fmt.Fprint(p.out, prompt.Label+": ")

	read := p.readLine()
	select {
	case <-ctx.Done():
		p.pending = read
		fmt.Fprintln(p.out)
		return "", false
	case a := <-read:
		line := strings.TrimSpace(a.line)
		if a.err != nil && line == "" {
			fmt.Fprintln(p.out)
			return "", false
		}
		return line, line != ""
	}
}

func (p *linePrompter) readLine() chan lineRead {
	if read := p.pending; read != nil {
		p.pending = nil
		return read
	}
	read := make(chan lineRead, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		read <- lineRead{line, err}
	}()
	return read
}
