package bridge

import (
	"context"
	"fmt"
	"strings"
)

// ConnectState is a stage of the direct-connect flow.
type ConnectState int

const (
	ConnectIdle ConnectState = iota
	ConnectRequested
	Connected
	ConnectFailed
)

func (s ConnectState) String() string {
	switch s {
	case ConnectIdle:
		return "idle"
	case ConnectRequested:
		return "requested"
	case Connected:
		return "connected"
	case ConnectFailed:
		return "failed"
	default:
		return fmt.Sprintf("ConnectState(%d)", int(s))
	}
}

// MarshalText lets outcomes serialize states by name.
func (s ConnectState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PairState is a stage of the pairing flow.
type PairState int

const (
	PairIdle PairState = iota
	PairAwaitingTarget
	PairAwaitingCode
	PairRequested
	Paired
	PairFailed
)

func (s PairState) String() string {
	switch s {
	case PairIdle:
		return "idle"
	case PairAwaitingTarget:
		return "awaiting_target"
	case PairAwaitingCode:
		return "awaiting_code"
	case PairRequested:
		return "requested"
	case Paired:
		return "paired"
	case PairFailed:
		return "failed"
	default:
		return fmt.Sprintf("PairState(%d)", int(s))
	}
}

func (s PairState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ConnectOutcome reports a connect attempt. Devices is the registry as
// re-listed after the attempt; it is nil when the flow was cancelled.
type ConnectOutcome struct {
	Target    string         `json:"target"`
	State     ConnectState   `json:"state"`
	Cancelled bool           `json:"cancelled,omitempty"`
	Message   string         `json:"message"`
	Devices   []string       `json:"devices"`
	Path      []ConnectState `json:"path"`
	Result    CommandResult  `json:"-"`
}

// OK reports whether the device is connected.
func (o ConnectOutcome) OK() bool { return o.State == Connected }

// PairOutcome reports a pairing attempt. When Cancelled is set the flow
// returned to idle from CancelledAt without issuing a command or
// refreshing the registry.
type PairOutcome struct {
	Target      string        `json:"target"`
	State       PairState     `json:"state"`
	Cancelled   bool          `json:"cancelled,omitempty"`
	CancelledAt PairState     `json:"cancelledAt,omitempty"`
	Message     string        `json:"message"`
	Devices     []string      `json:"devices"`
	Path        []PairState   `json:"path"`
	Result      CommandResult `json:"-"`
}

// OK reports whether pairing succeeded.
func (o PairOutcome) OK() bool { return o.State == Paired }

// Prompt is one question put to the user.
type Prompt struct {
	Title string
	Label string
}

// Prompter collects a value from the user. ok is false when the user
// cancelled; an empty answer counts as cancelled too.
type Prompter interface {
	Ask(ctx context.Context, p Prompt) (answer string, ok bool)
}

// Dialog texts shown by the interactive flows.
var (
	ConnectTargetPrompt = Prompt{Title: "Connect Wireless", Label: "Enter device IP:PORT"}
	PairTargetPrompt    = Prompt{Title: "Pair Device", Label: "Enter device IP and Pairing Port (e.g. 192.168.1.5:4711)"}
	PairCodePrompt      = Prompt{Title: "Pair Device", Label: "Enter pairing code shown on the device"}
)

// Connect runs "connect <target>" and always re-lists devices afterwards.
// The target format is not validated; an empty target leaves the flow idle.
func (c *Client) Connect(ctx context.Context, target string) ConnectOutcome {
	out := ConnectOutcome{Target: strings.TrimSpace(target), Path: []ConnectState{ConnectIdle}}
	if out.Target == "" {
		out.Cancelled = true
		return out
	}
	return c.requestConnect(ctx, out)
}

// ConnectInteractive asks for the target and then connects. Cancelling the
// prompt issues no command and performs no refresh.
func (c *Client) ConnectInteractive(ctx context.Context, p Prompter) ConnectOutcome {
	out := ConnectOutcome{Path: []ConnectState{ConnectIdle}}
	target, ok := ask(ctx, p, ConnectTargetPrompt)
	if !ok {
		c.logger.Debug().Msg("Connect cancelled")
		out.Cancelled = true
		return out
	}
	out.Target = target
	return c.requestConnect(ctx, out)
}

func (c *Client) requestConnect(ctx context.Context, out ConnectOutcome) ConnectOutcome {
	out.State = ConnectRequested
	out.Path = append(out.Path, ConnectRequested)

	out.Result = c.Exec(ctx, "connect", out.Target)
	v := c.connect.Classify(out.Result)
	if v.OK {
		out.State = Connected
		out.Message = fmt.Sprintf("Connected to %s", out.Target)
	} else {
		out.State = ConnectFailed
		out.Message = v.Message
	}
	out.Path = append(out.Path, out.State)

	c.logger.Info().Str("target", out.Target).Stringer("state", out.State).Msg("Connect finished")

	out.Devices = c.ListDevices(ctx)
	return out
}

// Pair runs "pair <target> <code>" when both values are present and always
// re-lists devices afterwards. A missing target or code cancels the flow at
// the stage that was waiting for it.
func (c *Client) Pair(ctx context.Context, target, code string) PairOutcome {
	out := PairOutcome{Path: []PairState{PairIdle, PairAwaitingTarget}}

	out.Target = strings.TrimSpace(target)
	if out.Target == "" {
		return cancelPair(out, PairAwaitingTarget)
	}
	out.Path = append(out.Path, PairAwaitingCode)

	code = strings.TrimSpace(code)
	if code == "" {
		return cancelPair(out, PairAwaitingCode)
	}
	return c.requestPair(ctx, out, code)
}

// PairInteractive asks for the pairing address and then the code, one
// prompt at a time.
func (c *Client) PairInteractive(ctx context.Context, p Prompter) PairOutcome {
	out := PairOutcome{Path: []PairState{PairIdle, PairAwaitingTarget}}

	target, ok := ask(ctx, p, PairTargetPrompt)
	if !ok {
		c.logger.Debug().Msg("Pairing cancelled at target prompt")
		return cancelPair(out, PairAwaitingTarget)
	}
	out.Target = target
	out.Path = append(out.Path, PairAwaitingCode)

	code, ok := ask(ctx, p, PairCodePrompt)
	if !ok {
		c.logger.Debug().Str("target", target).Msg("Pairing cancelled at code prompt")
		return cancelPair(out, PairAwaitingCode)
	}
	return c.requestPair(ctx, out, code)
}

func (c *Client) requestPair(ctx context.Context, out PairOutcome, code string) PairOutcome {
	out.State = PairRequested
	out.Path = append(out.Path, PairRequested)

	out.Result = c.Exec(ctx, "pair", out.Target, code)
	v := c.pair.Classify(out.Result)
	if v.OK {
		out.State = Paired
		out.Message = fmt.Sprintf("Paired with %s", out.Target)
	} else {
		out.State = PairFailed
		out.Message = v.Message
	}
	out.Path = append(out.Path, out.State)

	c.logger.Info().Str("target", out.Target).Stringer("state", out.State).Msg("Pairing finished")

	out.Devices = c.ListDevices(ctx)
	return out
}

func cancelPair(out PairOutcome, at PairState) PairOutcome {
	out.State = PairIdle
	out.Cancelled = true
	out.CancelledAt = at
	out.Path = append(out.Path, PairIdle)
	return out
}

func ask(ctx context.Context, p Prompter, prompt Prompt) (string, bool) {
	if p == nil {
		return "", false
	}
	answer, ok := p.Ask(ctx, prompt)
	answer = strings.TrimSpace(answer)
	if !ok || answer == "" {
		return "", false
	}
	return answer, true
}
