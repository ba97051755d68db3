package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Config wires a Client. Only Path is required; nil collaborators fall back
// to the adb defaults.
type Config struct {
	Path   BinaryPath
	Runner Runner
	Logger zerolog.Logger

	Devices DeviceParser
	Install Classifier
	Connect Classifier
	Pair    Classifier
}

// Client issues bridge commands against one resolved binary. Commands are
// serialized: at most one child process is in flight per Client.
type Client struct {
	path   BinaryPath
	runner Runner
	logger zerolog.Logger

	devices DeviceParser
	install Classifier
	connect Classifier
	pair    Classifier

	mu sync.Mutex
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("bridge path is not resolved")
	}
	c := &Client{
		path:    cfg.Path,
		runner:  cfg.Runner,
		logger:  cfg.Logger,
		devices: cfg.Devices,
		install: cfg.Install,
		connect: cfg.Connect,
		pair:    cfg.Pair,
	}
	if c.runner == nil {
		c.runner = NewExecRunner(0, cfg.Logger)
	}
	if c.devices == nil {
		c.devices = ReadyDevices
	}
	if c.install == nil {
		c.install = InstallClassifier
	}
	if c.connect == nil {
		c.connect = ConnectClassifier
	}
	if c.pair == nil {
		c.pair = PairClassifier
	}
	return c, nil
}

// Path returns the bridge binary this client runs.
func (c *Client) Path() BinaryPath {
	return c.path
}

// Exec runs the bridge with args. The binary path becomes argv[0].
func (c *Client) Exec(ctx context.Context, args ...string) CommandResult {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, c.path.String())
	argv = append(argv, args...)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runner.Run(ctx, argv)
}
