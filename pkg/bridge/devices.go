package bridge

import (
	"context"
	"strings"
)

// ListDevices runs "devices" and returns the ready identifiers in the order
// the bridge reported them. Empty output is an empty list, not an error.
// The list is rebuilt on every call; identifiers of wireless sessions go
// stale as soon as connection state changes.
func (c *Client) ListDevices(ctx context.Context) []string {
	res := c.Exec(ctx, "devices")
	if res.Stdout == "" {
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			c.logger.Warn().Str("stderr", stderr).Msg("Device listing returned no output")
		}
		return []string{}
	}
	return c.devices.ParseDevices(res.Stdout)
}
