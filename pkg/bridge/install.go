package bridge

import (
	"context"
	"fmt"
	"strings"
)

// InstallOutcome is the result of one install attempt.
type InstallOutcome struct {
	Device   string        `json:"device"`
	Artifact string        `json:"artifact"`
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Result   CommandResult `json:"-"`
}

// Install pushes artifact to device, replacing an existing installation of
// the same package ("install -r"). No command is issued for an invalid
// device identifier or an empty artifact path.
func (c *Client) Install(ctx context.Context, device, artifact string) InstallOutcome {
	out := InstallOutcome{Device: device, Artifact: artifact}

	if err := ValidateDeviceID(device); err != nil {
		out.Message = err.Error()
		return out
	}
	if strings.TrimSpace(artifact) == "" {
		out.Message = "package path is required"
		return out
	}

	c.logger.Info().Str("device", device).Str("artifact", artifact).Msg("Installing package")

	out.Result = c.Exec(ctx, "-s", device, "install", "-r", artifact)
	v := c.install.Classify(out.Result)
	if v.OK {
		out.Success = true
		out.Message = fmt.Sprintf("APK installed on %s", device)
		return out
	}
	out.Message = v.Message
	return out
}
