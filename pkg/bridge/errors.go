package bridge

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Startup errors. Both are fatal: the caller must notify the user and exit
// before any device command runs.
var (
	ErrUnsupportedPlatform = errors.New("OS not supported")
	ErrBinaryNotFound      = errors.New("ADB binary not found at")
)

// deviceIDPattern accepts USB serials ("emulator-5554"), wireless
// sessions ("192.168.1.100:5555") and mDNS names
// ("adb-XXXX._adb-tls-connect._tcp.").
var deviceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._:\-]+$`)

// ValidateDeviceID rejects identifiers that cannot safely follow "-s".
func ValidateDeviceID(deviceID string) error {
	if deviceID == "" {
		return fmt.Errorf("device ID cannot be empty")
	}
	if len(deviceID) > 256 {
		return fmt.Errorf("device ID too long (max 256 characters)")
	}
	if strings.HasPrefix(deviceID, "-") {
		return fmt.Errorf("invalid device ID format: must not start with '-'")
	}
	if !deviceIDPattern.MatchString(deviceID) {
		return fmt.Errorf("invalid device ID format: contains illegal characters")
	}
	return nil
}
