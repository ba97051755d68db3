package bridge

import "strings"

// Output markers printed by adb. The bridge has no structured status, so
// these substrings are the whole contract; keep them here.
const (
	readyStateMarker       = "device"
	installSuccessMarker   = "Success"
	connectedMarker        = "connected"
	alreadyConnectedMarker = "already connected"
	pairSuccessMarker      = "Successfully paired"
	daemonStatusLinePrefix = "* daemon"
)

// Verdict is a classifier's reading of one CommandResult. Message carries
// the diagnostic text for a failed verdict.
type Verdict struct {
	OK      bool
	Message string
}

// Classifier turns raw bridge output into a Verdict.
type Classifier interface {
	Classify(res CommandResult) Verdict
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(res CommandResult) Verdict

func (f ClassifierFunc) Classify(res CommandResult) Verdict {
	return f(res)
}

// InstallClassifier succeeds when stdout carries "Success", whatever stderr
// says. A failure reports stderr, or stdout when stderr is empty.
var InstallClassifier Classifier = ClassifierFunc(func(res CommandResult) Verdict {
	if strings.Contains(res.Stdout, installSuccessMarker) {
		return Verdict{OK: true, Message: res.Stdout}
	}
	msg := res.Stderr
	if msg == "" {
		msg = res.Stdout
	}
	return Verdict{Message: msg}
})

// ConnectClassifier succeeds on "connected" or "already connected" anywhere
// in the combined output.
var ConnectClassifier Classifier = ClassifierFunc(func(res CommandResult) Verdict {
	out := res.Combined()
	if strings.Contains(out, connectedMarker) || strings.Contains(out, alreadyConnectedMarker) {
		return Verdict{OK: true, Message: out}
	}
	return Verdict{Message: out}
})

// PairClassifier succeeds on "Successfully paired" in the combined output.
var PairClassifier Classifier = ClassifierFunc(func(res CommandResult) Verdict {
	out := res.Combined()
	return Verdict{OK: strings.Contains(out, pairSuccessMarker), Message: out}
})

// DeviceParser extracts ready device identifiers from "devices" output.
type DeviceParser interface {
	ParseDevices(stdout string) []string
}

// DeviceParserFunc adapts a function to DeviceParser.
type DeviceParserFunc func(stdout string) []string

func (f DeviceParserFunc) ParseDevices(stdout string) []string {
	return f(stdout)
}

// ReadyDevices is the default DeviceParser. The first line is the banner;
// every following line whose state is "device" yields its first field.
// unauthorized, offline and other states are dropped silently.
var ReadyDevices DeviceParser = DeviceParserFunc(parseReadyDevices)

func parseReadyDevices(stdout string) []string {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return []string{}
	}

	lines := strings.Split(trimmed, "\n")
	// adb may print daemon startup notices before the banner.
	for len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), daemonStatusLinePrefix) {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return []string{}
	}

	devices := []string{}
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[1] == readyStateMarker {
			devices = append(devices, fields[0])
		}
	}
	return devices
}
