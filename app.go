package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"Sideload/pkg/bridge"
	"Sideload/pkg/config"
	"Sideload/pkg/history"
)

// User-facing texts for inputs the app rejects before any bridge command.
const (
	msgSelectDevice   = "Please select a device first."
	msgChooseArtifact = "Please choose a package to install."
)

// ErrHistoryDisabled is returned by History when no journal is open.
var ErrHistoryDisabled = errors.New("history is disabled")

// App connects user intents to the bridge. It owns the device list the
// user last saw and journals every install, connect and pair attempt.
type App struct {
	client   *bridge.Client
	runner   *bridge.ExecRunner
	history  *history.Store
	notifier Notifier
	prompter bridge.Prompter
	version  string

	mu      sync.Mutex
	cfg     *config.Config
	devices []string
	watcher *bridge.Watcher
}

// NewApp assembles an App around an already resolved client. store may be
// nil to disable the journal.
func NewApp(cfg *config.Config, client *bridge.Client, store *history.Store, notifier Notifier, prompter bridge.Prompter, version string) *App {
	if notifier == nil {
		notifier = quietNotifier{}
	}
	return &App{
		cfg:      cfg,
		client:   client,
		history:  store,
		notifier: notifier,
		prompter: prompter,
		version:  version,
		devices:  []string{},
	}
}

// startup resolves the bridge binary and opens the journal. A resolution
// error is fatal; a journal error only disables history.
func startup(cfg *config.Config, version string, notifier Notifier, prompter bridge.Prompter) (*App, error) {
	resolver := bridge.NewResolver(cfg.Bridge.Dir, ModuleLogger("platform"))
	resolver.Override = cfg.Bridge.Path
	path, err := resolver.Resolve()
	if err != nil {
		return nil, err
	}

	runner := bridge.NewExecRunner(cfg.Bridge.Timeout(), ModuleLogger("runner"))
	client, err := bridge.New(bridge.Config{
		Path:   path,
		Runner: runner,
		Logger: ModuleLogger("bridge"),
	})
	if err != nil {
		return nil, err
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = openHistory(cfg)
		if err != nil {
			LogWarn("history").Err(err).Msg("History journal unavailable")
			store = nil
		}
	}

	app := NewApp(cfg, client, store, notifier, prompter, version)
	app.runner = runner
	BridgeLog().Str("path", path.String()).Dur("timeout", cfg.Bridge.Timeout()).Msg("Bridge ready")
	return app, nil
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	store, err := history.Open(cfg.History.Dir, ModuleLogger("history"))
	if err != nil {
		return nil, err
	}
	if _, err := store.Prune(context.Background(), cfg.History.Retention()); err != nil {
		LogWarn("history").Err(err).Msg("Failed to prune history")
	}
	return store, nil
}

// Close releases the journal.
func (a *App) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

func (a *App) GetAppVersion() string {
	return a.version
}

func (a *App) config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// Devices returns the list from the most recent refresh.
func (a *App) Devices() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.devices...)
}

func (a *App) setDevices(devices []string) {
	a.mu.Lock()
	a.devices = devices
	a.mu.Unlock()
}

// Refresh re-lists ready devices and replaces the displayed list.
func (a *App) Refresh(ctx context.Context) []string {
	LogUserAction(ActionRefresh, "", nil)
	devices := a.client.ListDevices(ctx)
	a.setDevices(devices)
	return devices
}

// InstallSelected installs artifact on the selected device. Missing
// selections fail with a hint and issue no command.
func (a *App) InstallSelected(ctx context.Context, device, artifact string) bridge.InstallOutcome {
	device = strings.TrimSpace(device)
	artifact = strings.TrimSpace(artifact)

	if device == "" {
		a.notifier.Warning("Select Device", msgSelectDevice)
		return bridge.InstallOutcome{Artifact: artifact, Message: msgSelectDevice}
	}
	if artifact == "" {
		a.notifier.Warning("Select Package", msgChooseArtifact)
		return bridge.InstallOutcome{Device: device, Message: msgChooseArtifact}
	}

	LogUserAction(ActionInstall, device, map[string]interface{}{"artifact": artifact})
	timer := StartOperation("install", "install").AddDetail("device", device)
	out := a.client.Install(ctx, device, artifact)

	a.record(ctx, history.Entry{
		Kind:     history.KindInstall,
		DeviceID: device,
		Target:   artifact,
		Success:  out.Success,
		Message:  out.Message,
	}, timer, out.Result, "-s", device, "install", "-r", artifact)

	if out.Success {
		timer.End()
		a.notifier.Success("Success", out.Message)
	} else {
		timer.EndWithError(errors.New(out.Message))
		a.notifier.Failure("Install Failed", out.Message)
	}
	return out
}

// Connect connects to target and replaces the device list with the
// post-attempt listing.
func (a *App) Connect(ctx context.Context, target string) bridge.ConnectOutcome {
	timer := StartOperation("wireless", "connect")
	return a.finishConnect(ctx, a.client.Connect(ctx, target), timer)
}

// ConnectInteractive asks for the target first.
func (a *App) ConnectInteractive(ctx context.Context) bridge.ConnectOutcome {
	timer := StartOperation("wireless", "connect")
	return a.finishConnect(ctx, a.client.ConnectInteractive(ctx, a.prompter), timer)
}

func (a *App) finishConnect(ctx context.Context, out bridge.ConnectOutcome, timer *OperationTimer) bridge.ConnectOutcome {
	if out.Cancelled {
		LogUserAction(ActionCancel, "", map[string]interface{}{"flow": "connect"})
		return out
	}
	LogUserAction(ActionConnect, "", map[string]interface{}{"target": out.Target, "state": out.State.String()})
	a.setDevices(out.Devices)

	a.record(ctx, history.Entry{
		Kind:    history.KindConnect,
		Target:  out.Target,
		Success: out.OK(),
		Message: out.Message,
	}, timer, out.Result, "connect", out.Target)

	if out.OK() {
		timer.End()
		a.notifier.Success("Success", out.Message)
	} else {
		timer.EndWithError(errors.New(out.Message))
		a.notifier.Failure("Failed", out.Message)
	}
	return out
}

// Pair pairs with target using code.
func (a *App) Pair(ctx context.Context, target, code string) bridge.PairOutcome {
	timer := StartOperation("wireless", "pair")
	return a.finishPair(ctx, a.client.Pair(ctx, target, code), timer)
}

// PairInteractive asks for the pairing address and code in turn.
func (a *App) PairInteractive(ctx context.Context) bridge.PairOutcome {
	timer := StartOperation("wireless", "pair")
	return a.finishPair(ctx, a.client.PairInteractive(ctx, a.prompter), timer)
}

func (a *App) finishPair(ctx context.Context, out bridge.PairOutcome, timer *OperationTimer) bridge.PairOutcome {
	if out.Cancelled {
		LogUserAction(ActionCancel, "", map[string]interface{}{"flow": "pair", "at": out.CancelledAt.String()})
		return out
	}
	LogUserAction(ActionPair, "", map[string]interface{}{"target": out.Target, "state": out.State.String()})
	a.setDevices(out.Devices)

	// The pairing code is single use and stays out of the journal.
	a.record(ctx, history.Entry{
		Kind:    history.KindPair,
		Target:  out.Target,
		Success: out.OK(),
		Message: out.Message,
	}, timer, out.Result, "pair", out.Target)

	if out.OK() {
		timer.End()
		a.notifier.Success("Success", out.Message)
	} else {
		timer.EndWithError(errors.New(out.Message))
		a.notifier.Failure("Pairing Failed", out.Message)
	}
	return out
}

// record journals one attempt. Journal failures are logged, never surfaced.
func (a *App) record(ctx context.Context, e history.Entry, timer *OperationTimer, res bridge.CommandResult, argv ...string) {
	if a.history == nil {
		return
	}
	details := map[string]interface{}{
		"argv":     argv,
		"exitCode": res.ExitCode,
	}
	if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
		details["stderr"] = stderr
	}
	raw, err := json.Marshal(details)
	if err != nil {
		LogWarn("history").Err(err).Msg("Failed to encode details")
		raw = nil
	}

	e.Details = raw
	e.Duration = timer.Elapsed()
	e.StartedAt = time.Now().Add(-e.Duration)
	// The attempt already ran; a cancelled caller must not drop its entry.
	if err := a.history.Record(context.WithoutCancel(ctx), &e); err != nil {
		LogWarn("history").Err(err).Str("kind", string(e.Kind)).Msg("Failed to record operation")
	}
}

// History lists journaled operations, newest first.
func (a *App) History(ctx context.Context, q history.Query) ([]history.Entry, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.List(ctx, q)
}

// Watch polls the device list until ctx ends, reporting each change.
func (a *App) Watch(ctx context.Context, onChange func(bridge.DeviceChange)) {
	interval := a.config().Watch.Interval()
	w := bridge.NewWatcher(a.client, interval, ModuleLogger("watch"))

	a.mu.Lock()
	a.watcher = w
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.watcher = nil
		a.mu.Unlock()
	}()

	LogUserAction(ActionWatchStart, "", map[string]interface{}{"interval_ms": interval.Milliseconds()})
	w.Run(ctx, func(change bridge.DeviceChange) {
		a.setDevices(change.Devices)
		onChange(change)
	})
}

// ApplyConfig takes over the settings that can change while running: the
// command timeout, the log level and the watch interval.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.mu.Lock()
	old := a.cfg
	a.cfg = cfg
	w := a.watcher
	a.mu.Unlock()

	if a.runner != nil && old.Bridge.TimeoutSeconds != cfg.Bridge.TimeoutSeconds {
		a.runner.SetTimeout(cfg.Bridge.Timeout())
	}
	if !strings.EqualFold(old.Log.Level, cfg.Log.Level) {
		SetLogLevel(ParseLogLevel(cfg.Log.Level))
	}
	if w != nil && old.Watch.IntervalMs != cfg.Watch.IntervalMs {
		w.SetInterval(cfg.Watch.Interval())
	}

	LogUserAction(ActionSettingsChange, "", map[string]interface{}{
		"timeout_seconds": cfg.Bridge.TimeoutSeconds,
		"log_level":       cfg.Log.Level,
		"interval_ms":     cfg.Watch.IntervalMs,
	})
}
