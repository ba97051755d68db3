package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ========================================
// Structured Logger
// ========================================

// Logger is the process-wide logger. Console output goes to stderr because
// stdout carries command output and, in mcp mode, the protocol stream.
var Logger zerolog.Logger

var persistentLogger *PersistentLogger

// logOutput is the console destination; tests swap it for a buffer.
var logOutput io.Writer = os.Stderr

const logFilePrefix = "sideload"

// LogLevel mirrors the log.level setting.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// ParseLogLevel maps a log.level value to a LogLevel. Unknown names are Info.
func ParseLogLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LogConfig controls where log lines go.
type LogConfig struct {
	Level      LogLevel
	Console    bool
	File       bool
	FilePath   string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// DefaultLogConfig logs Info and above to the console only.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      LogLevelInfo,
		Console:    true,
		MaxSizeMB:  10,
		MaxAgeDays: 7,
		MaxBackups: 5,
		Compress:   true,
	}
}

// PersistentLogConfig additionally writes to logDir/sideload.log.
func PersistentLogConfig(logDir string) LogConfig {
	cfg := DefaultLogConfig()
	cfg.File = true
	cfg.FilePath = filepath.Join(logDir, logFilePrefix+".log")
	return cfg
}

// ========================================
// PersistentLogger - rotated log file
// ========================================

// PersistentLogger is an io.Writer that rotates by size and prunes rotated
// files by age and count.
type PersistentLogger struct {
	mu          sync.Mutex
	config      LogConfig
	currentFile *os.File
	currentSize int64
	logDir      string
	stop        chan struct{}
	stopOnce    sync.Once
}

func NewPersistentLogger(config LogConfig) (*PersistentLogger, error) {
	logDir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	pl := &PersistentLogger{
		config: config,
		logDir: logDir,
		stop:   make(chan struct{}),
	}
	if err := pl.openFile(); err != nil {
		return nil, err
	}

	go pl.cleanupRoutine()
	return pl, nil
}

func (pl *PersistentLogger) Write(p []byte) (n int, err error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if pl.config.MaxSizeMB > 0 && pl.currentSize+int64(len(p)) > int64(pl.config.MaxSizeMB)*1024*1024 {
		if err := pl.rotate(); err != nil {
			return 0, err
		}
	}

	n, err = pl.currentFile.Write(p)
	pl.currentSize += int64(n)
	return n, err
}

func (pl *PersistentLogger) openFile() error {
	file, err := os.OpenFile(pl.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	pl.currentFile = file
	pl.currentSize = info.Size()
	return nil
}

func (pl *PersistentLogger) rotate() error {
	if pl.currentFile != nil {
		pl.currentFile.Close()
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	rotatedPath := filepath.Join(pl.logDir, fmt.Sprintf("%s_%s.log", logFilePrefix, timestamp))

	if err := os.Rename(pl.config.FilePath, rotatedPath); err != nil {
		return pl.openFile()
	}
	if pl.config.Compress {
		go compressLogFile(rotatedPath)
	}
	return pl.openFile()
}

func compressLogFile(filePath string) {
	src, err := os.Open(filePath)
	if err != nil {
		return
	}
	defer src.Close()

	dst, err := os.Create(filePath + ".gz")
	if err != nil {
		return
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	defer gz.Close()

	if _, err := io.Copy(gz, src); err != nil {
		os.Remove(filePath + ".gz")
		return
	}
	os.Remove(filePath)
}

func (pl *PersistentLogger) cleanupRoutine() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	pl.cleanup()
	for {
		select {
		case <-ticker.C:
			pl.cleanup()
		case <-pl.stop:
			return
		}
	}
}

// RotatedFiles lists rotated files, newest first.
func (pl *PersistentLogger) RotatedFiles() []string {
	files, err := filepath.Glob(filepath.Join(pl.logDir, logFilePrefix+"_*.log*"))
	if err != nil {
		return nil
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var infos []fileInfo
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{path: f, modTime: info.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].modTime.After(infos[j].modTime)
	})

	out := make([]string, len(infos))
	for i, fi := range infos {
		out[i] = fi.path
	}
	return out
}

func (pl *PersistentLogger) cleanup() {
	now := time.Now()
	for i, path := range pl.RotatedFiles() {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if pl.config.MaxAgeDays > 0 && now.Sub(info.ModTime()) > time.Duration(pl.config.MaxAgeDays)*24*time.Hour {
			os.Remove(path)
			continue
		}
		if pl.config.MaxBackups > 0 && i >= pl.config.MaxBackups {
			os.Remove(path)
		}
	}
}

func (pl *PersistentLogger) Close() error {
	pl.stopOnce.Do(func() { close(pl.stop) })

	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.currentFile != nil {
		err := pl.currentFile.Close()
		pl.currentFile = nil
		return err
	}
	return nil
}

// ========================================
// Setup
// ========================================

// InitLogger replaces the global Logger according to config.
func InitLogger(config LogConfig) error {
	var writers []io.Writer

	if config.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        logOutput,
			TimeFormat: "15:04:05",
		})
	}

	if config.File && config.FilePath != "" {
		pl, err := NewPersistentLogger(config)
		if err != nil {
			return err
		}
		CloseLogger()
		persistentLogger = pl
		writers = append(writers, pl)
	}

	if len(writers) == 0 {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        logOutput,
			TimeFormat: "15:04:05",
		})
	}

	Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(config.Level.zerolog()).
		With().
		Timestamp().
		Logger()
	userLog = Logger.With().Str("category", "user_action").Logger()

	return nil
}

// SetLogLevel changes the level of the running logger.
func SetLogLevel(level LogLevel) {
	Logger = Logger.Level(level.zerolog())
	userLog = userLog.Level(level.zerolog())
}

// CloseLogger flushes and closes the log file, if any.
func CloseLogger() {
	if persistentLogger != nil {
		persistentLogger.Close()
		persistentLogger = nil
	}
}

// LogFilePath returns the active log file, or "" when logging to the console only.
func LogFilePath() string {
	if persistentLogger != nil {
		return persistentLogger.config.FilePath
	}
	return ""
}

// ========================================
// Module loggers
// ========================================

func LogDebug(module string) *zerolog.Event {
	return Logger.Debug().Str("module", module)
}

func LogInfo(module string) *zerolog.Event {
	return Logger.Info().Str("module", module)
}

func LogWarn(module string) *zerolog.Event {
	return Logger.Warn().Str("module", module)
}

func LogError(module string) *zerolog.Event {
	return Logger.Error().Str("module", module)
}

// ModuleLogger returns a child logger for library packages.
func ModuleLogger(module string) zerolog.Logger {
	return Logger.With().Str("module", module).Logger()
}

// BridgeLog logs bridge lifecycle events.
func BridgeLog() *zerolog.Event {
	return Logger.Info().Str("module", "bridge")
}

// ========================================
// User actions
// ========================================

// UserAction names something the user asked for.
type UserAction string

const (
	ActionRefresh        UserAction = "device_refresh"
	ActionInstall        UserAction = "app_install"
	ActionConnect        UserAction = "device_connect"
	ActionPair           UserAction = "device_pair"
	ActionCancel         UserAction = "cancel"
	ActionWatchStart     UserAction = "watch_start"
	ActionSettingsChange UserAction = "settings_change"
)

var userLog zerolog.Logger

// LogUserAction records a user action with free-form details.
func LogUserAction(action UserAction, deviceID string, details map[string]interface{}) {
	event := userLog.Info().
		Str("action", string(action)).
		Str("device_id", deviceID)
	addFields(event, details)
	event.Msg("User action")
}

func addFields(event *zerolog.Event, fields map[string]interface{}) {
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			event.Str(k, val)
		case int:
			event.Int(k, val)
		case int64:
			event.Int64(k, val)
		case float64:
			event.Float64(k, val)
		case bool:
			event.Bool(k, val)
		case error:
			event.AnErr(k, val)
		default:
			event.Interface(k, val)
		}
	}
}

// ========================================
// Operation timing
// ========================================

// OperationTimer logs how long an operation took.
type OperationTimer struct {
	module    string
	operation string
	startTime time.Time
	details   map[string]interface{}
}

func StartOperation(module, operation string) *OperationTimer {
	return &OperationTimer{
		module:    module,
		operation: operation,
		startTime: time.Now(),
		details:   make(map[string]interface{}),
	}
}

func (t *OperationTimer) AddDetail(key string, value interface{}) *OperationTimer {
	t.details[key] = value
	return t
}

// Elapsed is the time since StartOperation.
func (t *OperationTimer) Elapsed() time.Duration {
	return time.Since(t.startTime)
}

func (t *OperationTimer) End() {
	t.log(Logger.Debug(), "Operation completed")
}

func (t *OperationTimer) EndWithError(err error) {
	t.log(Logger.Warn().Err(err), "Operation failed")
}

func (t *OperationTimer) log(event *zerolog.Event, msg string) {
	duration := t.Elapsed()
	event.
		Str("module", t.module).
		Str("operation", t.operation).
		Int64("duration_ms", duration.Milliseconds())
	addFields(event, t.details)
	event.Msg(msg)
}

func init() {
	_ = InitLogger(DefaultLogConfig())
}
