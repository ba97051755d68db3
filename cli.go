package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"Sideload/pkg/bridge"
	"Sideload/pkg/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sideload",
	Short: "Install APKs and manage wireless debugging through ADB",
	Long: `Sideload drives the Android Debug Bridge shipped next to it.

List ready devices, install packages, connect to and pair with devices
over the network, and keep a journal of every attempt.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sideload %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.config/sideload/config.yaml)")
	flags.String("bridge-dir", ".", "directory holding adbwindows/, adblinux/ and adbmac/")
	flags.String("adb", "", "explicit path to the adb binary")
	flags.Int("timeout", 120, "seconds before a bridge command is abandoned (0 disables)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("bridge.dir", flags.Lookup("bridge-dir"))
	_ = viper.BindPFlag("bridge.path", flags.Lookup("adb"))
	_ = viper.BindPFlag("bridge.timeout_seconds", flags.Lookup("timeout"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("SIDELOAD")
	// SIDELOAD_BRIDGE_TIMEOUT_SECONDS for bridge.timeout_seconds
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads the merged configuration and applies its log settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := initLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) error {
	logCfg := DefaultLogConfig()
	if cfg.Log.File {
		logCfg = PersistentLogConfig(cfg.Log.Dir)
	}
	logCfg.Level = ParseLogLevel(cfg.Log.Level)
	return InitLogger(logCfg)
}

// newApp resolves the bridge and opens the journal for one command.
func newApp(notifier Notifier, prompter bridge.Prompter) (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	app, err := startup(cfg, Version, notifier, prompter)
	if err != nil {
		return nil, &startupError{err: err}
	}
	return app, nil
}

// newTerminalApp is newApp wired to the command's streams.
func newTerminalApp(cmd *cobra.Command) (*App, error) {
	return newApp(
		newTerminalNotifier(cmd.OutOrStdout()),
		newLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
	)
}

// watchConfig applies live config changes to a long-running app.
func watchConfig(app *App) {
	config.Watch(app.ApplyConfig, func(err error) {
		LogWarn("config").Err(err).Msg("Ignoring invalid configuration change")
	})
}

// waitWithSpinner runs fn as a task and shows a spinner until it is done.
// Without a terminal it just waits.
func waitWithSpinner[T any](ctx context.Context, text string, fn func(context.Context) T) (T, error) {
	task := bridge.Go(ctx, fn)
	if !isTerminal(os.Stdout) {
		return task.Wait(ctx)
	}

	spinner, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(text)
	if err != nil {
		return task.Wait(ctx)
	}
	v, err := task.Wait(ctx)
	_ = spinner.Stop()
	return v, err
}
