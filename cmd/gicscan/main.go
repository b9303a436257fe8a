// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the gicscan CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/gicscan/internal/logging"
	"github.com/pdiddy/gicscan/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is built in PersistentPreRunE; commands may rely on it being set.
	logger *zap.Logger

	// logCleanup flushes logger and closes the log file, if any.
	logCleanup func() error
)

// rootCmd is the base command. Without a subcommand it runs a scan.
var rootCmd = &cobra.Command{
	Use:   "gicscan",
	Short: "Extract gic_handle_irq values from a kernel log",
	Long: `gicscan reads a log file line by line, picks the lines containing the
marker (gic_handle_irq by default) and extracts the first quoted value after
the marker. It prints the unique values in sorted order, or a single
"not found" line when there are none.

By default the input is gic.txt in the directory holding the gicscan binary.
Use --input, input_path in the config file, or GICSCAN_INPUT_PATH to read a
different file.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, cleanup, err := logging.New(logConfig(), verbose)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
		logger, logCleanup = l, cleanup
		return nil
	},
	RunE: runScan,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./gicscan.yaml or ~/.config/gicscan/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")

	setDefaults()
}

// setDefaults registers the viper defaults for every config key.
func setDefaults() {
	defaults := logging.DefaultConfig()
	viper.SetDefault("marker", types.DefaultMarker)
	viper.SetDefault("malformed", string(types.MalformedSkip))
	viper.SetDefault("format", string(types.FormatText))
	viper.SetDefault("store.enabled", false)
	viper.SetDefault("log.level", defaults.Level)
	viper.SetDefault("log.max_size_mb", defaults.MaxSizeMB)
	viper.SetDefault("log.max_backups", defaults.MaxBackups)
	viper.SetDefault("log.max_age_days", defaults.MaxAgeDays)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gicscan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gicscan"))
		}
	}

	viper.SetEnvPrefix("GICSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// logConfig reads the log.* settings.
func logConfig() types.LogConfig {
	return types.LogConfig{
		Level:      viper.GetString("log.level"),
		File:       viper.GetString("log.file"),
		MaxSizeMB:  viper.GetInt("log.max_size_mb"),
		MaxBackups: viper.GetInt("log.max_backups"),
		MaxAgeDays: viper.GetInt("log.max_age_days"),
	}
}

// stringSetting returns the flag value when the flag was set explicitly and
// the viper value for key otherwise.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	return viper.GetString(key)
}

// defaultInputPath is gic.txt next to the running executable.
func defaultInputPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), types.DefaultInputName), nil
}

// inputPath resolves the input file: --input, then input_path, then the
// default next to the executable.
func inputPath(cmd *cobra.Command) (string, error) {
	if p := stringSetting(cmd, "input", "input_path"); p != "" {
		return p, nil
	}
	return defaultInputPath()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if logCleanup != nil {
		_ = logCleanup()
	}
	if err != nil {
		os.Exit(1)
	}
}
