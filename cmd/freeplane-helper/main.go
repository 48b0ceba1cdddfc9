// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the freeplane-helper CLI, which
// converts Freeplane mind maps to Markdown, ODT or PDF.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/freeplane-helper/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger carries diagnostics to stderr; progress goes to stdout.
var logger = slog.Default()

// rootCmd is the base command for the freeplane-helper CLI.
var rootCmd = &cobra.Command{
	Use:   "freeplane-helper",
	Short: "Convert Freeplane mind maps to Markdown, ODT or PDF",
	Long: `freeplane-helper drives Freeplane headless to export a mind map as
Markdown, repairs the known defects of that export (title line, reference
lines, optional section numbers), and hands the result to pandoc and
LibreOffice for ODT and PDF output.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := viper.GetString("log_level")
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "debug"
		}
		l, err := newLogger(level)
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./freeplane-helper.yaml or ~/.config/freeplane-helper/freeplane-helper.yaml)")
	pf.BoolP("verbose", "v", false, "log external commands and diagnostics")
	pf.String("work-dir", "", "directory for exported and converted files (default: current directory)")
	pf.Duration("timeout", 0, "kill an external tool after this long (default: wait indefinitely)")
	pf.String("freeplane-dir", "", "Freeplane user directory (default: ~/.config/freeplane/<version>)")

	_ = viper.BindPFlag("work_dir", pf.Lookup("work-dir"))
	_ = viper.BindPFlag("timeout", pf.Lookup("timeout"))
	_ = viper.BindPFlag("freeplane.config_dir", pf.Lookup("freeplane-dir"))

	defaults := types.DefaultConfig()
	viper.SetDefault("freeplane.binary", defaults.Freeplane.Binary)
	viper.SetDefault("freeplane.version", defaults.Freeplane.Version)
	viper.SetDefault("freeplane.config_dir", "")
	viper.SetDefault("pandoc.binary", defaults.Pandoc.Binary)
	viper.SetDefault("office.binary", defaults.Office.Binary)
	viper.SetDefault("history.enabled", defaults.History.Enabled)
	viper.SetDefault("history.db", "")
	viper.SetDefault("work_dir", "")
	viper.SetDefault("timeout", "0s")
	viper.SetDefault("log_level", defaults.LogLevel)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("freeplane-helper")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "freeplane-helper"))
		}
	}

	viper.SetEnvPrefix("FREEPLANE_HELPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", cfgFile, err)
	}
}

// loadConfig resolves the effective configuration from defaults, config
// file, environment and flags.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.Timeout < 0 {
		return cfg, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	return cfg, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(h), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}
