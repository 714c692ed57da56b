package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/chatsim"
	"github.com/aretw0/chatsim/internal/config"
	"github.com/aretw0/chatsim/internal/logging"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatsim",
	Short: "chatsim simulates the first chat with an AI marketing assistant",
	Long: `chatsim runs the scripted onboarding conversation of a chat workspace
assistant: in the terminal, over HTTP, or as MCP tools for agents.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json); overrides the config")
}

// loadConfig reads the configuration and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(w, level, cfg.Log.Format), nil
}

// baseOptions returns the simulator options every command shares, and the
// catalog they configure.
func baseOptions(cfg *config.Config, logger *slog.Logger) ([]chatsim.Option, domain.Catalog, error) {
	cat, err := cfg.LoadCatalog()
	if err != nil {
		return nil, domain.Catalog{}, err
	}
	return []chatsim.Option{chatsim.WithLogger(logger), chatsim.WithCatalog(cat)}, cat, nil
}
