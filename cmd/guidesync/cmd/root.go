// Package cmd implements the CLI commands for guidesync.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/guidesync/guidesync/internal/config"
	"github.com/guidesync/guidesync/internal/observability"
	"github.com/guidesync/guidesync/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cfgFile holds the config file path from the CLI flag.
var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "guidesync",
	Short:   "XMLTV guide and M3U playlist synchronization service",
	Version: version.Short(),
	Long: `guidesync ingests M3U playlists into a channel catalog, fetches XMLTV
guide feeds, reconciles playlist channels against guide channels by
name similarity, mirrors channel artwork, and serves the resulting
schedule over a REST API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return initLogging()
	}

	// These flags are not bound to viper: they only override config and
	// env values when explicitly set, preserving flag > env > config >
	// default precedence.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.guidesync.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (text, json)")
}

// initConfig reads the config file and environment variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/guidesync")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".guidesync")
	}

	viper.SetEnvPrefix("GUIDESYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// initLogging configures the default slog logger from config, with CLI
// flags taking precedence when explicitly provided.
func initLogging() error {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	if rootCmd.PersistentFlags().Changed("log-level") {
		level, _ = rootCmd.PersistentFlags().GetString("log-level")
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		format, _ = rootCmd.PersistentFlags().GetString("log-format")
	}

	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "json"
	}
	if strings.EqualFold(level, "warning") {
		level = "warn"
	}

	logCfg := config.LoggingConfig{
		Level:  strings.ToLower(level),
		Format: strings.ToLower(format),
	}

	logger := observability.NewLoggerWithWriter(logCfg, os.Stderr)
	observability.SetDefault(logger)

	return nil
}
