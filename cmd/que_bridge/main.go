package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"que_bridge/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "que_bridge",
	Short: "Actron Que cloud bridge",
	Long:  `Polls an Actron Que air conditioner through the vendor cloud and exposes it over HTTP, Prometheus and MQTT.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("QUE_CONFIG"), "path to the YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration and builds the logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg.Log.Level, cfg.Log.Format), nil
}

// setupLogger creates a structured logger based on configuration.
func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
