package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"que_bridge/internal/api"
	"que_bridge/internal/auth"
	"que_bridge/internal/collector"
	"que_bridge/internal/config"
	"que_bridge/internal/httpapi"
	"que_bridge/internal/hvac"
	"que_bridge/internal/poller"
	"que_bridge/internal/publish"
	"que_bridge/internal/request"
)

var (
	coolSetpoint float64
	heatSetpoint float64
	zoneSensor   string
)

func init() {
	commandCmd.Flags().Float64Var(&coolSetpoint, "cool", 0, "cooling setpoint in °C")
	commandCmd.Flags().Float64Var(&heatSetpoint, "heat", 0, "heating setpoint in °C")
	commandCmd.Flags().StringVar(&zoneSensor, "zone", "", "sensor id of the target zone")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(commandCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the unit and serve HTTP, metrics and MQTT",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch the current status once and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()

		unit, err := buildUnit(ctx, cfg, logger)
		if err != nil {
			return err
		}
		status := unit.Snapshot()
		if status.APIError {
			return errors.New("cloud did not return a status")
		}
		return printJSON(status)
	},
}

var commandCmd = &cobra.Command{
	Use:   "command KIND",
	Short: "Send one command, e.g. ON, CLIMATE_MODE_COOL or ZONE_COOL_SET_POINT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()

		unit, err := buildUnit(ctx, cfg, logger)
		if err != nil {
			return err
		}
		req := hvac.CommandRequest{Command: args[0], Zone: zoneSensor}
		if cmd.Flags().Changed("cool") {
			req.Cool = hvac.Setpoint(coolSetpoint)
		}
		if cmd.Flags().Changed("heat") {
			req.Heat = hvac.Setpoint(heatSetpoint)
		}
		result, err := unit.Submit(ctx, req)
		if err != nil {
			return err
		}
		fmt.Println(result)
		if result != api.ResultSuccess {
			return fmt.Errorf("command %s: %s", args[0], result)
		}
		return nil
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Starting Que bridge", "listen_addr", cfg.ListenAddr, "client_name", cfg.ClientName)

	initCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	unit, err := buildUnit(initCtx, cfg, logger)
	cancel()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collector.NewHvacCollector(unit, logger))
	registry.MustRegister(request.MetricsCollectors()...)
	registry.MustRegister(auth.MetricsCollectors()...)
	registry.MustRegister(api.MetricsCollectors()...)
	registry.MustRegister(hvac.MetricsCollectors()...)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/health", healthHandler)
	httpapi.NewServer(unit, logger).RegisterRoutes(r)

	var sinks []poller.Sink
	if cfg.MQTT.Broker != "" {
		bridge, err := startBridge(ctx, cfg, unit, logger)
		if err != nil {
			return err
		}
		defer bridge.Stop()
		sinks = append(sinks, bridge)
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	pollErr := make(chan error, 1)
	go func() {
		pollErr <- poller.New(unit, cfg.RefreshInterval, cfg.SoftRefreshInterval, cfg.RequestTimeout, logger, sinks...).Run(pollCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	case err := <-pollErr:
		runErr = err
	}
	stopPolling()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	logger.Info("Bridge stopped")
	return runErr
}

func startBridge(ctx context.Context, cfg *config.Config, unit *hvac.Unit, logger *slog.Logger) (*publish.Bridge, error) {
	prefix := strings.TrimRight(cfg.MQTT.TopicPrefix, "/") + "/" + unit.Serial()
	clientID := cfg.MQTT.ClientID
	if clientID == "" {
		clientID = "que_bridge-" + unit.Serial()
	}

	client, err := publish.Connect(publish.ConnectOptions{
		Broker:    cfg.MQTT.Broker,
		ClientID:  clientID,
		WillTopic: prefix + "/availability",
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect mqtt: %w", err)
	}

	bridge := publish.NewBridge(client, unit, prefix, logger)
	if err := bridge.Start(ctx); err != nil {
		client.Disconnect()
		return nil, fmt.Errorf("start mqtt bridge: %w", err)
	}
	if err := bridge.Publish(); err != nil {
		logger.Warn("Failed to publish state", "error", err)
	}
	return bridge, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// healthHandler responds to health check requests.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK\n"))
}
