// voice-gateway - Smart Home Voice Assistant Bridge
//
// gateway is the voice-cloud-facing edge of the system: it serves the
// catalog/action/query HTTP surface (C1-C9) and fans requests out over
// MQTT to whichever service adapter owns the targeted device.
//
// For architecture details, see DESIGN.md.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/voice-gateway/internal/api"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/config"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/voice-gateway/internal/orchestrator"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "config.yaml"

func main() {
	fmt.Printf("voice-gateway %s (%s) built %s\n", version, commit, date)
	fmt.Println("---")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// getConfigPath returns the config file path, preferring GATEWAY_CONFIG
// over the default.
func getConfigPath() string {
	if path := os.Getenv("GATEWAY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// run wires the gateway's dependencies in order and blocks until ctx is
// cancelled.
func run(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Logging, version)
	logger.Info("starting gateway", "site", cfg.Site.ID)

	bus, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to mqtt broker: %w", err)
	}
	defer bus.Close()
	bus.SetLogger(logger)

	actionRunner := orchestrator.NewActionRunner(bus, logger)
	queryRunner := orchestrator.NewQueryRunner(bus, logger)

	server, err := api.New(api.Deps{
		Config:       cfg.API,
		JWTSecret:    cfg.Security.JWT.Secret,
		Logger:       logger,
		ActionRunner: actionRunner,
		QueryRunner:  queryRunner,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("building api server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}
	defer server.Close()

	logger.Info("gateway ready", "addr", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	<-ctx.Done()
	logger.Info("shutdown signal received, closing down")

	return nil
}
