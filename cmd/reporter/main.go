// reporter bridges the gateway's internal state bus to the voice cloud's
// state-reporting callback: it subscribes to every device's state updates
// and pushes the accumulated delta to the cloud on a short coalescing
// window (C10).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/voice-gateway/internal/infrastructure/config"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/voice-gateway/internal/reporter"
	"github.com/nerrad567/voice-gateway/internal/store"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "config.yaml"

func main() {
	fmt.Printf("voice-gateway reporter %s (%s) built %s\n", version, commit, date)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getConfigPath() string {
	if path := os.Getenv("REPORTER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func run(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Logging, version)
	logger.Info("starting reporter")

	bus, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to mqtt broker: %w", err)
	}
	defer bus.Close()
	bus.SetLogger(logger)

	r := reporter.New(bus, store.New(), cfg.Cloud, logger)

	logger.Info("reporter ready")
	return r.Run(ctx)
}
