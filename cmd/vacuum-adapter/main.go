// vacuum-adapter is the Elisa service: it owns the one physical Roborock
// vacuum and answers the action/state request topics on its behalf.
//
// Access to the vacuum is serialized through a single queue goroutine, the
// same shape as elisa's VacuumQueue — one in-flight RPC at a time, requests
// and status polls alike.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/voice-gateway/internal/adapter"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/config"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/voice-gateway/internal/roborock"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "config.yaml"

func main() {
	fmt.Printf("voice-gateway vacuum-adapter %s (%s) built %s\n", version, commit, date)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getConfigPath() string {
	if path := os.Getenv("VACUUM_ADAPTER_CONFIG"); path != "" {
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
	logger.Info("starting vacuum-adapter")

	bus, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to mqtt broker: %w", err)
	}
	defer bus.Close()
	bus.SetLogger(logger)

	queue := newVacuumQueue(cfg.Protocols.Roborock, logger)

	supervisor := adapter.NewSupervisor(adapter.Config{
		Name:    "roborock",
		Connect: queue.connect,
	}, logger)
	queue.markConnected = supervisor.MarkConnected

	go queue.run(ctx)

	a := &app{bus: bus, queue: queue, logger: logger}
	if err := a.subscribe(); err != nil {
		return err
	}
	defer a.unsubscribe()

	logger.Info("vacuum-adapter ready")

	return supervisor.Run(ctx)
}

// app wires the MQTT subscriptions to the vacuum queue.
type app struct {
	bus    *mqtt.Client
	queue  *vacuumQueue
	logger *logging.Logger
}

func (a *app) subscribe() error {
	if err := a.bus.Subscribe(transport.ActionRequestTopic.String(), 1, a.handleActionRequest); err != nil {
		return fmt.Errorf("subscribing to %s: %w", transport.ActionRequestTopic, err)
	}
	if err := a.bus.Subscribe(transport.StateRequestTopic.String(), 1, a.handleStateRequest); err != nil {
		return fmt.Errorf("subscribing to %s: %w", transport.StateRequestTopic, err)
	}
	return nil
}

func (a *app) unsubscribe() {
	a.bus.Unsubscribe(transport.ActionRequestTopic.String())
	a.bus.Unsubscribe(transport.StateRequestTopic.String())
}

// handleActionRequest runs every Elisa action in the batch and publishes
// one ActionResponseMessage per action id, grounded on
// bin/elisa/src/lib.rs's handle_action_request.
func (a *app) handleActionRequest(_ string, payload []byte) error {
	var request transport.ActionRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		a.logger.Warn("vacuum-adapter: decoding action request", "error", err)
		return err
	}

	for _, action := range request.Actions {
		if action.Service != transport.ServiceElisa || action.Vacuum == nil {
			continue
		}

		result := a.queue.runAction(*action.Vacuum)
		response := transport.NewActionResponseMessage(action.ID, result)

		respPayload, err := json.Marshal(response)
		if err != nil {
			a.logger.Error("vacuum-adapter: encoding action response", "error", err)
			continue
		}
		if err := a.bus.Publish(request.ResponseTopic, respPayload, 1, false); err != nil {
			a.logger.Error("vacuum-adapter: publishing action response", "error", err, "topic", request.ResponseTopic)
		}
	}
	return nil
}

// handleStateRequest answers a state query with the vacuum's status iff
// the request names a vacuum_cleaner device, grounded on
// bin/elisa/src/lib.rs's handle_state_request.
func (a *app) handleStateRequest(_ string, payload []byte) error {
	var request transport.StateRequestMessage
	if err := json.Unmarshal(payload, &request); err != nil {
		a.logger.Warn("vacuum-adapter: decoding state request", "error", err)
		return err
	}

	wanted := false
	for _, id := range request.DeviceIds {
		if id.DeviceType == transport.DeviceTypeVacuumCleaner {
			wanted = true
			break
		}
	}
	if !wanted {
		return nil
	}

	state, err := a.queue.status()
	if err != nil {
		a.logger.Warn("vacuum-adapter: fetching status for state request", "error", err)
		return nil
	}

	response := transport.NewVacuumStateResponse(state)
	respPayload, err := json.Marshal(response)
	if err != nil {
		a.logger.Error("vacuum-adapter: encoding state response", "error", err)
		return nil
	}
	if err := a.bus.Publish(request.ResponseTopic, respPayload, 1, false); err != nil {
		a.logger.Error("vacuum-adapter: publishing state response", "error", err, "topic", request.ResponseTopic)
	}
	return nil
}

var errVacuumBroken = errors.New("vacuum-adapter: vacuum connection broken")
