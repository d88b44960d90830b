// hvac-adapter is the Elizabeth service: it drives the Inspinia/Astrum hub
// that controls the site's thermostats and recuperator, answering actions
// and state queries over MQTT and forwarding the hub's own push updates as
// state broadcasts.
//
// Unlike the vacuum's request/response RPC or the switches' discover-and-
// poll model, Inspinia is a persistent WebSocket session that pushes
// unsolicited port updates. A single goroutine owns the read side; writes
// (register, keep-alive, set-value) share the connection behind its own
// internal lock (see inspinia.WsClient), so actions may run concurrently
// with the read loop.
package main

import (
	"context"
	"crypto/md5" //nolint:gosec // not a security use, matches the hub's own target-id derivation
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/voice-gateway/internal/adapter"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/config"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/voice-gateway/internal/inspinia"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath    = "config.yaml"
	templateFetchTimeout = 30 * time.Second
	setValueTimeout      = 5 * time.Second

	// registerDeviceType/registerDeviceName/registerPushToken are the fixed
	// register-message fields the hub expects, grounded on
	// bin/elizabeth/src/inspinia_client/mod.rs's
	// RegisterMessage::new("2", "alisa", "").
	registerDeviceType = "2"
	registerDeviceName = "alisa"
	registerPushToken  = ""
)

func main() {
	fmt.Printf("voice-gateway hvac-adapter %s (%s) built %s\n", version, commit, date)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getConfigPath() string {
	if path := os.Getenv("HVAC_ADAPTER_CONFIG"); path != "" {
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
	logger.Info("starting hvac-adapter")

	bus, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to mqtt broker: %w", err)
	}
	defer bus.Close()
	bus.SetLogger(logger)

	inspiniaCfg := cfg.Protocols.Inspinia
	targetID := deriveTargetID(inspiniaCfg.Token)

	fetcher := inspinia.NewTemplateFetcher(
		&http.Client{Timeout: templateFetchTimeout},
		inspiniaCfg.BasicAuthUser,
		inspiniaCfg.BasicAuthPassword,
		inspiniaCfg.TemplateCacheDir,
	)
	templatePath, err := fetcher.FetchTemplate(ctx, targetID)
	if err != nil {
		return fmt.Errorf("fetching inspinia template: %w", err)
	}

	manager, err := inspinia.NewDeviceManager(templatePath)
	if err != nil {
		return fmt.Errorf("opening inspinia device manager: %w", err)
	}
	defer manager.Close()

	index, err := buildDeviceIndex(manager, inspiniaCfg.RoomIDs)
	if err != nil {
		return fmt.Errorf("indexing inspinia devices: %w", err)
	}

	a := &app{
		bus:      bus,
		clientID: inspiniaCfg.ClientID,
		targetID: targetID,
		index:    index,
		store:    newCapabilityStore(),
		logger:   logger,
	}

	supervisor := adapter.NewSupervisor(adapter.Config{
		Name:    "inspinia",
		Connect: a.connect,
	}, logger)
	a.markConnected = supervisor.MarkConnected

	if err := bus.Subscribe(transport.ActionRequestTopic.String(), 1, a.handleActionRequest); err != nil {
		return fmt.Errorf("subscribing to %s: %w", transport.ActionRequestTopic, err)
	}
	defer bus.Unsubscribe(transport.ActionRequestTopic.String())

	if err := bus.Subscribe(transport.StateRequestTopic.String(), 1, a.handleStateRequest); err != nil {
		return fmt.Errorf("subscribing to %s: %w", transport.StateRequestTopic, err)
	}
	defer bus.Unsubscribe(transport.StateRequestTopic.String())

	logger.Info("hvac-adapter ready")

	return supervisor.Run(ctx)
}

// deriveTargetID reproduces the hub's own token-to-target-id scheme:
// md5(token) hex-encoded and dashed into UUID form, grounded on
// bin/elizabeth/src/inspinia_client/mod.rs's token_as_uuid.
func deriveTargetID(token string) string {
	sum := md5.Sum([]byte(token)) //nolint:gosec // not a security use, see import comment
	h := hex.EncodeToString(sum[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}

// handleActionRequest runs every Elizabeth action in the batch, grounded on
// bin/elizabeth/src/main.rs's subscribe_action "elizabeth/action" arm.
func (a *app) handleActionRequest(_ string, payload []byte) error {
	var request transport.ActionRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		a.logger.Warn("hvac-adapter: decoding action request", "error", err)
		return err
	}

	for _, action := range request.Actions {
		if action.Service != transport.ServiceElizabeth || action.Hvac == nil {
			continue
		}

		result := a.runAction(*action.Hvac)
		response := transport.NewActionResponseMessage(action.ID, result)

		respPayload, err := json.Marshal(response)
		if err != nil {
			a.logger.Error("hvac-adapter: encoding action response", "error", err)
			continue
		}
		if err := a.bus.Publish(request.ResponseTopic, respPayload, 1, false); err != nil {
			a.logger.Error("hvac-adapter: publishing action response", "error", err, "topic", request.ResponseTopic)
		}
	}
	return nil
}

// handleStateRequest answers a state query for every requested thermostat
// or recuperator device from the local capability cache — Inspinia has no
// query RPC, only pushes, so this mirrors bin/elizabeth/src/main.rs's
// "request" arm reading from its Storage/Client cache rather than the hub.
func (a *app) handleStateRequest(_ string, payload []byte) error {
	var request transport.StateRequestMessage
	if err := json.Unmarshal(payload, &request); err != nil {
		a.logger.Warn("hvac-adapter: decoding state request", "error", err)
		return err
	}

	for _, id := range request.DeviceIds {
		if id.DeviceType != transport.DeviceTypeThermostat && id.DeviceType != transport.DeviceTypeRecuperator {
			continue
		}

		current := transport.CurrentState{
			Room:         id.Room,
			DeviceType:   id.DeviceType,
			Capabilities: a.store.capabilities(id),
		}

		response := transport.NewHvacStateResponse(current)
		respPayload, err := json.Marshal(response)
		if err != nil {
			a.logger.Error("hvac-adapter: encoding state response", "error", err)
			continue
		}
		if err := a.bus.Publish(request.ResponseTopic, respPayload, 1, false); err != nil {
			a.logger.Error("hvac-adapter: publishing state response", "error", err, "topic", request.ResponseTopic)
		}
	}
	return nil
}
