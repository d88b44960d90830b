// switch-adapter is the Elisheba service: it drives the Sonoff DIY
// switches that control room lighting, answering actions over MQTT and
// broadcasting state changes it discovers via periodic mDNS polling.
//
// The original elisheba binary keeps a live mDNS socket open and blocks on
// unsolicited device announcements; this client's Discover instead runs a
// bounded discovery pass per call, so the push side is a poll loop over
// the configured device ids rather than a passive read (see DESIGN.md).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nerrad567/voice-gateway/internal/adapter"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/config"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/voice-gateway/internal/sonoff"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "config.yaml"
	discoverTimeout   = 5 * time.Second
	pollInterval      = 30 * time.Second
	controlTimeout    = 5 * time.Second
)

func main() {
	fmt.Printf("voice-gateway switch-adapter %s (%s) built %s\n", version, commit, date)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getConfigPath() string {
	if path := os.Getenv("SWITCH_ADAPTER_CONFIG"); path != "" {
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
	logger.Info("starting switch-adapter")

	bus, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to mqtt broker: %w", err)
	}
	defer bus.Close()
	bus.SetLogger(logger)

	keys, err := parseKeys(cfg.Protocols.Sonoff.Keys)
	if err != nil {
		return fmt.Errorf("parsing sonoff keys: %w", err)
	}

	a := &app{
		bus:           bus,
		sonoff:        sonoff.NewClient(),
		http:          &http.Client{Timeout: controlTimeout},
		keys:          keys,
		roomDeviceIDs: cfg.Protocols.Sonoff.RoomDeviceIDs,
		logger:        logger,
		lastEnabled:   make(map[transport.Room]bool),
	}

	supervisor := adapter.NewSupervisor(adapter.Config{
		Name:    "sonoff",
		Connect: a.poll,
	}, logger)
	a.markConnected = supervisor.MarkConnected

	if err := bus.Subscribe(transport.ActionRequestTopic.String(), 1, a.handleActionRequest); err != nil {
		return fmt.Errorf("subscribing to %s: %w", transport.ActionRequestTopic, err)
	}
	defer bus.Unsubscribe(transport.ActionRequestTopic.String())

	logger.Info("switch-adapter ready")

	return supervisor.Run(ctx)
}

func parseKeys(raw map[string]string) (map[string]sonoff.Key, error) {
	keys := make(map[string]sonoff.Key, len(raw))
	for deviceID, hexKey := range raw {
		key, err := sonoff.ParseKey(hexKey)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", deviceID, err)
		}
		keys[deviceID] = key
	}
	return keys, nil
}

// app wires the MQTT action loop and the mDNS poll loop to the Sonoff
// client.
type app struct {
	bus    *mqtt.Client
	sonoff *sonoff.Client
	http   *http.Client

	keys          map[string]sonoff.Key
	roomDeviceIDs map[string]string

	logger        *logging.Logger
	markConnected func()

	mu          sync.Mutex
	lastEnabled map[transport.Room]bool
}

// handleActionRequest runs every Elisheba action in the batch, grounded on
// bin/elisheba/src/lib.rs's handle_action_request.
func (a *app) handleActionRequest(_ string, payload []byte) error {
	var request transport.ActionRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		a.logger.Warn("switch-adapter: decoding action request", "error", err)
		return err
	}

	for _, action := range request.Actions {
		if action.Service != transport.ServiceElisheba || action.Light == nil {
			continue
		}

		result := a.runAction(*action.Light)
		response := transport.NewActionResponseMessage(action.ID, result)

		respPayload, err := json.Marshal(response)
		if err != nil {
			a.logger.Error("switch-adapter: encoding action response", "error", err)
			continue
		}
		if err := a.bus.Publish(request.ResponseTopic, respPayload, 1, false); err != nil {
			a.logger.Error("switch-adapter: publishing action response", "error", err, "topic", request.ResponseTopic)
		}
	}
	return nil
}

func (a *app) runAction(action transport.LightAction) transport.ActionResult {
	if action.Kind != transport.LightActionOnOff {
		return transport.ErrorResult(transport.ActionResultCodeInvalidAction, "unknown light action kind")
	}

	deviceID, key, ok := a.deviceFor(action.Room)
	if !ok {
		return transport.ErrorResult(transport.ActionResultCodeInvalidAction, "no light configured for room")
	}

	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	if err := a.sonoff.SetSwitch(ctx, a.http, deviceID, action.Value, key); err != nil {
		a.logger.Warn("switch-adapter: set switch failed", "room", string(action.Room), "error", err)
		return transport.ErrorResult(transport.ActionResultCodeDeviceUnreachable, err.Error())
	}

	a.publishIfChanged(action.Room, action.Value)
	return transport.Ok()
}

func (a *app) deviceFor(room transport.Room) (deviceID string, key sonoff.Key, ok bool) {
	deviceID, ok = a.roomDeviceIDs[room.String()]
	if !ok {
		return "", sonoff.Key{}, false
	}
	key, ok = a.keys[deviceID]
	return deviceID, key, ok
}

// poll is the adapter.ConnectFunc: runs an initial discovery pass over
// every configured device, then periodically re-discovers to detect
// state changes and broadcast them, until ctx is cancelled.
func (a *app) poll(ctx context.Context) error {
	ids := a.deviceIDs()

	devices, err := a.sonoff.Discover(ctx, ids, discoverTimeout)
	if err != nil {
		return err
	}
	if a.markConnected != nil {
		a.markConnected()
	}
	a.applyDevices(devices)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			devices, err := a.sonoff.Discover(ctx, ids, discoverTimeout)
			if err != nil {
				a.logger.Warn("switch-adapter: discovery poll failed", "error", err)
				continue
			}
			a.applyDevices(devices)
		}
	}
}

func (a *app) deviceIDs() []string {
	ids := make([]string, 0, len(a.roomDeviceIDs))
	for _, id := range a.roomDeviceIDs {
		ids = append(ids, id)
	}
	return ids
}

// applyDevices publishes a state update for each discovered device whose
// switch state differs from what was last reported, grounded on
// bin/elisheba/src/main.rs's subscribe_state loop and lib.rs's Storage.
func (a *app) applyDevices(devices []sonoff.Device) {
	for _, device := range devices {
		room, ok := a.roomFor(device.ID)
		if !ok {
			continue
		}

		enabled, err := sonoff.IsEnabled(device)
		if err != nil {
			a.logger.Warn("switch-adapter: reading switch state", "device_id", device.ID, "error", err)
			continue
		}

		if !a.recordChange(room, enabled) {
			continue
		}

		a.logger.Info("light state changed", "room", string(room), "is_enabled", enabled)
		a.publish(transport.NewLightUpdate(transport.LightState{Room: room, IsEnabled: enabled}))
	}
}

// publishIfChanged records the value an action just set so the next poll
// doesn't redundantly republish it, and broadcasts immediately so the
// reporter doesn't wait out a full pollInterval for a cloud-initiated
// change to show up.
func (a *app) publishIfChanged(room transport.Room, enabled bool) {
	if !a.recordChange(room, enabled) {
		return
	}
	a.publish(transport.NewLightUpdate(transport.LightState{Room: room, IsEnabled: enabled}))
}

// recordChange reports whether enabled differs from the last value
// recorded for room, updating the record either way.
func (a *app) recordChange(room transport.Room, enabled bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if last, seen := a.lastEnabled[room]; seen && last == enabled {
		return false
	}
	a.lastEnabled[room] = enabled
	return true
}

func (a *app) publish(update transport.Update) {
	payload, err := json.Marshal(update)
	if err != nil {
		a.logger.Error("switch-adapter: encoding state update", "error", err)
		return
	}
	if err := a.bus.Publish(transport.StateTopic.String(), payload, 1, false); err != nil {
		a.logger.Error("switch-adapter: publishing state update", "error", err)
	}
}

func (a *app) roomFor(deviceID string) (transport.Room, bool) {
	for roomStr, id := range a.roomDeviceIDs {
		if id == deviceID {
			room, err := transport.ParseRoom(roomStr)
			if err != nil {
				return "", false
			}
			return room, true
		}
	}
	return "", false
}
