package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/voice-gateway/internal/inspinia"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

// deviceEntry is one resolved thermostat or recuperator control: its
// transport identity alongside the inspinia.Device used to look up ports.
type deviceEntry struct {
	id     transport.DeviceId
	device inspinia.Device
}

// deviceIndex resolves both directions between the transport's (room,
// device_type) model and Inspinia's own port ids: actions look a device up
// by id to find the port to write, incoming port pushes look a port up by
// id to find which device and capability it reports.
type deviceIndex struct {
	byID   map[transport.DeviceId]deviceEntry
	byPort map[string]portRef
}

type portRef struct {
	id   transport.DeviceId
	name inspinia.PortName
}

// buildDeviceIndex resolves every configured room against the template's
// thermostat and recuperator controls once at startup, grounded on
// bin/elizabeth/src/inspinia_client/mod.rs's get_devices, which re-derives
// the same fixed table on every read instead of caching it.
func buildDeviceIndex(manager *inspinia.DeviceManager, roomIDs map[string]string) (*deviceIndex, error) {
	idx := &deviceIndex{
		byID:   make(map[transport.DeviceId]deviceEntry),
		byPort: make(map[string]portRef),
	}

	for roomStr, inspiniaRoomID := range roomIDs {
		room, err := transport.ParseRoom(roomStr)
		if err != nil {
			return nil, fmt.Errorf("room %q: %w", roomStr, err)
		}

		if device, err := manager.GetThermostatInRoom(inspiniaRoomID); err == nil {
			idx.add(transport.NewDeviceId(transport.DeviceTypeThermostat, room), device)
		}
		if device, err := manager.GetRecuperatorInRoom(inspiniaRoomID); err == nil {
			idx.add(transport.NewDeviceId(transport.DeviceTypeRecuperator, room), device)
		}
	}

	return idx, nil
}

func (idx *deviceIndex) add(id transport.DeviceId, device inspinia.Device) {
	idx.byID[id] = deviceEntry{id: id, device: device}
	for name, port := range device.Ports {
		idx.byPort[port.ID] = portRef{id: id, name: name}
	}
}

func (idx *deviceIndex) lookup(id transport.DeviceId) (inspinia.Device, bool) {
	entry, ok := idx.byID[id]
	return entry.device, ok
}

func (idx *deviceIndex) portOwner(portID string) (portRef, bool) {
	ref, ok := idx.byPort[portID]
	return ref, ok
}

// capabilityStore is the local cache of each device's last-known
// capability values, grounded on bin/elizabeth/src/client/storage.rs's
// Storage — Inspinia has no state query, so state responses are answered
// out of this cache rather than a live round-trip.
type capabilityStore struct {
	mu   sync.Mutex
	byID map[transport.DeviceId][]transport.Capability
}

func newCapabilityStore() *capabilityStore {
	return &capabilityStore{byID: make(map[transport.DeviceId][]transport.Capability)}
}

// apply merges c into the device's capability list, replacing any existing
// entry of the same kind/function or appending a new one, mirroring
// Storage::apply_state's per-capability-kind match.
func (s *capabilityStore) apply(id transport.DeviceId, c transport.Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()

	caps := s.byID[id]
	for i, existing := range caps {
		if sameCapabilityFacet(existing, c) {
			caps[i] = c
			s.byID[id] = caps
			return
		}
	}
	s.byID[id] = append(caps, c)
}

func (s *capabilityStore) capabilities(id transport.DeviceId) []transport.Capability {
	s.mu.Lock()
	defer s.mu.Unlock()
	caps := s.byID[id]
	out := make([]transport.Capability, len(caps))
	copy(out, caps)
	return out
}

func sameCapabilityFacet(a, b transport.Capability) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case transport.CapabilityKindMode:
		return a.ModeFunction == b.ModeFunction
	case transport.CapabilityKindToggle:
		return a.ToggleFunction == b.ToggleFunction
	case transport.CapabilityKindRange:
		return a.RangeFunction == b.RangeFunction
	default:
		return true
	}
}

// app wires the MQTT action/state loops and the Inspinia read loop behind
// one capability cache and device index.
type app struct {
	bus      *mqtt.Client
	clientID string
	targetID string
	index    *deviceIndex
	store    *capabilityStore
	logger   *logging.Logger

	markConnected func()

	mu     sync.Mutex
	client *inspinia.WsClient
}

func (a *app) setClient(c *inspinia.WsClient) {
	a.mu.Lock()
	a.client = c
	a.mu.Unlock()
}

func (a *app) getClient() *inspinia.WsClient {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

// connect is the adapter.ConnectFunc: dials the hub, registers, and runs
// the read and keep-alive loops until one of them fails or ctx is
// cancelled.
func (a *app) connect(ctx context.Context) error {
	client, err := inspinia.Connect(ctx, a.clientID, a.targetID)
	if err != nil {
		return err
	}

	if err := client.Register(ctx, registerDeviceType, registerDeviceName, registerPushToken); err != nil {
		client.Close()
		return fmt.Errorf("registering with inspinia hub: %w", err)
	}

	a.setClient(client)
	if a.markConnected != nil {
		a.markConnected()
	}
	defer func() {
		a.setClient(nil)
		client.Close()
	}()

	readErrs := make(chan error, 1)
	go func() { readErrs <- a.readLoop(ctx, client) }()

	keepAliveErrs := make(chan error, 1)
	go func() { keepAliveErrs <- client.RunKeepAlive(ctx) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-readErrs:
		return err
	case err := <-keepAliveErrs:
		return err
	}
}

// readLoop blocks on ReadMessage, translating every port update into a
// capability-store write and a broadcast, until the connection fails.
func (a *app) readLoop(ctx context.Context, client *inspinia.WsClient) error {
	for {
		msg, err := client.ReadMessage()
		if err != nil {
			return err
		}
		if msg.Update == nil {
			continue
		}
		a.applyUpdate(ctx, client, *msg.Update)
	}
}

func (a *app) applyUpdate(ctx context.Context, client *inspinia.WsClient, update inspinia.UpdateMessageContent) {
	ref, ok := a.index.portOwner(update.ID)
	if !ok {
		return
	}

	capability, ok, err := capabilityForPort(ref.name, update.Value)
	if err != nil {
		a.logger.Warn("hvac-adapter: decoding port update", "port_id", update.ID, "error", err)
		return
	}
	if !ok {
		return
	}

	a.store.apply(ref.id, capability)
	a.logger.Info("hvac state changed", "room", string(ref.id.Room), "device_type", string(ref.id.DeviceType), "port", string(ref.name))

	payload := transport.NewHvacUpdate(transport.HvacState{
		Room:       ref.id.Room,
		DeviceType: ref.id.DeviceType,
		Capability: capability,
	})
	a.publish(payload)

	if err := client.AcknowledgeUpdate(ctx, update.ID); err != nil {
		a.logger.Warn("hvac-adapter: acknowledging update", "port_id", update.ID, "error", err)
	}
}

func (a *app) publish(update transport.Update) {
	payload, err := json.Marshal(update)
	if err != nil {
		a.logger.Error("hvac-adapter: encoding state update", "error", err)
		return
	}
	if err := a.bus.Publish(transport.StateTopic.String(), payload, 1, false); err != nil {
		a.logger.Error("hvac-adapter: publishing state update", "error", err)
	}
}

// runAction resolves the action's target device, writes the corresponding
// port, and updates the local cache so a subsequent relative-temperature
// action or state query sees the value we just set without waiting for the
// hub's own echo.
func (a *app) runAction(action transport.HvacAction) transport.ActionResult {
	id := transport.NewDeviceId(action.DeviceType, action.Room)
	device, ok := a.index.lookup(id)
	if !ok {
		return transport.ErrorResult(transport.ActionResultCodeInvalidAction, "no inspinia device configured for room")
	}

	client := a.getClient()
	if client == nil {
		return transport.DeviceUnreachable()
	}

	ctx, cancel := context.WithTimeout(context.Background(), setValueTimeout)
	defer cancel()

	switch action.Kind {
	case transport.HvacActionOnOff:
		return a.setOnOff(ctx, client, id, device, action.OnOffValue)
	case transport.HvacActionSetTemperature:
		return a.setTemperature(ctx, client, id, device, action.Temperature, action.Relative)
	case transport.HvacActionSetFanSpeed:
		return a.setFanSpeed(ctx, client, id, device, action.Mode)
	default:
		return transport.ErrorResult(transport.ActionResultCodeInvalidAction, "unknown hvac action kind")
	}
}

func (a *app) setOnOff(ctx context.Context, client *inspinia.WsClient, id transport.DeviceId, device inspinia.Device, value bool) transport.ActionResult {
	port, err := device.Port(inspinia.PortNameOnOff)
	if err != nil {
		return transport.ErrorResult(transport.ActionResultCodeInvalidAction, err.Error())
	}

	wireValue := "0"
	if value {
		wireValue = "1"
	}
	if err := client.SetValue(ctx, port.ID, wireValue); err != nil {
		a.logger.Warn("hvac-adapter: set on_off failed", "error", err)
		return transport.ErrorResult(transport.ActionResultCodeDeviceUnreachable, err.Error())
	}

	capability := transport.NewOnOffCapability(value)
	a.store.apply(id, capability)
	a.publish(transport.NewHvacUpdate(transport.HvacState{Room: id.Room, DeviceType: id.DeviceType, Capability: capability}))
	return transport.Ok()
}

func (a *app) setTemperature(ctx context.Context, client *inspinia.WsClient, id transport.DeviceId, device inspinia.Device, value float32, relative bool) transport.ActionResult {
	port, err := device.Port(inspinia.PortNameSetTemp)
	if err != nil {
		return transport.ErrorResult(transport.ActionResultCodeInvalidAction, err.Error())
	}

	target := value
	if relative {
		current, ok := currentTemperature(a.store.capabilities(id))
		if !ok {
			return transport.ErrorResult(transport.ActionResultCodeInvalidValue, "no known temperature to apply a relative adjustment to")
		}
		target = current + value
	}

	if err := client.SetValue(ctx, port.ID, strconv.FormatFloat(float64(target), 'f', 1, 32)); err != nil {
		a.logger.Warn("hvac-adapter: set temperature failed", "error", err)
		return transport.ErrorResult(transport.ActionResultCodeDeviceUnreachable, err.Error())
	}

	capability := transport.NewRangeCapability(transport.RangeFunctionTemperature, target, false)
	a.store.apply(id, capability)
	a.publish(transport.NewHvacUpdate(transport.HvacState{Room: id.Room, DeviceType: id.DeviceType, Capability: capability}))
	return transport.Ok()
}

func (a *app) setFanSpeed(ctx context.Context, client *inspinia.WsClient, id transport.DeviceId, device inspinia.Device, mode transport.Mode) transport.ActionResult {
	port, err := device.Port(inspinia.PortNameFanSpeed)
	if err != nil {
		return transport.ErrorResult(transport.ActionResultCodeInvalidAction, err.Error())
	}

	speed, ok := fanSpeedFromMode(mode)
	if !ok {
		return transport.ErrorResult(transport.ActionResultCodeInvalidValue, "unsupported fan speed mode")
	}

	if err := client.SetValue(ctx, port.ID, string(speed)); err != nil {
		a.logger.Warn("hvac-adapter: set fan speed failed", "error", err)
		return transport.ErrorResult(transport.ActionResultCodeDeviceUnreachable, err.Error())
	}

	capability := transport.NewModeCapability(transport.ModeFunctionFanSpeed, mode)
	a.store.apply(id, capability)
	a.publish(transport.NewHvacUpdate(transport.HvacState{Room: id.Room, DeviceType: id.DeviceType, Capability: capability}))
	return transport.Ok()
}

func currentTemperature(caps []transport.Capability) (float32, bool) {
	for _, c := range caps {
		if c.Kind == transport.CapabilityKindRange && c.RangeFunction == transport.RangeFunctionTemperature {
			return c.RangeValue, true
		}
	}
	return 0, false
}

// capabilityForPort translates an incoming port value into the transport
// capability it represents, grounded on state_payload.rs's
// Capability::from(PortName) mapping. ON_OFF, SET_TEMP/ROOM_TEMP and
// FAN_SPEED carry the facets the transport models for HVAC (on_off, a
// single temperature range and the fan_speed mode); MODE only identifies a
// thermostat control and has no actionable facet of its own, so its updates
// are dropped.
func capabilityForPort(name inspinia.PortName, raw string) (transport.Capability, bool, error) {
	switch name {
	case inspinia.PortNameOnOff:
		enabled, err := strconv.ParseBool(onOffAsBoolString(raw))
		if err != nil {
			return transport.Capability{}, false, fmt.Errorf("parsing on_off value %q: %w", raw, err)
		}
		return transport.NewOnOffCapability(enabled), true, nil
	case inspinia.PortNameSetTemp, inspinia.PortNameRoomTemp:
		value, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return transport.Capability{}, false, fmt.Errorf("parsing temperature value %q: %w", raw, err)
		}
		return transport.NewRangeCapability(transport.RangeFunctionTemperature, float32(value), false), true, nil
	case inspinia.PortNameFanSpeed:
		mode, ok := modeFromFanSpeed(inspinia.FanSpeed(raw))
		if !ok {
			return transport.Capability{}, false, fmt.Errorf("unknown fan speed value %q", raw)
		}
		return transport.NewModeCapability(transport.ModeFunctionFanSpeed, mode), true, nil
	case inspinia.PortNameMode:
		return transport.Capability{}, false, nil
	default:
		return transport.Capability{}, false, nil
	}
}

// onOffAsBoolString normalizes the hub's "1"/"0" on_off wire values into
// strconv.ParseBool's accepted form.
func onOffAsBoolString(raw string) string {
	if raw == "1" {
		return "true"
	}
	if raw == "0" {
		return "false"
	}
	return raw
}

func fanSpeedFromMode(m transport.Mode) (inspinia.FanSpeed, bool) {
	switch m {
	case transport.ModeQuiet, transport.ModeLow:
		return inspinia.FanSpeedLow, true
	case transport.ModeNormal, transport.ModeMedium:
		return inspinia.FanSpeedMedium, true
	case transport.ModeHigh, transport.ModeTurbo:
		return inspinia.FanSpeedHigh, true
	default:
		return "", false
	}
}

func modeFromFanSpeed(f inspinia.FanSpeed) (transport.Mode, bool) {
	switch f {
	case inspinia.FanSpeedLow:
		return transport.ModeLow, true
	case inspinia.FanSpeedMedium:
		return transport.ModeMedium, true
	case inspinia.FanSpeedHigh:
		return transport.ModeHigh, true
	default:
		return "", false
	}
}
