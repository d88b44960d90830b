package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

// TestActionRunner_CoalescesVacuumStart covers two
// vacuum_cleaner devices in different rooms, each with OnOff{true}, must
// produce exactly one Elisa::Start action covering both rooms under one
// shared id, and a single success ack must resolve both devices' outcomes.
func TestActionRunner_CoalescesVacuumStart(t *testing.T) {
	bus := newFakeBus()
	var published transport.ActionRequest
	bus.respond = func(_ string, payload []byte, handlers map[string]mqtt.MessageHandler) {
		if err := json.Unmarshal(payload, &published); err != nil {
			t.Fatalf("unmarshal action request: %v", err)
		}
		if len(published.Actions) != 1 {
			t.Fatalf("published %d actions, want 1", len(published.Actions))
		}
		msg := transport.NewActionResponseMessage(published.Actions[0].ID, transport.Ok())
		data, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal ack: %v", err)
		}
		handler, ok := handlers[published.ResponseTopic]
		if !ok {
			t.Fatalf("no handler registered for response topic %q", published.ResponseTopic)
		}
		if err := handler(published.ResponseTopic, data); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
	}

	runner := NewActionRunner(bus, nil)
	requests := []CapabilityRequest{
		{DeviceID: transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, transport.RoomBedroom), Capability: transport.NewOnOffCapability(true)},
		{DeviceID: transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, transport.RoomKitchen), Capability: transport.NewOnOffCapability(true)},
	}

	outcomes, err := runner.Run(context.Background(), "req-1", requests)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	action := published.Actions[0]
	if action.Service != transport.ServiceElisa || action.Vacuum == nil {
		t.Fatalf("published action = %+v, want an Elisa vacuum action", action)
	}
	if action.Vacuum.Kind != transport.VacuumActionStart {
		t.Errorf("Vacuum.Kind = %v, want Start", action.Vacuum.Kind)
	}
	if len(action.Vacuum.Rooms) != 2 || action.Vacuum.Rooms[0] != transport.RoomBedroom || action.Vacuum.Rooms[1] != transport.RoomKitchen {
		t.Errorf("Vacuum.Rooms = %v, want [bedroom kitchen]", action.Vacuum.Rooms)
	}

	bedroomID := transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, transport.RoomBedroom)
	kitchenID := transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, transport.RoomKitchen)

	for _, id := range []transport.DeviceId{bedroomID, kitchenID} {
		list, ok := outcomes[id]
		if !ok || len(list) != 1 {
			t.Fatalf("outcomes[%s] = %+v, want one entry", id, list)
		}
		if !list[0].Result.OK {
			t.Errorf("outcomes[%s][0].Result = %+v, want Ok", id, list[0].Result)
		}
	}

	if len(outcomes) != 2 {
		t.Errorf("outcomes has %d devices, want 2", len(outcomes))
	}
}

// TestActionRunner_NonStartVacuumCapabilitiesGetOwnIds checks that vacuum
// capabilities other than a Start each
// get their own fresh action id, rather than silently dropping after the
// first non-Start slot (the behavior of the original Rust's single-slot
// Option<ElisaAction>).
func TestActionRunner_NonStartVacuumCapabilitiesGetOwnIds(t *testing.T) {
	bus := newFakeBus()
	var published transport.ActionRequest
	bus.respond = func(_ string, payload []byte, handlers map[string]mqtt.MessageHandler) {
		if err := json.Unmarshal(payload, &published); err != nil {
			t.Fatalf("unmarshal action request: %v", err)
		}
		handler := handlers[published.ResponseTopic]
		for _, a := range published.Actions {
			msg := transport.NewActionResponseMessage(a.ID, transport.Ok())
			data, _ := json.Marshal(msg)
			if err := handler(published.ResponseTopic, data); err != nil {
				t.Fatalf("handler: %v", err)
			}
		}
	}

	runner := NewActionRunner(bus, nil)
	requests := []CapabilityRequest{
		{
			DeviceID:   transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, transport.RoomBedroom),
			Capability: transport.NewToggleCapability(transport.ToggleFunctionPause, true),
		},
		{
			DeviceID:   transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, transport.RoomBedroom),
			Capability: transport.NewModeCapability(transport.ModeFunctionWorkSpeed, transport.ModeTurbo),
		},
	}

	outcomes, err := runner.Run(context.Background(), "req-2", requests)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(published.Actions) != 2 {
		t.Fatalf("published %d actions, want 2 (one per non-start capability)", len(published.Actions))
	}
	if published.Actions[0].ID == published.Actions[1].ID {
		t.Error("both vacuum actions share an id, want distinct ids")
	}

	id := transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, transport.RoomBedroom)
	list := outcomes[id]
	if len(list) != 2 {
		t.Fatalf("outcomes[%s] = %+v, want 2 entries", id, list)
	}
	for _, o := range list {
		if !o.Result.OK {
			t.Errorf("outcome %+v, want Ok", o)
		}
	}
}

func TestActionRunner_UnsupportedCapabilityStaysDeviceUnreachable(t *testing.T) {
	bus := newFakeBus()
	bus.respond = func(string, []byte, map[string]mqtt.MessageHandler) {
		t.Fatal("dispatch should not publish anything for an unsupported-only batch")
	}

	runner := NewActionRunner(bus, nil)
	id := transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, transport.RoomBedroom)
	requests := []CapabilityRequest{
		{DeviceID: id, Capability: transport.NewRangeCapability(transport.RangeFunctionTemperature, 21, false)},
	}

	outcomes, err := runner.Run(context.Background(), "req-3", requests)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	list, ok := outcomes[id]
	if !ok || len(list) != 1 {
		t.Fatalf("outcomes[%s] = %+v, want one entry", id, list)
	}
	if list[0].Result.OK || list[0].Result.Code != transport.ActionResultCodeDeviceUnreachable {
		t.Errorf("Result = %+v, want device_unreachable", list[0].Result)
	}
}

func TestActionRunner_TemperatureSensorIsNoOp(t *testing.T) {
	bus := newFakeBus()
	bus.respond = func(string, []byte, map[string]mqtt.MessageHandler) {
		t.Fatal("sensor capabilities must never trigger a dispatch")
	}

	runner := NewActionRunner(bus, nil)
	id := transport.NewDeviceId(transport.DeviceTypeTemperatureSensor, transport.RoomHallway)
	requests := []CapabilityRequest{
		{DeviceID: id, Capability: transport.NewOnOffCapability(true)},
	}

	outcomes, err := runner.Run(context.Background(), "req-4", requests)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := outcomes[id]; ok {
		t.Errorf("outcomes contains a read-only sensor device: %+v", outcomes)
	}
	if len(outcomes) != 0 {
		t.Errorf("outcomes = %+v, want empty", outcomes)
	}
}

func TestActionRunner_FailureResponsePropagatesCode(t *testing.T) {
	bus := newFakeBus()
	var published transport.ActionRequest
	bus.respond = func(_ string, payload []byte, handlers map[string]mqtt.MessageHandler) {
		if err := json.Unmarshal(payload, &published); err != nil {
			t.Fatalf("unmarshal action request: %v", err)
		}
		msg := transport.NewActionResponseMessage(published.Actions[0].ID, transport.ErrorResult(transport.ActionResultCodeDeviceBusy, "cleaning in progress"))
		data, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal ack: %v", err)
		}
		if err := handlers[published.ResponseTopic](published.ResponseTopic, data); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}

	runner := NewActionRunner(bus, nil)
	id := transport.NewDeviceId(transport.DeviceTypeThermostat, transport.RoomLivingRoom)
	requests := []CapabilityRequest{
		{DeviceID: id, Capability: transport.NewOnOffCapability(true)},
	}

	outcomes, err := runner.Run(context.Background(), "req-5", requests)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	result := outcomes[id][0].Result
	if result.OK || result.Code != transport.ActionResultCodeDeviceBusy {
		t.Errorf("Result = %+v, want device_busy", result)
	}
}
