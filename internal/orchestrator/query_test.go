package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

func TestQueryRunner_TranslatesElizabethResponse(t *testing.T) {
	bus := newFakeBus()
	id := transport.NewDeviceId(transport.DeviceTypeThermostat, transport.RoomBedroom)

	bus.respond = func(_ string, payload []byte, handlers map[string]mqtt.MessageHandler) {
		var req transport.StateRequestMessage
		if err := json.Unmarshal(payload, &req); err != nil {
			t.Fatalf("unmarshal state request: %v", err)
		}
		resp := transport.NewHvacStateResponse(transport.CurrentState{
			Room:         transport.RoomBedroom,
			DeviceType:   transport.DeviceTypeThermostat,
			Capabilities: []transport.Capability{transport.NewOnOffCapability(true)},
		})
		data, err := json.Marshal(resp)
		if err != nil {
			t.Fatalf("marshal response: %v", err)
		}
		if err := handlers[req.ResponseTopic](req.ResponseTopic, data); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}

	runner := NewQueryRunner(bus, nil)
	devices, err := runner.Run(context.Background(), "q-1", []transport.DeviceId{id})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(devices) != 1 || devices[0].ID != id {
		t.Fatalf("devices = %+v, want one entry for %s", devices, id)
	}
	if len(devices[0].Capabilities) != 1 || !devices[0].Capabilities[0].OnOffValue {
		t.Errorf("Capabilities = %+v", devices[0].Capabilities)
	}
}

// TestQueryRunner_SingleVacuumResponseAnswersEveryRequestedRoom mirrors the
// catalog shape behind S6: the vacuum is one physical device exposed as a
// vacuum_cleaner/<room> entry per cleanable room, so one VacuumState
// response must resolve every requested vacuum id at once.
func TestQueryRunner_SingleVacuumResponseAnswersEveryRequestedRoom(t *testing.T) {
	bus := newFakeBus()
	bedroomID := transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, transport.RoomBedroom)
	kitchenID := transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, transport.RoomKitchen)

	bus.respond = func(_ string, payload []byte, handlers map[string]mqtt.MessageHandler) {
		var req transport.StateRequestMessage
		if err := json.Unmarshal(payload, &req); err != nil {
			t.Fatalf("unmarshal state request: %v", err)
		}
		resp := transport.NewVacuumStateResponse(transport.VacuumState{
			Battery:     80,
			IsEnabled:   true,
			WorkSpeed:   transport.ModeTurbo,
			CleanupMode: transport.ModeWetCleaning,
		})
		data, err := json.Marshal(resp)
		if err != nil {
			t.Fatalf("marshal response: %v", err)
		}
		if err := handlers[req.ResponseTopic](req.ResponseTopic, data); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}

	runner := NewQueryRunner(bus, nil)
	devices, err := runner.Run(context.Background(), "q-2", []transport.DeviceId{bedroomID, kitchenID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("devices = %+v, want 2 entries", devices)
	}
	seen := map[transport.DeviceId]bool{}
	for _, d := range devices {
		seen[d.ID] = true
		if len(d.Capabilities) != 4 {
			t.Errorf("device %s has %d capabilities, want 4", d.ID, len(d.Capabilities))
		}
	}
	if !seen[bedroomID] || !seen[kitchenID] {
		t.Errorf("devices = %+v, want both bedroom and kitchen", devices)
	}
}

func TestQueryRunner_IgnoresResponsesForUnrequestedIds(t *testing.T) {
	bus := newFakeBus()
	requestedID := transport.NewDeviceId(transport.DeviceTypeThermostat, transport.RoomBedroom)
	unrequestedID := transport.NewDeviceId(transport.DeviceTypeThermostat, transport.RoomKitchen)

	bus.respond = func(_ string, payload []byte, handlers map[string]mqtt.MessageHandler) {
		var req transport.StateRequestMessage
		if err := json.Unmarshal(payload, &req); err != nil {
			t.Fatalf("unmarshal state request: %v", err)
		}
		handler := handlers[req.ResponseTopic]

		stray := transport.NewHvacStateResponse(transport.CurrentState{
			Room:       unrequestedID.Room,
			DeviceType: unrequestedID.DeviceType,
		})
		strayData, _ := json.Marshal(stray)
		if err := handler(req.ResponseTopic, strayData); err != nil {
			t.Fatalf("handler: %v", err)
		}

		wanted := transport.NewHvacStateResponse(transport.CurrentState{
			Room:       requestedID.Room,
			DeviceType: requestedID.DeviceType,
		})
		wantedData, _ := json.Marshal(wanted)
		if err := handler(req.ResponseTopic, wantedData); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}

	runner := NewQueryRunner(bus, nil)
	devices, err := runner.Run(context.Background(), "q-3", []transport.DeviceId{requestedID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(devices) != 1 || devices[0].ID != requestedID {
		t.Fatalf("devices = %+v, want only %s", devices, requestedID)
	}
}

func TestQueryRunner_EmptyRequestReturnsNil(t *testing.T) {
	runner := NewQueryRunner(newFakeBus(), nil)
	devices, err := runner.Run(context.Background(), "q-4", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if devices != nil {
		t.Errorf("devices = %+v, want nil", devices)
	}
}
