package transport

import (
	"encoding/json"
	"fmt"
)

// HvacActionKind discriminates the HvacAction tagged union — the
// protocol-native intents the Elizabeth (Inspinia) adapter understands.
type HvacActionKind string

const (
	HvacActionOnOff          HvacActionKind = "on_off"
	HvacActionSetTemperature HvacActionKind = "set_temperature"
	HvacActionSetFanSpeed    HvacActionKind = "set_fan_speed"
)

// HvacAction is the Elizabeth-native action payload: a (room, device_type)
// target plus a kind-specific value, grounded on
// lib/transport/src/elizabeth.rs's Action{room, device_type, action_type}
// — Elizabeth covers both thermostat and recuperator, so the action must
// carry which device type at that room it targets.
type HvacAction struct {
	Kind       HvacActionKind
	Room       Room
	DeviceType DeviceType

	// OnOffValue populates OnOff.
	OnOffValue bool

	// Temperature/Relative populate SetTemperature.
	Temperature float32
	Relative    bool

	// Mode populates SetFanSpeed.
	Mode Mode
}

// NewHvacOnOff builds an OnOff action.
func NewHvacOnOff(room Room, deviceType DeviceType, value bool) HvacAction {
	return HvacAction{Kind: HvacActionOnOff, Room: room, DeviceType: deviceType, OnOffValue: value}
}

// NewHvacSetTemperature builds a SetTemperature action.
func NewHvacSetTemperature(room Room, deviceType DeviceType, value float32, relative bool) HvacAction {
	return HvacAction{Kind: HvacActionSetTemperature, Room: room, DeviceType: deviceType, Temperature: value, Relative: relative}
}

// NewHvacSetFanSpeed builds a SetFanSpeed action.
func NewHvacSetFanSpeed(room Room, deviceType DeviceType, mode Mode) HvacAction {
	return HvacAction{Kind: HvacActionSetFanSpeed, Room: room, DeviceType: deviceType, Mode: mode}
}

type hvacActionWire struct {
	Kind        HvacActionKind `json:"kind"`
	Room        Room           `json:"room"`
	DeviceType  DeviceType     `json:"device_type"`
	Value       *bool          `json:"value,omitempty"`
	Temperature *float32       `json:"temperature,omitempty"`
	Relative    *bool          `json:"relative,omitempty"`
	Mode        Mode           `json:"mode,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (h HvacAction) MarshalJSON() ([]byte, error) {
	wire := hvacActionWire{Kind: h.Kind, Room: h.Room, DeviceType: h.DeviceType}
	switch h.Kind {
	case HvacActionOnOff:
		v := h.OnOffValue
		wire.Value = &v
	case HvacActionSetTemperature:
		t := h.Temperature
		r := h.Relative
		wire.Temperature = &t
		wire.Relative = &r
	case HvacActionSetFanSpeed:
		wire.Mode = h.Mode
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown kinds.
func (h *HvacAction) UnmarshalJSON(data []byte) error {
	var wire hvacActionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Kind {
	case HvacActionOnOff:
		if wire.Value == nil {
			return fmt.Errorf("transport: hvac on_off missing value")
		}
		*h = HvacAction{Kind: wire.Kind, Room: wire.Room, DeviceType: wire.DeviceType, OnOffValue: *wire.Value}
	case HvacActionSetTemperature:
		if wire.Temperature == nil {
			return fmt.Errorf("transport: hvac set_temperature missing temperature")
		}
		relative := wire.Relative != nil && *wire.Relative
		*h = HvacAction{Kind: wire.Kind, Room: wire.Room, DeviceType: wire.DeviceType, Temperature: *wire.Temperature, Relative: relative}
	case HvacActionSetFanSpeed:
		*h = HvacAction{Kind: wire.Kind, Room: wire.Room, DeviceType: wire.DeviceType, Mode: wire.Mode}
	default:
		return fmt.Errorf("transport: unknown hvac action kind %q", string(wire.Kind))
	}
	return nil
}
