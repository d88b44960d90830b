package transport

import (
	"encoding/json"
	"fmt"
)

// LightActionKind discriminates the LightAction tagged union — the
// protocol-native intents the Elisheba (Sonoff) adapter understands.
type LightActionKind string

const LightActionOnOff LightActionKind = "on_off"

// LightAction is the Elisheba-native action payload: a room-targeted
// on/off, grounded on bin/elisheba/src/lib.rs's update_state (action.room
// resolves to a single Sonoff device via map_room_to_id).
type LightAction struct {
	Kind  LightActionKind
	Room  Room
	Value bool
}

// NewLightOnOff builds a room-targeted OnOff action.
func NewLightOnOff(room Room, value bool) LightAction {
	return LightAction{Kind: LightActionOnOff, Room: room, Value: value}
}

type lightActionWire struct {
	Kind  LightActionKind `json:"kind"`
	Room  Room            `json:"room"`
	Value bool            `json:"value"`
}

// MarshalJSON implements json.Marshaler.
func (l LightAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(lightActionWire{Kind: l.Kind, Room: l.Room, Value: l.Value})
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown kinds.
func (l *LightAction) UnmarshalJSON(data []byte) error {
	var wire lightActionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Kind != LightActionOnOff {
		return fmt.Errorf("transport: unknown light action kind %q", string(wire.Kind))
	}
	*l = LightAction{Kind: wire.Kind, Room: wire.Room, Value: wire.Value}
	return nil
}
