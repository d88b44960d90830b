package transport

import (
	"encoding/json"
	"fmt"
)

// VacuumActionKind discriminates the VacuumAction tagged union — the
// protocol-native intents the Elisa (Roborock) adapter understands.
type VacuumActionKind string

const (
	VacuumActionStart          VacuumActionKind = "start"
	VacuumActionStop           VacuumActionKind = "stop"
	VacuumActionPause          VacuumActionKind = "pause"
	VacuumActionResume         VacuumActionKind = "resume"
	VacuumActionGoHome         VacuumActionKind = "go_home"
	VacuumActionSetFanSpeed    VacuumActionKind = "set_fan_speed"
	VacuumActionSetCleanupMode VacuumActionKind = "set_cleanup_mode"
)

// VacuumAction is the Elisa-native action payload. Only the fields relevant
// to Kind are populated.
type VacuumAction struct {
	Kind VacuumActionKind

	// Rooms populates Start: empty means a global run, non-empty a
	// room-targeted segment clean.
	Rooms []Room

	// Mode populates SetFanSpeed and SetCleanupMode.
	Mode Mode
}

// NewVacuumStart builds a room-targeted (or global, if rooms is empty)
// Start action.
func NewVacuumStart(rooms []Room) VacuumAction {
	return VacuumAction{Kind: VacuumActionStart, Rooms: rooms}
}

// NewVacuumSimple builds a Stop/Pause/Resume/GoHome action with no payload.
func NewVacuumSimple(kind VacuumActionKind) VacuumAction {
	return VacuumAction{Kind: kind}
}

// NewVacuumSetFanSpeed builds a SetFanSpeed action.
func NewVacuumSetFanSpeed(mode Mode) VacuumAction {
	return VacuumAction{Kind: VacuumActionSetFanSpeed, Mode: mode}
}

// NewVacuumSetCleanupMode builds a SetCleanupMode action.
func NewVacuumSetCleanupMode(mode Mode) VacuumAction {
	return VacuumAction{Kind: VacuumActionSetCleanupMode, Mode: mode}
}

type vacuumActionWire struct {
	Kind  VacuumActionKind `json:"kind"`
	Rooms []Room           `json:"rooms,omitempty"`
	Mode  Mode             `json:"mode,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v VacuumAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(vacuumActionWire{Kind: v.Kind, Rooms: v.Rooms, Mode: v.Mode})
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown kinds.
func (v *VacuumAction) UnmarshalJSON(data []byte) error {
	var wire vacuumActionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Kind {
	case VacuumActionStart, VacuumActionStop, VacuumActionPause, VacuumActionResume,
		VacuumActionGoHome, VacuumActionSetFanSpeed, VacuumActionSetCleanupMode:
		*v = VacuumAction{Kind: wire.Kind, Rooms: wire.Rooms, Mode: wire.Mode}
		return nil
	default:
		return fmt.Errorf("transport: unknown vacuum action kind %q", string(wire.Kind))
	}
}
