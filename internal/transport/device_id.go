package transport

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DeviceId is the universal handle crossing every interface: the pair
// (DeviceType, Room). Its textual form is "device_type/room", e.g.
// "thermostat/bedroom" — device type first, room second.
type DeviceId struct {
	DeviceType DeviceType
	Room       Room
}

// NewDeviceId constructs a DeviceId from already-validated components.
func NewDeviceId(deviceType DeviceType, room Room) DeviceId {
	return DeviceId{DeviceType: deviceType, Room: room}
}

// ParseDeviceId parses the strict two-segment "device_type/room" form.
// Both segments must match their respective closed enums.
func ParseDeviceId(s string) (DeviceId, error) {
	deviceTypeStr, roomStr, ok := strings.Cut(s, "/")
	if !ok {
		return DeviceId{}, fmt.Errorf("%w: %q", ErrInvalidDeviceID, s)
	}
	// A second "/" means more than two segments were supplied.
	if strings.Contains(roomStr, "/") {
		return DeviceId{}, fmt.Errorf("%w: %q", ErrInvalidDeviceID, s)
	}

	deviceType, err := ParseDeviceType(deviceTypeStr)
	if err != nil {
		return DeviceId{}, fmt.Errorf("%w: %q", ErrInvalidDeviceID, s)
	}

	room, err := ParseRoom(roomStr)
	if err != nil {
		return DeviceId{}, fmt.Errorf("%w: %q", ErrInvalidDeviceID, s)
	}

	return DeviceId{DeviceType: deviceType, Room: room}, nil
}

// String renders the canonical "device_type/room" form.
func (d DeviceId) String() string {
	return string(d.DeviceType) + "/" + string(d.Room)
}

// MarshalJSON implements json.Marshaler, rendering DeviceId as a single
// string.
func (d DeviceId) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler using the strict two-segment
// parse.
func (d *DeviceId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDeviceId(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
