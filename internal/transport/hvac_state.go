package transport

// HvacState is a single-facet event from a recuperator or thermostat; the
// state store aggregates a stream of these into a per-device snapshot.
type HvacState struct {
	Room       Room       `json:"room"`
	DeviceType DeviceType `json:"device_type"`
	Capability Capability `json:"capability"`
}

// DeviceId returns the (room, device_type) handle this event applies to.
func (h HvacState) DeviceId() DeviceId {
	return NewDeviceId(h.DeviceType, h.Room)
}
