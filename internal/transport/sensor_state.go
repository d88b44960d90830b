package transport

// SensorState is a single-facet event from the temperature/humidity
// sensor reporter (Isabel).
type SensorState struct {
	Room     Room     `json:"room"`
	Property Property `json:"property"`
}

// DeviceId returns the (room, temperature_sensor) handle this event
// applies to.
func (s SensorState) DeviceId() DeviceId {
	return NewDeviceId(DeviceTypeTemperatureSensor, s.Room)
}
