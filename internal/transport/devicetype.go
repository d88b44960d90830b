package transport

import (
	"encoding/json"
	"fmt"
)

// DeviceType is the closed set of device kinds the gateway knows about. The
// wire form is always snake_case; older protocol dumps use PascalCase
// spellings (e.g. "VacuumCleaner") but snake_case is canonical.
type DeviceType string

const (
	DeviceTypeRecuperator       DeviceType = "recuperator"
	DeviceTypeTemperatureSensor DeviceType = "temperature_sensor"
	DeviceTypeThermostat        DeviceType = "thermostat"
	DeviceTypeVacuumCleaner     DeviceType = "vacuum_cleaner"
	DeviceTypeLight             DeviceType = "light"
)

var allDeviceTypes = map[DeviceType]struct{}{
	DeviceTypeRecuperator:       {},
	DeviceTypeTemperatureSensor: {},
	DeviceTypeThermostat:        {},
	DeviceTypeVacuumCleaner:     {},
	DeviceTypeLight:             {},
}

// ParseDeviceType validates s against the closed DeviceType enum.
func ParseDeviceType(s string) (DeviceType, error) {
	d := DeviceType(s)
	if _, ok := allDeviceTypes[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDeviceType, s)
	}
	return d, nil
}

// Valid reports whether d is a member of the closed DeviceType enum.
func (d DeviceType) Valid() bool {
	_, ok := allDeviceTypes[d]
	return ok
}

// String implements fmt.Stringer.
func (d DeviceType) String() string {
	return string(d)
}

// MarshalJSON implements json.Marshaler, rejecting unknown enum members.
func (d DeviceType) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDeviceType, string(d))
	}
	return json.Marshal(string(d))
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown enum members.
func (d *DeviceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDeviceType(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Service returns the backend service that owns this device type.
// TemperatureSensor devices are read-only and have no owning action
// service (see Service.Valid callers — isabel only reports, never acts).
func (d DeviceType) Service() (Service, bool) {
	switch d {
	case DeviceTypeRecuperator, DeviceTypeThermostat:
		return ServiceElizabeth, true
	case DeviceTypeVacuumCleaner:
		return ServiceElisa, true
	case DeviceTypeLight:
		return ServiceElisheba, true
	default:
		return "", false
	}
}
