package transport

import (
	"encoding/json"
	"fmt"
)

// Service identifies one of the device-protocol adapter binaries (C11) that
// owns a family of device types.
type Service string

const (
	// ServiceElisa owns the Roborock vacuum cleaner.
	ServiceElisa Service = "elisa"
	// ServiceElizabeth owns the Inspinia recuperator/thermostat devices.
	ServiceElizabeth Service = "elizabeth"
	// ServiceElisheba owns the Sonoff switches driving lights.
	ServiceElisheba Service = "elisheba"
	// ServiceIsabel is the read-only temperature/humidity sensor reporter;
	// it never accepts actions.
	ServiceIsabel Service = "isabel"
)

var allServices = map[Service]struct{}{
	ServiceElisa:     {},
	ServiceElizabeth: {},
	ServiceElisheba:  {},
	ServiceIsabel:    {},
}

// ParseService validates s against the closed Service enum.
func ParseService(s string) (Service, error) {
	svc := Service(s)
	if _, ok := allServices[svc]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownService, s)
	}
	return svc, nil
}

// Valid reports whether s is a member of the closed Service enum.
func (s Service) Valid() bool {
	_, ok := allServices[s]
	return ok
}

// String implements fmt.Stringer.
func (s Service) String() string {
	return string(s)
}

// MarshalJSON implements json.Marshaler, rejecting unknown enum members.
func (s Service) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, string(s))
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown enum members.
func (s *Service) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseService(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
