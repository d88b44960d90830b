package transport

import (
	"encoding/json"
	"fmt"
)

// PropertyKind discriminates the Property tagged union.
type PropertyKind string

const (
	PropertyKindHumidity     PropertyKind = "humidity"
	PropertyKindTemperature  PropertyKind = "temperature"
	PropertyKindBatteryLevel PropertyKind = "battery_level"
)

// Property is an observable, non-settable measurement. Exactly one of the
// three kinds is populated, selected by Kind.
type Property struct {
	Kind  PropertyKind
	Value float32
}

// NewHumidityProperty builds a Humidity property (percent).
func NewHumidityProperty(percent float32) Property {
	return Property{Kind: PropertyKindHumidity, Value: percent}
}

// NewTemperatureProperty builds a Temperature property (°C).
func NewTemperatureProperty(celsius float32) Property {
	return Property{Kind: PropertyKindTemperature, Value: celsius}
}

// NewBatteryLevelProperty builds a BatteryLevel property (percent).
func NewBatteryLevelProperty(percent float32) Property {
	return Property{Kind: PropertyKindBatteryLevel, Value: percent}
}

type propertyWire struct {
	Kind  PropertyKind `json:"kind"`
	Value float32      `json:"value"`
}

// MarshalJSON implements json.Marshaler.
func (p Property) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PropertyKindHumidity, PropertyKindTemperature, PropertyKindBatteryLevel:
		return json.Marshal(propertyWire{Kind: p.Kind, Value: p.Value})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, string(p.Kind))
	}
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown variants.
func (p *Property) UnmarshalJSON(data []byte) error {
	var wire propertyWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Kind {
	case PropertyKindHumidity, PropertyKindTemperature, PropertyKindBatteryLevel:
		*p = Property{Kind: wire.Kind, Value: wire.Value}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProperty, string(wire.Kind))
	}
}
