package reporter

import "github.com/nerrad567/voice-gateway/internal/transport"

// The voice-cloud state callback speaks a different JSON dialect than the
// gateway's own MQTT wire form: capabilities and properties are tagged by a
// dotted "type" string and carry their value under a nested "state" object
// keyed by "instance". Grounded on lib/alice/src/state/{capability,property,
// response}.rs.

const (
	wireTypeOnOff  = "devices.capabilities.on_off"
	wireTypeMode   = "devices.capabilities.mode"
	wireTypeToggle = "devices.capabilities.toggle"
	wireTypeRange  = "devices.capabilities.range"

	wireTypeFloatProperty = "devices.properties.float"

	onOffInstance = "on"
)

type notificationEnvelope struct {
	TS      int64               `json:"ts"`
	Payload notificationPayload `json:"payload"`
}

type notificationPayload struct {
	UserID  string           `json:"user_id"`
	Devices []responseDevice `json:"devices"`
}

type responseDevice struct {
	ID           string           `json:"id"`
	Properties   []wireProperty   `json:"properties,omitempty"`
	Capabilities []wireCapability `json:"capabilities,omitempty"`
}

type wireCapability struct {
	Type  string              `json:"type"`
	State wireCapabilityState `json:"state"`
}

type wireCapabilityState struct {
	Instance string `json:"instance"`
	Value    any    `json:"value"`
	Relative bool   `json:"relative,omitempty"`
}

type wireProperty struct {
	Type  string            `json:"type"`
	State wirePropertyState `json:"state"`
}

type wirePropertyState struct {
	Instance string  `json:"instance"`
	Value    float32 `json:"value"`
}

// notificationBody builds the reporter's notification envelope. request_id
// is never set on this variant — only the query-path response carries one.
func notificationBody(ts int64, userID string, devices []responseDevice) notificationEnvelope {
	return notificationEnvelope{
		TS: ts,
		Payload: notificationPayload{
			UserID:  userID,
			Devices: devices,
		},
	}
}

// newResponseDevice builds the cloud-facing device entry for one store
// record. A record may carry capabilities, properties or both (vacuum
// records carry capabilities plus a battery_level property).
func newResponseDevice(id transport.DeviceId, capabilities []transport.Capability, properties []transport.Property) responseDevice {
	d := responseDevice{ID: id.String()}
	for _, c := range capabilities {
		d.Capabilities = append(d.Capabilities, newWireCapability(c))
	}
	for _, p := range properties {
		d.Properties = append(d.Properties, newWireProperty(p))
	}
	return d
}

// newWireCapability translates a single internal Capability variant into
// its cloud-facing wire shape.
func newWireCapability(c transport.Capability) wireCapability {
	switch c.Kind {
	case transport.CapabilityKindOnOff:
		return wireCapability{
			Type:  wireTypeOnOff,
			State: wireCapabilityState{Instance: onOffInstance, Value: c.OnOffValue},
		}
	case transport.CapabilityKindMode:
		return wireCapability{
			Type:  wireTypeMode,
			State: wireCapabilityState{Instance: string(c.ModeFunction), Value: string(c.Mode)},
		}
	case transport.CapabilityKindToggle:
		return wireCapability{
			Type:  wireTypeToggle,
			State: wireCapabilityState{Instance: string(c.ToggleFunction), Value: c.ToggleValue},
		}
	case transport.CapabilityKindRange:
		return wireCapability{
			Type: wireTypeRange,
			State: wireCapabilityState{
				Instance: string(c.RangeFunction),
				Value:    c.RangeValue,
				Relative: c.RangeRelative,
			},
		}
	default:
		return wireCapability{}
	}
}

// newWireProperty translates a single internal Property into its
// cloud-facing wire shape. The "battery_level" instance name is confirmed
// via lib/alice/src/device/property.rs rather than state/property.rs, which
// only shows the humidity/temperature variants directly.
func newWireProperty(p transport.Property) wireProperty {
	return wireProperty{
		Type:  wireTypeFloatProperty,
		State: wirePropertyState{Instance: string(p.Kind), Value: p.Value},
	}
}
