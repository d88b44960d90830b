package store

import (
	"sync"

	"github.com/nerrad567/voice-gateway/internal/transport"
)

// DeviceState is one aggregated snapshot for a (room, device_type) record,
// emitted by PrepareUpdates. Capabilities holds settable facets and
// Properties read-only measurements; a record may carry either or both
// (vacuum_cleaner records carry capabilities plus a battery_level property).
type DeviceState struct {
	Room         transport.Room
	DeviceType   transport.DeviceType
	Capabilities []transport.Capability
	Properties   []transport.Property
}

type capabilityFacet struct {
	value    transport.Capability
	modified bool
}

type propertyFacet struct {
	value    transport.Property
	modified bool
}

type recordKey struct {
	room       transport.Room
	deviceType transport.DeviceType
}

type record struct {
	capabilities []capabilityFacet
	properties   []propertyFacet
}

// Store is the per-(room, device_type) state table. Zero value is not
// usable; construct with New.
type Store struct {
	mu      sync.Mutex
	records map[recordKey]*record
}

// New returns an empty Store.
func New() *Store {
	return &Store{records: make(map[recordKey]*record)}
}

// Apply finds the capability of the same kind in the (room, deviceType)
// record and replaces it if the value changed, setting its modified flag.
// If no capability of that kind exists yet, it is appended as modified.
func (s *Store) Apply(room transport.Room, deviceType transport.DeviceType, capability transport.Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.recordFor(room, deviceType)
	key := capabilityFacetKey(capability)

	for i := range rec.capabilities {
		if capabilityFacetKey(rec.capabilities[i].value) != key {
			continue
		}
		if rec.capabilities[i].value != capability {
			rec.capabilities[i].value = capability
			rec.capabilities[i].modified = true
		}
		return
	}
	rec.capabilities = append(rec.capabilities, capabilityFacet{value: capability, modified: true})
}

// ApplyProperty finds the property of the same kind in the (room,
// deviceType) record and replaces it if the value changed, setting its
// modified flag. If no property of that kind exists yet, it is appended
// as modified. Property equality is exact float comparison, matching the
// upstream reportable-property semantics; callers quantize to device
// precision before calling this.
func (s *Store) ApplyProperty(room transport.Room, deviceType transport.DeviceType, property transport.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.recordFor(room, deviceType)

	for i := range rec.properties {
		if rec.properties[i].value.Kind != property.Kind {
			continue
		}
		if rec.properties[i].value != property {
			rec.properties[i].value = property
			rec.properties[i].modified = true
		}
		return
	}
	rec.properties = append(rec.properties, propertyFacet{value: property, modified: true})
}

// ResetModified clears every facet's modified flag across all records.
// Call this after a report of PrepareUpdates' output has succeeded.
func (s *Store) ResetModified() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		for i := range rec.capabilities {
			rec.capabilities[i].modified = false
		}
		for i := range rec.properties {
			rec.properties[i].modified = false
		}
	}
}

// PrepareUpdates returns one DeviceState per record that has at least one
// modified facet (or, when onlyUpdated is false, every record), carrying
// only the modified facets when onlyUpdated is true.
func (s *Store) PrepareUpdates(onlyUpdated bool) []DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []DeviceState
	for key, rec := range s.records {
		capabilities := selectCapabilities(rec.capabilities, onlyUpdated)
		properties := selectProperties(rec.properties, onlyUpdated)
		if onlyUpdated && len(capabilities) == 0 && len(properties) == 0 {
			continue
		}

		out = append(out, DeviceState{
			Room:         key.room,
			DeviceType:   key.deviceType,
			Capabilities: capabilities,
			Properties:   properties,
		})
	}
	return out
}

func (s *Store) recordFor(room transport.Room, deviceType transport.DeviceType) *record {
	key := recordKey{room: room, deviceType: deviceType}
	rec, ok := s.records[key]
	if !ok {
		rec = &record{}
		s.records[key] = rec
	}
	return rec
}

func selectCapabilities(facets []capabilityFacet, onlyUpdated bool) []transport.Capability {
	var out []transport.Capability
	for _, f := range facets {
		if onlyUpdated && !f.modified {
			continue
		}
		out = append(out, f.value)
	}
	return out
}

func selectProperties(facets []propertyFacet, onlyUpdated bool) []transport.Property {
	var out []transport.Property
	for _, f := range facets {
		if onlyUpdated && !f.modified {
			continue
		}
		out = append(out, f.value)
	}
	return out
}

// capabilityFacetKey identifies which "kind" a capability occupies within a
// record: OnOff has a single slot, but Mode/Toggle/Range each have one
// slot per function (fan_speed and cleanup_mode are both Mode capabilities
// but distinct facets).
func capabilityFacetKey(c transport.Capability) string {
	switch c.Kind {
	case transport.CapabilityKindMode:
		return string(c.Kind) + ":" + string(c.ModeFunction)
	case transport.CapabilityKindToggle:
		return string(c.Kind) + ":" + string(c.ToggleFunction)
	case transport.CapabilityKindRange:
		return string(c.Kind) + ":" + string(c.RangeFunction)
	default:
		return string(c.Kind)
	}
}
