package api

import (
	"net/http"

	"github.com/nerrad567/voice-gateway/internal/transport"
)

// The voice cloud has no device-discovery protocol of its own — every
// device this gateway exposes is declared here once, grounded on
// bin/alisa/src/web_service/user/devices.rs's hard-coded device list.
// Rooms without an entry for a given device type simply have no catalog
// device there (e.g. there is no thermostat in the bathroom).

const (
	wireDeviceTypeSensor        = "devices.types.sensor"
	wireDeviceTypeVacuumCleaner = "devices.types.vacuum_cleaner"
	wireDeviceTypeThermostat    = "devices.types.thermostat"
	wireDeviceTypeRecuperator   = "devices.types.thermostat.ac"
	wireDeviceTypeLight         = "devices.types.light"
)

type catalogDevice struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Room         string                  `json:"room"`
	Type         string                  `json:"type"`
	Properties   []catalogProperty       `json:"properties,omitempty"`
	Capabilities []catalogCapabilityDecl `json:"capabilities,omitempty"`
}

type catalogProperty struct {
	Type string `json:"type"`
	Parameters catalogPropertyParameters `json:"parameters"`
}

type catalogPropertyParameters struct {
	Instance string `json:"instance"`
	Unit     string `json:"unit"`
}

type catalogCapabilityDecl struct {
	Type       string                      `json:"type"`
	Parameters catalogCapabilityParameters `json:"parameters"`
}

type catalogCapabilityParameters struct {
	Instance string   `json:"instance,omitempty"`
	Modes    []string `json:"modes,omitempty"`
	Range    *catalogRange `json:"range,omitempty"`
}

type catalogRange struct {
	Min       float32 `json:"min"`
	Max       float32 `json:"max"`
	Precision float32 `json:"precision"`
}

// roomNames gives each Room a human-readable display name for the catalog.
var roomNames = map[transport.Room]string{
	transport.RoomBathroom:   "Bathroom",
	transport.RoomBedroom:    "Bedroom",
	transport.RoomCorridor:   "Corridor",
	transport.RoomHallway:    "Hallway",
	transport.RoomHomeOffice: "Home office",
	transport.RoomKitchen:    "Kitchen",
	transport.RoomLivingRoom: "Living room",
	transport.RoomNursery:    "Nursery",
	transport.RoomToilet:     "Toilet",
}

// buildCatalog returns the full hard-coded device catalog for
// GET /v1.0/user/devices.
func buildCatalog() []catalogDevice {
	var devices []catalogDevice

	for _, room := range []transport.Room{
		transport.RoomBedroom, transport.RoomHomeOffice, transport.RoomKitchen, transport.RoomNursery,
	} {
		devices = append(devices, sensorDevice(room))
	}

	for _, room := range []transport.Room{
		transport.RoomBedroom, transport.RoomCorridor, transport.RoomHallway,
		transport.RoomHomeOffice, transport.RoomKitchen, transport.RoomLivingRoom,
	} {
		devices = append(devices, vacuumDevice(room))
	}

	for _, room := range []transport.Room{
		transport.RoomBedroom, transport.RoomHomeOffice, transport.RoomLivingRoom, transport.RoomNursery,
	} {
		devices = append(devices, thermostatDevice(room))
	}

	devices = append(devices, recuperatorDevice())

	for _, room := range []transport.Room{transport.RoomCorridor, transport.RoomNursery} {
		devices = append(devices, lightDevice(room))
	}

	return devices
}

func sensorDevice(room transport.Room) catalogDevice {
	name := roomNames[room]
	return catalogDevice{
		ID:          transport.NewDeviceId(transport.DeviceTypeTemperatureSensor, room).String(),
		Name:        "Temperature sensor",
		Description: name,
		Room:        name,
		Type:        wireDeviceTypeSensor,
		Properties: []catalogProperty{
			{Type: "devices.properties.float", Parameters: catalogPropertyParameters{Instance: "humidity", Unit: "unit.percent"}},
			{Type: "devices.properties.float", Parameters: catalogPropertyParameters{Instance: "temperature", Unit: "unit.temperature.celsius"}},
			{Type: "devices.properties.float", Parameters: catalogPropertyParameters{Instance: "battery_level", Unit: "unit.percent"}},
		},
	}
}

func vacuumDevice(room transport.Room) catalogDevice {
	name := roomNames[room]
	return catalogDevice{
		ID:          transport.NewDeviceId(transport.DeviceTypeVacuumCleaner, room).String(),
		Name:        "Vacuum cleaner",
		Description: name,
		Room:        name,
		Type:        wireDeviceTypeVacuumCleaner,
		Properties: []catalogProperty{
			{Type: "devices.properties.float", Parameters: catalogPropertyParameters{Instance: "battery_level", Unit: "unit.percent"}},
		},
		Capabilities: []catalogCapabilityDecl{
			{Type: "devices.capabilities.on_off"},
			{Type: "devices.capabilities.mode", Parameters: catalogCapabilityParameters{
				Instance: string(transport.ModeFunctionWorkSpeed),
				Modes:    []string{string(transport.ModeQuiet), string(transport.ModeNormal), string(transport.ModeMedium), string(transport.ModeTurbo)},
			}},
			{Type: "devices.capabilities.mode", Parameters: catalogCapabilityParameters{
				Instance: string(transport.ModeFunctionCleanupMode),
				Modes:    []string{string(transport.ModeDryCleaning), string(transport.ModeMixedCleaning), string(transport.ModeWetCleaning)},
			}},
			{Type: "devices.capabilities.toggle", Parameters: catalogCapabilityParameters{Instance: string(transport.ToggleFunctionPause)}},
		},
	}
}

func thermostatDevice(room transport.Room) catalogDevice {
	name := roomNames[room]
	return catalogDevice{
		ID:          transport.NewDeviceId(transport.DeviceTypeThermostat, room).String(),
		Name:        "Thermostat",
		Description: name,
		Room:        name,
		Type:        wireDeviceTypeThermostat,
		Properties: []catalogProperty{
			{Type: "devices.properties.float", Parameters: catalogPropertyParameters{Instance: "temperature", Unit: "unit.temperature.celsius"}},
		},
		Capabilities: []catalogCapabilityDecl{
			{Type: "devices.capabilities.on_off"},
			{Type: "devices.capabilities.range", Parameters: catalogCapabilityParameters{
				Instance: string(transport.RangeFunctionTemperature),
				Range:    &catalogRange{Min: 16, Max: 28, Precision: 0.5},
			}},
		},
	}
}

func recuperatorDevice() catalogDevice {
	room := transport.RoomLivingRoom
	name := roomNames[room]
	return catalogDevice{
		ID:          transport.NewDeviceId(transport.DeviceTypeRecuperator, room).String(),
		Name:        "Recuperator",
		Description: name,
		Room:        name,
		Type:        wireDeviceTypeRecuperator,
		Capabilities: []catalogCapabilityDecl{
			{Type: "devices.capabilities.on_off"},
			{Type: "devices.capabilities.mode", Parameters: catalogCapabilityParameters{
				Instance: string(transport.ModeFunctionFanSpeed),
				Modes:    []string{string(transport.ModeLow), string(transport.ModeMedium), string(transport.ModeHigh)},
			}},
		},
	}
}

func lightDevice(room transport.Room) catalogDevice {
	name := roomNames[room]
	return catalogDevice{
		ID:          transport.NewDeviceId(transport.DeviceTypeLight, room).String(),
		Name:        "Ceiling light",
		Description: name,
		Room:        name,
		Type:        wireDeviceTypeLight,
		Capabilities: []catalogCapabilityDecl{
			{Type: "devices.capabilities.on_off"},
		},
	}
}

// handleDevices serves GET /v1.0/user/devices: the full hard-coded catalog.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if claims := claimsFromContext(r.Context()); claims != nil {
		userID = claims.Subject
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": requestIDFromContext(r.Context()),
		"payload": map[string]any{
			"user_id": userID,
			"devices": buildCatalog(),
		},
	})
}
