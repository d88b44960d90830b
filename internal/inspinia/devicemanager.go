package inspinia

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/voice-gateway/internal/infrastructure/database"
)

const (
	selectControlsInRoomQuery = `SELECT tb_controls.id, tb_control_property.value FROM tb_controls
		INNER JOIN tb_control_property ON tb_controls.id = tb_control_property.control_id
		WHERE tb_controls.page_id = ?
		AND tb_controls.controlName = 'ThermostatPlugin'
		AND tb_control_property.name = 'options'`

	selectPortsQuery = `SELECT tb_ports.id, tb_ports.port_type, tb_port_property.value FROM tb_ports
		INNER JOIN tb_port_property ON tb_ports.id = tb_port_property.port_id
		WHERE control_id = ? AND name = 'name'`
)

// DeviceManager resolves rooms to their thermostat/recuperator controls
// against a downloaded template's SQLite database.
type DeviceManager struct {
	db *database.DB
}

// NewDeviceManager opens the template SQLite file at path.
func NewDeviceManager(path string) (*DeviceManager, error) {
	db, err := database.Open(database.Config{Path: path, WALMode: false})
	if err != nil {
		return nil, fmt.Errorf("inspinia: opening template database: %w", err)
	}
	return &DeviceManager{db: db}, nil
}

// Close closes the underlying template database.
func (m *DeviceManager) Close() error {
	return m.db.Close()
}

// GetThermostatInRoom returns the first ThermostatPlugin control in roomID
// that declares a MODE port.
func (m *DeviceManager) GetThermostatInRoom(roomID string) (Device, error) {
	return m.findControl(roomID, PortNameMode, ErrNoThermostatInRoom)
}

// GetRecuperatorInRoom returns the first ThermostatPlugin control in roomID
// that declares a FAN_SPEED port.
func (m *DeviceManager) GetRecuperatorInRoom(roomID string) (Device, error) {
	return m.findControl(roomID, PortNameFanSpeed, ErrNoRecuperatorInRoom)
}

func (m *DeviceManager) findControl(roomID string, want PortName, notFound error) (Device, error) {
	rows, err := m.db.Query(selectControlsInRoomQuery, roomID)
	if err != nil {
		return Device{}, fmt.Errorf("inspinia: querying controls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var controlID, optionsJSON string
		if err := rows.Scan(&controlID, &optionsJSON); err != nil {
			return Device{}, fmt.Errorf("inspinia: scanning control row: %w", err)
		}

		properties, err := parseProperties(optionsJSON)
		if err != nil {
			return Device{}, fmt.Errorf("inspinia: parsing control properties: %w", err)
		}
		if !properties.hasControl(want) {
			continue
		}

		ports, err := m.portsForControl(controlID)
		if err != nil {
			return Device{}, err
		}

		return Device{ID: controlID, RoomID: roomID, Properties: properties, Ports: ports}, nil
	}
	if err := rows.Err(); err != nil {
		return Device{}, fmt.Errorf("inspinia: iterating controls: %w", err)
	}

	return Device{}, fmt.Errorf("%w: %s", notFound, roomID)
}

func (m *DeviceManager) portsForControl(controlID string) (map[PortName]Port, error) {
	rows, err := m.db.Query(selectPortsQuery, controlID)
	if err != nil {
		return nil, fmt.Errorf("inspinia: querying ports: %w", err)
	}
	defer rows.Close()

	ports := make(map[PortName]Port)
	for rows.Next() {
		var id, portTypeRaw, nameRaw string
		if err := rows.Scan(&id, &portTypeRaw, &nameRaw); err != nil {
			return nil, fmt.Errorf("inspinia: scanning port row: %w", err)
		}
		portType, err := parsePortType(portTypeRaw)
		if err != nil {
			return nil, err
		}
		name, err := parsePortName(nameRaw)
		if err != nil {
			return nil, err
		}
		ports[name] = Port{ID: id, Type: portType, Name: name}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspinia: iterating ports: %w", err)
	}
	return ports, nil
}

type propertiesWire struct {
	Controls string  `json:"controls"`
	MinTemp  uint8   `json:"minTemp"`
	MaxTemp  uint8   `json:"maxTemp"`
	Step     float32 `json:"step"`
}

func parseProperties(raw string) (Properties, error) {
	var wire propertiesWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Properties{}, err
	}
	controls, err := parseControls(wire.Controls)
	if err != nil {
		return Properties{}, err
	}
	return Properties{Controls: controls, MinTemp: wire.MinTemp, MaxTemp: wire.MaxTemp, Step: wire.Step}, nil
}
