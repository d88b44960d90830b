package inspinia

import (
	"fmt"
	"strings"
)

// PortName is the fixed set of control ports a template can expose on a
// thermostat or recuperator.
type PortName string

const (
	PortNameOnOff    PortName = "ON_OFF"
	PortNameSetTemp  PortName = "SET_TEMP"
	PortNameFanSpeed PortName = "FAN_SPEED"
	PortNameRoomTemp PortName = "ROOM_TEMP"
	PortNameMode     PortName = "MODE"
)

func parsePortName(s string) (PortName, error) {
	switch PortName(s) {
	case PortNameOnOff, PortNameSetTemp, PortNameFanSpeed, PortNameRoomTemp, PortNameMode:
		return PortName(s), nil
	default:
		return "", fmt.Errorf("inspinia: unknown port name %q", s)
	}
}

// PortType is whether a port is written to (output) or read from (input).
type PortType string

const (
	PortTypeInput  PortType = "INPUT"
	PortTypeOutput PortType = "OUTPUT"
)

func parsePortType(s string) (PortType, error) {
	switch PortType(s) {
	case PortTypeInput, PortTypeOutput:
		return PortType(s), nil
	default:
		return "", fmt.Errorf("inspinia: unknown port type %q", s)
	}
}

// Port is one control point on a device: its template id, direction, and
// the semantic name used to find it.
type Port struct {
	ID   string
	Type PortType
	Name PortName
}

// FanSpeed is the recuperator's native three-speed setting.
type FanSpeed string

const (
	FanSpeedLow    FanSpeed = "Low"
	FanSpeedMedium FanSpeed = "Med"
	FanSpeedHigh   FanSpeed = "High"
)

func parseFanSpeed(s string) (FanSpeed, error) {
	switch s {
	case "Low":
		return FanSpeedLow, nil
	case "Med":
		return FanSpeedMedium, nil
	case "High":
		return FanSpeedHigh, nil
	default:
		return "", fmt.Errorf("inspinia: unknown fan speed %q", s)
	}
}

// Properties describes a control's capabilities as declared by the
// template: which ports it exposes plus its configured temperature range.
type Properties struct {
	Controls []PortName
	MinTemp  uint8
	MaxTemp  uint8
	Step     float32
}

// hasControl reports whether name is among the control's declared ports.
func (p Properties) hasControl(name PortName) bool {
	for _, n := range p.Controls {
		if n == name {
			return true
		}
	}
	return false
}

// parseControls splits the template's comma-joined control list
// ("ON_OFF,SET_TEMP,MODE") into PortNames.
func parseControls(raw string) ([]PortName, error) {
	var names []PortName
	for _, field := range strings.Split(raw, ",") {
		name, err := parsePortName(field)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Device is a resolved thermostat or recuperator control: its template id,
// declared capabilities, and the ports used to read/write it.
type Device struct {
	ID         string
	RoomID     string
	Properties Properties
	Ports      map[PortName]Port
}

// Port looks up a named port on the device.
func (d Device) Port(name PortName) (Port, error) {
	port, ok := d.Ports[name]
	if !ok {
		return Port{}, fmt.Errorf("%w: %s on device %s", ErrPortNotFound, name, d.ID)
	}
	return port, nil
}
