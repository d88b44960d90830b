package roborock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// FanSpeed is the vacuum's suction/fan power setting.
type FanSpeed int

const (
	FanSpeedOff FanSpeed = iota
	FanSpeedSilent
	FanSpeedStandard
	FanSpeedMedium
	FanSpeedTurbo
	FanSpeedMax
	FanSpeedSmartMode
)

// CleanupMode is the dry/wet/mixed mode exposed to the voice-cloud layer.
type CleanupMode int

const (
	CleanupModeDryCleaning CleanupMode = iota
	CleanupModeWetCleaning
	CleanupModeMixedCleaning
)

// WaterBoxMode is the device's native mop-water setting.
type WaterBoxMode int64

const (
	WaterBoxModeOff       WaterBoxMode = 200
	WaterBoxModeLow       WaterBoxMode = 201
	WaterBoxModeMedium    WaterBoxMode = 202
	WaterBoxModeHigh      WaterBoxMode = 203
	WaterBoxModeCustom    WaterBoxMode = 204
	WaterBoxModeMax       WaterBoxMode = 208
	WaterBoxModeSmartMode WaterBoxMode = 209
)

// MopMode is the self-washing dock's mop-scrub intensity. Unrecognized
// codes are kept verbatim rather than collapsed to a default.
type MopMode int64

const (
	MopModeLevel1 MopMode = 300
	MopModeLevel2 MopMode = 301
	MopModeLevel3 MopMode = 302
)

func mopModeFromCode(code int64) MopMode {
	return MopMode(code)
}

// WashStatus reports whether the dock's self-wash cycle is running, and if
// so which native status code it's in.
type WashStatus int64

const WashStatusIdle WashStatus = 0

func washStatusFromCode(code int64) WashStatus {
	return WashStatus(code)
}

func (w WashStatus) IsIdle() bool {
	return w == WashStatusIdle
}

// WashPhase is the dock's self-wash cycle phase.
type WashPhase int64

const WashPhaseIdle WashPhase = 0

func washPhaseFromCode(code int64) WashPhase {
	return WashPhase(code)
}

// State is the vacuum's current high-level activity.
type State int

const (
	StateUnknown State = iota
	StateIdle
	StateCleaning
	StateReturning
	StateDocked
	StatePaused
)

func (s State) IsEnabled() bool {
	return s == StateCleaning
}

func (s State) IsPaused() bool {
	return s == StatePaused || s == StateIdle
}

// Status is the full device status snapshot returned by get_status.
type Status struct {
	Battery              uint8
	State                State
	FanSpeed             FanSpeed
	CleanupMode          CleanupMode
	ErrorCode            int64
	DockErrorStatus      int64
	DustCollectionStatus int64
	AutoDustCollection   int64
	WaterBoxStatus       int64
	WaterBoxMode         WaterBoxMode
	WaterShortageStatus  int64
	CleanArea            int64
	CleanTime            int64
	CleanPercent         int64
	MopMode              MopMode
	WashStatus           WashStatus
	WashPhase            WashPhase
}

// Vacuum is a stateful handle to one Roborock device: it owns the counters
// that must stay monotonic for the lifetime of the session and reconnects
// transparently on a transport or decode failure.
type Vacuum struct {
	ip       string
	duid     string
	localKey string
	conn     *Connection

	lastCleaningRooms []uint8

	idCounter    *Counter
	seqCounter   *Counter
	nonceCounter *Counter
}

// NewVacuum dials ip and completes the hello handshake for a device
// identified by duid, bound to its local_key.
func NewVacuum(ctx context.Context, ip, duid, localKey string) (*Vacuum, error) {
	idCounter := NewCounter(10_000, 32_767)
	seqCounter := NewCounter(100_000, 999_999)
	nonceCounter := NewCounter(10_000, 99_999)

	nonce := idCounter.Next()
	conn, err := Dial(ctx, ip, localKey, nonce, seqCounter.Next(), nonce)
	if err != nil {
		return nil, err
	}

	return &Vacuum{
		ip:           ip,
		duid:         duid,
		localKey:     localKey,
		conn:         conn,
		idCounter:    idCounter,
		seqCounter:   seqCounter,
		nonceCounter: nonceCounter,
	}, nil
}

func (v *Vacuum) LastCleaningRooms() []uint8 {
	return v.lastCleaningRooms
}

// Status fetches and decodes the device's current get_status result.
func (v *Vacuum) Status(ctx context.Context) (Status, error) {
	result, err := v.sendRpcWithRetry(ctx, "get_status", []any{})
	if err != nil {
		return Status{}, err
	}
	status := firstStatusObject(result)

	fanCode := getInt64(status, "fan_power")
	return Status{
		Battery:              uint8(getInt64(status, "battery")),
		State:                stateFromStatus(status),
		FanSpeed:             fanFromCode(fanCode),
		CleanupMode:          cleanupModeFromStatus(status, fanCode),
		ErrorCode:            getInt64(status, "error_code"),
		DockErrorStatus:      getInt64(status, "dock_error_status"),
		DustCollectionStatus: getInt64(status, "dust_collection_status"),
		AutoDustCollection:   getInt64(status, "auto_dust_collection"),
		WaterBoxStatus:       getInt64(status, "water_box_status"),
		WaterBoxMode:         WaterBoxMode(getInt64(status, "water_box_mode")),
		WaterShortageStatus:  getInt64(status, "water_shortage_status"),
		CleanArea:            getInt64(status, "clean_area"),
		CleanTime:            getInt64(status, "clean_time"),
		CleanPercent:         getInt64(status, "clean_percent"),
		MopMode:              mopModeFromCode(getInt64(status, "mop_mode")),
		WashStatus:           washStatusFromCode(getInt64(status, "wash_status")),
		WashPhase:            washPhaseFromCode(getInt64(status, "wash_phase")),
	}, nil
}

// SetFanSpeed sets the device's suction power.
func (v *Vacuum) SetFanSpeed(ctx context.Context, speed FanSpeed) error {
	_, err := v.sendRpcWithRetry(ctx, "set_custom_mode", []any{fanToCode(speed)})
	return err
}

// SetCleanupMode sets the dry/wet/mixed cleanup mode, falling back to
// standard fan speed afterwards if the device is still parked in its
// wet-mop-only fan code.
func (v *Vacuum) SetCleanupMode(ctx context.Context, mode CleanupMode) error {
	waterBoxMode := cleanupModeToWaterBoxMode(mode)
	params := map[string]any{"water_box_mode": int64(waterBoxMode)}
	if _, err := v.sendRpcWithRetry(ctx, "set_water_box_custom_mode", params); err != nil {
		return err
	}

	if mode == CleanupModeWetCleaning {
		_, err := v.sendRpcWithRetry(ctx, "set_custom_mode", []any{105})
		return err
	}

	result, err := v.sendRpcWithRetry(ctx, "get_status", []any{})
	if err != nil {
		return err
	}
	status := firstStatusObject(result)
	if getInt64(status, "fan_power") == 105 {
		return v.SetFanSpeed(ctx, FanSpeedStandard)
	}
	return nil
}

// Start begins cleaning. An empty roomIDs cleans everywhere; otherwise it
// cleans exactly the given segments.
func (v *Vacuum) Start(ctx context.Context, roomIDs []uint8) error {
	v.lastCleaningRooms = roomIDs
	if len(roomIDs) == 0 {
		_, err := v.sendRpcWithRetry(ctx, "app_start", []any{})
		return err
	}
	params := []any{map[string]any{"segments": roomIDs, "repeat": 1}}
	_, err := v.sendRpcWithRetry(ctx, "app_segment_clean", params)
	return err
}

func (v *Vacuum) Stop(ctx context.Context) error {
	_, err := v.sendRpcWithRetry(ctx, "app_stop", []any{})
	return err
}

func (v *Vacuum) GoHome(ctx context.Context) error {
	_, err := v.sendRpcWithRetry(ctx, "app_charge", []any{})
	return err
}

func (v *Vacuum) Pause(ctx context.Context) error {
	_, err := v.sendRpcWithRetry(ctx, "app_pause", []any{})
	return err
}

func (v *Vacuum) Resume(ctx context.Context) error {
	_, err := v.sendRpcWithRetry(ctx, "app_start", []any{})
	return err
}

func (v *Vacuum) sendRpcWithRetry(ctx context.Context, method string, params any) (json.RawMessage, error) {
	requestID := v.idCounter.Next()
	var attempt int
	for {
		result, err := v.conn.SendRpc(ctx, requestID, v.seqCounter.Next(), v.nonceCounter.Next(), method, params)
		if err == nil {
			return result, nil
		}
		if attempt >= 1 || !shouldRetry(err) {
			return nil, err
		}
		attempt++
		if reconnectErr := v.reconnect(ctx); reconnectErr != nil {
			return nil, fmt.Errorf("roborock: reconnect after %q failed: %w", method, reconnectErr)
		}
		time.Sleep(retryDelay)
	}
}

func (v *Vacuum) reconnect(ctx context.Context) error {
	nonce := v.idCounter.Next()
	conn, err := Dial(ctx, v.ip, v.localKey, nonce, v.seqCounter.Next(), nonce)
	if err != nil {
		return err
	}
	v.conn.Close()
	v.conn = conn
	return nil
}

func (v *Vacuum) Close() error {
	return v.conn.Close()
}

func stateFromCode(code int64) State {
	switch {
	case code == 1 || code == 4 || code == 5 || code == 7 || code == 11 || code == 16 ||
		code == 17 || code == 18 || code == 22 || code == 23 || code == 25 || code == 29 ||
		(code >= 6301 && code <= 6309):
		return StateCleaning
	case code == 2 || code == 3:
		return StateIdle
	case code == 6 || code == 15 || code == 26:
		return StateReturning
	case code == 8 || code == 9 || code == 100:
		return StateDocked
	case code == 10:
		return StatePaused
	default:
		return StateUnknown
	}
}

func stateFromStatus(status map[string]any) State {
	if code, ok := status["state"]; ok {
		if mapped := stateFromCode(toInt64(code)); mapped != StateUnknown {
			return mapped
		}
	}
	if toInt64(status["in_cleaning"]) == 1 {
		return StateCleaning
	}
	if toInt64(status["in_returning"]) == 1 {
		return StateReturning
	}
	if toInt64(status["charge_status"]) == 1 {
		return StateDocked
	}
	return StateUnknown
}

func fanFromCode(code int64) FanSpeed {
	switch code {
	case 38, 50, 101, 0:
		return FanSpeedSilent
	case 60, 68, 75, 77, 102, 1:
		return FanSpeedStandard
	case 90, 100, 103, 2:
		return FanSpeedMedium
	case 104, 3:
		return FanSpeedMax
	case 105:
		return FanSpeedOff
	case 106:
		return FanSpeedStandard
	case 108:
		return FanSpeedMax
	case 110:
		return FanSpeedSmartMode
	default:
		return FanSpeedStandard
	}
}

func fanToCode(speed FanSpeed) int64 {
	switch speed {
	case FanSpeedOff:
		return 105
	case FanSpeedSilent:
		return 101
	case FanSpeedStandard:
		return 102
	case FanSpeedMedium:
		return 103
	case FanSpeedTurbo, FanSpeedMax:
		return 104
	case FanSpeedSmartMode:
		return 110
	default:
		return 102
	}
}

func waterBoxModeFromStatus(status map[string]any) WaterBoxMode {
	return WaterBoxMode(getInt64(status, "water_box_mode"))
}

func cleanupModeFromStatus(status map[string]any, fanCode int64) CleanupMode {
	if waterBoxModeFromStatus(status) == WaterBoxModeOff {
		return CleanupModeDryCleaning
	}
	if fanCode == 105 {
		return CleanupModeWetCleaning
	}
	return CleanupModeMixedCleaning
}

func cleanupModeToWaterBoxMode(mode CleanupMode) WaterBoxMode {
	switch mode {
	case CleanupModeDryCleaning:
		return WaterBoxModeOff
	case CleanupModeWetCleaning:
		return WaterBoxModeMax
	case CleanupModeMixedCleaning:
		return WaterBoxModeMedium
	default:
		return WaterBoxModeMedium
	}
}

// firstStatusObject unwraps get_status's result, which the device may
// return as a single-element array rather than a bare object.
func firstStatusObject(raw json.RawMessage) map[string]any {
	var asArray []map[string]any
	if err := json.Unmarshal(raw, &asArray); err == nil {
		if len(asArray) > 0 {
			return asArray[0]
		}
		return map[string]any{}
	}
	var asObject map[string]any
	_ = json.Unmarshal(raw, &asObject)
	if asObject == nil {
		return map[string]any{}
	}
	return asObject
}

func getInt64(status map[string]any, key string) int64 {
	return toInt64(status[key])
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}
