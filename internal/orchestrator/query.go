package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

// queryWindow is how long the query path waits for responses before
// returning whatever arrived.
const queryWindow = 10 * time.Second

// StateDevice is the cloud-facing per-device state snapshot the query path
// returns: a DeviceId plus the capability list translated from whichever
// service answered.
type StateDevice struct {
	ID           transport.DeviceId
	Capabilities []transport.Capability
}

// QueryRunner executes the query path (C9): publish requested device ids
// to state/request, collect state/response/<id> messages for up to
// queryWindow, and translate them into StateDevice snapshots.
type QueryRunner struct {
	bus    Bus
	logger *logging.Logger
}

// NewQueryRunner builds a QueryRunner over the given bus.
func NewQueryRunner(bus Bus, logger *logging.Logger) *QueryRunner {
	return &QueryRunner{bus: bus, logger: logger}
}

// Run queries the given device ids and returns whatever StateDevice
// snapshots arrived before the window closed. The result may be a strict
// subset of ids if some services never answered — partial results on
// timeout are expected, not an error.
func (r *QueryRunner) Run(ctx context.Context, requestID string, ids []transport.DeviceId) ([]StateDevice, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pending := make(map[transport.DeviceId]struct{}, len(ids))
	for _, id := range ids {
		pending[id] = struct{}{}
	}

	responseTopic := transport.NewStateResponseTopic(requestID).String()

	received := make(chan transport.StateResponse, len(ids))
	handler := func(_ string, payload []byte) error {
		var msg transport.StateResponse
		if err := json.Unmarshal(payload, &msg); err != nil {
			if r.logger != nil {
				r.logger.Warn("orchestrator: decoding state response", "error", err)
			}
			return err
		}
		select {
		case received <- msg:
		default:
		}
		return nil
	}

	if err := r.bus.Subscribe(responseTopic, 1, handler); err != nil {
		return nil, fmt.Errorf("%w: subscribing to %s: %v", ErrBusUnavailable, responseTopic, err)
	}
	defer r.bus.Unsubscribe(responseTopic)

	payload, err := json.Marshal(transport.StateRequestMessage{DeviceIds: ids, ResponseTopic: responseTopic})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: encoding state request: %w", err)
	}
	if err := r.bus.Publish(transport.StateRequestTopic.String(), payload, 1, false); err != nil {
		return nil, fmt.Errorf("%w: publishing state request: %v", ErrBusUnavailable, err)
	}

	var devices []StateDevice
	deadline := time.NewTimer(queryWindow)
	defer deadline.Stop()

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return devices, nil
		case <-deadline.C:
			return devices, nil
		case msg := <-received:
			devices = append(devices, translateStateResponse(msg, pending)...)
		}
	}
	return devices, nil
}

// translateStateResponse maps one StateResponse to the StateDevice entries
// it satisfies, removing matched ids from pending. Responses for
// unrequested ids are ignored.
func translateStateResponse(msg transport.StateResponse, pending map[transport.DeviceId]struct{}) []StateDevice {
	switch {
	case msg.Elizabeth != nil:
		id := transport.NewDeviceId(msg.Elizabeth.DeviceType, msg.Elizabeth.Room)
		if _, ok := pending[id]; !ok {
			return nil
		}
		delete(pending, id)
		return []StateDevice{{ID: id, Capabilities: msg.Elizabeth.Capabilities}}

	case msg.Elisa != nil:
		// The vacuum is one physical device reported under a catalog entry
		// per room it can clean; one VacuumState answers every pending
		// vacuum_cleaner/<room> id at once.
		caps := vacuumCapabilities(*msg.Elisa)
		var matched []StateDevice
		for id := range pending {
			if id.DeviceType != transport.DeviceTypeVacuumCleaner {
				continue
			}
			matched = append(matched, StateDevice{ID: id, Capabilities: caps})
		}
		for _, d := range matched {
			delete(pending, d.ID)
		}
		return matched

	default:
		return nil
	}
}

// vacuumCapabilities projects VacuumState's flat field set into the
// capability list form every other device reports its state as.
func vacuumCapabilities(s transport.VacuumState) []transport.Capability {
	return []transport.Capability{
		transport.NewOnOffCapability(s.IsEnabled),
		transport.NewToggleCapability(transport.ToggleFunctionPause, s.IsPaused),
		transport.NewModeCapability(transport.ModeFunctionWorkSpeed, s.WorkSpeed),
		transport.NewModeCapability(transport.ModeFunctionCleanupMode, s.CleanupMode),
	}
}
