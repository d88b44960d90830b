package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/voice-gateway/internal/infrastructure/config"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/store"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

// coalesceWindow bounds how long the reporter waits after the first
// unreported change before folding everything queued since into one POST
// to avoid hammering the cloud endpoint on a burst of changes.
const coalesceWindow = 1 * time.Second

// httpTimeout bounds the single notification attempt; the reporter never
// retries a failed POST, it just leaves the facets modified for the next
// coalescing window to pick up.
const httpTimeout = 10 * time.Second

// vacuumRooms is every catalog room that carries a vacuum_cleaner entry.
// There is one physical vacuum; its status answers for all of them at
// once, grounded on reporter/vacuum_cleaner.rs's Room::all_rooms() fan-out.
var vacuumRooms = []transport.Room{
	transport.RoomBedroom, transport.RoomCorridor, transport.RoomHallway,
	transport.RoomHomeOffice, transport.RoomKitchen, transport.RoomLivingRoom,
}

// Reporter subscribes to the `state` broadcast topic, folds updates into a
// store, and pushes the accumulated delta to the voice cloud's state
// callback once per coalescing window.
type Reporter struct {
	bus    Bus
	store  *store.Store
	client *http.Client
	cfg    config.CloudConfig
	logger *logging.Logger

	dirty chan struct{}
}

// New builds a Reporter over the given bus and store.
func New(bus Bus, st *store.Store, cfg config.CloudConfig, logger *logging.Logger) *Reporter {
	return &Reporter{
		bus:    bus,
		store:  st,
		client: &http.Client{Timeout: httpTimeout},
		cfg:    cfg,
		logger: logger,
		dirty:  make(chan struct{}, 1),
	}
}

// Run subscribes to the state topic and drives the coalesce-and-flush loop
// until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) error {
	topic := transport.StateTopic.String()

	handler := func(_ string, payload []byte) error {
		var update transport.Update
		if err := json.Unmarshal(payload, &update); err != nil {
			r.logger.Warn("reporter: decoding state update", "error", err)
			return err
		}
		r.apply(update)
		select {
		case r.dirty <- struct{}{}:
		default:
		}
		return nil
	}

	if err := r.bus.Subscribe(topic, 1, handler); err != nil {
		return fmt.Errorf("%w: subscribing to %s: %v", ErrBusUnavailable, topic, err)
	}
	defer r.bus.Unsubscribe(topic)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-r.dirty:
			if timer == nil {
				timer = time.NewTimer(coalesceWindow)
				timerC = timer.C
			}

		case <-timerC:
			r.flush(ctx)
			timer = nil
			timerC = nil
		}
	}
}

// apply folds one state-topic update into the store, fanning the vacuum's
// single physical status across every room it is catalogued in.
func (r *Reporter) apply(u transport.Update) {
	switch {
	case u.Elizabeth != nil:
		r.store.Apply(u.Elizabeth.Room, u.Elizabeth.DeviceType, u.Elizabeth.Capability)

	case u.Elisa != nil:
		battery := transport.NewBatteryLevelProperty(float32(u.Elisa.Battery))
		for _, cap := range vacuumCapabilities(*u.Elisa) {
			for _, room := range vacuumRooms {
				r.store.Apply(room, transport.DeviceTypeVacuumCleaner, cap)
			}
		}
		for _, room := range vacuumRooms {
			r.store.ApplyProperty(room, transport.DeviceTypeVacuumCleaner, battery)
		}

	case u.Isabel != nil:
		r.store.ApplyProperty(u.Isabel.Room, transport.DeviceTypeTemperatureSensor, u.Isabel.Property)

	case u.Elisheba != nil:
		r.store.Apply(u.Elisheba.Room, transport.DeviceTypeLight, transport.NewOnOffCapability(u.Elisheba.IsEnabled))
	}
}

// vacuumCapabilities projects VacuumState's flat field set into the
// capability list form every other device reports its state as, matching
// orchestrator's translation of the same wire type.
func vacuumCapabilities(s transport.VacuumState) []transport.Capability {
	return []transport.Capability{
		transport.NewOnOffCapability(s.IsEnabled),
		transport.NewToggleCapability(transport.ToggleFunctionPause, s.IsPaused),
		transport.NewModeCapability(transport.ModeFunctionWorkSpeed, s.WorkSpeed),
		transport.NewModeCapability(transport.ModeFunctionCleanupMode, s.CleanupMode),
	}
}

// flush POSTs every modified facet to the voice cloud's state callback in
// a single best-effort attempt — no retry loop. Facets stay marked modified on any
// failure, so they are simply folded into the next window's delta instead
// of being retried immediately.
func (r *Reporter) flush(ctx context.Context) {
	updates := r.store.PrepareUpdates(true)
	if len(updates) == 0 {
		return
	}

	devices := make([]responseDevice, 0, len(updates))
	for _, d := range updates {
		id := transport.NewDeviceId(d.DeviceType, d.Room)
		devices = append(devices, newResponseDevice(id, d.Capabilities, d.Properties))
	}

	body := notificationBody(time.Now().Unix(), r.cfg.UserID, devices)
	payload, err := json.Marshal(body)
	if err != nil {
		r.logger.Error("reporter: encoding notification body", "error", err)
		return
	}

	url := fmt.Sprintf(r.cfg.CallbackURLTemplate, r.cfg.SkillID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		r.logger.Error("reporter: building notification request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "OAuth "+r.cfg.Token)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("reporter: posting state notification", "error", err, "device_count", len(devices))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		r.logger.Error("reporter: unexpected notification response",
			"status", resp.StatusCode, "device_count", len(devices))
		return
	}

	r.store.ResetModified()
}
