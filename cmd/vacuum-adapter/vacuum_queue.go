package main

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/voice-gateway/internal/infrastructure/config"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/roborock"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

// rpcTimeout bounds one queued RPC; the vacuum's own read timeout (15s)
// already caps a single frame exchange, this just keeps a wedged call from
// blocking the queue forever.
const rpcTimeout = 20 * time.Second

type vacuumJob struct {
	action transport.VacuumAction
	reply  chan transport.ActionResult
}

type statusJob struct {
	reply chan statusOutcome
}

type statusOutcome struct {
	state transport.VacuumState
	err   error
}

// vacuumQueue serializes every RPC against the one physical vacuum through
// a single worker goroutine, grounded on bin/elisa/src/lib.rs's
// VacuumQueue (an mpsc channel into a task owning &mut Vacuum).
type vacuumQueue struct {
	cfg    config.RoborockConfig
	logger *logging.Logger

	actions  chan vacuumJob
	statuses chan statusJob
	broken   chan struct{}

	markConnected func()

	mu     sync.Mutex
	vacuum *roborock.Vacuum
}

func newVacuumQueue(cfg config.RoborockConfig, logger *logging.Logger) *vacuumQueue {
	return &vacuumQueue{
		cfg:      cfg,
		logger:   logger,
		actions:  make(chan vacuumJob),
		statuses: make(chan statusJob),
		broken:   make(chan struct{}, 1),
	}
}

// connect is the adapter.ConnectFunc: dials the vacuum, hands it to the
// worker goroutine, and blocks until ctx is cancelled or a queued RPC
// reports the connection broken.
func (q *vacuumQueue) connect(ctx context.Context) error {
	v, err := roborock.NewVacuum(ctx, q.cfg.IP, q.cfg.DUID, q.cfg.Token)
	if err != nil {
		return err
	}

	q.setVacuum(v)
	if q.markConnected != nil {
		q.markConnected()
	}
	defer func() {
		q.setVacuum(nil)
		v.Close()
	}()

	select {
	case <-ctx.Done():
		return nil
	case <-q.broken:
		return errVacuumBroken
	}
}

func (q *vacuumQueue) setVacuum(v *roborock.Vacuum) {
	q.mu.Lock()
	q.vacuum = v
	q.mu.Unlock()
}

func (q *vacuumQueue) getVacuum() *roborock.Vacuum {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.vacuum
}

func (q *vacuumQueue) markBroken() {
	select {
	case q.broken <- struct{}{}:
	default:
	}
}

// run drains queued action and status requests one at a time until ctx is
// cancelled.
func (q *vacuumQueue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.actions:
			job.reply <- q.performAction(job.action)
		case job := <-q.statuses:
			job.reply <- q.fetchStatus()
		}
	}
}

// runAction queues a VacuumAction and blocks for its result.
func (q *vacuumQueue) runAction(action transport.VacuumAction) transport.ActionResult {
	reply := make(chan transport.ActionResult, 1)
	q.actions <- vacuumJob{action: action, reply: reply}
	return <-reply
}

// status queues a status fetch and translates it into a VacuumState.
func (q *vacuumQueue) status() (transport.VacuumState, error) {
	reply := make(chan statusOutcome, 1)
	q.statuses <- statusJob{reply: reply}
	outcome := <-reply
	return outcome.state, outcome.err
}

func (q *vacuumQueue) performAction(action transport.VacuumAction) transport.ActionResult {
	v := q.getVacuum()
	if v == nil {
		return transport.DeviceUnreachable()
	}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	var err error
	switch action.Kind {
	case transport.VacuumActionStart:
		err = v.Start(ctx, q.roomIDs(action.Rooms))
	case transport.VacuumActionStop:
		if err = v.Stop(ctx); err == nil {
			err = v.GoHome(ctx)
		}
	case transport.VacuumActionGoHome:
		err = v.GoHome(ctx)
	case transport.VacuumActionPause:
		err = v.Pause(ctx)
	case transport.VacuumActionResume:
		err = v.Resume(ctx)
	case transport.VacuumActionSetFanSpeed:
		err = v.SetFanSpeed(ctx, fanSpeedFromMode(action.Mode))
	case transport.VacuumActionSetCleanupMode:
		err = v.SetCleanupMode(ctx, cleanupModeFromMode(action.Mode))
	default:
		return transport.ErrorResult(transport.ActionResultCodeInvalidAction, "unknown vacuum action kind")
	}

	if err != nil {
		q.logger.Warn("vacuum-adapter: rpc failed", "kind", string(action.Kind), "error", err)
		q.markBroken()
		return transport.ErrorResult(transport.ActionResultCodeDeviceUnreachable, err.Error())
	}
	return transport.Ok()
}

func (q *vacuumQueue) fetchStatus() statusOutcome {
	v := q.getVacuum()
	if v == nil {
		return statusOutcome{err: errVacuumBroken}
	}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	status, err := v.Status(ctx)
	if err != nil {
		q.logger.Warn("vacuum-adapter: status rpc failed", "error", err)
		q.markBroken()
		return statusOutcome{err: err}
	}

	return statusOutcome{state: transport.VacuumState{
		Battery:     status.Battery,
		IsEnabled:   status.State.IsEnabled(),
		IsPaused:    status.State.IsPaused(),
		WorkSpeed:   modeFromFanSpeed(status.FanSpeed),
		CleanupMode: modeFromCleanupMode(status.CleanupMode),
		Rooms:       q.roomsFromIDs(v.LastCleaningRooms()),
	}}
}

// roomIDs translates a room list into the vacuum's own segment ids,
// dropping any room absent from the configured mapping.
func (q *vacuumQueue) roomIDs(rooms []transport.Room) []uint8 {
	if len(rooms) == 0 {
		return nil
	}
	ids := make([]uint8, 0, len(rooms))
	for _, room := range rooms {
		if id, ok := q.cfg.RoomIDs[room.String()]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// roomsFromIDs is roomIDs' inverse, used to translate the device's
// last-cleaned segment list back into catalog rooms for VacuumState.Rooms.
func (q *vacuumQueue) roomsFromIDs(ids []uint8) []transport.Room {
	if len(ids) == 0 {
		return nil
	}
	byID := make(map[uint8]transport.Room, len(q.cfg.RoomIDs))
	for roomStr, id := range q.cfg.RoomIDs {
		if room, err := transport.ParseRoom(roomStr); err == nil {
			byID[id] = room
		}
	}
	rooms := make([]transport.Room, 0, len(ids))
	for _, id := range ids {
		if room, ok := byID[id]; ok {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

func fanSpeedFromMode(m transport.Mode) roborock.FanSpeed {
	switch m {
	case transport.ModeQuiet, transport.ModeLow:
		return roborock.FanSpeedSilent
	case transport.ModeNormal, transport.ModeMedium:
		return roborock.FanSpeedStandard
	case transport.ModeHigh:
		return roborock.FanSpeedMedium
	case transport.ModeTurbo:
		return roborock.FanSpeedTurbo
	default:
		return roborock.FanSpeedStandard
	}
}

func modeFromFanSpeed(f roborock.FanSpeed) transport.Mode {
	switch f {
	case roborock.FanSpeedOff, roborock.FanSpeedSilent:
		return transport.ModeQuiet
	case roborock.FanSpeedStandard:
		return transport.ModeNormal
	case roborock.FanSpeedMedium:
		return transport.ModeHigh
	case roborock.FanSpeedTurbo, roborock.FanSpeedMax:
		return transport.ModeTurbo
	default:
		return transport.ModeNormal
	}
}

func cleanupModeFromMode(m transport.Mode) roborock.CleanupMode {
	switch m {
	case transport.ModeWetCleaning:
		return roborock.CleanupModeWetCleaning
	case transport.ModeMixedCleaning:
		return roborock.CleanupModeMixedCleaning
	default:
		return roborock.CleanupModeDryCleaning
	}
}

func modeFromCleanupMode(m roborock.CleanupMode) transport.Mode {
	switch m {
	case roborock.CleanupModeWetCleaning:
		return transport.ModeWetCleaning
	case roborock.CleanupModeMixedCleaning:
		return transport.ModeMixedCleaning
	default:
		return transport.ModeDryCleaning
	}
}
