package room

import (
	redis_models "Nhauzo/models/redis"
	"Nhauzo/services/game"
	"Nhauzo/services/store"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Recorder receives every finished round and forgets a room once it is
// destroyed
type Recorder interface {
	Record(ctx context.Context, room *redis_models.GameRoom) error
	Purge(ctx context.Context, roomID string) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, *redis_models.GameRoom) error { return nil }
func (nopRecorder) Purge(context.Context, string) error                 { return nil }

// outcome is what an operation wants written: a patch, or the removal of
// the whole room
type outcome struct {
	patch     redis_models.Patch
	closeRoom bool
	halt      bool // stop the actor and keep the document
}

type operation func(room *redis_models.GameRoom) (outcome, error)

type result struct {
	room *redis_models.GameRoom
	err  error
}

type request struct {
	name    string
	op      operation
	timer   string // key of the authority timer that posted it, if any
	attempt int
	reply   chan result
}

const (
	inboxSize    = 256
	writeTimeout = 5 * time.Second

	// a failed timer event is posted again after timerRetryDelay, doubling
	// up to timerRetries times
	timerRetryDelay = 500 * time.Millisecond
	timerRetries    = 5
)

// Actor owns one room. It is the only writer of the room document: player
// intents and timer events are serialized through its inbox.
type Actor struct {
	id       string
	store    store.RoomStore
	engine   *game.Engine
	clock    Clock
	recorder Recorder
	log      *log.Entry

	room   *redis_models.GameRoom
	timers map[string]Timer
	inbox  chan request
	done   chan struct{}

	onClose func(roomID string)
}

func newActor(room *redis_models.GameRoom, st store.RoomStore, engine *game.Engine, clock Clock, rec Recorder, onClose func(string)) *Actor {
	return &Actor{
		id:       room.ID,
		store:    st,
		engine:   engine,
		clock:    clock,
		recorder: rec,
		log:      log.WithField("room", room.ID),
		room:     room,
		timers:   make(map[string]Timer),
		inbox:    make(chan request, inboxSize),
		done:     make(chan struct{}),
		onClose:  onClose,
	}
}

// Done is closed once the room is gone and the actor stopped
func (a *Actor) Done() <-chan struct{} {
	return a.done
}

// Do runs op inside the actor and returns the document it produced
func (a *Actor) Do(ctx context.Context, name string, op operation) (*redis_models.GameRoom, error) {
	req := request{name: name, op: op, reply: make(chan result, 1)}
	select {
	case a.inbox <- req:
	case <-a.done:
		return nil, store.ErrRoomNotFound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.room, res.err
	case <-a.done:
		// the reply, if any, was sent before the actor stopped
		select {
		case res := <-req.reply:
			return res.room, res.err
		default:
			return nil, store.ErrRoomNotFound
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Actor) run() {
	a.schedule(a.room)
	for {
		select {
		case req := <-a.inbox:
			a.handle(req)
		case <-a.done:
			return
		}
	}
}

func (a *Actor) handle(req request) {
	if req.timer != "" {
		delete(a.timers, req.timer)
	}

	reply := func(room *redis_models.GameRoom, err error) {
		if req.reply != nil {
			req.reply <- result{room: room, err: err}
		}
	}

	out, err := req.op(a.room)
	if err != nil {
		if errors.Is(err, game.ErrStale) {
			a.log.Debugf("[%s] Ignoring stale event", req.name)
		} else {
			a.log.Debugf("[%s] Rejected: %v", req.name, err)
			a.retry(req)
		}
		reply(nil, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if out.halt {
		reply(nil, nil)
		a.stop()
		return
	}
	if out.closeRoom {
		a.shutdown(ctx, req.name)
		reply(nil, nil)
		a.stop()
		return
	}
	if len(out.patch) == 0 {
		reply(a.room, nil)
		return
	}

	prev := a.room
	next, err := a.store.UpdateRoom(ctx, a.id, out.patch)
	if err != nil {
		reply(nil, err)
		if errors.Is(err, store.ErrRoomNotFound) {
			// expired or removed behind our back
			a.log.Warnf("[%s] Room document vanished, stopping", req.name)
			a.stop()
		} else {
			a.log.Errorf("[%s] Error writing room: %v", req.name, err)
			a.retry(req)
		}
		return
	}
	a.room = next

	if prev.State != redis_models.StateResult && next.State == redis_models.StateResult {
		a.record(next)
	}
	a.schedule(next)
	reply(next, nil)
}

func (a *Actor) record(room *redis_models.GameRoom) {
	rec := a.recorder
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := rec.Record(ctx, room); err != nil {
			a.log.Errorf("[LEDGER] Error recording round: %v", err)
		}
	}()
}

func (a *Actor) shutdown(ctx context.Context, reason string) {
	if err := a.store.RemoveRoom(ctx, a.id); err != nil {
		a.log.Errorf("[%s] Error removing room: %v", reason, err)
	}
	if err := a.recorder.Purge(ctx, a.id); err != nil {
		a.log.Errorf("[LEDGER] Error purging room: %v", err)
	}
	a.log.Infof("[%s] Room closed", reason)
}

func (a *Actor) stop() {
	for key, t := range a.timers {
		t.Stop()
		delete(a.timers, key)
	}
	select {
	case <-a.done:
	default:
		close(a.done)
		if a.onClose != nil {
			a.onClose(a.id)
		}
	}
}

// retry arms a failed timer event again while the document still wants it
func (a *Actor) retry(req request) {
	if req.timer == "" || req.attempt >= timerRetries {
		return
	}
	if _, wanted := a.wantedTimers(a.room)[req.timer]; !wanted {
		return
	}
	delay := timerRetryDelay << req.attempt
	req.attempt++
	a.log.Warnf("[%s] Retrying in %s (attempt %d)", req.name, delay, req.attempt)
	a.arm(req, delay)
}

func (a *Actor) arm(req request, delay time.Duration) {
	a.timers[req.timer] = a.clock.AfterFunc(delay, func() {
		select {
		case a.inbox <- req:
		case <-a.done:
		}
	})
}

type timerSpec struct {
	delay time.Duration
	name  string
	op    operation
}

// schedule derives the authority timers the document needs. Timers are
// keyed by the spin or duel instance they belong to, so deriving twice
// arms each only once; timers no longer wanted are stopped.
func (a *Actor) schedule(room *redis_models.GameRoom) {
	wanted := a.wantedTimers(room)
	for key, t := range a.timers {
		if _, ok := wanted[key]; !ok {
			t.Stop()
			delete(a.timers, key)
		}
	}
	for key, spec := range wanted {
		if _, armed := a.timers[key]; armed {
			continue
		}
		a.arm(request{name: spec.name, op: spec.op, timer: key}, spec.delay)
	}
}

func (a *Actor) wantedTimers(room *redis_models.GameRoom) map[string]timerSpec {
	wanted := make(map[string]timerSpec)
	e := a.engine
	settings := e.Settings()
	now := a.clock.Now()

	if spin := room.SpinData; spin != nil && spin.IsSpinning {
		start := spin.StartTime
		wanted[fmt.Sprintf("spin:%d", start)] = timerSpec{
			delay: untilMs(now, start+spin.DurationMs),
			name:  "SPIN",
			op:    patchOp(func(r *redis_models.GameRoom) (redis_models.Patch, error) { return e.FinishSpin(r, start) }),
		}
	}

	st := room.MinigameState
	if room.State != redis_models.StateMinigameDuel || st == nil {
		return wanted
	}
	startedAt, round := st.StartedAt, st.Round
	switch {
	case st.Loser != "":
		wanted[fmt.Sprintf("reveal:%d", startedAt)] = timerSpec{
			delay: settings.RevealDelay,
			name:  "DUEL-RESULT",
			op:    patchOp(func(r *redis_models.GameRoom) (redis_models.Patch, error) { return e.FinalizeDuel(r, startedAt) }),
		}
	case st.Tie:
		wanted[fmt.Sprintf("tie:%d:%d", startedAt, round)] = timerSpec{
			delay: settings.TieReplayDelay,
			name:  "DUEL-TIE",
			op:    patchOp(func(r *redis_models.GameRoom) (redis_models.Patch, error) { return e.ClearTie(r, startedAt, round) }),
		}
	case game.Gated(room.MinigameType) && !st.CanAttack && st.GateOpenedAt == 0:
		wanted[fmt.Sprintf("gate:%d:%d", startedAt, round)] = timerSpec{
			delay: settings.PrepWindow,
			name:  "DUEL-GATE",
			op:    patchOp(func(r *redis_models.GameRoom) (redis_models.Patch, error) { return e.OpenGate(r, startedAt, round) }),
		}
	case room.MinigameType == redis_models.MinigameTap && st.CanAttack:
		wanted[fmt.Sprintf("window:%d:%d", startedAt, round)] = timerSpec{
			delay: untilMs(now, st.WindowEndsAt),
			name:  "TAP-WINDOW",
			op:    patchOp(func(r *redis_models.GameRoom) (redis_models.Patch, error) { return e.CloseTapWindow(r, startedAt, round) }),
		}
	}
	return wanted
}

func patchOp(f func(*redis_models.GameRoom) (redis_models.Patch, error)) operation {
	return func(room *redis_models.GameRoom) (outcome, error) {
		patch, err := f(room)
		return outcome{patch: patch}, err
	}
}

func untilMs(now time.Time, deadlineMs int64) time.Duration {
	d := time.UnixMilli(deadlineMs).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
