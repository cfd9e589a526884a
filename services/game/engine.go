// Package game is the room state machine. Every operation validates the
// current phase and the requester, then returns the patch that moves the
// room forward. Nothing here touches a store.
package game

import (
	game_constants "Nhauzo/constants/game"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// Randomizer is the source of every random draw the engine makes
type Randomizer interface {
	IntN(n int) int
}

// lockedRand shares one seeded generator between the room actors
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(seed uint64) *lockedRand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// Settings are the tunable timings and the stake set of the rules
type Settings struct {
	Stakes         []float64
	PrepWindow     time.Duration
	TapWindow      time.Duration
	SpinDuration   time.Duration
	TieReplayDelay time.Duration
	RevealDelay    time.Duration
}

// DefaultSettings returns the stock rules
func DefaultSettings() Settings {
	return Settings{
		Stakes:         append([]float64(nil), game_constants.DefaultStakes...),
		PrepWindow:     game_constants.PrepWindow,
		TapWindow:      game_constants.TapWindow,
		SpinDuration:   game_constants.SpinDuration,
		TieReplayDelay: game_constants.TieReplayDelay,
		RevealDelay:    game_constants.RevealDelay,
	}
}

// Engine applies the rules to room documents. It is safe for concurrent
// use as long as its Randomizer is.
type Engine struct {
	settings Settings
	rnd      Randomizer
	now      func() time.Time
}

// NewEngine creates an engine. A nil rnd uses a time-seeded generator and a nil now
// uses time.Now.
func NewEngine(settings Settings, rnd Randomizer, now func() time.Time) *Engine {
	if rnd == nil {
		rnd = newLockedRand(uint64(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	if len(settings.Stakes) == 0 {
		settings.Stakes = append([]float64(nil), game_constants.DefaultStakes...)
	}
	return &Engine{settings: settings, rnd: rnd, now: now}
}

// Settings returns the rules the engine was built with
func (e *Engine) Settings() Settings {
	return e.settings
}

func (e *Engine) nowMs() int64 {
	return e.now().UnixMilli()
}
