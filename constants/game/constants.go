package game_constants

import "time"

// Room codes
const (
	RoomCodeLength   = 4
	RoomCodeChars    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	RoomCodeAttempts = 10
)

// Death-number mode draws the secret in [DeathNumberMin, DeathNumberMax]
const (
	DeathNumberMin = 1
	DeathNumberMax = 20
)

// Wheel animation
const (
	SpinDuration     = 4 * time.Second
	SpinMinRotations = 5
	SpinMaxRotations = 7
)

// Duel timings
const (
	PrepWindow     = 3 * time.Second
	TapWindow      = 10 * time.Second
	TieReplayDelay = 1500 * time.Millisecond
	RevealDelay    = 1500 * time.Millisecond
)

// MaxTapsPerSecond bounds a submitted tap count to windowSeconds * MaxTapsPerSecond
const MaxTapsPerSecond = 25

// Risk card-flip deck composition
const (
	SafeCards = 5
	BombCards = 1
)

// PlayerNameMaxLength caps display names
const PlayerNameMaxLength = 24

// PenaltyTextMaxLength caps the text of a wheel entry
const PenaltyTextMaxLength = 80

// DefaultStakes is the set a duel stake is drawn from
var DefaultStakes = []float64{0.1, 0.2, 0.3, 0.4, 0.5}

// RPS moves
const (
	MoveRock     = "rock"
	MovePaper    = "paper"
	MoveScissors = "scissors"
)

// Penalty decisions of the loser
const (
	DecisionAccept = "ACCEPT"
	DecisionDuel   = "DUEL"
)

// RoomTTL is how long an idle room document lives in Redis
const RoomTTL = 24 * time.Hour

// MaxStake bounds a configured duel stake
const MaxStake = 1.0
