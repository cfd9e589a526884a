package redis

import "sort"

// GameState is the current phase of a room. It decides which of the
// transient fields of GameRoom are meaningful.
type GameState string

const (
	StateLobby           GameState = "LOBBY"
	StatePickingLoser    GameState = "PICKING_LOSER"
	StateDecidingPenalty GameState = "DECIDING_PENALTY"
	StateSpinningPenalty GameState = "SPINNING_PENALTY"
	StateMinigameDuel    GameState = "MINIGAME_DUEL"
	StateResult          GameState = "RESULT"
)

// GameMode is the loser-selection variant chosen when a round starts
type GameMode string

const (
	ModeRandom      GameMode = "RANDOM"
	ModeDeathNumber GameMode = "DEATH_NUMBER"
	ModeVoting      GameMode = "VOTING"
)

// MinigameType identifies one of the duel protocols
type MinigameType string

const (
	MinigameRPS      MinigameType = "RPS"
	MinigameReaction MinigameType = "REACTION"
	MinigameCardFlip MinigameType = "CARD_FLIP"
	MinigameTap      MinigameType = "TAP"
)

// DecisionDuel marks that the loser opted for a duel and is still choosing
// the opponent and the game.
const DecisionDuel = "DUEL"

// Penalty is one entry of the wheel. Positions in GameRoom.Penalties are
// referenced by spin outcomes, so order matters.
type Penalty struct {
	Text   string  `json:"text"`
	Amount float64 `json:"amount"`
}

// Move is a player's submission for the active duel
type Move struct {
	Choice string `json:"choice,omitempty"` // RPS: rock, paper, scissors
	Taps   *int   `json:"taps,omitempty"`   // TAP: final tap count
	At     int64  `json:"at,omitempty"`     // ms timestamp the move was accepted
}

// Player is a member of a room. VoteCount, SelectedNumber, VotedFor and
// MinigameMove are reset every round.
type Player struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IsHost         bool   `json:"isHost"`
	JoinedAt       int64  `json:"joinedAt"`
	VoteCount      int    `json:"voteCount,omitempty"`
	VotedFor       string `json:"votedFor,omitempty"`
	SelectedNumber *int   `json:"selectedNumber,omitempty"`
	MinigameMove   *Move  `json:"minigameMove,omitempty"`
}

// GameRoom is the replicated room document. One is stored per room code.
//
// WinnerID in the RESULT phase names the player who has to drink, and
// WinnerBeerAmount how much.
type GameRoom struct {
	ID               string             `json:"id"`
	HostID           string             `json:"hostId"`
	State            GameState          `json:"state"`
	Mode             GameMode           `json:"mode"`
	Players          map[string]*Player `json:"players"`
	Penalties        []Penalty          `json:"penalties"`
	CurrentLoserID   string             `json:"currentLoserId,omitempty"`
	TargetOpponentID string             `json:"targetOpponentId,omitempty"`
	NextControllerID string             `json:"nextControllerId,omitempty"`
	Decision         string             `json:"decision,omitempty"`
	MinigameType     MinigameType       `json:"minigameType,omitempty"`
	WinnerID         string             `json:"winnerId,omitempty"`
	WinnerBeerAmount *float64           `json:"winnerBeerAmount,omitempty"`
	WinnerPenalty    string             `json:"winnerPenalty,omitempty"`
	SpinData         *SpinData          `json:"spinData,omitempty"`
	MinigameState    *MinigameState     `json:"minigameState,omitempty"`
	DeathNumber      *int               `json:"deathNumber,omitempty"`
	LastUpdate       int64              `json:"lastUpdate"`
}

// Player returns the player with the given id, or nil
func (r *GameRoom) Player(id string) *Player {
	if r == nil || id == "" {
		return nil
	}
	return r.Players[id]
}

// HasPlayer reports whether id is a current member of the room
func (r *GameRoom) HasPlayer(id string) bool {
	return r.Player(id) != nil
}

// OrderedPlayers returns the players in stable enumeration order: by join
// time, then by id. Wheel items and tie-breaks use this order.
func (r *GameRoom) OrderedPlayers() []*Player {
	players := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt != players[j].JoinedAt {
			return players[i].JoinedAt < players[j].JoinedAt
		}
		return players[i].ID < players[j].ID
	})
	return players
}
