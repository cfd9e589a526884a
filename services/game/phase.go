package game

import (
	redis_models "Nhauzo/models/redis"
	"fmt"
)

// Phase is a typed view of a room document. Only the fields meaningful
// in the current state are exposed by each variant.
type Phase interface {
	Kind() redis_models.GameState
}

type LobbyPhase struct{}

// PickingLoserPhase carries the selection procedure of the current mode
type PickingLoserPhase struct {
	Selection Selection
}

// Selection is one of RandomSelection, DeathNumberSelection or
// VotingSelection
type Selection interface {
	Mode() redis_models.GameMode
}

type RandomSelection struct {
	Spin *redis_models.SpinData
}

type DeathNumberSelection struct {
	Secret  int
	Guesses map[string]int
}

type VotingSelection struct {
	Tally   map[string]int
	Ballots map[string]string // voter -> target
	Cast    int
}

type DecidingPenaltyPhase struct {
	LoserID    string
	DuelChosen bool
	OpponentID string
}

type SpinningPenaltyPhase struct {
	LoserID string
	Spin    *redis_models.SpinData
}

type DuelPhase struct {
	ChallengerID string
	DefenderID   string
	Game         redis_models.MinigameType
	State        *redis_models.MinigameState
}

type ResultPhase struct {
	DrinkerID string
	Amount    float64
	Penalty   string
}

func (LobbyPhase) Kind() redis_models.GameState           { return redis_models.StateLobby }
func (PickingLoserPhase) Kind() redis_models.GameState    { return redis_models.StatePickingLoser }
func (DecidingPenaltyPhase) Kind() redis_models.GameState { return redis_models.StateDecidingPenalty }
func (SpinningPenaltyPhase) Kind() redis_models.GameState { return redis_models.StateSpinningPenalty }
func (DuelPhase) Kind() redis_models.GameState            { return redis_models.StateMinigameDuel }
func (ResultPhase) Kind() redis_models.GameState          { return redis_models.StateResult }

func (RandomSelection) Mode() redis_models.GameMode      { return redis_models.ModeRandom }
func (DeathNumberSelection) Mode() redis_models.GameMode { return redis_models.ModeDeathNumber }
func (VotingSelection) Mode() redis_models.GameMode      { return redis_models.ModeVoting }

// Opponent returns the other participant, or "" if id is not in the duel
func (d DuelPhase) Opponent(id string) string {
	switch id {
	case d.ChallengerID:
		return d.DefenderID
	case d.DefenderID:
		return d.ChallengerID
	}
	return ""
}

// PhaseOf reads the typed phase of a room. A document whose fields do not
// fit its state yields ErrInvalidRoom.
func PhaseOf(room *redis_models.GameRoom) (Phase, error) {
	if room == nil {
		return nil, fmt.Errorf("%w: no document", ErrInvalidRoom)
	}
	switch room.State {
	case redis_models.StateLobby:
		return LobbyPhase{}, nil

	case redis_models.StatePickingLoser:
		sel, err := selectionOf(room)
		if err != nil {
			return nil, err
		}
		return PickingLoserPhase{Selection: sel}, nil

	case redis_models.StateDecidingPenalty:
		if room.CurrentLoserID == "" {
			return nil, fmt.Errorf("%w: deciding penalty without a loser", ErrInvalidRoom)
		}
		return DecidingPenaltyPhase{
			LoserID:    room.CurrentLoserID,
			DuelChosen: room.Decision == redis_models.DecisionDuel,
			OpponentID: room.TargetOpponentID,
		}, nil

	case redis_models.StateSpinningPenalty:
		if room.CurrentLoserID == "" {
			return nil, fmt.Errorf("%w: penalty spin without a loser", ErrInvalidRoom)
		}
		return SpinningPenaltyPhase{LoserID: room.CurrentLoserID, Spin: room.SpinData}, nil

	case redis_models.StateMinigameDuel:
		if room.CurrentLoserID == "" || room.TargetOpponentID == "" || room.MinigameState == nil {
			return nil, fmt.Errorf("%w: duel without participants or state", ErrInvalidRoom)
		}
		if _, ok := referees[room.MinigameType]; !ok {
			return nil, fmt.Errorf("%w: unknown minigame %q", ErrInvalidRoom, room.MinigameType)
		}
		return DuelPhase{
			ChallengerID: room.CurrentLoserID,
			DefenderID:   room.TargetOpponentID,
			Game:         room.MinigameType,
			State:        room.MinigameState,
		}, nil

	case redis_models.StateResult:
		if room.WinnerID == "" || room.WinnerBeerAmount == nil {
			return nil, fmt.Errorf("%w: result without a drinker", ErrInvalidRoom)
		}
		return ResultPhase{
			DrinkerID: room.WinnerID,
			Amount:    *room.WinnerBeerAmount,
			Penalty:   room.WinnerPenalty,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidRoom, room.State)
}

func selectionOf(room *redis_models.GameRoom) (Selection, error) {
	switch room.Mode {
	case redis_models.ModeRandom:
		return RandomSelection{Spin: room.SpinData}, nil

	case redis_models.ModeDeathNumber:
		if room.DeathNumber == nil {
			return nil, fmt.Errorf("%w: death number round without a secret", ErrInvalidRoom)
		}
		guesses := make(map[string]int)
		for id, p := range room.Players {
			if p.SelectedNumber != nil {
				guesses[id] = *p.SelectedNumber
			}
		}
		return DeathNumberSelection{Secret: *room.DeathNumber, Guesses: guesses}, nil

	case redis_models.ModeVoting:
		sel := VotingSelection{Tally: make(map[string]int), Ballots: make(map[string]string)}
		for id, p := range room.Players {
			if p.VoteCount > 0 {
				sel.Tally[id] = p.VoteCount
				sel.Cast += p.VoteCount
			}
			if p.VotedFor != "" {
				sel.Ballots[id] = p.VotedFor
			}
		}
		return sel, nil
	}
	return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidRoom, room.Mode)
}
