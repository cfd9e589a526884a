package game

import (
	game_constants "Nhauzo/constants/game"
	redis_models "Nhauzo/models/redis"
	"fmt"
	"strings"
	"unicode/utf8"
)

// NormalizeRoomCode upper-cases and checks a room code typed by a player
func NormalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != game_constants.RoomCodeLength {
		return "", fmt.Errorf("%w: room code must have %d characters", ErrValidation, game_constants.RoomCodeLength)
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return "", fmt.Errorf("%w: room code contains %q", ErrValidation, c)
		}
	}
	return code, nil
}

// NormalizeName trims a display name and enforces its length
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > game_constants.PlayerNameMaxLength {
		return "", fmt.Errorf("%w: name longer than %d characters", ErrValidation, game_constants.PlayerNameMaxLength)
	}
	return name, nil
}

// NewRoom builds the initial document: LOBBY, RANDOM mode, the default
// penalties and the host as the only player.
func (e *Engine) NewRoom(hostID, hostName, roomID string) (*redis_models.GameRoom, error) {
	name, err := NormalizeName(hostName)
	if err != nil {
		return nil, err
	}
	code, err := NormalizeRoomCode(roomID)
	if err != nil {
		return nil, err
	}
	if hostID == "" {
		return nil, fmt.Errorf("%w: missing host id", ErrValidation)
	}

	now := e.nowMs()
	return &redis_models.GameRoom{
		ID:     code,
		HostID: hostID,
		State:  redis_models.StateLobby,
		Mode:   redis_models.ModeRandom,
		Players: map[string]*redis_models.Player{
			hostID: {ID: hostID, Name: name, IsHost: true, JoinedAt: now},
		},
		Penalties:  DefaultPenalties(),
		LastUpdate: now,
	}, nil
}

// AddPlayer admits a new member. Joining is possible in every phase. A
// vote or guess round in progress then also waits for the newcomer.
func (e *Engine) AddPlayer(room *redis_models.GameRoom, playerID, playerName string) (redis_models.Patch, error) {
	name, err := NormalizeName(playerName)
	if err != nil {
		return nil, err
	}
	if playerID == "" {
		return nil, fmt.Errorf("%w: missing player id", ErrValidation)
	}
	if room.HasPlayer(playerID) {
		return nil, fmt.Errorf("%w: player %s already joined", ErrAlreadySubmitted, playerID)
	}
	return redis_models.Patch{
		redis_models.PlayerPath(playerID): &redis_models.Player{
			ID:       playerID,
			Name:     name,
			JoinedAt: e.nowMs(),
		},
	}, nil
}

// RemovePlayer drops a member. closeRoom is true when the host leaves or
// the room would be empty; the caller then removes the whole room.
//
// A pending vote or guess round is re-evaluated without the leaver, so
// their departure can complete it.
func (e *Engine) RemovePlayer(room *redis_models.GameRoom, playerID string) (patch redis_models.Patch, closeRoom bool, err error) {
	leaver := room.Player(playerID)
	if leaver == nil {
		return nil, false, ErrUnknownPlayer
	}
	if playerID == room.HostID || len(room.Players) <= 1 {
		return nil, true, nil
	}

	patch = redis_models.Patch{redis_models.PlayerPath(playerID): nil}
	if room.NextControllerID == playerID {
		patch["nextControllerId"] = nil
	}

	phase, err := PhaseOf(room)
	if err != nil {
		return patch, false, nil
	}
	picking, ok := phase.(PickingLoserPhase)
	if !ok {
		return patch, false, nil
	}

	if voting, ok := picking.Selection.(VotingSelection); ok {
		// withdraw the leaver's ballot and void the ballots cast for them
		if target := leaver.VotedFor; target != "" && target != playerID {
			if p := room.Player(target); p != nil {
				patch[redis_models.PlayerField(target, "voteCount")] = p.VoteCount - 1
			}
		}
		for voter, target := range voting.Ballots {
			if target == playerID && voter != playerID {
				patch[redis_models.PlayerField(voter, "votedFor")] = nil
			}
		}
	}

	next, err := room.Apply(patch)
	if err != nil {
		return nil, false, err
	}
	if len(next.Players) == 0 {
		return nil, true, nil
	}
	resolved, err := e.resolveSelection(next)
	if err != nil {
		return nil, false, err
	}
	return patch.Merge(resolved), false, nil
}

// StartRound moves LOBBY to PICKING_LOSER in the given mode
func (e *Engine) StartRound(room *redis_models.GameRoom, requesterID string, mode redis_models.GameMode) (redis_models.Patch, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return nil, err
	}
	if _, ok := phase.(LobbyPhase); !ok {
		return nil, ErrWrongPhase
	}
	if !CanInitiate(room, requesterID) {
		return nil, ErrNotAllowed
	}

	patch := resetRound(room)
	patch["state"] = redis_models.StatePickingLoser
	patch["mode"] = mode
	switch mode {
	case redis_models.ModeRandom, redis_models.ModeVoting:
	case redis_models.ModeDeathNumber:
		span := game_constants.DeathNumberMax - game_constants.DeathNumberMin + 1
		patch["deathNumber"] = game_constants.DeathNumberMin + e.rnd.IntN(span)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrValidation, mode)
	}
	return patch, nil
}

// DecidePenalty records the loser's choice between the wheel and a duel
func (e *Engine) DecidePenalty(room *redis_models.GameRoom, playerID, choice string) (redis_models.Patch, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return nil, err
	}
	deciding, ok := phase.(DecidingPenaltyPhase)
	if !ok {
		return nil, ErrWrongPhase
	}
	if playerID != deciding.LoserID {
		return nil, ErrNotAllowed
	}

	switch choice {
	case game_constants.DecisionAccept:
		if len(room.Penalties) == 0 {
			return nil, fmt.Errorf("%w: the wheel has no penalties", ErrValidation)
		}
		return redis_models.Patch{
			"state":            redis_models.StateSpinningPenalty,
			"decision":         nil,
			"targetOpponentId": nil,
			"spinData":         nil,
		}, nil

	case game_constants.DecisionDuel:
		if len(room.Players) < 2 {
			return nil, fmt.Errorf("%w: nobody to duel", ErrValidation)
		}
		return redis_models.Patch{"decision": redis_models.DecisionDuel}, nil
	}
	return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, choice)
}

// ChooseOpponent picks the defender of the duel
func (e *Engine) ChooseOpponent(room *redis_models.GameRoom, playerID, targetID string) (redis_models.Patch, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return nil, err
	}
	deciding, ok := phase.(DecidingPenaltyPhase)
	if !ok || !deciding.DuelChosen {
		return nil, ErrWrongPhase
	}
	if playerID != deciding.LoserID {
		return nil, ErrNotAllowed
	}
	if targetID == playerID {
		return nil, fmt.Errorf("%w: cannot duel yourself", ErrValidation)
	}
	if !room.HasPlayer(targetID) {
		return nil, ErrUnknownPlayer
	}
	return redis_models.Patch{"targetOpponentId": targetID}, nil
}

// ChooseMinigame draws the stake, deals the duel state and enters
// MINIGAME_DUEL
func (e *Engine) ChooseMinigame(room *redis_models.GameRoom, playerID string, game redis_models.MinigameType) (redis_models.Patch, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return nil, err
	}
	deciding, ok := phase.(DecidingPenaltyPhase)
	if !ok || !deciding.DuelChosen || deciding.OpponentID == "" {
		return nil, ErrWrongPhase
	}
	if playerID != deciding.LoserID {
		return nil, ErrNotAllowed
	}
	if !room.HasPlayer(deciding.OpponentID) {
		return nil, ErrUnknownPlayer
	}
	ref, ok := referees[game]
	if !ok {
		return nil, fmt.Errorf("%w: unknown minigame %q", ErrValidation, game)
	}

	duel := DuelPhase{
		ChallengerID: deciding.LoserID,
		DefenderID:   deciding.OpponentID,
		Game:         game,
		State: &redis_models.MinigameState{
			StartedAt:   e.nowMs(),
			BasePenalty: e.drawStake(),
		},
	}
	ref.setup(e, duel)

	return redis_models.Patch{
		"state":         redis_models.StateMinigameDuel,
		"decision":      nil,
		"minigameType":  game,
		"minigameState": duel.State,
		redis_models.PlayerField(duel.ChallengerID, "minigameMove"): nil,
		redis_models.PlayerField(duel.DefenderID, "minigameMove"):   nil,
	}, nil
}

// ReturnToLobby lets the host end the round from any phase. From RESULT
// the player who drank controls the next round.
func (e *Engine) ReturnToLobby(room *redis_models.GameRoom, requesterID string) (redis_models.Patch, error) {
	if requesterID != room.HostID {
		return nil, ErrNotAllowed
	}
	if room.State == redis_models.StateLobby {
		return nil, ErrWrongPhase
	}

	patch := resetRound(room)
	patch["state"] = redis_models.StateLobby
	if room.State == redis_models.StateResult && room.HasPlayer(room.WinnerID) {
		patch["nextControllerId"] = room.WinnerID
	}
	return patch, nil
}

// enterDecidingPenalty hands the round to the selected loser
func enterDecidingPenalty(loserID string) redis_models.Patch {
	return redis_models.Patch{
		"state":            redis_models.StateDecidingPenalty,
		"currentLoserId":   loserID,
		"nextControllerId": loserID,
		"decision":         nil,
		"targetOpponentId": nil,
		"spinData":         nil,
	}
}

// resetRound clears every round-scoped field of the room and its players
func resetRound(room *redis_models.GameRoom) redis_models.Patch {
	patch := redis_models.Patch{
		"currentLoserId":   nil,
		"targetOpponentId": nil,
		"decision":         nil,
		"minigameType":     nil,
		"winnerId":         nil,
		"winnerBeerAmount": nil,
		"winnerPenalty":    nil,
		"spinData":         nil,
		"minigameState":    nil,
		"deathNumber":      nil,
	}
	for id := range room.Players {
		patch[redis_models.PlayerField(id, "voteCount")] = nil
		patch[redis_models.PlayerField(id, "votedFor")] = nil
		patch[redis_models.PlayerField(id, "selectedNumber")] = nil
		patch[redis_models.PlayerField(id, "minigameMove")] = nil
	}
	return patch
}
