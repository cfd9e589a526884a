package game

import (
	game_constants "Nhauzo/constants/game"
	redis_models "Nhauzo/models/redis"
	"fmt"
	"math"
	"time"
)

const fullTurn = 2 * math.Pi

// TriggerSpin commits the outcome of a wheel spin before anyone animates
// it. In PICKING_LOSER (random mode) the wheel holds the players in stable
// order; in SPINNING_PENALTY it holds the penalties in list order.
func (e *Engine) TriggerSpin(room *redis_models.GameRoom, requesterID string) (redis_models.Patch, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return nil, err
	}

	var (
		spin     *redis_models.SpinData
		items    int
		winnerID string
		pick     func(i int) string
	)
	switch p := phase.(type) {
	case PickingLoserPhase:
		sel, ok := p.Selection.(RandomSelection)
		if !ok {
			return nil, ErrWrongPhase
		}
		players := room.OrderedPlayers()
		spin, items = sel.Spin, len(players)
		pick = func(i int) string { return players[i].ID }
	case SpinningPenaltyPhase:
		spin, items = p.Spin, len(room.Penalties)
		pick = func(int) string { return p.LoserID }
	default:
		return nil, ErrWrongPhase
	}

	if !CanInitiate(room, requesterID) {
		return nil, ErrNotAllowed
	}
	if spin != nil && spin.IsSpinning {
		return nil, ErrSpinInProgress
	}
	if items == 0 {
		return nil, fmt.Errorf("%w: the wheel is empty", ErrValidation)
	}

	index := e.rnd.IntN(items)
	winnerID = pick(index)
	rotations := game_constants.SpinMinRotations +
		e.rnd.IntN(game_constants.SpinMaxRotations-game_constants.SpinMinRotations+1)

	return redis_models.Patch{
		"spinData": &redis_models.SpinData{
			IsSpinning:  true,
			WinnerIndex: index,
			WinnerID:    winnerID,
			StartTime:   e.nowMs(),
			ItemCount:   items,
			Rotations:   rotations,
			DurationMs:  e.settings.SpinDuration.Milliseconds(),
		},
	}, nil
}

// FinishSpin applies a committed spin once its animation is over. startTime
// identifies the spin; any other value is stale.
func (e *Engine) FinishSpin(room *redis_models.GameRoom, startTime int64) (redis_models.Patch, error) {
	spin := room.SpinData
	if spin == nil || !spin.IsSpinning || spin.StartTime != startTime {
		return nil, ErrStale
	}
	phase, err := PhaseOf(room)
	if err != nil {
		return nil, err
	}

	switch phase.(type) {
	case PickingLoserPhase:
		if !room.HasPlayer(spin.WinnerID) {
			// the drawn player left mid-spin, the wheel can be spun again
			return redis_models.Patch{"spinData": nil}, nil
		}
		return enterDecidingPenalty(spin.WinnerID), nil

	case SpinningPenaltyPhase:
		if spin.WinnerIndex < 0 || spin.WinnerIndex >= len(room.Penalties) {
			return nil, fmt.Errorf("%w: spin index %d out of %d penalties", ErrInvalidRoom, spin.WinnerIndex, len(room.Penalties))
		}
		penalty := room.Penalties[spin.WinnerIndex]
		return redis_models.Patch{
			"state":            redis_models.StateResult,
			"winnerId":         spin.WinnerID,
			"winnerBeerAmount": penalty.Amount,
			"winnerPenalty":    penalty.Text,
			"spinData":         nil,
		}, nil
	}
	return nil, ErrStale
}

// SegmentAngle is the arc of one of itemCount wheel segments
func SegmentAngle(itemCount int) float64 {
	return fullTurn / float64(itemCount)
}

// TerminalRotation is the angle the wheel settles at so that the center of
// segment winnerIndex sits under the pointer at angle 0
func TerminalRotation(itemCount, winnerIndex, rotations int) float64 {
	arc := SegmentAngle(itemCount)
	return float64(rotations)*fullTurn + (fullTurn - (float64(winnerIndex)+0.5)*arc)
}

// IndexAtRotation returns the segment under the pointer for a rotation
func IndexAtRotation(itemCount int, rotation float64) int {
	a := math.Mod(-rotation, fullTurn)
	if a < 0 {
		a += fullTurn
	}
	i := int(math.Floor(a / SegmentAngle(itemCount)))
	if i >= itemCount {
		i = itemCount - 1
	}
	return i
}

// SpinProgress is the eased progress in [0, 1] of a spin at now
func SpinProgress(spin *redis_models.SpinData, now time.Time) float64 {
	if spin.DurationMs <= 0 {
		return 1
	}
	p := float64(now.UnixMilli()-spin.StartTime) / float64(spin.DurationMs)
	p = math.Max(0, math.Min(1, p))
	return 1 - math.Pow(1-p, 3)
}

// RotationAt is the wheel angle an observer draws at now. Every observer
// reaches TerminalRotation once the duration has elapsed, however late
// the commit reached them.
func RotationAt(spin *redis_models.SpinData, now time.Time) float64 {
	return TerminalRotation(spin.ItemCount, spin.WinnerIndex, spin.Rotations) * SpinProgress(spin, now)
}
