package redis

// Card kinds of the risk card-flip duel
const (
	CardSafe   = "SAFE"
	CardBomb   = "BOMB"
	CardHidden = "HIDDEN" // face down in documents sent to clients
)

// SpinData is the committed outcome of a wheel spin. The outcome is written
// before any client animates, so every observer lands on WinnerIndex.
type SpinData struct {
	IsSpinning  bool   `json:"isSpinning"`
	WinnerIndex int    `json:"winnerIndex"`
	WinnerID    string `json:"winnerId,omitempty"`
	StartTime   int64  `json:"startTime"`  // ms, wall clock of the commit
	ItemCount   int    `json:"itemCount"`  // number of wheel segments
	Rotations   int    `json:"rotations"`  // full turns before settling
	DurationMs  int64  `json:"durationMs"` // animation length
}

// MinigameState holds the duel-scoped fields. It is wiped when the duel ends.
type MinigameState struct {
	StartedAt    int64    `json:"startedAt"` // identifies the duel instance
	Round        int      `json:"round"`     // bumped on every replay after a tie
	BasePenalty  float64  `json:"basePenalty"`
	Cards        []string `json:"cards,omitempty"`
	Flipped      []int    `json:"flipped,omitempty"`
	CurrentTurn  string   `json:"currentTurn,omitempty"`
	CanAttack    bool     `json:"canAttack"`
	GateOpenedAt int64    `json:"gateOpenedAt,omitempty"`
	WindowEndsAt int64    `json:"windowEndsAt,omitempty"`
	Tie          bool     `json:"tie,omitempty"`
	Loser        string   `json:"loser,omitempty"`
}

// IsFlipped reports whether the card at index has been revealed
func (m *MinigameState) IsFlipped(index int) bool {
	for _, i := range m.Flipped {
		if i == index {
			return true
		}
	}
	return false
}
