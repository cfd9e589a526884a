package postgres

import (
	"time"

	"gorm.io/datatypes"
)

// Where a round's drink came from
const (
	SourceWheel = "WHEEL"
	SourceDuel  = "DUEL"
)

/*
 * 'RoundResult' is one line of a room's drink ledger: who drank, how much
 * and how it was decided. Rows live as long as the room does.
 */
type RoundResult struct {
	ID          uint           `gorm:"primaryKey"`
	RoomID      string         `gorm:"size:8;not null;index:idx_round_results_room"`
	DrinkerID   string         `gorm:"size:64;not null"`
	DrinkerName string         `gorm:"size:64"`
	Amount      float64        `gorm:"not null"`
	Source      string         `gorm:"size:8;not null"`
	Mode        string         `gorm:"size:16"`
	Detail      datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP"`
}

// RoundDetail is stored in RoundResult.Detail
type RoundDetail struct {
	Penalty      string `json:"penalty,omitempty"`
	Minigame     string `json:"minigame,omitempty"`
	ChallengerID string `json:"challengerId,omitempty"`
	DefenderID   string `json:"defenderId,omitempty"`
}
