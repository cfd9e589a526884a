// Package ledger keeps the drink tally of each room in PostgreSQL
package ledger

import (
	"Nhauzo/models/postgres"
	redis_models "Nhauzo/models/redis"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger records finished rounds. It satisfies room.Recorder.
type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// DrinkerTotal sums the ledger of one player
type DrinkerTotal struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Rounds   int     `json:"rounds"`
}

// ResultFromRoom turns a room in RESULT into a ledger row
func ResultFromRoom(room *redis_models.GameRoom) (*postgres.RoundResult, error) {
	if room.State != redis_models.StateResult || room.WinnerID == "" || room.WinnerBeerAmount == nil {
		return nil, fmt.Errorf("room %s has no result to record", room.ID)
	}

	row := &postgres.RoundResult{
		RoomID:    room.ID,
		DrinkerID: room.WinnerID,
		Amount:    *room.WinnerBeerAmount,
		Mode:      string(room.Mode),
		Source:    postgres.SourceWheel,
	}
	if p := room.Player(room.WinnerID); p != nil {
		row.DrinkerName = p.Name
	}

	detail := postgres.RoundDetail{Penalty: room.WinnerPenalty}
	if room.MinigameType != "" {
		row.Source = postgres.SourceDuel
		detail = postgres.RoundDetail{
			Minigame:     string(room.MinigameType),
			ChallengerID: room.CurrentLoserID,
			DefenderID:   room.TargetOpponentID,
		}
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("error marshaling round detail: %v", err)
	}
	row.Detail = datatypes.JSON(raw)
	return row, nil
}

func (l *Ledger) Record(ctx context.Context, room *redis_models.GameRoom) error {
	row, err := ResultFromRoom(room)
	if err != nil {
		return err
	}
	if err := l.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("error saving round result: %w", err)
	}
	log.WithFields(log.Fields{"room": room.ID, "player": row.DrinkerID}).Infof("[LEDGER] Recorded %.1f", row.Amount)
	return nil
}

// ListByRoom returns the rows of a room, oldest first
func (l *Ledger) ListByRoom(ctx context.Context, roomID string) ([]postgres.RoundResult, error) {
	var rows []postgres.RoundResult
	err := l.db.WithContext(ctx).Where("room_id = ?", roomID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error reading ledger: %w", err)
	}
	return rows, nil
}

// Purge forgets a destroyed room
func (l *Ledger) Purge(ctx context.Context, roomID string) error {
	err := l.db.WithContext(ctx).Where("room_id = ?", roomID).Delete(&postgres.RoundResult{}).Error
	if err != nil {
		return fmt.Errorf("error purging ledger: %w", err)
	}
	return nil
}

// Totals sums rows per drinker, heaviest drinker first
func Totals(rows []postgres.RoundResult) []DrinkerTotal {
	byPlayer := make(map[string]*DrinkerTotal)
	for _, r := range rows {
		t, ok := byPlayer[r.DrinkerID]
		if !ok {
			t = &DrinkerTotal{PlayerID: r.DrinkerID}
			byPlayer[r.DrinkerID] = t
		}
		if r.DrinkerName != "" {
			t.Name = r.DrinkerName
		}
		t.Amount += r.Amount
		t.Rounds++
	}

	totals := make([]DrinkerTotal, 0, len(byPlayer))
	for _, t := range byPlayer {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Amount != totals[j].Amount {
			return totals[i].Amount > totals[j].Amount
		}
		return totals[i].PlayerID < totals[j].PlayerID
	})
	return totals
}
