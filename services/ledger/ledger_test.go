package ledger

import (
	"Nhauzo/models/postgres"
	redis_models "Nhauzo/models/redis"
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return New(gdb), mock
}

func resultRoom() *redis_models.GameRoom {
	amount := 0.6
	return &redis_models.GameRoom{
		ID:               "ABCD",
		HostID:           "an",
		State:            redis_models.StateResult,
		Mode:             redis_models.ModeRandom,
		CurrentLoserID:   "binh",
		TargetOpponentID: "an",
		MinigameType:     redis_models.MinigameRPS,
		WinnerID:         "binh",
		WinnerBeerAmount: &amount,
		Players: map[string]*redis_models.Player{
			"an":   {ID: "an", Name: "An", IsHost: true},
			"binh": {ID: "binh", Name: "Binh"},
		},
	}
}

func TestResultFromRoom(t *testing.T) {
	row, err := ResultFromRoom(resultRoom())
	require.NoError(t, err)
	assert.Equal(t, "ABCD", row.RoomID)
	assert.Equal(t, "binh", row.DrinkerID)
	assert.Equal(t, "Binh", row.DrinkerName)
	assert.Equal(t, 0.6, row.Amount)
	assert.Equal(t, postgres.SourceDuel, row.Source)

	var detail postgres.RoundDetail
	require.NoError(t, json.Unmarshal(row.Detail, &detail))
	assert.Equal(t, "RPS", detail.Minigame)
	assert.Equal(t, "an", detail.DefenderID)

	wheel := resultRoom()
	wheel.MinigameType = ""
	wheel.WinnerPenalty = "Uống 2 ly"
	row, err = ResultFromRoom(wheel)
	require.NoError(t, err)
	assert.Equal(t, postgres.SourceWheel, row.Source)
	assert.Contains(t, string(row.Detail), "Uống 2 ly")

	lobby := resultRoom()
	lobby.State = redis_models.StateLobby
	_, err = ResultFromRoom(lobby)
	assert.Error(t, err)
}

func TestRecord(t *testing.T) {
	l, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "round_results"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, l.Record(context.Background(), resultRoom()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRoom(t *testing.T) {
	l, mock := newMockLedger(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "round_results" WHERE room_id = $1 ORDER BY id`)).
		WithArgs("ABCD").
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "drinker_id", "drinker_name", "amount", "source"}).
			AddRow(1, "ABCD", "binh", "Binh", 0.6, "DUEL").
			AddRow(2, "ABCD", "an", "An", 1.0, "WHEEL").
			AddRow(3, "ABCD", "binh", "Binh", 2.0, "WHEEL"))

	rows, err := l.ListByRoom(context.Background(), "ABCD")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.NoError(t, mock.ExpectationsWereMet())

	totals := Totals(rows)
	require.Len(t, totals, 2)
	assert.Equal(t, "binh", totals[0].PlayerID)
	assert.InDelta(t, 2.6, totals[0].Amount, 1e-9)
	assert.Equal(t, 2, totals[0].Rounds)
	assert.Equal(t, "An", totals[1].Name)
}

func TestPurge(t *testing.T) {
	l, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "round_results" WHERE room_id = $1`)).
		WithArgs("ABCD").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, l.Purge(context.Background(), "ABCD"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
