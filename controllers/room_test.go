package controllers_test

import (
	"Nhauzo/controllers"
	"Nhauzo/middleware"
	"Nhauzo/models/postgres"
	redis_models "Nhauzo/models/redis"
	"Nhauzo/routes"
	"Nhauzo/services/game"
	"Nhauzo/services/room"
	"Nhauzo/services/store"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	rows []postgres.RoundResult
}

func (f *fakeHistory) ListByRoom(ctx context.Context, roomID string) ([]postgres.RoundResult, error) {
	var out []postgres.RoundResult
	for _, r := range f.rows {
		if r.RoomID == roomID {
			out = append(out, r)
		}
	}
	return out, nil
}

type testServer struct {
	router *gin.Engine
	rooms  *controllers.RoomController
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := room.NewHub(store.NewMemoryStore(), game.NewEngine(game.DefaultSettings(), nil, nil), room.RealClock(), nil)
	codes := []string{"ABCD", "WXYZ"}
	hub.NewCode = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}
	t.Cleanup(hub.Close)

	tokens := middleware.NewTokenManager("controller tests", time.Hour)
	rooms := &controllers.RoomController{Hub: hub, Tokens: tokens}

	r := gin.New()
	middleware.SetUpMiddleware(r, "controller tests cookie key", false)
	routes.SetupRoutes(r, rooms, tokens)
	return &testServer{router: r, rooms: rooms}
}

type response struct {
	code    int
	body    map[string]any
	cookies []*http.Cookie
}

func (s *testServer) do(t *testing.T, method, path string, body any, header map[string]string, cookies ...*http.Cookie) response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	res := response{code: w.Code, cookies: w.Result().Cookies()}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res.body), w.Body.String())
	}
	return res
}

func bearer(token any) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token.(string)}
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	res := s.do(t, http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "pong, dô!", res.body["message"])
}

func TestCreateAndJoinRoom(t *testing.T) {
	s := newTestServer(t)

	created := s.do(t, http.MethodPost, "/rooms", gin.H{"name": "An"}, nil)
	require.Equal(t, http.StatusCreated, created.code)
	assert.Equal(t, "ABCD", created.body["room_id"])
	assert.NotEmpty(t, created.body["token"])
	roomDoc := created.body["room"].(map[string]any)
	assert.Equal(t, "LOBBY", roomDoc["state"])
	assert.Equal(t, created.body["player_id"], roomDoc["hostId"])

	joined := s.do(t, http.MethodPost, "/rooms/abcd/join", gin.H{"name": "Binh"}, nil)
	require.Equal(t, http.StatusOK, joined.code)
	assert.Equal(t, "ABCD", joined.body["room_id"])
	players := joined.body["room"].(map[string]any)["players"].(map[string]any)
	assert.Len(t, players, 2)

	got := s.do(t, http.MethodGet, "/rooms/ABCD", nil, nil)
	require.Equal(t, http.StatusOK, got.code)
	assert.Equal(t, "ABCD", got.body["id"])
}

func TestGetRoomHidesDeathNumber(t *testing.T) {
	s := newTestServer(t)
	created := s.do(t, http.MethodPost, "/rooms", gin.H{"name": "An"}, nil)
	require.Equal(t, http.StatusCreated, created.code)

	_, err := s.rooms.Hub.StartRound(context.Background(), "ABCD", created.body["player_id"].(string), redis_models.ModeDeathNumber)
	require.NoError(t, err)

	got := s.do(t, http.MethodGet, "/rooms/ABCD", nil, nil)
	require.Equal(t, http.StatusOK, got.code)
	assert.Equal(t, "PICKING_LOSER", got.body["state"])
	assert.NotContains(t, got.body, "deathNumber")
}

func TestRoomErrors(t *testing.T) {
	s := newTestServer(t)

	t.Run("Missing name", func(t *testing.T) {
		res := s.do(t, http.MethodPost, "/rooms", gin.H{}, nil)
		assert.Equal(t, http.StatusBadRequest, res.code)
		assert.Equal(t, "Dữ liệu không hợp lệ", res.body["message"])
	})

	t.Run("Unknown room", func(t *testing.T) {
		res := s.do(t, http.MethodPost, "/rooms/ZZZZ/join", gin.H{"name": "Binh"}, nil)
		assert.Equal(t, http.StatusNotFound, res.code)
		assert.Equal(t, "Phòng không tồn tại", res.body["message"])
	})

	t.Run("Malformed code", func(t *testing.T) {
		res := s.do(t, http.MethodGet, "/rooms/AB", nil, nil)
		assert.Equal(t, http.StatusBadRequest, res.code)
	})
}

func TestSessionCookie(t *testing.T) {
	s := newTestServer(t)

	none := s.do(t, http.MethodGet, "/session", nil, nil)
	assert.Equal(t, http.StatusNotFound, none.code)

	created := s.do(t, http.MethodPost, "/rooms", gin.H{"name": "An"}, nil)
	require.Equal(t, http.StatusCreated, created.code)
	require.NotEmpty(t, created.cookies)

	session := s.do(t, http.MethodGet, "/session", nil, nil, created.cookies...)
	require.Equal(t, http.StatusOK, session.code)
	assert.Equal(t, "ABCD", session.body["room_id"])
	assert.Equal(t, created.body["player_id"], session.body["player_id"])
	assert.Equal(t, created.body["token"], session.body["token"])
}

func TestHistory(t *testing.T) {
	s := newTestServer(t)
	host := s.do(t, http.MethodPost, "/rooms", gin.H{"name": "An"}, nil)
	other := s.do(t, http.MethodPost, "/rooms", gin.H{"name": "Chi"}, nil)
	require.Equal(t, "WXYZ", other.body["room_id"])

	res := s.do(t, http.MethodGet, "/rooms/ABCD/history", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)

	res = s.do(t, http.MethodGet, "/rooms/ABCD/history", nil, bearer(other.body["token"]))
	assert.Equal(t, http.StatusForbidden, res.code)

	res = s.do(t, http.MethodGet, "/rooms/ABCD/history", nil, bearer(host.body["token"]))
	assert.Equal(t, http.StatusServiceUnavailable, res.code)

	hostID := host.body["player_id"].(string)
	s.rooms.History = &fakeHistory{rows: []postgres.RoundResult{
		{ID: 1, RoomID: "ABCD", DrinkerID: hostID, DrinkerName: "An", Amount: 1},
		{ID: 2, RoomID: "WXYZ", DrinkerID: "someone", Amount: 2},
		{ID: 3, RoomID: "ABCD", DrinkerID: hostID, DrinkerName: "An", Amount: 0.5},
	}}
	res = s.do(t, http.MethodGet, "/rooms/ABCD/history", nil, bearer(host.body["token"]))
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.body["rounds"], 2)
	totals := res.body["totals"].([]any)
	require.Len(t, totals, 1)
	assert.Equal(t, 1.5, totals[0].(map[string]any)["amount"])
}

func TestLeaveRoom(t *testing.T) {
	s := newTestServer(t)
	host := s.do(t, http.MethodPost, "/rooms", gin.H{"name": "An"}, nil)
	guest := s.do(t, http.MethodPost, "/rooms/ABCD/join", gin.H{"name": "Binh"}, nil)

	res := s.do(t, http.MethodDelete, "/rooms/ABCD/players/me", nil, bearer(guest.body["token"]))
	require.Equal(t, http.StatusOK, res.code)

	got := s.do(t, http.MethodGet, "/rooms/ABCD", nil, nil)
	require.Equal(t, http.StatusOK, got.code)
	assert.Len(t, got.body["players"], 1)

	res = s.do(t, http.MethodDelete, "/rooms/ABCD/players/me", nil, bearer(host.body["token"]))
	require.Equal(t, http.StatusOK, res.code)

	got = s.do(t, http.MethodGet, "/rooms/ABCD", nil, nil)
	assert.Equal(t, http.StatusNotFound, got.code)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, controllers.StatusOf(store.ErrRoomNotFound))
	assert.Equal(t, http.StatusForbidden, controllers.StatusOf(game.ErrNotAllowed))
	assert.Equal(t, http.StatusConflict, controllers.StatusOf(game.ErrWrongPhase))
	assert.Equal(t, http.StatusConflict, controllers.StatusOf(game.ErrSpinInProgress))
	assert.Equal(t, http.StatusServiceUnavailable, controllers.StatusOf(room.ErrNoRoomCode))
	assert.Equal(t, http.StatusServiceUnavailable, controllers.StatusOf(room.ErrHubClosed))
	assert.Equal(t, http.StatusInternalServerError, controllers.StatusOf(assert.AnError))
}
