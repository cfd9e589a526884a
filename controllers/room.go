package controllers

import (
	"Nhauzo/middleware"
	"Nhauzo/models/postgres"
	"Nhauzo/services/game"
	"Nhauzo/services/ledger"
	"Nhauzo/services/room"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Session cookie fields
const (
	sessionPlayerKey = "player_id"
	sessionRoomKey   = "room_id"
	sessionTokenKey  = "token"
)

// RoomHistory reads the drink ledger of a room
type RoomHistory interface {
	ListByRoom(ctx context.Context, roomID string) ([]postgres.RoundResult, error)
}

type RoomController struct {
	Hub    *room.Hub
	Tokens *middleware.TokenManager
	// History is nil when no database is configured
	History RoomHistory
	Now     func() time.Time
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (rc *RoomController) now() time.Time {
	if rc.Now != nil {
		return rc.Now()
	}
	return time.Now()
}

// @Summary Create a room
// @Description Opens a room hosted by the caller and returns the host's player token
// @Tags rooms
// @Accept json
// @Produce json
// @Param body body object{name=string} true "Host display name"
// @Success 201 {object} object{room_id=string,player_id=string,token=string,room=object}
// @Failure 400 {object} object{error=string,message=string}
// @Router /rooms [post]
func (rc *RoomController) CreateRoom(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", game.ErrValidation, err))
		return
	}

	gameRoom, playerID, err := rc.Hub.CreateRoom(c.Request.Context(), req.Name)
	if err != nil {
		log.Errorf("[CREATE-ERROR] %v", err)
		abortWithError(c, err)
		return
	}
	rc.respondWithSession(c, http.StatusCreated, gameRoom.ID, playerID, game.PublicView(gameRoom))
}

// @Summary Join a room
// @Description Adds the caller to the room behind the code
// @Tags rooms
// @Accept json
// @Produce json
// @Param room_id path string true "Room code"
// @Param body body object{name=string} true "Display name"
// @Success 200 {object} object{room_id=string,player_id=string,token=string,room=object}
// @Failure 400 {object} object{error=string,message=string}
// @Failure 404 {object} object{error=string,message=string}
// @Router /rooms/{room_id}/join [post]
func (rc *RoomController) JoinRoom(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", game.ErrValidation, err))
		return
	}

	gameRoom, playerID, err := rc.Hub.JoinRoom(c.Request.Context(), c.Param("room_id"), req.Name)
	if err != nil {
		log.WithField("room", c.Param("room_id")).Infof("[JOIN-ERROR] %v", err)
		abortWithError(c, err)
		return
	}
	rc.respondWithSession(c, http.StatusOK, gameRoom.ID, playerID, game.PublicView(gameRoom))
}

// @Summary Get a room
// @Description Returns the current room document
// @Tags rooms
// @Produce json
// @Param room_id path string true "Room code"
// @Success 200 {object} object
// @Failure 404 {object} object{error=string,message=string}
// @Router /rooms/{room_id} [get]
func (rc *RoomController) GetRoom(c *gin.Context) {
	roomID, err := game.NormalizeRoomCode(c.Param("room_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	gameRoom, err := rc.Hub.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, game.PublicView(gameRoom))
}

// @Summary Drink history of a room
// @Description Rounds played so far and the total per player. Only members of the room may read it.
// @Tags rooms
// @Produce json
// @Param room_id path string true "Room code"
// @Param Authorization header string true "Bearer player token"
// @Success 200 {object} object{room_id=string,rounds=array,totals=array}
// @Failure 403 {object} object{error=string,message=string}
// @Failure 503 {object} object{error=string}
// @Router /rooms/{room_id}/history [get]
// @Security ApiKeyAuth
func (rc *RoomController) GetHistory(c *gin.Context) {
	roomID, ok := rc.memberOf(c)
	if !ok {
		return
	}
	if rc.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is not enabled"})
		return
	}

	rows, err := rc.History.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		log.WithField("room", roomID).Errorf("[HISTORY-ERROR] %v", err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id": roomID,
		"rounds":  rows,
		"totals":  ledger.Totals(rows),
	})
}

// @Summary Leave a room
// @Description Removes the caller from the room. The room closes when the host leaves.
// @Tags rooms
// @Produce json
// @Param room_id path string true "Room code"
// @Param Authorization header string true "Bearer player token"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string,message=string}
// @Failure 404 {object} object{error=string,message=string}
// @Router /rooms/{room_id}/players/me [delete]
// @Security ApiKeyAuth
func (rc *RoomController) LeaveRoom(c *gin.Context) {
	roomID, ok := rc.memberOf(c)
	if !ok {
		return
	}
	playerID := middleware.Player(c).PlayerID

	if err := rc.Hub.Leave(c.Request.Context(), roomID, playerID); err != nil {
		log.WithFields(log.Fields{"room": roomID, "player": playerID}).Infof("[LEAVE-ERROR] %v", err)
		abortWithError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Warnf("[LEAVE] Could not clear session: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "left room"})
}

// @Summary Current session
// @Description Returns the room and player stored in the session cookie, so a reloaded client can reconnect
// @Tags rooms
// @Produce json
// @Success 200 {object} object{room_id=string,player_id=string,token=string}
// @Failure 404 {object} object{error=string,message=string}
// @Router /session [get]
func (rc *RoomController) GetSession(c *gin.Context) {
	session := sessions.Default(c)
	roomID, _ := session.Get(sessionRoomKey).(string)
	playerID, _ := session.Get(sessionPlayerKey).(string)
	token, _ := session.Get(sessionTokenKey).(string)
	if roomID == "" || playerID == "" || token == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session"})
		return
	}

	gameRoom, err := rc.Hub.GetRoom(c.Request.Context(), roomID)
	if err == nil && !gameRoom.HasPlayer(playerID) {
		err = game.ErrUnknownPlayer
	}
	if err != nil {
		// the room is gone or we were removed, forget it
		session.Clear()
		session.Save()
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":   roomID,
		"player_id": playerID,
		"token":     token,
	})
}

// memberOf checks that the token of the request was issued for the room in
// the path
func (rc *RoomController) memberOf(c *gin.Context) (string, bool) {
	roomID, err := game.NormalizeRoomCode(c.Param("room_id"))
	if err != nil {
		abortWithError(c, err)
		return "", false
	}
	if middleware.Player(c).RoomID != roomID {
		abortWithError(c, fmt.Errorf("%w: token issued for another room", game.ErrNotAllowed))
		return "", false
	}
	return roomID, true
}

func (rc *RoomController) respondWithSession(c *gin.Context, status int, roomID, playerID string, body any) {
	token, err := rc.Tokens.Generate(playerID, roomID, rc.now())
	if err != nil {
		log.Errorf("[TOKEN-ERROR] %v", err)
		abortWithError(c, errors.New("could not issue player token"))
		return
	}

	session := sessions.Default(c)
	session.Set(sessionRoomKey, roomID)
	session.Set(sessionPlayerKey, playerID)
	session.Set(sessionTokenKey, token)
	if err := session.Save(); err != nil {
		log.Warnf("[SESSION] Could not save session: %v", err)
	}

	c.JSON(status, gin.H{
		"room_id":   roomID,
		"player_id": playerID,
		"token":     token,
		"room":      body,
	})
}
